package skyservice

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DraftTypeComing = "coming"
	// expenses code the accounting service expects on inbound-stock drafts
	expensesCode = -16
)

type Provider struct {
	ProviderID   *int64 `json:"providerId"`
	ProviderName string `json:"providerName"`
}

type Payment struct {
	Status *string `json:"status"`
	From   *int    `json:"from"`
}

// placeholderProduct is the single empty line the service requires on a
// draft before real lines exist. Every field is an empty string.
type placeholderProduct struct {
	Barcode        string `json:"barcode"`
	Quantity       string `json:"quantity"`
	Cost           string `json:"cost"`
	Summ           string `json:"summ"`
	Price          string `json:"price"`
	NomenclatureID string `json:"nomenclatureId"`
}

type Product struct {
	Barcode          string  `json:"barcode"`
	Quantity         float64 `json:"quantity"`
	Cost             float64 `json:"cost"`
	Summ             float64 `json:"summ"`
	Price            float64 `json:"price"`
	NomenclatureID   *string `json:"nomenclatureId"`
	SavedCost        float64 `json:"savedCost"`
	NomenclatureName string  `json:"nomenclatureName"`
	Unit             string  `json:"unit"`
	Markup           string  `json:"markup"`
	ActualPrice      float64 `json:"actualPrice"`
	Deleted          bool    `json:"deleted"`
	SummPrice        float64 `json:"summPrice"`
}

// NewProduct builds a committed line. cost is the unit price rounded to
// cents; summ is the document line sum when present, else cost*quantity.
func NewProduct(productID *string, name, unit string, quantity, unitPrice, lineSum float64) Product {
	cost := decimal.NewFromFloat(unitPrice).Round(2)
	summ := decimal.NewFromFloat(lineSum)
	if lineSum == 0 {
		summ = cost.Mul(decimal.NewFromFloat(quantity))
	}
	c := cost.InexactFloat64()

	return Product{
		Quantity:         quantity,
		Cost:             c,
		Summ:             summ.Round(2).InexactFloat64(),
		NomenclatureID:   productID,
		SavedCost:        c,
		NomenclatureName: name,
		Unit:             unit,
		Markup:           "0",
	}
}

// DraftPayload is the JSON document shared by every draft call.
type DraftPayload struct {
	FormID             string   `json:"formId"`
	TradepointID       int64    `json:"tradepointId"`
	Date               string   `json:"date"`
	Time               string   `json:"time"`
	BackdatingCheckbox bool     `json:"backdatingCheckbox"`
	AttachmentFiles    []string `json:"attachmentFiles"`
	Provider           Provider `json:"provider"`
	Expenses           int      `json:"expenses"`
	Payment            Payment  `json:"payment"`
	// []placeholderProduct or []Product
	Products           any      `json:"products"`
	Comment            string   `json:"comment"`
	WarehouseID        any      `json:"warehouseId"`
	ChangeChannelPrice bool     `json:"changeChannelPrice"`
	ChannelID          *int64   `json:"channelId"`
	SumCost            float64  `json:"sumCost"`
	DraftType          string   `json:"draftType"`
	WorkerID           *int64   `json:"workerId,omitempty"`
}

func basePayload(formID string, tradepointID int64, at time.Time) DraftPayload {
	return DraftPayload{
		FormID:          formID,
		TradepointID:    tradepointID,
		Date:            at.Format("2006-01-02"),
		Time:            at.Format("15:04:05"),
		AttachmentFiles: []string{},
		Expenses:        expensesCode,
		DraftType:       DraftTypeComing,
	}
}

// NewCreatePayload is sent with createDraft. The warehouse is left empty
// because the create call does not keep it; workerID defaults to 1.
func NewCreatePayload(formID string, tradepointID int64, at time.Time, workerID int64) DraftPayload {
	if workerID <= 0 {
		workerID = 1
	}
	p := basePayload(formID, tradepointID, at)
	p.Products = []placeholderProduct{{}}
	p.WarehouseID = ""
	p.WorkerID = &workerID
	return p
}

// NewPinPayload re-saves the placeholder draft with the destination warehouse.
func NewPinPayload(formID string, tradepointID int64, at time.Time, warehouseID int64) DraftPayload {
	p := basePayload(formID, tradepointID, at)
	p.Products = []placeholderProduct{{}}
	p.WarehouseID = warehouseID
	return p
}

// NewFilledPayload carries the reconciled lines; it is used for the final
// saveDraft and for addComing.
func NewFilledPayload(formID string, tradepointID int64, at time.Time, warehouseID int64, supplier string, products []Product) DraftPayload {
	total := decimal.Zero
	for _, product := range products {
		total = total.Add(decimal.NewFromFloat(product.Summ))
	}

	status := "credit"
	from := -1

	p := basePayload(formID, tradepointID, at)
	p.Provider = Provider{ProviderName: supplier}
	p.Payment = Payment{Status: &status, From: &from}
	p.Products = products
	p.WarehouseID = warehouseID
	p.SumCost = total.Round(2).InexactFloat64()
	return p
}
