package entity

import (
	"fmt"
	"time"

	"invoice-intake-be/pkg/utils"
)

type InvoiceStatus string
type MatchStatus string

const (
	InvoiceStatusRecognizing         InvoiceStatus = "recognizing"
	InvoiceStatusRecognitionComplete InvoiceStatus = "recognition_complete"
	InvoiceStatusMatchingComplete    InvoiceStatus = "matching_complete"
	InvoiceStatusAwaitingCorrection  InvoiceStatus = "awaiting_correction"
	InvoiceStatusTradePointSelected  InvoiceStatus = "trade_point_selected"
	InvoiceStatusReadyToSubmit       InvoiceStatus = "ready_to_submit"
	InvoiceStatusSubmitted           InvoiceStatus = "submitted"
	InvoiceStatusFailed              InvoiceStatus = "failed"

	MatchStatusUnmatched     MatchStatus = "unmatched"
	MatchStatusMatchedByAI   MatchStatus = "matched_by_ai"
	MatchStatusMatchedByUser MatchStatus = "matched_by_user"
)

const (
	UnknownSupplier = "Не знайдено"
	DefaultUnit     = "од."
)

// SessionKey identifies the latest bot message of an invoice conversation.
type SessionKey struct {
	ChatID    int64 `json:"chat_id"`
	MessageID int64 `json:"message_id"`
}

func (k SessionKey) String() string {
	return fmt.Sprintf("invoice_%d_%d", k.ChatID, k.MessageID)
}

func (k SessionKey) IsZero() bool {
	return k.ChatID == 0 && k.MessageID == 0
}

type LineItem struct {
	Name        string      `json:"name"`
	Quantity    float64     `json:"quantity"`
	Unit        string      `json:"unit"`
	Sum         float64     `json:"sum"`
	FinalPrice  float64     `json:"final_price"`
	ProductID   *string     `json:"product_id"`
	MatchStatus MatchStatus `json:"match_status"`
}

// NewLineItem builds an unmatched item with its derived unit price.
func NewLineItem(name string, quantity float64, unit string, sum float64) LineItem {
	if unit == "" {
		unit = DefaultUnit
	}
	if quantity < 0 {
		quantity = 0
	}
	return LineItem{
		Name:        name,
		Quantity:    quantity,
		Unit:        unit,
		Sum:         sum,
		FinalPrice:  utils.UnitPrice(sum, quantity),
		MatchStatus: MatchStatusUnmatched,
	}
}

func (i LineItem) IsMatched() bool {
	return i.ProductID != nil && *i.ProductID != ""
}

func (i LineItem) ProductIDValue() string {
	if i.ProductID == nil {
		return ""
	}
	return *i.ProductID
}

// Assign links the item to a catalog product.
func (i *LineItem) Assign(productID string, status MatchStatus) {
	id := productID
	i.ProductID = &id
	i.MatchStatus = status
}

// InvoiceState is the aggregate carried between webhook requests.
type InvoiceState struct {
	SessionID             string        `json:"session_id"`
	ChatID                int64         `json:"chat_id"`
	LatestKey             SessionKey    `json:"latest_key"`
	Status                InvoiceStatus `json:"status"`
	Supplier              string        `json:"supplier"`
	DeclaredTotal         float64       `json:"declared_total"`
	Items                 []LineItem    `json:"items"`
	WorkerID              int64         `json:"worker_id,omitempty"`
	SelectedTradePointKey string        `json:"selected_trade_point_key,omitempty"`
	FormID                string        `json:"form_id,omitempty"`
	CreatedAt             time.Time     `json:"created_at"`
}

func (s *InvoiceState) ItemsTotal() float64 {
	sums := make([]float64, len(s.Items))
	for i, item := range s.Items {
		sums[i] = item.Sum
	}
	return utils.Sum(sums...)
}

func (s *InvoiceState) UnmatchedCount() int {
	n := 0
	for _, item := range s.Items {
		if !item.IsMatched() {
			n++
		}
	}
	return n
}
