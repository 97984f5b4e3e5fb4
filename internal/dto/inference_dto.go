package dto

import (
	"encoding/json"
	"strconv"
	"strings"

	"invoice-intake-be/pkg/utils"
)

// RecognizedInvoice is the JSON object the recognition prompt asks for.
type RecognizedInvoice struct {
	Supplier    string           `json:"supplier"`
	TotalAmount utils.FlexFloat  `json:"total_amount"`
	Items       []RecognizedItem `json:"items"`
}

type RecognizedItem struct {
	Name     string          `json:"name"`
	Quantity utils.FlexFloat `json:"quantity"`
	Unit     string          `json:"unit"`
	Sum      utils.FlexFloat `json:"sum"`
}

// MatchCandidate is one invoice line as sent to the matching prompt.
type MatchCandidate struct {
	Name           string  `json:"name"`
	NormalizedName string  `json:"normalized_name"`
	Quantity       float64 `json:"quantity"`
	Unit           string  `json:"unit"`
	Sum            float64 `json:"sum"`
	ProductID      *string `json:"product_id"`
	MatchStatus    string  `json:"match_status"`
}

// CatalogEntry is one catalog product as sent to the matching prompt.
type CatalogEntry struct {
	ProductID          string   `json:"product_id"`
	Name               string   `json:"name"`
	NormalizedName     string   `json:"normalized_name"`
	NormalizedSynonyms []string `json:"normalized_synonyms"`
}

// MatchedItem is one element of the array returned by the model. Only the
// match fields are read back.
type MatchedItem struct {
	ProductID   FlexID `json:"product_id"`
	MatchStatus string `json:"match_status"`
}

// FlexID accepts a string, a number or null.
type FlexID string

func (id *FlexID) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FlexID(strings.TrimSpace(s))
		return nil
	}
	if _, err := strconv.ParseFloat(raw, 64); err != nil {
		return err
	}
	*id = FlexID(raw)
	return nil
}
