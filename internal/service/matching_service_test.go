package service

import (
	"context"
	"testing"

	"invoice-intake-be/internal/constant"
	"invoice-intake-be/internal/entity"
	"invoice-intake-be/internal/pkg/apperror"
	"invoice-intake-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch_MergesOnlyCatalogIDs(t *testing.T) {
	l := &fakeLLM{responses: []string{"```json\n[" +
		`{"name":"Кава смажена GOLD 1кг","product_id":42,"match_status":"matched_by_ai"},` +
		"{\"name\":\"Молоко ультрапаст\",\"product_id\":\"999\",\"match_status\":\"matched_by_ai\"}" +
		"]\n```"}}
	state := twoItemState()
	state.Status = entity.InvoiceStatusRecognitionComplete

	catalog, err := NewMatchingService(coffeeCatalog(), l, logger.NewNopLogger()).Match(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, 2, catalog.Len())

	assert.Equal(t, entity.InvoiceStatusMatchingComplete, state.Status)
	assert.Equal(t, "42", state.Items[0].ProductIDValue())
	assert.Equal(t, entity.MatchStatusMatchedByAI, state.Items[0].MatchStatus)
	assert.False(t, state.Items[1].IsMatched())
	assert.Equal(t, entity.MatchStatusUnmatched, state.Items[1].MatchStatus)

	require.Len(t, l.prompts, 1)
	assert.Contains(t, l.prompts[0], `"normalized_name":"кава смажена gold 1кг"`)
	assert.Contains(t, l.prompts[0], `"product_id":"43"`)
}

func TestMatch_Failures(t *testing.T) {
	tests := []struct {
		name    string
		catalog *fakeCatalog
		output  string
		kind    apperror.Kind
		user    string
	}{
		{name: "empty catalog", catalog: newFakeCatalog(), output: "[]", kind: apperror.KindConfiguration, user: constant.MsgEmptyCatalog},
		{name: "empty output", catalog: coffeeCatalog(), output: " ", kind: apperror.KindInference, user: constant.MsgMatchingEmpty},
		{name: "object instead of array", catalog: coffeeCatalog(), output: `{"items":1}`, kind: apperror.KindInference, user: constant.MsgMatchingUnexpected},
		{name: "broken array", catalog: coffeeCatalog(), output: `[{"product_id":}]`, kind: apperror.KindInference, user: constant.MsgMatchingInvalid},
		{name: "length mismatch", catalog: coffeeCatalog(), output: `[{"product_id":"42","match_status":"matched_by_ai"}]`, kind: apperror.KindInference, user: constant.MsgMatchingInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := twoItemState()
			before := append([]entity.LineItem(nil), state.Items...)

			_, err := NewMatchingService(tt.catalog, &fakeLLM{responses: []string{tt.output}}, logger.NewNopLogger()).Match(context.Background(), state)
			fe, ok := apperror.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.kind, fe.Kind)
			assert.Equal(t, tt.user, fe.UserMessage)
			assert.Equal(t, before, state.Items)
		})
	}
}
