package skyservice

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	return NewClient(Config{BaseURL: url + "/", Token: "tok", DeviceUUID: "dev", Timezone: -3})
}

func TestClient_CreateDraft(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "createDraft", q.Get("action"))
		assert.Equal(t, "drafts", q.Get("section"))
		assert.Equal(t, "-3", q.Get("timezone"))
		assert.Equal(t, "tok", q.Get("token"))
		assert.Equal(t, "dev", q.Get("device_uuid"))
		assert.Equal(t, "C1", q.Get("companyId"))
		assert.Equal(t, "2", q.Get("tradepointId"))
		assert.False(t, q.Has("draftId"))

		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))
		_, _ = w.Write([]byte(`{"status":"done","data":"D1"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	id, err := c.CreateDraft(context.Background(), Target{CompanyID: "C1", TradePointID: 2}, NewCreatePayload("F1", 2, at, 0))
	require.NoError(t, err)
	assert.Equal(t, "D1", id)

	assert.Equal(t, "F1", body["formId"])
	assert.Equal(t, "2024-05-01", body["date"])
	assert.Equal(t, "09:30:00", body["time"])
	assert.Equal(t, "", body["warehouseId"])
	assert.Equal(t, float64(1), body["workerId"])
	assert.Equal(t, float64(-16), body["expenses"])
	products := body["products"].([]any)
	require.Len(t, products, 1)
	assert.Equal(t, "", products[0].(map[string]any)["nomenclatureId"])
}

func TestClient_NumericIDsAndStatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("action") {
		case "addComing":
			assert.Equal(t, "productMotion", r.URL.Query().Get("section"))
			assert.Equal(t, "D9", r.URL.Query().Get("draftId"))
			_, _ = w.Write([]byte(`{"status":"done","data":12345}`))
		case "saveDraft":
			_, _ = w.Write([]byte(`{"status":"error","message":"warehouse"}`))
		case "createDraft":
			_, _ = w.Write([]byte(`{"status":"done","data":null}`))
		}
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	target := Target{CompanyID: "C1", TradePointID: 2, DraftID: "D9"}

	doc, err := c.AddComing(context.Background(), target, NewFilledPayload("F", 2, c.Now(), 4, "ACME", nil))
	require.NoError(t, err)
	assert.Equal(t, "12345", doc)

	err = c.SaveDraft(context.Background(), target, NewPinPayload("F", 2, c.Now(), 4))
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, "saveDraft", statusErr.Action)
	assert.Equal(t, "error", statusErr.Status)

	_, err = c.CreateDraft(context.Background(), Target{CompanyID: "C1", TradePointID: 2}, NewCreatePayload("F", 2, c.Now(), 5))
	assert.ErrorIs(t, err, ErrMissingID)
}

func TestNewFilledPayload(t *testing.T) {
	id := "42"
	products := []Product{
		NewProduct(&id, "Кава Gold 1кг", "кг", 2, 100, 200),
		NewProduct(nil, "Sugar", "", 3, 3.333, 0),
	}

	assert.Equal(t, 200.0, products[0].Summ)
	assert.Equal(t, 3.33, products[1].Cost)
	assert.Equal(t, 3.33, products[1].SavedCost)
	assert.Equal(t, 9.99, products[1].Summ)
	assert.Equal(t, "0", products[1].Markup)

	p := NewFilledPayload("F", 2, time.Now(), 4, "ACME", products)
	assert.Equal(t, 209.99, p.SumCost)
	assert.Equal(t, "ACME", p.Provider.ProviderName)
	assert.Equal(t, "credit", *p.Payment.Status)
	assert.Equal(t, -1, *p.Payment.From)
	assert.Nil(t, p.WorkerID)

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"warehouseId":4`)
	assert.NotContains(t, string(raw), "workerId")
}

func TestClient_NowUsesServiceTimezone(t *testing.T) {
	c := NewClient(Config{Timezone: -3})
	_, offset := c.Now().Zone()
	assert.Equal(t, 3*3600, offset)
}
