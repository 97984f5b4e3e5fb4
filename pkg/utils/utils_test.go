package utils

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitPrice(t *testing.T) {
	tests := []struct {
		name     string
		sum      float64
		quantity float64
		want     float64
	}{
		{"simple", 200, 2, 100},
		{"rounds half up", 10, 3, 3.33},
		{"two thirds", 20, 3, 6.67},
		{"fractional quantity", 45.5, 0.5, 91},
		{"zero quantity", 100, 0, 0},
		{"negative quantity", 100, -1, 0},
		{"zero sum", 0, 4, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UnitPrice(tt.sum, tt.quantity))
		})
	}
}

func TestWithinTolerance(t *testing.T) {
	assert.True(t, WithinTolerance(200, 200, 1))
	assert.True(t, WithinTolerance(200.99, 200, 1))
	assert.True(t, WithinTolerance(201, 200, 1))
	assert.False(t, WithinTolerance(201.01, 200, 1))
	assert.False(t, WithinTolerance(200, 250, 1))
}

func TestSumAvoidsFloatDrift(t *testing.T) {
	assert.Equal(t, 0.3, Sum(0.1, 0.2))
	assert.Equal(t, "0.30", FormatMoney(Sum(0.1, 0.2)))
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`Кава "GOLD" (1кг)`, "кава gold 1кг"},
		{"  Coffee   1kg  ", "coffee 1kg"},
		{"Milk 2,5% / 1л", "milk 2,5 1л"},
		{"Sugar-white 1.5 kg", "sugar white 1.5 kg"},
		{"ＦＵＬＬ　ＷＩＤＴＨ", "full width"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.in))
		})
	}
}

func TestSpans(t *testing.T) {
	assert.Equal(t, `{"a":1}`, ObjectSpan("```json\n{\"a\":1}\n```"))
	assert.Equal(t, "no json", ObjectSpan("no json"))
	assert.Equal(t, `[{"x":[1]}]`, ArraySpan("Here: [{\"x\":[1]}] done"))
	assert.Equal(t, "a b", StripNBSP("a\u00a0b"))
}

func TestFlexFloat(t *testing.T) {
	var v struct {
		A FlexFloat `json:"a"`
		B FlexFloat `json:"b"`
		C FlexFloat `json:"c"`
		D FlexFloat `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 12.5, "b": "1 200,75", "c": null, "d": ""}`), &v))
	assert.Equal(t, 12.5, v.A.Float64())
	assert.Equal(t, 1200.75, v.B.Float64())
	assert.Equal(t, 0.0, v.C.Float64())
	assert.Equal(t, 0.0, v.D.Float64())

	var bad struct {
		A FlexFloat `json:"a"`
	}
	assert.Error(t, json.Unmarshal([]byte(`{"a": "abc"}`), &bad))
}
