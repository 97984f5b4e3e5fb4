package utils

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ObjectSpan trims model output to the first '{' .. last '}' pair.
// The input is returned unchanged when no such pair exists.
func ObjectSpan(s string) string {
	return span(s, '{', '}')
}

// ArraySpan trims model output to the first '[' .. last ']' pair.
func ArraySpan(s string) string {
	return span(s, '[', ']')
}

func span(s string, open, close byte) string {
	start := strings.IndexByte(s, open)
	end := strings.LastIndexByte(s, close)
	if start == -1 || end <= start {
		return s
	}
	return s[start : end+1]
}

// StripNBSP replaces non-breaking spaces, which some models emit inside JSON.
func StripNBSP(s string) string {
	return strings.ReplaceAll(s, "\u00a0", " ")
}

// FlexFloat accepts a JSON number, a numeric string ("12,50", "1 200.00") or null.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == `""` {
		*f = 0
		return nil
	}

	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.NewReplacer(" ", "", "\u00a0", "", ",", ".").Replace(strings.TrimSpace(s))
		if raw == "" {
			*f = 0
			return nil
		}
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return err
	}
	*f = FlexFloat(v)
	return nil
}

func (f FlexFloat) Float64() float64 {
	return float64(f)
}
