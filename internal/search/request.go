package search

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Request is a search request as received from the client. Page and Size
// accept anything JSON can carry; see LooseNumber.
type Request struct {
	Field   string      `json:"field"`
	Keyword string      `json:"keyword"`
	Page    LooseNumber `json:"page"`
	Size    LooseNumber `json:"size"`

	// fieldErr and keywordErr hold a non-string field or keyword. They are
	// reported by Service.Search, not by decoding, so they fail like any
	// other search.
	fieldErr   error
	keywordErr error
}

// wireRequest is the undecoded shape of Request.
type wireRequest struct {
	Field   json.RawMessage `json:"field"`
	Keyword json.RawMessage `json:"keyword"`
	Page    LooseNumber     `json:"page"`
	Size    LooseNumber     `json:"size"`
}

// UnmarshalJSON accepts any object. A top-level array carries no fields and
// decodes to the zero Request; other scalars are rejected.
func (r *Request) UnmarshalJSON(b []byte) error {
	*r = Request{}
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		return nil
	}
	if len(b) == 0 || b[0] != '{' {
		return fmt.Errorf("search request must be a JSON object, got %s", b)
	}

	var w wireRequest
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	r.Page, r.Size = w.Page, w.Size
	r.Field, r.fieldErr = decodeText("field", w.Field, true)
	r.Keyword, r.keywordErr = decodeText("keyword", w.Keyword, false)
	return nil
}

// decodeText reads a string-valued member. Missing and null mean "". When
// falsyIsEmpty is set, false and numeric zero also mean "", since they
// disable the filter rather than name a column.
func decodeText(name string, raw json.RawMessage, falsyIsEmpty bool) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	if falsyIsEmpty {
		if bytes.Equal(raw, []byte("false")) {
			return "", nil
		}
		if v, err := strconv.ParseFloat(string(raw), 64); err == nil && v == 0 {
			return "", nil
		}
	}
	return "", fmt.Errorf("%s must be a string, got %s", name, raw)
}

// LooseNumber is a JSON value coerced to a number the way a browser client
// expects: numbers, numeric strings and booleans coerce; null, objects,
// arrays and non-numeric strings leave it unset. Out-of-range values become
// ±Inf and are saturated by the clamps.
type LooseNumber struct {
	Value float64
	Set   bool
}

// Num returns a set LooseNumber.
func Num(v float64) LooseNumber {
	return LooseNumber{Value: v, Set: true}
}

// UnmarshalJSON never fails on well-formed JSON.
func (n *LooseNumber) UnmarshalJSON(b []byte) error {
	*n = LooseNumber{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}

	switch b[0] {
	case 'n', '[', '{':
		return nil
	case 't', 'f':
		v, err := cast.ToFloat64E(b[0] == 't')
		if err != nil {
			return nil
		}
		*n = Num(v)
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if v, ok := parseNumber(strings.TrimSpace(s)); ok {
			*n = Num(v)
		}
	default:
		if v, ok := parseNumber(string(b)); ok {
			*n = Num(v)
		}
	}
	return nil
}

// parseNumber parses a decimal literal or a signed "Infinity". Literals
// beyond float64 range saturate to ±Inf.
func parseNumber(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	if math.IsNaN(v) {
		return 0, false
	}
	// ParseFloat also takes "inf" in any case; only the exact spelling counts.
	if math.IsInf(v, 0) && err == nil && strings.TrimLeft(s, "+-") != "Infinity" {
		return 0, false
	}
	return v, true
}

// MarshalJSON writes null for an unset value.
func (n LooseNumber) MarshalJSON() ([]byte, error) {
	if !n.Set {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// or returns the value, or def when the value is unset or zero.
func (n LooseNumber) or(def float64) float64 {
	if !n.Set || n.Value == 0 {
		return def
	}
	return n.Value
}
