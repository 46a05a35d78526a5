package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Field is an optional payload value kept exactly as the backend sent it.
// A missing key and a JSON null both decode to an absent Field; zero is
// present.
type Field struct {
	raw     string
	present bool
}

// NewField returns a present field holding s verbatim
func NewField(s string) Field {
	return Field{raw: s, present: true}
}

// Absent returns a field with no value
func Absent() Field {
	return Field{}
}

// UnmarshalJSON keeps numbers as their literal text and strings unquoted
func (f *Field) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*f = Field{}
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("failed to decode string field: %w", err)
		}
		*f = NewField(s)
		return nil
	case b[0] == '{' || b[0] == '[':
		return fmt.Errorf("unsupported field value %s", b)
	}
	if !json.Valid(b) {
		return fmt.Errorf("invalid field value %s", b)
	}
	*f = NewField(string(b))
	return nil
}

// MarshalJSON writes numbers back as numbers and everything else as a string
func (f Field) MarshalJSON() ([]byte, error) {
	if !f.present {
		return []byte("null"), nil
	}
	if _, ok := f.Float64(); ok && json.Valid([]byte(f.raw)) {
		return []byte(f.raw), nil
	}
	return json.Marshal(f.raw)
}

// Present reports whether the field carried a value
func (f Field) Present() bool {
	return f.present
}

// String returns the verbatim value, or "" when absent
func (f Field) String() string {
	return f.raw
}

// Float64 parses the value as a finite number
func (f Field) Float64() (float64, bool) {
	if !f.present {
		return 0, false
	}
	v, err := strconv.ParseFloat(f.raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
