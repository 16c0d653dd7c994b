package models

import (
	"bytes"
	"encoding/json"
)

// Optional is a float64 that may be absent. Absent is distinct from a computed zero.
type Optional struct {
	value float64
	valid bool
}

// Some wraps a computed value
func Some(value float64) Optional {
	return Optional{value: value, valid: true}
}

// None is the absent value
func None() Optional {
	return Optional{}
}

// Get returns the value and whether it is present
func (o Optional) Get() (float64, bool) {
	return o.value, o.valid
}

// IsPresent reports whether a value was computed
func (o Optional) IsPresent() bool {
	return o.valid
}

// IsZero lets encoding/json omit absent values with the omitzero option
func (o Optional) IsZero() bool {
	return !o.valid
}

// MarshalJSON encodes an absent value as null
func (o Optional) MarshalJSON() ([]byte, error) {
	if !o.valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON decodes null as absent
func (o *Optional) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = None()
		return nil
	}

	var value float64
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	*o = Some(value)
	return nil
}
