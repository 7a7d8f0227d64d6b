package service

import (
	"bytes"
	"encoding/json"
)

// Clearable is a string field of a partial update that can be cleared.
//
// THREE STATES:
//
//	key missing          → Set == false          (leave the column alone)
//	"key": null or ""    → Set == true, Value "" (store NULL)
//	"key": "2026-11-01"  → Set == true, Value    (store the value)
//
// A plain *string cannot tell the first two apart: encoding/json leaves a
// pointer nil for both.
type Clearable struct {
	Set   bool
	Value string
}

// SetTo returns a Clearable holding v.
func SetTo(v string) Clearable {
	return Clearable{Set: true, Value: v}
}

// Cleared returns a Clearable that stores NULL.
func Cleared() Clearable {
	return Clearable{Set: true}
}

// UnmarshalJSON is only called when the key is present, null included.
func (c *Clearable) UnmarshalJSON(b []byte) error {
	c.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		c.Value = ""
		return nil
	}
	return json.Unmarshal(b, &c.Value)
}
