// Copyright (c) 2025 BVK Chaitanya

package gobs

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Amount is an optional u64. Gob drops pointers to zero values, so presence
// is recorded explicitly and an amount set to zero survives the round trip.
type Amount struct {
	Value uint64
	Valid bool
}

func SomeAmount(v uint64) Amount {
	return Amount{Value: v, Valid: true}
}

// Get returns the amount and true if it is set.
func (a Amount) Get() (uint64, bool) {
	return a.Value, a.Valid
}

func (a Amount) String() string {
	if !a.Valid {
		return "none"
	}
	return strconv.FormatUint(a.Value, 10)
}

// MarshalJSON encodes an unset amount as null.
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(a.Value)
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*a = Amount{}
		return nil
	}
	var v uint64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*a = SomeAmount(v)
	return nil
}
