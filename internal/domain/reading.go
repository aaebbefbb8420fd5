package domain

import "encoding/json"

// Reading is a single market observation that is either available or not.
// An unavailable reading keeps the fetch error that produced it and never
// degrades to zero; callers must branch on availability explicitly.
type Reading struct {
	value float64
	err   error
	ok    bool
}

// Avail wraps an observed value.
func Avail(v float64) Reading {
	return Reading{value: v, ok: true}
}

// Unavail marks a reading as absent, keeping the cause.
func Unavail(err error) Reading {
	return Reading{err: err}
}

// Get returns the value and whether it is available.
func (r Reading) Get() (float64, bool) {
	return r.value, r.ok
}

// Available reports whether the reading holds a value.
func (r Reading) Available() bool {
	return r.ok
}

// Err returns the fetch error for an unavailable reading, nil otherwise.
func (r Reading) Err() error {
	return r.err
}

// Or returns the value, or def when the reading is unavailable. Use only
// where an explicit zero-default policy applies (volumes, price-map misses).
func (r Reading) Or(def float64) float64 {
	if r.ok {
		return r.value
	}
	return def
}

// MarshalJSON encodes an unavailable reading as null so absence survives
// persistence round-trips. The fetch error is not persisted.
func (r Reading) MarshalJSON() ([]byte, error) {
	if !r.ok {
		return []byte("null"), nil
	}
	return json.Marshal(r.value)
}

func (r *Reading) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Reading{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = Avail(v)
	return nil
}
