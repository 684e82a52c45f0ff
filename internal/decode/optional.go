package decode

import (
	"bytes"
	"encoding/json"
)

// Optional carries a value whose absence is business state rather than a
// schema gap. It encodes as the bare value or null.
type Optional[T any] struct {
	Value T
	Valid bool
}

// Present wraps v.
func Present[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Valid: true}
}

// Absent returns the empty Optional.
func Absent[T any]() Optional[T] {
	return Optional[T]{}
}

// FromPtr converts a decoded pointer into an Optional.
func FromPtr[T any](p *T) Optional[T] {
	if p == nil {
		return Absent[T]()
	}
	return Present(*p)
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Valid
}

// Or returns the value, or fallback when absent.
func (o Optional[T]) Or(fallback T) T {
	if !o.Valid {
		return fallback
	}
	return o.Value
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Absent[T]()
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Present(v)
	return nil
}
