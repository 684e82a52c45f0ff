// Package decode holds the pieces shared by the entity decoders: the error
// type for required-field failures, an Optional value for fields whose
// absence is meaningful, and helpers that decode collections element by
// element so one malformed optional entry doesn't sink the whole payload.
package decode

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrDecode matches every *Error.
var ErrDecode = errors.New("decode error")

// Error reports a payload shape mismatch at Path for entity Kind.
type Error struct {
	Kind string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode %s at %s: %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("decode %s at %s", e.Kind, e.Path)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrDecode }

// Missing builds the error for an absent required field.
func Missing(kind, path string) *Error {
	return &Error{Kind: kind, Path: path, Err: errors.New("required field missing")}
}

// Path joins a parent path with a field name or an index.
func Path(parent string, elem any) string {
	switch v := elem.(type) {
	case int:
		return parent + "[" + strconv.Itoa(v) + "]"
	default:
		if parent == "" {
			return fmt.Sprint(v)
		}
		return parent + "." + fmt.Sprint(v)
	}
}

// Elements splits a JSON array into its raw elements. A null or absent
// array yields no elements.
func Elements(kind, path string, raw json.RawMessage) ([]json.RawMessage, error) {
	if isNull(raw) {
		return nil, nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, &Error{Kind: kind, Path: path, Err: err}
	}
	return elems, nil
}

// Each decodes every element of raw with fn. Elements that fail are
// skipped; this is the policy for optional nested collections.
func Each[T any](raw json.RawMessage, fn func(json.RawMessage) (T, error)) []T {
	var elems []json.RawMessage
	if isNull(raw) || json.Unmarshal(raw, &elems) != nil {
		return nil
	}
	out := make([]T, 0, len(elems))
	for _, elem := range elems {
		v, err := fn(elem)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

// All decodes every element of a top-level array and fails on the first
// element that fails.
func All[T any](kind string, raw json.RawMessage, fn func(json.RawMessage, string) (T, error)) ([]T, error) {
	elems, err := Elements(kind, "$", raw)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(elems))
	for i, elem := range elems {
		v, err := fn(elem, Path("$", i))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Object unmarshals raw into a wire struct, reporting failures as *Error.
func Object(kind, path string, raw json.RawMessage, v any) error {
	if isNull(raw) {
		return &Error{Kind: kind, Path: path, Err: errors.New("expected object, got null")}
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &Error{Kind: kind, Path: path, Err: err}
	}
	return nil
}

// Deref returns the pointed-to value or the zero value.
func Deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// Text accepts a JSON string or number and returns it as text. Identifiers
// such as RFI numbers arrive in either form.
func Text(raw json.RawMessage) (string, bool) {
	if isNull(raw) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}
	return "", false
}
