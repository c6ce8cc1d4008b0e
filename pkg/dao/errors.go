package dao

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDataAccess is the root of the failure taxonomy. Every typed error in
// this package unwraps to it, so callers can match the whole family with
// errors.Is(err, dao.ErrDataAccess).
var ErrDataAccess = errors.New("data access failure")

// NotFoundError signals that a required single-row fetch produced zero rows.
// Optional to-one resolution never raises this; a miss there is a nil value.
type NotFoundError struct {
	Store string
	Key   interface{}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("record %v not found in store %q", e.Key, e.Store)
}

func (e *NotFoundError) Unwrap() error { return ErrDataAccess }

// InvalidEnumValueError signals a value outside an enum attribute's closed set.
type InvalidEnumValueError struct {
	Attribute string
	Value     interface{}
	Allowed   []string
}

func (e *InvalidEnumValueError) Error() string {
	return fmt.Sprintf("invalid enum value %v for attribute %q (allowed: %s)",
		e.Value, e.Attribute, strings.Join(e.Allowed, ", "))
}

func (e *InvalidEnumValueError) Unwrap() error { return ErrDataAccess }

// UnsupportedAttributeTypeError signals an attribute type the coercion layer
// does not know how to handle.
type UnsupportedAttributeTypeError struct {
	Attribute string
	Type      string
}

func (e *UnsupportedAttributeTypeError) Error() string {
	return fmt.Sprintf("unsupported type %q for attribute %q", e.Type, e.Attribute)
}

func (e *UnsupportedAttributeTypeError) Unwrap() error { return ErrDataAccess }

// CoercionError signals a failed value conversion. It carries a Fallback
// value (the zero value of the target type) so the caller can continue with
// degraded data instead of aborting.
type CoercionError struct {
	Attribute string
	Value     interface{}
	Target    string
	Fallback  interface{}
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("cannot coerce %v (%T) to %s for attribute %q",
		e.Value, e.Value, e.Target, e.Attribute)
}

func (e *CoercionError) Unwrap() error { return ErrDataAccess }

// DecodeError signals malformed serialized input from a file-backed data
// source. Raw holds the offending content for diagnostics.
type DecodeError struct {
	Raw []byte
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode source data: %v", e.Err)
}

func (e *DecodeError) Unwrap() []error { return []error{ErrDataAccess, e.Err} }
