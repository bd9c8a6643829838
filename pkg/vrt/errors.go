package vrt

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the header codec.
var (
	// ErrTruncatedInput is returned when fewer than HeaderSize bytes are decoded.
	ErrTruncatedInput = errors.New("vrt: truncated input")

	// ErrInvalidEnumCode is matched by every *EnumCodeError.
	ErrInvalidEnumCode = errors.New("vrt: invalid enumeration code")

	// ErrOutOfRange is matched by every *RangeError.
	ErrOutOfRange = errors.New("vrt: value out of range")
)

// EnumCodeError reports a numeric code with no matching enumeration tag.
type EnumCodeError struct {
	Field string
	Code  uint8
}

func (e *EnumCodeError) Error() string {
	return fmt.Sprintf("vrt: invalid %s code %d", e.Field, e.Code)
}

func (e *EnumCodeError) Unwrap() error { return ErrInvalidEnumCode }

// RangeError reports a setter value that does not fit its bit field.
type RangeError struct {
	Field string
	Value uint64
	Max   uint64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("vrt: %s %d out of range (max %d)", e.Field, e.Value, e.Max)
}

func (e *RangeError) Unwrap() error { return ErrOutOfRange }
