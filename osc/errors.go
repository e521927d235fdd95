package osc

import (
	"errors"
	"fmt"
)

// ErrorKind classifies codec failures.
type ErrorKind int

const (
	// ErrNoAddress indicates an empty buffer or a first byte other than '/'.
	ErrNoAddress ErrorKind = iota
	// ErrMissingTypeTags indicates bytes after the address that do not start with ','.
	ErrMissingTypeTags
	// ErrTooManyArgs indicates more than MaxArgs arguments on encode.
	ErrTooManyArgs
	// ErrBadType indicates an unsupported argument type on encode.
	ErrBadType
	// ErrTooLarge indicates an encoded message exceeding MaxDatagramSize.
	ErrTooLarge
)

func (k ErrorKind) String() string {
	switch k {
	case ErrNoAddress:
		return "no_address"
	case ErrMissingTypeTags:
		return "missing_type_tags"
	case ErrTooManyArgs:
		return "too_many_args"
	case ErrBadType:
		return "bad_type"
	case ErrTooLarge:
		return "too_large"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// DecodeError is returned for a datagram that is not structurally well formed.
// The datagram is dropped; decode errors are never fatal.
type DecodeError struct {
	Kind   ErrorKind
	Offset int
	Msg    string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("osc decode at offset %d: %s", e.Offset, e.Msg)
}

// EncodeError is returned when a message cannot be encoded.
type EncodeError struct {
	Kind ErrorKind
	Msg  string
}

func (e *EncodeError) Error() string {
	return "osc encode: " + e.Msg
}

// IsDecodeError reports whether err is (or wraps) a DecodeError.
func IsDecodeError(err error) bool {
	var decErr *DecodeError
	return errors.As(err, &decErr)
}
