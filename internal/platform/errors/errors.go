package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrNoDocument   = errors.New("no document open")
)

// Store failure kinds. A *StoreError always wraps exactly one of these.
var (
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrStoreWriteFailed = errors.New("store write failed")
	ErrStoreReadFailed  = errors.New("store read failed")
)

type StoreError struct {
	Kind       error
	Op         string
	Collection string
	Message    string
	Err        error
}

func (e *StoreError) Error() string {
	msg := e.Kind.Error()
	if e.Collection != "" {
		msg = fmt.Sprintf("%s: %s %s", msg, e.Op, e.Collection)
	} else if e.Op != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Op)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StoreError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func Unavailable(op string, err error) error {
	return &StoreError{Kind: ErrStoreUnavailable, Op: op, Err: err}
}

func ReadFailed(collection, op string, err error) error {
	return &StoreError{Kind: ErrStoreReadFailed, Op: op, Collection: collection, Err: err}
}

func WriteFailed(collection, op string, err error) error {
	return &StoreError{Kind: ErrStoreWriteFailed, Op: op, Collection: collection, Err: err}
}

// IsStoreError reports whether err carries any store failure kind.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
