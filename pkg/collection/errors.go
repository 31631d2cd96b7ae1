package collection

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

var (
	// ErrMissingID is returned when an operation needs a record id but got none
	ErrMissingID = errors.New("record has no id")
	// ErrInvalidID is returned when a record id contains the index delimiter
	ErrInvalidID = errors.New("record id must not contain " + strconv.Quote(delimiter))
	// ErrNotFound matches every NotFoundError with errors.Is
	ErrNotFound = errors.New("record not found")
	// ErrNotLoaded matches every NotLoadedError with errors.Is
	ErrNotLoaded = errors.New("record index not loaded")
)

// NotLoadedError is returned by operations that need the record index when
// reading it failed
type NotLoadedError struct {
	Collection string
	Err        error
}

func (e *NotLoadedError) Error() string {
	return fmt.Sprintf("record index of collection %q not loaded: %v", e.Collection, e.Err)
}

func (e *NotLoadedError) Is(target error) bool {
	return target == ErrNotLoaded
}

func (e *NotLoadedError) Unwrap() error {
	return e.Err
}

// NotFoundError is returned by Find when the record key does not exist
type NotFoundError struct {
	Collection string
	ID         string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("record %q not found in collection %q", e.ID, e.Collection)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// MalformedRecordError wraps serialization failures of a record payload
type MalformedRecordError struct {
	Key string
	ID  string
	Err error
}

func (e *MalformedRecordError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("malformed record %q: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("malformed record %q: %v", e.ID, e.Err)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}
