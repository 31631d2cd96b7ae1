package storage

import (
	"errors"
	"fmt"
)

// Op names a storage area call
type Op string

const (
	OpGet           Op = "get"
	OpSet           Op = "set"
	OpRemove        Op = "remove"
	OpClear         Op = "clear"
	OpGetBytesInUse Op = "getBytesInUse"
)

// ErrOperationFailed matches every OperationError with errors.Is
var ErrOperationFailed = errors.New("storage operation failed")

// OperationError is returned whenever the underlying area reports an error
type OperationError struct {
	Op      Op
	Message string
	Err     error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("storage %s failed: %s", e.Op, e.Message)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

func (e *OperationError) Is(target error) bool {
	return target == ErrOperationFailed
}
