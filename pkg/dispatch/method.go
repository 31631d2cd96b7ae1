package dispatch

import (
	"fmt"

	"github.com/pkg/errors"
)

// Method is a synchronization verb
type Method string

const (
	MethodRead   Method = "read"
	MethodCreate Method = "create"
	MethodUpdate Method = "update"
	MethodDelete Method = "delete"
)

// Methods lists every supported method
var Methods = []Method{MethodRead, MethodCreate, MethodUpdate, MethodDelete}

// ErrUnknownMethod matches every UnknownMethodError with errors.Is
var ErrUnknownMethod = errors.New("unknown method")

type UnknownMethodError struct {
	Method string
}

func (e *UnknownMethodError) Error() string {
	return fmt.Sprintf("unknown method: %q", e.Method)
}

func (e *UnknownMethodError) Is(target error) bool {
	return target == ErrUnknownMethod
}

func ParseMethod(v string) (Method, error) {
	switch m := Method(v); m {
	case MethodRead, MethodCreate, MethodUpdate, MethodDelete:
		return m, nil
	default:
		return "", &UnknownMethodError{Method: v}
	}
}
