package responses

import (
	"fmt"
	"net/http"
)

const (
	CodeUnknownRoute    = 1
	CodeInvalidJSON     = 2
	CodeInternal        = 3
	CodeInvalidHeader   = 4
	CodeNotFound        = 5
	CodeMalformedRecord = 6
	CodeInvalidRequest  = 7
	CodeStorage         = 8
)

// Error describes an error for humans and machines
type Error struct {
	Status  int    `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e Error) Error() string {
	return fmt.Sprintf("status:%d, code:%d, message:%q", e.Status, e.Code, e.Message)
}

// NewError - a brand new error
func NewError(code int, message string) *Error {
	return &Error{
		Status:  status(code),
		Code:    code,
		Message: message,
	}
}

// NewErrorf - a brand new error using fmt.Sprintf
func NewErrorf(code int, message string, args ...any) *Error {
	return NewError(code, fmt.Sprintf(message, args...))
}

func status(code int) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnknownRoute, CodeInvalidJSON, CodeInvalidHeader, CodeInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
