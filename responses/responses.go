package responses

import (
	jsoniter "github.com/json-iterator/go"
)

// Reply - every answer is wrapped into a reply envelope, failures carry Error
// instead of a reply
type Reply struct {
	Reply jsoniter.RawMessage `json:"reply,omitempty"`
	Error *Error              `json:"error,omitempty"`
}
