package collection

import (
	"fmt"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// IDAttribute is the attribute holding the id of Attributes records
const IDAttribute = "id"

// Record is an entity persisted by a Collection. Records are serialized with
// encoding/json semantics.
type Record interface {
	GetID() string
	SetID(id string)
}

// Attributes is the serializable representation of a record and doubles as
// a schemaless record
type Attributes map[string]any

func (a Attributes) GetID() string {
	switch v := a[IDAttribute].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		// numbers decoded from json keep their integer spelling
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		if n, ok := jsoniter.CastJsonNumber(v); ok {
			return n
		}
		return fmt.Sprint(v)
	}
}

func (a Attributes) SetID(id string) {
	a[IDAttribute] = id
}

// Representation returns the serializable representation of r
func Representation(r Record) (Attributes, error) {
	payload, err := encode(r)
	if err != nil {
		return nil, err
	}
	return decode("", payload)
}

func encode(r Record) (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", &MalformedRecordError{ID: r.GetID(), Err: err}
	}
	return string(b), nil
}

func decode(key, payload string) (Attributes, error) {
	var a Attributes
	if err := json.UnmarshalFromString(payload, &a); err != nil {
		return nil, &MalformedRecordError{Key: key, Err: err}
	}
	if a == nil {
		return nil, &MalformedRecordError{Key: key, Err: fmt.Errorf("payload %q is not an object", payload)}
	}
	return a, nil
}
