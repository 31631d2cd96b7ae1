package requests

import (
	"github.com/foomo/recordstore/pkg/collection"
)

// Sync - run a sync method on a collection, the method is the route
type Sync struct {
	// name of the collection
	Collection string `json:"collection"`
	// area kind, empty for the server default
	Area string `json:"area,omitempty"`
	// the record, omit it to read the whole collection
	Record collection.Attributes `json:"record,omitempty"`
}

// Quota - request the quota descriptor of a collection's area
type Quota struct {
	Collection string `json:"collection"`
	Area       string `json:"area,omitempty"`
}
