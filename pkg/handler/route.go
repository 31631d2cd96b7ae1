package handler

import (
	"github.com/foomo/recordstore/pkg/dispatch"
)

// Route type
type Route string

const (
	// RouteRead read one record or a whole collection
	RouteRead = Route(dispatch.MethodRead)
	// RouteCreate create a record
	RouteCreate = Route(dispatch.MethodCreate)
	// RouteUpdate update a record
	RouteUpdate = Route(dispatch.MethodUpdate)
	// RouteDelete delete a record
	RouteDelete = Route(dispatch.MethodDelete)
	// RouteQuota get the quota descriptor of a collection's area
	RouteQuota Route = "quota"
)
