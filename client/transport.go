package client

import (
	"context"

	"github.com/foomo/recordstore/pkg/handler"
)

// Transport delivers a request for route and returns the raw reply envelope
type Transport interface {
	Call(ctx context.Context, route handler.Route, request []byte) ([]byte, error)
	Close()
}
