package client

import (
	"context"

	"github.com/foomo/recordstore/pkg/area"
	"github.com/foomo/recordstore/pkg/collection"
	"github.com/foomo/recordstore/pkg/dispatch"
	"github.com/foomo/recordstore/pkg/handler"
	"github.com/foomo/recordstore/pkg/storage"
	"github.com/foomo/recordstore/requests"
	"github.com/foomo/recordstore/responses"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Error is a failure reported by the server. It matches the local sentinel
// errors of its response code.
type Error struct {
	Err *responses.Error
}

func (e *Error) Error() string {
	return "remote: " + e.Err.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	switch e.Err.Code {
	case responses.CodeNotFound:
		return target == collection.ErrNotFound
	case responses.CodeStorage:
		return target == storage.ErrOperationFailed
	default:
		return false
	}
}

// Client a record store client
type Client struct {
	t Transport
}

func New(t Transport) *Client {
	return &Client{
		t: t,
	}
}

// Sync runs method on the server, it lets a Client serve as dispatch.Remote
func (c *Client) Sync(ctx context.Context, method dispatch.Method, target dispatch.Target) (any, error) {
	req := &requests.Sync{
		Collection: target.Collection,
		Area:       string(target.Area),
	}
	if target.Record != nil {
		rep, err := collection.Representation(target.Record)
		if err != nil {
			return nil, err
		}
		req.Record = rep
	}

	if method == dispatch.MethodRead && req.Record.GetID() == "" {
		var all []collection.Attributes
		if err := c.call(ctx, handler.Route(method), req, &all); err != nil {
			return nil, err
		}
		return all, nil
	}

	var one collection.Attributes
	if err := c.call(ctx, handler.Route(method), req, &one); err != nil {
		return nil, err
	}
	// mirror the local create, the record learns its id
	if method == dispatch.MethodCreate && target.Record != nil && target.Record.GetID() == "" {
		target.Record.SetID(one.GetID())
	}
	return one, nil
}

func (c *Client) Create(ctx context.Context, name string, kind area.Kind, r collection.Record) (collection.Attributes, error) {
	return c.single(ctx, dispatch.MethodCreate, name, kind, r)
}

func (c *Client) Find(ctx context.Context, name string, kind area.Kind, id string) (collection.Attributes, error) {
	if id == "" {
		return nil, collection.ErrMissingID
	}
	return c.single(ctx, dispatch.MethodRead, name, kind, collection.Attributes{collection.IDAttribute: id})
}

func (c *Client) FindAll(ctx context.Context, name string, kind area.Kind) ([]collection.Attributes, error) {
	v, err := c.Sync(ctx, dispatch.MethodRead, dispatch.Target{Collection: name, Area: kind})
	if err != nil {
		return nil, err
	}
	all, _ := v.([]collection.Attributes)
	return all, nil
}

func (c *Client) Update(ctx context.Context, name string, kind area.Kind, r collection.Record) (collection.Attributes, error) {
	return c.single(ctx, dispatch.MethodUpdate, name, kind, r)
}

func (c *Client) Destroy(ctx context.Context, name string, kind area.Kind, r collection.Record) (collection.Attributes, error) {
	return c.single(ctx, dispatch.MethodDelete, name, kind, r)
}

// Quota returns the quota descriptor of the collection's area
func (c *Client) Quota(ctx context.Context, name string, kind area.Kind) (area.Quota, error) {
	var q area.Quota
	err := c.call(ctx, handler.RouteQuota, &requests.Quota{Collection: name, Area: string(kind)}, &q)
	return q, err
}

func (c *Client) Close() {
	c.t.Close()
}

func (c *Client) single(ctx context.Context, method dispatch.Method, name string, kind area.Kind, r collection.Record) (collection.Attributes, error) {
	v, err := c.Sync(ctx, method, dispatch.Target{Collection: name, Area: kind, Record: r})
	if err != nil {
		return nil, err
	}
	a, _ := v.(collection.Attributes)
	return a, nil
}

func (c *Client) call(ctx context.Context, route handler.Route, request any, response any) error {
	requestBytes, err := json.Marshal(request)
	if err != nil {
		return errors.Wrap(err, "could not marshal request")
	}
	replyBytes, err := c.t.Call(ctx, route, requestBytes)
	if err != nil {
		return err
	}
	var reply responses.Reply
	if err := json.Unmarshal(replyBytes, &reply); err != nil {
		return errors.Wrapf(err, "could not unmarshal reply %q", string(replyBytes))
	}
	if reply.Error != nil {
		return &Error{Err: reply.Error}
	}
	if len(reply.Reply) == 0 {
		return errors.New("empty reply")
	}
	return errors.Wrap(json.Unmarshal(reply.Reply, response), "could not unmarshal reply")
}
