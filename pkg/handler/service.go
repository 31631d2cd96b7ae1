package handler

import (
	"context"
	"time"

	"github.com/foomo/recordstore/pkg/area"
	"github.com/foomo/recordstore/pkg/collection"
	"github.com/foomo/recordstore/pkg/dispatch"
	"github.com/foomo/recordstore/pkg/metrics"
	"github.com/foomo/recordstore/pkg/storage"
	"github.com/foomo/recordstore/requests"
	"github.com/foomo/recordstore/responses"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	sourceHTTP   = "webserver"
	sourceSocket = "socketserver"
)

// service executes routes against the collection pool, shared by the http
// and the socket handler
type service struct {
	l          *zap.Logger
	pool       *collection.Pool
	dispatcher *dispatch.Dispatcher
}

func (s *service) handleRequest(ctx context.Context, route Route, jsonBytes []byte, source string) ([]byte, *responses.Error) {
	start := time.Now()

	reply, errReply := s.executeRequest(ctx, route, jsonBytes)
	result := "success"
	if errReply != nil {
		result = "error"
	}

	metrics.ServiceRequestCounter.WithLabelValues(string(route), result, source).Inc()
	metrics.ServiceRequestDuration.WithLabelValues(string(route), result, source).Observe(time.Since(start).Seconds())

	return s.encodeReply(reply, errReply)
}

func (s *service) executeRequest(ctx context.Context, route Route, jsonBytes []byte) (any, *responses.Error) {
	switch route {
	case RouteQuota:
		req := &requests.Quota{}
		if err := json.Unmarshal(jsonBytes, req); err != nil {
			return nil, s.invalidJSON(err)
		}
		c, errReply := s.collection(req.Collection, req.Area)
		if errReply != nil {
			return nil, errReply
		}
		q, err := c.Quota(ctx)
		if err != nil {
			return nil, s.apiError(err)
		}
		return q, nil
	case RouteRead, RouteCreate, RouteUpdate, RouteDelete:
		req := &requests.Sync{}
		if err := json.Unmarshal(jsonBytes, req); err != nil {
			return nil, s.invalidJSON(err)
		}
		c, errReply := s.collection(req.Collection, req.Area)
		if errReply != nil {
			return nil, errReply
		}
		target := dispatch.Target{
			Store:      c,
			Collection: c.Name(),
			Area:       c.Kind(),
		}
		// a nil map must not end up in the interface, create assigns to it
		if req.Record != nil {
			target.Record = req.Record
		}
		reply, err := s.dispatcher.Sync(ctx, string(route), target, dispatch.Options{}, nil).Wait(ctx)
		if err != nil {
			return nil, s.apiError(err)
		}
		return reply, nil
	default:
		return nil, responses.NewError(responses.CodeUnknownRoute, "unknown handler: "+string(route))
	}
}

func (s *service) collection(name, kind string) (*collection.Collection, *responses.Error) {
	if name == "" {
		return nil, responses.NewError(responses.CodeInvalidRequest, "missing collection name")
	}
	var k area.Kind
	if kind != "" {
		var err error
		if k, err = area.ParseKind(kind); err != nil {
			return nil, responses.NewError(responses.CodeInvalidRequest, err.Error())
		}
	}
	c, err := s.pool.Get(name, k)
	if err != nil {
		return nil, s.apiError(err)
	}
	return c, nil
}

func (s *service) invalidJSON(err error) *responses.Error {
	s.l.Error("could not read incoming json", zap.Error(err))
	return responses.NewError(responses.CodeInvalidJSON, "could not read incoming json "+err.Error())
}

// apiError maps collection and storage errors to their response codes
func (s *service) apiError(err error) *responses.Error {
	var malformed *collection.MalformedRecordError
	switch {
	case errors.Is(err, collection.ErrNotFound):
		return responses.NewError(responses.CodeNotFound, err.Error())
	case errors.As(err, &malformed):
		s.l.Warn("malformed record", zap.Error(err))
		return responses.NewError(responses.CodeMalformedRecord, err.Error())
	case errors.Is(err, collection.ErrMissingID),
		errors.Is(err, collection.ErrInvalidID),
		errors.Is(err, dispatch.ErrNoRecord),
		errors.Is(err, dispatch.ErrUnknownMethod):
		return responses.NewError(responses.CodeInvalidRequest, err.Error())
	case errors.Is(err, storage.ErrOperationFailed):
		return responses.NewError(responses.CodeStorage, err.Error())
	default:
		s.l.Error("an API error occurred", zap.Error(err))
		return responses.NewError(responses.CodeInternal, "internal error "+err.Error())
	}
}

// encodeReply wraps reply or errReply into the reply envelope
func (s *service) encodeReply(reply any, errReply *responses.Error) ([]byte, *responses.Error) {
	envelope := map[string]any{}
	if errReply != nil {
		envelope["error"] = errReply
	} else {
		envelope["reply"] = reply
	}
	bytes, err := json.Marshal(envelope)
	if err != nil {
		s.l.Error("could not encode reply", zap.Error(err))
		errReply = responses.NewError(responses.CodeInternal, "could not encode reply "+err.Error())
		bytes, _ = json.Marshal(map[string]any{"error": errReply})
	}
	return bytes, errReply
}
