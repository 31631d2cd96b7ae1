package dispatch

import (
	"context"

	"github.com/foomo/recordstore/pkg/area"
	"github.com/foomo/recordstore/pkg/collection"
	"github.com/foomo/recordstore/pkg/future"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	// ErrNoStore is returned for targets without a store when no remote is configured
	ErrNoStore = errors.New("target has no store and no remote is configured")
	// ErrNoRecord is returned when a method other than read targets no record
	ErrNoRecord = errors.New("target has no record")
)

type (
	// Store is the collection side of a sync, *collection.Collection implements it
	Store interface {
		Create(ctx context.Context, r collection.Record) (collection.Attributes, error)
		Find(ctx context.Context, r collection.Record) (collection.Attributes, error)
		FindAll(ctx context.Context) ([]collection.Attributes, error)
		Update(ctx context.Context, r collection.Record) (collection.Attributes, error)
		Destroy(ctx context.Context, r collection.Record) (collection.Attributes, error)
	}
	// Remote syncs targets that have no local store
	Remote interface {
		Sync(ctx context.Context, method Method, target Target) (any, error)
	}
	// Target is the model or collection being synced. Record is nil when a
	// whole collection is read.
	Target struct {
		Store      Store
		Collection string
		Area       area.Kind
		Record     collection.Record
	}
	// Options carries the completion callbacks of a sync, both may be nil
	Options struct {
		Success func(v any)
		Error   func(err error)
	}
	Dispatcher struct {
		l      *zap.Logger
		remote Remote
	}
	Option func(*Dispatcher)
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func New(l *zap.Logger, opts ...Option) *Dispatcher {
	inst := &Dispatcher{
		l: l.Named("dispatch"),
	}
	for _, opt := range opts {
		opt(inst)
	}
	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

// WithRemote routes targets without a store to v
func WithRemote(v Remote) Option {
	return func(o *Dispatcher) {
		o.remote = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// Sync routes method to the store of target. Success receives the resolved
// value, Error and legacyError receive the rejection. An unknown method is
// rejected without touching the store.
func (d *Dispatcher) Sync(ctx context.Context, method string, target Target, opts Options, legacyError func(error)) *future.Future[any] {
	var f *future.Future[any]
	if m, err := ParseMethod(method); err != nil {
		d.l.Warn("rejecting sync", zap.Error(err))
		f = future.Rejected[any](err)
	} else {
		f = d.route(ctx, m, target)
	}

	f.OnSuccess(opts.Success)
	f.OnFailure(opts.Error)
	f.OnFailure(legacyError)
	return f
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (d *Dispatcher) route(ctx context.Context, m Method, target Target) *future.Future[any] {
	if target.Store == nil {
		if d.remote == nil {
			return future.Rejected[any](ErrNoStore)
		}
		return future.Go(func() (any, error) {
			return d.remote.Sync(ctx, m, target)
		})
	}

	s, r := target.Store, target.Record
	if r == nil && m != MethodRead {
		return future.Rejected[any](ErrNoRecord)
	}
	return future.Go(func() (any, error) {
		switch m {
		case MethodRead:
			if hasID(r) {
				return s.Find(ctx, r)
			}
			return s.FindAll(ctx)
		case MethodCreate:
			return s.Create(ctx, r)
		case MethodUpdate:
			return s.Update(ctx, r)
		case MethodDelete:
			return s.Destroy(ctx, r)
		default:
			return nil, &UnknownMethodError{Method: string(m)}
		}
	})
}

func hasID(r collection.Record) bool {
	return r != nil && r.GetID() != ""
}
