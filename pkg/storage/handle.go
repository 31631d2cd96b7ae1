package storage

import (
	"github.com/foomo/recordstore/pkg/area"
	"github.com/foomo/recordstore/pkg/future"
	"go.uber.org/zap"
)

// Handle wraps an area's callback API into futures. It owns no state besides
// the area it targets.
type Handle struct {
	l    *zap.Logger
	kind area.Kind
	area area.Area
}

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

// NewHandle resolves kind against areas, unknown kinds fall back to local
func NewHandle(l *zap.Logger, areas area.Areas, kind area.Kind) (*Handle, error) {
	l = l.Named("storage")
	kind, a, err := areas.Lookup(l, kind)
	if err != nil {
		return nil, err
	}
	return &Handle{
		l:    l.With(zap.String("area", string(kind))),
		kind: kind,
		area: a,
	}, nil
}

// ------------------------------------------------------------------------------------------------
// ~ Getter
// ------------------------------------------------------------------------------------------------

func (h *Handle) Kind() area.Kind {
	return h.kind
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// Get reads keys, a nil slice reads everything
func (h *Handle) Get(keys ...string) *future.Future[area.Items] {
	f, resolve, reject := future.New[area.Items]()
	h.area.Get(keys, func(items area.Items, err error) {
		if err != nil {
			reject(h.fail(OpGet, err))
			return
		}
		if items == nil {
			items = area.Items{}
		}
		resolve(items)
	})
	return f
}

func (h *Handle) Set(items area.Items) *future.Future[struct{}] {
	f, resolve, reject := future.New[struct{}]()
	h.area.Set(items, h.done(OpSet, resolve, reject))
	return f
}

func (h *Handle) Remove(keys ...string) *future.Future[struct{}] {
	f, resolve, reject := future.New[struct{}]()
	h.area.Remove(keys, h.done(OpRemove, resolve, reject))
	return f
}

func (h *Handle) Clear() *future.Future[struct{}] {
	f, resolve, reject := future.New[struct{}]()
	h.area.Clear(h.done(OpClear, resolve, reject))
	return f
}

// GetBytesInUse sums the size of keys, no keys means the whole area
func (h *Handle) GetBytesInUse(keys ...string) *future.Future[int64] {
	f, resolve, reject := future.New[int64]()
	h.area.GetBytesInUse(keys, func(n int64, err error) {
		if err != nil {
			reject(h.fail(OpGetBytesInUse, err))
			return
		}
		resolve(n)
	})
	return f
}

// QuotaObject picks the recognized quota constants the area exposes
func (h *Handle) QuotaObject() area.Quota {
	q := h.area.Quota()
	ret := area.Quota{}
	for _, constant := range area.RecognizedQuotaConstants {
		if v, ok := q[constant]; ok {
			ret[constant] = v
		}
	}
	return ret
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (h *Handle) done(op Op, resolve future.Resolve[struct{}], reject future.Reject) func(error) {
	return func(err error) {
		if err != nil {
			reject(h.fail(op, err))
			return
		}
		resolve(struct{}{})
	}
}

func (h *Handle) fail(op Op, err error) error {
	h.l.Warn("storage error", zap.String("op", string(op)), zap.Error(err))
	return &OperationError{
		Op:      op,
		Message: err.Error(),
		Err:     err,
	}
}
