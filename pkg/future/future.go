package future

import (
	"context"
	"sync"
)

type (
	// Future is a single-assignment result handle. It settles exactly once,
	// either resolved with a value or rejected with an error.
	Future[T any] struct {
		done      chan struct{}
		mu        sync.Mutex
		settled   bool
		value     T
		err       error
		onSuccess []func(T)
		onFailure []func(error)
	}
	Resolve[T any] func(T)
	Reject         func(error)
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

// New returns a pending future together with the functions settling it.
// Only the first call to either function has an effect.
func New[T any]() (*Future[T], Resolve[T], Reject) {
	f := &Future[T]{
		done: make(chan struct{}),
	}
	resolve := func(v T) {
		f.settle(v, nil)
	}
	reject := func(err error) {
		var zero T
		f.settle(zero, err)
	}
	return f, resolve, reject
}

// Go runs fn on a new goroutine and settles the future with its result.
func Go[T any](fn func() (T, error)) *Future[T] {
	f, resolve, reject := New[T]()
	go func() {
		v, err := fn()
		if err != nil {
			reject(err)
			return
		}
		resolve(v)
	}()
	return f
}

func Resolved[T any](v T) *Future[T] {
	f, resolve, _ := New[T]()
	resolve(v)
	return f
}

func Rejected[T any](err error) *Future[T] {
	f, _, reject := New[T]()
	reject(err)
	return f
}

// Then pipes the resolved value of f through fn. A rejection of f skips fn
// and rejects the returned future with the same error.
func Then[T, U any](f *Future[T], fn func(T) (U, error)) *Future[U] {
	next, resolve, reject := New[U]()
	f.OnSuccess(func(v T) {
		u, err := fn(v)
		if err != nil {
			reject(err)
			return
		}
		resolve(u)
	})
	f.OnFailure(func(err error) {
		reject(err)
	})
	return next
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// Done is closed once the future has settled.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future settles or ctx is done. Giving up on the
// wait does not cancel the work behind the future.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Settled reports whether the future has settled and, if so, its result.
func (f *Future[T]) Settled() (T, error, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.err, f.settled
}

// OnSuccess registers fn to run with the resolved value. Callbacks
// registered after settlement run immediately on the calling goroutine.
func (f *Future[T]) OnSuccess(fn func(T)) *Future[T] {
	if fn == nil {
		return f
	}
	f.mu.Lock()
	if !f.settled {
		f.onSuccess = append(f.onSuccess, fn)
		f.mu.Unlock()
		return f
	}
	v, err := f.value, f.err
	f.mu.Unlock()
	if err == nil {
		fn(v)
	}
	return f
}

// OnFailure registers fn to run with the rejection error.
func (f *Future[T]) OnFailure(fn func(error)) *Future[T] {
	if fn == nil {
		return f
	}
	f.mu.Lock()
	if !f.settled {
		f.onFailure = append(f.onFailure, fn)
		f.mu.Unlock()
		return f
	}
	err := f.err
	f.mu.Unlock()
	if err != nil {
		fn(err)
	}
	return f
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (f *Future[T]) settle(v T, err error) {
	f.mu.Lock()
	if f.settled {
		f.mu.Unlock()
		return
	}
	f.settled = true
	f.value = v
	f.err = err
	onSuccess, onFailure := f.onSuccess, f.onFailure
	f.onSuccess, f.onFailure = nil, nil
	close(f.done)
	f.mu.Unlock()

	if err != nil {
		for _, fn := range onFailure {
			fn(err)
		}
		return
	}
	for _, fn := range onSuccess {
		fn(v)
	}
}
