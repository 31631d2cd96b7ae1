package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/foomo/recordstore/pkg/area"
	"github.com/foomo/recordstore/pkg/collection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recordingStore struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (s *recordingStore) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *recordingStore) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *recordingStore) Create(ctx context.Context, r collection.Record) (collection.Attributes, error) {
	s.record("create")
	return collection.Attributes{"id": r.GetID()}, s.err
}

func (s *recordingStore) Find(ctx context.Context, r collection.Record) (collection.Attributes, error) {
	s.record("find")
	return collection.Attributes{"id": r.GetID()}, s.err
}

func (s *recordingStore) FindAll(ctx context.Context) ([]collection.Attributes, error) {
	s.record("findAll")
	return []collection.Attributes{}, s.err
}

func (s *recordingStore) Update(ctx context.Context, r collection.Record) (collection.Attributes, error) {
	s.record("update")
	return collection.Attributes{"id": r.GetID()}, s.err
}

func (s *recordingStore) Destroy(ctx context.Context, r collection.Record) (collection.Attributes, error) {
	s.record("destroy")
	return collection.Attributes{"id": r.GetID()}, s.err
}

type remoteFunc func(ctx context.Context, method Method, target Target) (any, error)

func (f remoteFunc) Sync(ctx context.Context, method Method, target Target) (any, error) {
	return f(ctx, method, target)
}

func TestParseMethod(t *testing.T) {
	for _, m := range Methods {
		got, err := ParseMethod(string(m))
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseMethod("patch")
	require.ErrorIs(t, err, ErrUnknownMethod)
	assert.EqualError(t, err, `unknown method: "patch"`)
}

func TestDispatcher_Routes(t *testing.T) {
	tests := []struct {
		method string
		record collection.Record
		call   string
	}{
		{method: "read", record: collection.Attributes{"id": "1"}, call: "find"},
		{method: "read", record: collection.Attributes{}, call: "findAll"},
		{method: "read", record: nil, call: "findAll"},
		{method: "create", record: collection.Attributes{}, call: "create"},
		{method: "update", record: collection.Attributes{"id": "1"}, call: "update"},
		{method: "delete", record: collection.Attributes{"id": "1"}, call: "destroy"},
	}
	for _, tt := range tests {
		t.Run(tt.method+"/"+tt.call, func(t *testing.T) {
			s := &recordingStore{}
			d := New(zaptest.NewLogger(t))

			var got any
			done := make(chan struct{})
			f := d.Sync(t.Context(), tt.method, Target{Store: s, Record: tt.record}, Options{
				Success: func(v any) {
					got = v
					close(done)
				},
				Error: func(err error) {
					t.Error("unexpected error", err)
				},
			}, nil)

			v, err := f.Wait(t.Context())
			require.NoError(t, err)
			<-done
			assert.Equal(t, v, got)
			assert.Equal(t, []string{tt.call}, s.Calls())
		})
	}
}

func TestDispatcher_UnknownMethod(t *testing.T) {
	s := &recordingStore{}
	d := New(zaptest.NewLogger(t))

	var errs []error
	f := d.Sync(t.Context(), "patch", Target{Store: s, Record: collection.Attributes{"id": "1"}}, Options{
		Success: func(any) {
			t.Error("unexpected success")
		},
		Error: func(err error) {
			errs = append(errs, err)
		},
	}, func(err error) {
		errs = append(errs, err)
	})

	_, err := f.Wait(t.Context())
	require.ErrorIs(t, err, ErrUnknownMethod)
	// rejected futures run late callbacks on the registering goroutine
	require.Len(t, errs, 2)
	assert.ErrorIs(t, errs[0], ErrUnknownMethod)
	assert.ErrorIs(t, errs[1], ErrUnknownMethod)
	assert.Empty(t, s.Calls())
}

func TestDispatcher_StoreError(t *testing.T) {
	boom := errors.New("boom")
	s := &recordingStore{err: boom}
	d := New(zaptest.NewLogger(t))

	legacy := make(chan error, 1)
	f := d.Sync(t.Context(), "update", Target{Store: s, Record: collection.Attributes{"id": "1"}}, Options{}, func(err error) {
		legacy <- err
	})
	_, err := f.Wait(t.Context())
	require.ErrorIs(t, err, boom)
	assert.ErrorIs(t, <-legacy, boom)
}

func TestDispatcher_NoRecord(t *testing.T) {
	s := &recordingStore{}
	d := New(zaptest.NewLogger(t))
	_, err := d.Sync(t.Context(), "delete", Target{Store: s}, Options{}, nil).Wait(t.Context())
	require.ErrorIs(t, err, ErrNoRecord)
	assert.Empty(t, s.Calls())
}

func TestDispatcher_Remote(t *testing.T) {
	d := New(zaptest.NewLogger(t))
	_, err := d.Sync(t.Context(), "read", Target{Collection: "todos"}, Options{}, nil).Wait(t.Context())
	require.ErrorIs(t, err, ErrNoStore)

	var gotMethod Method
	var gotTarget Target
	d = New(zaptest.NewLogger(t), WithRemote(remoteFunc(func(ctx context.Context, method Method, target Target) (any, error) {
		gotMethod, gotTarget = method, target
		return "remote", nil
	})))
	target := Target{Collection: "todos", Area: area.KindSync, Record: collection.Attributes{"id": "1"}}
	v, err := d.Sync(t.Context(), "update", target, Options{}, nil).Wait(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "remote", v)
	assert.Equal(t, MethodUpdate, gotMethod)
	assert.Equal(t, target, gotTarget)
}

func TestDispatcher_Collection(t *testing.T) {
	c, err := collection.New(zaptest.NewLogger(t), area.Areas{area.KindLocal: area.NewMemory()}, "todos")
	require.NoError(t, err)
	d := New(zaptest.NewLogger(t))
	target := func(r collection.Record) Target {
		return Target{Store: c, Collection: c.Name(), Record: r}
	}

	v, err := d.Sync(t.Context(), "create", target(collection.Attributes{"title": "a"}), Options{}, nil).Wait(t.Context())
	require.NoError(t, err)
	created, ok := v.(collection.Attributes)
	require.True(t, ok)
	require.NotEmpty(t, created.GetID())

	v, err = d.Sync(t.Context(), "read", target(nil), Options{}, nil).Wait(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []collection.Attributes{created}, v)

	_, err = d.Sync(t.Context(), "delete", target(collection.Attributes{"id": created.GetID()}), Options{}, nil).Wait(t.Context())
	require.NoError(t, err)

	_, err = d.Sync(t.Context(), "read", target(collection.Attributes{"id": created.GetID()}), Options{}, nil).Wait(t.Context())
	require.ErrorIs(t, err, collection.ErrNotFound)
}
