package storage

import (
	"errors"
	"testing"

	"github.com/foomo/recordstore/pkg/area"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type failingArea struct {
	*area.Memory
	err error
}

func (a *failingArea) Get(keys []string, cb func(area.Items, error)) {
	go cb(nil, a.err)
}

func (a *failingArea) Set(items area.Items, cb func(error)) {
	go cb(a.err)
}

func (a *failingArea) GetBytesInUse(keys []string, cb func(int64, error)) {
	go cb(0, a.err)
}

func newTestHandle(t *testing.T, a area.Area, kind area.Kind) *Handle {
	t.Helper()
	h, err := NewHandle(zaptest.NewLogger(t), area.Areas{kind: a}, kind)
	require.NoError(t, err)
	return h
}

func TestHandle_SetGetRemove(t *testing.T) {
	h := newTestHandle(t, area.NewMemory(), area.KindLocal)

	_, err := h.Set(area.Items{"a": "1", "b": "2"}).Wait(t.Context())
	require.NoError(t, err)

	items, err := h.Get("a", "c").Wait(t.Context())
	require.NoError(t, err)
	assert.Equal(t, area.Items{"a": "1"}, items)

	_, err = h.Remove("a").Wait(t.Context())
	require.NoError(t, err)

	items, err = h.Get().Wait(t.Context())
	require.NoError(t, err)
	assert.Equal(t, area.Items{"b": "2"}, items)

	n, err := h.GetBytesInUse().Wait(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = h.Clear().Wait(t.Context())
	require.NoError(t, err)
	items, err = h.Get().Wait(t.Context())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestHandle_CompletionCallback(t *testing.T) {
	h := newTestHandle(t, area.NewMemory(), area.KindLocal)

	done := make(chan struct{})
	h.Set(area.Items{"a": "1"}).OnSuccess(func(struct{}) {
		close(done)
	})
	<-done
}

func TestHandle_Error(t *testing.T) {
	native := errors.New("QUOTA_BYTES quota exceeded")
	h := newTestHandle(t, &failingArea{Memory: area.NewMemory(), err: native}, area.KindSync)

	_, err := h.Set(area.Items{"a": "1"}).Wait(t.Context())
	require.Error(t, err)
	require.ErrorIs(t, err, ErrOperationFailed)
	require.ErrorIs(t, err, native)

	var opErr *OperationError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, OpSet, opErr.Op)
	assert.Equal(t, "QUOTA_BYTES quota exceeded", opErr.Message)

	_, err = h.Get("a").Wait(t.Context())
	require.ErrorIs(t, err, ErrOperationFailed)

	_, err = h.GetBytesInUse().Wait(t.Context())
	require.ErrorIs(t, err, ErrOperationFailed)
}

func TestHandle_QuotaObject(t *testing.T) {
	local := newTestHandle(t, area.WithQuota(area.NewMemory(), area.DefaultQuota(area.KindLocal)), area.KindLocal)
	assert.Equal(t, area.Quota{area.QuotaBytes: 10485760}, local.QuotaObject())

	sync := newTestHandle(t, area.WithQuota(area.NewMemory(), area.DefaultQuota(area.KindSync)), area.KindSync)
	q := sync.QuotaObject()
	assert.Len(t, q, 5)
	assert.Contains(t, q, area.MaxWriteOperationsPerHour)
	assert.NotContains(t, q, area.MaxWriteOperationsPerMinute)
}

func TestHandle_UnknownKindFallsBackToLocal(t *testing.T) {
	h, err := NewHandle(zaptest.NewLogger(t), area.Areas{area.KindLocal: area.NewMemory()}, area.KindSync)
	require.NoError(t, err)
	assert.Equal(t, area.KindLocal, h.Kind())
}
