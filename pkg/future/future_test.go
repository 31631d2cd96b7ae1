package future

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuture_Resolve(t *testing.T) {
	f, resolve, reject := New[string]()

	var called atomic.Int32
	f.OnSuccess(func(v string) {
		assert.Equal(t, "foo", v)
		called.Add(1)
	})
	f.OnFailure(func(err error) {
		t.Fatal("unexpected failure", err)
	})

	resolve("foo")
	reject(errors.New("too late"))
	resolve("bar")

	v, err := f.Wait(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "foo", v)
	assert.Equal(t, int32(1), called.Load())
}

func TestFuture_Reject(t *testing.T) {
	f, _, reject := New[int]()
	boom := errors.New("boom")

	var got error
	f.OnFailure(func(err error) {
		got = err
	})
	reject(boom)

	_, err := f.Wait(t.Context())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, boom, got)
}

func TestFuture_CallbacksAfterSettlement(t *testing.T) {
	f := Resolved(42)

	var got int
	f.OnSuccess(func(v int) {
		got = v
	})
	assert.Equal(t, 42, got)

	r := Rejected[int](errors.New("nope"))
	var failed bool
	r.OnFailure(func(error) {
		failed = true
	}).OnSuccess(func(int) {
		t.Fatal("rejected future must not call success callbacks")
	})
	assert.True(t, failed)
}

func TestFuture_WaitContext(t *testing.T) {
	f, _, _ := New[int]()
	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	_, _, settled := f.Settled()
	assert.False(t, settled)
}

func TestGo(t *testing.T) {
	f := Go(func() (string, error) {
		return "done", nil
	})
	v, err := f.Wait(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "done", v)

	g := Go(func() (string, error) {
		return "", errors.New("failed")
	})
	_, err = g.Wait(t.Context())
	require.EqualError(t, err, "failed")
}

func TestThen(t *testing.T) {
	f := Then(Resolved(2), func(v int) (string, error) {
		return string(rune('a' + v)), nil
	})
	v, err := f.Wait(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "c", v)

	boom := errors.New("boom")
	g := Then(Rejected[int](boom), func(v int) (string, error) {
		t.Fatal("must not be called")
		return "", nil
	})
	_, err = g.Wait(t.Context())
	require.ErrorIs(t, err, boom)
}
