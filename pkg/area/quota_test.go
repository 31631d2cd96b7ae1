package area

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithQuota_BytesPerItem(t *testing.T) {
	a := WithQuota(NewMemory(), Quota{QuotaBytesPerItem: 10})

	require.NoError(t, set(a, Items{"k": "small"}))

	err := set(a, Items{"k": strings.Repeat("x", 10)})
	var quotaErr *QuotaExceededError
	require.True(t, errors.As(err, &quotaErr))
	assert.Equal(t, QuotaBytesPerItem, quotaErr.Constant)
	assert.Contains(t, err.Error(), "QUOTA_BYTES_PER_ITEM quota exceeded")
}

func TestWithQuota_Bytes(t *testing.T) {
	inner := NewMemory()
	a := WithQuota(inner, Quota{QuotaBytes: 8})

	require.NoError(t, set(a, Items{"a": "1234"}))
	err := set(a, Items{"b": "1234"})
	require.EqualError(t, err, "QUOTA_BYTES quota exceeded")
	assert.Equal(t, 1, inner.Len())
}

func TestWithQuota_BytesOverwrite(t *testing.T) {
	inner := NewMemory()
	a := WithQuota(inner, Quota{QuotaBytes: 100})
	k := strings.Repeat("x", 59)

	require.NoError(t, set(a, Items{"k": k}))
	// replacing a value only counts the difference
	require.NoError(t, set(a, Items{"k": k}))
	require.NoError(t, set(a, Items{"k": k + strings.Repeat("y", 40)}))
	require.EqualError(t, set(a, Items{"k": k + strings.Repeat("y", 41)}), "QUOTA_BYTES quota exceeded")
	assert.Equal(t, int64(100), bytesInUse(t, inner, nil))
}

// slowSetArea delays every Set by delay
type slowSetArea struct {
	*Memory
	delay time.Duration
}

func (a *slowSetArea) Set(items Items, cb func(err error)) {
	go func() {
		time.Sleep(a.delay)
		a.Memory.Set(items, cb)
	}()
}

func TestWithQuota_SetReturnsImmediately(t *testing.T) {
	inner := &slowSetArea{Memory: NewMemory(), delay: 200 * time.Millisecond}
	a := WithQuota(inner, Quota{QuotaBytes: 1000})

	first := make(chan error, 1)
	second := make(chan error, 1)
	start := time.Now()
	a.Set(Items{"k": "1"}, func(err error) { first <- err })
	a.Set(Items{"k": "2"}, func(err error) { second <- err })
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	require.NoError(t, <-first)
	require.NoError(t, <-second)
	// writes apply in call order
	assert.Equal(t, Items{"k": "2"}, get(t, inner, []string{"k"}))
}

func TestWithQuota_WriteRate(t *testing.T) {
	a := WithQuota(NewMemory(), Quota{MaxWriteOperationsPerHour: 2})

	require.NoError(t, set(a, Items{"a": "1"}))
	require.NoError(t, remove(a, []string{"a"}))
	err := clearArea(a)
	require.EqualError(t, err, "MAX_WRITE_OPERATIONS_PER_HOUR quota exceeded")
}

func TestWithQuota_Quota(t *testing.T) {
	q := DefaultQuota(KindSync)
	a := WithQuota(NewMemory(), q)
	assert.Equal(t, q, a.Quota())
	assert.Equal(t, int64(8192), a.Quota()[QuotaBytesPerItem])
}

func TestDefaultQuota(t *testing.T) {
	local := DefaultQuota(KindLocal)
	assert.Equal(t, Quota{QuotaBytes: 10485760}, local)

	// returned quotas are copies
	local[QuotaBytes] = 1
	assert.Equal(t, int64(10485760), LocalQuota[QuotaBytes])

	sync := DefaultQuota(KindSync)
	assert.Contains(t, sync, MaxItems)
	assert.Contains(t, sync, MaxWriteOperationsPerMinute)
}
