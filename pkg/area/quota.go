package area

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Quota holds the quota constants of an area
type Quota map[string]int64

const (
	QuotaBytes                           = "QUOTA_BYTES"
	QuotaBytesPerItem                    = "QUOTA_BYTES_PER_ITEM"
	MaxItems                             = "MAX_ITEMS"
	MaxSustainedWriteOperationsPerMinute = "MAX_SUSTAINED_WRITE_OPERATIONS_PER_MINUTE"
	MaxWriteOperationsPerHour            = "MAX_WRITE_OPERATIONS_PER_HOUR"
	MaxWriteOperationsPerMinute          = "MAX_WRITE_OPERATIONS_PER_MINUTE"
	QuotaBytesInUse                      = "QUOTA_BYTES_IN_USE"
)

// RecognizedQuotaConstants are the constants reported by a quota descriptor
var RecognizedQuotaConstants = []string{
	QuotaBytes,
	QuotaBytesPerItem,
	MaxItems,
	MaxSustainedWriteOperationsPerMinute,
	MaxWriteOperationsPerHour,
}

var (
	LocalQuota = Quota{
		QuotaBytes: 10485760,
	}
	SessionQuota = Quota{
		QuotaBytes: 10485760,
	}
	SyncQuota = Quota{
		QuotaBytes:                           102400,
		QuotaBytesPerItem:                    8192,
		MaxItems:                             512,
		MaxWriteOperationsPerHour:            1800,
		MaxWriteOperationsPerMinute:          120,
		MaxSustainedWriteOperationsPerMinute: 1000000,
	}
)

// DefaultQuota returns a copy of the default quota of kind
func DefaultQuota(kind Kind) Quota {
	var q Quota
	switch kind {
	case KindSync:
		q = SyncQuota
	case KindSession:
		q = SessionQuota
	default:
		q = LocalQuota
	}
	ret := make(Quota, len(q))
	for k, v := range q {
		ret[k] = v
	}
	return ret
}

// QuotaExceededError is reported when a write would violate a quota constant
type QuotaExceededError struct {
	Constant string
}

func (e *QuotaExceededError) Error() string {
	return e.Constant + " quota exceeded"
}

type quotaArea struct {
	Area
	quota    Quota
	limiters map[string]*rate.Limiter
	// writes run one at a time in call order so the size check and the
	// write of one Set cannot interleave with another writer
	mu      sync.Mutex
	queue   []func(done func())
	running bool
}

// WithQuota enforces the byte and write rate constants of quota on top of
// inner. MAX_ITEMS is reported but not enforced.
func WithQuota(inner Area, quota Quota) Area {
	inst := &quotaArea{
		Area:     inner,
		quota:    quota,
		limiters: map[string]*rate.Limiter{},
	}
	for constant, window := range map[string]time.Duration{
		MaxWriteOperationsPerHour:            time.Hour,
		MaxWriteOperationsPerMinute:          time.Minute,
		MaxSustainedWriteOperationsPerMinute: time.Minute,
	} {
		if n, ok := quota[constant]; ok && n > 0 {
			inst.limiters[constant] = rate.NewLimiter(rate.Every(window/time.Duration(n)), int(n))
		}
	}
	return inst
}

func (a *quotaArea) Quota() Quota {
	return a.quota
}

func (a *quotaArea) Set(items Items, cb func(err error)) {
	if err := a.checkItems(items); err != nil {
		go callback(cb, err)
		return
	}
	a.write(func(done func(error)) {
		limit, ok := a.quota[QuotaBytes]
		if !ok || len(items) == 0 {
			a.Area.Set(items, done)
			return
		}
		a.checkBytes(items, limit, func(err error) {
			if err != nil {
				done(err)
				return
			}
			a.Area.Set(items, done)
		})
	}, cb)
}

func (a *quotaArea) Remove(keys []string, cb func(err error)) {
	a.write(func(done func(error)) { a.Area.Remove(keys, done) }, cb)
}

func (a *quotaArea) Clear(cb func(err error)) {
	a.write(func(done func(error)) { a.Area.Clear(done) }, cb)
}

// write queues op behind the pending writes and returns immediately
func (a *quotaArea) write(op func(done func(error)), cb func(err error)) {
	a.enqueue(func(next func()) {
		for constant, limiter := range a.limiters {
			if !limiter.Allow() {
				next()
				go callback(cb, &QuotaExceededError{Constant: constant})
				return
			}
		}
		op(func(err error) {
			next()
			callback(cb, err)
		})
	})
}

func (a *quotaArea) enqueue(job func(next func())) {
	a.mu.Lock()
	a.queue = append(a.queue, job)
	if a.running {
		a.mu.Unlock()
		return
	}
	a.running = true
	a.mu.Unlock()
	go a.drain()
}

func (a *quotaArea) drain() {
	for {
		a.mu.Lock()
		if len(a.queue) == 0 {
			a.running = false
			a.mu.Unlock()
			return
		}
		job := a.queue[0]
		a.queue = a.queue[1:]
		a.mu.Unlock()

		done := make(chan struct{})
		var once sync.Once
		job(func() { once.Do(func() { close(done) }) })
		<-done
	}
}

// checkBytes fails when writing items would push the area above limit.
// Bytes of overwritten keys are replaced, not added.
func (a *quotaArea) checkBytes(items Items, limit int64, cb func(err error)) {
	keys := make([]string, 0, len(items))
	var incoming int64
	for k, v := range items {
		keys = append(keys, k)
		incoming += itemsSize(k, v)
	}
	a.Area.GetBytesInUse(nil, func(inUse int64, err error) {
		if err != nil {
			cb(err)
			return
		}
		a.Area.GetBytesInUse(keys, func(replaced int64, err error) {
			if err != nil {
				cb(err)
				return
			}
			if inUse-replaced+incoming > limit {
				cb(&QuotaExceededError{Constant: QuotaBytes})
				return
			}
			cb(nil)
		})
	})
}

func (a *quotaArea) checkItems(items Items) error {
	perItem, ok := a.quota[QuotaBytesPerItem]
	if !ok {
		return nil
	}
	for k, v := range items {
		if itemsSize(k, v) > perItem {
			return fmt.Errorf("%w: %q", &QuotaExceededError{Constant: QuotaBytesPerItem}, k)
		}
	}
	return nil
}
