package area

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Kind names a storage partition
type Kind string

const (
	// KindLocal device local storage
	KindLocal Kind = "local"
	// KindSync storage synchronized across devices
	KindSync Kind = "sync"
	// KindSession in-memory storage that lives as long as the process
	KindSession Kind = "session"
)

// Kinds lists every known area kind
var Kinds = []Kind{KindLocal, KindSync, KindSession}

// ParseKind parses an area kind, the empty string yields KindLocal
func ParseKind(v string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(v))); k {
	case "":
		return KindLocal, nil
	case KindLocal, KindSync, KindSession:
		return k, nil
	default:
		return "", fmt.Errorf("unknown area kind %q (supported: local, sync, session)", v)
	}
}

// Items maps storage keys to stored values
type Items map[string]string

// Area is an asynchronous key value namespace. Every method returns
// immediately and reports its outcome through the callback, which is invoked
// on a goroutine owned by the area. Callbacks may be nil.
type Area interface {
	// Get reads the given keys, missing keys are absent from the result.
	// A nil keys slice reads every item.
	Get(keys []string, callback func(items Items, err error))
	// Set writes all items, overwriting existing keys.
	Set(items Items, callback func(err error))
	// Remove deletes the given keys, unknown keys are ignored.
	Remove(keys []string, callback func(err error))
	// Clear deletes every item.
	Clear(callback func(err error))
	// GetBytesInUse sums key and value sizes of the given keys, nil means all.
	GetBytesInUse(keys []string, callback func(bytes int64, err error))
	// Quota returns the quota constants exposed by this area.
	Quota() Quota
}

// Areas maps kinds to their areas
type Areas map[Kind]Area

// Lookup returns the area for kind. Unknown or unconfigured kinds fall back
// to the local area with a warning.
func (a Areas) Lookup(l *zap.Logger, kind Kind) (Kind, Area, error) {
	if v, ok := a[kind]; ok {
		return kind, v, nil
	}
	l.Warn("unknown area kind, defaulting to local", zap.String("kind", string(kind)))
	if v, ok := a[KindLocal]; ok {
		return KindLocal, v, nil
	}
	return "", nil, fmt.Errorf("no area configured for %q and no local fallback", kind)
}

func itemsSize(key, value string) int64 {
	return int64(len(key) + len(value))
}

func callback(fn func(error), err error) {
	if fn != nil {
		fn(err)
	}
}
