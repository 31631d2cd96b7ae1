package collection

import (
	"strings"
	"sync"

	"github.com/pkg/errors"
)

const delimiter = ","

// validateID rejects ids that would not survive a round trip through the
// stored index
func validateID(id string) error {
	if strings.Contains(id, delimiter) {
		return errors.Wrapf(ErrInvalidID, "id %q", id)
	}
	return nil
}

// index is the ordered list of record ids belonging to a collection.
// Mutations before the initial load are merged into the loaded list.
type index struct {
	mu      sync.Mutex
	ids     []string
	loaded  bool
	removed map[string]struct{}
	// gen increments on every mutation, written tracks the last persisted gen
	gen     uint64
	written uint64
}

func newIndex() *index {
	return &index{
		removed: map[string]struct{}{},
	}
}

// parseIndex splits a stored index value. Empty segments and duplicates are
// dropped, anything that is not a string yields an empty list.
func parseIndex(raw any) []string {
	s, ok := raw.(string)
	if !ok || s == "" {
		return []string{}
	}
	ids := []string{}
	seen := map[string]struct{}{}
	for _, id := range strings.Split(s, delimiter) {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// merge installs the loaded ids, keeping mutations applied before the load.
// It reports whether the result differs from loaded.
func (x *index) merge(loaded []string) bool {
	x.mu.Lock()
	defer x.mu.Unlock()

	ids := make([]string, 0, len(loaded)+len(x.ids))
	seen := map[string]struct{}{}
	changed := false
	for _, id := range loaded {
		if _, ok := x.removed[id]; ok {
			changed = true
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, id := range x.ids {
		if _, ok := seen[id]; ok {
			continue
		}
		changed = true
		ids = append(ids, id)
	}
	x.ids = ids
	x.loaded = true
	x.removed = nil
	if changed {
		x.gen++
	} else {
		x.written = x.gen
	}
	return changed
}

// add appends id unless present
func (x *index) add(id string) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	if !x.loaded {
		delete(x.removed, id)
	}
	for _, v := range x.ids {
		if v == id {
			return false
		}
	}
	x.ids = append(x.ids, id)
	x.gen++
	return true
}

// remove drops every occurrence of id
func (x *index) remove(id string) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	if !x.loaded {
		x.removed[id] = struct{}{}
	}
	ids := x.ids[:0]
	for _, v := range x.ids {
		if v != id {
			ids = append(ids, v)
		}
	}
	changed := len(ids) != len(x.ids)
	// clear the tail so the dropped strings can be collected
	for i := len(ids); i < len(x.ids); i++ {
		x.ids[i] = ""
	}
	x.ids = ids
	if changed {
		x.gen++
	}
	return changed
}

func (x *index) contains(id string) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, v := range x.ids {
		if v == id {
			return true
		}
	}
	return false
}

func (x *index) snapshot() ([]string, uint64) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return append([]string(nil), x.ids...), x.gen
}

// dirty reports whether gen has not been written yet
func (x *index) dirty(gen uint64) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return gen > x.written
}

func (x *index) markWritten(gen uint64) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if gen > x.written {
		x.written = gen
	}
}

// keys returns the namespaced storage keys in index order
func (x *index) keys(name string) []string {
	x.mu.Lock()
	defer x.mu.Unlock()
	keys := make([]string, len(x.ids))
	for i, id := range x.ids {
		keys[i] = recordKey(name, id)
	}
	return keys
}

func recordKey(name, id string) string {
	return name + "-" + id
}
