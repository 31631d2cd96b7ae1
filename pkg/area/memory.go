package area

import (
	"sync"
)

// Memory implements Area with an in-process map
type Memory struct {
	mu    sync.RWMutex
	data  map[string]string
	quota Quota
}

func NewMemory() *Memory {
	return &Memory{
		data:  map[string]string{},
		quota: Quota{},
	}
}

func (m *Memory) Get(keys []string, cb func(items Items, err error)) {
	go func() {
		m.mu.RLock()
		items := make(Items, len(keys))
		if keys == nil {
			for k, v := range m.data {
				items[k] = v
			}
		} else {
			for _, k := range keys {
				if v, ok := m.data[k]; ok {
					items[k] = v
				}
			}
		}
		m.mu.RUnlock()
		if cb != nil {
			cb(items, nil)
		}
	}()
}

func (m *Memory) Set(items Items, cb func(err error)) {
	// copy before returning, the caller may reuse the map
	values := make(Items, len(items))
	for k, v := range items {
		values[k] = v
	}
	go func() {
		m.mu.Lock()
		for k, v := range values {
			m.data[k] = v
		}
		m.mu.Unlock()
		callback(cb, nil)
	}()
}

func (m *Memory) Remove(keys []string, cb func(err error)) {
	keys = append([]string(nil), keys...)
	go func() {
		m.mu.Lock()
		for _, k := range keys {
			delete(m.data, k)
		}
		m.mu.Unlock()
		callback(cb, nil)
	}()
}

func (m *Memory) Clear(cb func(err error)) {
	go func() {
		m.mu.Lock()
		m.data = map[string]string{}
		m.mu.Unlock()
		callback(cb, nil)
	}()
}

func (m *Memory) GetBytesInUse(keys []string, cb func(bytes int64, err error)) {
	go func() {
		m.mu.RLock()
		var n int64
		if keys == nil {
			for k, v := range m.data {
				n += itemsSize(k, v)
			}
		} else {
			for _, k := range keys {
				if v, ok := m.data[k]; ok {
					n += itemsSize(k, v)
				}
			}
		}
		m.mu.RUnlock()
		if cb != nil {
			cb(n, nil)
		}
	}()
}

func (m *Memory) Quota() Quota {
	return m.quota
}

// Len returns the number of stored items
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Raw returns the stored value for key, bypassing the asynchronous API
func (m *Memory) Raw(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

// Close is a no-op
func (m *Memory) Close() error {
	return nil
}
