package area

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/memblob"
)

func get(t *testing.T, a Area, keys []string) Items {
	t.Helper()
	type result struct {
		items Items
		err   error
	}
	ch := make(chan result, 1)
	a.Get(keys, func(items Items, err error) {
		ch <- result{items, err}
	})
	r := <-ch
	require.NoError(t, r.err)
	return r.items
}

func set(a Area, items Items) error {
	ch := make(chan error, 1)
	a.Set(items, func(err error) {
		ch <- err
	})
	return <-ch
}

func remove(a Area, keys []string) error {
	ch := make(chan error, 1)
	a.Remove(keys, func(err error) {
		ch <- err
	})
	return <-ch
}

func clearArea(a Area) error {
	ch := make(chan error, 1)
	a.Clear(func(err error) {
		ch <- err
	})
	return <-ch
}

func bytesInUse(t *testing.T, a Area, keys []string) int64 {
	t.Helper()
	var (
		ch   = make(chan int64, 1)
		fail error
	)
	a.GetBytesInUse(keys, func(n int64, err error) {
		fail = err
		ch <- n
	})
	n := <-ch
	require.NoError(t, fail)
	return n
}

func testAreas(t *testing.T) map[string]Area {
	t.Helper()
	bucket, err := blob.OpenBucket(context.Background(), "mem://")
	require.NoError(t, err)
	t.Cleanup(func() { bucket.Close() })

	db, err := OpenSQLite(t.TempDir() + "/items.db")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return map[string]Area{
		"memory": NewMemory(),
		"blob":   NewBlobFromBucket(bucket, "records"),
		"sqlite": db,
	}
}

func TestArea_SetGet(t *testing.T) {
	for name, a := range testAreas(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, set(a, Items{"Doctors-1": `{"id":"1"}`, "Doctors": "1"}))

			items := get(t, a, []string{"Doctors-1", "Doctors-2"})
			assert.Equal(t, Items{"Doctors-1": `{"id":"1"}`}, items)

			all := get(t, a, nil)
			assert.Len(t, all, 2)
			assert.Equal(t, "1", all["Doctors"])
		})
	}
}

func TestArea_Overwrite(t *testing.T) {
	for name, a := range testAreas(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, set(a, Items{"key": "original"}))
			require.NoError(t, set(a, Items{"key": "updated"}))
			assert.Equal(t, Items{"key": "updated"}, get(t, a, []string{"key"}))
		})
	}
}

func TestArea_Remove(t *testing.T) {
	for name, a := range testAreas(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, set(a, Items{"a": "1", "b": "2"}))
			require.NoError(t, remove(a, []string{"a", "nonexistent"}))
			assert.Equal(t, Items{"b": "2"}, get(t, a, nil))
		})
	}
}

func TestArea_Clear(t *testing.T) {
	for name, a := range testAreas(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, set(a, Items{"a": "1", "b": "2"}))
			require.NoError(t, clearArea(a))
			assert.Empty(t, get(t, a, nil))
		})
	}
}

func TestArea_GetBytesInUse(t *testing.T) {
	for name, a := range testAreas(t) {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, int64(0), bytesInUse(t, a, nil))
			require.NoError(t, set(a, Items{"ab": "cde", "f": "g"}))
			assert.Equal(t, int64(7), bytesInUse(t, a, nil))
			assert.Equal(t, int64(5), bytesInUse(t, a, []string{"ab", "missing"}))
		})
	}
}

func TestSQLite_ManyKeys(t *testing.T) {
	db, err := OpenSQLite(t.TempDir() + "/items.db")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	n := 3*sqliteMaxParams + 7
	items := Items{}
	keys := make([]string, 0, n)
	for i := range n {
		k := fmt.Sprintf("todos-%d", i)
		items[k] = "v"
		keys = append(keys, k)
	}
	require.NoError(t, set(db, items))

	assert.Len(t, get(t, db, keys), n)
	assert.Equal(t, bytesInUse(t, db, nil), bytesInUse(t, db, keys))
	assert.Empty(t, get(t, db, []string{}))
}

func TestArea_NilCallbacks(t *testing.T) {
	a := NewMemory()
	a.Set(Items{"a": "1"}, nil)
	a.Get(nil, nil)
	a.GetBytesInUse(nil, nil)
	require.NoError(t, remove(a, []string{"b"}))
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{
		"":        KindLocal,
		"local":   KindLocal,
		" Sync ":  KindSync,
		"session": KindSession,
	} {
		got, err := ParseKind(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseKind("managed")
	require.Error(t, err)
}

func TestAreas_Lookup(t *testing.T) {
	l := zaptest.NewLogger(t)
	local := NewMemory()
	sync := NewMemory()
	areas := Areas{KindLocal: local, KindSync: sync}

	kind, a, err := areas.Lookup(l, KindSync)
	require.NoError(t, err)
	assert.Equal(t, KindSync, kind)
	assert.Same(t, sync, a)

	kind, a, err = areas.Lookup(l, KindSession)
	require.NoError(t, err)
	assert.Equal(t, KindLocal, kind)
	assert.Same(t, local, a)

	_, _, err = Areas{}.Lookup(l, KindSync)
	require.Error(t, err)
}
