package vanish_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rkuznets/vanish"
)

func testRecord(id string) vanish.Record {
	return vanish.Record{
		ID:                 id,
		Variant:            "pdf",
		OriginalName:       "report.pdf",
		OriginalStorageKey: id + "/original.pdf",
		StorageKey:         id + "/converted.pdf",
		State:              vanish.StatePending,
		GeneratedAt:        time.Now().UTC(),
	}
}

func TestRegistry_AddGet(t *testing.T) {
	r := vanish.NewRegistry()

	err := r.Add(testRecord("a"))
	assert.NoError(t, err)

	got, ok := r.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "a", got.ID)
	assert.Equal(t, vanish.StatePending, got.State)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_Add_EmptyID(t *testing.T) {
	r := vanish.NewRegistry()

	err := r.Add(vanish.Record{})
	assert.ErrorIs(t, err, vanish.ErrInvalidInput)
}

func TestRegistry_Add_DuplicateID(t *testing.T) {
	r := vanish.NewRegistry()

	assert.NoError(t, r.Add(testRecord("a")))
	err := r.Add(testRecord("a"))
	assert.ErrorIs(t, err, vanish.ErrInvalidInput)
}

func TestRegistry_Get_Missing(t *testing.T) {
	r := vanish.NewRegistry()

	_, ok := r.Get("nope")
	assert.False(t, ok)
}

func TestRegistry_Get_ReturnsCopy(t *testing.T) {
	r := vanish.NewRegistry()
	assert.NoError(t, r.Add(testRecord("a")))

	got, _ := r.Get("a")
	got.State = vanish.StateError

	again, _ := r.Get("a")
	assert.Equal(t, vanish.StatePending, again.State)
}

func TestRegistry_Update(t *testing.T) {
	t.Run("applies field group atomically", func(t *testing.T) {
		r := vanish.NewRegistry()
		assert.NoError(t, r.Add(testRecord("a")))

		ts := time.Now().UTC().Add(time.Minute)
		updated, ok := r.Update("a", func(rec *vanish.Record) {
			rec.State = vanish.StateDone
			rec.GeneratedAt = ts
		})

		assert.True(t, ok)
		assert.Equal(t, vanish.StateDone, updated.State)
		assert.Equal(t, ts, updated.GeneratedAt)
	})

	t.Run("missing id", func(t *testing.T) {
		r := vanish.NewRegistry()

		_, ok := r.Update("nope", func(rec *vanish.Record) {})
		assert.False(t, ok)
	})

	t.Run("terminal state never returns to pending", func(t *testing.T) {
		r := vanish.NewRegistry()
		assert.NoError(t, r.Add(testRecord("a")))

		_, ok := r.Update("a", func(rec *vanish.Record) { rec.State = vanish.StateError })
		assert.True(t, ok)

		got, _ := r.Update("a", func(rec *vanish.Record) { rec.State = vanish.StatePending })
		assert.Equal(t, vanish.StateError, got.State)
	})
}

func TestRegistry_RemoveIfIdle(t *testing.T) {
	t.Run("removes idle record", func(t *testing.T) {
		r := vanish.NewRegistry()
		assert.NoError(t, r.Add(testRecord("a")))

		rec, removed, busy := r.RemoveIfIdle("a")
		assert.True(t, removed)
		assert.False(t, busy)
		assert.Equal(t, "a", rec.ID)
		assert.Equal(t, 0, r.Len())
	})

	t.Run("missing id is a no-op", func(t *testing.T) {
		r := vanish.NewRegistry()

		_, removed, busy := r.RemoveIfIdle("nope")
		assert.False(t, removed)
		assert.False(t, busy)
	})

	t.Run("removed id never resolves again", func(t *testing.T) {
		r := vanish.NewRegistry()
		assert.NoError(t, r.Add(testRecord("a")))
		_, removed, _ := r.RemoveIfIdle("a")
		assert.True(t, removed)

		_, ok := r.Get("a")
		assert.False(t, ok)
		_, ok = r.Acquire("a")
		assert.False(t, ok)
	})
}

func TestRegistry_AcquireBlocksRemoval(t *testing.T) {
	r := vanish.NewRegistry()
	assert.NoError(t, r.Add(testRecord("a")))

	rec, ok := r.Acquire("a")
	assert.True(t, ok)
	assert.Equal(t, "a", rec.ID)

	_, removed, busy := r.RemoveIfIdle("a")
	assert.False(t, removed)
	assert.True(t, busy)

	r.Release("a")

	_, removed, busy = r.RemoveIfIdle("a")
	assert.True(t, removed)
	assert.False(t, busy)
}

func TestRegistry_AcquireNested(t *testing.T) {
	r := vanish.NewRegistry()
	assert.NoError(t, r.Add(testRecord("a")))

	_, ok := r.Acquire("a")
	assert.True(t, ok)
	_, ok = r.Acquire("a")
	assert.True(t, ok)

	r.Release("a")
	_, removed, busy := r.RemoveIfIdle("a")
	assert.False(t, removed)
	assert.True(t, busy)

	r.Release("a")
	_, removed, _ = r.RemoveIfIdle("a")
	assert.True(t, removed)
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := vanish.NewRegistry()
	assert.NoError(t, r.Add(testRecord("a")))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(3)
		go func() {
			defer wg.Done()
			for range 100 {
				ts := time.Now().UTC()
				r.Update("a", func(rec *vanish.Record) {
					rec.State = vanish.StateDone
					rec.GeneratedAt = ts
				})
			}
		}()
		go func() {
			defer wg.Done()
			for range 100 {
				if rec, ok := r.Get("a"); ok && rec.State == vanish.StateDone {
					assert.False(t, rec.GeneratedAt.IsZero())
				}
			}
		}()
		go func() {
			defer wg.Done()
			for range 100 {
				if _, ok := r.Acquire("a"); ok {
					r.Release("a")
				}
			}
		}()
	}
	wg.Wait()
}
