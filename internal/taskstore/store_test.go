package taskstore

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mytasks/internal/calendar"
	"mytasks/internal/storage"
	"mytasks/internal/task"
)

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newStore(t *testing.T, slots Slots) *Store {
	t.Helper()
	s := New(slots, WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, s.LoadInitial())
	return s
}

func ids(tasks []task.Task) []task.ID {
	out := make([]task.ID, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestLoadInitialSeedsEmptyStore(t *testing.T) {
	slots := storage.NewMemory()
	s := newStore(t, slots)

	tasks := s.Tasks()
	require.Len(t, tasks, 3)
	assert.Equal(t, []task.ID{1, 2, 3}, ids(tasks))
	assert.Equal(t, "Team Meeting", tasks[0].Title)
	assert.Equal(t, "2024-12-24", tasks[1].DueDate)
	assert.True(t, tasks[2].Completed)
	assert.Equal(t, fixedNow, tasks[0].CreatedAt)

	data, ok, err := slots.Get(storage.SlotTasks)
	require.NoError(t, err)
	require.True(t, ok)
	var persisted []task.Task
	require.NoError(t, json.Unmarshal(data, &persisted))
	assert.Equal(t, tasks, persisted)
}

func TestLoadInitialReseedsEmptyOrCorruptSnapshot(t *testing.T) {
	for name, raw := range map[string]string{
		"empty list": "[]",
		"corrupt":    "{not json",
		"wrong type": `{"id":1}`,
	} {
		t.Run(name, func(t *testing.T) {
			slots := storage.NewMemory()
			require.NoError(t, slots.Put(storage.SlotTasks, []byte(raw)))

			var logs bytes.Buffer
			s := New(slots, WithClock(func() time.Time { return fixedNow }), WithLogger(zerolog.New(&logs)))
			require.NoError(t, s.LoadInitial())

			assert.Equal(t, []task.ID{1, 2, 3}, ids(s.Tasks()))
			if name != "empty list" {
				assert.Contains(t, logs.String(), "reseeding")
			}
		})
	}
}

func TestRoundTripPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todo.db")
	db, err := storage.Open(path)
	require.NoError(t, err)

	s := newStore(t, db)
	added, err := s.Add(task.Draft{Title: "Buy milk", DueDate: "2025-03-11", Category: "Shopping"})
	require.NoError(t, err)
	require.NoError(t, s.ToggleReminder(added.ID))
	require.NoError(t, s.Update(2, task.Patch{Description: task.StringPtr("moved to 5 PM")}))
	require.NoError(t, s.Delete(1))
	want := s.Tasks()
	require.NoError(t, db.Close())

	db2, err := storage.Open(path)
	require.NoError(t, err)
	defer db2.Close()
	s2 := New(db2, WithClock(func() time.Time { return fixedNow.Add(time.Hour) }))
	require.NoError(t, s2.LoadInitial())

	assert.Equal(t, want, s2.Tasks())
}

func TestAddDefaults(t *testing.T) {
	s := newStore(t, storage.NewMemory())

	created, err := s.Add(task.Draft{Title: "X"})
	require.NoError(t, err)

	assert.Equal(t, task.ID(4), created.ID)
	assert.False(t, created.Completed)
	assert.True(t, created.ReminderEnabled)
	assert.Equal(t, task.PriorityMedium, created.Priority)
	assert.Equal(t, task.DefaultCategory, created.Category)
	assert.Equal(t, fixedNow, created.CreatedAt)

	off, err := s.Add(task.Draft{Title: "Y", ReminderEnabled: task.BoolPtr(false)})
	require.NoError(t, err)
	assert.False(t, off.ReminderEnabled)
	assert.Equal(t, task.ID(5), off.ID)
}

func TestIDsAreNeverReused(t *testing.T) {
	s := newStore(t, storage.NewMemory())

	a, err := s.Add(task.Draft{Title: "a"})
	require.NoError(t, err)
	require.NoError(t, s.Delete(a.ID))
	b, err := s.Add(task.Draft{Title: "b"})
	require.NoError(t, err)

	assert.Greater(t, b.ID, a.ID)
}

func TestAddThenDeleteRestoresCollection(t *testing.T) {
	s := newStore(t, storage.NewMemory())
	before := s.Tasks()

	created, err := s.Add(task.Draft{Title: "X"})
	require.NoError(t, err)
	require.NoError(t, s.Delete(created.ID))

	after := s.Tasks()
	assert.Len(t, after, len(before))
	assert.Equal(t, ids(before), ids(after))
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := newStore(t, storage.NewMemory())

	require.NoError(t, s.Delete(2))
	once := s.Tasks()
	require.NoError(t, s.Delete(2))

	assert.Equal(t, once, s.Tasks())
	assert.Equal(t, []task.ID{1, 3}, ids(once))
}

func TestToggleCompletionIsInvolution(t *testing.T) {
	s := newStore(t, storage.NewMemory())
	orig, ok := s.Get(1)
	require.True(t, ok)

	require.NoError(t, s.ToggleCompletion(1))
	mid, _ := s.Get(1)
	assert.Equal(t, !orig.Completed, mid.Completed)

	require.NoError(t, s.ToggleCompletion(1))
	back, _ := s.Get(1)
	assert.Equal(t, orig, back)
}

func TestToggleReminder(t *testing.T) {
	s := newStore(t, storage.NewMemory())
	require.NoError(t, s.ToggleReminder(2))
	got, _ := s.Get(2)
	assert.True(t, got.ReminderEnabled)
}

func TestMissingIDIsNoOp(t *testing.T) {
	slots := storage.NewMemory()
	s := newStore(t, slots)
	before := s.Tasks()
	writes := slots.Writes()
	version := s.Version()

	assert.NoError(t, s.Update(999, task.Patch{Title: task.StringPtr("ghost")}))
	assert.NoError(t, s.Delete(999))
	assert.NoError(t, s.ToggleCompletion(999))
	assert.NoError(t, s.ToggleReminder(999))

	assert.Equal(t, before, s.Tasks())
	assert.Equal(t, writes, slots.Writes())
	assert.Equal(t, version, s.Version())
}

func TestUpdateAllowsEmptyTitleAndKeepsIdentity(t *testing.T) {
	s := newStore(t, storage.NewMemory())
	orig, _ := s.Get(1)

	require.NoError(t, s.Update(1, task.Patch{
		Title:    task.StringPtr(""),
		Priority: task.PriorityPtr(task.PriorityLow),
	}))

	got, _ := s.Get(1)
	assert.Equal(t, "", got.Title)
	assert.Equal(t, task.PriorityLow, got.Priority)
	assert.Equal(t, orig.ID, got.ID)
	assert.Equal(t, orig.CreatedAt, got.CreatedAt)
	assert.Equal(t, orig.DueDate, got.DueDate)
}

func TestEveryMutationWritesThrough(t *testing.T) {
	slots := storage.NewMemory()
	s := newStore(t, slots)

	read := func() []task.Task {
		data, ok, err := slots.Get(storage.SlotTasks)
		require.NoError(t, err)
		require.True(t, ok)
		var out []task.Task
		require.NoError(t, json.Unmarshal(data, &out))
		return out
	}

	created, err := s.Add(task.Draft{Title: "write through"})
	require.NoError(t, err)
	assert.Equal(t, s.Tasks(), read())

	require.NoError(t, s.ToggleCompletion(created.ID))
	assert.Equal(t, s.Tasks(), read())

	require.NoError(t, s.Update(created.ID, task.Patch{Category: task.StringPtr("Work")}))
	assert.Equal(t, s.Tasks(), read())

	require.NoError(t, s.Delete(created.ID))
	assert.Equal(t, s.Tasks(), read())
}

func TestPersistenceFailureKeepsInMemoryChange(t *testing.T) {
	slots := storage.NewMemory()
	var logs bytes.Buffer
	s := New(slots, WithClock(func() time.Time { return fixedNow }), WithLogger(zerolog.New(&logs)))
	require.NoError(t, s.LoadInitial())

	slots.FailWrites(true)
	created, err := s.Add(task.Draft{Title: "offline"})
	assert.ErrorIs(t, err, ErrPersist)
	assert.ErrorIs(t, err, storage.ErrWriteFailed)
	assert.Contains(t, logs.String(), "write failed")

	got, ok := s.Get(created.ID)
	require.True(t, ok)
	assert.Equal(t, "offline", got.Title)
	assert.Len(t, s.Tasks(), 4)

	slots.FailWrites(false)
	require.NoError(t, s.ToggleCompletion(created.ID))
	data, _, err := slots.Get(storage.SlotTasks)
	require.NoError(t, err)
	assert.Contains(t, string(data), "offline")
}

func TestClearRemovesSlot(t *testing.T) {
	slots := storage.NewMemory()
	s := newStore(t, slots)

	require.NoError(t, s.Clear())
	assert.Empty(t, s.Tasks())
	_, ok, err := slots.Get(storage.SlotTasks)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.LoadInitial())
	assert.Len(t, s.Tasks(), 3)
}

func TestTasksReturnsCopy(t *testing.T) {
	s := newStore(t, storage.NewMemory())
	tasks := s.Tasks()
	tasks[0].Title = "mutated"

	got, _ := s.Get(tasks[0].ID)
	assert.Equal(t, "Team Meeting", got.Title)
}

func TestWithSeed(t *testing.T) {
	seed, err := ParseSeed([]byte(`
- id: 10
  title: Only
  priority: low
`))
	require.NoError(t, err)
	s := New(storage.NewMemory(), WithSeed(seed), WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, s.LoadInitial())

	require.Len(t, s.Tasks(), 1)
	created, err := s.Add(task.Draft{Title: "next"})
	require.NoError(t, err)
	assert.Equal(t, task.ID(11), created.ID)
}

func TestParseSeedRejectsBadPriority(t *testing.T) {
	_, err := ParseSeed([]byte("- id: 1\n  title: x\n  priority: asap\n"))
	assert.Error(t, err)
}

func TestNewPanicsOnNilSlots(t *testing.T) {
	assert.Panics(t, func() { New(nil) })
}

func TestCompletingOverdueTaskClearsIt(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "todo.db"))
	require.NoError(t, err)
	defer db.Close()
	s := newStore(t, db)
	today := calendar.DayOf(fixedNow)

	late, err := s.Add(task.Draft{Title: "File taxes", DueDate: "2025-03-08"})
	require.NoError(t, err)
	assert.Contains(t, ids(calendar.New(s.Tasks()).Overdue(today)), late.ID)

	require.NoError(t, s.ToggleCompletion(late.ID))
	assert.NotContains(t, ids(calendar.New(s.Tasks()).Overdue(today)), late.ID)

	reloaded := newStore(t, db)
	assert.NotContains(t, ids(calendar.New(reloaded.Tasks()).Overdue(today)), late.ID)

	require.NoError(t, s.ToggleCompletion(late.ID))
	assert.Contains(t, ids(calendar.New(s.Tasks()).Overdue(today)), late.ID)
}
