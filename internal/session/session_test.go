package session

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mytasks/internal/notify"
	"mytasks/internal/storage"
	"mytasks/internal/task"
	"mytasks/internal/taskstore"
)

var _ Provider = (*Manager)(nil)

var joined = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

func TestLoginPersistsAcrossOpen(t *testing.T) {
	slots := storage.NewMemory()
	rec := notify.NewRecorder(10)
	m := Open(slots, Options{Sink: rec, Clock: func() time.Time { return joined }})
	assert.False(t, m.IsAuthenticated())

	u, err := m.Login("ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ada", u.Name)
	assert.Equal(t, "free", u.Plan)
	assert.Equal(t, joined, u.JoinedDate)
	_, err = uuid.Parse(u.ID)
	assert.NoError(t, err)

	last, _ := rec.Last()
	assert.Equal(t, notify.Message{Level: notify.Success, Text: "Welcome back, ada!"}, last)

	again := Open(slots, Options{})
	got, ok := again.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, u, got)
	assert.True(t, again.IsAuthenticated())
}

func TestSignupAndProfile(t *testing.T) {
	rec := notify.NewRecorder(10)
	m := Open(storage.NewMemory(), Options{Sink: rec})

	_, err := m.Signup("Grace", "")
	assert.ErrorIs(t, err, ErrEmailRequired)

	u, err := m.Signup("Grace", "grace@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Grace", u.Name)
	last, _ := rec.Last()
	assert.Equal(t, "Welcome to MyTasks, Grace!", last.Text)

	name := "Grace H."
	updated, err := m.UpdateProfile(Profile{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Grace H.", updated.Name)
	assert.Equal(t, "grace@example.com", updated.Email)
	assert.Equal(t, u.ID, updated.ID)
}

func TestUpdateProfileRequiresLogin(t *testing.T) {
	m := Open(storage.NewMemory(), Options{})
	_, err := m.UpdateProfile(Profile{})
	assert.Error(t, err)
}

func TestOpenIgnoresUserWithoutFlag(t *testing.T) {
	slots := storage.NewMemory()
	require.NoError(t, slots.Put(storage.SlotUser, []byte(`{"id":"x","name":"n"}`)))
	assert.False(t, Open(slots, Options{}).IsAuthenticated())

	require.NoError(t, slots.Put(storage.SlotIsAuthenticated, []byte("true")))
	require.NoError(t, slots.Put(storage.SlotUser, []byte(`{broken`)))
	assert.False(t, Open(slots, Options{}).IsAuthenticated())
}

func TestLogoutWipesSessionAndTasks(t *testing.T) {
	slots := storage.NewMemory()
	store := taskstore.New(slots)
	require.NoError(t, store.LoadInitial())
	_, err := store.Add(task.Draft{Title: "private"})
	require.NoError(t, err)

	rec := notify.NewRecorder(10)
	m := Open(slots, Options{Tasks: store, Sink: rec})
	_, err = m.Login("ada@example.com")
	require.NoError(t, err)

	require.NoError(t, m.Logout())

	assert.False(t, m.IsAuthenticated())
	assert.Empty(t, store.Tasks())
	for _, slot := range []string{storage.SlotUser, storage.SlotIsAuthenticated, storage.SlotTasks} {
		_, ok, err := slots.Get(slot)
		require.NoError(t, err)
		assert.False(t, ok, slot)
	}
	last, _ := rec.Last()
	assert.Equal(t, "Logged out successfully", last.Text)
}

func TestLoginFailureNotifies(t *testing.T) {
	slots := storage.NewMemory()
	slots.FailWrites(true)
	rec := notify.NewRecorder(10)
	m := Open(slots, Options{Sink: rec})

	_, err := m.Login("ada@example.com")
	assert.ErrorIs(t, err, storage.ErrWriteFailed)
	assert.False(t, m.IsAuthenticated())
	last, _ := rec.Last()
	assert.Equal(t, notify.Error, last.Level)
}
