// Package taskstore owns the task collection and keeps its persisted slot in
// sync with every mutation.
//
// The store assumes one writer process per slot store. Two processes sharing
// a database see last-writer-wins on the whole collection.
package taskstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"mytasks/internal/storage"
	"mytasks/internal/task"
)

// ErrPersist wraps failures to write the collection. The in-memory change
// that triggered the write is kept.
var ErrPersist = errors.New("persist tasks")

// Slots is the persisted key/value surface the store writes through to.
type Slots interface {
	Get(name string) ([]byte, bool, error)
	Put(name string, value []byte) error
	Delete(names ...string) error
}

type Store struct {
	mu      sync.RWMutex
	slots   Slots
	tasks   []task.Task
	nextID  task.ID
	version uint64

	now  func() time.Time
	log  zerolog.Logger
	seed []task.Task
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithSeed replaces the example tasks written on first run.
func WithSeed(seed []task.Task) Option {
	return func(s *Store) { s.seed = seed }
}

func New(slots Slots, opts ...Option) *Store {
	if slots == nil {
		panic("taskstore: nil slots")
	}
	s := &Store{
		slots:  slots,
		nextID: 1,
		now:    time.Now,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.seed == nil {
		s.seed = DefaultSeed()
	}
	return s
}

// LoadInitial hydrates the collection from the tasks slot. A missing, empty
// or unreadable snapshot is replaced by the seed set, which is persisted
// right away. Only the seed write can fail.
func (s *Store) LoadInitial() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	loaded, ok := s.readSnapshot()
	if ok {
		s.replace(loaded)
		s.log.Debug().Int("count", len(loaded)).Msg("loaded tasks")
		return nil
	}

	seeded := stampSeed(s.seed, s.now().UTC())
	s.replace(seeded)
	s.log.Info().Int("count", len(seeded)).Msg("seeded example tasks")
	return s.persist(seeded)
}

func (s *Store) readSnapshot() ([]task.Task, bool) {
	data, ok, err := s.slots.Get(storage.SlotTasks)
	if err != nil {
		s.log.Warn().Err(err).Str("slot", storage.SlotTasks).Msg("read snapshot failed, reseeding")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var tasks []task.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		s.log.Warn().Err(err).Str("slot", storage.SlotTasks).Msg("corrupt snapshot, reseeding")
		return nil, false
	}
	if len(tasks) == 0 {
		return nil, false
	}
	return tasks, true
}

// replace swaps the collection and moves nextID past every id it holds.
// Callers hold mu.
func (s *Store) replace(tasks []task.Task) {
	s.tasks = tasks
	for _, t := range tasks {
		if t.ID >= s.nextID {
			s.nextID = t.ID + 1
		}
	}
	s.version++
}

func (s *Store) persist(tasks []task.Task) error {
	data, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrPersist, err)
	}
	if err := s.slots.Put(storage.SlotTasks, data); err != nil {
		s.log.Warn().Err(err).Str("slot", storage.SlotTasks).Msg("write failed, keeping in-memory tasks")
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

// update is the only mutation path: it runs fn on a copy of the collection
// under the write lock, persists the result and swaps it in. fn reports
// whether it changed anything; unchanged collections are not written.
func (s *Store) update(fn func(tasks []task.Task) ([]task.Task, bool)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := make([]task.Task, len(s.tasks))
	copy(work, s.tasks)
	next, changed := fn(work)
	if !changed {
		return nil
	}
	s.replace(next)
	return s.persist(next)
}

func (s *Store) Add(d task.Draft) (task.Task, error) {
	var created task.Task
	err := s.update(func(tasks []task.Task) ([]task.Task, bool) {
		reminder := true
		if d.ReminderEnabled != nil {
			reminder = *d.ReminderEnabled
		}
		priority := d.Priority
		if priority == "" {
			priority = task.PriorityMedium
		}
		category := d.Category
		if category == "" {
			category = task.DefaultCategory
		}
		created = task.Task{
			ID:              s.nextID,
			Title:           d.Title,
			Description:     d.Description,
			DueDate:         d.DueDate,
			Category:        category,
			Priority:        priority,
			Completed:       false,
			ReminderEnabled: reminder,
			CreatedAt:       s.now().UTC(),
		}
		return append(tasks, created), true
	})
	if err == nil {
		s.log.Debug().Int64("task_id", int64(created.ID)).Msg("added task")
	}
	return created, err
}

// Update merges p into the task with the given id. The title is not
// re-validated, so an update may leave a task untitled.
func (s *Store) Update(id task.ID, p task.Patch) error {
	return s.modify(id, p.Apply)
}

func (s *Store) Delete(id task.ID) error {
	return s.update(func(tasks []task.Task) ([]task.Task, bool) {
		i := indexOf(tasks, id)
		if i < 0 {
			return tasks, false
		}
		return append(tasks[:i], tasks[i+1:]...), true
	})
}

func (s *Store) ToggleCompletion(id task.ID) error {
	return s.modify(id, func(t task.Task) task.Task {
		t.Completed = !t.Completed
		return t
	})
}

func (s *Store) ToggleReminder(id task.ID) error {
	return s.modify(id, func(t task.Task) task.Task {
		t.ReminderEnabled = !t.ReminderEnabled
		return t
	})
}

func (s *Store) modify(id task.ID, fn func(task.Task) task.Task) error {
	return s.update(func(tasks []task.Task) ([]task.Task, bool) {
		i := indexOf(tasks, id)
		if i < 0 {
			return tasks, false
		}
		t := fn(tasks[i])
		t.ID = tasks[i].ID
		t.CreatedAt = tasks[i].CreatedAt
		tasks[i] = t
		return tasks, true
	})
}

// Clear drops every task and removes the persisted slot.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = nil
	s.version++
	if err := s.slots.Delete(storage.SlotTasks); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

// Tasks returns a copy of the collection in insertion order.
func (s *Store) Tasks() []task.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]task.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

func (s *Store) Get(id task.ID) (task.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := indexOf(s.tasks, id)
	if i < 0 {
		return task.Task{}, false
	}
	return s.tasks[i], true
}

// Version increases on every in-memory change and can key memoized views.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func indexOf(tasks []task.Task, id task.ID) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
