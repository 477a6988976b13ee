// Package session is the local identity collaborator. It keeps the current
// user in the slot store and simulates login and signup without any
// credential check or network call.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mytasks/internal/notify"
	"mytasks/internal/storage"
)

var ErrEmailRequired = errors.New("email is required")

type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	JoinedDate time.Time `json:"joinedDate"`
	Plan       string    `json:"plan"`
}

// Provider is all the rest of the module needs to know about identity.
type Provider interface {
	CurrentUser() (User, bool)
	IsAuthenticated() bool
}

type Slots interface {
	Get(name string) ([]byte, bool, error)
	Put(name string, value []byte) error
	Delete(names ...string) error
}

// TaskWiper clears the task collection on logout.
type TaskWiper interface {
	Clear() error
}

type Manager struct {
	mu    sync.RWMutex
	slots Slots
	tasks TaskWiper
	sink  notify.Sink
	log   zerolog.Logger
	now   func() time.Time
	user  *User
}

type Options struct {
	Tasks  TaskWiper
	Sink   notify.Sink
	Logger *zerolog.Logger
	Clock  func() time.Time
}

// Open restores the session from slots. A stored user only counts when the
// authenticated flag is also set; anything unreadable is ignored.
func Open(slots Slots, opts Options) *Manager {
	m := &Manager{
		slots: slots,
		tasks: opts.Tasks,
		sink:  opts.Sink,
		log:   zerolog.Nop(),
		now:   opts.Clock,
	}
	if opts.Logger != nil {
		m.log = *opts.Logger
	}
	if m.sink == nil {
		m.sink = notify.Discard
	}
	if m.now == nil {
		m.now = time.Now
	}

	flag, ok, err := slots.Get(storage.SlotIsAuthenticated)
	if err != nil || !ok || string(flag) != "true" {
		return m
	}
	data, ok, err := slots.Get(storage.SlotUser)
	if err != nil || !ok {
		return m
	}
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		m.log.Warn().Err(err).Str("slot", storage.SlotUser).Msg("ignoring unreadable session")
		return m
	}
	m.user = &u
	return m
}

func (m *Manager) CurrentUser() (User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return User{}, false
	}
	return *m.user, true
}

func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user != nil
}

// Login signs in with only an email; the display name is its local part.
func (m *Manager) Login(email string) (User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return User{}, ErrEmailRequired
	}
	name, _, _ := strings.Cut(email, "@")
	u := m.newUser(name, email)
	if err := m.save(u); err != nil {
		m.sink.Notify(notify.Error, "Login failed. Please try again.")
		return User{}, err
	}
	m.sink.Notify(notify.Success, fmt.Sprintf("Welcome back, %s!", u.Name))
	return u, nil
}

func (m *Manager) Signup(name, email string) (User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return User{}, ErrEmailRequired
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	u := m.newUser(name, email)
	if err := m.save(u); err != nil {
		m.sink.Notify(notify.Error, "Signup failed. Please try again.")
		return User{}, err
	}
	m.sink.Notify(notify.Success, fmt.Sprintf("Welcome to MyTasks, %s!", u.Name))
	return u, nil
}

type Profile struct {
	Name  *string
	Email *string
}

func (m *Manager) UpdateProfile(p Profile) (User, error) {
	u, ok := m.CurrentUser()
	if !ok {
		return User{}, errors.New("not logged in")
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if err := m.save(u); err != nil {
		return User{}, err
	}
	m.sink.Notify(notify.Success, "Profile updated successfully")
	return u, nil
}

// Logout clears the session slots and the task collection. Tasks are not
// namespaced per user, so they go too.
func (m *Manager) Logout() error {
	m.mu.Lock()
	m.user = nil
	m.mu.Unlock()

	var errs []error
	if err := m.slots.Delete(storage.SlotUser, storage.SlotIsAuthenticated); err != nil {
		errs = append(errs, fmt.Errorf("clear session: %w", err))
	}
	if m.tasks != nil {
		if err := m.tasks.Clear(); err != nil {
			errs = append(errs, fmt.Errorf("clear tasks: %w", err))
		}
	}
	m.sink.Notify(notify.Info, "Logged out successfully")
	return errors.Join(errs...)
}

func (m *Manager) newUser(name, email string) User {
	return User{
		ID:         uuid.NewString(),
		Email:      email,
		Name:       name,
		JoinedDate: m.now().UTC(),
		Plan:       "free",
	}
}

func (m *Manager) save(u User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	if err := m.slots.Put(storage.SlotUser, data); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	if err := m.slots.Put(storage.SlotIsAuthenticated, []byte("true")); err != nil {
		return fmt.Errorf("save auth flag: %w", err)
	}
	m.mu.Lock()
	m.user = &u
	m.mu.Unlock()
	m.log.Debug().Str("user_id", u.ID).Msg("session saved")
	return nil
}
