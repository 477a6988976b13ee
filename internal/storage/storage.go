package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Slot names shared by the task store and the session.
const (
	SlotTasks           = "tasks"
	SlotUser            = "user"
	SlotIsAuthenticated = "isAuthenticated"
)

// Store keeps named slots in a SQLite database. Each slot holds one
// serialized value that is replaced wholesale on every write.
type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, err
	}
	dsn := sqliteDSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS slots (
	name TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`
	if _, err := s.db.Exec(ddl); err != nil {
		return err
	}
	return s.ensureSlotColumns()
}

// slotMigrations adds columns that older databases lack, in order.
var slotMigrations = []struct {
	column string
	ddl    string
}{
	{"updated_at", `ALTER TABLE slots ADD COLUMN updated_at TEXT DEFAULT NULL;`},
}

func (s *Store) ensureSlotColumns() error {
	have, err := s.slotColumns()
	if err != nil {
		return fmt.Errorf("read slot columns: %w", err)
	}
	for _, m := range slotMigrations {
		if have[m.column] {
			continue
		}
		if _, err := s.db.Exec(m.ddl); err != nil {
			return fmt.Errorf("add column %s: %w", m.column, err)
		}
	}
	return nil
}

func (s *Store) slotColumns() (map[string]bool, error) {
	rows, err := s.db.Query(`SELECT name FROM pragma_table_info('slots');`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	cols := map[string]bool{}
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, err
		}
		cols[col] = true
	}
	return cols, rows.Err()
}

// Get returns the slot value and whether the slot exists.
func (s *Store) Get(name string) ([]byte, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM slots WHERE name = ?;`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(value), true, nil
}

func (s *Store) Put(name string, value []byte) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(`INSERT INTO slots (name, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at;`,
		name, string(value), now)
	return err
}

// Delete removes the named slots. Missing slots are ignored.
func (s *Store) Delete(names ...string) error {
	for _, name := range names {
		if _, err := s.db.Exec(`DELETE FROM slots WHERE name = ?;`, name); err != nil {
			return err
		}
	}
	return nil
}

// UpdatedAt reports when a slot was last written.
func (s *Store) UpdatedAt(name string) (time.Time, bool, error) {
	var raw sql.NullString
	err := s.db.QueryRow(`SELECT updated_at FROM slots WHERE name = ?;`, name).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	if !raw.Valid {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(time.RFC3339, raw.String)
	if err != nil {
		return time.Time{}, false, nil
	}
	return t, true, nil
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}
