package router

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Session is one stored chat session record.
type Session struct {
	ID             string
	Provider       string
	ThreadID       string
	WorkDir        string
	Model          string
	PermissionMode string
	Title          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Store persists session records in a sqlite database.
type Store struct {
	db *sql.DB
}

// DefaultStorePath returns <user config dir>/craft-agents/sessions.db.
func DefaultStorePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "", err
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "craft-agents", "sessions.db"), nil
}

// OpenStore opens (creating if needed) the session database at path.
func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping session store: %w", err)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			provider TEXT NOT NULL,
			thread_id TEXT NOT NULL DEFAULT '',
			workdir TEXT NOT NULL DEFAULT '',
			model TEXT NOT NULL DEFAULT '',
			permission_mode TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at DESC);`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// CreateSession inserts a new record, assigning it a fresh uuid.
func (s *Store) CreateSession(provider, workDir, model string) (*Session, error) {
	now := time.Now()
	sess := &Session{
		ID:        uuid.NewString(),
		Provider:  provider,
		WorkDir:   workDir,
		Model:     model,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.Exec(
		`INSERT INTO sessions(id, provider, thread_id, workdir, model, permission_mode, title, created_at, updated_at)
		 VALUES(?, ?, '', ?, ?, '', '', ?, ?)`,
		sess.ID, sess.Provider, sess.WorkDir, sess.Model,
		now.Unix(), now.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return sess, nil
}

// GetSession loads one record by id.
func (s *Store) GetSession(id string) (*Session, error) {
	row := s.db.QueryRow(
		`SELECT id, provider, thread_id, workdir, model, permission_mode, title, created_at, updated_at
		 FROM sessions WHERE id = ?`, id)
	return scanSession(row)
}

// ListSessions returns up to limit records, most recently updated first.
func (s *Store) ListSessions(limit int) ([]*Session, error) {
	rows, err := s.db.Query(
		`SELECT id, provider, thread_id, workdir, model, permission_mode, title, created_at, updated_at
		 FROM sessions ORDER BY updated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// SetThreadID records the upstream-assigned thread id.
func (s *Store) SetThreadID(id, threadID string) error {
	return s.touchUpdate(`UPDATE sessions SET thread_id = ?, updated_at = ? WHERE id = ?`, threadID, id)
}

// SetTitle records a generated or user-supplied title.
func (s *Store) SetTitle(id, title string) error {
	return s.touchUpdate(`UPDATE sessions SET title = ?, updated_at = ? WHERE id = ?`, title, id)
}

// SetModel records a model change.
func (s *Store) SetModel(id, model string) error {
	return s.touchUpdate(`UPDATE sessions SET model = ?, updated_at = ? WHERE id = ?`, model, id)
}

// Touch bumps the record's updated timestamp.
func (s *Store) Touch(id string) error {
	_, err := s.db.Exec(`UPDATE sessions SET updated_at = ? WHERE id = ?`, time.Now().Unix(), id)
	return err
}

// DeleteSession removes a record.
func (s *Store) DeleteSession(id string) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	return err
}

func (s *Store) touchUpdate(query, value, id string) error {
	_, err := s.db.Exec(query, value, time.Now().Unix(), id)
	return err
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*Session, error) {
	var sess Session
	var created, updated int64
	err := row.Scan(&sess.ID, &sess.Provider, &sess.ThreadID, &sess.WorkDir,
		&sess.Model, &sess.PermissionMode, &sess.Title, &created, &updated)
	if err != nil {
		return nil, err
	}
	sess.CreatedAt = time.Unix(created, 0)
	sess.UpdatedAt = time.Unix(updated, 0)
	return &sess, nil
}
