package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type PostgresStore struct {
	db         *sql.DB
	schemaOnce sync.Once
	schemaErr  error
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) ensureSchema() error {
	if s == nil || s.db == nil {
		return fmt.Errorf("db is nil")
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.Exec(`
CREATE TABLE IF NOT EXISTS sessions (
  id TEXT PRIMARY KEY,
  project_root TEXT NOT NULL,
  created_at TIMESTAMP WITH TIME ZONE NOT NULL,
  updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
  open_files JSONB NOT NULL DEFAULT '{}'::jsonb,
  messages JSONB NOT NULL DEFAULT '[]'::jsonb
);
`)
	})
	return s.schemaErr
}

type sessionRow interface {
	Scan(dest ...any) error
}

func scanSession(row sessionRow) (Session, error) {
	var (
		sess      Session
		openFiles []byte
		messages  []byte
	)
	if err := row.Scan(&sess.ID, &sess.ProjectRoot, &sess.CreatedAt, &sess.UpdatedAt, &openFiles, &messages); err != nil {
		return Session{}, err
	}
	if len(openFiles) > 0 {
		_ = json.Unmarshal(openFiles, &sess.OpenFiles)
	}
	if len(messages) > 0 {
		_ = json.Unmarshal(messages, &sess.Messages)
	}
	return sess, nil
}

func encodeSession(sess Session) (openFiles, messages []byte, err error) {
	if sess.OpenFiles == nil {
		openFiles = []byte("{}")
	} else if openFiles, err = json.Marshal(sess.OpenFiles); err != nil {
		return nil, nil, err
	}
	if sess.Messages == nil {
		messages = []byte("[]")
	} else if messages, err = json.Marshal(sess.Messages); err != nil {
		return nil, nil, err
	}
	return openFiles, messages, nil
}

func (s *PostgresStore) Put(ctx context.Context, sess Session) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	id := strings.TrimSpace(sess.ID)
	if id == "" {
		return fmt.Errorf("session id is required")
	}
	if err := s.ensureSchema(); err != nil {
		return err
	}
	openFiles, messages, err := encodeSession(sess)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO sessions (id, project_root, created_at, updated_at, open_files, messages)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id)
DO UPDATE SET project_root=EXCLUDED.project_root,
  updated_at=EXCLUDED.updated_at,
  open_files=EXCLUDED.open_files,
  messages=EXCLUDED.messages
`, id, sess.ProjectRoot, sess.CreatedAt, sess.UpdatedAt, openFiles, messages)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Session, error) {
	if s == nil {
		return Session{}, fmt.Errorf("store is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Session{}, ErrNotFound
	}
	if err := s.ensureSchema(); err != nil {
		return Session{}, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT id, project_root, created_at, updated_at, open_files, messages
FROM sessions WHERE id = $1`, id)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return Session{}, ErrNotFound
	}
	return sess, err
}

func (s *PostgresStore) Update(ctx context.Context, id string, update func(*Session)) (Session, error) {
	if s == nil {
		return Session{}, fmt.Errorf("store is nil")
	}
	id = strings.TrimSpace(id)
	if err := s.ensureSchema(); err != nil {
		return Session{}, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `SELECT id, project_root, created_at, updated_at, open_files, messages
FROM sessions WHERE id = $1 FOR UPDATE`, id)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, err
	}
	update(&sess)
	sess.ID = id
	openFiles, messages, err := encodeSession(sess)
	if err != nil {
		return Session{}, err
	}
	_, err = tx.ExecContext(ctx, `
UPDATE sessions
SET project_root=$2, updated_at=$3, open_files=$4, messages=$5
WHERE id=$1`, id, sess.ProjectRoot, sess.UpdatedAt, openFiles, messages)
	if err != nil {
		return Session{}, err
	}
	if err := tx.Commit(); err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	if err := s.ensureSchema(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, strings.TrimSpace(id))
	return err
}

func (s *PostgresStore) List(ctx context.Context) ([]Session, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, project_root, created_at, updated_at, open_files, messages
FROM sessions ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			continue
		}
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
