package session

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"
)

// Store defines operations for persisting sessions.
type Store interface {
	Put(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
	Update(ctx context.Context, id string, update func(*Session)) (Session, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Session, error)
}

var ErrNotFound = errors.New("session not found")

// NewStoreFromEnv picks a backend: postgres when SESSION_STORE_PG_DSN is
// set and reachable, else a JSON file when SESSION_STORE_PATH is set, else
// memory. Backend failures fall back rather than abort so the service
// still comes up on a laptop with nothing configured.
func NewStoreFromEnv() Store {
	if dsn := strings.TrimSpace(os.Getenv("SESSION_STORE_PG_DSN")); dsn != "" {
		s, err := NewPostgresStore(dsn)
		if err == nil {
			return s
		}
		log.Printf("[session] postgres store unavailable, falling back: %v", err)
	}
	if path := strings.TrimSpace(os.Getenv("SESSION_STORE_PATH")); path != "" {
		return NewFileStore(path)
	}
	return NewMemoryStore()
}
