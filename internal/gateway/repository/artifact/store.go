// Package artifact archives the outputs of analyze and edit runs: the
// answer text the model produced and the pre-edit backup of every file an
// edit touched. Artifacts are keyed by (runID, path) where path is a
// store-internal name such as "answer.md" or "backup/src/app.ts".
package artifact

import (
	"context"
	"errors"
)

// Store defines operations for persisting run artifacts.
type Store interface {
	Put(ctx context.Context, runID, path string, content []byte) error
	Get(ctx context.Context, runID, path string) ([]byte, error)
	// GetURL returns a direct download URL when the backend has one
	// (presigned S3), or "" when content must go through Get.
	GetURL(ctx context.Context, runID, path string) (string, error)
	List(ctx context.Context, runID string) ([]string, error)
}

var ErrNotFound = errors.New("artifact not found")

// AnswerPath is where a run's rendered answer is archived.
const AnswerPath = "answer.md"

// BackupPath names the pre-edit backup slot for a project-relative file.
func BackupPath(rel string) string {
	return "backup/" + rel
}
