package manifest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/backmassage/dsconvert/internal/config"
)

// ErrUnknownBackend is returned by Open for an unrecognized backend name.
var ErrUnknownBackend = errors.New("unknown manifest backend")

// Store persists completion records keyed by relative path.
type Store interface {
	// Get returns the record for rel, or nil when none exists.
	Get(ctx context.Context, rel string) (*Record, error)
	// Put inserts or replaces the record for rec.RelPath.
	Put(ctx context.Context, rec Record) error
	// List returns every record ordered by relative path.
	List(ctx context.Context) ([]Record, error)
	Close() error
}

// Path returns where backend keeps its data inside stateDir.
func Path(backend config.ManifestBackend, stateDir string) (string, error) {
	switch backend {
	case config.BackendSQLite:
		return filepath.Join(stateDir, "manifest.db"), nil
	case config.BackendPebble:
		return filepath.Join(stateDir, "manifest.pebble"), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
}

// Open creates stateDir if needed and opens the store for backend.
func Open(backend config.ManifestBackend, stateDir string) (Store, error) {
	path, err := Path(backend, stateDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	if backend == config.BackendPebble {
		return openPebble(path)
	}
	return openSQLite(path)
}
