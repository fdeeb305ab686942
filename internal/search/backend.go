// Package search executes compiled queries over the paragraph corpus.
//
// Two backends implement the same capability: Indexed runs against the
// SQLite FTS5 table maintained at import time, Fallback scans an in-memory
// snapshot of normalized paragraphs. Neither logs; the orchestrator in the
// services package decides what to record and which backend serves a call.
//
// Ranking is the same on both paths: document date descending, then
// paragraph insertion order, then limit/offset pagination.
package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/tbourn/sermon-search/internal/domain"
)

// Backend is the minimal interface implemented by every search path.
type Backend interface {
	Name() string
	Ready() bool
	Search(ctx context.Context, q Compiled, limit, offset int) ([]domain.SearchResult, error)
}

// ErrBackendUnavailable is returned by a backend that has not been
// initialized yet.
var ErrBackendUnavailable = errors.New("search: backend unavailable")

// ExecutionError wraps a failure raised by the engine while running a query.
type ExecutionError struct {
	Backend string
	Err     error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("search: %s backend: %v", e.Backend, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
