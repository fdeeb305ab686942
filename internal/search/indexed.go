package search

import (
	"context"
	"sync/atomic"

	"gorm.io/gorm"

	"github.com/tbourn/sermon-search/internal/domain"
	"github.com/tbourn/sermon-search/internal/highlight"
	"github.com/tbourn/sermon-search/internal/repo"
)

// IndexedName identifies the full-text backend in responses and metrics.
const IndexedName = "indexed"

// Indexed runs compiled queries against the SQLite FTS5 table kept in sync
// by the import transaction. It is unavailable until MarkReady(true).
type Indexed struct {
	db    *gorm.DB
	ready atomic.Bool
}

// NewIndexed wraps db. The backend starts not ready.
func NewIndexed(db *gorm.DB) *Indexed {
	return &Indexed{db: db}
}

// MarkReady flips availability, typically once the full-text table exists.
func (x *Indexed) MarkReady(ok bool) { x.ready.Store(ok) }

// Name implements Backend.
func (x *Indexed) Name() string { return IndexedName }

// Ready implements Backend.
func (x *Indexed) Ready() bool { return x != nil && x.db != nil && x.ready.Load() }

// Search returns one page ranked by date descending then insertion order.
// Engine snippets are re-rendered through the shared highlight pattern so
// they carry the same markers as fallback snippets.
func (x *Indexed) Search(ctx context.Context, q Compiled, limit, offset int) ([]domain.SearchResult, error) {
	if !x.Ready() {
		return nil, ErrBackendUnavailable
	}
	if q.Empty() || limit <= 0 {
		return nil, nil
	}
	if offset < 0 {
		offset = 0
	}

	hits, err := repo.MatchParagraphs(ctx, x.db, q.Expr(), limit, offset)
	if err != nil {
		return nil, &ExecutionError{Backend: IndexedName, Err: err}
	}

	pat := q.Pattern()
	out := make([]domain.SearchResult, len(hits))
	for i, h := range hits {
		out[i] = domain.SearchResult{
			ParagraphID:    h.ParagraphID,
			SermonID:       h.DocumentID,
			ParagraphIndex: h.ParagraphIndex,
			Title:          h.Title,
			Date:           h.Date,
			City:           h.City,
			Snippet:        highlight.RenderMarked(h.Snippet, repo.SnippetOpen, repo.SnippetClose, pat),
		}
	}
	return out, nil
}
