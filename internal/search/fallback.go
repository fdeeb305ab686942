package search

import (
	"context"
	"sort"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/tbourn/sermon-search/internal/domain"
	"github.com/tbourn/sermon-search/internal/highlight"
	"github.com/tbourn/sermon-search/internal/segment"
	"github.com/tbourn/sermon-search/internal/textnorm"
)

// FallbackName identifies the in-memory backend in responses and metrics.
const FallbackName = "fallback"

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	concurrency   int
	maxParagraphs int
	onSnippetMiss func(documentID string, paragraphIndex int)
}

func defaultConfig() config {
	return config{
		concurrency:   4,
		maxParagraphs: 0,
	}
}

// WithConcurrency bounds how many documents are segmented in parallel while
// a snapshot is built.
func WithConcurrency(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithMaxParagraphs caps the snapshot size; zero means unlimited.
func WithMaxParagraphs(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxParagraphs = n
		}
	}
}

// WithSnippetMiss registers a callback for paragraphs selected by the
// substring predicate whose snippet pattern found nothing (typically a
// synonym the highlighter does not cover).
func WithSnippetMiss(fn func(documentID string, paragraphIndex int)) Option {
	return func(c *config) {
		c.onSnippetMiss = fn
	}
}

// ----------------------------------------------------------------------------
// Implementation

type entry struct {
	documentID     string
	paragraphIndex int
	normalized     string
	raw            string
	title          string
	date           string
	city           string
	order          int
}

// snapshot is immutable once published.
type snapshot struct {
	entries []entry
}

// Fallback is the in-memory backend. It is safe for concurrent use; Rebuild
// swaps the whole snapshot atomically, so a search sees either the old or
// the new document set.
type Fallback struct {
	cfg  config
	snap atomic.Pointer[snapshot]
}

// NewFallback returns an empty, not-yet-ready backend.
func NewFallback(opts ...Option) *Fallback {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return &Fallback{cfg: cfg}
}

// Name implements Backend.
func (f *Fallback) Name() string { return FallbackName }

// Ready reports whether a snapshot has been published, even an empty one.
func (f *Fallback) Ready() bool { return f.snap.Load() != nil }

// Len returns the number of paragraphs in the current snapshot.
func (f *Fallback) Len() int {
	if s := f.snap.Load(); s != nil {
		return len(s.entries)
	}
	return 0
}

// Rebuild segments every document and publishes the result as the new
// snapshot. docs must be in import order; it becomes the tie-break order
// for paragraphs of equal date. Normalized content is computed once here.
func (f *Fallback) Rebuild(ctx context.Context, docs []domain.Document) error {
	perDoc := make([][]entry, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.cfg.concurrency)
	for i := range docs {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			d := docs[i]
			paras := segment.Segment(d.RawText)
			out := make([]entry, 0, len(paras))
			for _, p := range paras {
				out = append(out, entry{
					documentID:     d.ID,
					paragraphIndex: p.Index,
					normalized:     textnorm.Normalize(p.Content),
					raw:            p.Content,
					title:          d.Title,
					date:           d.Date,
					city:           d.City,
				})
			}
			perDoc[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	total := 0
	for _, es := range perDoc {
		total += len(es)
	}
	entries := make([]entry, 0, total)
	for _, es := range perDoc {
		for _, e := range es {
			if f.cfg.maxParagraphs > 0 && len(entries) >= f.cfg.maxParagraphs {
				break
			}
			e.order = len(entries)
			entries = append(entries, e)
		}
	}

	f.snap.Store(&snapshot{entries: entries})
	return nil
}

// Search evaluates q against every paragraph, sorts the matches by date
// descending then import order and returns the requested page.
func (f *Fallback) Search(ctx context.Context, q Compiled, limit, offset int) ([]domain.SearchResult, error) {
	s := f.snap.Load()
	if s == nil {
		return nil, ErrBackendUnavailable
	}
	if q.Empty() || limit <= 0 {
		return nil, nil
	}
	if offset < 0 {
		offset = 0
	}

	hits := make([]*entry, 0, 64)
	for i := range s.entries {
		if i&1023 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if q.Matches(s.entries[i].normalized) {
			hits = append(hits, &s.entries[i])
		}
	}
	if offset >= len(hits) {
		return nil, nil
	}

	sort.SliceStable(hits, func(a, b int) bool {
		if hits[a].date != hits[b].date {
			return hits[a].date > hits[b].date
		}
		return hits[a].order < hits[b].order
	})

	end := offset + limit
	if end > len(hits) {
		end = len(hits)
	}
	page := hits[offset:end]

	pat := q.Pattern()
	out := make([]domain.SearchResult, len(page))
	for i, e := range page {
		snip, matched := highlight.Snippet(e.raw, pat)
		if !matched && f.cfg.onSnippetMiss != nil {
			f.cfg.onSnippetMiss(e.documentID, e.paragraphIndex)
		}
		out[i] = domain.SearchResult{
			SermonID:       e.documentID,
			ParagraphIndex: e.paragraphIndex,
			Title:          e.title,
			Date:           e.date,
			City:           e.city,
			Snippet:        snip,
		}
	}
	return out, nil
}
