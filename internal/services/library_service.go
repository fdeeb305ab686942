// Package services – LibraryService
//
// This file implements LibraryService, which owns the sermon library:
// importing (replacing) documents together with their paragraphs and
// full-text rows, listing and reading them, relocating citations by content
// and managing reader highlights addressed by global word index.
//
// After every successful import the in-memory search snapshot is rebuilt
// from the full stored set, so both search backends see the same corpus.
package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/sermon-search/internal/domain"
	"github.com/tbourn/sermon-search/internal/repo"
	"github.com/tbourn/sermon-search/internal/segment"
	"github.com/tbourn/sermon-search/internal/textnorm"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// SnapshotBuilder is the part of the fallback backend the library drives.
type SnapshotBuilder interface {
	Rebuild(ctx context.Context, docs []domain.Document) error
}

// ImportSummary reports what one import did.
type ImportSummary struct {
	Documents  int           `json:"documents"`
	Paragraphs int           `json:"paragraphs"`
	Created    int           `json:"created"`
	Changed    int           `json:"changed"`
	Unchanged  int           `json:"unchanged"`
	Took       time.Duration `json:"took_ns"`
}

// LocateResult is a relocated citation: the word range and its raw text.
type LocateResult struct {
	segment.Span
	Text string `json:"text"`
}

// LibraryService coordinates document persistence and reader operations.
type LibraryService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Fallback is rebuilt after each import; nil skips the rebuild.
	Fallback SnapshotBuilder
	// IndexFTS keeps the full-text table in sync on import.
	IndexFTS bool

	// mu serializes imports so snapshot rebuilds land in commit order.
	mu sync.Mutex
}

// NewLibraryService constructs a LibraryService.
func NewLibraryService(db *gorm.DB, fb SnapshotBuilder, indexFTS bool) *LibraryService {
	return &LibraryService{DB: db, Fallback: fb, IndexFTS: indexFTS}
}

// Import validates docs, replaces them (and their paragraphs) in one
// transaction and refreshes the fallback snapshot. Re-importing an id
// replaces its paragraphs wholesale; highlights are kept.
func (s *LibraryService) Import(ctx context.Context, docs []domain.ImportDocument) (ImportSummary, error) {
	tr := otel.Tracer("services/LibraryService")
	ctx, span := tr.Start(ctx, "Import",
		trace.WithAttributes(attribute.Int("import.documents", len(docs))),
	)
	defer span.End()

	start := time.Now()
	var sum ImportSummary
	if len(docs) == 0 {
		return sum, ErrEmptyImport
	}

	now := time.Now().UTC()
	batch := make([]repo.DocumentBundle, 0, len(docs))
	ids := make([]string, 0, len(docs))
	seen := make(map[string]struct{}, len(docs))
	for i, d := range docs {
		b, err := bundleFor(d, now)
		if err != nil {
			return sum, fmt.Errorf("%w: record %d: %v", ErrInvalidDocument, i+1, err)
		}
		if _, dup := seen[b.Document.ID]; dup {
			return sum, fmt.Errorf("%w: duplicate id %q", ErrInvalidDocument, b.Document.ID)
		}
		seen[b.Document.ID] = struct{}{}
		ids = append(ids, b.Document.ID)
		sum.Paragraphs += len(b.Paragraphs)
		batch = append(batch, b)
	}
	sum.Documents = len(batch)

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, err := repo.ContentHashes(ctx, s.DB, ids)
	if err != nil {
		return ImportSummary{}, err
	}
	for _, b := range batch {
		old, ok := prev[b.Document.ID]
		switch {
		case !ok:
			sum.Created++
		case old != b.Document.ContentHash:
			sum.Changed++
		default:
			sum.Unchanged++
		}
	}

	if err := repo.ReplaceDocuments(ctx, s.DB, batch, s.IndexFTS); err != nil {
		return ImportSummary{}, err
	}
	importedDocs.Add(float64(sum.Documents))

	// The batch is committed; a stale snapshot only degrades fallback
	// search until the next import or restart.
	if err := s.refresh(ctx); err != nil {
		log.Warn().Err(err).Int("documents", sum.Documents).Msg("fallback snapshot refresh failed after import")
	}
	sum.Took = time.Since(start)
	return sum, nil
}

// allDocuments is swapped in tests to fail the snapshot load.
var allDocuments = repo.AllDocuments

// Refresh rebuilds the fallback snapshot from the stored documents. It is
// used at startup, before any import has run.
func (s *LibraryService) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh(ctx)
}

func (s *LibraryService) refresh(ctx context.Context) error {
	if s.Fallback == nil {
		return nil
	}
	all, err := allDocuments(ctx, s.DB)
	if err != nil {
		return err
	}
	return s.Fallback.Rebuild(ctx, all)
}

// List returns documents newest first. A non-empty titleQuery keeps only
// titles containing it, compared accent- and case-insensitively.
func (s *LibraryService) List(ctx context.Context, titleQuery string) ([]domain.Document, error) {
	tr := otel.Tracer("services/LibraryService")
	ctx, span := tr.Start(ctx, "List")
	defer span.End()

	all, err := repo.ListDocuments(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	q := textnorm.Normalize(titleQuery)
	if q == "" {
		return all, nil
	}
	out := all[:0]
	for _, d := range all {
		if strings.Contains(textnorm.Normalize(d.Title), q) {
			out = append(out, d)
		}
	}
	return out, nil
}

// Get returns one document with its raw text.
func (s *LibraryService) Get(ctx context.Context, id string) (*domain.Document, error) {
	d, err := repo.GetDocument(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrDocumentNotFound
	}
	return d, err
}

// Paragraphs returns the stored paragraphs of a document in order.
func (s *LibraryService) Paragraphs(ctx context.Context, id string) ([]domain.Paragraph, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return repo.ListParagraphs(ctx, s.DB, id)
}

// Words returns the global token stream of a document, the addressing
// scheme used by highlights and citations.
func (s *LibraryService) Words(ctx context.Context, id string) ([]segment.Token, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return segment.Tokenize(d.RawText), nil
}

// Locate relocates quoted text inside a document by content matching.
// ErrCitationNotFound is the normal negative answer.
func (s *LibraryService) Locate(ctx context.Context, id, quoted string) (LocateResult, error) {
	tr := otel.Tracer("services/LibraryService")
	ctx, span := tr.Start(ctx, "Locate",
		trace.WithAttributes(attribute.String("document.id", id)),
	)
	defer span.End()

	if len(textnorm.Words(textnorm.Normalize(quoted))) == 0 {
		return LocateResult{}, ErrEmptyCitation
	}
	toks, err := s.Words(ctx, id)
	if err != nil {
		return LocateResult{}, err
	}
	sp, ok := segment.Locate(toks, quoted)
	if !ok {
		return LocateResult{}, ErrCitationNotFound
	}
	return LocateResult{Span: sp, Text: segment.Text(toks, sp.Start, sp.End)}, nil
}

// AddHighlight stores a highlight over [start, end]. Inverted bounds are
// swapped; negative bounds or an end past the last global index fail with
// ErrInvalidRange.
func (s *LibraryService) AddHighlight(ctx context.Context, documentID string, start, end int) (*domain.Highlight, error) {
	h, err := domain.NewHighlight(documentID, start, end)
	if err != nil {
		return nil, ErrInvalidRange
	}
	toks, err := s.Words(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if h.End > segment.LastIndex(toks) {
		return nil, ErrInvalidRange
	}
	return repo.CreateHighlight(ctx, s.DB, h)
}

// ListHighlights returns the highlights of a document, overlaps included.
func (s *LibraryService) ListHighlights(ctx context.Context, documentID string) ([]domain.Highlight, error) {
	if _, err := s.Get(ctx, documentID); err != nil {
		return nil, err
	}
	return repo.ListHighlights(ctx, s.DB, documentID)
}

// DeleteHighlight removes one highlight by id.
func (s *LibraryService) DeleteHighlight(ctx context.Context, id string) error {
	err := repo.DeleteHighlight(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrHighlightNotFound
	}
	return err
}

// bundleFor validates one import record and segments its text.
func bundleFor(d domain.ImportDocument, now time.Time) (repo.DocumentBundle, error) {
	id := strings.TrimSpace(d.ID)
	switch {
	case id == "":
		return repo.DocumentBundle{}, errors.New("missing id")
	case strings.TrimSpace(d.Title) == "":
		return repo.DocumentBundle{}, fmt.Errorf("document %q: missing title", id)
	case strings.TrimSpace(d.Date) == "":
		return repo.DocumentBundle{}, fmt.Errorf("document %q: missing date", id)
	}

	doc := domain.Document{
		ID:          id,
		Title:       strings.TrimSpace(d.Title),
		Date:        strings.TrimSpace(d.Date),
		City:        strings.TrimSpace(d.City),
		Version:     strings.TrimSpace(d.Version),
		Time:        strings.TrimSpace(d.Time),
		AudioURL:    strings.TrimSpace(d.AudioURL),
		RawText:     d.Text,
		ContentHash: ContentHash(d.Text),
		ImportedAt:  now,
	}
	paras := segment.Segment(d.Text)
	out := repo.DocumentBundle{Document: doc, Paragraphs: make([]domain.Paragraph, len(paras))}
	for i, p := range paras {
		out.Paragraphs[i] = domain.Paragraph{ParagraphIndex: p.Index, Content: p.Content}
	}
	return out, nil
}

// ContentHash is the 16 hex digit xxhash64 of a document body.
func ContentHash(text string) string {
	h := strconv.FormatUint(xxhash.Sum64String(text), 16)
	if len(h) < 16 {
		h = strings.Repeat("0", 16-len(h)) + h
	}
	return h
}
