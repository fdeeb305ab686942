// Package services – SearchService
//
// This file implements SearchService, the orchestrator in front of the two
// search backends. A call compiles the query (optionally expanded with
// synonyms), runs it on the indexed backend when that backend is ready and
// degrades to the in-memory fallback otherwise. Search never returns an
// error: every failure collapses into an empty page plus a log line.
//
// Observability: each call is OpenTelemetry-instrumented and counted in
// Prometheus by the backend that served it.
package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/sermon-search/internal/domain"
	"github.com/tbourn/sermon-search/internal/search"
	"github.com/tbourn/sermon-search/internal/synonym"
	"github.com/tbourn/sermon-search/internal/utils"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	// minQueryRunes is the shortest trimmed query that reaches a backend.
	minQueryRunes = 2
	// recheckMinRunes: an empty first indexed page for a longer query is
	// double-checked against the fallback.
	recheckMinRunes = 2

	defaultSearchLimit = 20
	maxSearchLimit     = 50

	// backendNone labels calls that no backend served.
	backendNone = "none"
)

// SearchResponse is one page of results plus what the UI needs to render it.
type SearchResponse struct {
	Query   string                `json:"query"`
	Mode    domain.SearchMode     `json:"mode"`
	Limit   int                   `json:"limit"`
	Offset  int                   `json:"offset"`
	Results []domain.SearchResult `json:"results"`

	// Synonyms lists the expansion terms used, for the UI badge.
	Synonyms []string `json:"synonyms,omitempty"`
	// Backend names the path that produced this page ("indexed",
	// "fallback" or "none"). Later pages should stay on it.
	Backend string `json:"backend"`
}

// SearchService routes queries to the indexed or fallback backend.
// It holds no per-query state and is safe for concurrent use.
type SearchService struct {
	// Indexed is the preferred backend; nil disables it.
	Indexed search.Backend
	// Fallback serves whenever Indexed cannot.
	Fallback search.Backend
	// Expander adds synonyms to single-word queries; nil disables expansion.
	Expander *synonym.Expander

	DefaultLimit int
	MaxLimit     int
}

// NewSearchService wires both backends with the default paging bounds.
func NewSearchService(indexed, fallback search.Backend, exp *synonym.Expander) *SearchService {
	return &SearchService{
		Indexed:      indexed,
		Fallback:     fallback,
		Expander:     exp,
		DefaultLimit: defaultSearchLimit,
		MaxLimit:     maxSearchLimit,
	}
}

// Search runs one query. It never fails; see the package comment.
func (s *SearchService) Search(ctx context.Context, p domain.SearchParams) SearchResponse {
	start := time.Now()
	query := strings.TrimSpace(p.Query)
	mode, ok := domain.ParseSearchMode(string(p.Mode))
	if !ok {
		mode = domain.DefaultSearchMode
	}
	limit, offset := s.clamp(p.Limit, p.Offset)

	tr := otel.Tracer("services/SearchService")
	ctx, span := tr.Start(ctx, "Search",
		trace.WithAttributes(
			attribute.String("search.mode", string(mode)),
			attribute.Int("search.limit", limit),
			attribute.Int("search.offset", offset),
			attribute.Bool("search.synonyms", p.ExpandSynonyms),
		),
	)
	defer span.End()

	resp := SearchResponse{
		Query:   query,
		Mode:    mode,
		Limit:   limit,
		Offset:  offset,
		Results: []domain.SearchResult{},
		Backend: backendNone,
	}
	defer func() {
		span.SetAttributes(
			attribute.String("search.backend", resp.Backend),
			attribute.Int("search.results", len(resp.Results)),
		)
		observeSearch(resp.Backend, time.Since(start))
	}()

	if utf8.RuneCountInString(query) < minQueryRunes {
		return resp
	}

	compiled, err := search.Compile(query, mode)
	if err != nil {
		// Only ErrEmptyQuery is possible: nothing searchable survived cleaning.
		log.Debug().Str("query", query).Err(err).Msg("query compiled to nothing")
		return resp
	}

	if p.ExpandSynonyms && s.Expander.Applicable(query) {
		syns, err := s.Expander.Expand(ctx, query)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("query", query).Msg("synonym expansion failed; searching original term only")
		case len(syns) > 0:
			compiled = compiled.WithSynonyms(syns, p.Filter)
			resp.Synonyms = syns
		}
	}

	results, backend := s.run(ctx, compiled, query, limit, offset)
	if results != nil {
		resp.Results = results
	}
	resp.Backend = backend
	return resp
}

// run picks the backend for one page and applies the degradation rules.
func (s *SearchService) run(ctx context.Context, q search.Compiled, query string, limit, offset int) ([]domain.SearchResult, string) {
	if s.Indexed != nil && s.Indexed.Ready() {
		res, err := s.Indexed.Search(ctx, q, limit, offset)
		switch {
		case err == nil:
			if len(res) == 0 && offset == 0 && utf8.RuneCountInString(query) > recheckMinRunes {
				if fb, ok := s.recheck(ctx, q, query, limit); ok {
					return fb, search.FallbackName
				}
			}
			return res, search.IndexedName
		case errors.Is(err, search.ErrBackendUnavailable):
			log.Info().Str("query", query).Msg("indexed search unavailable; using fallback")
			countFallback("unavailable")
		default:
			var ee *search.ExecutionError
			ev := log.Warn().Err(err).Str("query", query).Str("mode", string(q.Mode))
			if errors.As(err, &ee) {
				ev = ev.Str("backend", ee.Backend)
			}
			ev.Msg("indexed search failed; using fallback for this call")
			countFallback("error")
		}
	} else if s.Indexed != nil {
		log.Info().Str("query", query).Msg("indexed search not ready; using fallback")
		countFallback("unavailable")
	}

	if s.Fallback == nil || !s.Fallback.Ready() {
		log.Info().Str("query", query).Msg("no search backend ready")
		return nil, backendNone
	}
	res, err := s.Fallback.Search(ctx, q, limit, offset)
	if err != nil {
		log.Warn().Err(err).Str("query", query).Msg("fallback search failed")
		return nil, backendNone
	}
	return res, search.FallbackName
}

// recheck covers tokenizer differences between the engines: an indexed miss
// on the first page is confirmed against the fallback, whose answer wins
// when it is non-empty.
func (s *SearchService) recheck(ctx context.Context, q search.Compiled, query string, limit int) ([]domain.SearchResult, bool) {
	if s.Fallback == nil || !s.Fallback.Ready() {
		return nil, false
	}
	res, err := s.Fallback.Search(ctx, q, limit, 0)
	if err != nil || len(res) == 0 {
		return nil, false
	}
	log.Debug().Str("query", query).Int("results", len(res)).Msg("indexed search empty; fallback found matches")
	countFallback("recheck")
	return res, true
}

// clamp bounds limit to [1, MaxLimit] (zero or negative means default) and
// offset to >= 0.
func (s *SearchService) clamp(limit, offset int) (int, int) {
	def, hi := s.DefaultLimit, s.MaxLimit
	if hi <= 0 {
		hi = maxSearchLimit
	}
	if def <= 0 {
		def = defaultSearchLimit
	}
	return utils.ClampPage(limit, offset, def, hi)
}
