package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/sermon-search/internal/domain"
	"github.com/tbourn/sermon-search/internal/repo"
	"github.com/tbourn/sermon-search/internal/search"
	"github.com/tbourn/sermon-search/internal/synonym"
)

// stubBackend records what it was asked and answers with canned values.
type stubBackend struct {
	name  string
	ready bool
	res   []domain.SearchResult
	err   error

	calls   int
	lastQ   search.Compiled
	lastLim int
	lastOff int
}

func (b *stubBackend) Name() string { return b.name }
func (b *stubBackend) Ready() bool  { return b.ready }
func (b *stubBackend) Search(_ context.Context, q search.Compiled, limit, offset int) ([]domain.SearchResult, error) {
	b.calls++
	b.lastQ, b.lastLim, b.lastOff = q, limit, offset
	return b.res, b.err
}

func hit(id string) []domain.SearchResult {
	return []domain.SearchResult{{SermonID: id, ParagraphIndex: 1}}
}

func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	if err := repo.EnsureFTS(db); err != nil {
		t.Fatalf("EnsureFTS: %v", err)
	}
	return db
}

func TestSearch_ShortQueryTouchesNoBackend(t *testing.T) {
	ix := &stubBackend{name: search.IndexedName, ready: true, res: hit("a")}
	fb := &stubBackend{name: search.FallbackName, ready: true, res: hit("b")}
	s := NewSearchService(ix, fb, nil)

	for _, q := range []string{"", "a", "  é  "} {
		resp := s.Search(context.Background(), domain.SearchParams{Query: q})
		if len(resp.Results) != 0 || resp.Results == nil || resp.Backend != backendNone {
			t.Fatalf("query %q: %+v", q, resp)
		}
	}
	if ix.calls != 0 || fb.calls != 0 {
		t.Fatalf("backends called: ix=%d fb=%d", ix.calls, fb.calls)
	}
}

func TestSearch_QueryCompilingToNothing(t *testing.T) {
	ix := &stubBackend{name: search.IndexedName, ready: true, res: hit("a")}
	s := NewSearchService(ix, nil, nil)

	resp := s.Search(context.Background(), domain.SearchParams{Query: `"*()"`})
	if resp.Backend != backendNone || len(resp.Results) != 0 || ix.calls != 0 {
		t.Fatalf("unexpected: %+v calls=%d", resp, ix.calls)
	}
}

func TestSearch_ClampsPaging(t *testing.T) {
	ix := &stubBackend{name: search.IndexedName, ready: true, res: hit("a")}
	s := NewSearchService(ix, nil, nil)
	ctx := context.Background()

	cases := []struct {
		limit, offset       int
		wantLimit, wantOffs int
	}{
		{0, 0, 20, 0},
		{-5, -3, 20, 0},
		{7, 40, 7, 40},
		{500, 0, 50, 0},
	}
	for _, c := range cases {
		resp := s.Search(ctx, domain.SearchParams{Query: "lamb", Limit: c.limit, Offset: c.offset})
		if resp.Limit != c.wantLimit || resp.Offset != c.wantOffs {
			t.Fatalf("clamp(%d,%d) = %d,%d", c.limit, c.offset, resp.Limit, resp.Offset)
		}
		if ix.lastLim != c.wantLimit || ix.lastOff != c.wantOffs {
			t.Fatalf("backend got %d,%d", ix.lastLim, ix.lastOff)
		}
	}

	custom := &SearchService{Indexed: ix, DefaultLimit: 5, MaxLimit: 10}
	if resp := custom.Search(ctx, domain.SearchParams{Query: "lamb"}); resp.Limit != 5 {
		t.Fatalf("custom default = %d", resp.Limit)
	}
	if resp := custom.Search(ctx, domain.SearchParams{Query: "lamb", Limit: 11}); resp.Limit != 10 {
		t.Fatalf("custom max = %d", resp.Limit)
	}
}

func TestSearch_ModeParsing(t *testing.T) {
	ix := &stubBackend{name: search.IndexedName, ready: true, res: hit("a")}
	s := NewSearchService(ix, nil, nil)
	ctx := context.Background()

	if resp := s.Search(ctx, domain.SearchParams{Query: "lamb of god", Mode: "phrase"}); resp.Mode != domain.ModeExactPhrase {
		t.Fatalf("alias mode = %s", resp.Mode)
	}
	if ix.lastQ.Expr() != `"lamb of god"` {
		t.Fatalf("phrase expr = %s", ix.lastQ.Expr())
	}
	if resp := s.Search(ctx, domain.SearchParams{Query: "lamb", Mode: "bogus"}); resp.Mode != domain.DefaultSearchMode {
		t.Fatalf("unknown mode = %s", resp.Mode)
	}
}

func TestSearch_IndexedServes(t *testing.T) {
	ix := &stubBackend{name: search.IndexedName, ready: true, res: hit("a")}
	fb := &stubBackend{name: search.FallbackName, ready: true, res: hit("b")}
	s := NewSearchService(ix, fb, nil)

	base := testutil.ToFloat64(searchReqs.WithLabelValues(search.IndexedName))
	resp := s.Search(context.Background(), domain.SearchParams{Query: "lamb"})
	if resp.Backend != search.IndexedName || !reflect.DeepEqual(resp.Results, hit("a")) || fb.calls != 0 {
		t.Fatalf("unexpected: %+v fb.calls=%d", resp, fb.calls)
	}
	if got := testutil.ToFloat64(searchReqs.WithLabelValues(search.IndexedName)); got != base+1 {
		t.Fatalf("requests counter = %v, want %v", got, base+1)
	}
}

func TestSearch_UnavailableDegradesToFallback(t *testing.T) {
	fb := &stubBackend{name: search.FallbackName, ready: true, res: hit("b")}
	base := testutil.ToFloat64(searchFallbacks.WithLabelValues("unavailable"))

	// Not ready at all.
	ix := &stubBackend{name: search.IndexedName, ready: false}
	resp := NewSearchService(ix, fb, nil).Search(context.Background(), domain.SearchParams{Query: "lamb"})
	if resp.Backend != search.FallbackName || ix.calls != 0 {
		t.Fatalf("not ready: %+v", resp)
	}

	// Ready, then unavailable during the call.
	ix = &stubBackend{name: search.IndexedName, ready: true, err: search.ErrBackendUnavailable}
	resp = NewSearchService(ix, fb, nil).Search(context.Background(), domain.SearchParams{Query: "lamb"})
	if resp.Backend != search.FallbackName || !reflect.DeepEqual(resp.Results, hit("b")) {
		t.Fatalf("unavailable: %+v", resp)
	}

	if got := testutil.ToFloat64(searchFallbacks.WithLabelValues("unavailable")); got != base+2 {
		t.Fatalf("fallback counter = %v, want %v", got, base+2)
	}
}

func TestSearch_ExecutionErrorDegradesForThisCall(t *testing.T) {
	ix := &stubBackend{name: search.IndexedName, ready: true,
		err: &search.ExecutionError{Backend: search.IndexedName, Err: errors.New("fts5: syntax error")}}
	fb := &stubBackend{name: search.FallbackName, ready: true, res: hit("b")}
	s := NewSearchService(ix, fb, nil)
	base := testutil.ToFloat64(searchFallbacks.WithLabelValues("error"))

	resp := s.Search(context.Background(), domain.SearchParams{Query: "lamb", Offset: 20})
	if resp.Backend != search.FallbackName || fb.lastOff != 20 {
		t.Fatalf("unexpected: %+v off=%d", resp, fb.lastOff)
	}
	if got := testutil.ToFloat64(searchFallbacks.WithLabelValues("error")); got != base+1 {
		t.Fatalf("error counter = %v", got)
	}

	// The next call tries the index again.
	ix.err, ix.res = nil, hit("a")
	if resp := s.Search(context.Background(), domain.SearchParams{Query: "lamb"}); resp.Backend != search.IndexedName {
		t.Fatalf("index not retried: %+v", resp)
	}
}

func TestSearch_DefensiveRecheck(t *testing.T) {
	ctx := context.Background()

	ix := &stubBackend{name: search.IndexedName, ready: true}
	fb := &stubBackend{name: search.FallbackName, ready: true, res: hit("b")}
	s := NewSearchService(ix, fb, nil)
	base := testutil.ToFloat64(searchFallbacks.WithLabelValues("recheck"))

	resp := s.Search(ctx, domain.SearchParams{Query: "gods"})
	if resp.Backend != search.FallbackName || !reflect.DeepEqual(resp.Results, hit("b")) {
		t.Fatalf("recheck should prefer fallback: %+v", resp)
	}
	if got := testutil.ToFloat64(searchFallbacks.WithLabelValues("recheck")); got != base+1 {
		t.Fatalf("recheck counter = %v", got)
	}

	// Not on later pages.
	fb.calls = 0
	resp = s.Search(ctx, domain.SearchParams{Query: "gods", Offset: 20})
	if resp.Backend != search.IndexedName || fb.calls != 0 {
		t.Fatalf("recheck on later page: %+v fb.calls=%d", resp, fb.calls)
	}

	// Not for two-rune queries.
	resp = s.Search(ctx, domain.SearchParams{Query: "ab"})
	if resp.Backend != search.IndexedName || fb.calls != 0 {
		t.Fatalf("recheck on short query: %+v", resp)
	}

	// Both empty: the index answer stands.
	fb.res = nil
	resp = s.Search(ctx, domain.SearchParams{Query: "gods"})
	if resp.Backend != search.IndexedName || resp.Results == nil || len(resp.Results) != 0 {
		t.Fatalf("both empty: %+v", resp)
	}
}

func TestSearch_NoBackend(t *testing.T) {
	resp := NewSearchService(nil, nil, nil).Search(context.Background(), domain.SearchParams{Query: "lamb"})
	if resp.Backend != backendNone || resp.Results == nil || len(resp.Results) != 0 {
		t.Fatalf("unexpected: %+v", resp)
	}

	fb := &stubBackend{name: search.FallbackName, ready: true, err: context.Canceled}
	resp = NewSearchService(nil, fb, nil).Search(context.Background(), domain.SearchParams{Query: "lamb"})
	if resp.Backend != backendNone || len(resp.Results) != 0 {
		t.Fatalf("failing fallback: %+v", resp)
	}
}

func TestSearch_SynonymExpansion(t *testing.T) {
	ix := &stubBackend{name: search.IndexedName, ready: true, res: hit("a")}
	exp := synonym.NewExpander(synonym.LookupFunc(func(context.Context, string) ([]string, error) {
		return []string{"sheep", "ewe"}, nil
	}), true)
	s := NewSearchService(ix, nil, exp)
	ctx := context.Background()

	resp := s.Search(ctx, domain.SearchParams{Query: "lamb", ExpandSynonyms: true})
	if !reflect.DeepEqual(resp.Synonyms, []string{"sheep", "ewe"}) {
		t.Fatalf("synonyms = %v", resp.Synonyms)
	}
	if ix.lastQ.Expr() != `"lamb"* OR "sheep"* OR "ewe"*` {
		t.Fatalf("expr = %s", ix.lastQ.Expr())
	}

	s.Search(ctx, domain.SearchParams{Query: "lamb", ExpandSynonyms: true, Filter: domain.FilterSynonymsOnly})
	if ix.lastQ.Expr() != `"sheep"* OR "ewe"*` {
		t.Fatalf("synonyms-only expr = %s", ix.lastQ.Expr())
	}

	// Not requested, or multi-word: original terms only.
	if resp := s.Search(ctx, domain.SearchParams{Query: "lamb"}); resp.Synonyms != nil || ix.lastQ.Synonyms != nil {
		t.Fatalf("expansion without request: %+v", resp)
	}
	if resp := s.Search(ctx, domain.SearchParams{Query: "lamb god", ExpandSynonyms: true}); resp.Synonyms != nil {
		t.Fatalf("multi-word expanded: %v", resp.Synonyms)
	}
}

func TestSearch_SynonymFailureSearchesOriginal(t *testing.T) {
	ix := &stubBackend{name: search.IndexedName, ready: true, res: hit("a")}
	exp := synonym.NewExpander(synonym.LookupFunc(func(context.Context, string) ([]string, error) {
		return nil, errors.New("service down")
	}), true)
	s := NewSearchService(ix, nil, exp)

	resp := s.Search(context.Background(), domain.SearchParams{Query: "lamb", ExpandSynonyms: true})
	if resp.Backend != search.IndexedName || resp.Synonyms != nil || ix.lastQ.Expr() != `"lamb"*` {
		t.Fatalf("unexpected: %+v expr=%s", resp, ix.lastQ.Expr())
	}
}

func TestSearch_EndToEndWithRecheck(t *testing.T) {
	db := newServiceDB(t)
	fb := search.NewFallback()
	lib := NewLibraryService(db, fb, true)
	ctx := context.Background()

	_, err := lib.Import(ctx, []domain.ImportDocument{
		{ID: "a", Title: "Behold the Lamb", Date: "1960-01-01", City: "X", Text: "Behold the lamb of God.\n\nThe lion of Judah."},
		{ID: "b", Title: "Word", Date: "1962-05-05", City: "Y", Text: "It is God's word"},
	})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	ix := search.NewIndexed(db)
	ix.MarkReady(true)
	s := NewSearchService(ix, fb, nil)

	resp := s.Search(ctx, domain.SearchParams{Query: "lamb of god", Mode: domain.ModeExactPhrase})
	if resp.Backend != search.IndexedName || len(resp.Results) != 1 || resp.Results[0].SermonID != "a" {
		t.Fatalf("phrase: %+v", resp)
	}
	if !strings.Contains(resp.Results[0].Snippet, "<mark>lamb of God</mark>") {
		t.Fatalf("snippet = %q", resp.Results[0].Snippet)
	}

	// The engine splits "God's" in two; the normalized scan does not.
	resp = s.Search(ctx, domain.SearchParams{Query: "gods", Mode: domain.ModeDiverse})
	if resp.Backend != search.FallbackName || len(resp.Results) != 1 || resp.Results[0].SermonID != "b" {
		t.Fatalf("recheck: %+v", resp)
	}
}
