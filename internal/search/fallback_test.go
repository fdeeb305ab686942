package search

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/tbourn/sermon-search/internal/domain"
	"github.com/tbourn/sermon-search/internal/highlight"
)

// ---------- helpers ----------
func doc(id, date, text string) domain.Document {
	return domain.Document{ID: id, Title: "Title " + id, Date: date, City: "City " + id, RawText: text}
}

func modeCorpus() []domain.Document {
	return []domain.Document{
		doc("p1", "1960-01-01", "the lamb of God"),
		doc("p2", "1961-01-01", "lamb and lion"),
		doc("p3", "1962-01-01", "the lion king"),
		doc("p4", "1963-01-01", "the lamb and the lion together"),
		doc("p5", "1964-01-01", "nothing to see"),
	}
}

func newFallback(t *testing.T, docs []domain.Document, opts ...Option) *Fallback {
	t.Helper()
	f := NewFallback(opts...)
	if err := f.Rebuild(context.Background(), docs); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	return f
}

func ids(rs []domain.SearchResult) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = fmt.Sprintf("%s#%d", r.SermonID, r.ParagraphIndex)
	}
	return out
}

// ---------- Options + defaultConfig ----------
func TestOptionsAndDefaults(t *testing.T) {
	def := defaultConfig()
	if def.concurrency != 4 || def.maxParagraphs != 0 || def.onSnippetMiss != nil {
		t.Fatalf("defaultConfig unexpected: %#v", def)
	}

	cfg := def
	WithConcurrency(8)(&cfg)
	WithConcurrency(0)(&cfg) // no-op
	if cfg.concurrency != 8 {
		t.Fatalf("WithConcurrency failed: %d", cfg.concurrency)
	}
	WithMaxParagraphs(2)(&cfg)
	WithMaxParagraphs(-1)(&cfg) // no-op
	if cfg.maxParagraphs != 2 {
		t.Fatalf("WithMaxParagraphs failed: %d", cfg.maxParagraphs)
	}
	WithSnippetMiss(func(string, int) {})(&cfg)
	if cfg.onSnippetMiss == nil {
		t.Fatalf("WithSnippetMiss not applied")
	}
}

func TestFallback_NotReadyUntilRebuilt(t *testing.T) {
	f := NewFallback()
	if f.Ready() || f.Name() != FallbackName {
		t.Fatalf("fresh fallback should not be ready")
	}
	q := mustCompile(t, "lamb", domain.ModeDiverse)
	if _, err := f.Search(context.Background(), q, 10, 0); !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}

	if err := f.Rebuild(context.Background(), nil); err != nil {
		t.Fatalf("Rebuild(nil): %v", err)
	}
	if !f.Ready() || f.Len() != 0 {
		t.Fatalf("empty snapshot should be ready with zero paragraphs")
	}
	res, err := f.Search(context.Background(), q, 10, 0)
	if err != nil || len(res) != 0 {
		t.Fatalf("empty snapshot: res=%v err=%v", res, err)
	}
}

func TestFallback_ModeCorrectness(t *testing.T) {
	f := newFallback(t, modeCorpus())
	ctx := context.Background()

	words, _ := f.Search(ctx, mustCompile(t, "lamb lion", domain.ModeExactWords), 50, 0)
	if got := ids(words); !reflect.DeepEqual(got, []string{"p4#1", "p2#1"}) {
		t.Fatalf("EXACT_WORDS = %v", got)
	}

	diverse, _ := f.Search(ctx, mustCompile(t, "lamb lion", domain.ModeDiverse), 50, 0)
	if got := ids(diverse); !reflect.DeepEqual(got, []string{"p4#1", "p3#1", "p2#1", "p1#1"}) {
		t.Fatalf("DIVERSE = %v", got)
	}

	phrase, _ := f.Search(ctx, mustCompile(t, "lamb of god", domain.ModeExactPhrase), 50, 0)
	if got := ids(phrase); !reflect.DeepEqual(got, []string{"p1#1"}) {
		t.Fatalf("EXACT_PHRASE = %v", got)
	}
}

func TestFallback_SortsByDateThenImportOrder(t *testing.T) {
	f := newFallback(t, []domain.Document{
		doc("old", "1950", "grace one\n\ngrace two"),
		doc("new", "1970", "grace three"),
		doc("tie", "1950", "grace four"),
	})
	res, err := f.Search(context.Background(), mustCompile(t, "grace", domain.ModeDiverse), 50, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	want := []string{"new#1", "old#1", "old#2", "tie#1"}
	if got := ids(res); !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v; want %v", got, want)
	}
	if res[0].Title != "Title new" || res[0].City != "City new" || res[0].Date != "1970" {
		t.Fatalf("metadata not carried: %+v", res[0])
	}
}

func TestFallback_PaginationStableAndDeterministic(t *testing.T) {
	var docs []domain.Document
	for i := 0; i < 30; i++ {
		docs = append(docs, doc(fmt.Sprintf("d%02d", i), fmt.Sprintf("19%02d", 40+i%7), "faith cometh by hearing\n\nand hearing by the word"))
	}
	f := newFallback(t, docs)
	ctx := context.Background()
	q := mustCompile(t, "hearing", domain.ModeExactPhrase)

	p1, _ := f.Search(ctx, q, 10, 0)
	p2, _ := f.Search(ctx, q, 10, 10)
	all, _ := f.Search(ctx, q, 20, 0)
	if len(p1) != 10 || len(p2) != 10 {
		t.Fatalf("page sizes %d, %d", len(p1), len(p2))
	}
	if !reflect.DeepEqual(append(p1, p2...), all) {
		t.Fatalf("page concatenation differs from a single larger page")
	}

	again, _ := f.Search(ctx, q, 20, 0)
	if !reflect.DeepEqual(all, again) {
		t.Fatalf("repeated search is not deterministic")
	}

	past, err := f.Search(ctx, q, 10, 1000)
	if err != nil || len(past) != 0 {
		t.Fatalf("offset past end: %v %v", past, err)
	}
}

func TestFallback_AccentInsensitiveWithMarkedSnippet(t *testing.T) {
	f := newFallback(t, []domain.Document{doc("fr", "1963", "Le saint Évangile éternel")})
	res, err := f.Search(context.Background(), mustCompile(t, "evangile", domain.ModeExactWords), 10, 0)
	if err != nil || len(res) != 1 {
		t.Fatalf("res=%v err=%v", res, err)
	}
	if !strings.Contains(res[0].Snippet, highlight.MarkOpen+"Évangile"+highlight.MarkClose) {
		t.Fatalf("snippet not marked: %q", res[0].Snippet)
	}
	if res[0].ParagraphID != 0 {
		t.Fatalf("fallback results carry no storage id")
	}
}

func TestFallback_SnippetWindowOnLongParagraph(t *testing.T) {
	text := strings.Repeat("a", 500) + " target " + strings.Repeat("b", 500)
	f := newFallback(t, []domain.Document{doc("long", "1960", text)})
	res, _ := f.Search(context.Background(), mustCompile(t, "target", domain.ModeExactWords), 10, 0)
	if len(res) != 1 {
		t.Fatalf("expected one hit")
	}
	plain := highlight.StripMarkers(res[0].Snippet)
	if !strings.HasPrefix(plain, highlight.Ellipsis) || !strings.HasSuffix(plain, highlight.Ellipsis) {
		t.Fatalf("snippet should be ellipsized on both sides: %q", plain)
	}
	if n := len([]rune(plain)); n > highlight.WindowBefore+highlight.WindowAfter+2*len(highlight.Ellipsis) {
		t.Fatalf("snippet too long: %d runes", n)
	}
}

func TestFallback_SynonymFilters(t *testing.T) {
	f := newFallback(t, []domain.Document{
		doc("a", "1960", "the lamb was slain"),
		doc("b", "1961", "a sheep astray"),
		doc("c", "1962", "a goat"),
	})
	ctx := context.Background()
	base := mustCompile(t, "lamb", domain.ModeExactWords)

	both, _ := f.Search(ctx, base.WithSynonyms([]string{"sheep"}, domain.FilterBoth), 10, 0)
	if got := ids(both); !reflect.DeepEqual(got, []string{"b#1", "a#1"}) {
		t.Fatalf("both = %v", got)
	}
	only, _ := f.Search(ctx, base.WithSynonyms([]string{"sheep"}, domain.FilterSynonymsOnly), 10, 0)
	if got := ids(only); !reflect.DeepEqual(got, []string{"b#1"}) {
		t.Fatalf("synonyms only = %v", got)
	}
	if !strings.Contains(only[0].Snippet, "<mark>sheep</mark>") {
		t.Fatalf("synonym not highlighted: %q", only[0].Snippet)
	}
	orig, _ := f.Search(ctx, base.WithSynonyms([]string{"sheep"}, domain.FilterOriginalOnly), 10, 0)
	if got := ids(orig); !reflect.DeepEqual(got, []string{"a#1"}) {
		t.Fatalf("original only = %v", got)
	}
}

func TestFallback_SnippetMissCallback(t *testing.T) {
	var missed []string
	f := newFallback(t, []domain.Document{doc("g", "1960", "It is God's word")},
		WithSnippetMiss(func(id string, idx int) { missed = append(missed, fmt.Sprintf("%s#%d", id, idx)) }))

	// Normalization drops the apostrophe, the raw-text pattern cannot.
	res, err := f.Search(context.Background(), mustCompile(t, "gods", domain.ModeDiverse), 10, 0)
	if err != nil || len(res) != 1 {
		t.Fatalf("res=%v err=%v", res, err)
	}
	if !reflect.DeepEqual(missed, []string{"g#1"}) {
		t.Fatalf("missed = %v", missed)
	}
	if res[0].Snippet != "It is God&#39;s word" {
		t.Fatalf("unmatched snippet should be the escaped paragraph: %q", res[0].Snippet)
	}
}

func TestFallback_RebuildSwapsSnapshotAndCaps(t *testing.T) {
	f := newFallback(t, modeCorpus(), WithMaxParagraphs(2), WithConcurrency(1))
	if f.Len() != 2 {
		t.Fatalf("WithMaxParagraphs: len = %d", f.Len())
	}
	if err := f.Rebuild(context.Background(), []domain.Document{doc("x", "2000", "one\n\n\n\ntwo")}); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	res, _ := f.Search(context.Background(), mustCompile(t, "lamb", domain.ModeDiverse), 10, 0)
	if len(res) != 0 || f.Len() != 2 {
		t.Fatalf("old snapshot still visible: %v len=%d", res, f.Len())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := f.Rebuild(ctx, modeCorpus()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if f.Len() != 2 {
		t.Fatalf("failed rebuild must keep the previous snapshot")
	}
}
