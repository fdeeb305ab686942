// Package synonym expands single-word queries with related terms.
//
// An Expander delegates to a Lookup (remote definition service, local TOML
// thesaurus, or a Chain of both), caches answers in process and bounds the
// result to MaxTerms. Failures surface as ErrExpansionFailed with zero
// terms; callers log them and search on the original word only.
package synonym

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/tbourn/sermon-search/internal/textnorm"
)

// MaxTerms caps how many synonyms a single expansion returns.
const MaxTerms = 8

// defaultCacheSize bounds the in-process answer cache.
const defaultCacheSize = 1024

// ErrExpansionFailed wraps any lookup failure.
var ErrExpansionFailed = errors.New("synonym expansion failed")

// Lookup returns terms related to word. Implementations may return
// duplicates, the word itself or more than MaxTerms terms; the Expander
// cleans that up.
type Lookup interface {
	Lookup(ctx context.Context, word string) ([]string, error)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(ctx context.Context, word string) ([]string, error)

// Lookup implements Lookup.
func (f LookupFunc) Lookup(ctx context.Context, word string) ([]string, error) { return f(ctx, word) }

// Expander applies the expansion policy on top of a Lookup.
type Expander struct {
	lookup  Lookup
	enabled bool
	max     int

	mu        sync.Mutex
	cache     map[string][]string
	cacheSize int
}

// NewExpander returns an expander over l. A nil lookup or enabled=false
// yields an expander that never applies.
func NewExpander(l Lookup, enabled bool) *Expander {
	return &Expander{
		lookup:    l,
		enabled:   enabled,
		max:       MaxTerms,
		cache:     make(map[string][]string),
		cacheSize: defaultCacheSize,
	}
}

// Enabled reports whether expansion can run at all.
func (e *Expander) Enabled() bool { return e != nil && e.enabled && e.lookup != nil }

// Applicable reports whether query should be expanded: the feature is on and
// the trimmed query is a single word. Multi-word queries are never expanded.
func (e *Expander) Applicable(query string) bool {
	return e.Enabled() && len(strings.Fields(query)) == 1
}

// Expand returns up to MaxTerms synonyms of the single-word query,
// deduplicated by normalized form and excluding the word itself. It returns
// (nil, nil) when expansion does not apply.
func (e *Expander) Expand(ctx context.Context, query string) ([]string, error) {
	if !e.Applicable(query) {
		return nil, nil
	}
	word := strings.TrimSpace(query)
	key := textnorm.Normalize(word)
	if key == "" {
		return nil, nil
	}

	if cached, ok := e.cached(key); ok {
		return cached, nil
	}

	raw, err := e.lookup.Lookup(ctx, word)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrExpansionFailed, word, err)
	}
	out := clean(key, raw, e.max)
	e.store(key, out)
	return out, nil
}

func clean(key string, raw []string, max int) []string {
	out := make([]string, 0, min(len(raw), max))
	seen := map[string]struct{}{key: {}}
	for _, s := range raw {
		s = strings.TrimSpace(s)
		n := textnorm.Normalize(s)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, s)
		if len(out) == max {
			break
		}
	}
	return out
}

func (e *Expander) cached(key string) ([]string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.cache[key]
	return v, ok
}

func (e *Expander) store(key string, terms []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.cache) >= e.cacheSize {
		clear(e.cache)
	}
	e.cache[key] = terms
}
