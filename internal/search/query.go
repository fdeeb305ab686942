package search

import (
	"errors"
	"strings"

	"github.com/tbourn/sermon-search/internal/domain"
	"github.com/tbourn/sermon-search/internal/highlight"
	"github.com/tbourn/sermon-search/internal/textnorm"
)

// ErrEmptyQuery is returned by Compile when no usable term survives
// normalization. Callers treat it as "no results", never as a failure.
var ErrEmptyQuery = errors.New("search: empty query")

// engineSpecial holds the characters that carry meaning in the full-text
// query syntax (prefix star, NOT, phrase quotes, grouping, column filter,
// initial-token anchor, required term).
const engineSpecial = `*-"'()^:+`

// Compiled is a parsed query ready for either backend: the engine
// expression for the indexed backend, the normalized term list and mode for
// the in-memory one. The zero value matches nothing.
type Compiled struct {
	Mode     domain.SearchMode
	Terms    []string
	Synonyms []string
	Filter   domain.SynonymFilter

	expr string
}

// Compile normalizes query, strips engine-special characters from every
// whitespace-delimited term and maps the survivors to the engine syntax of
// mode. An unknown mode compiles as the default mode.
func Compile(query string, mode domain.SearchMode) (Compiled, error) {
	terms := cleanTerms(query)
	if len(terms) == 0 {
		return Compiled{}, ErrEmptyQuery
	}
	switch mode {
	case domain.ModeExactPhrase, domain.ModeExactWords, domain.ModeDiverse:
	default:
		mode = domain.DefaultSearchMode
	}

	c := Compiled{Mode: mode, Terms: terms, Filter: domain.FilterBoth}
	switch mode {
	case domain.ModeExactPhrase:
		c.expr = quote(strings.Join(terms, " "))
	case domain.ModeDiverse:
		c.expr = prefixJoin(terms, " OR ")
	default:
		c.expr = prefixJoin(terms, " AND ")
	}
	return c, nil
}

// WithSynonyms returns a copy of c that also considers synonyms. With
// FilterBoth a paragraph qualifies on the query terms or any synonym; with
// FilterSynonymsOnly only synonyms count; FilterOriginalOnly leaves c
// unchanged. Either active filter overrides the mode-specific combination.
// When no usable synonym remains, c is returned as is whatever the filter,
// so a synonyms-only search without synonyms runs the plain query.
func (c Compiled) WithSynonyms(synonyms []string, filter domain.SynonymFilter) Compiled {
	syns := make([]string, 0, len(synonyms))
	seen := make(map[string]struct{}, len(synonyms)+len(c.Terms))
	for _, t := range c.Terms {
		seen[t] = struct{}{}
	}
	for _, s := range synonyms {
		s = strings.Join(cleanTerms(s), " ")
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		syns = append(syns, s)
	}
	if len(syns) == 0 || len(c.Terms) == 0 {
		return c
	}

	out := c
	out.Synonyms = syns
	out.Filter = filter
	switch filter {
	case domain.FilterOriginalOnly:
		out.Synonyms = nil
	case domain.FilterSynonymsOnly:
		out.expr = prefixJoin(syns, " OR ")
	default:
		out.Filter = domain.FilterBoth
		out.expr = prefixJoin(append(append([]string{}, c.Terms...), syns...), " OR ")
	}
	return out
}

// Expr returns the full-text engine expression.
func (c Compiled) Expr() string { return c.expr }

// Phrase returns the normalized terms joined by single spaces.
func (c Compiled) Phrase() string { return strings.Join(c.Terms, " ") }

// Empty reports whether c can match anything.
func (c Compiled) Empty() bool { return c.expr == "" }

// HighlightTerms lists the terms that snippets should mark: the query terms
// unless only synonyms are wanted, plus any synonyms in play.
func (c Compiled) HighlightTerms() []string {
	if len(c.Synonyms) == 0 {
		return c.Terms
	}
	if c.Filter == domain.FilterSynonymsOnly {
		return c.Synonyms
	}
	out := make([]string, 0, len(c.Terms)+len(c.Synonyms))
	out = append(out, c.Terms...)
	return append(out, c.Synonyms...)
}

// Pattern builds the highlight pattern shared by both backends. A phrase
// query without synonyms is highlighted as one contiguous run; everything
// else as "any of the terms". It returns nil when nothing is highlightable.
func (c Compiled) Pattern() *highlight.Pattern {
	var (
		p   *highlight.Pattern
		err error
	)
	if c.Mode == domain.ModeExactPhrase && len(c.Synonyms) == 0 {
		p, err = highlight.BuildAccentInsensitive(c.Phrase(), false)
	} else {
		p, err = highlight.BuildMultiWord(c.HighlightTerms())
	}
	if err != nil {
		return nil
	}
	return p
}

// Matches reports whether a paragraph, given in normalized form, satisfies
// c by substring containment.
func (c Compiled) Matches(normalized string) bool {
	if len(c.Terms) == 0 {
		return false
	}
	if len(c.Synonyms) > 0 {
		for _, t := range c.HighlightTerms() {
			if strings.Contains(normalized, t) {
				return true
			}
		}
		return false
	}

	switch c.Mode {
	case domain.ModeExactPhrase:
		return strings.Contains(normalized, c.Phrase())
	case domain.ModeDiverse:
		for _, t := range c.Terms {
			if strings.Contains(normalized, t) {
				return true
			}
		}
		return false
	default:
		for _, t := range c.Terms {
			if !strings.Contains(normalized, t) {
				return false
			}
		}
		return true
	}
}

func cleanTerms(s string) []string {
	fields := textnorm.Words(textnorm.Normalize(s))
	out := fields[:0]
	for _, f := range fields {
		f = strings.Map(func(r rune) rune {
			if strings.ContainsRune(engineSpecial, r) {
				return -1
			}
			return r
		}, f)
		if f != "" {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func quote(s string) string { return `"` + s + `"` }

func prefixJoin(terms []string, op string) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = quote(t) + "*"
	}
	return strings.Join(parts, op)
}
