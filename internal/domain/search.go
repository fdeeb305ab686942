package domain

import "strings"

// SearchMode governs how query terms combine.
type SearchMode string

const (
	// ModeExactPhrase matches the whole query as one contiguous phrase.
	ModeExactPhrase SearchMode = "EXACT_PHRASE"
	// ModeExactWords requires every term somewhere in the paragraph.
	ModeExactWords SearchMode = "EXACT_WORDS"
	// ModeDiverse accepts a paragraph containing any term.
	ModeDiverse SearchMode = "DIVERSE"
)

// DefaultSearchMode is used when the caller does not pick one.
const DefaultSearchMode = ModeExactWords

// ParseSearchMode accepts the canonical names case-insensitively, plus the
// short aliases "phrase", "words" and "any". Empty input yields the default.
func ParseSearchMode(s string) (SearchMode, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return DefaultSearchMode, true
	case string(ModeExactPhrase), "PHRASE":
		return ModeExactPhrase, true
	case string(ModeExactWords), "WORDS", "ALL":
		return ModeExactWords, true
	case string(ModeDiverse), "ANY":
		return ModeDiverse, true
	default:
		return "", false
	}
}

// SynonymFilter narrows which paragraphs qualify once synonyms are known.
// The two restrictive filters are mutually exclusive.
type SynonymFilter string

const (
	// FilterBoth accepts a match on the query term or any synonym.
	FilterBoth SynonymFilter = "both"
	// FilterOriginalOnly ignores synonym-only matches.
	FilterOriginalOnly SynonymFilter = "original"
	// FilterSynonymsOnly ignores paragraphs matched solely by the query term.
	FilterSynonymsOnly SynonymFilter = "synonyms"
)

// ParseSynonymFilter parses a filter name; empty input yields FilterBoth.
func ParseSynonymFilter(s string) (SynonymFilter, bool) {
	switch SynonymFilter(strings.ToLower(strings.TrimSpace(s))) {
	case "", FilterBoth:
		return FilterBoth, true
	case FilterOriginalOnly:
		return FilterOriginalOnly, true
	case FilterSynonymsOnly:
		return FilterSynonymsOnly, true
	default:
		return "", false
	}
}

// SearchParams is one search request.
type SearchParams struct {
	Query  string
	Mode   SearchMode
	Limit  int
	Offset int

	// ExpandSynonyms asks for synonym expansion; it only applies to
	// single-word queries and when the feature is enabled.
	ExpandSynonyms bool
	Filter         SynonymFilter
}

// SearchResult is one matching paragraph. Snippet is HTML-safe with matches
// wrapped in the highlight marker pair.
type SearchResult struct {
	ParagraphID    int64  `json:"paragraph_id,omitempty"`
	SermonID       string `json:"sermon_id"`
	ParagraphIndex int    `json:"paragraph_index"`
	Title          string `json:"title"`
	Date           string `json:"date"`
	City           string `json:"city"`
	Snippet        string `json:"snippet"`
}
