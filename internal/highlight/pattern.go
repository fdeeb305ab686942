// Package highlight builds accent-insensitive, punctuation-tolerant match
// patterns and renders HTML-safe snippets with matches wrapped in a fixed
// marker pair. Both search backends go through this package so their
// snippets are indistinguishable to the caller.
package highlight

import (
	"errors"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tbourn/sermon-search/internal/textnorm"
)

// ErrEmptyPattern is returned when a query contains no matchable characters.
var ErrEmptyPattern = errors.New("highlight: empty pattern")

// accentClasses maps a folded base letter to the bracket class covering its
// accented variants. Upper-case forms are handled by the (?i) flag.
var accentClasses = map[rune]string{
	'a': "aàáâãäå",
	'e': "eèéêë",
	'i': "iìíîï",
	'o': "oòóôõöø",
	'u': "uùúûü",
	'c': "cç",
	'n': "nñ",
	'y': "yýÿ",
}

// wordSep matches the gap between two query words in running text: any mix
// of whitespace, punctuation and line breaks.
const wordSep = `[\s\p{P}]+`

// Pattern locates query matches inside raw (non-normalized) text.
type Pattern struct {
	re        *regexp.Regexp
	exactWord bool
}

// BuildAccentInsensitive compiles query into a pattern that ignores accents
// and case and tolerates any separator run between words, so "fils de dieu"
// matches "Fils\nde Dieu". With exactWord the match must not touch another
// letter or digit on either side.
func BuildAccentInsensitive(query string, exactWord bool) (*Pattern, error) {
	core := termPattern(query)
	if core == "" {
		return nil, ErrEmptyPattern
	}
	re, err := regexp.Compile("(?i)" + core)
	if err != nil {
		return nil, err
	}
	return &Pattern{re: re, exactWord: exactWord}, nil
}

// BuildMultiWord compiles an "any of these terms" pattern used for snippet
// highlighting (query plus synonyms). Longer terms are tried first so a
// phrase wins over one of its words.
func BuildMultiWord(terms []string) (*Pattern, error) {
	seen := make(map[string]struct{}, len(terms))
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		p := termPattern(t)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		parts = append(parts, p)
	}
	if len(parts) == 0 {
		return nil, ErrEmptyPattern
	}
	sort.SliceStable(parts, func(a, b int) bool { return len(parts[a]) > len(parts[b]) })
	re, err := regexp.Compile("(?i)(?:" + strings.Join(parts, "|") + ")")
	if err != nil {
		return nil, err
	}
	return &Pattern{re: re}, nil
}

// String returns the compiled expression (useful in logs and tests).
func (p *Pattern) String() string {
	if p == nil {
		return ""
	}
	return p.re.String()
}

// Find returns the byte offsets of the first match in s.
func (p *Pattern) Find(s string) (start, end int, ok bool) {
	if p == nil {
		return 0, 0, false
	}
	for pos := 0; pos < len(s); {
		loc := p.re.FindStringIndex(s[pos:])
		if loc == nil {
			return 0, 0, false
		}
		start, end = pos+loc[0], pos+loc[1]
		if end > start && (!p.exactWord || atWordBoundary(s, start, end)) {
			return start, end, true
		}
		pos = start + runeLen(s, start)
	}
	return 0, 0, false
}

// FindAll returns the byte offsets of every non-overlapping match in s.
func (p *Pattern) FindAll(s string) [][2]int {
	if p == nil {
		return nil
	}
	var out [][2]int
	for pos := 0; pos < len(s); {
		loc := p.re.FindStringIndex(s[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if end == start || (p.exactWord && !atWordBoundary(s, start, end)) {
			pos = start + runeLen(s, start)
			continue
		}
		out = append(out, [2]int{start, end})
		pos = end
	}
	return out
}

// termPattern turns one (possibly multi-word) term into a regexp fragment.
func termPattern(term string) string {
	words := strings.Fields(textnorm.Fold(term))
	parts := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimFunc(w, func(r rune) bool { return unicode.IsPunct(r) || unicode.IsSymbol(r) })
		if w == "" {
			continue
		}
		parts = append(parts, wordPattern(w))
	}
	return strings.Join(parts, wordSep)
}

func wordPattern(w string) string {
	var b strings.Builder
	for _, r := range w {
		if class, ok := accentClasses[r]; ok {
			b.WriteByte('[')
			b.WriteString(class)
			b.WriteByte(']')
			continue
		}
		b.WriteString(regexp.QuoteMeta(string(r)))
	}
	return b.String()
}

// atWordBoundary reports whether s[start:end] is not glued to a word
// character. Extended Latin letters count as word characters because the
// raw text still carries its accents.
func atWordBoundary(s string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(s) {
		r, _ := utf8.DecodeRuneInString(s[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func runeLen(s string, at int) int {
	_, size := utf8.DecodeRuneInString(s[at:])
	if size == 0 {
		return 1
	}
	return size
}
