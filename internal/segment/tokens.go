package segment

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tbourn/sermon-search/internal/textnorm"
)

// Kind classifies a token of the global word stream.
type Kind uint8

const (
	KindWord  Kind = iota // non-whitespace run
	KindSpace             // whitespace run inside a paragraph
	KindBreak             // blank-line sequence between paragraphs
)

// String returns the JSON-friendly name of the kind.
func (k Kind) String() string {
	switch k {
	case KindWord:
		return "word"
	case KindSpace:
		return "space"
	case KindBreak:
		return "break"
	default:
		return "unknown"
	}
}

// MarshalText lets Kind render as its name in JSON.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText parses a name written by MarshalText.
func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "word":
		*k = KindWord
	case "space":
		*k = KindSpace
	case "break":
		*k = KindBreak
	default:
		return fmt.Errorf("segment: unknown token kind %q", b)
	}
	return nil
}

// Token is one addressable unit of a document. Concatenating the Text of all
// tokens in order reproduces the raw document exactly.
type Token struct {
	GlobalIndex int    `json:"i"`
	Text        string `json:"t"`
	Kind        Kind   `json:"k"`
}

// Span is a closed range of global word indices.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

var spaceRunRE = regexp.MustCompile(`\s+`)

// Tokenize assigns global indices to every non-empty token of raw. Indices
// start at 0 and are never reset at paragraph boundaries.
func Tokenize(raw string) []Token {
	if raw == "" {
		return nil
	}
	out := make([]Token, 0, len(raw)/4)
	emit := func(text string, kind Kind) {
		if text == "" {
			return
		}
		out = append(out, Token{GlobalIndex: len(out), Text: text, Kind: kind})
	}
	emitSegment := func(seg string) {
		pos := 0
		for _, loc := range spaceRunRE.FindAllStringIndex(seg, -1) {
			emit(seg[pos:loc[0]], KindWord)
			emit(seg[loc[0]:loc[1]], KindSpace)
			pos = loc[1]
		}
		emit(seg[pos:], KindWord)
	}

	pos := 0
	for _, loc := range paraSplitRE.FindAllStringIndex(raw, -1) {
		emitSegment(raw[pos:loc[0]])
		emit(raw[loc[0]:loc[1]], KindBreak)
		pos = loc[1]
	}
	emitSegment(raw[pos:])
	return out
}

// Text reconstructs the raw text covered by the closed range [start, end].
// Out-of-range bounds are clamped; an empty range yields "".
func Text(tokens []Token, start, end int) string {
	if start < 0 {
		start = 0
	}
	if end >= len(tokens) {
		end = len(tokens) - 1
	}
	if start > end {
		return ""
	}
	var b strings.Builder
	for _, t := range tokens[start : end+1] {
		b.WriteString(t.Text)
	}
	return b.String()
}

// LastIndex returns the greatest global index of tokens, or -1 when empty.
func LastIndex(tokens []Token) int { return len(tokens) - 1 }

// Locate finds quoted inside the document by content matching. Both sides
// are normalized; a window of the quoted word count slides over the
// document's normalized words and the first exact match wins. The returned
// span covers the global indices of the first and last matched words.
//
// ok is false when quoted is empty after normalization or no window matches,
// e.g. the source paragraph was edited since the citation was recorded.
func Locate(tokens []Token, quoted string) (span Span, ok bool) {
	want := textnorm.Words(textnorm.Normalize(quoted))
	if len(want) == 0 {
		return Span{}, false
	}

	type word struct {
		key string
		idx int
	}
	words := make([]word, 0, len(tokens)/2+1)
	for _, t := range tokens {
		if t.Kind != KindWord {
			continue
		}
		key := textnorm.Normalize(t.Text)
		if key == "" {
			// Stripped punctuation ("...", "?!") carries no comparable content.
			continue
		}
		words = append(words, word{key: key, idx: t.GlobalIndex})
	}

	n := len(want)
	for i := 0; i+n <= len(words); i++ {
		match := true
		for j := 0; j < n; j++ {
			if words[i+j].key != want[j] {
				match = false
				break
			}
		}
		if match {
			return Span{Start: words[i].idx, End: words[i+n-1].idx}, true
		}
	}
	return Span{}, false
}
