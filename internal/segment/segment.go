// Package segment defines the two independent numbering schemes derived from
// a document's raw text:
//
//   - Paragraphs (Segment): blank-line separated, trimmed, non-empty units
//     numbered densely from 1. Whitespace-only segments are dropped and do not
//     consume an index.
//   - Global word addresses (Tokenize): every non-empty token of the text,
//     separators included, numbered from 0 across the whole document.
//
// The schemes are never converted into each other by arithmetic. A paragraph
// (or a quoted citation) is mapped into the global word stream by content
// matching through Locate.
package segment

import (
	"regexp"
	"strings"
)

// Paragraph is one blank-line delimited unit of a document.
type Paragraph struct {
	Index   int    // 1-based, dense, in text order
	Content string // trimmed
}

// paraSplitRE matches one or more blank lines: a newline, optional
// whitespace, newline.
var paraSplitRE = regexp.MustCompile(`\n\s*\n`)

// Segment splits raw into ordered paragraphs.
func Segment(raw string) []Paragraph {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	chunks := paraSplitRE.Split(normalizeNewlines(raw), -1)
	out := make([]Paragraph, 0, len(chunks))
	for _, c := range chunks {
		t := strings.TrimSpace(c)
		if t == "" {
			continue
		}
		out = append(out, Paragraph{Index: len(out) + 1, Content: t})
	}
	return out
}

// normalizeNewlines folds CRLF and lone CR into LF so Windows transcripts
// split the same way as Unix ones.
func normalizeNewlines(s string) string {
	if !strings.ContainsRune(s, '\r') {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
