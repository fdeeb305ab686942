package highlight

import (
	"html"
	"strings"
	"unicode/utf8"
)

// Marker pair wrapped around every match. The renderer recognizes the span
// structurally; the opening marker carries no state beyond "match".
const (
	MarkOpen  = "<mark>"
	MarkClose = "</mark>"
)

// Snippet windowing, in runes.
const (
	Ellipsis      = "..."
	WindowBefore  = 150
	WindowAfter   = 450
	MaxPlainRunes = 600
)

// Snippet cuts content to a window around the first match of p (WindowBefore
// runes before it, WindowAfter after its start), prefixes/suffixes Ellipsis on
// truncated sides, HTML-escapes the text and wraps every match in the window.
//
// When p finds nothing the first MaxPlainRunes runes are returned and matched
// is false; callers should log it since the paragraph was selected by some
// other term than the highlight pattern covers.
func Snippet(content string, p *Pattern) (snippet string, matched bool) {
	start, _, ok := p.Find(content)
	if !ok {
		n := utf8.RuneCountInString(content)
		if n <= MaxPlainRunes {
			return Render(content, p), false
		}
		return Render(string([]rune(content)[:MaxPlainRunes]), p) + Ellipsis, false
	}

	runes := []rune(content)
	at := utf8.RuneCountInString(content[:start])
	from := at - WindowBefore
	if from < 0 {
		from = 0
	}
	to := at + WindowAfter
	if to > len(runes) {
		to = len(runes)
	}

	var b strings.Builder
	if from > 0 {
		b.WriteString(Ellipsis)
	}
	b.WriteString(Render(string(runes[from:to]), p))
	if to < len(runes) {
		b.WriteString(Ellipsis)
	}
	return b.String(), true
}

// Render HTML-escapes text and wraps every match of p in the marker pair.
// A nil pattern only escapes.
func Render(text string, p *Pattern) string {
	locs := p.FindAll(text)
	if len(locs) == 0 {
		return html.EscapeString(text)
	}
	var b strings.Builder
	b.Grow(len(text) + len(locs)*(len(MarkOpen)+len(MarkClose)))
	pos := 0
	for _, loc := range locs {
		b.WriteString(html.EscapeString(text[pos:loc[0]]))
		b.WriteString(MarkOpen)
		b.WriteString(html.EscapeString(text[loc[0]:loc[1]]))
		b.WriteString(MarkClose)
		pos = loc[1]
	}
	b.WriteString(html.EscapeString(text[pos:]))
	return b.String()
}

// RenderMarked converts an engine-produced excerpt, whose matches are
// delimited by the private open/close sentinels, into the shared marker
// format. The excerpt is re-highlighted with p so both backends mark the same
// terms; the engine's own delimiters are used only when p finds nothing.
func RenderMarked(excerpt, openMark, closeMark string, p *Pattern) string {
	plain := strings.NewReplacer(openMark, "", closeMark, "").Replace(excerpt)
	if _, _, ok := p.Find(plain); ok {
		return Render(plain, p)
	}

	var b strings.Builder
	rest := excerpt
	for {
		i := strings.Index(rest, openMark)
		if i < 0 {
			break
		}
		j := strings.Index(rest[i+len(openMark):], closeMark)
		if j < 0 {
			break
		}
		b.WriteString(html.EscapeString(rest[:i]))
		b.WriteString(MarkOpen)
		b.WriteString(html.EscapeString(rest[i+len(openMark) : i+len(openMark)+j]))
		b.WriteString(MarkClose)
		rest = rest[i+len(openMark)+j+len(closeMark):]
	}
	b.WriteString(html.EscapeString(strings.NewReplacer(openMark, "", closeMark, "").Replace(rest)))
	return b.String()
}

// StripMarkers removes the marker pair and unescapes HTML, returning the
// plain snippet text.
func StripMarkers(snippet string) string {
	return html.UnescapeString(strings.NewReplacer(MarkOpen, "", MarkClose, "").Replace(snippet))
}
