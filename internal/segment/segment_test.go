package segment

import (
	"strings"
	"testing"

	"github.com/tbourn/sermon-search/internal/textnorm"
)

func TestSegment_DropsEmptyAndNumbersDensely(t *testing.T) {
	raw := "  First paragraph.  \n\n   \n\nSecond\nstill second.\n \t \nThird.\n\n\n"
	got := Segment(raw)
	want := []Paragraph{
		{Index: 1, Content: "First paragraph."},
		{Index: 2, Content: "Second\nstill second."},
		{Index: 3, Content: "Third."},
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d: %#v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("paragraph %d = %#v, want %#v", i, got[i], want[i])
		}
	}
}

func TestSegment_EmptyInput(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\n\n", "\t\n \n"} {
		if got := Segment(in); len(got) != 0 {
			t.Fatalf("Segment(%q) = %#v, want none", in, got)
		}
	}
}

func TestSegment_CRLF(t *testing.T) {
	got := Segment("one\r\n\r\ntwo")
	if len(got) != 2 || got[0].Content != "one" || got[1].Content != "two" {
		t.Fatalf("CRLF split failed: %#v", got)
	}
}

func TestTokenize_ReconstructsRawText(t *testing.T) {
	raws := []string{
		"In the beginning was the Word",
		"  leading and trailing  ",
		"Para one.\n\nPara two,\tindented.\n   \n\nPara three.\n",
		"single",
		"\n\nstarts with a break",
	}
	for _, raw := range raws {
		toks := Tokenize(raw)
		var b strings.Builder
		for i, tk := range toks {
			if tk.GlobalIndex != i {
				t.Fatalf("%q: token %d has GlobalIndex %d", raw, i, tk.GlobalIndex)
			}
			if tk.Text == "" {
				t.Fatalf("%q: empty token at %d", raw, i)
			}
			b.WriteString(tk.Text)
		}
		if b.String() != raw {
			t.Fatalf("reconstruction mismatch:\nwant %q\ngot  %q", raw, b.String())
		}
	}
}

func TestTokenize_IndicesSpanParagraphs(t *testing.T) {
	toks := Tokenize("a b\n\nc")
	// a, " ", b, "\n\n", c
	if len(toks) != 5 {
		t.Fatalf("len = %d: %#v", len(toks), toks)
	}
	kinds := []Kind{KindWord, KindSpace, KindWord, KindBreak, KindWord}
	for i, k := range kinds {
		if toks[i].Kind != k {
			t.Fatalf("token %d kind = %v, want %v", i, toks[i].Kind, k)
		}
	}
	if toks[4].Text != "c" || toks[4].GlobalIndex != 4 {
		t.Fatalf("last token = %#v", toks[4])
	}
	if Tokenize("") != nil {
		t.Fatalf("empty input should yield nil")
	}
}

func TestText_ClampsBounds(t *testing.T) {
	toks := Tokenize("one two three")
	if got := Text(toks, 2, 4); got != "two three" {
		t.Fatalf("Text = %q", got)
	}
	if got := Text(toks, -3, 100); got != "one two three" {
		t.Fatalf("clamped Text = %q", got)
	}
	if got := Text(toks, 3, 1); got != "" {
		t.Fatalf("inverted range = %q", got)
	}
	if LastIndex(toks) != 4 {
		t.Fatalf("LastIndex = %d", LastIndex(toks))
	}
}

func TestLocate_RoundTrip(t *testing.T) {
	toks := Tokenize("In the beginning was the Word")
	span, ok := Locate(toks, "the beginning")
	if !ok {
		t.Fatalf("expected match")
	}
	if span.Start != 2 || span.End != 4 {
		t.Fatalf("span = %#v, want {2 4}", span)
	}
	if got := textnorm.Normalize(Text(toks, span.Start, span.End)); got != "the beginning" {
		t.Fatalf("re-extracted %q", got)
	}
}

func TestLocate_AccentsPunctuationAndParagraphBreaks(t *testing.T) {
	raw := "Le Fils de Dieu,\n\nl'Évangile est « vivant »."
	toks := Tokenize(raw)

	span, ok := Locate(toks, "dieu levangile")
	if !ok {
		t.Fatalf("expected cross-paragraph match")
	}
	if got := Text(toks, span.Start, span.End); got != "Dieu,\n\nl'Évangile" {
		t.Fatalf("matched text = %q", got)
	}

	// Free-standing punctuation tokens are skipped when comparing.
	span, ok = Locate(toks, "est vivant")
	if !ok || textnorm.Normalize(Text(toks, span.Start, span.End)) != "est vivant" {
		t.Fatalf("punctuation-tolerant match failed: ok=%v span=%#v", ok, span)
	}
}

func TestLocate_FirstMatchWins(t *testing.T) {
	toks := Tokenize("amen amen amen")
	span, ok := Locate(toks, "amen")
	if !ok || span.Start != 0 || span.End != 0 {
		t.Fatalf("span = %#v ok=%v", span, ok)
	}
}

func TestLocate_NotFound(t *testing.T) {
	toks := Tokenize("In the beginning was the Word")
	if _, ok := Locate(toks, "the end"); ok {
		t.Fatalf("unexpected match")
	}
	if _, ok := Locate(toks, "  ,;  "); ok {
		t.Fatalf("empty quote must not match")
	}
	if _, ok := Locate(nil, "word"); ok {
		t.Fatalf("empty document must not match")
	}
}

func TestKindString(t *testing.T) {
	if KindBreak.String() != "break" || Kind(9).String() != "unknown" {
		t.Fatalf("Kind.String mismatch")
	}
	b, _ := KindSpace.MarshalText()
	if string(b) != "space" {
		t.Fatalf("MarshalText = %q", b)
	}
}
