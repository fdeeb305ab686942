package corpus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/goleak"
)

func writeCorpus(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestLoad_JSONArray(t *testing.T) {
	p := writeCorpus(t, t.TempDir(), "c.json", `[
 {"id":"65-0725M","title":"The Invisible Union","date":"1965-07-25","city":"Jeffersonville","audio_url":"http://x/a.mp3","text":"a\n\nb"},
 {"id":"63-0317","title":"Seals","date":"1963-03-17","city":"Jeffersonville","version":"v2","time":"M","text":"c"}
]`)
	docs, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(docs) != 2 || docs[0].ID != "65-0725M" || docs[0].AudioURL != "http://x/a.mp3" || docs[1].Version != "v2" || docs[1].Time != "M" {
		t.Fatalf("unexpected docs: %+v", docs)
	}
	if docs[0].Text != "a\n\nb" {
		t.Fatalf("text not decoded: %q", docs[0].Text)
	}
}

func TestLoad_JSONL_SkipsBlankLinesAndHandlesLongRecords(t *testing.T) {
	long := strings.Repeat("word ", 200_000) // ~1 MiB, past the default scanner limit
	content := `{"id":"a","title":"A","date":"1960","city":"X","text":"one"}` + "\n\n" +
		`{"id":"b","title":"B","date":"1961","city":"Y","text":"` + long + `"}` + "\n"
	p := writeCorpus(t, t.TempDir(), "c.jsonl", content)

	docs, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(docs) != 2 || docs[1].ID != "b" || len(docs[1].Text) != len(long) {
		t.Fatalf("unexpected docs: %d", len(docs))
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "missing.json")); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	if _, err := Load(writeCorpus(t, dir, "c.csv", "id,title")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := Load(writeCorpus(t, dir, "bad.json", `{"id":`)); err == nil {
		t.Fatalf("expected json error")
	}
	_, err := Load(writeCorpus(t, dir, "bad.jsonl", "{\"id\":\"a\"}\nnot json\n"))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected line-numbered error, got %v", err)
	}
}

func TestWatcher_ReloadsOnWriteDebounced(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	p := writeCorpus(t, dir, "c.jsonl", "")

	var calls int32
	done := make(chan struct{}, 4)
	w, err := NewWatcher(p, 100*time.Millisecond, zerolog.Nop(), func(_ context.Context, path string) error {
		if _, err := Load(path); err != nil {
			return err
		}
		atomic.AddInt32(&calls, 1)
		done <- struct{}{}
		return nil
	})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// A burst of writes collapses into one reload.
	for i := 0; i < 5; i++ {
		writeCorpus(t, dir, "c.jsonl", `{"id":"a","title":"A","date":"1960","city":"X","text":"one"}`+"\n")
	}
	// Unrelated files are ignored.
	writeCorpus(t, dir, "other.txt", "x")

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("reload not triggered")
	}
	time.Sleep(300 * time.Millisecond)
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected 1 debounced reload, got %d", n)
	}

	if err := w.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestWatcher_HandlerErrorKeepsWatching(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	p := writeCorpus(t, dir, "c.json", "[]")

	var calls int32
	w, err := NewWatcher(p, 50*time.Millisecond, zerolog.Nop(), func(context.Context, string) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("bad corpus")
	})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	writeCorpus(t, dir, "c.json", "[1")
	waitFor(t, func() bool { return atomic.LoadInt32(&calls) >= 1 })
	writeCorpus(t, dir, "c.json", "[2")
	waitFor(t, func() bool { return atomic.LoadInt32(&calls) >= 2 })
}

func TestNewWatcher_NilHandler(t *testing.T) {
	if _, err := NewWatcher("x.json", 0, zerolog.Nop(), nil); err == nil {
		t.Fatalf("expected error for nil handler")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}
