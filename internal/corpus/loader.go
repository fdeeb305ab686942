// Package corpus reads sermon import files and watches them for changes.
//
// Two formats are accepted, chosen by extension: ".json" holds one array of
// documents, ".jsonl" (or ".ndjson") one document per line. Each document is
// {id, title, date, city, version?, time?, audio_url?, text}.
package corpus

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tbourn/sermon-search/internal/domain"
)

// maxLine bounds a single JSONL record; sermon transcripts are long.
const maxLine = 4 * 1024 * 1024

// ErrUnsupportedFormat is returned for unknown file extensions.
var ErrUnsupportedFormat = errors.New("corpus: unsupported file format")

// Load reads every document from path.
func Load(path string) ([]domain.ImportDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ReadJSON(f)
	case ".jsonl", ".ndjson":
		return ReadJSONL(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ReadJSON decodes a JSON array of documents.
func ReadJSON(r io.Reader) ([]domain.ImportDocument, error) {
	var out []domain.ImportDocument
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, fmt.Errorf("corpus: decode json: %w", err)
	}
	return out, nil
}

// ReadJSONL decodes one document per line. Blank lines are skipped; a
// malformed line fails the whole read with its line number.
func ReadJSONL(r io.Reader) ([]domain.ImportDocument, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	var out []domain.ImportDocument
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		var d domain.ImportDocument
		if err := json.Unmarshal(b, &d); err != nil {
			return nil, fmt.Errorf("corpus: line %d: %w", line, err)
		}
		out = append(out, d)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("corpus: line %d: %w", line+1, err)
	}
	return out, nil
}
