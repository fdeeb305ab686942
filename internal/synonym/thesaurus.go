package synonym

import (
	"context"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/tbourn/sermon-search/internal/textnorm"
)

// Thesaurus is a local, read-only synonym table loaded from TOML:
//
//	[synonyms]
//	lamb = ["sheep", "ewe"]
//	"évangile" = ["gospel", "bonne nouvelle"]
//
// Keys are matched accent- and case-insensitively.
type Thesaurus struct {
	entries map[string][]string
}

type thesaurusFile struct {
	Synonyms map[string][]string `toml:"synonyms"`
}

// LoadThesaurus reads a TOML thesaurus from path.
func LoadThesaurus(path string) (*Thesaurus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseThesaurus(data)
}

// ParseThesaurus decodes a TOML thesaurus.
func ParseThesaurus(data []byte) (*Thesaurus, error) {
	var f thesaurusFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	t := &Thesaurus{entries: make(map[string][]string, len(f.Synonyms))}
	for k, v := range f.Synonyms {
		key := textnorm.Normalize(k)
		if key == "" {
			continue
		}
		t.entries[key] = append(t.entries[key], v...)
	}
	return t, nil
}

// Len returns the number of headwords.
func (t *Thesaurus) Len() int { return len(t.entries) }

// Lookup implements Lookup. Unknown words yield no terms and no error.
func (t *Thesaurus) Lookup(_ context.Context, word string) ([]string, error) {
	return t.entries[textnorm.Normalize(word)], nil
}
