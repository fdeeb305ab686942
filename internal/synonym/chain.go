package synonym

import (
	"context"
	"errors"
)

// Chain tries each lookup in order and returns the first non-empty answer.
// It fails only when every lookup failed.
type Chain []Lookup

// Lookup implements Lookup.
func (c Chain) Lookup(ctx context.Context, word string) ([]string, error) {
	var errs []error
	for _, l := range c {
		if l == nil {
			continue
		}
		terms, err := l.Lookup(ctx, word)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if len(terms) > 0 {
			return terms, nil
		}
	}
	if len(errs) > 0 && len(errs) == c.live() {
		return nil, errors.Join(errs...)
	}
	return nil, nil
}

func (c Chain) live() int {
	n := 0
	for _, l := range c {
		if l != nil {
			n++
		}
	}
	return n
}
