// Package utils provides small helpers for request parameters that carry no
// domain knowledge.
package utils

import (
	"strconv"
	"strings"
)

// AtoiDefault parses s as a base-10 int after trimming spaces. Empty or
// unparsable input yields def.
//
//	utils.AtoiDefault("42", 0)  // 42
//	utils.AtoiDefault(" 7", 0)  // 7
//	utils.AtoiDefault("x", 5)   // 5
func AtoiDefault(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// ClampPage bounds a page request. A non-positive limit becomes def, a limit
// above max becomes max, and a negative offset becomes 0. def is itself
// capped at max; a non-positive max leaves limit unbounded above.
func ClampPage(limit, offset, def, max int) (int, int) {
	if max > 0 && def > max {
		def = max
	}
	switch {
	case limit <= 0:
		limit = def
	case max > 0 && limit > max:
		limit = max
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
