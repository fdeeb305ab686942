// Package services defines the business logic for sermon search and the
// document library (import, reader words, citations, highlights).
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import "errors"

// Library errors.
var (
	// ErrDocumentNotFound indicates that the requested sermon does not exist.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrHighlightNotFound indicates that the highlight id is unknown.
	ErrHighlightNotFound = errors.New("highlight not found")

	// ErrCitationNotFound is the valid negative result of citation
	// relocation: the quoted text does not occur in the document.
	ErrCitationNotFound = errors.New("citation not found in document")

	// ErrInvalidRange is returned for highlight ranges with negative bounds
	// or bounds past the document's last word.
	ErrInvalidRange = errors.New("invalid highlight range")

	// ErrEmptyImport is returned when an import batch carries no documents.
	ErrEmptyImport = errors.New("import batch is empty")

	// ErrInvalidDocument is returned when an imported document lacks an id,
	// a title or a date, or when an id repeats inside one batch.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrEmptyCitation is returned when the quoted text has no words.
	ErrEmptyCitation = errors.New("citation text is empty")
)
