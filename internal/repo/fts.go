// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file manages the SQLite FTS5 table that mirrors
// paragraph content and runs full-text queries against it.
//
// The virtual table stores only the paragraph text; its rowid equals
// paragraphs.id, so every hit joins back to the relational rows for ranking
// and metadata. Rows are written and removed inside the same transaction as
// the paragraphs they mirror (see ReplaceDocuments).
package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// FTSTable is the name of the full-text virtual table.
const FTSTable = "paragraphs_fts"

// Sentinels delimiting matches in engine-produced snippets. They cannot
// occur in imported text, which lets the caller re-render the excerpt.
const (
	SnippetOpen  = "\x02"
	SnippetClose = "\x03"
)

// SnippetTokens is the engine snippet window, in tokens.
const SnippetTokens = 64

// ErrFTSUnavailable is returned when the driver lacks FTS5 support.
var ErrFTSUnavailable = errors.New("fts5 unavailable")

// ParagraphHit is one full-text match joined with its document metadata.
type ParagraphHit struct {
	ParagraphID    int64
	DocumentID     string
	ParagraphIndex int
	Title          string
	Date           string
	City           string
	Snippet        string
}

// EnsureFTS creates the full-text table if missing. Diacritics are folded by
// the tokenizer so accent-insensitive queries match.
func EnsureFTS(db *gorm.DB) error {
	err := db.Exec(`CREATE VIRTUAL TABLE IF NOT EXISTS ` + FTSTable +
		` USING fts5(content, tokenize='unicode61 remove_diacritics 2')`).Error
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "no such module") {
			return ErrFTSUnavailable
		}
		return err
	}
	return nil
}

// HasFTS reports whether the full-text table exists.
func HasFTS(db *gorm.DB) bool {
	var n int64
	err := db.Raw(`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, FTSTable).
		Row().Scan(&n)
	return err == nil && n > 0
}

// RebuildFTS repopulates the full-text table from the paragraphs table in
// one transaction. It repairs an index created after paragraphs were
// imported without it.
func RebuildFTS(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM ` + FTSTable).Error; err != nil {
			return err
		}
		return tx.Exec(`INSERT INTO ` + FTSTable + `(rowid, content) SELECT id, content FROM paragraphs`).Error
	})
}

// CountFTS returns the number of rows in the full-text table.
func CountFTS(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Raw(`SELECT count(*) FROM ` + FTSTable).Row().Scan(&n)
	return n, err
}

// MissingFTS counts paragraphs that have no full-text row. A count match
// alone can hide stale rows left by imports that ran with the index off.
func MissingFTS(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Raw(`
		SELECT count(*) FROM paragraphs p
		WHERE NOT EXISTS (SELECT 1 FROM ` + FTSTable + ` f WHERE f.rowid = p.id)`).
		Row().Scan(&n)
	return n, err
}

// MatchParagraphs runs a full-text expression and returns one page of hits
// ordered by document date (newest first) then paragraph insertion order.
// Snippets carry SnippetOpen/SnippetClose around every matched token.
func MatchParagraphs(ctx context.Context, db *gorm.DB, expr string, limit, offset int) ([]ParagraphHit, error) {
	var out []ParagraphHit
	err := db.WithContext(ctx).Raw(`
		SELECT p.id              AS paragraph_id,
		       p.document_id     AS document_id,
		       p.paragraph_index AS paragraph_index,
		       d.title           AS title,
		       d.date            AS date,
		       d.city            AS city,
		       snippet(`+FTSTable+`, 0, ?, ?, '...', ?) AS snippet
		  FROM `+FTSTable+`
		  JOIN paragraphs p ON p.id = `+FTSTable+`.rowid
		  JOIN documents d  ON d.id = p.document_id
		 WHERE `+FTSTable+` MATCH ?
		 ORDER BY d.date DESC, p.id ASC
		 LIMIT ? OFFSET ?`,
		SnippetOpen, SnippetClose, SnippetTokens, expr, limit, offset,
	).Scan(&out).Error
	return out, err
}

func insertFTS(tx *gorm.DB, id int64, content string) error {
	return tx.Exec(`INSERT INTO `+FTSTable+`(rowid, content) VALUES (?, ?)`, id, content).Error
}

func deleteFTSForDocument(tx *gorm.DB, documentID string) error {
	return tx.Exec(`DELETE FROM `+FTSTable+` WHERE rowid IN (SELECT id FROM paragraphs WHERE document_id = ?)`, documentID).Error
}
