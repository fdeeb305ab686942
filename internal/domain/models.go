// Package domain defines the persistence models for sermons, their
// paragraphs and user highlights, plus the value types exchanged by the
// search layer. Persistent types are mapped with GORM.
package domain

import (
	"errors"
	"strings"
	"time"
)

// Document is a single transcribed sermon. The ID is assigned by the
// external loader and never changes; re-importing the same ID replaces the
// document and every derived paragraph in one transaction.
//
// Fields:
//   - ID: opaque stable identifier (primary key).
//   - Date: lexicographically sortable string, the primary sort key.
//   - RawText: full body, paragraphs separated by blank lines.
//   - ContentHash: xxhash of RawText, lets operators see which imports changed text.
type Document struct {
	ID          string    `json:"id"           gorm:"type:varchar(128);primaryKey"`
	Title       string    `json:"title"        gorm:"type:varchar(512);not null"`
	Date        string    `json:"date"         gorm:"type:varchar(32);not null;index:idx_documents_date"`
	City        string    `json:"city"         gorm:"type:varchar(255)"`
	Version     string    `json:"version,omitempty"   gorm:"type:varchar(64)"`
	Time        string    `json:"time,omitempty"      gorm:"type:varchar(32)"`
	AudioURL    string    `json:"audio_url,omitempty" gorm:"type:varchar(1024)"`
	RawText     string    `json:"-"            gorm:"type:text;not null"`
	ContentHash string    `json:"content_hash" gorm:"type:varchar(16)"`
	ImportedAt  time.Time `json:"imported_at"`
}

// TableName returns the database table name for Document.
func (Document) TableName() string { return "documents" }

// Paragraph is a blank-line delimited, trimmed, non-empty unit of a
// document. ParagraphIndex is 1-based and dense per document. The numeric ID
// is the insertion order and doubles as the full-text index rowid.
type Paragraph struct {
	ID             int64  `json:"id"              gorm:"primaryKey;autoIncrement"`
	DocumentID     string `json:"document_id"     gorm:"type:varchar(128);not null;uniqueIndex:ux_paragraph_doc_index,priority:1"`
	ParagraphIndex int    `json:"paragraph_index" gorm:"not null;uniqueIndex:ux_paragraph_doc_index,priority:2"`
	Content        string `json:"content"         gorm:"type:text;not null"`

	// Document is the owner; paragraphs go when their document goes.
	Document Document `json:"-" gorm:"foreignKey:DocumentID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Paragraph.
func (Paragraph) TableName() string { return "paragraphs" }

// ErrInvalidRange is returned for highlight ranges with negative bounds.
var ErrInvalidRange = errors.New("invalid highlight range")

// Highlight marks a closed range of global word indices in a document.
// Ranges may overlap; all are kept.
type Highlight struct {
	ID         string    `json:"id"          gorm:"type:char(36);primaryKey"`
	DocumentID string    `json:"document_id" gorm:"type:varchar(128);not null;index:idx_highlights_doc"`
	Start      int       `json:"start"       gorm:"not null"`
	End        int       `json:"end"         gorm:"not null"`
	CreatedAt  time.Time `json:"created_at"`

	Document Document `json:"-" gorm:"foreignKey:DocumentID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Highlight.
func (Highlight) TableName() string { return "highlights" }

// NewHighlight builds a highlight over [start, end]. An inverted range is
// normalized by swapping the bounds, so Start <= End always holds. Negative
// bounds are rejected.
func NewHighlight(documentID string, start, end int) (Highlight, error) {
	if start > end {
		start, end = end, start
	}
	if start < 0 || strings.TrimSpace(documentID) == "" {
		return Highlight{}, ErrInvalidRange
	}
	return Highlight{DocumentID: documentID, Start: start, End: end}, nil
}

// ImportDocument is the loader's wire shape for one sermon.
type ImportDocument struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Date     string `json:"date"`
	City     string `json:"city"`
	Version  string `json:"version,omitempty"`
	Time     string `json:"time,omitempty"`
	AudioURL string `json:"audio_url,omitempty"`
	Text     string `json:"text"`
}
