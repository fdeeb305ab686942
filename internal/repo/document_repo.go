// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for documents and
// their paragraphs.
//
// Functions:
//
//   - ReplaceDocuments(ctx, db, batch, withFTS) -> error
//     Replaces every document in batch, its paragraphs and its full-text
//     rows in ONE transaction. New full-text rows are written only withFTS.
//
//   - ListDocuments(ctx, db) -> []domain.Document, error
//     All documents, newest date first.
//
//   - AllDocuments(ctx, db) -> []domain.Document, error
//     All documents in import order, with raw text, for snapshot builds.
//
//   - GetDocument(ctx, db, id) -> *domain.Document, error
//     One document or ErrNotFound.
//
//   - ListParagraphs(ctx, db, documentID) -> []domain.Paragraph, error
//     Paragraphs of one document by paragraph index.
//
//   - CountDocuments / CountParagraphs -> int64, error
//
//   - ContentHashes(ctx, db, ids) -> map[id]hash, error
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/sermon-search/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// DocumentBundle is one document with its freshly segmented paragraphs.
// Paragraph IDs are assigned on insert.
type DocumentBundle struct {
	Document   domain.Document
	Paragraphs []domain.Paragraph
}

// ReplaceDocuments upserts each document and swaps its paragraphs for the
// bundled ones. Full-text rows for the old paragraphs are removed before
// the paragraphs themselves, and new rows are inserted with the new
// paragraph IDs. Everything happens in a single transaction, so a
// concurrent reader sees either the previous set or the new one.
//
// Highlights survive because documents are updated in place, not deleted.
func ReplaceDocuments(ctx context.Context, db *gorm.DB, batch []DocumentBundle, withFTS bool) error {
	if len(batch) == 0 {
		return nil
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Rows of an existing table are dropped even when the index is off,
		// so they never outlive the paragraphs they mirror.
		dropFTS := withFTS || HasFTS(tx)
		for i := range batch {
			b := &batch[i]
			if dropFTS {
				if err := deleteFTSForDocument(tx, b.Document.ID); err != nil {
					return err
				}
			}
			if err := tx.Where("document_id = ?", b.Document.ID).Delete(&domain.Paragraph{}).Error; err != nil {
				return err
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				UpdateAll: true,
			}).Create(&b.Document).Error; err != nil {
				return err
			}
			if len(b.Paragraphs) == 0 {
				continue
			}
			for j := range b.Paragraphs {
				b.Paragraphs[j].ID = 0
				b.Paragraphs[j].DocumentID = b.Document.ID
			}
			if err := tx.Omit(clause.Associations).Create(&b.Paragraphs).Error; err != nil {
				return err
			}
			if withFTS {
				for _, p := range b.Paragraphs {
					if err := insertFTS(tx, p.ID, p.Content); err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
}

// ListDocuments returns every document, newest date first, ties by id.
// RawText is not loaded.
func ListDocuments(ctx context.Context, db *gorm.DB) ([]domain.Document, error) {
	var out []domain.Document
	err := db.WithContext(ctx).
		Omit("raw_text").
		Order("date desc").
		Order("id asc").
		Find(&out).Error
	return out, err
}

// AllDocuments returns every document with its raw text, ordered by the
// insertion order of its first paragraph. This is the order full-text hits
// of equal date are ranked in.
func AllDocuments(ctx context.Context, db *gorm.DB) ([]domain.Document, error) {
	var out []domain.Document
	err := db.WithContext(ctx).
		Order("(SELECT MIN(p.id) FROM paragraphs p WHERE p.document_id = documents.id) asc").
		Order("id asc").
		Find(&out).Error
	return out, err
}

// GetDocument fetches a single document by ID, or ErrNotFound.
func GetDocument(ctx context.Context, db *gorm.DB, id string) (*domain.Document, error) {
	var d domain.Document
	if err := db.WithContext(ctx).Where("id = ?", id).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// ListParagraphs returns the paragraphs of documentID in paragraph order.
func ListParagraphs(ctx context.Context, db *gorm.DB, documentID string) ([]domain.Paragraph, error) {
	var out []domain.Paragraph
	err := db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("paragraph_index asc").
		Find(&out).Error
	return out, err
}

// CountDocuments returns the number of stored documents.
func CountDocuments(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Document{}).Count(&n).Error
	return n, err
}

// CountParagraphs returns the number of stored paragraphs.
func CountParagraphs(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Paragraph{}).Count(&n).Error
	return n, err
}

// ContentHashes returns the stored content hash of each existing id in ids.
// Unknown ids are absent from the map.
func ContentHashes(ctx context.Context, db *gorm.DB, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []domain.Document
	if err := db.WithContext(ctx).
		Select("id", "content_hash").
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ID] = r.ContentHash
	}
	return out, nil
}
