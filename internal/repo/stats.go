// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// primarily for conditional responses (e.g., ETag generation) in the HTTP
// layer. Each function is context-aware and safe to call from services or
// handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/sermon-search/internal/domain"
)

// DocumentsStats returns aggregate metadata for the document library: the
// total number of rows and the latest ImportedAt among them. Any import
// bumps one or the other, so the pair is a cheap version stamp.
//
// When the library is empty, the returned count is 0 and maxImportedAt is nil.
func DocumentsStats(ctx context.Context, db *gorm.DB) (count int64, maxImportedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Document{})

	// Count
	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest imported_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		ImportedAt time.Time
	}
	if err = q.Select("imported_at").Order("imported_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.ImportedAt, nil
}

// HighlightsStats returns the number of highlights on documentID and the
// latest CreatedAt among them (nil when there are none).
func HighlightsStats(ctx context.Context, db *gorm.DB, documentID string) (count int64, maxCreatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Highlight{}).Where("document_id = ?", documentID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	var row struct {
		CreatedAt time.Time
	}
	if err = q.Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.CreatedAt, nil
}
