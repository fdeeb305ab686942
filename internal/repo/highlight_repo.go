// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Highlight
// model.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/sermon-search/internal/domain"
)

// CreateHighlight persists h with a fresh UUID and UTC timestamp. Range
// validation is the caller's job.
func CreateHighlight(ctx context.Context, db *gorm.DB, h domain.Highlight) (*domain.Highlight, error) {
	h.ID = uuid.NewString()
	h.CreatedAt = time.Now().UTC()
	if err := db.WithContext(ctx).Omit("Document").Create(&h).Error; err != nil {
		return nil, err
	}
	return &h, nil
}

// ListHighlights returns the highlights of documentID ordered by start
// index, then creation time. Overlapping ranges are all returned.
func ListHighlights(ctx context.Context, db *gorm.DB, documentID string) ([]domain.Highlight, error) {
	var out []domain.Highlight
	err := db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("start asc").
		Order("created_at asc").
		Find(&out).Error
	return out, err
}

// DeleteHighlight removes one highlight. It returns ErrNotFound when no row
// was affected.
func DeleteHighlight(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Highlight{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
