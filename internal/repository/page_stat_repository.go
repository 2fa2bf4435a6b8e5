package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"concierge/internal/model"
)

type PageStatRepository struct {
	db *gorm.DB
}

func NewPageStatRepository(db *gorm.DB) *PageStatRepository {
	return &PageStatRepository{db: db}
}

// RecordHit adds one hit for pageURL, creating the row on first sight.
func (r *PageStatRepository) RecordHit(ctx context.Context, pageURL string, similarity float64, seenAt time.Time) error {
	stat := model.PageHitStat{PageURL: pageURL, Hits: 1, SimilaritySum: similarity, LastSeenAt: seenAt}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "page_url"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"hits":           gorm.Expr("page_hit_stats.hits + ?", 1),
			"similarity_sum": gorm.Expr("page_hit_stats.similarity_sum + ?", similarity),
			"last_seen_at":   seenAt,
		}),
	}).Create(&stat).Error
	if err != nil {
		return fmt.Errorf("record page hit failed: %w", err)
	}
	return nil
}

func (r *PageStatRepository) ListTop(ctx context.Context, limit int) ([]model.PageHitStat, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var stats []model.PageHitStat
	if err := r.db.WithContext(ctx).Order("hits DESC").Order("page_url ASC").Limit(limit).Find(&stats).Error; err != nil {
		return nil, fmt.Errorf("list page stats failed: %w", err)
	}
	return stats, nil
}
