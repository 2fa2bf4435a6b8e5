package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"concierge/internal/model"
)

type DescriptionRepository struct {
	db *gorm.DB
}

func NewDescriptionRepository(db *gorm.DB) *DescriptionRepository {
	return &DescriptionRepository{db: db}
}

// FindByURL returns the latest description for url with its linked sections,
// or nil when there is none.
func (r *DescriptionRepository) FindByURL(ctx context.Context, url string) (*model.Description, error) {
	var d model.Description
	err := r.db.WithContext(ctx).
		Preload("KickstartDSSections.Section").
		Preload("ExternalSections.Section").
		Where("url = ?", url).
		Order("id DESC").
		First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find description by url failed: %w", err)
	}
	return &d, nil
}

func (r *DescriptionRepository) CreateDescription(ctx context.Context, d *model.Description) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(d).Error; err != nil {
		return fmt.Errorf("create description failed: %w", err)
	}
	return nil
}

func (r *DescriptionRepository) CreateKickstartDSLinks(ctx context.Context, links []model.DescriptionSection) error {
	if len(links) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&links).Error; err != nil {
		return fmt.Errorf("create kickstartds section links failed: %w", err)
	}
	return nil
}

func (r *DescriptionRepository) CreateExternalLinks(ctx context.Context, links []model.ExternalSectionLink) error {
	if len(links) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&links).Error; err != nil {
		return fmt.Errorf("create external section links failed: %w", err)
	}
	return nil
}
