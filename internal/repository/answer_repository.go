package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"concierge/internal/model"
)

var ErrAnswerNotFound = errors.New("answer not found")

type AnswerRepository struct {
	db *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) *AnswerRepository {
	return &AnswerRepository{db: db}
}

func (r *AnswerRepository) CreateAnswer(ctx context.Context, record *model.AnswerRecord) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(record).Error; err != nil {
		return fmt.Errorf("create answer failed: %w", err)
	}
	return nil
}

func (r *AnswerRepository) CreateSectionLinks(ctx context.Context, links []model.SectionLink) error {
	if len(links) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&links).Error; err != nil {
		return fmt.Errorf("create answer section links failed: %w", err)
	}
	return nil
}

// CreateAnswerWithLinks writes the record and its links in one transaction,
// filling in the question id of every link.
func (r *AnswerRepository) CreateAnswerWithLinks(ctx context.Context, record *model.AnswerRecord, links []model.SectionLink) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(record).Error; err != nil {
			return fmt.Errorf("create answer failed: %w", err)
		}
		if len(links) == 0 {
			return nil
		}
		for i := range links {
			links[i].QuestionID = record.ID
		}
		if err := tx.Omit(clause.Associations).Create(&links).Error; err != nil {
			return fmt.Errorf("create answer section links failed: %w", err)
		}
		return nil
	})
}

// GetByID loads an answer with its links and the linked sections.
func (r *AnswerRepository) GetByID(ctx context.Context, id uint) (*model.AnswerRecord, error) {
	var record model.AnswerRecord
	err := r.db.WithContext(ctx).
		Preload("Sections", func(db *gorm.DB) *gorm.DB { return db.Order("similarity DESC") }).
		Preload("Sections.Section").
		First(&record, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAnswerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get answer failed: %w", err)
	}
	return &record, nil
}
