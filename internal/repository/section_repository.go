package repository

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"concierge/internal/model"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SectionRepository stores sections and runs similarity search over them.
// On postgres the search calls a stored match function per corpus; on every
// other dialect stored embeddings are scored in process.
type SectionRepository struct {
	db            *gorm.DB
	matchFuncs    map[string]string
	usePgFunction bool
}

// NewSectionRepository maps each corpus to the name of its postgres match function.
func NewSectionRepository(db *gorm.DB, matchFuncs map[string]string) (*SectionRepository, error) {
	for corpus, fn := range matchFuncs {
		if !identifierPattern.MatchString(fn) {
			return nil, fmt.Errorf("invalid match function %q for corpus %q", fn, corpus)
		}
	}
	return &SectionRepository{
		db:            db,
		matchFuncs:    matchFuncs,
		usePgFunction: db.Dialector.Name() == "postgres",
	}, nil
}

func (r *SectionRepository) CreateBatch(ctx context.Context, sections []model.Section) error {
	if len(sections) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&sections).Error; err != nil {
		return fmt.Errorf("create sections batch failed: %w", err)
	}
	return nil
}

func (r *SectionRepository) Search(ctx context.Context, embedding []float32, threshold float64, count int, corpus string) ([]model.MatchedSection, error) {
	if count <= 0 {
		return nil, nil
	}
	if r.usePgFunction {
		return r.searchFunction(ctx, embedding, threshold, count, corpus)
	}
	return r.searchInProcess(ctx, embedding, threshold, count, corpus)
}

func (r *SectionRepository) searchFunction(ctx context.Context, embedding []float32, threshold float64, count int, corpus string) ([]model.MatchedSection, error) {
	fn, ok := r.matchFuncs[corpus]
	if !ok {
		return nil, fmt.Errorf("no match function configured for corpus %q", corpus)
	}
	var out []model.MatchedSection
	query := "SELECT * FROM " + fn + "(?::vector, ?, ?)"
	if err := r.db.WithContext(ctx).Raw(query, pgvector.NewVector(embedding), threshold, count).Scan(&out).Error; err != nil {
		return nil, fmt.Errorf("match sections via %s failed: %w", fn, err)
	}
	return out, nil
}

func (r *SectionRepository) searchInProcess(ctx context.Context, embedding []float32, threshold float64, count int, corpus string) ([]model.MatchedSection, error) {
	var sections []model.Section
	if err := r.db.WithContext(ctx).Where("corpus = ?", corpus).Find(&sections).Error; err != nil {
		return nil, fmt.Errorf("list sections failed: %w", err)
	}

	scored := make([]model.MatchedSection, 0, len(sections))
	for _, s := range sections {
		sim := cosineSimilarity(embedding, s.Embedding)
		if sim <= threshold {
			continue
		}
		scored = append(scored, model.MatchedSection{Section: s, Similarity: sim})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Similarity > scored[j].Similarity })
	if len(scored) > count {
		scored = scored[:count]
	}
	return scored, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA <= 0 || normB <= 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
