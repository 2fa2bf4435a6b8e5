package model

import "time"

// PageHitStat aggregates how often a page contributed context to an answer.
type PageHitStat struct {
	PageURL       string    `gorm:"primaryKey;size:512" json:"page_url"`
	Hits          int64     `gorm:"not null;default:0" json:"hits"`
	SimilaritySum float64   `gorm:"not null;default:0" json:"similarity_sum"`
	LastSeenAt    time.Time `json:"last_seen_at"`
}
