package model

import "time"

// AnswerRecord is one completed question/answer exchange.
type AnswerRecord struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	Question     string        `gorm:"type:text;not null" json:"question"`
	Prompt       string        `gorm:"type:text" json:"prompt"`
	PromptLength int           `json:"prompt_length"`
	Answer       string        `gorm:"type:text" json:"answer"`
	Embedding    Embedding     `json:"-"`
	Sections     []SectionLink `gorm:"foreignKey:QuestionID" json:"sections,omitempty"`
}

func (AnswerRecord) TableName() string { return "questions" }

// SectionLink records that a section contributed to an answer's context.
type SectionLink struct {
	QuestionID uint     `gorm:"primaryKey;autoIncrement:false" json:"question_id"`
	SectionID  uint     `gorm:"primaryKey;autoIncrement:false" json:"section_id"`
	Similarity float64  `json:"similarity"`
	Section    *Section `gorm:"foreignKey:SectionID" json:"section,omitempty"`
}

func (SectionLink) TableName() string { return "question_answer_sections" }
