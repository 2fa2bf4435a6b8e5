package model

import "time"

// AnswerRecordedEvent is published after an answer and its section links are stored.
type AnswerRecordedEvent struct {
	QuestionID uint                 `json:"question_id"`
	RecordedAt time.Time            `json:"recorded_at"`
	Sections   []AnswerEventSection `json:"sections"`
}

type AnswerEventSection struct {
	SectionID  uint    `json:"section_id"`
	PageURL    string  `json:"page_url"`
	Similarity float64 `json:"similarity"`
}
