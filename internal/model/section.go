package model

// Corpus names the partition of the section index a row belongs to.
const (
	CorpusDefault     = ""
	CorpusKickstartDS = "kickstartds"
	CorpusExternal    = "external"
)

// Section is a chunk of a source page eligible for retrieval.
// Rows are written by the ingest command or an external indexer.
type Section struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	Tokens      int       `gorm:"not null;default:0" json:"tokens"`
	PageURL     string    `gorm:"size:512;index" json:"page_url"`
	PageTitle   string    `gorm:"size:512" json:"page_title"`
	PageSummary string    `gorm:"type:text" json:"page_summary"`
	Corpus      string    `gorm:"size:32;index" json:"-"`
	Embedding   Embedding `json:"-"`
}

func (Section) TableName() string { return "sections" }

// MatchedSection is a section annotated with the similarity observed by one search.
type MatchedSection struct {
	Section
	Similarity float64 `json:"similarity"`
}
