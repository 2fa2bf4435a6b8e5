package model

import "time"

// Description is a generated keyword description, cached by page url.
type Description struct {
	ID                  uint                  `gorm:"primaryKey" json:"id"`
	CreatedAt           time.Time             `json:"created_at"`
	UpdatedAt           time.Time             `json:"updated_at"`
	URL                 string                `gorm:"size:768;index" json:"url"`
	Text                string                `gorm:"column:description;type:text" json:"description"`
	Embedding           Embedding             `json:"-"`
	KickstartDSSections []DescriptionSection  `gorm:"foreignKey:DescriptionID" json:"-"`
	ExternalSections    []ExternalSectionLink `gorm:"foreignKey:DescriptionID" json:"-"`
}

func (Description) TableName() string { return "descriptions" }

// DescriptionSection links a description to a kickstartDS corpus section.
type DescriptionSection struct {
	DescriptionID uint     `gorm:"primaryKey;autoIncrement:false"`
	SectionID     uint     `gorm:"primaryKey;autoIncrement:false"`
	Similarity    float64
	Section       *Section `gorm:"foreignKey:SectionID"`
}

func (DescriptionSection) TableName() string { return "description_kickstartds_sections" }

// ExternalSectionLink links a description to an external corpus section.
type ExternalSectionLink struct {
	DescriptionID uint     `gorm:"primaryKey;autoIncrement:false"`
	SectionID     uint     `gorm:"primaryKey;autoIncrement:false"`
	Similarity    float64
	Section       *Section `gorm:"foreignKey:SectionID"`
}

func (ExternalSectionLink) TableName() string { return "description_external_sections" }
