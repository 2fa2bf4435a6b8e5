package model

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Embedding is stored as a pgvector column on postgres and as its text form
// ("[0.1,0.2]", which is also a JSON array) on every other dialect.
type Embedding []float32

func (e Embedding) Value() (driver.Value, error) {
	if e == nil {
		return nil, nil
	}
	if len(e) == 0 {
		return "[]", nil
	}
	return pgvector.NewVector(e).Value()
}

func (e *Embedding) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*e = nil
		return nil
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return fmt.Errorf("unsupported embedding source type %T", src)
	}

	if strings.TrimSpace(raw) == "[]" {
		*e = Embedding{}
		return nil
	}
	var vec pgvector.Vector
	if err := vec.Scan(raw); err != nil {
		return fmt.Errorf("scan embedding failed: %w", err)
	}
	*e = Embedding(vec.Slice())
	return nil
}

func (Embedding) GormDataType() string {
	return "embedding"
}

func (Embedding) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "vector"
	}
	return "text"
}
