package models

import (
	"time"

	"github.com/lib/pq"
)

// MemoFieldType enumerates supported memo field value types.
type MemoFieldType string

const (
	FieldTypeText    MemoFieldType = "text"
	FieldTypeNumber  MemoFieldType = "number"
	FieldTypeDate    MemoFieldType = "date"
	FieldTypeBoolean MemoFieldType = "boolean"
	FieldTypeSelect  MemoFieldType = "select"
)

// Valid reports whether the field type is supported.
func (t MemoFieldType) Valid() bool {
	switch t {
	case FieldTypeText, FieldTypeNumber, FieldTypeDate, FieldTypeBoolean, FieldTypeSelect:
		return true
	}
	return false
}

// MemoField is an admin-defined content key that memo payloads must
// satisfy. Fields are created once and read by every memo creation.
type MemoField struct {
	ID        string         `db:"id" json:"id"`
	Name      string         `db:"name" json:"name"`
	Type      MemoFieldType  `db:"type" json:"type"`
	Required  bool           `db:"required" json:"required"`
	Options   pq.StringArray `db:"options" json:"options,omitempty"`
	CreatedBy string         `db:"created_by" json:"created_by"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}
