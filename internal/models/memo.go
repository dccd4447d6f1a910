package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// MemoStatus is a per-recipient lifecycle marker.
type MemoStatus string

const (
	StatusSent         MemoStatus = "sent"
	StatusDelivered    MemoStatus = "delivered"
	StatusRead         MemoStatus = "read"
	StatusAcknowledged MemoStatus = "acknowledged"
	StatusReceived     MemoStatus = "received"
)

// Valid reports whether the value is an accepted recipient status.
func (s MemoStatus) Valid() bool {
	switch s {
	case StatusSent, StatusDelivered, StatusRead, StatusAcknowledged, StatusReceived:
		return true
	}
	return false
}

// StatusEntry records a recipient's current status on a memo.
type StatusEntry struct {
	Status    MemoStatus `json:"status"`
	Timestamp time.Time  `json:"timestamp"`
}

// ResponseEntry records a recipient's reply and approval on a memo.
type ResponseEntry struct {
	Reply     string    `json:"reply"`
	Approved  bool      `json:"approved"`
	Timestamp time.Time `json:"timestamp"`
}

// MemoContent maps field names to arbitrary values, stored as jsonb.
type MemoContent map[string]interface{}

// Value implements driver.Valuer.
func (c MemoContent) Value() (driver.Value, error) {
	if c == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(c)
}

// Scan implements sql.Scanner.
func (c *MemoContent) Scan(src interface{}) error {
	return scanJSON(src, c, "memo content")
}

// StatusMap maps recipient ids to status entries, stored as jsonb.
type StatusMap map[string]StatusEntry

// Value implements driver.Valuer.
func (m StatusMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *StatusMap) Scan(src interface{}) error {
	return scanJSON(src, m, "memo status map")
}

// ResponseMap maps recipient ids to response entries, stored as jsonb.
// It stays nil until the first response arrives.
type ResponseMap map[string]ResponseEntry

// Value implements driver.Valuer.
func (m ResponseMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *ResponseMap) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	return scanJSON(src, m, "memo response map")
}

func scanJSON(src, dest interface{}, what string) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	case nil:
		return nil
	default:
		return fmt.Errorf("unsupported scan source %T for %s", src, what)
	}
}

// Memo represents a persisted memo row. Archival is a dedicated
// timestamp column rather than a sentinel key inside the status map;
// API payloads surface it as an archived flag alongside statuses.
type Memo struct {
	ID         string         `db:"id" json:"id"`
	SenderID   string         `db:"sender_id" json:"sender_id"`
	Recipients pq.StringArray `db:"recipients" json:"recipients"`
	Department *string        `db:"department" json:"department,omitempty"`
	Content    MemoContent    `db:"content" json:"content"`
	Status     StatusMap      `db:"status" json:"status"`
	Responses  ResponseMap    `db:"responses" json:"responses,omitempty"`
	ArchivedAt *time.Time     `db:"archived_at" json:"archived_at,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// Archived reports whether the memo carries the archive marker.
func (m *Memo) Archived() bool {
	return m != nil && m.ArchivedAt != nil
}

// HasRecipient reports whether the given user id is an addressee.
func (m *Memo) HasRecipient(userID string) bool {
	if m == nil {
		return false
	}
	for _, id := range m.Recipients {
		if id == userID {
			return true
		}
	}
	return false
}

// DepartmentValue returns the target department or an empty string.
func (m *Memo) DepartmentValue() string {
	if m == nil || m.Department == nil {
		return ""
	}
	return *m.Department
}

// MarshalJSON surfaces the archived flag alongside the raw row fields.
func (m Memo) MarshalJSON() ([]byte, error) {
	type alias Memo
	return json.Marshal(struct {
		alias
		Archived bool `json:"archived"`
	}{alias: alias(m), Archived: m.Archived()})
}
