package models

import "time"

// Audit actions recorded on write paths.
const (
	AuditActionLogin        = "auth.login"
	AuditActionRegister     = "auth.register"
	AuditActionUserUpdate   = "users.update"
	AuditActionUserDelete   = "users.delete"
	AuditActionFieldCreate  = "fields.create"
	AuditActionMemoCreate   = "memos.create"
	AuditActionMemoArchive  = "memos.archive"
	AuditActionMemoForward  = "memos.forward"
	AuditActionMemoExport   = "memos.export"
	AuditActionMemoStatus   = "memos.status"
	AuditActionMemoResponse = "memos.response"
)

// AuditLog records a mutation performed through the API.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent  string    `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
