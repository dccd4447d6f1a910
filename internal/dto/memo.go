package dto

import "github.com/memostream/memostream-api/internal/models"

// CreateMemoRequest is the payload for creating and sending a memo.
// Exactly one of Recipients or Department must be supplied; recipient
// entries may be user ids or email addresses.
type CreateMemoRequest struct {
	Recipients []string           `json:"recipients"`
	Department string             `json:"department"`
	Content    models.MemoContent `json:"content" validate:"required"`
}

// UpdateMemoStatusRequest sets the caller's status entry on a memo.
type UpdateMemoStatusRequest struct {
	MemoID string            `json:"memo_id" validate:"required"`
	Status models.MemoStatus `json:"status" validate:"required"`
}

// MemoResponseRequest upserts the caller's reply/approval on a memo.
// Approved is coerced to false unless strictly true.
type MemoResponseRequest struct {
	Reply    string `json:"reply"`
	Approved *bool  `json:"approved"`
}

// ForwardMemoRequest adds new recipients to an existing memo.
type ForwardMemoRequest struct {
	Recipients []string `json:"recipients" validate:"required,min=1"`
}

// ForwardResult reports the outcome of a forward operation.
type ForwardResult struct {
	Memo    *models.Memo `json:"memo"`
	Added   int          `json:"added"`
	Skipped int          `json:"skipped"`
}

// ParaphraseRequest asks the external service to rewrite text.
type ParaphraseRequest struct {
	Text string `json:"text" validate:"required"`
}

// ParaphraseResponse carries the rewritten text.
type ParaphraseResponse struct {
	Original    string `json:"original"`
	Paraphrased string `json:"paraphrased"`
}

// UserStats is the derived per-user memo summary.
type UserStats struct {
	TotalMemos    int `json:"total_memos"`
	MemosSent     int `json:"memos_sent"`
	MemosArchived int `json:"memos_archived"`
}
