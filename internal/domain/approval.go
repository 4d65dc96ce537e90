package domain

import (
	"encoding/json"
	"time"
)

// ApprovalRecord is a deferred action awaiting a human decision. Payload is
// the original command, replayed verbatim when the record is approved.
type ApprovalRecord struct {
	ApprovalID string          `json:"approval_id"`
	Capability Capability      `json:"capability"`
	Status     ApprovalStatus  `json:"status"`
	Payload    json.RawMessage `json:"payload"`
	CreatedAt  time.Time       `json:"created_at"`
	DecidedBy  string          `json:"decided_by,omitempty"`
	DecidedAt  *time.Time      `json:"decided_at,omitempty"`
}

// Clone returns a deep copy of the record.
func (a *ApprovalRecord) Clone() *ApprovalRecord {
	if a == nil {
		return nil
	}
	c := *a
	if a.DecidedAt != nil {
		decided := *a.DecidedAt
		c.DecidedAt = &decided
	}
	if a.Payload != nil {
		c.Payload = make(json.RawMessage, len(a.Payload))
		copy(c.Payload, a.Payload)
	}
	return &c
}
