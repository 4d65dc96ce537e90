package store

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/domain"
)

// ApprovalStore holds the pending/approved/denied records created when the
// policy gate defers an action for review.
type ApprovalStore struct {
	mu      sync.RWMutex
	records map[string]*domain.ApprovalRecord
	order   []string
}

// NewApprovalStore creates an empty approval store.
func NewApprovalStore() *ApprovalStore {
	return &ApprovalStore{records: make(map[string]*domain.ApprovalRecord)}
}

// Create opens a pending record for the deferred command payload and
// returns a clone.
func (s *ApprovalStore) Create(capability domain.Capability, payload json.RawMessage) *domain.ApprovalRecord {
	rec := &domain.ApprovalRecord{
		ApprovalID: "apr_" + uuid.New().String()[:8],
		Capability: capability,
		Status:     domain.ApprovalStatusPending,
		Payload:    append(json.RawMessage(nil), payload...),
		CreatedAt:  time.Now(),
	}
	s.mu.Lock()
	s.records[rec.ApprovalID] = rec
	s.order = append(s.order, rec.ApprovalID)
	s.mu.Unlock()
	return rec.Clone()
}

// Get returns a clone of one record, or nil when the id is unknown.
func (s *ApprovalStore) Get(approvalID string) *domain.ApprovalRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[approvalID].Clone()
}

// List returns cloned records in creation order, optionally filtered by
// status.
func (s *ApprovalStore) List(status domain.ApprovalStatus) []*domain.ApprovalRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.ApprovalRecord
	for _, id := range s.order {
		rec := s.records[id]
		if status != "" && rec.Status != status {
			continue
		}
		out = append(out, rec.Clone())
	}
	return out
}

// Decide transitions a pending record to approved or denied, stamping the
// decision, and returns a clone. Deciding an already-decided record fails
// with InvalidState.
func (s *ApprovalStore) Decide(approvalID string, status domain.ApprovalStatus, decidedBy string) (*domain.ApprovalRecord, error) {
	if status != domain.ApprovalStatusApproved && status != domain.ApprovalStatusDenied {
		return nil, domain.Errf(domain.KindValidation, "decision must be approved or denied, got %q", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[approvalID]
	if !ok {
		return nil, domain.Errf(domain.KindUnknownApproval, "approval %s not found", approvalID)
	}
	if rec.Status != domain.ApprovalStatusPending {
		return nil, domain.Errf(domain.KindInvalidState, "approval %s already %s", approvalID, rec.Status)
	}
	rec.Status = status
	rec.DecidedBy = decidedBy
	now := time.Now()
	rec.DecidedAt = &now
	return rec.Clone(), nil
}
