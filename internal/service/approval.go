package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/domain"
)

// DecideApprovalResponse carries the decided record and, for an approved
// record, the result of replaying its payload.
type DecideApprovalResponse struct {
	Approval *domain.ApprovalRecord `json:"approval"`
	Result   any                    `json:"result,omitempty"`
}

// ListApprovals filters approval records by status; empty returns all.
func (s *Service) ListApprovals(status string) ([]*domain.ApprovalRecord, error) {
	switch domain.ApprovalStatus(status) {
	case "", domain.ApprovalStatusPending, domain.ApprovalStatusApproved, domain.ApprovalStatusDenied:
		return s.approvals.List(domain.ApprovalStatus(status)), nil
	}
	return nil, domain.Errf(domain.KindValidation, "unknown approval status %q", status)
}

// DecideApproval resolves a pending record. Approving replays the original
// payload through the same path an auto decision would have used; a replay
// failure surfaces as the execution error while the approval itself stays
// approved, so operators can tell a failed action from an invalid approval.
func (s *Service) DecideApproval(ctx context.Context, req domain.DecideApprovalRequest) (*DecideApprovalResponse, error) {
	if req.ApprovalID == "" {
		return nil, domain.Errf(domain.KindValidation, "approval_id is required")
	}

	var status domain.ApprovalStatus
	switch req.Decision {
	case "approve":
		status = domain.ApprovalStatusApproved
	case "deny":
		status = domain.ApprovalStatusDenied
	default:
		return nil, domain.Errf(domain.KindValidation, "decision must be approve or deny, got %q", req.Decision)
	}

	rec, err := s.approvals.Decide(req.ApprovalID, status, req.DecidedBy)
	if err != nil {
		return nil, err
	}
	resp := &DecideApprovalResponse{Approval: rec}
	if status == domain.ApprovalStatusDenied {
		return resp, nil
	}

	result, err := s.replayApproval(rec)
	if err != nil {
		return resp, fmt.Errorf("approved action failed: %w", err)
	}
	resp.Result = result
	return resp, nil
}

// replayApproval executes an approved record's payload on the capability's
// auto path.
func (s *Service) replayApproval(rec *domain.ApprovalRecord) (any, error) {
	switch rec.Capability {
	case domain.CapabilityWrite:
		var req domain.ApplyDiffsRequest
		if err := json.Unmarshal(rec.Payload, &req); err != nil {
			return nil, fmt.Errorf("decode diff batch: %w", err)
		}
		return s.applyDiffsNow(req), nil
	default:
		return nil, fmt.Errorf("no replay path for capability %s", rec.Capability)
	}
}
