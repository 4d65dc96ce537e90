package service

import (
	"context"
	"encoding/json"

	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/domain"
)

// Policy returns a clone of the current policy config.
func (s *Service) Policy() *domain.PolicyConfig {
	s.policyMu.Lock()
	defer s.policyMu.Unlock()
	return s.policyConfig.Clone()
}

// UpdatePolicy merges a partial update into the current config field-level:
// unspecified capabilities keep their prior rule.
func (s *Service) UpdatePolicy(req domain.UpdatePolicyRequest) (*domain.PolicyConfig, error) {
	var mode domain.Mode
	if req.Mode != "" {
		parsed, err := domain.ParseMode(req.Mode)
		if err != nil {
			return nil, domain.Errf(domain.KindValidation, "%v", err)
		}
		mode = parsed
	}
	approvals := make(map[domain.Capability]domain.Rule, len(req.Approvals))
	for rawCap, rawRule := range req.Approvals {
		cap, err := domain.ParseCapability(rawCap)
		if err != nil {
			return nil, domain.Errf(domain.KindValidation, "%v", err)
		}
		rule, err := domain.ParseRule(rawRule)
		if err != nil {
			return nil, domain.Errf(domain.KindValidation, "%v", err)
		}
		approvals[cap] = rule
	}

	s.policyMu.Lock()
	defer s.policyMu.Unlock()
	s.policyConfig.Merge(mode, approvals)
	return s.policyConfig.Clone(), nil
}

// UpdateMode switches the operating mode, keeping capability overrides.
func (s *Service) UpdateMode(mode string) (*domain.PolicyConfig, error) {
	return s.UpdatePolicy(domain.UpdatePolicyRequest{Mode: mode})
}

// gateDecision is the outcome of consulting the policy gate.
type gateDecision struct {
	// proceed means the caller executes the action now.
	proceed bool
	// approvalID is set when the action was deferred for review.
	approvalID string
}

// enforce consults the policy gate for one capability. Forbid fails with
// PolicyDenied; review opens an approval record holding the command
// payload and emits a plan event; auto tells the caller to proceed.
func (s *Service) enforce(ctx context.Context, capability domain.Capability, payload json.RawMessage, actor string) (gateDecision, error) {
	s.policyMu.Lock()
	mode := s.policyConfig.Mode
	override := s.policyConfig.Approvals[capability]
	s.policyMu.Unlock()

	rule, err := s.engine.Evaluate(ctx, mode, capability, override)
	if err != nil {
		return gateDecision{}, err
	}

	switch rule {
	case domain.RuleForbid:
		return gateDecision{}, domain.Errf(domain.KindPolicyDenied,
			"capability %s is forbidden in mode %s", capability, mode)
	case domain.RuleReview:
		rec := s.approvals.Create(capability, payload)
		s.recordEvent(domain.TopicPlan, actor, domain.PlanPayload{
			ApprovalID: rec.ApprovalID,
			Capability: capability,
		}.AsMap())
		return gateDecision{approvalID: rec.ApprovalID}, nil
	default:
		return gateDecision{proceed: true}, nil
	}
}
