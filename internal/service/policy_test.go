package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/domain"
)

func TestUpdatePolicyMergesFieldLevel(t *testing.T) {
	svc := newTestService(t)
	assert.Equal(t, domain.ModeDev, svc.Policy().Mode)

	cfg, err := svc.UpdatePolicy(domain.UpdatePolicyRequest{
		Approvals: map[string]string{"exec": "auto"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ModeDev, cfg.Mode)
	assert.Equal(t, domain.RuleAuto, cfg.Approvals[domain.CapabilityExec])

	// Switching mode keeps the capability override.
	cfg, err = svc.UpdateMode("prod")
	require.NoError(t, err)
	assert.Equal(t, domain.ModeProd, cfg.Mode)
	assert.Equal(t, domain.RuleAuto, cfg.Approvals[domain.CapabilityExec])
}

func TestUpdatePolicyValidation(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.UpdatePolicy(domain.UpdatePolicyRequest{Mode: "bogus"})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = svc.UpdatePolicy(domain.UpdatePolicyRequest{
		Approvals: map[string]string{"teleport": "auto"},
	})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = svc.UpdatePolicy(domain.UpdatePolicyRequest{
		Approvals: map[string]string{"write": "maybe"},
	})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	// Failed updates leave the config untouched.
	assert.Equal(t, domain.ModeDev, svc.Policy().Mode)
	assert.Empty(t, svc.Policy().Approvals)
}

func TestPolicyReturnsClone(t *testing.T) {
	svc := newTestService(t)

	cfg := svc.Policy()
	cfg.Mode = domain.ModeProd
	cfg.Approvals[domain.CapabilityWrite] = domain.RuleForbid

	assert.Equal(t, domain.ModeDev, svc.Policy().Mode)
	assert.Empty(t, svc.Policy().Approvals)
}

func TestListApprovalsValidation(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.ListApprovals("bogus")
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestDecideApprovalValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.DecideApproval(ctx, domain.DecideApprovalRequest{Decision: "approve"})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = svc.DecideApproval(ctx, domain.DecideApprovalRequest{ApprovalID: "apr_x", Decision: "maybe"})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = svc.DecideApproval(ctx, domain.DecideApprovalRequest{ApprovalID: "apr_missing", Decision: "approve"})
	assert.Equal(t, domain.KindUnknownApproval, domain.KindOf(err))
}
