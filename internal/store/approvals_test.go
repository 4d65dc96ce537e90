package store

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/domain"
)

func TestApprovalStoreCreateAndGet(t *testing.T) {
	s := NewApprovalStore()

	rec := s.Create(domain.CapabilityWrite, json.RawMessage(`{"diffs":[]}`))
	require.NotEmpty(t, rec.ApprovalID)
	assert.Equal(t, "apr_", rec.ApprovalID[:4])
	assert.Equal(t, domain.ApprovalStatusPending, rec.Status)
	assert.Equal(t, domain.CapabilityWrite, rec.Capability)
	assert.False(t, rec.CreatedAt.IsZero())
	assert.Nil(t, rec.DecidedAt)

	got := s.Get(rec.ApprovalID)
	require.NotNil(t, got)
	assert.JSONEq(t, `{"diffs":[]}`, string(got.Payload))

	assert.Nil(t, s.Get("apr_missing"))
}

func TestApprovalStoreListByStatus(t *testing.T) {
	s := NewApprovalStore()
	first := s.Create(domain.CapabilityWrite, json.RawMessage(`{}`))
	second := s.Create(domain.CapabilityExec, json.RawMessage(`{}`))
	_, err := s.Decide(second.ApprovalID, domain.ApprovalStatusDenied, "reviewer")
	require.NoError(t, err)

	all := s.List("")
	require.Len(t, all, 2)
	assert.Equal(t, first.ApprovalID, all[0].ApprovalID)

	pending := s.List(domain.ApprovalStatusPending)
	require.Len(t, pending, 1)
	assert.Equal(t, first.ApprovalID, pending[0].ApprovalID)

	assert.Empty(t, s.List(domain.ApprovalStatusApproved))
}

func TestApprovalStoreDecide(t *testing.T) {
	s := NewApprovalStore()
	rec := s.Create(domain.CapabilityWrite, json.RawMessage(`{}`))

	decided, err := s.Decide(rec.ApprovalID, domain.ApprovalStatusApproved, "reviewer")
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalStatusApproved, decided.Status)
	assert.Equal(t, "reviewer", decided.DecidedBy)
	require.NotNil(t, decided.DecidedAt)

	// Decisions are final.
	_, err = s.Decide(rec.ApprovalID, domain.ApprovalStatusDenied, "reviewer")
	assert.Equal(t, domain.KindInvalidState, domain.KindOf(err))
}

func TestApprovalStoreDecideValidation(t *testing.T) {
	s := NewApprovalStore()

	_, err := s.Decide("apr_missing", domain.ApprovalStatusApproved, "reviewer")
	assert.Equal(t, domain.KindUnknownApproval, domain.KindOf(err))

	rec := s.Create(domain.CapabilityWrite, json.RawMessage(`{}`))
	_, err = s.Decide(rec.ApprovalID, domain.ApprovalStatusPending, "reviewer")
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}
