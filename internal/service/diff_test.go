package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/config"
	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/domain"
	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/store"
)

func TestApplyDiffsAutoMode(t *testing.T) {
	svc := newTestService(t) // dev: write is auto
	ctx := context.Background()

	resp, err := svc.ApplyDiffs(ctx, domain.ApplyDiffsRequest{
		SessionID: "s1",
		Diffs: []domain.FileDiff{
			{Path: "src/app.go", Hunks: []string{"package app", "", "var V = 1"}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "applied", resp.Status)
	assert.Equal(t, 1, resp.Applied)
	assert.Equal(t, 0, resp.Failed)
	require.Len(t, resp.Results, 1)
	assert.True(t, resp.Results[0].Applied)

	content, err := os.ReadFile(filepath.Join(svc.config.SandboxRoot, "src", "app.go"))
	require.NoError(t, err)
	assert.Equal(t, "package app\n\nvar V = 1", string(content))

	writes := svc.Events(store.EventQuery{Topic: domain.TopicFileWrite})
	require.Len(t, writes, 1)
	assert.Equal(t, "src/app.go", writes[0].Payload["path"])
}

func TestApplyDiffsRejectsTraversalPerPath(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	resp, err := svc.ApplyDiffs(ctx, domain.ApplyDiffsRequest{
		Diffs: []domain.FileDiff{
			{Path: "ok.txt", Hunks: []string{"fine"}},
			{Path: "../escape.txt", Hunks: []string{"nope"}},
			{Path: "/etc/passwd", Hunks: []string{"nope"}},
			{Path: "nested/../../escape.txt", Hunks: []string{"nope"}},
			{Path: "also/ok.txt", Hunks: []string{"fine"}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Applied)
	assert.Equal(t, 3, resp.Failed)

	// Siblings of a rejected path still apply.
	assert.FileExists(t, filepath.Join(svc.config.SandboxRoot, "ok.txt"))
	assert.FileExists(t, filepath.Join(svc.config.SandboxRoot, "also", "ok.txt"))
	assert.NoFileExists(t, filepath.Join(filepath.Dir(svc.config.SandboxRoot), "escape.txt"))

	for _, r := range resp.Results[1:4] {
		assert.False(t, r.Applied)
		assert.NotEmpty(t, r.Error)
	}
}

func TestApplyDiffsValidation(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.ApplyDiffs(context.Background(), domain.ApplyDiffsRequest{})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestApplyDiffsReviewQueuesApproval(t *testing.T) {
	svc := newTestServiceWithConfig(t, &config.Config{
		SandboxRoot: t.TempDir(),
		DefaultMode: "prod", // write requires review
	})
	ctx := context.Background()

	resp, err := svc.ApplyDiffs(ctx, domain.ApplyDiffsRequest{
		SessionID: "s1",
		Diffs:     []domain.FileDiff{{Path: "guarded.txt", Hunks: []string{"queued"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "pending", resp.Status)
	require.NotEmpty(t, resp.ApprovalID)

	// Nothing on disk and no file.write event until approval.
	assert.NoFileExists(t, filepath.Join(svc.config.SandboxRoot, "guarded.txt"))
	assert.Empty(t, svc.Events(store.EventQuery{Topic: domain.TopicFileWrite}))

	// The deferral itself is observable as a plan event.
	plans := svc.Events(store.EventQuery{Topic: domain.TopicPlan})
	require.Len(t, plans, 1)
	assert.Equal(t, resp.ApprovalID, plans[0].Payload["approval_id"])

	pending, err := svc.ListApprovals("pending")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, resp.ApprovalID, pending[0].ApprovalID)
	assert.Equal(t, domain.CapabilityWrite, pending[0].Capability)
}

func TestApproveReplaysDiffBatch(t *testing.T) {
	svc := newTestServiceWithConfig(t, &config.Config{
		SandboxRoot: t.TempDir(),
		DefaultMode: "prod",
	})
	ctx := context.Background()

	queued, err := svc.ApplyDiffs(ctx, domain.ApplyDiffsRequest{
		SessionID: "s1",
		Diffs:     []domain.FileDiff{{Path: "approved.txt", Hunks: []string{"landed"}}},
	})
	require.NoError(t, err)

	decided, err := svc.DecideApproval(ctx, domain.DecideApprovalRequest{
		ApprovalID: queued.ApprovalID,
		Decision:   "approve",
		DecidedBy:  "reviewer",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalStatusApproved, decided.Approval.Status)
	assert.Equal(t, "reviewer", decided.Approval.DecidedBy)

	result, ok := decided.Result.(*domain.ApplyDiffsResponse)
	require.True(t, ok)
	assert.Equal(t, 1, result.Applied)

	content, err := os.ReadFile(filepath.Join(svc.config.SandboxRoot, "approved.txt"))
	require.NoError(t, err)
	assert.Equal(t, "landed", string(content))
	assert.Len(t, svc.Events(store.EventQuery{Topic: domain.TopicFileWrite}), 1)
}

func TestDenyLeavesSandboxUntouched(t *testing.T) {
	svc := newTestServiceWithConfig(t, &config.Config{
		SandboxRoot: t.TempDir(),
		DefaultMode: "prod",
	})
	ctx := context.Background()

	queued, err := svc.ApplyDiffs(ctx, domain.ApplyDiffsRequest{
		Diffs: []domain.FileDiff{{Path: "denied.txt", Hunks: []string{"never"}}},
	})
	require.NoError(t, err)

	decided, err := svc.DecideApproval(ctx, domain.DecideApprovalRequest{
		ApprovalID: queued.ApprovalID,
		Decision:   "deny",
		DecidedBy:  "reviewer",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalStatusDenied, decided.Approval.Status)
	assert.Nil(t, decided.Result)
	assert.NoFileExists(t, filepath.Join(svc.config.SandboxRoot, "denied.txt"))

	// Denied is final.
	_, err = svc.DecideApproval(ctx, domain.DecideApprovalRequest{
		ApprovalID: queued.ApprovalID,
		Decision:   "approve",
	})
	assert.Equal(t, domain.KindInvalidState, domain.KindOf(err))
}

func TestForbiddenWriteFailsClosed(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.UpdatePolicy(domain.UpdatePolicyRequest{
		Approvals: map[string]string{"write": "forbid"},
	})
	require.NoError(t, err)

	_, err = svc.ApplyDiffs(ctx, domain.ApplyDiffsRequest{
		Diffs: []domain.FileDiff{{Path: "blocked.txt", Hunks: []string{"no"}}},
	})
	assert.Equal(t, domain.KindPolicyDenied, domain.KindOf(err))
	assert.NoFileExists(t, filepath.Join(svc.config.SandboxRoot, "blocked.txt"))
	assert.Empty(t, svc.ListRuns(domain.ListRunsQuery{}))

	// No approval record is opened for a forbidden action.
	all, err := svc.ListApprovals("")
	require.NoError(t, err)
	assert.Empty(t, all)
}
