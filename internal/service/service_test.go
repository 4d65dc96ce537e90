package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/broadcast"
	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/config"
	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/domain"
	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/runner"
	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/schedule"
	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/store"
	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/policy"
)

// newTestService wires a full runtime against a temp sandbox. The default
// mode is dev, where writes are auto-approved.
func newTestService(t *testing.T) *Service {
	t.Helper()
	return newTestServiceWithConfig(t, &config.Config{
		SandboxRoot: t.TempDir(),
		DefaultMode: "dev",
	})
}

func newTestServiceWithConfig(t *testing.T, cfg *config.Config) *Service {
	t.Helper()

	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	require.NoError(t, err)

	svc := New(
		store.NewEventLog(),
		store.NewRunStore(),
		store.NewTraceStore(),
		store.NewApprovalStore(),
		engine,
		runner.New(4),
		broadcast.NewHub(64),
		schedule.New(nil),
		cfg,
	)
	svc.WireSubscriptions()
	t.Cleanup(svc.Close)
	return svc
}

// waitForTerminal polls until the run leaves its running state.
func waitForTerminal(t *testing.T, svc *Service, runID string) *domain.Run {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if run := svc.GetRun(runID); run != nil && run.Status.IsTerminal() {
			return run
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("run %s never reached a terminal state", runID)
	return nil
}

func TestWireSubscriptionsForwardsToHub(t *testing.T) {
	svc := newTestService(t)
	frames, unsub := svc.hub.Subscribe()
	defer unsub()

	_, err := svc.StartRun(domain.StartRunRequest{RunID: "r1", Summary: "hello"})
	require.NoError(t, err)

	select {
	case frame := <-frames:
		assert.Equal(t, domain.TopicRunStart, frame.Kind)
		ev, ok := frame.Data.(*domain.Event)
		require.True(t, ok)
		assert.Equal(t, "r1", ev.RunID())
	case <-time.After(time.Second):
		t.Fatal("no frame reached the hub")
	}
}

func TestCloseStopsSubscriptions(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.StartRun(domain.StartRunRequest{RunID: "r1", Summary: "first"})
	require.NoError(t, err)

	svc.Close()

	// The log still accepts events, but the run manager no longer follows.
	svc.recordEvent(domain.TopicRunStart, "", map[string]any{"run_id": "r2", "summary": "orphan"})
	assert.Nil(t, svc.GetRun("r2"))
	assert.Equal(t, 2, svc.EventCount())
}

func TestUnknownDefaultModeFallsBackToDev(t *testing.T) {
	svc := newTestServiceWithConfig(t, &config.Config{
		SandboxRoot: t.TempDir(),
		DefaultMode: "mystery",
	})
	assert.Equal(t, domain.ModeDev, svc.Policy().Mode)
}
