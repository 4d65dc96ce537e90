package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/config"
	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/domain"
	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/store"
)

func TestRunProcessHappyPath(t *testing.T) {
	svc := newTestService(t)

	resp, err := svc.RunProcess(context.Background(), domain.RunProcessRequest{
		SessionID: "s1",
		Command:   "echo hi",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.RunID)
	assert.Greater(t, resp.PID, 0)

	run := waitForTerminal(t, svc, resp.RunID)
	assert.Equal(t, domain.RunStatusOK, run.Status)
	assert.Equal(t, "echo hi", run.Summary)

	// Output arrived as run.out chunks carrying the run id.
	deadline := time.Now().Add(2 * time.Second)
	var stdout string
	for time.Now().Before(deadline) {
		var b strings.Builder
		for _, ev := range svc.Events(store.EventQuery{Topic: domain.TopicRunOut}) {
			if ev.RunID() == resp.RunID {
				chunk, _ := ev.Payload["chunk"].(string)
				b.WriteString(chunk)
			}
		}
		stdout = b.String()
		if stdout != "" {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, "hi\n", stdout)

	ends := svc.Events(store.EventQuery{Topic: domain.TopicRunEnd})
	require.Len(t, ends, 1)
	assert.Equal(t, 0, ends[0].Payload["exit_code"])
	assert.NotNil(t, ends[0].Payload["duration_ms"])
}

func TestRunProcessNonZeroExit(t *testing.T) {
	svc := newTestService(t)

	resp, err := svc.RunProcess(context.Background(), domain.RunProcessRequest{
		Command: "sh -c 'exit 7'",
	})
	require.NoError(t, err)

	run := waitForTerminal(t, svc, resp.RunID)
	assert.Equal(t, domain.RunStatusError, run.Status)

	ends := svc.Events(store.EventQuery{Topic: domain.TopicRunEnd})
	require.Len(t, ends, 1)
	assert.Equal(t, 7, ends[0].Payload["exit_code"])
}

func TestRunProcessCommandValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.RunProcess(ctx, domain.RunProcessRequest{})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = svc.RunProcess(ctx, domain.RunProcessRequest{Command: `echo "broken`})
	assert.Equal(t, domain.KindInvalidCommand, domain.KindOf(err))

	// No run record exists for a rejected command.
	assert.Empty(t, svc.ListRuns(domain.ListRunsQuery{}))
}

func TestRunProcessAllowList(t *testing.T) {
	svc := newTestServiceWithConfig(t, &config.Config{
		SandboxRoot:     t.TempDir(),
		DefaultMode:     "dev",
		AllowedCommands: []string{"echo"},
	})
	ctx := context.Background()

	_, err := svc.RunProcess(ctx, domain.RunProcessRequest{Command: "rm -rf /"})
	assert.Equal(t, domain.KindCommandNotAllowed, domain.KindOf(err))

	resp, err := svc.RunProcess(ctx, domain.RunProcessRequest{Command: "echo allowed"})
	require.NoError(t, err)
	waitForTerminal(t, svc, resp.RunID)
}

func TestRunProcessSpawnFailureEndsRun(t *testing.T) {
	svc := newTestService(t)

	resp, err := svc.RunProcess(context.Background(), domain.RunProcessRequest{
		Command: "/nonexistent/binary --flag",
	})
	require.NoError(t, err)
	assert.Zero(t, resp.PID)

	run := svc.GetRun(resp.RunID)
	require.NotNil(t, run)
	assert.Equal(t, domain.RunStatusError, run.Status)
}

func TestCancelRunKillsLiveProcess(t *testing.T) {
	svc := newTestService(t)

	resp, err := svc.RunProcess(context.Background(), domain.RunProcessRequest{
		Command: "sleep 30",
	})
	require.NoError(t, err)

	svc.CancelRun(resp.RunID)

	run := svc.GetRun(resp.RunID)
	require.NotNil(t, run)
	assert.Equal(t, domain.RunStatusCancelled, run.Status)
	require.NotNil(t, run.EndedAt)

	// The cancelled end event reports a null exit code.
	ends := svc.Events(store.EventQuery{Topic: domain.TopicRunEnd})
	require.Len(t, ends, 1)
	code, present := ends[0].Payload["exit_code"]
	assert.True(t, present)
	assert.Nil(t, code)

	// Even if the process exits afterwards, cancelled sticks.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, domain.RunStatusCancelled, svc.GetRun(resp.RunID).Status)
}

func TestCancelRunWithoutProcess(t *testing.T) {
	svc := newTestService(t)

	// Unknown runs are a no-op.
	svc.CancelRun("r404")
	assert.Equal(t, 0, svc.EventCount())

	// A tracked run without a live process is still cancellable.
	_, err := svc.StartRun(domain.StartRunRequest{RunID: "r1", Summary: "manual"})
	require.NoError(t, err)
	svc.CancelRun("r1")
	assert.Equal(t, domain.RunStatusCancelled, svc.GetRun("r1").Status)

	// Cancelling a finished run changes nothing.
	_, err = svc.StartRun(domain.StartRunRequest{RunID: "r2", Summary: "done"})
	require.NoError(t, err)
	_, err = svc.EndRun(domain.EndRunRequest{RunID: "r2"})
	require.NoError(t, err)
	svc.CancelRun("r2")
	assert.Equal(t, domain.RunStatusOK, svc.GetRun("r2").Status)
}
