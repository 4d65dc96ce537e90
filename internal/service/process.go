package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/domain"
	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/runner"
)

// processActor tags events emitted by the process runner itself.
const processActor = "process-runner"

// RunProcess spawns an external command on behalf of a new run. Malformed
// commands are hard failures; a process that fails after spawning is a
// normal terminal state surfaced through run events, not an error to this
// caller.
func (s *Service) RunProcess(ctx context.Context, req domain.RunProcessRequest) (*domain.RunProcessResponse, error) {
	if req.Command == "" {
		return nil, domain.Errf(domain.KindValidation, "command is required")
	}
	argv, err := runner.Tokenize(req.Command)
	if err != nil {
		return nil, err
	}
	if err := runner.CheckAllowed(argv[0], s.config.AllowedCommands); err != nil {
		return nil, err
	}

	runID := "run_" + uuid.New().String()[:8]
	actor := req.SessionID
	if actor == "" {
		actor = processActor
	}

	s.recordEvent(domain.TopicRunStart, actor, domain.RunStartPayload{
		RunID:     runID,
		ProjectID: req.ProjectID,
		Summary:   req.Command,
	}.AsMap())

	spec := runner.Spec{Argv: argv, Cwd: req.Cwd, Env: req.Env}
	onChunk := func(stream, data string) {
		topic := domain.TopicRunOut
		if stream == "err" {
			topic = domain.TopicRunErr
		}
		s.recordEvent(topic, actor, domain.RunChunkPayload{
			RunID:     runID,
			ProjectID: req.ProjectID,
			Chunk:     data,
		}.AsMap())
	}
	onExit := func(exit runner.Exit) {
		status := domain.RunStatusError
		if exit.Code != nil && *exit.Code == 0 {
			status = domain.RunStatusOK
		}
		durMs := float64(exit.Duration) / float64(time.Millisecond)
		s.recordEvent(domain.TopicRunEnd, actor, domain.RunEndPayload{
			RunID:      runID,
			ProjectID:  req.ProjectID,
			Status:     status,
			ExitCode:   exit.Code,
			DurationMs: &durMs,
		}.AsMap())
	}

	pid, err := s.runner.Start(ctx, runID, spec, onChunk, onExit)
	if err != nil {
		// Spawn failure: the run ends in error through the normal event
		// path.
		s.recordEvent(domain.TopicRunEnd, actor, domain.RunEndPayload{
			RunID:     runID,
			ProjectID: req.ProjectID,
			Status:    domain.RunStatusError,
			Summary:   err.Error(),
		}.AsMap())
		return &domain.RunProcessResponse{RunID: runID}, nil
	}

	return &domain.RunProcessResponse{RunID: runID, PID: pid}, nil
}

// CancelRun cancels a run: a live process is signaled and the run is marked
// cancelled immediately, without waiting for the process to die. Cancelling
// an unknown or already-terminal run is a no-op.
func (s *Service) CancelRun(runID string) {
	if s.runner.Cancel(runID) {
		s.emitCancelled(runID)
		return
	}
	run := s.runs.Get(runID)
	if run == nil || run.Status.IsTerminal() {
		return
	}
	s.emitCancelled(runID)
}

func (s *Service) emitCancelled(runID string) {
	run := s.runs.Get(runID)
	projectID := ""
	if run != nil {
		projectID = run.ProjectID
	}
	payload := domain.RunEndPayload{
		RunID:     runID,
		ProjectID: projectID,
		Status:    domain.RunStatusCancelled,
	}.AsMap()
	payload["exit_code"] = nil
	s.recordEvent(domain.TopicRunEnd, processActor, payload)
}
