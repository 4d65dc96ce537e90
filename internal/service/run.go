package service

import (
	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/domain"
)

// StartRun begins tracking a new run. The request must carry run_id and
// summary; everything else defaults.
func (s *Service) StartRun(req domain.StartRunRequest) (*domain.Run, error) {
	if req.RunID == "" {
		return nil, domain.Errf(domain.KindValidation, "run_id is required")
	}
	if req.Summary == "" {
		return nil, domain.Errf(domain.KindValidation, "summary is required")
	}
	status, err := domain.ParseRunStatus(req.Status)
	if err != nil {
		return nil, domain.Errf(domain.KindValidation, "%v", err)
	}

	s.recordEvent(domain.TopicRunStart, req.Actor, domain.RunStartPayload{
		RunID:     req.RunID,
		ProjectID: req.ProjectID,
		Summary:   req.Summary,
		Status:    status,
		Ctx:       req.Ctx,
	}.AsMap())

	return s.runs.Get(req.RunID), nil
}

// EndRun moves a run to a terminal status, defaulting to ok.
func (s *Service) EndRun(req domain.EndRunRequest) (*domain.Run, error) {
	if req.RunID == "" {
		return nil, domain.Errf(domain.KindValidation, "run_id is required")
	}
	status, err := domain.ParseRunStatus(req.Status)
	if err != nil {
		return nil, domain.Errf(domain.KindValidation, "%v", err)
	}
	if status == domain.RunStatusRunning {
		status = domain.RunStatusOK
	}
	if s.runs.Get(req.RunID) == nil {
		return nil, domain.Errf(domain.KindUnknownRun, "run %s not found", req.RunID)
	}

	s.recordEvent(domain.TopicRunEnd, req.Actor, domain.RunEndPayload{
		RunID:     req.RunID,
		ProjectID: req.ProjectID,
		Status:    status,
		Summary:   req.Summary,
		Ctx:       req.Ctx,
	}.AsMap())

	return s.runs.Get(req.RunID), nil
}

// FailRun is EndRun with status forced to error.
func (s *Service) FailRun(req domain.EndRunRequest) (*domain.Run, error) {
	req.Status = string(domain.RunStatusError)
	return s.EndRun(req)
}

// AppendRunEvent records an arbitrary-topic event against an existing run.
func (s *Service) AppendRunEvent(runID, topic, actor string, payload map[string]any) (*domain.Event, error) {
	if runID == "" {
		return nil, domain.Errf(domain.KindValidation, "run_id is required")
	}
	if topic == "" {
		return nil, domain.Errf(domain.KindValidation, "topic is required")
	}
	if s.runs.Get(runID) == nil {
		return nil, domain.Errf(domain.KindUnknownRun, "run %s not found", runID)
	}
	if payload == nil {
		payload = make(map[string]any, 1)
	}
	payload["run_id"] = runID
	return s.recordEvent(topic, actor, payload), nil
}

// ListRuns returns runs most-recent-first, optionally filtered by project.
func (s *Service) ListRuns(q domain.ListRunsQuery) []*domain.Run {
	return s.runs.List(q)
}

// GetRun returns one run, or nil when unknown.
func (s *Service) GetRun(runID string) *domain.Run {
	return s.runs.Get(runID)
}
