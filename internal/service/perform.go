package service

import (
	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/domain"
	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/schedule"
)

// Perform builds the broadcast timeline for a sequence of say items under
// the current session settings and emits it as one timeline event.
func (s *Service) Perform(req domain.PerformRequest) (*domain.PerformResponse, error) {
	if len(req.Items) == 0 {
		return nil, domain.Errf(domain.KindValidation, "items are required")
	}
	for i, item := range req.Items {
		if item.Text == "" {
			return nil, domain.Errf(domain.KindValidation, "item %d has no text", i)
		}
		if item.AtMs != nil && *item.AtMs < 0 {
			return nil, domain.Errf(domain.KindValidation, "item %d has a negative offset", i)
		}
	}

	s.sessionMu.Lock()
	sess := s.session
	s.sessionMu.Unlock()

	timeline := s.scheduler.BuildSchedule(req.Items, sess)
	metrics := schedule.EstimateMetrics(timeline)

	s.recordEvent(domain.TopicTimeline, req.Actor, domain.TimelinePayload{
		ProjectID: req.ProjectID,
		Timeline:  timeline,
		Metrics:   metrics,
	}.AsMap())

	return &domain.PerformResponse{Timeline: timeline, Metrics: metrics}, nil
}
