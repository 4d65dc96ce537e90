// Package service implements the Prism runtime's command layer: every
// operation the transport exposes is a method on Service.
package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/broadcast"
	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/config"
	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/domain"
	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/runner"
	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/schedule"
	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/store"
	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/policy"
)

// Service owns the runtime's stores and coordinates every command. Stores
// are explicit handles, so tests construct isolated runtimes freely.
type Service struct {
	log       *store.EventLog
	runs      *store.RunStore
	traces    *store.TraceStore
	approvals *store.ApprovalStore
	engine    *policy.Engine
	runner    *runner.Runner
	hub       *broadcast.Hub
	scheduler *schedule.Engine
	config    *config.Config

	policyMu     sync.Mutex
	policyConfig *domain.PolicyConfig

	sessionMu    sync.Mutex
	session      domain.SessionState
	sessionEpoch time.Time
	pendingTheme *time.Timer

	unsubscribe []func()
}

// New wires a Service. The default mode comes from config; an unknown
// configured mode falls back to dev.
func New(
	log *store.EventLog,
	runs *store.RunStore,
	traces *store.TraceStore,
	approvals *store.ApprovalStore,
	engine *policy.Engine,
	procRunner *runner.Runner,
	hub *broadcast.Hub,
	scheduler *schedule.Engine,
	cfg *config.Config,
) *Service {
	mode, err := domain.ParseMode(cfg.DefaultMode)
	if err != nil {
		slog.Warn("unknown default mode, using dev", "mode", cfg.DefaultMode)
		mode = domain.ModeDev
	}
	return &Service{
		log:       log,
		runs:      runs,
		traces:    traces,
		approvals: approvals,
		engine:    engine,
		runner:    procRunner,
		hub:       hub,
		scheduler: scheduler,
		config:    cfg,
		policyConfig: &domain.PolicyConfig{
			Mode:      mode,
			Approvals: make(map[domain.Capability]domain.Rule),
		},
		session:      domain.DefaultSessionState(),
		sessionEpoch: time.Now(),
	}
}

// WireSubscriptions connects the event log to its derived consumers: the
// run lifecycle manager and the broadcast hub. Called once at startup,
// after construction, so no store subscribes from inside its own
// constructor.
func (s *Service) WireSubscriptions() {
	s.unsubscribe = append(s.unsubscribe,
		s.log.Subscribe("*", s.routeRunEvent),
		s.log.Subscribe("*", func(e *domain.Event) {
			s.hub.Publish(domain.StreamEvent{ID: e.EventID, Kind: e.Topic, Data: e})
		}),
	)
}

// routeRunEvent keeps run records in sync with the log. Command-path
// validation happens before events are appended, so failures here are
// stray events, logged and dropped.
func (s *Service) routeRunEvent(e *domain.Event) {
	switch e.Topic {
	case domain.TopicRunStart:
		if err := s.runs.StartRun(e); err != nil {
			slog.Warn("run.start rejected", "event_id", e.EventID, "error", err)
		}
	case domain.TopicRunEnd:
		if err := s.runs.EndRun(e); err != nil {
			slog.Warn("run.end rejected", "event_id", e.EventID, "error", err)
		}
	default:
		runID := e.RunID()
		if runID == "" {
			return
		}
		if err := s.runs.AppendRunEvent(runID, e); err != nil {
			slog.Debug("event for unknown run dropped", "run_id", runID, "topic", e.Topic)
		}
	}
}

// Close stops background work owned by the service: subscriptions and any
// pending bar-locked theme change.
func (s *Service) Close() {
	for _, unsub := range s.unsubscribe {
		unsub()
	}
	s.unsubscribe = nil

	s.sessionMu.Lock()
	if s.pendingTheme != nil {
		s.pendingTheme.Stop()
		s.pendingTheme = nil
	}
	s.sessionMu.Unlock()
}
