package service

import (
	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/domain"
)

// IngestTrace merges spans into a trace record and returns the updated
// trace.
func (s *Service) IngestTrace(req domain.IngestTraceRequest) (*domain.Trace, error) {
	if req.TraceID == "" {
		return nil, domain.Errf(domain.KindValidation, "trace_id is required")
	}
	if len(req.Spans) == 0 {
		return nil, domain.Errf(domain.KindValidation, "spans are required")
	}
	for i, sp := range req.Spans {
		if sp == nil || sp.SpanID == "" {
			return nil, domain.Errf(domain.KindValidation, "span %d has no span_id", i)
		}
	}
	return s.traces.Ingest(req.TraceID, req.Spans)
}

// GetTrace returns one trace.
func (s *Service) GetTrace(traceID string) (*domain.Trace, error) {
	tr := s.traces.Get(traceID)
	if tr == nil {
		return nil, domain.Errf(domain.KindUnknownTrace, "trace %s not found", traceID)
	}
	return tr, nil
}

// ListTraces filters and paginates stored traces.
func (s *Service) ListTraces(q domain.ListTracesQuery) *domain.TracePage {
	return s.traces.List(q)
}

// TraceTree reconstructs the call forest of one trace.
func (s *Service) TraceTree(traceID string) ([]*domain.TraceNode, error) {
	return s.traces.Tree(traceID)
}
