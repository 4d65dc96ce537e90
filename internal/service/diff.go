package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/domain"
)

// ApplyDiffs writes a batch of named-file patches inside the sandbox root,
// gated by the policy gate under capability write. Under review the whole
// batch is queued as one approval and nothing is written until approved.
func (s *Service) ApplyDiffs(ctx context.Context, req domain.ApplyDiffsRequest) (*domain.ApplyDiffsResponse, error) {
	if len(req.Diffs) == 0 {
		return nil, domain.Errf(domain.KindValidation, "diffs are required")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal diff batch: %w", err)
	}
	decision, err := s.enforce(ctx, domain.CapabilityWrite, payload, req.SessionID)
	if err != nil {
		return nil, err
	}
	if !decision.proceed {
		return &domain.ApplyDiffsResponse{
			Status:     "pending",
			ApprovalID: decision.approvalID,
		}, nil
	}
	return s.applyDiffsNow(req), nil
}

// applyDiffsNow is the auto-path executor, also used verbatim when an
// approval replays the batch. Failures are per-path: a rejected path never
// aborts its siblings.
func (s *Service) applyDiffsNow(req domain.ApplyDiffsRequest) *domain.ApplyDiffsResponse {
	resp := &domain.ApplyDiffsResponse{Status: "applied"}
	for _, diff := range req.Diffs {
		result := domain.DiffResult{Path: diff.Path}
		if err := s.writeDiff(req, diff); err != nil {
			result.Error = err.Error()
			resp.Failed++
		} else {
			result.Applied = true
			resp.Applied++
		}
		resp.Results = append(resp.Results, result)
	}
	return resp
}

func (s *Service) writeDiff(req domain.ApplyDiffsRequest, diff domain.FileDiff) error {
	rel, err := sandboxRelPath(diff.Path)
	if err != nil {
		return err
	}
	target := filepath.Join(s.config.SandboxRoot, rel)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create parent dirs: %w", err)
	}
	content := strings.Join(diff.Hunks, "\n")
	if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	s.recordEvent(domain.TopicFileWrite, req.SessionID, domain.FileWritePayload{
		ProjectID: req.ProjectID,
		SessionID: req.SessionID,
		Path:      rel,
		Bytes:     len(content),
		Message:   req.Message,
	}.AsMap())
	return nil
}

// sandboxRelPath normalizes a diff path and rejects anything that would
// escape the sandbox root: absolute paths, traversal, or paths that
// normalize to nothing.
func sandboxRelPath(p string) (string, error) {
	if p == "" {
		return "", domain.Errf(domain.KindPathTraversal, "empty path")
	}
	if filepath.IsAbs(p) || strings.HasPrefix(p, "/") {
		return "", domain.Errf(domain.KindPathTraversal, "absolute path %q", p)
	}
	clean := filepath.Clean(p)
	if clean == "." || clean == ".." || clean == "" {
		return "", domain.Errf(domain.KindPathTraversal, "path %q resolves to the sandbox root", p)
	}
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", domain.Errf(domain.KindPathTraversal, "path %q escapes the sandbox", p)
	}
	return clean, nil
}
