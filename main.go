package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/broadcast"
	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/config"
	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/runner"
	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/schedule"
	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/service"
	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/store"
	handler "github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/transport/http"
	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/policy"
)

func main() {
	cfg := config.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	slog.Info("starting prism runtime",
		"http_port", cfg.HTTPPort,
		"sandbox_root", cfg.SandboxRoot,
		"mode", cfg.DefaultMode,
	)

	// Stores
	eventLog := store.NewEventLog(store.WithEventRetention(cfg.EventMaxAge, cfg.EventMaxCount))
	runs := store.NewRunStore()
	traces := store.NewTraceStore(store.WithTraceRetention(cfg.TraceMaxAge, cfg.TraceMaxCount))
	approvals := store.NewApprovalStore()

	// Policy engine
	ctx := context.Background()
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		slog.Error("failed to initialize policy engine", "error", err)
		os.Exit(1)
	}

	procRunner := runner.New(cfg.MaxProcesses)
	hub := broadcast.NewHub(0)
	scheduler := schedule.New(nil)

	svc := service.New(eventLog, runs, traces, approvals, policyEngine, procRunner, hub, scheduler, cfg)
	svc.WireSubscriptions()
	defer svc.Close()

	// Retention sweeps
	janitor := store.NewJanitor(cfg.SweepInterval)
	janitor.Register("events", eventLog)
	janitor.Register("traces", traces)
	if err := janitor.Start(); err != nil {
		slog.Error("failed to start retention janitor", "error", err)
		os.Exit(1)
	}
	defer janitor.Stop()

	srv := handler.NewServer(hub)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := srv.Start(addr); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("event stream started", "port", cfg.HTTPPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down prism runtime")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("failed to shutdown server gracefully", "error", err)
	}

	slog.Info("prism runtime stopped")
}
