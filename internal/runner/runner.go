package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Spec describes one process to spawn. Argv is already tokenized and
// allow-list checked.
type Spec struct {
	Argv []string
	Cwd  string
	Env  map[string]string
}

// Exit reports a finished process. Code is nil when the process was
// signaled rather than exiting on its own.
type Exit struct {
	Code     *int
	Duration time.Duration
}

// ChunkFunc receives one stdout ("out") or stderr ("err") chunk. Delivery
// is asynchronous: many chunks may arrive before the exit callback.
type ChunkFunc func(stream, data string)

// ExitFunc receives the process exit, unless the run was cancelled first.
type ExitFunc func(Exit)

// Runner owns the live process handles. A global semaphore caps how many
// spawned processes run at once.
type Runner struct {
	sem *semaphore.Weighted

	mu    sync.Mutex
	procs map[string]*exec.Cmd
}

// New creates a runner allowing up to maxProcesses concurrent commands.
func New(maxProcesses int64) *Runner {
	if maxProcesses <= 0 {
		maxProcesses = 8
	}
	return &Runner{
		sem:   semaphore.NewWeighted(maxProcesses),
		procs: make(map[string]*exec.Cmd),
	}
}

// Start spawns the process for the given run id and returns its pid. Output
// pumps and the exit callback run on their own goroutines. A spawn failure
// is returned to the caller, who reports it as a terminal run state.
func (r *Runner) Start(ctx context.Context, runID string, spec Spec, onChunk ChunkFunc, onExit ExitFunc) (int, error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return 0, fmt.Errorf("acquire process slot: %w", err)
	}

	cmd := exec.Command(spec.Argv[0], spec.Argv[1:]...)
	cmd.Dir = spec.Cwd
	if len(spec.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range spec.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		r.sem.Release(1)
		return 0, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		r.sem.Release(1)
		return 0, fmt.Errorf("stderr pipe: %w", err)
	}

	started := time.Now()
	if err := cmd.Start(); err != nil {
		r.sem.Release(1)
		return 0, fmt.Errorf("start %s: %w", spec.Argv[0], err)
	}

	r.mu.Lock()
	r.procs[runID] = cmd
	r.mu.Unlock()

	go func() {
		defer r.sem.Release(1)

		var g errgroup.Group
		g.Go(func() error { return pump("out", stdout, onChunk) })
		g.Go(func() error { return pump("err", stderr, onChunk) })
		if err := g.Wait(); err != nil {
			slog.Warn("output pump failed", "run_id", runID, "error", err)
		}

		waitErr := cmd.Wait()
		elapsed := time.Since(started)

		// If Cancel already claimed the handle, the cancelled end event
		// has been emitted and this natural exit is dropped.
		r.mu.Lock()
		live := r.procs[runID] == cmd
		if live {
			delete(r.procs, runID)
		}
		r.mu.Unlock()
		if !live {
			return
		}

		onExit(Exit{Code: exitCode(cmd, waitErr), Duration: elapsed})
	}()

	return cmd.Process.Pid, nil
}

// Cancel signals the run's process if it is still live and reports whether
// a signal was sent. Cancelling an unknown or already-exited run is a
// no-op. The kill is advisory-but-forceful: the caller marks the run
// cancelled immediately, without waiting for the process to die.
func (r *Runner) Cancel(runID string) bool {
	r.mu.Lock()
	cmd, ok := r.procs[runID]
	if ok {
		delete(r.procs, runID)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}
	if err := cmd.Process.Kill(); err != nil {
		slog.Warn("kill failed", "run_id", runID, "error", err)
	}
	return true
}

// Live reports whether the run still has a live process handle.
func (r *Runner) Live(runID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.procs[runID]
	return ok
}

// pump forwards reads as chunks until EOF.
func pump(stream string, src io.Reader, onChunk ChunkFunc) error {
	reader := bufio.NewReader(src)
	buf := make([]byte, 4096)
	for {
		n, err := reader.Read(buf)
		if n > 0 {
			onChunk(stream, string(buf[:n]))
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
				return nil
			}
			return err
		}
	}
}

func exitCode(cmd *exec.Cmd, waitErr error) *int {
	if waitErr == nil {
		code := 0
		return &code
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return &code
		}
	}
	// Signaled or never ran to completion.
	return nil
}
