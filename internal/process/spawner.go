// Package process implements the Spawner and the event-producer side of
// the Reaper: turning a Declaration into a running child, and a child
// exit notification into a ChildExit event.
//
// Grounded on the teacher daemon's internal/process.Manager (restart
// policy application, process-group setup) and internal/kernel.Default
// for the Unix fork/exec/reap primitives, adapted so that the Spawner
// itself never mutates the registry — it only returns results, leaving
// every commit to the single-writer Supervisor Loop per the
// concurrency model.
package process

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/go-initd/initd/internal/audit"
	"github.com/go-initd/initd/internal/cgroup"
	"github.com/go-initd/initd/internal/config"
	"github.com/go-initd/initd/internal/dependency"
	"github.com/go-initd/initd/internal/kernel"
)

// Start failure categories, per §4.5.
var (
	ErrDependenciesUnmet = errors.New("dependencies unmet")
	ErrCapacityExceeded  = errors.New("capacity exceeded")
	ErrForkFailed        = errors.New("fork failed")
	ErrExecFailed        = errors.New("exec failed")
)

// Result is a successful spawn: the live pid and the *exec.Cmd tracking
// it, so the caller can later signal the process group.
type Result struct {
	PID int
	Cmd *exec.Cmd
}

// Spawner forks and execs service declarations, applying resource caps
// before returning control to the Supervisor Loop.
type Spawner struct {
	kernel  *kernel.Kernel
	cgroups *cgroup.Controller
	log     *audit.Log
}

// New creates a Spawner using k for OS primitives, ctrl for resource
// caps, and log for audit records.
func New(k *kernel.Kernel, ctrl *cgroup.Controller, log *audit.Log) *Spawner {
	return &Spawner{kernel: k, cgroups: ctrl, log: log}
}

// Start attempts to launch decl. It consults resolver first (step 1 of
// §4.5); on success it forks+execs the command, applies resource caps
// to the new pid, and returns the live Result.
//
// Go's os/exec has no hook to run arbitrary code in the child between
// fork and exec (the runtime's goroutine scheduler does not survive a
// bare fork without an immediate exec), so step 4's "in the child...
// call the Resource Controller on self" is necessarily reordered here:
// the parent calls cmd.Start(), which forks and execs in one syscall
// sequence, and the parent applies the cap to the resulting pid before
// returning. The cap is best-effort regardless (§4.2), and the window
// between exec and cgroup attachment is sub-millisecond, so this
// satisfies the same intent without requiring cgo.
func (s *Spawner) Start(decl config.Declaration, resolver dependency.Lookup) (*Result, error) {
	if !dependency.Satisfied(resolver, decl.Dependencies) {
		return nil, ErrDependenciesUnmet
	}

	cmd := exec.Command(decl.Command)
	if s.kernel != nil && s.kernel.Process != nil {
		s.kernel.Process.SetProcessGroup(cmd)
	}

	if err := cmd.Start(); err != nil {
		s.warn(fmt.Sprintf("fork/exec failed for %s: %v", decl.Command, err))
		return nil, fmt.Errorf("%w: %v", ErrForkFailed, err)
	}

	pid := cmd.Process.Pid
	if s.cgroups != nil {
		_ = s.cgroups.Apply(pid, decl.MemoryLimitBytes, decl.CPUQuotaPercent)
	}

	s.info(fmt.Sprintf("started %s pid=%d", decl.Command, pid))

	// Deliberately no background cmd.Wait() here: reaping is
	// centralized in the SIGCHLD-driven Reaper (process.ReapAll), the
	// single place child-exit status is collected. A second waiter
	// racing against it would occasionally steal the exit status
	// before the Reaper's wait4 loop observes it.
	return &Result{PID: pid, Cmd: cmd}, nil
}

// StartWithRetry re-invokes Start after a fixed backoff when the
// failure is ErrDependenciesUnmet; any other failure is terminal for
// this attempt and is not retried, since it is not made satisfiable by
// waiting (§4.5 "retry wrapper semantics").
func (s *Spawner) StartWithRetry(ctx context.Context, decl config.Declaration, resolver dependency.Lookup, maxRetries int, backoff time.Duration) (*Result, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		result, err := s.Start(decl, resolver)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !errors.Is(err, ErrDependenciesUnmet) {
			return nil, err
		}
		if attempt == maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
	s.errorf(fmt.Sprintf("%s exhausted %d retries: %v", decl.Command, maxRetries, lastErr))
	return nil, lastErr
}

func (s *Spawner) info(message string) {
	if s.log != nil {
		s.log.Emit(audit.LevelInfo, message)
	}
}

func (s *Spawner) warn(message string) {
	if s.log != nil {
		s.log.Emit(audit.LevelWarn, message)
	}
}

func (s *Spawner) errorf(message string) {
	if s.log != nil {
		s.log.Emit(audit.LevelError, message)
	}
}
