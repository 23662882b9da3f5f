package supervisor

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-initd/initd/internal/config"
	"github.com/go-initd/initd/internal/registry"
)

// ErrNotFound is returned by Manage* operations referencing an unknown
// service name, matching the CLI's "unknown service -> not found" exit.
var ErrNotFound = errors.New("service not found")

// ErrAlreadyRunning is returned by ManageStart when the named service
// is already Running.
var ErrAlreadyRunning = errors.New("service already running")

func (l *Loop) handleChildExit(ev Event) {
	command, err := l.reg.SetExited(ev.PID, ev.ExitCode)
	if err != nil {
		// Unknown or already-retired pid: orphaned child or a crash
		// recovery case per §4.4's note on Starting being transient.
		// Dropped silently, matching the Reaper's documented behavior.
		return
	}
	l.info(fmt.Sprintf("%s exited pid=%d code=%d", command, ev.PID, ev.ExitCode))
}

// handleHealthTick restarts every record that is not Running, Starting
// or Stopping, whose
// effective restart policy is Always, and whose runlevel matches the
// current one.
func (l *Loop) handleHealthTick(ctx context.Context) {
	for _, rec := range l.reg.All() {
		if rec.State == registry.Running || rec.State == registry.Starting || rec.State == registry.Stopping {
			continue
		}
		if rec.RestartPolicy != registry.RestartAlways {
			continue
		}
		if rec.Runlevel != l.reg.CurrentRunlevel() {
			continue
		}
		l.restart(ctx, rec)
	}
}

func (l *Loop) restart(ctx context.Context, rec *registry.Record) {
	decl := config.Declaration{
		Runlevel:         rec.Runlevel,
		Command:          rec.Command,
		Dependencies:     rec.Dependencies,
		MemoryLimitBytes: rec.MemoryLimitBytes,
		CPUQuotaPercent:  rec.CPUQuotaPercent,
	}

	if err := l.reg.SetState(rec.Command, registry.Starting); err != nil {
		l.errorf(fmt.Sprintf("%s: cannot start from %s: %v", rec.Command, rec.State, err))
		return
	}

	result, err := l.spawner.StartWithRetry(ctx, decl, l.reg, l.tunables.MaxRetries, l.tunables.RetryBackoff)
	if err != nil {
		_ = l.reg.SetFailed(rec.Command, err.Error())
		l.errorf(fmt.Sprintf("%s failed to start: %v", rec.Command, err))
		return
	}

	if err := l.reg.SetRunning(rec.Command, result.PID); err != nil {
		l.errorf(fmt.Sprintf("%s: commit running failed: %v", rec.Command, err))
	}
}

// handleManageStart starts a Stopped (or Exited/Failed) service,
// respecting its dependencies, per §4.8.
func (l *Loop) handleManageStart(ctx context.Context, name string) error {
	rec, ok := l.reg.Lookup(name)
	if !ok {
		return ErrNotFound
	}
	if rec.State == registry.Running || rec.State == registry.Starting {
		return ErrAlreadyRunning
	}
	l.restart(ctx, rec)
	return nil
}

// handleManageStop stops a Running service with SIGTERM and demotes
// its effective restart policy to Never, per the resolved open
// question that manage stop should prevent an immediate health-scan
// restart. The policy is restored on the next reload or runlevel
// switch covering that service.
func (l *Loop) handleManageStop(name string) error {
	rec, ok := l.reg.Lookup(name)
	if !ok {
		return ErrNotFound
	}
	if rec.State != registry.Running {
		return nil
	}

	pid, err := l.reg.Stop(name)
	if err != nil {
		return err
	}
	if l.kernel != nil && l.kernel.Signals != nil {
		sig, _ := l.kernel.Signals.SignalByName("SIGTERM")
		_ = l.kernel.Signals.Forward(pid, sig)
	}
	return l.reg.DemoteRestartPolicy(name)
}

// handleManageStatus returns "running" or "stopped" for name, or
// ErrNotFound if the service is unknown.
func (l *Loop) handleManageStatus(name string) (string, error) {
	rec, ok := l.reg.Lookup(name)
	if !ok {
		return "", ErrNotFound
	}
	if rec.State == registry.Running {
		return "running", nil
	}
	return "stopped", nil
}
