package supervisor

import (
	"context"
	"fmt"
	"time"

	"github.com/go-initd/initd/internal/config"
	"github.com/go-initd/initd/internal/process"
	"github.com/go-initd/initd/internal/registry"
)

// seedRunlevel loads the inittab and inserts every declaration whose
// runlevel matches n as a fresh Stopped record.
func (l *Loop) seedRunlevel(n int) error {
	result, err := config.Load(l.configPath)
	if err != nil {
		return err
	}
	for _, skipped := range result.Skipped {
		l.warn(skipped.Error())
	}

	l.declarations = make(map[string]config.Declaration)
	for _, decl := range result.Declarations {
		l.declarations[decl.Command] = decl
		if decl.Runlevel != n {
			continue
		}
		rec := registry.NewRecord(decl.Command, decl.Runlevel, decl.Dependencies, decl.MemoryLimitBytes, decl.CPUQuotaPercent)
		if err := l.reg.Insert(rec); err != nil {
			l.errorf(fmt.Sprintf("%s: %v", decl.Command, err))
		}
	}
	return nil
}

// handleRunlevelSwitch validates n, drains the current runlevel, and
// reseeds at n. Invariant 5: current_runlevel changes only here, and
// only after every live record has been drained to Stopped first.
// Invariant 6: BeginRunlevelTransition refuses a concurrent switch.
func (l *Loop) handleRunlevelSwitch(ctx context.Context, n int) error {
	if n < 0 || n >= l.tunables.MaxRunlevels {
		l.warn(fmt.Sprintf("invalid runlevel switch target %d", n))
		return fmt.Errorf("invalid runlevel %d", n)
	}
	if !l.reg.BeginRunlevelTransition() {
		return fmt.Errorf("runlevel transition already in progress")
	}

	l.drainAndWait(ctx)
	l.reg.EndRunlevelTransition(n)
	l.info(fmt.Sprintf("switched to runlevel %d", n))

	if err := l.seedRunlevel(n); err != nil {
		l.errorf(fmt.Sprintf("reseed at runlevel %d: %v", n, err))
		return err
	}
	l.handleHealthTick(ctx)
	return nil
}

// shutdown drains every live record and returns the process exit code.
// Per §5's cancellation rule, non-ChildExit events already queued are
// discarded first so nothing new is started while shutting down.
func (l *Loop) shutdown(ctx context.Context) int {
	l.drainPendingNonChildExit()
	l.drainAndWait(ctx)
	l.info("shutdown complete")
	return 0
}

// drainPendingNonChildExit empties the queue of everything except
// ChildExit events, which are still applied so the registry reflects
// reality before the drain-and-wait below signals anything twice.
func (l *Loop) drainPendingNonChildExit() {
	for {
		select {
		case ev := <-l.queue:
			if ev.Kind == EventChildExit {
				l.handleChildExit(ev)
			} else {
				reply(ev, Reply{Err: fmt.Errorf("supervisor is shutting down")})
			}
		default:
			return
		}
	}
}

// drainAndWait marks every Running record Stopping, signals SIGTERM,
// waits up to the configured grace period for them to be reaped, and
// SIGKILLs any stragglers.
func (l *Loop) drainAndWait(ctx context.Context) {
	live := l.reg.Drain()
	if len(live) == 0 {
		return
	}

	pending := make(map[int]string, len(live))
	for _, lr := range live {
		pending[lr.PID] = lr.Command
		l.signalOne(lr.PID, "SIGTERM")
	}

	deadline := time.Now().Add(l.tunables.GracePeriod)
	for len(pending) > 0 && time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
		case <-time.After(50 * time.Millisecond):
		}
		for _, exit := range process.ReapAll() {
			if command, ok := pending[exit.PID]; ok {
				if _, err := l.reg.SetExited(exit.PID, exit.ExitCode); err == nil {
					l.info(fmt.Sprintf("%s stopped pid=%d", command, exit.PID))
				}
				delete(pending, exit.PID)
			}
		}
	}

	for pid, command := range pending {
		l.warn(fmt.Sprintf("%s did not exit within grace period, sending SIGKILL", command))
		l.signalOne(pid, "SIGKILL")
	}
	if len(pending) == 0 {
		return
	}

	time.Sleep(100 * time.Millisecond)
	for _, exit := range process.ReapAll() {
		if _, ok := pending[exit.PID]; ok {
			_, _ = l.reg.SetExited(exit.PID, exit.ExitCode)
			delete(pending, exit.PID)
		}
	}
}

func (l *Loop) signalOne(pid int, name string) {
	if l.kernel == nil || l.kernel.Signals == nil {
		return
	}
	sig, ok := l.kernel.Signals.SignalByName(name)
	if !ok {
		return
	}
	_ = l.kernel.Signals.Forward(pid, sig)
}
