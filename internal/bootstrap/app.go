package bootstrap

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/go-initd/initd/internal/audit"
	"github.com/go-initd/initd/internal/config"
	"github.com/go-initd/initd/internal/control"
	"github.com/go-initd/initd/internal/kernel"
	"github.com/go-initd/initd/internal/process"
	"github.com/go-initd/initd/internal/supervisor"
)

// App is the root object of the dependency graph: everything
// cmd/initd/main.go needs to boot and run the supervisor.
type App struct {
	Loop            *supervisor.Loop
	ControlListener *control.Listener
	AuditLog        *audit.Log
	Kernel          *kernel.Kernel
}

// New hand-assembles the dependency graph without running the Wire
// codegen tool, using the same Provide* functions wire.go's injector
// would call.
func New(inittabPath string) (*App, error) {
	tunables, err := ProvideTunables()
	if err != nil {
		return nil, fmt.Errorf("loading tunables: %w", err)
	}
	log, err := ProvideAuditLog(tunables)
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	k := ProvideKernel()
	ctrl := ProvideCgroupController(log)
	spawner := ProvideSpawner(k, ctrl, log)
	reg := ProvideRegistry(tunables)
	loop := ProvideLoop(reg, spawner, log, k, tunables, inittabPath)
	listener := ProvideControlListener(loop)
	return NewApp(loop, listener, log, k), nil
}

// Run boots the registry at runlevel, starts the Control Surface, wires
// OS signals to the pending-event queue, and blocks until Shutdown is
// processed. Grounded on the teacher daemon's cmd/daemon/main.go signal
// dispatch loop (signal.Notify + a dispatch switch), generalized to
// enqueue events instead of calling supervisor methods directly -- the
// producers-only-enqueue rule the teacher's own SIGCHLD handler
// violates.
func (a *App) Run(ctx context.Context, runlevel int) int {
	if err := a.Loop.Boot(ctx, runlevel); err != nil {
		a.AuditLog.Emit(audit.LevelError, fmt.Sprintf("boot failed: %v", err))
		return 1
	}

	go func() {
		if err := a.ControlListener.Serve(); err != nil {
			a.AuditLog.Emit(audit.LevelWarn, fmt.Sprintf("control listener stopped: %v", err))
		}
	}()
	defer a.ControlListener.Stop()

	sigCh := a.Kernel.Signals.Notify(syscall.SIGCHLD, syscall.SIGHUP, syscall.SIGTERM)
	defer a.Kernel.Signals.Stop(sigCh)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.forwardSignals(runCtx, sigCh)

	return a.Loop.Run(runCtx)
}

// forwardSignals is the sole producer reading raw OS signals. It never
// touches the registry: SIGCHLD triggers a non-blocking reap pass whose
// results become ChildExit events, SIGHUP becomes Reload, and SIGTERM
// becomes Shutdown.
func (a *App) forwardSignals(ctx context.Context, sigCh <-chan os.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-sigCh:
			if !ok {
				return
			}
			a.handleSignal(sig)
		}
	}
}

func (a *App) handleSignal(sig os.Signal) {
	switch {
	case sig == syscall.SIGCHLD:
		for _, exit := range process.ReapAll() {
			a.Loop.Enqueue(supervisor.Event{Kind: supervisor.EventChildExit, PID: exit.PID, ExitCode: exit.ExitCode})
		}
	case a.Kernel.Signals.IsReloadSignal(sig):
		a.Loop.Enqueue(supervisor.Event{Kind: supervisor.EventReload})
	case a.Kernel.Signals.IsTermSignal(sig):
		a.Loop.Enqueue(supervisor.Event{Kind: supervisor.EventShutdown})
	}
}

// LoadInittabOnly parses the inittab at path without booting a full
// supervisor; it is a thin wrapper around config.Load.
func LoadInittabOnly(path string) (*config.LoadResult, error) {
	return config.Load(path)
}
