// Package bootstrap wires the supervisor's components into a runnable
// App, following the teacher daemon's own internal/bootstrap split: a
// //go:build wireinject injector (wire.go) paired with hand-maintained
// provider functions here that play the role of Wire's generated
// wire_gen.go. github.com/google/wire is never actually invoked by a
// build in this exercise, so these providers are also what actually
// assembles the graph at runtime.
package bootstrap

import (
	"github.com/go-initd/initd/internal/audit"
	"github.com/go-initd/initd/internal/cgroup"
	"github.com/go-initd/initd/internal/config"
	"github.com/go-initd/initd/internal/control"
	"github.com/go-initd/initd/internal/kernel"
	"github.com/go-initd/initd/internal/process"
	"github.com/go-initd/initd/internal/registry"
	"github.com/go-initd/initd/internal/supervisor"
)

// defaultAuditLogPath is the fixed audit log path named in the
// external interfaces contract.
const defaultAuditLogPath = "/var/log/init.log"

// ProvideTunables loads the optional YAML overlay, falling back to the
// constants fixed by the concurrency model when it is absent.
func ProvideTunables() (config.Tunables, error) {
	return config.LoadTunables(config.DefaultTunablesPath)
}

// ProvideAuditLog opens the fixed-path audit log, sized per the
// (possibly overridden) tunables.
func ProvideAuditLog(tunables config.Tunables) (*audit.Log, error) {
	return audit.Open(defaultAuditLogPath, tunables.MaxLogSize)
}

// ProvideKernel constructs the platform kernel abstraction (signals,
// process-group control, zombie reaping).
func ProvideKernel() *kernel.Kernel {
	return kernel.New()
}

// ProvideCgroupController wires the Resource Controller to the audit
// log so cap failures are WARN-logged rather than silently dropped.
func ProvideCgroupController(log *audit.Log) *cgroup.Controller {
	return cgroup.New(log)
}

// ProvideSpawner wires the Spawner to the kernel, cgroup controller,
// and audit log.
func ProvideSpawner(k *kernel.Kernel, ctrl *cgroup.Controller, log *audit.Log) *process.Spawner {
	return process.New(k, ctrl, log)
}

// ProvideRegistry sizes the Service Registry from tunables.MaxProcesses.
func ProvideRegistry(tunables config.Tunables) *registry.Registry {
	return registry.New(tunables.MaxProcesses)
}

// ProvideLoop assembles the Supervisor Loop, the single writer of the
// registry.
func ProvideLoop(reg *registry.Registry, spawner *process.Spawner, log *audit.Log, k *kernel.Kernel, tunables config.Tunables, inittabPath string) *supervisor.Loop {
	return supervisor.New(reg, spawner, log, k, tunables, inittabPath)
}

// ProvideControlListener wires the Control Surface's gRPC-over-UNIX-socket
// listener to the loop as its event dispatcher.
func ProvideControlListener(loop *supervisor.Loop) *control.Listener {
	return control.NewListener(control.SocketPath, loop)
}

// NewApp is the final provider in the dependency graph.
func NewApp(loop *supervisor.Loop, listener *control.Listener, log *audit.Log, k *kernel.Kernel) *App {
	return &App{
		Loop:            loop,
		ControlListener: listener,
		AuditLog:        log,
		Kernel:          k,
	}
}
