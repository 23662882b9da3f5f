package supervisor

import (
	"context"
	"fmt"
	"time"

	"github.com/go-initd/initd/internal/audit"
	"github.com/go-initd/initd/internal/config"
	"github.com/go-initd/initd/internal/kernel"
	"github.com/go-initd/initd/internal/process"
	"github.com/go-initd/initd/internal/registry"
)

// queueDepth bounds the pending-event queue.
const queueDepth = 256

// Loop is the single-writer Supervisor Loop: the only component
// permitted to mutate the Registry. Every other component reaches the
// registry only indirectly, by enqueuing an Event.
type Loop struct {
	reg      *registry.Registry
	spawner  *process.Spawner
	log      *audit.Log
	kernel   *kernel.Kernel
	tunables config.Tunables

	configPath   string
	declarations map[string]config.Declaration

	queue chan Event
}

// New builds a Loop. configPath is the inittab to (re)read on boot and
// Reload.
func New(reg *registry.Registry, spawner *process.Spawner, log *audit.Log, k *kernel.Kernel, tunables config.Tunables, configPath string) *Loop {
	return &Loop{
		reg:          reg,
		spawner:      spawner,
		log:          log,
		kernel:       k,
		tunables:     tunables,
		configPath:   configPath,
		declarations: make(map[string]config.Declaration),
		queue:        make(chan Event, queueDepth),
	}
}

// Enqueue offers ev to the pending-event queue without blocking. It
// returns false if the queue is full, the only failure mode producers
// (signal handlers, the control surface) need to
// handle -- per the concurrency model, a producer does no more than
// enqueue.
func (l *Loop) Enqueue(ev Event) bool {
	select {
	case l.queue <- ev:
		return true
	default:
		l.warn(fmt.Sprintf("event queue full, dropping %s", ev.Kind))
		return false
	}
}

// EnqueueAndWait gives ev a fresh buffered Reply channel, enqueues it,
// and blocks for its synchronous reply. Used by the Control Surface,
// where a CLI invocation needs an exit code derived from what the loop
// actually did -- a round trip through the same single-writer queue
// every other mutation goes through.
func (l *Loop) EnqueueAndWait(ev Event) Reply {
	ev.Reply = make(chan Reply, 1)
	if !l.Enqueue(ev) {
		return Reply{Err: fmt.Errorf("event queue full")}
	}
	return <-ev.Reply
}

// Boot loads the inittab, seeds the registry at the given runlevel, and
// performs the initial start pass -- equivalent to one HealthTick, since
// a freshly seeded Stopped record matches the same "needs starting"
// predicate a tick would apply later.
func (l *Loop) Boot(ctx context.Context, runlevel int) error {
	l.reg.EndRunlevelTransition(runlevel) // establishes current_runlevel with an empty table
	if err := l.seedRunlevel(runlevel); err != nil {
		return err
	}
	l.handleHealthTick(ctx)
	return nil
}

// Run drains the pending-event queue until ctx is canceled or a
// Shutdown event is processed. It returns the exit code a CLI wrapper
// should use (0 on ordinary shutdown).
func (l *Loop) Run(ctx context.Context) int {
	ticker := time.NewTicker(l.tunables.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return l.shutdown(ctx)
		case <-ticker.C:
			l.handleHealthTick(ctx)
		case ev := <-l.queue:
			if ev.Kind == EventShutdown {
				code := l.shutdown(ctx)
				reply(ev, Reply{})
				return code
			}
			l.dispatch(ctx, ev)
		}
	}
}

func (l *Loop) dispatch(ctx context.Context, ev Event) {
	switch ev.Kind {
	case EventChildExit:
		l.handleChildExit(ev)
	case EventReload:
		l.handleReload(ctx)
		reply(ev, Reply{})
	case EventRunlevelSwitch:
		err := l.handleRunlevelSwitch(ctx, ev.Runlevel)
		reply(ev, Reply{Err: err})
	case EventManageStart:
		err := l.handleManageStart(ctx, ev.ServiceName)
		reply(ev, Reply{Err: err})
	case EventManageStop:
		err := l.handleManageStop(ev.ServiceName)
		reply(ev, Reply{Err: err})
	case EventManageStatus:
		status, err := l.handleManageStatus(ev.ServiceName)
		reply(ev, Reply{Err: err, Status: status})
	case EventHealthTick:
		l.handleHealthTick(ctx)
	}
}

// reply delivers r on ev.Reply without blocking if nobody is listening.
func reply(ev Event, r Reply) {
	if ev.Reply == nil {
		return
	}
	select {
	case ev.Reply <- r:
	default:
	}
}

func (l *Loop) info(message string) {
	if l.log != nil {
		l.log.Emit(audit.LevelInfo, message)
	}
}

func (l *Loop) warn(message string) {
	if l.log != nil {
		l.log.Emit(audit.LevelWarn, message)
	}
}

func (l *Loop) errorf(message string) {
	if l.log != nil {
		l.log.Emit(audit.LevelError, message)
	}
}
