// Package registry implements the in-memory service table: the single
// source of truth over which the Supervisor Loop is the sole writer.
//
// Grounded on the teacher daemon's internal/process.State enumeration
// and its String() method style, generalized to the five-state machine
// (plus Stopping) named by the supervisor's data model. Unlike the
// teacher's sync.RWMutex-guarded Supervisor, this registry carries no
// internal locking: only the Supervisor Loop goroutine ever calls its
// mutating methods, consistent with the single-writer event-dispatch
// design.
package registry

import "fmt"

// State is the lifecycle stage of a service record.
type State int

// Service lifecycle states.
const (
	Stopped State = iota
	Starting
	Running
	Exited
	Failed
	Stopping
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case Starting:
		return "Starting"
	case Running:
		return "Running"
	case Exited:
		return "Exited"
	case Failed:
		return "Failed"
	case Stopping:
		return "Stopping"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// RestartPolicy governs whether the Health Scanner may restart a
// non-running record.
type RestartPolicy int

// Restart policies.
const (
	RestartAlways RestartPolicy = iota
	RestartNever
)

func (p RestartPolicy) String() string {
	if p == RestartNever {
		return "Never"
	}
	return "Always"
}

// legalTransitions enumerates the state machine from §4.4. A
// transition not listed here is InternalError.
var legalTransitions = map[State]map[State]bool{
	Stopped:  {Starting: true},
	Starting: {Running: true, Failed: true},
	Running:  {Exited: true, Stopping: true},
	Exited:   {Starting: true, Stopped: true},
	Failed:   {Starting: true, Stopped: true},
	Stopping: {Exited: true, Stopped: true},
}

// IsLegalTransition reports whether moving from `from` to `to` is
// allowed by the record state machine.
func IsLegalTransition(from, to State) bool {
	if from == to {
		return true
	}
	next, ok := legalTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}
