package registry

// Record is one service's current state, keyed by Command.
type Record struct {
	Command          string
	Runlevel         int
	Dependencies     []string
	MemoryLimitBytes int64
	CPUQuotaPercent  int

	State State
	// RestartPolicy is the policy actually enforced by the Health
	// Scanner. It starts equal to Declared but ManageStop can demote
	// it to RestartNever for the remainder of the runlevel epoch (see
	// DESIGN.md's resolution of the manage-stop open question);
	// Declared is restored on reload or runlevel switch.
	RestartPolicy RestartPolicy
	Declared      RestartPolicy

	// PID is owned by Running/Exited states only.
	PID int
	// ExitCode is set when State == Exited.
	ExitCode int
	// FailReason is set when State == Failed.
	FailReason string
}

// NewRecord creates a Stopped record with the default Always restart
// policy, as fixed at record creation per the data model.
func NewRecord(command string, runlevel int, deps []string, memBytes int64, cpuPct int) *Record {
	return &Record{
		Command:          command,
		Runlevel:         runlevel,
		Dependencies:     deps,
		MemoryLimitBytes: memBytes,
		CPUQuotaPercent:  cpuPct,
		State:            Stopped,
		RestartPolicy:    RestartAlways,
		Declared:         RestartAlways,
	}
}

// clone returns a defensive copy of the record so that callers
// returned a *Record from lookups cannot mutate registry state
// outside the registry's own API.
func (r *Record) clone() *Record {
	c := *r
	if r.Dependencies != nil {
		c.Dependencies = append([]string(nil), r.Dependencies...)
	}
	return &c
}
