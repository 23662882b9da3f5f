package registry

import "errors"

// Errors returned by registry operations, matching the taxonomy named
// in the error handling design.
var (
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrDuplicate        = errors.New("duplicate command")
	ErrNotFound         = errors.New("record not found")
	ErrInternal         = errors.New("illegal state transition")
)

// Registry is the in-memory service table: command -> record, plus the
// active runlevel. It enforces invariants 1-6 of the data model.
type Registry struct {
	maxProcesses    int
	records         map[string]*Record
	pids            map[int]string
	currentRunlevel int
	transitioning   bool
}

// New creates an empty Registry bounded at maxProcesses live records.
func New(maxProcesses int) *Registry {
	return &Registry{
		maxProcesses: maxProcesses,
		records:      make(map[string]*Record),
		pids:         make(map[int]string),
	}
}

// CurrentRunlevel returns the active runlevel.
func (r *Registry) CurrentRunlevel() int {
	return r.currentRunlevel
}

// Len returns the number of live records.
func (r *Registry) Len() int {
	return len(r.records)
}

// Insert adds a new record for decl's command. Fails with
// ErrCapacityExceeded if the registry is at maxProcesses, or
// ErrDuplicate if the command is already present (invariant 1).
func (r *Registry) Insert(rec *Record) error {
	if _, exists := r.records[rec.Command]; exists {
		return ErrDuplicate
	}
	if r.maxProcesses > 0 && len(r.records) >= r.maxProcesses {
		return ErrCapacityExceeded
	}
	r.records[rec.Command] = rec
	return nil
}

// Lookup returns a copy of the record for command, if present.
func (r *Registry) Lookup(command string) (*Record, bool) {
	rec, ok := r.records[command]
	if !ok {
		return nil, false
	}
	return rec.clone(), true
}

// ByPID returns the command owning pid, if any is currently live
// (invariant 2: at most one record holds a given live pid).
func (r *Registry) ByPID(pid int) (string, bool) {
	command, ok := r.pids[pid]
	return command, ok
}

// SetState transitions command's record to newState, enforcing the
// legal-transition table. An illegal transition returns ErrInternal;
// the caller logs ERROR in production or aborts in test mode, per
// §4.4.
func (r *Registry) SetState(command string, newState State) error {
	rec, ok := r.records[command]
	if !ok {
		return ErrNotFound
	}
	if !IsLegalTransition(rec.State, newState) {
		return ErrInternal
	}

	switch {
	case newState == Running:
		// PID must already be set by the caller via SetRunning.
	case rec.State == Running && newState != Running:
		delete(r.pids, rec.PID)
	}

	rec.State = newState
	return nil
}

// SetRunning transitions command to Running(pid), registering the pid
// as live. Fails with ErrInternal if the transition is illegal.
func (r *Registry) SetRunning(command string, pid int) error {
	rec, ok := r.records[command]
	if !ok {
		return ErrNotFound
	}
	if !IsLegalTransition(rec.State, Running) {
		return ErrInternal
	}
	rec.State = Running
	rec.PID = pid
	r.pids[pid] = command
	return nil
}

// SetExited transitions command's record (looked up by pid) to
// Exited(code), retiring the pid per invariant 3.
func (r *Registry) SetExited(pid int, code int) (string, error) {
	command, ok := r.pids[pid]
	if !ok {
		return "", ErrNotFound
	}
	rec := r.records[command]
	if !IsLegalTransition(rec.State, Exited) {
		return command, ErrInternal
	}
	delete(r.pids, pid)
	rec.State = Exited
	rec.ExitCode = code
	return command, nil
}

// SetFailed transitions command's record to Failed(reason).
func (r *Registry) SetFailed(command, reason string) error {
	rec, ok := r.records[command]
	if !ok {
		return ErrNotFound
	}
	if !IsLegalTransition(rec.State, Failed) {
		return ErrInternal
	}
	rec.State = Failed
	rec.FailReason = reason
	return nil
}

// Remove deletes command's record entirely. Used by Reload when a
// declaration disappears and by RunlevelSwitch during drain-to-empty.
func (r *Registry) Remove(command string) {
	rec, ok := r.records[command]
	if !ok {
		return
	}
	if rec.State == Running || rec.State == Stopping {
		delete(r.pids, rec.PID)
	}
	delete(r.records, command)
}

// LiveRecord pairs a command with the pid its record currently owns.
type LiveRecord struct {
	Command string
	PID     int
}

// Drain transitions every live (Running) record to Stopping and
// returns the set of (command, pid) pairs the caller must signal.
// Used by runlevel switch and shutdown.
func (r *Registry) Drain() []LiveRecord {
	var live []LiveRecord
	for command, rec := range r.records {
		if rec.State == Running {
			rec.State = Stopping
			live = append(live, LiveRecord{Command: command, PID: rec.PID})
		}
	}
	return live
}

// All returns a copy of every record, for iteration by the health
// scanner and reload diff.
func (r *Registry) All() []*Record {
	out := make([]*Record, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec.clone())
	}
	return out
}

// BeginRunlevelTransition marks a transition in progress, enforcing
// invariant 6 (only one at a time). Returns false if one is already
// underway.
func (r *Registry) BeginRunlevelTransition() bool {
	if r.transitioning {
		return false
	}
	r.transitioning = true
	return true
}

// EndRunlevelTransition completes a transition to runlevel n, emptying
// the registry of all records (they must already have been drained and
// reaped by the caller) and resetting currentRunlevel, per invariant 5.
func (r *Registry) EndRunlevelTransition(n int) {
	r.records = make(map[string]*Record)
	r.pids = make(map[int]string)
	r.currentRunlevel = n
	r.transitioning = false
}

// Stop transitions a single Running record to Stopping and returns its
// pid, for selective stop (ManageStop, reload removal) as opposed to
// Drain's stop-everyone semantics. A no-op (returns 0, nil) if the
// record is not Running.
func (r *Registry) Stop(command string) (int, error) {
	rec, ok := r.records[command]
	if !ok {
		return 0, ErrNotFound
	}
	if rec.State != Running {
		return 0, nil
	}
	if !IsLegalTransition(rec.State, Stopping) {
		return 0, ErrInternal
	}
	rec.State = Stopping
	return rec.PID, nil
}

// UpdateAttributes overwrites the declarative fields of an existing
// record without touching its state or pid, for the Reload case where
// a running service's declaration changed but the process itself is
// left alone.
func (r *Registry) UpdateAttributes(command string, deps []string, memBytes int64, cpuPct int) error {
	rec, ok := r.records[command]
	if !ok {
		return ErrNotFound
	}
	rec.Dependencies = deps
	rec.MemoryLimitBytes = memBytes
	rec.CPUQuotaPercent = cpuPct
	return nil
}

// DemoteRestartPolicy sets command's effective restart policy to
// RestartNever, per the resolved manage-stop open question. It is
// restored to Declared by RestoreDeclaredPolicy.
func (r *Registry) DemoteRestartPolicy(command string) error {
	rec, ok := r.records[command]
	if !ok {
		return ErrNotFound
	}
	rec.RestartPolicy = RestartNever
	return nil
}

// RestoreDeclaredPolicy resets command's effective restart policy back
// to its declared value. Called on reload for every service the reload
// still declares; a runlevel switch needs no call, since its reseed
// creates fresh records at their declared policy.
func (r *Registry) RestoreDeclaredPolicy(command string) {
	if rec, ok := r.records[command]; ok {
		rec.RestartPolicy = rec.Declared
	}
}
