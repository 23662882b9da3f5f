// Package dependency implements the Dependency Resolver: a decision
// over whether a service's prerequisites are satisfied, grounded on the
// teacher daemon's by-name FindService lookup idiom.
package dependency

import "github.com/go-initd/initd/internal/registry"

// Lookup resolves a command string to its current record. The
// registry itself satisfies this via Lookup, kept as an interface here
// so the resolver can be tested without a full Registry.
type Lookup interface {
	Lookup(command string) (*registry.Record, bool)
}

// Satisfied reports whether every command in deps is present in reg and
// Running. Dependencies are checked in declaration order; this resolver
// performs no topological sort — callers are assumed to have ordered
// the inittab so predecessors precede dependents. A cyclic dependency
// therefore manifests as perpetual unsatisfied status, observable by
// callers retrying start_with_retry.
func Satisfied(reg Lookup, deps []string) bool {
	for _, d := range deps {
		rec, ok := reg.Lookup(d)
		if !ok || rec.State != registry.Running {
			return false
		}
	}
	return true
}

// Unmet returns the subset of deps not currently Running, for
// diagnostic logging.
func Unmet(reg Lookup, deps []string) []string {
	var unmet []string
	for _, d := range deps {
		rec, ok := reg.Lookup(d)
		if !ok || rec.State != registry.Running {
			unmet = append(unmet, d)
		}
	}
	return unmet
}
