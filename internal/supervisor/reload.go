package supervisor

import (
	"context"
	"fmt"

	"github.com/go-initd/initd/internal/config"
	"github.com/go-initd/initd/internal/registry"
)

// handleReload re-reads the inittab and diffs it against the
// registry: new declarations at the current runlevel are inserted and
// started, declarations no longer present are stopped and removed,
// and declarations whose attributes changed are updated in place.
// Running pids whose declaration is unchanged are left alone.
func (l *Loop) handleReload(ctx context.Context) {
	result, err := config.Load(l.configPath)
	if err != nil {
		l.errorf(fmt.Sprintf("reload: %v", err))
		return
	}
	for _, skipped := range result.Skipped {
		l.warn(skipped.Error())
	}

	next := make(map[string]config.Declaration, len(result.Declarations))
	for _, decl := range result.Declarations {
		next[decl.Command] = decl
	}

	current := l.reg.CurrentRunlevel()

	// Removed: present before, absent now.
	for command := range l.declarations {
		if _, stillDeclared := next[command]; stillDeclared {
			continue
		}
		if pid, err := l.reg.Stop(command); err == nil && pid != 0 {
			l.signalOne(pid, "SIGTERM")
			l.info(fmt.Sprintf("%s removed from config, stopping pid=%d", command, pid))
		}
		l.reg.Remove(command)
	}

	// New or changed, restricted to the active runlevel.
	for command, decl := range next {
		if decl.Runlevel != current {
			continue
		}
		rec, exists := l.reg.Lookup(command)
		switch {
		case !exists:
			newRec := registry.NewRecord(decl.Command, decl.Runlevel, decl.Dependencies, decl.MemoryLimitBytes, decl.CPUQuotaPercent)
			if err := l.reg.Insert(newRec); err != nil {
				l.errorf(fmt.Sprintf("%s: %v", command, err))
				continue
			}
			l.info(fmt.Sprintf("%s added by reload", command))
		case attributesChanged(rec, decl):
			if err := l.reg.UpdateAttributes(command, decl.Dependencies, decl.MemoryLimitBytes, decl.CPUQuotaPercent); err != nil {
				l.errorf(fmt.Sprintf("%s: %v", command, err))
			}
			l.reg.RestoreDeclaredPolicy(command)
		default:
			// Unchanged, but a reload that names this service still
			// clears any manage-stop demotion per the resolved open
			// question.
			l.reg.RestoreDeclaredPolicy(command)
		}
	}

	l.declarations = next
	l.handleHealthTick(ctx)
}

func attributesChanged(rec *registry.Record, decl config.Declaration) bool {
	if rec.MemoryLimitBytes != decl.MemoryLimitBytes || rec.CPUQuotaPercent != decl.CPUQuotaPercent {
		return true
	}
	if len(rec.Dependencies) != len(decl.Dependencies) {
		return true
	}
	for i := range rec.Dependencies {
		if rec.Dependencies[i] != decl.Dependencies[i] {
			return true
		}
	}
	return false
}
