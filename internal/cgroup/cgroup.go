// Package cgroup implements the Resource Controller: applying memory
// and CPU caps to a spawned child via the kernel cgroup filesystem.
//
// Grounded on the teacher daemon's process.New pre-exec credential
// application step, which writes to an OS interface on a best-effort
// basis and logs rather than failing the spawn; that same shape is
// generalized here from uid/gid application to cgroup file writes.
package cgroup

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-initd/initd/internal/audit"
)

// Default cgroup paths, fixed per the external interfaces contract. All
// children share a single cgroup, so the last written caps apply to all
// of them together rather than per service.
const (
	MemoryLimitFile = "/sys/fs/cgroup/memory/my_cgroup/memory.limit_in_bytes"
	MemoryProcsFile = "/sys/fs/cgroup/memory/my_cgroup/cgroup.procs"
	CPUQuotaFile    = "/sys/fs/cgroup/cpu/my_cgroup/cpu.cfs_quota_us"
)

// microsPerPercent is the fixed multiplier applied to a whole-percent
// CPU quota before it is written to cpu.cfs_quota_us, so 20% is written
// as 200000. Against the default 100,000us period that value is ten
// times the given percentage of one CPU.
const microsPerPercent = 10_000

// Controller applies resource caps to spawned children via cgroup
// writes. It is safe for concurrent use: every Apply call is
// independent and stateless.
type Controller struct {
	log *audit.Log

	memoryLimitFile string
	memoryProcsFile string
	cpuQuotaFile    string
}

// New creates a Controller writing to the fixed cgroup paths, logging
// failures to log.
func New(log *audit.Log) *Controller {
	return &Controller{
		log:             log,
		memoryLimitFile: MemoryLimitFile,
		memoryProcsFile: MemoryProcsFile,
		cpuQuotaFile:    CPUQuotaFile,
	}
}

// NewWithPaths creates a Controller against explicit cgroup file paths,
// letting tests point Apply at a temp directory instead of the real
// cgroup filesystem.
func NewWithPaths(log *audit.Log, memoryLimitFile, memoryProcsFile, cpuQuotaFile string) *Controller {
	return &Controller{
		log:             log,
		memoryLimitFile: memoryLimitFile,
		memoryProcsFile: memoryProcsFile,
		cpuQuotaFile:    cpuQuotaFile,
	}
}

// Apply caps pid to memoryBytes and cpuPercent (0 means "no cap" for
// either). Every write is best-effort: a failure is logged at WARN and
// Apply still returns nil, so the service continues uncapped rather
// than blocking boot on cgroup availability.
func (c *Controller) Apply(pid int, memoryBytes int64, cpuPercent int) error {
	if memoryBytes > 0 {
		if err := c.writeFile(c.memoryLimitFile, strconv.FormatInt(memoryBytes, 10)); err != nil {
			c.warn(fmt.Sprintf("cgroup memory cap failed for pid %d: %v", pid, err))
		}
	}

	if cpuPercent > 0 {
		quotaUs := int64(cpuPercent) * microsPerPercent
		if err := c.writeFile(c.cpuQuotaFile, strconv.FormatInt(quotaUs, 10)); err != nil {
			c.warn(fmt.Sprintf("cgroup cpu cap failed for pid %d: %v", pid, err))
		}
	}

	if err := c.writeFile(c.memoryProcsFile, strconv.Itoa(pid)); err != nil {
		c.warn(fmt.Sprintf("cgroup attach failed for pid %d: %v", pid, err))
	}

	return nil
}

func (c *Controller) writeFile(path, value string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(value), 0o644)
}

func (c *Controller) warn(message string) {
	if c.log != nil {
		c.log.Emit(audit.LevelWarn, message)
	}
}
