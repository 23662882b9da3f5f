// Package config parses the supervisor's inittab and the optional
// tunables overlay.
//
// The inittab schema is fixed by the external-interfaces contract and is
// not YAML; it is grounded on the teacher daemon's internal/config
// loader in shape (pure function, returns declarations, never mutates a
// registry) even though the wire format differs. The optional tunables
// overlay reuses gopkg.in/yaml.v3, the teacher's own config library, so
// that dependency still has a home even though the mandatory schema
// does not use it.
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Declaration is one parsed inittab line: a service the Supervisor Loop
// may install into the registry.
type Declaration struct {
	Runlevel         int
	Command          string
	Dependencies     []string
	MemoryLimitBytes int64
	CPUQuotaPercent  int
}

// ParseError records a skipped inittab line, surfaced so the caller can
// WARN-log it without aborting the whole load.
type ParseError struct {
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("inittab line %d: %s (%q)", e.Line, e.Reason, e.Text)
}

// LoadResult is the outcome of parsing an inittab file: the usable
// declarations plus every skipped line, in order.
type LoadResult struct {
	Declarations []Declaration
	Skipped      []*ParseError
}

// Load reads and parses the inittab at path.
func Load(path string) (*LoadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening inittab: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads inittab-schema lines from r. Malformed lines are
// collected in LoadResult.Skipped rather than aborting the parse,
// matching §4.3's "malformed lines are skipped with a WARN."
func Parse(r io.Reader) (*LoadResult, error) {
	result := &LoadResult{}
	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		decl, err := parseLine(line)
		if err != nil {
			result.Skipped = append(result.Skipped, &ParseError{
				Line:   lineNo,
				Text:   line,
				Reason: err.Error(),
			})
			continue
		}
		result.Declarations = append(result.Declarations, *decl)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading inittab: %w", err)
	}
	return result, nil
}

// parseLine parses one whitespace-delimited inittab record:
//
//	<runlevel:int> <command:abs-path> <deps:comma-list-or-"-"> <mem_bytes:int> <cpu_pct:int>
func parseLine(line string) (*Declaration, error) {
	fields := strings.Fields(line)
	if len(fields) != 5 {
		return nil, fmt.Errorf("expected 5 fields, got %d", len(fields))
	}

	runlevel, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, fmt.Errorf("bad runlevel: %w", err)
	}
	if runlevel < 0 {
		return nil, fmt.Errorf("negative runlevel")
	}

	command := fields[1]
	if !filepath.IsAbs(command) {
		return nil, fmt.Errorf("command must be an absolute path")
	}

	var deps []string
	if fields[2] != "-" {
		for _, d := range strings.Split(fields[2], ",") {
			d = strings.TrimSpace(d)
			if d == "" {
				return nil, fmt.Errorf("empty dependency entry")
			}
			deps = append(deps, d)
		}
	}

	mem, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil || mem < 0 {
		return nil, fmt.Errorf("bad mem_bytes: %q", fields[3])
	}

	cpu, err := strconv.Atoi(fields[4])
	if err != nil || cpu < 0 || cpu > 100 {
		return nil, fmt.Errorf("bad cpu_pct: %q", fields[4])
	}

	return &Declaration{
		Runlevel:         runlevel,
		Command:          command,
		Dependencies:     deps,
		MemoryLimitBytes: mem,
		CPUQuotaPercent:  cpu,
	}, nil
}
