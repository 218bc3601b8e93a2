// Package config holds the validated run configuration assembled from the
// command line.
package config

import (
	"fmt"

	"procdog/internal/columns"
)

// DefaultColumns is the column list used when -o is not given.
var DefaultColumns = []string{"pid", "cmd"}

// UnlimitedDepth disables the depth limit.
const UnlimitedDepth = -1

// Config is the core's input contract; the flag layer fills it and Validate
// rejects anything that must fail before process enumeration starts.
type Config struct {
	ListProcesses bool // -l: flat listing before the tree
	CommandLine   bool // -c: argument vector instead of bare name in cmd
	Threads       bool // -t: one record per thread

	Output     []string // -o: ordered column identifiers
	Additional []string // -a: identifiers prepended before the -o list

	VSZUnit  string // --vsz-unit
	RSSUnit  string // --rss-unit
	CmdWidth int    // -w: cmd column truncation, 0 = unlimited

	ResolveIDs bool // -n: uid/gid columns as names

	Search     []string // -S: search-with-context terms
	Exclude    []string // -E: exclusion terms
	DepthLimit int      // -D; UnlimitedDepth means no limit
	Where      string   // --where: predicate expression

	ProcRoot string // --proc: proc filesystem root
}

// ColumnIDs returns the active identifier list: the -a additions, then the
// -o list or the default pair.
func (c *Config) ColumnIDs() []string {
	out := c.Output
	if len(out) == 0 {
		out = DefaultColumns
	}
	ids := make([]string, 0, len(c.Additional)+len(out))
	ids = append(ids, c.Additional...)
	ids = append(ids, out...)
	return ids
}

// Validate checks everything that does not require touching the system:
// units, width, depth, and that the column list names known catalog entries
// exactly once each.
func (c *Config) Validate() error {
	if _, err := columns.ParseUnit(c.VSZUnit); err != nil {
		return fmt.Errorf("--vsz-unit: %w", err)
	}
	if _, err := columns.ParseUnit(c.RSSUnit); err != nil {
		return fmt.Errorf("--rss-unit: %w", err)
	}
	if c.CmdWidth < 0 {
		return fmt.Errorf("-w: width must not be negative, got %d", c.CmdWidth)
	}
	if c.DepthLimit < UnlimitedDepth {
		return fmt.Errorf("-D: depth must not be negative, got %d", c.DepthLimit)
	}
	if c.ProcRoot == "" {
		return fmt.Errorf("--proc: root must not be empty")
	}

	seen := make(map[string]struct{})
	for _, id := range c.ColumnIDs() {
		if !columns.Known(id) {
			return fmt.Errorf("unknown column %q (available: %v)", id, columns.Identifiers())
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("column %q listed twice", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}
