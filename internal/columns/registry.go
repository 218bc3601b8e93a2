package columns

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"procdog/internal/idname"
	"procdog/internal/proctree"
)

// Options carries the run configuration the column formatters close over.
type Options struct {
	CommandLine bool // show the argument vector in the cmd column
	CmdWidth    int  // truncate the cmd column to this display width, 0 = unlimited
	VSZUnit     Unit
	RSSUnit     Unit

	// ResolveIDs switches the eight uid/gid columns from numeric ids to
	// names looked up in the injected tables.
	ResolveIDs bool
	Users      idname.Table
	Groups     idname.Table
}

// registry is the closed catalog mapping a column identifier to its
// constructor. Constructors are first-class values so the active column list
// is just a lookup per configured identifier.
var registry = map[string]func(Options) *Column{
	"pid":  func(Options) *Column { return intColumn("PID", func(p *proctree.Process) int { return p.TGID }) },
	"tid":  func(Options) *Column { return intColumn("TID", func(p *proctree.Process) int { return p.PID }) },
	"ppid": func(Options) *Column { return intColumn("PPID", func(p *proctree.Process) int { return p.PPID }) },
	"pgid": func(Options) *Column { return intColumn("PGID", func(p *proctree.Process) int { return p.PGID }) },
	"sid":  func(Options) *Column { return intColumn("SID", func(p *proctree.Process) int { return p.SID }) },
	"nthr": func(Options) *Column { return intColumn("Nth", func(p *proctree.Process) int { return p.NumThreads }) },

	"name": func(Options) *Column {
		return newColumn("NAME", AlignLeft, func(p *proctree.Process) string { return p.Name })
	},
	"stat": func(Options) *Column {
		return newColumn("S", AlignRight, func(p *proctree.Process) string { return p.Status })
	},
	"cmd": cmdColumn,

	"vsz": func(o Options) *Column {
		return newColumn("VSZ", AlignRight, func(p *proctree.Process) string { return o.VSZUnit.Format(p.VSZ) })
	},
	"rss": func(o Options) *Column {
		return newColumn("RSS", AlignRight, func(p *proctree.Process) string { return o.RSSUnit.Format(p.RSS) })
	},

	"netns": func(Options) *Column {
		return nsInodeColumn("NETNS", func(p *proctree.Process) uint64 { return p.NetNSInode })
	},
	"pidns": func(Options) *Column {
		return nsInodeColumn("PIDNS", func(p *proctree.Process) uint64 { return p.PIDNSInode })
	},

	"nspid":  func(Options) *Column { return nsLocalColumn("NSPID", func(p *proctree.Process) string { return p.NSTGID }) },
	"nstid":  func(Options) *Column { return nsLocalColumn("NSTID", func(p *proctree.Process) string { return p.NSPID }) },
	"nspgid": func(Options) *Column { return nsLocalColumn("NSPGID", func(p *proctree.Process) string { return p.NSPGID }) },
	"nssid":  func(Options) *Column { return nsLocalColumn("NSSID", func(p *proctree.Process) string { return p.NSSID }) },

	"ruid": idColumn("RUID", 0, uidTuple, userTable),
	"euid": idColumn("EUID", 1, uidTuple, userTable),
	"suid": idColumn("SUID", 2, uidTuple, userTable),
	"fuid": idColumn("FUID", 3, uidTuple, userTable),
	"rgid": idColumn("RGID", 0, gidTuple, groupTable),
	"egid": idColumn("EGID", 1, gidTuple, groupTable),
	"sgid": idColumn("SGID", 2, gidTuple, groupTable),
	"fgid": idColumn("FGID", 3, gidTuple, groupTable),
}

// Known reports whether id names a catalog column.
func Known(id string) bool {
	_, ok := registry[id]
	return ok
}

// Identifiers returns every catalog identifier, sorted, for help text.
func Identifiers() []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Build returns the active columns for the given identifiers in order.
// Unknown identifiers are configuration errors, surfaced before any process
// enumeration happens.
func Build(ids []string, opts Options) ([]*Column, error) {
	cols := make([]*Column, 0, len(ids))
	for _, id := range ids {
		ctor, ok := registry[id]
		if !ok {
			return nil, fmt.Errorf("unknown column %q", id)
		}
		cols = append(cols, ctor(opts))
	}
	return cols, nil
}

func intColumn(title string, pick func(*proctree.Process) int) *Column {
	return newColumn(title, AlignRight, func(p *proctree.Process) string {
		return strconv.Itoa(pick(p))
	})
}

// nsInodeColumn renders a namespace inode as 8 zero-padded hex digits, or
// the sentinel when the link was unreadable.
func nsInodeColumn(title string, pick func(*proctree.Process) uint64) *Column {
	return newColumn(title, AlignRight, func(p *proctree.Process) string {
		ino := pick(p)
		if ino == 0 {
			return proctree.MissingID
		}
		return fmt.Sprintf("%08x", ino)
	})
}

func nsLocalColumn(title string, pick func(*proctree.Process) string) *Column {
	return newColumn(title, AlignRight, pick)
}

// Selectors for the two shared id tables; uid columns share one table and
// gid columns the other, built once per run by the caller.
func userTable(o Options) idname.Table  { return o.Users }
func groupTable(o Options) idname.Table { return o.Groups }

func uidTuple(p *proctree.Process) [4]int { return p.UIDs }
func gidTuple(p *proctree.Process) [4]int { return p.GIDs }

// idColumn is the single factory behind the eight id-resolving columns,
// parameterized by the tuple, the slot within it, and which lookup table
// applies when name resolution is on.
func idColumn(title string, slot int, tuple func(*proctree.Process) [4]int, table func(Options) idname.Table) func(Options) *Column {
	return func(o Options) *Column {
		return newColumn(title, AlignRight, func(p *proctree.Process) string {
			id := tuple(p)[slot]
			if !o.ResolveIDs {
				return strconv.Itoa(id)
			}
			return table(o).Lookup(id)
		})
	}
}

// cmdColumn indents by two spaces per depth level, shows the argument vector
// when configured and non-empty (the bare name otherwise), and truncates the
// concatenated result to the configured width.
func cmdColumn(o Options) *Column {
	return newColumn("COMMAND", AlignNone, func(p *proctree.Process) string {
		s := strings.Repeat("  ", p.Depth)
		if o.CommandLine && len(p.Cmdline) > 0 {
			s += strings.Join(p.Cmdline, " ")
		} else {
			s += p.Name
		}
		if o.CmdWidth > 0 {
			s = runewidth.Truncate(s, o.CmdWidth, "")
		}
		return s
	})
}
