package procfs

import (
	"fmt"
	"strconv"
	"strings"

	"procdog/internal/proctree"
)

// Field positions in /proc/<pid>/stat counted after the closing paren of the
// comm field (state is position 0).
const (
	statState      = 0
	statPPID       = 1
	statPGID       = 2
	statSID        = 3
	statNumThreads = 17
	statVSZ        = 20
	statRSS        = 21
)

// parseStat fills pid, name, state, ppid, pgid, sid, thread count, vsz and
// rss (in pages) from one stat line. The comm field is delimited by the first
// '(' and the last ')' because it may itself contain spaces and parens.
func parseStat(line string, rec *proctree.Record) error {
	open := strings.IndexByte(line, '(')
	closing := strings.LastIndexByte(line, ')')
	if open < 0 || closing < open {
		return fmt.Errorf("malformed stat line %q", line)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(line[:open]))
	if err != nil {
		return fmt.Errorf("bad pid field: %w", err)
	}
	rec.PID = pid
	rec.Name = line[open+1 : closing]

	fields := strings.Fields(line[closing+1:])
	if len(fields) <= statRSS {
		return fmt.Errorf("stat line has %d fields after comm, want > %d", len(fields), statRSS)
	}
	rec.Status = fields[statState]

	for _, f := range []struct {
		idx int
		dst *int
	}{
		{statPPID, &rec.PPID},
		{statPGID, &rec.PGID},
		{statSID, &rec.SID},
		{statNumThreads, &rec.NumThreads},
	} {
		v, err := strconv.Atoi(fields[f.idx])
		if err != nil {
			return fmt.Errorf("bad stat field %d: %w", f.idx, err)
		}
		*f.dst = v
	}

	vsz, err := strconv.ParseUint(fields[statVSZ], 10, 64)
	if err != nil {
		return fmt.Errorf("bad vsize field: %w", err)
	}
	rec.VSZ = vsz

	rss, err := strconv.ParseUint(fields[statRSS], 10, 64)
	if err != nil {
		return fmt.Errorf("bad rss field: %w", err)
	}
	rec.RSS = rss // pages; the caller scales to bytes
	return nil
}

// parseStatus extracts the uid/gid four-tuples and the namespace-local id
// lines from /proc/<pid>/status. Absent NS* lines leave the MissingID
// sentinel in place.
func parseStatus(content string, rec *proctree.Record) {
	rec.NSPID = proctree.MissingID
	rec.NSTGID = proctree.MissingID
	rec.NSPGID = proctree.MissingID
	rec.NSSID = proctree.MissingID

	for _, line := range strings.Split(content, "\n") {
		key, rest, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		fields := strings.Fields(rest)
		switch key {
		case "Uid":
			parseIDTuple(fields, &rec.UIDs)
		case "Gid":
			parseIDTuple(fields, &rec.GIDs)
		case "NSpid":
			rec.NSPID = lastField(fields)
		case "NStgid":
			rec.NSTGID = lastField(fields)
		case "NSpgid":
			rec.NSPGID = lastField(fields)
		case "NSsid":
			rec.NSSID = lastField(fields)
		}
	}
}

func parseIDTuple(fields []string, dst *[4]int) {
	if len(fields) < 4 {
		return
	}
	for i := 0; i < 4; i++ {
		if v, err := strconv.Atoi(fields[i]); err == nil {
			dst[i] = v
		}
	}
}

// lastField returns the innermost namespace's id: the kernel prints one value
// per nesting level, outermost first.
func lastField(fields []string) string {
	if len(fields) == 0 {
		return proctree.MissingID
	}
	return fields[len(fields)-1]
}
