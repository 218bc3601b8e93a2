// Package idname resolves numeric user and group ids to names.
//
// Tables are built once per run from the system databases and injected into
// the columns that need them; nothing here is lazily initialized or global.
// An unreadable or unparsable database is a fatal error because resolved
// columns would otherwise print silently wrong output.
package idname

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Default database locations.
const (
	UsersPath  = "/etc/passwd"
	GroupsPath = "/etc/group"
)

// Table maps a numeric id to a name. A missing entry falls back to the
// decimal id at lookup time.
type Table map[int]string

// Lookup returns the name for id, or its decimal form when unknown.
func (t Table) Lookup(id int) string {
	if name, ok := t[id]; ok {
		return name
	}
	return strconv.Itoa(id)
}

// LoadUsers parses a passwd-format database (name:x:uid:...).
func LoadUsers(path string) (Table, error) {
	return load(path, 2)
}

// LoadGroups parses a group-format database (name:x:gid:...).
func LoadGroups(path string) (Table, error) {
	return load(path, 2)
}

// load reads a colon-separated database mapping field idField back to the
// name in field 0. Blank lines and comments are tolerated; anything else
// malformed is an error.
func load(path string, idField int) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading id database: %w", err)
	}

	table := make(Table)
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ":")
		if len(fields) <= idField {
			return nil, fmt.Errorf("%s:%d: expected at least %d fields", path, i+1, idField+1)
		}
		id, err := strconv.Atoi(fields[idField])
		if err != nil {
			return nil, fmt.Errorf("%s:%d: bad id %q: %w", path, i+1, fields[idField], err)
		}
		// First entry wins when a database maps one id to several names.
		if _, ok := table[id]; !ok {
			table[id] = fields[0]
		}
	}
	return table, nil
}
