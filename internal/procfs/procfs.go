// Package procfs is the process record source: a one-shot scan of a proc
// filesystem root into raw records. A process that exits between enumeration
// and read is skipped; namespace links that cannot be read for permission
// reasons leave a zero inode on the record.
package procfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Moonlight-Companies/gologger/logger"
	"golang.org/x/sys/unix"

	"procdog/internal/proctree"
)

// DefaultRoot is the proc filesystem mount point scanned by default.
const DefaultRoot = "/proc"

// Source scans a proc root once per Snapshot call.
type Source struct {
	root     string
	threads  bool
	pageSize uint64
	log      *logger.Logger
}

// New creates a Source over the given proc root. When threads is true the
// scan yields one record per thread instead of one per process.
func New(root string, threads bool, log *logger.Logger) *Source {
	return &Source{
		root:     root,
		threads:  threads,
		pageSize: uint64(unix.Getpagesize()),
		log:      log,
	}
}

// Snapshot enumerates the proc root and reads one record per live process or
// thread. Individual read failures are recovered by omission.
func (s *Source) Snapshot() ([]proctree.Record, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.root, err)
	}

	var records []proctree.Record
	for _, entry := range entries {
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		if !s.threads {
			rec, err := s.readRecord(filepath.Join(s.root, entry.Name()), pid)
			if err != nil {
				s.log.Debugln("skipping vanished process", pid, err)
				continue
			}
			records = append(records, rec)
			continue
		}
		tids, err := s.listThreads(pid)
		if err != nil {
			s.log.Debugln("skipping vanished process", pid, err)
			continue
		}
		for _, tid := range tids {
			dir := filepath.Join(s.root, entry.Name(), "task", strconv.Itoa(tid))
			rec, err := s.readRecord(dir, pid)
			if err != nil {
				s.log.Debugln("skipping vanished thread", tid, err)
				continue
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

func (s *Source) listThreads(pid int) ([]int, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, strconv.Itoa(pid), "task"))
	if err != nil {
		return nil, err
	}
	tids := make([]int, 0, len(entries))
	for _, entry := range entries {
		tid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		tids = append(tids, tid)
	}
	return tids, nil
}

// readRecord reads every attribute of one process or thread directory. The
// stat and status files are mandatory; everything else degrades to sentinels.
func (s *Source) readRecord(dir string, tgid int) (proctree.Record, error) {
	var rec proctree.Record

	data, err := os.ReadFile(filepath.Join(dir, "stat"))
	if err != nil {
		return rec, err
	}
	if err := parseStat(string(data), &rec); err != nil {
		return rec, fmt.Errorf("parsing %s/stat: %w", dir, err)
	}
	rec.RSS *= s.pageSize
	rec.TGID = tgid

	// Non-main threads hang under their owning process rather than under the
	// process's own parent.
	if rec.PID != tgid {
		rec.PPID = tgid
	}

	status, err := os.ReadFile(filepath.Join(dir, "status"))
	if err != nil {
		return rec, err
	}
	parseStatus(string(status), &rec)

	rec.Cmdline = s.readCmdline(dir)
	rec.NetNSInode = s.nsInode(dir, "net")
	rec.PIDNSInode = s.nsInode(dir, "pid")
	return rec, nil
}

// readCmdline returns the NUL-separated argument vector, nil for kernel
// threads or when the file cannot be read.
func (s *Source) readCmdline(dir string) []string {
	data, err := os.ReadFile(filepath.Join(dir, "cmdline"))
	if err != nil || len(data) == 0 {
		return nil
	}
	args := strings.Split(strings.TrimRight(string(data), "\x00"), "\x00")
	if len(args) == 1 && args[0] == "" {
		return nil
	}
	return args
}

// nsInode resolves the inode of a namespace link, 0 when the link cannot be
// stat'ed (typically EACCES for other users' processes).
func (s *Source) nsInode(dir, kind string) uint64 {
	var st unix.Stat_t
	if err := unix.Stat(filepath.Join(dir, "ns", kind), &st); err != nil {
		return 0
	}
	return st.Ino
}
