package procfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/Moonlight-Companies/gologger/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procdog/internal/proctree"
)

var testLog = logger.NewLogger("procfs-test")

// statLine builds a /proc stat line with the fields the source reads; rss is
// in pages.
func statLine(pid int, name, state string, ppid, pgid, sid, nthr int, vsz, rssPages uint64) string {
	return fmt.Sprintf("%d (%s) %s %d %d %d 0 -1 4194560 0 0 0 0 0 0 0 0 20 0 %d 0 0 %d %d",
		pid, name, state, ppid, pgid, sid, nthr, vsz, rssPages)
}

func statusContent(uids, gids [4]int, nsLines string) string {
	return fmt.Sprintf("Name:\tx\nUid:\t%d\t%d\t%d\t%d\nGid:\t%d\t%d\t%d\t%d\n%s",
		uids[0], uids[1], uids[2], uids[3], gids[0], gids[1], gids[2], gids[3], nsLines)
}

func writeProc(t *testing.T, root string, pid int, stat, status string, cmdline []byte) {
	t.Helper()
	dir := filepath.Join(root, strconv.Itoa(pid))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stat"), []byte(stat+"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "status"), []byte(status), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cmdline"), cmdline, 0o644))
}

func snapshot(t *testing.T, root string, threads bool) map[int]proctree.Record {
	t.Helper()
	records, err := New(root, threads, testLog).Snapshot()
	require.NoError(t, err)
	byPID := make(map[int]proctree.Record, len(records))
	for _, r := range records {
		byPID[r.PID] = r
	}
	return byPID
}

func TestSnapshot_ReadsRecords(t *testing.T) {
	root := t.TempDir()
	writeProc(t, root, 1,
		statLine(1, "init", "S", 0, 1, 1, 1, 2097152, 3),
		statusContent([4]int{0, 0, 0, 0}, [4]int{0, 0, 0, 0}, "NSpid:\t1\nNStgid:\t1\nNSpgid:\t1\nNSsid:\t1\n"),
		[]byte("/sbin/init\x00splash\x00"))
	writeProc(t, root, 2,
		statLine(2, "bash", "R", 1, 2, 2, 4, 4096, 1),
		statusContent([4]int{1000, 1000, 1000, 1000}, [4]int{1000, 4, 27, 1000}, ""),
		nil)

	byPID := snapshot(t, root, false)
	require.Len(t, byPID, 2)

	init := byPID[1]
	assert.Equal(t, 1, init.TGID)
	assert.Equal(t, 0, init.PPID)
	assert.Equal(t, "init", init.Name)
	assert.Equal(t, "S", init.Status)
	assert.Equal(t, 1, init.NumThreads)
	assert.Equal(t, uint64(2097152), init.VSZ)
	assert.Equal(t, uint64(3*os.Getpagesize()), init.RSS, "rss pages are scaled to bytes")
	assert.Equal(t, []string{"/sbin/init", "splash"}, init.Cmdline)
	assert.Equal(t, "1", init.NSPID)
	assert.Equal(t, "1", init.NSTGID)

	bash := byPID[2]
	assert.Equal(t, 1, bash.PPID)
	assert.Equal(t, 2, bash.PGID)
	assert.Equal(t, 2, bash.SID)
	assert.Equal(t, [4]int{1000, 1000, 1000, 1000}, bash.UIDs)
	assert.Equal(t, [4]int{1000, 4, 27, 1000}, bash.GIDs)
	assert.Nil(t, bash.Cmdline, "empty cmdline stays nil")
	assert.Equal(t, "-", bash.NSPID, "absent NS lines leave the sentinel")
	assert.Equal(t, uint64(0), bash.NetNSInode, "unreadable namespace link leaves the zero sentinel")
}

func TestSnapshot_SkipsVanishedProcess(t *testing.T) {
	root := t.TempDir()
	writeProc(t, root, 1,
		statLine(1, "init", "S", 0, 1, 1, 1, 1024, 1),
		statusContent([4]int{0, 0, 0, 0}, [4]int{0, 0, 0, 0}, ""),
		nil)
	// Process 999 exited between enumeration and read: directory exists but
	// its files are gone.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "999"), 0o755))

	byPID := snapshot(t, root, false)
	require.Len(t, byPID, 1)
	assert.NotContains(t, byPID, 999)
}

func TestSnapshot_IgnoresNonNumericEntries(t *testing.T) {
	root := t.TempDir()
	writeProc(t, root, 1,
		statLine(1, "init", "S", 0, 1, 1, 1, 1024, 1),
		statusContent([4]int{0, 0, 0, 0}, [4]int{0, 0, 0, 0}, ""),
		nil)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sys"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "uptime"), []byte("1 2\n"), 0o644))

	byPID := snapshot(t, root, false)
	assert.Len(t, byPID, 1)
}

func TestSnapshot_Threads(t *testing.T) {
	root := t.TempDir()
	procDir := filepath.Join(root, "100")
	require.NoError(t, os.MkdirAll(procDir, 0o755))
	// The process directory itself needs no stat in thread mode; records come
	// from task/.
	for _, tid := range []int{100, 101} {
		dir := filepath.Join(procDir, "task", strconv.Itoa(tid))
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "stat"),
			[]byte(statLine(tid, "worker", "S", 1, 100, 100, 2, 1024, 1)+"\n"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "status"),
			[]byte(statusContent([4]int{0, 0, 0, 0}, [4]int{0, 0, 0, 0}, "")), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "cmdline"), nil, 0o644))
	}

	byPID := snapshot(t, root, true)
	require.Len(t, byPID, 2)

	main := byPID[100]
	assert.Equal(t, 100, main.TGID)
	assert.Equal(t, 1, main.PPID, "the main thread keeps the process parent")

	worker := byPID[101]
	assert.Equal(t, 100, worker.TGID)
	assert.Equal(t, 100, worker.PPID, "non-main threads hang under their process")
}

func TestParseStat_NameWithSpacesAndParens(t *testing.T) {
	var rec proctree.Record
	line := statLine(7, "Web Content", "S", 1, 7, 7, 2, 1024, 1)
	require.NoError(t, parseStat(line, &rec))
	assert.Equal(t, "Web Content", rec.Name)

	rec = proctree.Record{}
	require.NoError(t, parseStat(statLine(8, "a) b", "R", 1, 8, 8, 1, 1, 1), &rec))
	assert.Equal(t, "a) b", rec.Name, "comm is delimited by the last closing paren")
	assert.Equal(t, "R", rec.Status)
	assert.Equal(t, 1, rec.PPID)
}

func TestParseStat_Malformed(t *testing.T) {
	var rec proctree.Record
	assert.Error(t, parseStat("no parens here", &rec))
	assert.Error(t, parseStat("1 (short) S 0 1", &rec))
}

func TestParseStatus_NestedNamespaceIDs(t *testing.T) {
	var rec proctree.Record
	// One value per nesting level, innermost last.
	parseStatus("Uid:\t0\t0\t0\t0\nGid:\t0\t0\t0\t0\nNSpid:\t4021\t12\nNStgid:\t4021\t12\nNSpgid:\t4000\t1\nNSsid:\t3990\t1\n", &rec)

	assert.Equal(t, "12", rec.NSPID)
	assert.Equal(t, "12", rec.NSTGID)
	assert.Equal(t, "1", rec.NSPGID)
	assert.Equal(t, "1", rec.NSSID)
}
