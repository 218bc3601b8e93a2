// Package proctree builds a parent/child forest from flat process records.
package proctree

// MissingID is the sentinel for namespace-local ids that could not be read.
const MissingID = "-"

// Record is one raw attribute tuple produced by a record source. It carries
// everything read from the OS for a single process or thread; it has no tree
// structure of its own.
type Record struct {
	PID        int    // thread id when threads are enumerated, else process id
	TGID       int    // owning process id; equals PID outside thread enumeration
	PPID       int
	PGID       int
	SID        int
	Name       string
	Status     string // single-character state code
	NumThreads int
	VSZ        uint64 // virtual size in bytes
	RSS        uint64 // resident size in bytes

	UIDs [4]int // real, effective, saved, filesystem
	GIDs [4]int

	// Namespace inode numbers; 0 when unreadable due to permission.
	NetNSInode uint64
	PIDNSInode uint64

	// Namespace-local ids as reported by the kernel, MissingID when absent.
	NSPID  string // thread id inside the pid namespace
	NSTGID string // process id inside the pid namespace
	NSPGID string
	NSSID  string

	Cmdline []string
}

// Process is one node of the forest: a Record plus the structure computed by
// Build and the visibility decided by the selection engine.
type Process struct {
	Record

	Parent   *Process   // nil for roots
	Children []*Process // insertion order = discovery order
	Depth    int        // 0 for roots
	Visible  bool

	// Cells holds the formatted cell strings cached by the renderer between
	// its measurement and emission passes.
	Cells []string
}

// Forest maps pids to nodes and owns the ordered root list.
type Forest struct {
	ByPID map[int]*Process
	Roots []*Process
	order []*Process // materialization order, used by Each
}

// Build materializes one Process per record and wires up the forest.
// A record whose declared parent id is not in the set becomes a root; this
// covers parents that exited before the scan reached them.
func Build(records []Record) *Forest {
	f := &Forest{
		ByPID: make(map[int]*Process, len(records)),
		order: make([]*Process, 0, len(records)),
	}
	for _, r := range records {
		p := &Process{Record: r, Visible: true}
		f.ByPID[p.PID] = p
		f.order = append(f.order, p)
	}
	for _, p := range f.order {
		parent := f.ByPID[p.PPID]
		if parent == nil || parent == p {
			f.Roots = append(f.Roots, p)
			continue
		}
		p.Parent = parent
		parent.Children = append(parent.Children, p)
	}
	f.computeDepths()
	return f
}

// computeDepths assigns depths with an explicit stack; recursion would grow
// the call stack linearly with tree height.
func (f *Forest) computeDepths() {
	stack := make([]*Process, 0, len(f.order))
	for i := len(f.Roots) - 1; i >= 0; i-- {
		stack = append(stack, f.Roots[i])
	}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if p.Parent != nil {
			p.Depth = p.Parent.Depth + 1
		}
		for i := len(p.Children) - 1; i >= 0; i-- {
			stack = append(stack, p.Children[i])
		}
	}
}

// Each calls visit for every node in materialization order.
func (f *Forest) Each(visit func(*Process)) {
	for _, p := range f.order {
		visit(p)
	}
}

// Walk traverses the forest in preorder: a root, then each child's subtree in
// insertion order. When visit returns false the node's subtree is skipped.
func (f *Forest) Walk(visit func(*Process) bool) {
	stack := make([]*Process, 0, len(f.order))
	for i := len(f.Roots) - 1; i >= 0; i-- {
		stack = append(stack, f.Roots[i])
	}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visit(p) {
			continue
		}
		for i := len(p.Children) - 1; i >= 0; i-- {
			stack = append(stack, p.Children[i])
		}
	}
}

// WalkSubtree traverses the subtree rooted at p in preorder, p included.
func WalkSubtree(p *Process, visit func(*Process) bool) {
	stack := []*Process{p}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visit(n) {
			continue
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
}
