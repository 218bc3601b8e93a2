package selection

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"procdog/internal/proctree"
)

// predicateEnv is the environment predicates are type-checked against.
var predicateEnv = map[string]interface{}{
	"pid":    0,
	"ppid":   0,
	"name":   "",
	"status": "",
	"vsz":    uint64(0),
	"rss":    uint64(0),
	"nthr":   0,
}

// Predicate is a compiled boolean expression over one process record.
type Predicate struct {
	prog *vm.Program
}

// CompilePredicate compiles an expression such as
//
//	name == "sshd" && rss > 16 * 1024 * 1024
//
// Expressions are pre-compiled once so evaluation per node is cheap.
func CompilePredicate(src string) (*Predicate, error) {
	prog, err := expr.Compile(src, expr.Env(predicateEnv), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compiling %q: %w", src, err)
	}
	return &Predicate{prog: prog}, nil
}

// Keep evaluates the predicate against one node.
func (pr *Predicate) Keep(p *proctree.Process) (bool, error) {
	env := map[string]interface{}{
		"pid":    p.PID,
		"ppid":   p.PPID,
		"name":   p.Name,
		"status": p.Status,
		"vsz":    p.VSZ,
		"rss":    p.RSS,
		"nthr":   p.NumThreads,
	}
	out, err := expr.Run(pr.prog, env)
	if err != nil {
		return false, err
	}
	keep, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("predicate returned %T, want bool", out)
	}
	return keep, nil
}
