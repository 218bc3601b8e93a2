package selection

import (
	"fmt"
	"strconv"

	"github.com/Moonlight-Companies/gologger/logger"

	"procdog/internal/proctree"
)

// Matcher holds literal pid and name terms. A term that parses as an integer
// is a pid term, everything else matches process names.
type Matcher struct {
	pids  map[int]struct{}
	names map[string]struct{}
}

// NewMatcher classifies each term as a pid or a name.
func NewMatcher(terms []string) *Matcher {
	m := &Matcher{
		pids:  make(map[int]struct{}),
		names: make(map[string]struct{}),
	}
	for _, term := range terms {
		if pid, err := strconv.Atoi(term); err == nil {
			m.pids[pid] = struct{}{}
			continue
		}
		m.names[term] = struct{}{}
	}
	return m
}

// Empty reports whether the matcher holds no terms at all.
func (m *Matcher) Empty() bool {
	return len(m.pids) == 0 && len(m.names) == 0
}

// Matches reports whether the node's pid or name is one of the terms.
func (m *Matcher) Matches(p *proctree.Process) bool {
	if _, ok := m.pids[p.PID]; ok {
		return true
	}
	_, ok := m.names[p.Name]
	return ok
}

// Options configures an Engine.
type Options struct {
	ExcludeTerms []string
	SearchTerms  []string
	DepthLimit   int    // nodes deeper than this are excluded; < 0 means unlimited
	Where        string // optional predicate expression, empty means no predicate
}

// Engine computes per-node visibility from the exclusion filter, the optional
// depth limit, the optional predicate and the search terms.
type Engine struct {
	exclude    *Matcher
	search     *Matcher
	depthLimit int
	where      *Predicate
	log        *logger.Logger
}

// NewEngine builds an engine, compiling the predicate expression if one is
// configured. A predicate that does not compile is a configuration error.
func NewEngine(opts Options, log *logger.Logger) (*Engine, error) {
	e := &Engine{
		exclude:    NewMatcher(opts.ExcludeTerms),
		search:     NewMatcher(opts.SearchTerms),
		depthLimit: opts.DepthLimit,
		log:        log,
	}
	if opts.Where != "" {
		pred, err := CompilePredicate(opts.Where)
		if err != nil {
			return nil, fmt.Errorf("compiling --where predicate: %w", err)
		}
		e.where = pred
	}
	return e, nil
}

// excluded reports whether the node is rejected by the exclusion filter, the
// depth limit, or the predicate.
func (e *Engine) excluded(p *proctree.Process) bool {
	if e.exclude.Matches(p) {
		return true
	}
	if e.depthLimit >= 0 && p.Depth > e.depthLimit {
		return true
	}
	if e.where != nil {
		keep, err := e.where.Keep(p)
		if err != nil {
			// An expression that fails at runtime never hides a node.
			e.log.Warn("predicate failed for pid", p.PID, err)
			return false
		}
		return !keep
	}
	return false
}

// Apply sets Visible on every node of the forest.
//
// Without search terms a node is visible iff it is not excluded. With search
// terms, exclusion decides which nodes may seed a match; a seed then reveals
// its whole ancestor chain and descendant subtree, and those context nodes
// are never re-hidden even where they would match an exclusion term or
// exceed the depth limit ("search overrides exclusion for context").
func (e *Engine) Apply(f *proctree.Forest) {
	if e.search.Empty() {
		f.Each(func(p *proctree.Process) {
			p.Visible = !e.excluded(p)
		})
		return
	}

	f.Each(func(p *proctree.Process) {
		p.Visible = false
	})
	// Nodes whose entire subtree is already revealed. Plain visibility is not
	// enough to prune a subtree walk: an ancestor reveal marks single nodes,
	// not their subtrees.
	done := make(map[*proctree.Process]struct{})
	f.Each(func(p *proctree.Process) {
		if !e.search.Matches(p) || e.excluded(p) {
			return
		}
		e.revealAncestors(p)
		e.revealSubtree(p, done)
	})
}

// revealAncestors walks the parent chain to the root. An already-visible
// ancestor means the rest of the chain was revealed earlier; re-walking it
// would be idempotent, so stopping there is only an optimization.
func (e *Engine) revealAncestors(p *proctree.Process) {
	for cur := p.Parent; cur != nil && !cur.Visible; cur = cur.Parent {
		cur.Visible = true
	}
}

// revealSubtree marks p and its descendants visible, skipping subtrees that
// an earlier seed already revealed in full. Re-walking one would be
// idempotent, so the pruning is only an optimization.
func (e *Engine) revealSubtree(p *proctree.Process, done map[*proctree.Process]struct{}) {
	proctree.WalkSubtree(p, func(n *proctree.Process) bool {
		if _, ok := done[n]; ok {
			return false
		}
		n.Visible = true
		done[n] = struct{}{}
		return true
	})
}
