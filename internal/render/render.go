// Package render emits a measured table or a flat listing over a LineSink.
package render

import (
	"fmt"
	"io"
	"strings"

	"procdog/internal/columns"
	"procdog/internal/proctree"
)

// separator joins columns on every output line.
const separator = " "

// LineSink receives fully formatted output lines, one call per line.
type LineSink interface {
	WriteLine(line string) error
}

// WriterSink adapts an io.Writer into a LineSink.
type WriterSink struct {
	w io.Writer
}

// NewWriterSink wraps w; each line is written with a trailing newline.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// WriteLine writes one line followed by a newline.
func (s *WriterSink) WriteLine(line string) error {
	_, err := fmt.Fprintln(s.w, line)
	return err
}

// Table renders a forest in two passes: measure every visible cell so each
// column knows its final width, then emit the header and one line per
// visible node in preorder.
type Table struct {
	cols []*columns.Column
}

// NewTable creates a renderer over the active columns.
func NewTable(cols []*columns.Column) *Table {
	return &Table{cols: cols}
}

// Render measures and emits the forest. A hidden node's subtree is skipped
// entirely; search-with-context keeps match paths printable by marking the
// ancestors themselves visible, so nothing renderable is ever below a hidden
// node. An empty forest yields just the header.
func (t *Table) Render(f *proctree.Forest, sink LineSink) error {
	t.measure(f)

	if err := sink.WriteLine(t.headerLine()); err != nil {
		return err
	}

	var werr error
	f.Walk(func(p *proctree.Process) bool {
		if werr != nil || !p.Visible {
			return false
		}
		werr = sink.WriteLine(t.rowLine(p))
		return true
	})
	return werr
}

// measure runs pass 1: format every (column, visible node) cell, growing the
// column width accumulators, and cache the exact strings on the nodes so
// pass 2 emits what was measured.
func (t *Table) measure(f *proctree.Forest) {
	f.Walk(func(p *proctree.Process) bool {
		if !p.Visible {
			return false
		}
		cells := make([]string, len(t.cols))
		for i, col := range t.cols {
			cells[i] = col.Cell(p)
		}
		p.Cells = cells
		return true
	})
}

func (t *Table) headerLine() string {
	parts := make([]string, len(t.cols))
	for i, col := range t.cols {
		parts[i] = col.RenderTitle()
	}
	return strings.TrimRight(strings.Join(parts, separator), " ")
}

func (t *Table) rowLine(p *proctree.Process) string {
	parts := make([]string, len(t.cols))
	for i, col := range t.cols {
		parts[i] = col.Render(p.Cells[i])
	}
	return strings.TrimRight(strings.Join(parts, separator), " ")
}

// List emits the unordered flat listing produced by the -l flag: one summary
// line per record, no header, no tree shape.
func List(f *proctree.Forest, sink LineSink) error {
	var werr error
	f.Each(func(p *proctree.Process) {
		if werr != nil {
			return
		}
		const mib = 1024.0 * 1024
		werr = sink.WriteLine(fmt.Sprintf("pid: %6d, ppid: %6d, vsz-m: %6.1f, rss-m: %6.1f, name: %s",
			p.PID, p.PPID, float64(p.VSZ)/mib, float64(p.RSS)/mib, p.Name))
	})
	return werr
}
