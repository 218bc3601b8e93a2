package columns

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"procdog/internal/proctree"
)

// Alignment controls cell padding. AlignNone cells are never padded, only
// truncated by their own formatter.
type Alignment int

const (
	AlignNone Alignment = iota
	AlignLeft
	AlignRight
)

// Column is one active output column: a title, an alignment, a formatter
// from record to cell string, and the maximum display width observed across
// the run. The width accumulator is mutated during the renderer's
// measurement pass and read-only afterwards.
type Column struct {
	title    string
	align    Alignment
	format   func(*proctree.Process) string
	maxWidth int
}

func newColumn(title string, align Alignment, format func(*proctree.Process) string) *Column {
	return &Column{
		title:    title,
		align:    align,
		format:   format,
		maxWidth: runewidth.StringWidth(title),
	}
}

// Title returns the header text.
func (c *Column) Title() string { return c.title }

// Width returns the maximum display width observed so far, never less than
// the title's width.
func (c *Column) Width() int { return c.maxWidth }

// Cell formats the record and feeds the result into the width accumulator.
// Formatting is a pure function of the record, so the renderer can safely
// cache the returned string for its emission pass.
func (c *Column) Cell(p *proctree.Process) string {
	cell := c.format(p)
	if w := runewidth.StringWidth(cell); w > c.maxWidth {
		c.maxWidth = w
	}
	return cell
}

// Render pads a previously measured cell to the column's final width.
func (c *Column) Render(cell string) string {
	switch c.align {
	case AlignRight:
		return pad(cell, c.maxWidth) + cell
	case AlignLeft:
		return cell + pad(cell, c.maxWidth)
	default:
		return cell
	}
}

// RenderTitle pads the header like any other cell, except that AlignNone
// titles are left-aligned so the header still lines up over its column.
func (c *Column) RenderTitle() string {
	if c.align == AlignRight {
		return pad(c.title, c.maxWidth) + c.title
	}
	return c.title + pad(c.title, c.maxWidth)
}

func pad(s string, width int) string {
	n := width - runewidth.StringWidth(s)
	if n <= 0 {
		return ""
	}
	return strings.Repeat(" ", n)
}
