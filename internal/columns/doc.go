// Package columns is the closed catalog of output columns.
//
// Each catalog entry pairs a constructor with a value formatter; the active
// column list for a run is built from the user-chosen identifiers in order.
// A Column accumulates the maximum display width of everything it formats,
// which is what lets the renderer print a correctly sized header before the
// first row: measurement and emission are separate passes over the same
// cached cell strings.
package columns
