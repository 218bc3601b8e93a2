// Package selection decides which nodes of a process forest are visible.
//
// Three independent inputs are reconciled into one per-node boolean:
//   - exclusion terms (literal pids and names) plus an optional depth limit
//   - an optional compiled predicate expression (--where)
//   - search terms with context (a match reveals its full ancestor chain
//     and descendant subtree)
//
// Chosen semantic for the exclusion/search interaction: exclusion gates
// which nodes may seed a search match, but never re-hides a node revealed
// as context. The alternative (re-applying exclusion after expansion) is
// deliberately not implemented; see DESIGN.md.
package selection
