// Package depgraph models the dependency relationships discovered
// during resolution as a directed graph.
//
// The graph serves two consumers: transaction planning, which can
// reorder installs so dependencies precede their dependents, and the
// graph command, which renders a resolution as DOT, SVG, or PNG for
// inspection.
//
// Edges point from dependent to dependency: an edge app -> libfoo means
// app needs libfoo. TopoSort therefore emits libfoo before app.
//
// Dependency graphs may legitimately contain cycles. Resolution
// terminates on them, but no install order exists for the members of a
// cycle, so TopoSort and Validate report ErrCycle and callers fall back
// to discovery order.
package depgraph
