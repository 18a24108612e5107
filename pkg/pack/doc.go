// Package pack places axis-aligned rectangles without overlap while keeping
// wired rectangles close together.
//
// # Overview
//
// [Pack] takes a [Problem] (rectangle sizes, wires between local attachment
// points, and per-rectangle edge requirements) and returns bottom-left
// positions that minimise
//
//	SizeWeight·(W + H) + WireWeight·Σ(|Δx| + |Δy|)
//
// where W and H are the extents of the used bounding box and Δx, Δy are the
// Manhattan components of every wire. A rectangle with an edge requirement
// must touch at least one side of that bounding box.
//
// # Model
//
// Coordinates are fixed-point: sizes are rounded up and wire offsets rounded
// to 1/[Scale] units, so the search runs on integers and the returned
// positions are multiples of 1/Scale. Every coordinate is bounded by the sum
// of all sizes on its axis, which is always enough room for a single row or
// column.
//
// # Search
//
// The solver is a branch and bound over disjunctions. A node fixes, for some
// pairs, which side of each other two rectangles sit on, and for some edge
// requirements, which side of the box a rectangle touches. Under those
// decisions the x and y axes decouple into two linear programs, solved with
// the gonum simplex implementation; their sum bounds every placement in the
// subtree. A difference-constraint pass checks feasibility before the LP runs
// and snaps the LP vertex back onto integer coordinates.
//
// Nodes are explored depth first. The most overlapping undecided pair is
// split four ways (left, right, below, above), ordered by how far the
// rectangles have to move. The first incumbent comes from simple packings (a
// row, a column, max-rects strips) that are then compacted by the LP.
//
// # Termination
//
// The search stops when the tree is exhausted ([StatusOptimal]) or when the
// time limit, a context deadline or the node budget runs out, in which case
// the best placement found so far is returned with [StatusFeasible]. A
// cancelled context aborts with the context error.
//
// # Errors
//
// Malformed input fails with an INVALID_MODEL error before any search runs.
// INFEASIBLE_LAYOUT is returned when no placement satisfies the edge
// requirements; with valid input a single row always does, so in practice
// this only surfaces when every candidate fails numerically.
package pack
