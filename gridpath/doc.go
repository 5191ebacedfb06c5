// Package gridpath finds least-cost routes across weighted grids.
//
// A Grid is a rectangle of cell costs. Moving into a cell costs that cell's
// value; the start cell's own cost is never paid. A cell holding Blocked
// (+Inf) cannot be entered. Movement is 4-directional, explored in the fixed
// order up, down, left, right.
//
// Two searches share one frontier loop:
//
//   - Dijkstra orders the frontier by distance from the start.
//   - AStar orders it by distance plus the Manhattan distance to the goal.
//     That heuristic never overestimates only while every step costs at least
//     1; with cheaper cells AStar still returns a path, but not necessarily the
//     cheapest one. Callers own that assumption.
//
// Both use lazy deletion: improved entries are pushed again and superseded
// ones are skipped when popped. Every pop, stale or not, is counted in
// SearchResult.Explored so the two algorithms can be compared.
//
// An unreachable goal is a normal result with Distance +Inf and an empty
// Path, not an error. Errors are reserved for malformed grids.
//
// Complexity: O(V log V) time and O(V) space for V cells.
package gridpath
