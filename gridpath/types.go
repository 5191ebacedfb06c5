package gridpath

import (
	"math"
	"strings"

	"github.com/kwertop/algokit"
)

// Blocked marks an impassable cell.
var Blocked = math.Inf(1)

// Grid holds cell costs row by row. Every row has the same length and every
// cost is either non-negative or Blocked.
type Grid [][]float64

// Coord is a 0-indexed (row, column) position.
type Coord struct {
	Row, Col int
}

// Algorithm selects the search strategy.
type Algorithm string

const (
	AlgorithmDijkstra Algorithm = "dijkstra"
	AlgorithmAStar    Algorithm = "astar"
)

// ParseAlgorithm resolves an algorithm name case-insensitively. The empty
// string selects Dijkstra.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(name))) {
	case "", AlgorithmDijkstra:
		return AlgorithmDijkstra, nil
	case AlgorithmAStar, "a*":
		return AlgorithmAStar, nil
	}
	return "", algokit.InvalidInput("algorithm", "unknown algorithm %q", name)
}

// SearchResult is the outcome of one search.
type SearchResult struct {
	// Distance is the summed cost of every cell entered, +Inf if unreachable.
	Distance float64
	// Path runs from start to goal inclusive; empty if unreachable.
	Path []Coord
	// Explored counts frontier pops, including stale ones.
	Explored int
}

// Found reports whether a route was found.
func (r SearchResult) Found() bool {
	return len(r.Path) > 0 && !math.IsInf(r.Distance, 1)
}

func unreachable(explored int) SearchResult {
	return SearchResult{Distance: math.Inf(1), Path: []Coord{}, Explored: explored}
}

// FromNullable builds a Grid where nil cells are Blocked.
func FromNullable(rows [][]*float64) Grid {
	g := make(Grid, len(rows))
	for r, row := range rows {
		g[r] = make([]float64, len(row))
		for c, cell := range row {
			if cell == nil {
				g[r][c] = Blocked
			} else {
				g[r][c] = *cell
			}
		}
	}
	return g
}

// Validate checks the grid is non-empty, rectangular and has no negative or
// NaN costs.
func (g Grid) Validate() error {
	if len(g) == 0 || len(g[0]) == 0 {
		return algokit.InvalidInput("grid", "must have at least one row and one column")
	}
	cols := len(g[0])
	for r, row := range g {
		if len(row) != cols {
			return algokit.InvalidInput("grid", "row %d has %d cells, expected %d", r, len(row), cols)
		}
		for c, cost := range row {
			if math.IsNaN(cost) || cost < 0 {
				return algokit.InvalidInput("grid", "cell (%d, %d) has invalid cost %v", r, c, cost)
			}
		}
	}
	return nil
}

// Rows returns the number of rows.
func (g Grid) Rows() int { return len(g) }

// Cols returns the number of columns.
func (g Grid) Cols() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// InBounds reports whether c lies inside the grid.
func (g Grid) InBounds(c Coord) bool {
	return c.Row >= 0 && c.Row < g.Rows() && c.Col >= 0 && c.Col < g.Cols()
}

// Open reports whether c is inside the grid and not blocked.
func (g Grid) Open(c Coord) bool {
	return g.InBounds(c) && !math.IsInf(g[c.Row][c.Col], 1)
}

// neighborOffsets is the exploration order: up, down, left, right.
var neighborOffsets = [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

// Neighbors returns the open cells adjacent to c, in exploration order.
func (g Grid) Neighbors(c Coord) []Coord {
	out := make([]Coord, 0, len(neighborOffsets))
	for _, off := range neighborOffsets {
		n := Coord{Row: c.Row + off[0], Col: c.Col + off[1]}
		if g.Open(n) {
			out = append(out, n)
		}
	}
	return out
}

// Manhattan returns |Δrow| + |Δcol|.
func Manhattan(a, b Coord) float64 {
	return math.Abs(float64(a.Row-b.Row)) + math.Abs(float64(a.Col-b.Col))
}
