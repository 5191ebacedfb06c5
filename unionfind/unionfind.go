// Package unionfind provides a fixed-size disjoint-set forest with path
// compression and union by rank, and cycle detection over an edge stream.
//
// Elements are 0-based indices. A DisjointSet is not safe for concurrent use;
// it is meant to be built and discarded within a single call.
package unionfind

import (
	"github.com/kwertop/algokit"
)

// DisjointSet tracks a partition of n elements.
type DisjointSet struct {
	parent []int
	rank   []int
	sets   int
}

// New returns n singleton sets.
func New(n int) *DisjointSet {
	d := &DisjointSet{
		parent: make([]int, n),
		rank:   make([]int, n),
		sets:   n,
	}
	for i := range d.parent {
		d.parent[i] = i
	}
	return d
}

// Len returns the number of elements.
func (d *DisjointSet) Len() int { return len(d.parent) }

// Sets returns the number of disjoint sets remaining.
func (d *DisjointSet) Sets() int { return d.sets }

// Find returns the root of x's set and points every node on the way
// directly at it.
func (d *DisjointSet) Find(x int) int {
	root := x
	for d.parent[root] != root {
		root = d.parent[root]
	}
	for d.parent[x] != root {
		next := d.parent[x]
		d.parent[x] = root
		x = next
	}
	return root
}

// Connected reports whether x and y share a set.
func (d *DisjointSet) Connected(x, y int) bool {
	return d.Find(x) == d.Find(y)
}

// Union merges the sets of x and y. It returns false, changing nothing, when
// they are already joined. The lower-rank root goes under the higher-rank
// one; on a tie y's root goes under x's root.
func (d *DisjointSet) Union(x, y int) bool {
	rx, ry := d.Find(x), d.Find(y)
	if rx == ry {
		return false
	}
	switch {
	case d.rank[rx] < d.rank[ry]:
		d.parent[rx] = ry
	case d.rank[rx] > d.rank[ry]:
		d.parent[ry] = rx
	default:
		d.parent[ry] = rx
		d.rank[rx]++
	}
	d.sets--
	return true
}

// Edge is an undirected edge between two element indices.
type Edge struct {
	U, V int
}

// DetectCycle reports whether the edges, taken in order, ever join two nodes
// that are already connected. Self-loops count as cycles. Every endpoint must
// lie in [0, n); edges are checked before any is processed.
func DetectCycle(edges []Edge, n int) (bool, error) {
	if n < 0 {
		return false, algokit.InvalidInput("n", "node count must be non-negative, got %d", n)
	}
	for i, e := range edges {
		if e.U < 0 || e.U >= n || e.V < 0 || e.V >= n {
			return false, algokit.InvalidInput("edges", "edge %d (%d, %d) has an endpoint outside [0, %d)", i, e.U, e.V, n)
		}
	}
	d := New(n)
	for _, e := range edges {
		if !d.Union(e.U, e.V) {
			return true, nil
		}
	}
	return false, nil
}
