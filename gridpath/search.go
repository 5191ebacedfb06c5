package gridpath

import (
	"container/heap"
	"math"
)

// Search runs algo from start to goal.
func Search(g Grid, start, goal Coord, algo Algorithm) (SearchResult, error) {
	if algo == AlgorithmAStar {
		return AStar(g, start, goal)
	}
	return Dijkstra(g, start, goal)
}

// Dijkstra returns the cheapest route from start to goal.
//
// A start or goal outside the grid or on a blocked cell yields the
// unreachable result with Explored == 0.
func Dijkstra(g Grid, start, goal Coord) (SearchResult, error) {
	return run(g, start, goal, func(Coord) float64 { return 0 })
}

// AStar returns a route from start to goal guided by the Manhattan distance.
// It is the cheapest route when every cell cost is at least 1.
func AStar(g Grid, start, goal Coord) (SearchResult, error) {
	return run(g, start, goal, func(c Coord) float64 { return Manhattan(c, goal) })
}

func run(g Grid, start, goal Coord, h func(Coord) float64) (SearchResult, error) {
	if err := g.Validate(); err != nil {
		return SearchResult{}, err
	}
	if !g.Open(start) || !g.Open(goal) {
		return unreachable(0), nil
	}
	r := newRunner(g, start, goal, h)
	return r.process(), nil
}

// runner holds the mutable state of a single search.
type runner struct {
	g           Grid
	cols        int
	start, goal Coord
	h           func(Coord) float64
	best        []float64 // best known distance per cell index
	parent      []int     // predecessor cell index, -1 if none
	pq          nodePQ
	seq         int
	explored    int
}

func newRunner(g Grid, start, goal Coord, h func(Coord) float64) *runner {
	n := g.Rows() * g.Cols()
	r := &runner{
		g:      g,
		cols:   g.Cols(),
		start:  start,
		goal:   goal,
		h:      h,
		best:   make([]float64, n),
		parent: make([]int, n),
	}
	for i := range r.best {
		r.best[i] = math.Inf(1)
		r.parent[i] = -1
	}
	r.best[r.index(start)] = 0
	r.push(start, 0)
	return r
}

func (r *runner) index(c Coord) int { return c.Row*r.cols + c.Col }

func (r *runner) coord(i int) Coord { return Coord{Row: i / r.cols, Col: i % r.cols} }

func (r *runner) push(c Coord, dist float64) {
	heap.Push(&r.pq, nodeItem{
		cell:     c,
		dist:     dist,
		priority: dist + r.h(c),
		seq:      r.seq,
	})
	r.seq++
}

func (r *runner) process() SearchResult {
	for r.pq.Len() > 0 {
		item := heap.Pop(&r.pq).(nodeItem)
		r.explored++

		u := item.cell
		if u == r.goal {
			return SearchResult{
				Distance: item.dist,
				Path:     r.reconstruct(),
				Explored: r.explored,
			}
		}
		if item.dist > r.best[r.index(u)] {
			continue // superseded by a cheaper push
		}
		r.relax(u, item.dist)
	}
	return unreachable(r.explored)
}

func (r *runner) relax(u Coord, d float64) {
	for _, v := range r.g.Neighbors(u) {
		nd := d + r.g[v.Row][v.Col]
		vi := r.index(v)
		if nd >= r.best[vi] {
			continue
		}
		r.best[vi] = nd
		r.parent[vi] = r.index(u)
		r.push(v, nd)
	}
}

// reconstruct walks parents back from the goal. A broken chain yields an
// empty path.
func (r *runner) reconstruct() []Coord {
	startIdx := r.index(r.start)
	var rev []Coord
	for cur := r.index(r.goal); cur != startIdx; cur = r.parent[cur] {
		if r.parent[cur] < 0 {
			return []Coord{}
		}
		rev = append(rev, r.coord(cur))
	}
	rev = append(rev, r.start)
	path := make([]Coord, len(rev))
	for i, c := range rev {
		path[len(rev)-1-i] = c
	}
	return path
}

// nodeItem is one frontier entry.
type nodeItem struct {
	cell     Coord
	dist     float64 // distance from start when pushed
	priority float64 // dist plus heuristic
	seq      int     // push order, for deterministic ties
}

// nodePQ is a min-heap on priority. Equal priorities prefer the entry
// further from the start, then the earlier push.
type nodePQ []nodeItem

func (pq nodePQ) Len() int { return len(pq) }

func (pq nodePQ) Less(i, j int) bool {
	if pq[i].priority != pq[j].priority {
		return pq[i].priority < pq[j].priority
	}
	if pq[i].dist != pq[j].dist {
		return pq[i].dist > pq[j].dist
	}
	return pq[i].seq < pq[j].seq
}

func (pq nodePQ) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }

func (pq *nodePQ) Push(x any) { *pq = append(*pq, x.(nodeItem)) }

func (pq *nodePQ) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}
