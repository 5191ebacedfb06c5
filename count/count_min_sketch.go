package count

import (
	"reflect"
	"slices"
	"sync"

	"github.com/kwertop/algokit"
	"github.com/kwertop/algokit/hash"
)

// CountMinSketch estimates per-key frequencies over a stream using depth rows
// of width counters. Estimates never undercount; collisions can only inflate
// them. There is no resize: build a new sketch with other dimensions.
//
// A CountMinSketch is safe for concurrent use.
type CountMinSketch struct {
	mu     sync.RWMutex
	depth  int
	width  int
	family hash.Family
	matrix [][]uint64
	allSum uint64
}

type options struct {
	family hash.Family
}

// Option configures a CountMinSketch.
type Option func(*options)

// WithHashFamily selects the hash family used to place keys in each row.
func WithHashFamily(family hash.Family) Option {
	return func(o *options) {
		if family != nil {
			o.family = family
		}
	}
}

func NewCountMinSketch(depth, width int, opts ...Option) (*CountMinSketch, error) {
	if depth <= 0 {
		return nil, algokit.InvalidInput("depth", "must be positive, got %d", depth)
	}
	if width <= 0 {
		return nil, algokit.InvalidInput("width", "must be positive, got %d", width)
	}
	cfg := options{family: hash.Default}
	for _, opt := range opts {
		opt(&cfg)
	}
	matrix := make([][]uint64, depth)
	for i := range matrix {
		matrix[i] = make([]uint64, width)
	}
	return &CountMinSketch{
		depth:  depth,
		width:  width,
		family: cfg.family,
		matrix: matrix,
	}, nil
}

// NewCountMinSketchFromEstimates sizes the sketch so that estimates exceed
// the true count by at most errorRate*Total() with probability 1-delta.
func NewCountMinSketchFromEstimates(errorRate, delta float64, opts ...Option) (*CountMinSketch, error) {
	if errorRate <= 0 || errorRate >= 1 {
		return nil, algokit.InvalidInput("errorRate", "must be in (0, 1), got %v", errorRate)
	}
	if delta <= 0 || delta >= 1 {
		return nil, algokit.InvalidInput("delta", "must be in (0, 1), got %v", delta)
	}
	width := algokit.CalculateSketchWidth(errorRate)
	depth := algokit.CalculateSketchDepth(delta)
	return NewCountMinSketch(int(algokit.Max(depth, 1)), int(width), opts...)
}

func (cms *CountMinSketch) GetRows() int {
	return cms.depth
}

func (cms *CountMinSketch) GetColumns() int {
	return cms.width
}

func (cms *CountMinSketch) column(row int, key string) uint64 {
	return cms.family.Hash(row, key, uint64(cms.width))
}

// Add records count occurrences of key. Non-positive counts are ignored.
func (cms *CountMinSketch) Add(key string, count int64) {
	if count <= 0 {
		return
	}
	cms.mu.Lock()
	defer cms.mu.Unlock()
	for r := range cms.matrix {
		cms.matrix[r][cms.column(r, key)] += uint64(count)
	}
	cms.allSum += uint64(count)
}

// AddOnce records a single occurrence of key.
func (cms *CountMinSketch) AddOnce(key string) {
	cms.Add(key, 1)
}

// Estimate returns the smallest counter key maps to across all rows.
func (cms *CountMinSketch) Estimate(key string) uint64 {
	cms.mu.RLock()
	defer cms.mu.RUnlock()
	var min uint64
	for r := range cms.matrix {
		c := cms.matrix[r][cms.column(r, key)]
		if r == 0 || c < min {
			min = c
		}
	}
	return min
}

// EstimateMany estimates every key; duplicate keys collapse into one entry.
func (cms *CountMinSketch) EstimateMany(keys []string) map[string]uint64 {
	estimates := make(map[string]uint64, len(keys))
	for _, key := range keys {
		estimates[key] = cms.Estimate(key)
	}
	return estimates
}

// Total returns the sum of all accepted counts.
func (cms *CountMinSketch) Total() uint64 {
	cms.mu.RLock()
	defer cms.mu.RUnlock()
	return cms.allSum
}

// Merge adds the counters of other into cms. Both sketches must share
// dimensions and hash family. other is copied under its own read lock before
// cms is locked, so concurrent cross merges cannot deadlock.
func (cms *CountMinSketch) Merge(other *CountMinSketch) error {
	if cms == other {
		return algokit.InvalidInput("other", "cannot merge a sketch into itself")
	}
	if cms.depth != other.depth {
		return algokit.InvalidInput("depth", "can't merge sketches with unequal row counts, %d and %d", cms.depth, other.depth)
	}
	if cms.width != other.width {
		return algokit.InvalidInput("width", "can't merge sketches with unequal column counts, %d and %d", cms.width, other.width)
	}
	if !sameFamily(cms.family, other.family) {
		return algokit.InvalidInput("family", "can't merge sketches with different hash families, %T and %T", cms.family, other.family)
	}

	other.mu.RLock()
	snapshot := make([][]uint64, len(other.matrix))
	for i, row := range other.matrix {
		snapshot[i] = slices.Clone(row)
	}
	otherSum := other.allSum
	other.mu.RUnlock()

	cms.mu.Lock()
	defer cms.mu.Unlock()
	for i := range cms.matrix {
		for j := range cms.matrix[i] {
			cms.matrix[i][j] += snapshot[i][j]
		}
	}
	cms.allSum += otherSum
	return nil
}

func sameFamily(a, b hash.Family) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta != nil && ta.Comparable() {
		return a == b
	}
	return true
}
