package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"

	"github.com/kwertop/algokit"
	"github.com/kwertop/algokit/gridpath"
)

// PathRequest asks for a route across a grid. A nil cell is blocked.
type PathRequest struct {
	Grid      [][]*float64 `json:"grid"`
	Start     [2]int       `json:"start"`
	Goal      [2]int       `json:"goal"`
	Algorithm string       `json:"algorithm,omitempty"`
}

func toCoord(p [2]int) gridpath.Coord { return gridpath.Coord{Row: p[0], Col: p[1]} }

// Validate checks the grid shape and costs, the endpoints and the algorithm.
func (r PathRequest) Validate() error {
	_, _, err := r.resolve()
	return err
}

func (r PathRequest) resolve() (gridpath.Grid, gridpath.Algorithm, error) {
	algo, err := gridpath.ParseAlgorithm(r.Algorithm)
	if err != nil {
		return nil, "", err
	}
	grid := gridpath.FromNullable(r.Grid)
	if err := grid.Validate(); err != nil {
		return nil, "", err
	}
	if !grid.InBounds(toCoord(r.Start)) {
		return nil, "", algokit.InvalidInput("start", "%v is outside the %dx%d grid", r.Start, grid.Rows(), grid.Cols())
	}
	if !grid.InBounds(toCoord(r.Goal)) {
		return nil, "", algokit.InvalidInput("goal", "%v is outside the %dx%d grid", r.Goal, grid.Rows(), grid.Cols())
	}
	return grid, algo, nil
}

// PathResponse reports a search. Distance is nil and Path empty when the
// goal cannot be reached.
type PathResponse struct {
	Algorithm  string   `json:"algorithm"`
	Distance   *float64 `json:"distance"`
	PathLength int      `json:"path_length"`
	Explored   int      `json:"explored_nodes"`
	Path       [][2]int `json:"path,omitempty"`
}

// Found reports whether a route was found.
func (r PathResponse) Found() bool { return r.Distance != nil }

// CycleRequest holds an undirected edge list over nodes [0, N).
type CycleRequest struct {
	N     int      `json:"n"`
	Edges [][2]int `json:"edges"`
}

// Validate checks N and every endpoint.
func (r CycleRequest) Validate() error {
	if r.N < 0 {
		return algokit.InvalidInput("n", "must be non-negative, got %d", r.N)
	}
	if r.Edges == nil {
		return algokit.InvalidInput("edges", "field is required")
	}
	for i, e := range r.Edges {
		if e[0] < 0 || e[0] >= r.N || e[1] < 0 || e[1] >= r.N {
			return algokit.InvalidInput("edges", "edge %d (%d, %d) is outside [0, %d)", i, e[0], e[1], r.N)
		}
	}
	return nil
}

// CycleResponse reports whether the edges close a cycle.
type CycleResponse struct {
	HasCycle bool `json:"has_cycle"`
}

// ReservoirRequest samples K items of Stream. Items are opaque JSON values.
// A nil Seed draws a fresh time-based seed.
type ReservoirRequest struct {
	Stream []json.RawMessage `json:"stream"`
	K      int               `json:"k"`
	Seed   *int64            `json:"seed,omitempty"`
}

// Validate requires a stream. Non-positive K is allowed and samples nothing.
func (r ReservoirRequest) Validate() error {
	if r.Stream == nil {
		return algokit.InvalidInput("stream", "field is required")
	}
	return nil
}

// ReservoirResponse carries the sample.
type ReservoirResponse struct {
	N      int               `json:"n"`
	K      int               `json:"k"`
	Sample []json.RawMessage `json:"sample"`
}

// KeyCount is one sketch update. On the wire it is a [key, count] pair; a
// non-string key is used by its JSON text.
type KeyCount struct {
	Key   string
	Count int64
}

func (kc KeyCount) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{kc.Key, kc.Count})
}

func (kc *KeyCount) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil || len(pair) != 2 {
		return algokit.InvalidInput("adds", "each entry must be [key, count], got %s", data)
	}
	var key string
	if err := json.Unmarshal(pair[0], &key); err != nil {
		key = string(bytes.TrimSpace(pair[0]))
	}
	count, err := parseCount(pair[1])
	if err != nil {
		return algokit.InvalidInput("adds", "count of %q %v, got %s", key, err, pair[1])
	}
	kc.Key = key
	kc.Count = count
	return nil
}

// parseCount reads a JSON number as int64. Integers keep full precision,
// fractions truncate toward zero and anything outside int64 is refused.
func parseCount(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		return 0, errNotANumber
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err != nil || num == "" {
		return 0, errNotANumber
	}
	if n, err := num.Int64(); err == nil {
		return n, nil
	}
	f, err := num.Float64()
	if err != nil || math.IsNaN(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, errCountRange
	}
	return int64(f), nil
}

var (
	errNotANumber = errors.New("must be a number")
	errCountRange = errors.New("is outside the int64 range")
)

// SketchRequest builds a fresh count-min sketch, applies Adds and estimates
// Queries. A zero Depth or Width takes the default.
type SketchRequest struct {
	Depth   int        `json:"depth,omitempty"`
	Width   int        `json:"width,omitempty"`
	Adds    []KeyCount `json:"adds,omitempty"`
	Queries []string   `json:"queries,omitempty"`
}

func (r SketchRequest) dimensions() (depth, width int) {
	depth, width = r.Depth, r.Width
	if depth == 0 {
		depth = DefaultSketchDepth
	}
	if width == 0 {
		width = DefaultSketchWidth
	}
	return depth, width
}

// Validate checks the sketch dimensions.
func (r SketchRequest) Validate() error {
	depth, width := r.dimensions()
	if depth < 0 {
		return algokit.InvalidInput("depth", "must be positive, got %d", depth)
	}
	if width < 0 {
		return algokit.InvalidInput("width", "must be positive, got %d", width)
	}
	return nil
}

// SketchResponse maps each query to its estimate.
type SketchResponse struct {
	Depth     int               `json:"depth"`
	Width     int               `json:"width"`
	Added     int               `json:"added"`
	Estimated map[string]uint64 `json:"estimated"`
}

// BloomAddRequest adds Items to the filter. With Reset the filter is first
// rebuilt with M bits and K hashes (defaults 2048 and 4).
type BloomAddRequest struct {
	Items []string `json:"items"`
	Reset bool     `json:"reset,omitempty"`
	M     int      `json:"m,omitempty"`
	K     int      `json:"k,omitempty"`
}

func (r BloomAddRequest) params() (m, k int) {
	m, k = r.M, r.K
	if m == 0 {
		m = DefaultBloomBits
	}
	if k == 0 {
		k = DefaultBloomHashes
	}
	return m, k
}

// Validate checks the reset parameters. They are ignored without Reset.
func (r BloomAddRequest) Validate() error {
	if !r.Reset {
		return nil
	}
	m, k := r.params()
	if m < 0 {
		return algokit.InvalidInput("m", "must be positive, got %d", m)
	}
	if k < 0 {
		return algokit.InvalidInput("k", "must be positive, got %d", k)
	}
	return nil
}

// BloomAddResponse echoes the added items and the filter parameters.
type BloomAddResponse struct {
	Added []string `json:"added"`
	M     uint     `json:"m"`
	K     uint     `json:"k"`
}

// BloomCheckRequest lists items to test.
type BloomCheckRequest struct {
	Items []string `json:"items"`
}

// BloomCheckResponse maps each item to its probable membership.
type BloomCheckResponse struct {
	Present map[string]bool `json:"present"`
	M       uint            `json:"m"`
	K       uint            `json:"k"`
}

// DigestRequest hashes Text prefixed by Salt.
type DigestRequest struct {
	Text string `json:"text"`
	Salt string `json:"salt,omitempty"`
}

// Validate rejects empty text.
func (r DigestRequest) Validate() error {
	if r.Text == "" {
		return algokit.InvalidInput("text", "field is required")
	}
	return nil
}

// DigestResponse carries the hex SHA-256 digest and the hashed content size,
// salt excluded.
type DigestResponse struct {
	Hash  string `json:"hash"`
	Bytes int64  `json:"bytes"`
}
