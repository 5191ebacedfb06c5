package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/kwertop/algokit/count"
	"github.com/kwertop/algokit/gridpath"
	"github.com/kwertop/algokit/hash"
	"github.com/kwertop/algokit/sample"
	"github.com/kwertop/algokit/unionfind"
)

var algorithmNames = map[gridpath.Algorithm]string{
	gridpath.AlgorithmDijkstra: "Dijkstra",
	gridpath.AlgorithmAStar:    "A*",
}

// FindPath searches the request grid. An unreachable goal is a successful
// response with a nil Distance.
func (s *Service) FindPath(ctx context.Context, req PathRequest) (PathResponse, error) {
	log := s.logger.WithOperation("find_path")
	grid, algo, err := req.resolve()
	if err != nil {
		log.LogPathSearch(ctx, req.Algorithm, 0, false, err)
		return PathResponse{}, err
	}
	res, err := gridpath.Search(grid, toCoord(req.Start), toCoord(req.Goal), algo)
	log.LogPathSearch(ctx, string(algo), res.Explored, res.Found(), err)
	if err != nil {
		return PathResponse{}, err
	}

	resp := PathResponse{Algorithm: algorithmNames[algo], Explored: res.Explored}
	if !res.Found() {
		return resp, nil
	}
	dist := res.Distance
	resp.Distance = &dist
	resp.PathLength = len(res.Path)
	resp.Path = make([][2]int, len(res.Path))
	for i, c := range res.Path {
		resp.Path[i] = [2]int{c.Row, c.Col}
	}
	return resp, nil
}

// DetectCycle reports whether the request edges close a cycle.
func (s *Service) DetectCycle(ctx context.Context, req CycleRequest) (CycleResponse, error) {
	log := s.logger.WithOperation("detect_cycle")
	if err := req.Validate(); err != nil {
		log.LogCycleCheck(ctx, req.N, len(req.Edges), false, err)
		return CycleResponse{}, err
	}
	edges := make([]unionfind.Edge, len(req.Edges))
	for i, e := range req.Edges {
		edges[i] = unionfind.Edge{U: e[0], V: e[1]}
	}
	hasCycle, err := unionfind.DetectCycle(edges, req.N)
	log.LogCycleCheck(ctx, req.N, len(edges), hasCycle, err)
	if err != nil {
		return CycleResponse{}, err
	}
	return CycleResponse{HasCycle: hasCycle}, nil
}

// Reservoir samples the request stream.
func (s *Service) Reservoir(ctx context.Context, req ReservoirRequest) (ReservoirResponse, error) {
	if err := req.Validate(); err != nil {
		return ReservoirResponse{}, err
	}
	var opts []sample.Option
	if req.Seed != nil {
		opts = append(opts, sample.WithSeed(*req.Seed))
	}
	picked := sample.Sample(req.Stream, req.K, opts...)
	s.logger.WithOperation("reservoir").LogSample(ctx, len(req.Stream), req.K, req.Seed != nil)
	if picked == nil {
		picked = []json.RawMessage{}
	}
	return ReservoirResponse{N: len(req.Stream), K: req.K, Sample: picked}, nil
}

// EstimateCounts builds a request-scoped sketch, applies the adds in order and
// estimates every query.
func (s *Service) EstimateCounts(ctx context.Context, req SketchRequest) (SketchResponse, error) {
	log := s.logger.WithOperation("estimate_counts")
	depth, width := req.dimensions()
	if err := req.Validate(); err != nil {
		log.LogSketch(ctx, depth, width, len(req.Adds), len(req.Queries), err)
		return SketchResponse{}, err
	}
	cms, err := count.NewCountMinSketch(depth, width, count.WithHashFamily(s.family))
	if err != nil {
		log.LogSketch(ctx, depth, width, len(req.Adds), len(req.Queries), err)
		return SketchResponse{}, err
	}
	for _, kc := range req.Adds {
		cms.Add(kc.Key, kc.Count)
	}
	estimated := make(map[string]uint64, len(req.Queries))
	for _, q := range req.Queries {
		estimated[q] = cms.Estimate(q)
	}
	log.LogSketch(ctx, depth, width, len(req.Adds), len(req.Queries), nil)
	return SketchResponse{
		Depth:     depth,
		Width:     width,
		Added:     len(req.Adds),
		Estimated: estimated,
	}, nil
}

// Digest hashes the request text.
func (s *Service) Digest(ctx context.Context, req DigestRequest) (DigestResponse, error) {
	log := s.logger.WithOperation("digest")
	if err := req.Validate(); err != nil {
		log.LogDigest(ctx, "text", 0, err)
		return DigestResponse{}, err
	}
	sum := hash.Digest(req.Text, req.Salt)
	log.LogDigest(ctx, "text", int64(len(req.Text)), nil)
	return DigestResponse{Hash: sum, Bytes: int64(len(req.Text))}, nil
}

// DigestStream hashes r in chunks without holding the content in memory.
func (s *Service) DigestStream(ctx context.Context, r io.Reader, salt string) (DigestResponse, error) {
	sum, n, err := hash.DigestReader(r, salt)
	s.logger.WithOperation("digest").LogDigest(ctx, "stream", n, err)
	if err != nil {
		return DigestResponse{}, fmt.Errorf("service: digesting stream: %w", err)
	}
	return DigestResponse{Hash: sum, Bytes: n}, nil
}
