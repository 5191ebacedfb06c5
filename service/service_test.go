package service_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"strings"
	"sync"
	"testing"
	"testing/iotest"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwertop/algokit"
	"github.com/kwertop/algokit/bitset"
	"github.com/kwertop/algokit/hash"
	"github.com/kwertop/algokit/service"
)

func f(v float64) *float64 { return &v }

func newService(t *testing.T, opts ...service.Option) *service.Service {
	t.Helper()
	svc, err := service.New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestFindPath_ThreeByThree(t *testing.T) {
	svc := newService(t)
	grid := [][]*float64{
		{f(1), f(1), f(1)},
		{f(1), f(2), f(1)},
		{f(1), f(1), f(1)},
	}
	for algo, name := range map[string]string{"dijkstra": "Dijkstra", "astar": "A*", "": "Dijkstra"} {
		resp, err := svc.FindPath(context.Background(), service.PathRequest{
			Grid:      grid,
			Start:     [2]int{0, 0},
			Goal:      [2]int{2, 2},
			Algorithm: algo,
		})
		require.NoError(t, err)
		assert.Equal(t, name, resp.Algorithm)
		require.True(t, resp.Found())
		assert.Equal(t, 4.0, *resp.Distance)
		assert.Equal(t, 5, resp.PathLength)
		assert.Len(t, resp.Path, 5)
		assert.Equal(t, [2]int{0, 0}, resp.Path[0])
		assert.Equal(t, [2]int{2, 2}, resp.Path[4])
		assert.Positive(t, resp.Explored)
	}
}

func TestFindPath_Unreachable(t *testing.T) {
	svc := newService(t)
	resp, err := svc.FindPath(context.Background(), service.PathRequest{
		Grid:  [][]*float64{{f(1), nil, f(1)}},
		Start: [2]int{0, 0},
		Goal:  [2]int{0, 2},
	})
	require.NoError(t, err)
	assert.False(t, resp.Found())
	assert.Nil(t, resp.Distance)
	assert.Zero(t, resp.PathLength)
	assert.Empty(t, resp.Path)
	assert.Equal(t, 1, resp.Explored)

	body, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"algorithm":"Dijkstra","distance":null,"path_length":0,"explored_nodes":1}`, string(body))
}

func TestFindPath_InvalidRequests(t *testing.T) {
	svc := newService(t)
	cases := map[string]service.PathRequest{
		"empty grid":    {Grid: nil},
		"ragged grid":   {Grid: [][]*float64{{f(1), f(1)}, {f(1)}}},
		"negative cost": {Grid: [][]*float64{{f(1), f(-2)}}},
		"start outside": {Grid: [][]*float64{{f(1)}}, Start: [2]int{0, 1}},
		"goal outside":  {Grid: [][]*float64{{f(1)}}, Goal: [2]int{-1, 0}},
		"unknown algo":  {Grid: [][]*float64{{f(1)}}, Algorithm: "bfs"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			assert.True(t, algokit.IsInvalidInput(req.Validate()))
			_, err := svc.FindPath(context.Background(), req)
			assert.ErrorIs(t, err, algokit.ErrInvalidInput)
		})
	}
}

func TestDetectCycle(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	resp, err := svc.DetectCycle(ctx, service.CycleRequest{N: 4, Edges: [][2]int{{0, 1}, {1, 2}, {2, 3}}})
	require.NoError(t, err)
	assert.False(t, resp.HasCycle)

	resp, err = svc.DetectCycle(ctx, service.CycleRequest{N: 3, Edges: [][2]int{{0, 1}, {1, 2}, {2, 0}}})
	require.NoError(t, err)
	assert.True(t, resp.HasCycle)

	_, err = svc.DetectCycle(ctx, service.CycleRequest{N: 2, Edges: [][2]int{{0, 2}}})
	assert.ErrorIs(t, err, algokit.ErrInvalidInput)

	_, err = svc.DetectCycle(ctx, service.CycleRequest{N: -1, Edges: [][2]int{}})
	assert.ErrorIs(t, err, algokit.ErrInvalidInput)

	_, err = svc.DetectCycle(ctx, service.CycleRequest{N: 2})
	assert.ErrorIs(t, err, algokit.ErrInvalidInput)
}

func TestReservoir(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	var req service.ReservoirRequest
	require.NoError(t, json.Unmarshal([]byte(`{"stream":[1,"two",{"three":3},[4],5.5,null,7],"k":3,"seed":42}`), &req))

	a, err := svc.Reservoir(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 7, a.N)
	assert.Equal(t, 3, a.K)
	assert.Len(t, a.Sample, 3)

	b, err := svc.Reservoir(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, a.Sample, b.Sample)

	req.K = -1
	c, err := svc.Reservoir(ctx, req)
	require.NoError(t, err)
	assert.NotNil(t, c.Sample)
	assert.Empty(t, c.Sample)

	_, err = svc.Reservoir(ctx, service.ReservoirRequest{K: 2})
	assert.ErrorIs(t, err, algokit.ErrInvalidInput)
}

func TestEstimateCounts(t *testing.T) {
	svc := newService(t)

	var req service.SketchRequest
	require.NoError(t, json.Unmarshal([]byte(`{
		"adds": [["pikachu", 3], ["bulbasaur", 1], ["pikachu", 2]],
		"queries": ["pikachu", "mew"]
	}`), &req))

	resp, err := svc.EstimateCounts(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, service.DefaultSketchDepth, resp.Depth)
	assert.Equal(t, service.DefaultSketchWidth, resp.Width)
	assert.Equal(t, 3, resp.Added)
	assert.Equal(t, map[string]uint64{"pikachu": 5, "mew": 0}, resp.Estimated)

	_, err = svc.EstimateCounts(context.Background(), service.SketchRequest{Depth: -1})
	assert.ErrorIs(t, err, algokit.ErrInvalidInput)
}

func TestKeyCount_JSON(t *testing.T) {
	var adds []service.KeyCount
	require.NoError(t, json.Unmarshal([]byte(`[["a", 2], [7, 1.9]]`), &adds))
	assert.Equal(t, []service.KeyCount{{Key: "a", Count: 2}, {Key: "7", Count: 1}}, adds)

	out, err := json.Marshal(adds[0])
	require.NoError(t, err)
	assert.JSONEq(t, `["a", 2]`, string(out))

	for _, bad := range []string{`[["a"]]`, `[["a", "x"]]`, `[["a", "5"]]`, `["a"]`, `[{"key":"a"}]`} {
		err := json.Unmarshal([]byte(bad), &adds)
		assert.True(t, algokit.IsInvalidInput(err), bad)
	}
}

func TestKeyCount_JSONCountRange(t *testing.T) {
	var adds []service.KeyCount
	require.NoError(t, json.Unmarshal([]byte(`[["max", 9223372036854775807], ["min", -9223372036854775808]]`), &adds))
	assert.Equal(t, int64(math.MaxInt64), adds[0].Count)
	assert.Equal(t, int64(math.MinInt64), adds[1].Count)

	for _, bad := range []string{`[["a", 1e30]]`, `[["a", -1e30]]`, `[["a", 9223372036854775808]]`, `[["a", 9.3e18]]`} {
		err := json.Unmarshal([]byte(bad), &adds)
		assert.True(t, algokit.IsInvalidInput(err), bad)
	}
}

func TestBloom_AddThenCheck(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	added, err := svc.BloomAdd(ctx, service.BloomAddRequest{Items: []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, added.Added)
	assert.Equal(t, uint(2048), added.M)
	assert.Equal(t, uint(4), added.K)

	checked, err := svc.BloomCheck(ctx, service.BloomCheckRequest{Items: []string{"a", "b", "c"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"a": true, "b": true, "c": false}, checked.Present)
}

func TestBloom_Reset(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.BloomAdd(ctx, service.BloomAddRequest{Items: []string{"pikachu"}})
	require.NoError(t, err)

	resp, err := svc.BloomAdd(ctx, service.BloomAddRequest{Items: []string{"mew"}, Reset: true, M: 4096, K: 5})
	require.NoError(t, err)
	assert.Equal(t, uint(4096), resp.M)
	assert.Equal(t, uint(5), resp.K)

	checked, err := svc.BloomCheck(ctx, service.BloomCheckRequest{Items: []string{"pikachu", "mew"}})
	require.NoError(t, err)
	assert.False(t, checked.Present["pikachu"])
	assert.True(t, checked.Present["mew"])

	resp, err = svc.BloomAdd(ctx, service.BloomAddRequest{Reset: true})
	require.NoError(t, err)
	assert.Equal(t, uint(2048), resp.M)
	assert.Equal(t, uint(4), resp.K)
	assert.NotNil(t, resp.Added)

	_, err = svc.BloomAdd(ctx, service.BloomAddRequest{Reset: true, M: -5})
	assert.ErrorIs(t, err, algokit.ErrInvalidInput)
	assert.ErrorIs(t, svc.BloomReset(ctx, 0, 3), algokit.ErrInvalidInput)
}

func TestBloom_RedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	client := algokit.NewRedisClient(algokit.RedisConnOptions{Address: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	svc := newService(t,
		service.WithBitSetFactory(bitset.RedisFactory(client)),
		service.WithHashFamily(hash.XXH3{}),
		service.WithBloomParams(512, 3),
	)
	ctx := context.Background()

	resp, err := svc.BloomAdd(ctx, service.BloomAddRequest{Items: []string{"x", "y"}})
	require.NoError(t, err)
	assert.Equal(t, uint(512), resp.M)

	checked, err := svc.BloomCheck(ctx, service.BloomCheckRequest{Items: []string{"x", "y"}})
	require.NoError(t, err)
	assert.True(t, checked.Present["x"])
	assert.True(t, checked.Present["y"])

	before := mr.Keys()
	require.Len(t, before, 1)
	require.NoError(t, svc.BloomReset(ctx, 256, 2))
	after := mr.Keys()
	require.Len(t, after, 1)
	assert.NotEqual(t, before, after)
}

func TestNew_InvalidBloomParams(t *testing.T) {
	_, err := service.New(service.WithBloomParams(0, 4))
	assert.ErrorIs(t, err, algokit.ErrInvalidInput)
}

func TestDigest(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	const abc = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"

	resp, err := svc.Digest(ctx, service.DigestRequest{Text: "abc"})
	require.NoError(t, err)
	assert.Equal(t, abc, resp.Hash)
	assert.Equal(t, int64(3), resp.Bytes)

	salted, err := svc.Digest(ctx, service.DigestRequest{Text: "c", Salt: "ab"})
	require.NoError(t, err)
	assert.Equal(t, abc, salted.Hash)

	_, err = svc.Digest(ctx, service.DigestRequest{Salt: "pepper"})
	assert.ErrorIs(t, err, algokit.ErrInvalidInput)
}

func TestDigestStream(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	content := strings.Repeat("algokit", 30000)

	resp, err := svc.DigestStream(ctx, strings.NewReader(content), "salt")
	require.NoError(t, err)
	assert.Equal(t, hash.Digest(content, "salt"), resp.Hash)
	assert.Equal(t, int64(len(content)), resp.Bytes)

	boom := errors.New("boom")
	_, err = svc.DigestStream(ctx, iotest.ErrReader(boom), "")
	assert.ErrorIs(t, err, boom)
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := algokit.NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	svc := newService(t, service.WithLogger(logger))

	_, err := svc.FindPath(context.Background(), service.PathRequest{Grid: [][]*float64{{f(1)}}})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"msg":"path search completed"`)
	assert.Contains(t, buf.String(), `"op":"find_path"`)

	buf.Reset()
	_, err = svc.Digest(context.Background(), service.DigestRequest{})
	require.Error(t, err)
	assert.Contains(t, buf.String(), `"level":"ERROR"`)
}

func TestBloom_ConcurrentResetsEchoOwnParams(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		m, k := 1024, 3
		if i%2 == 1 {
			m, k = 4096, 5
		}
		wg.Add(1)
		go func(m, k int) {
			defer wg.Done()
			resp, err := svc.BloomAdd(ctx, service.BloomAddRequest{
				Items: []string{"pikachu"},
				Reset: true,
				M:     m,
				K:     k,
			})
			if assert.NoError(t, err) {
				assert.Equal(t, uint(m), resp.M)
				assert.Equal(t, uint(k), resp.K)
			}
		}(m, k)
	}
	wg.Wait()

	checked, err := svc.BloomCheck(ctx, service.BloomCheckRequest{Items: []string{"pikachu"}})
	require.NoError(t, err)
	assert.True(t, checked.Present["pikachu"])
}
