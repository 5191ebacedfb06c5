package filters

import (
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/kwertop/algokit"
	"github.com/kwertop/algokit/bitset"
	"github.com/kwertop/algokit/hash"
)

func TestFilterInvalidSizes(t *testing.T) {
	if _, err := NewBloomFilter(0, 4); !errors.Is(err, algokit.ErrInvalidInput) {
		t.Errorf("m=0 should be invalid input, got %v", err)
	}
	if _, err := NewBloomFilter(1000, 0); !errors.Is(err, algokit.ErrInvalidInput) {
		t.Errorf("k=0 should be invalid input, got %v", err)
	}
	if _, err := NewBloomFilter(-5, -1); !errors.Is(err, algokit.ErrInvalidInput) {
		t.Errorf("negative sizes should be invalid input, got %v", err)
	}
}

func TestFilterWithBitSetMem(t *testing.T) {
	filter, _ := NewBloomFilter(1000, 4)
	filter.Add("John")
	ok1, _ := filter.Check("Jane")
	ok2, _ := filter.Check("John")
	filter.Add("Alice")
	ok3, _ := filter.Check("Bob")
	ok4, _ := filter.Check("Alice")
	if ok1 {
		t.Errorf("%v should not be in filter", "Jane")
	}
	if !ok2 {
		t.Errorf("%v should be in filter", "John")
	}
	if ok3 {
		t.Errorf("%v should not be in filter", "Bob")
	}
	if !ok4 {
		t.Errorf("%v should be in filter", "Alice")
	}
}

func TestFilterAddManyCheckMany(t *testing.T) {
	filter, _ := NewBloomFilter(2048, 4)
	if err := filter.AddMany([]string{"a", "b"}); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	present, err := filter.CheckMany([]string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	want := []bool{true, true, false}
	for i := range want {
		if present[i] != want[i] {
			t.Errorf("item %d: expected %v, got %v", i, want[i], present[i])
		}
	}
}

func TestFilterNoFalseNegatives(t *testing.T) {
	for _, kind := range hash.Kinds() {
		filter, _ := NewBloomFilter(512, 3, WithHashFamily(hash.New(kind)))
		var added []string
		for i := 0; i < 400; i++ {
			key := "key-" + strconv.Itoa(i)
			filter.Add(key)
			added = append(added, key)
			// every earlier key must still be present, however full the filter gets
			present, _ := filter.CheckMany(added)
			for j, ok := range present {
				if !ok {
					t.Fatalf("%s: %v missing after %d inserts", kind, added[j], i+1)
				}
			}
		}
	}
}

func TestFilterAddIsIdempotent(t *testing.T) {
	filter, _ := NewBloomFilter(256, 4)
	filter.Add("pikachu")
	before, _ := filter.filter.BitCount()
	filter.Add("pikachu")
	after, _ := filter.filter.BitCount()
	if before != after {
		t.Errorf("re-adding should not set new bits, %v became %v", before, after)
	}
}

func TestFilterEmptyBatches(t *testing.T) {
	filter, _ := NewBloomFilter(64, 2)
	if err := filter.AddMany(nil); err != nil {
		t.Errorf("empty add should succeed, got %v", err)
	}
	present, err := filter.CheckMany(nil)
	if err != nil || len(present) != 0 {
		t.Errorf("empty check should return nothing, got %v %v", present, err)
	}
}

func TestFilterReset(t *testing.T) {
	filter, _ := NewBloomFilter(2048, 4)
	filter.AddMany([]string{"pikachu", "bulbasaur"})
	if err := filter.Reset(4096, 5); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	m, k := filter.Params()
	if m != 4096 || k != 5 {
		t.Errorf("params should be 4096/5 after reset, got %v/%v", m, k)
	}
	if ok, _ := filter.Check("pikachu"); ok {
		t.Error("reset should discard previous keys")
	}
	if err := filter.Reset(0, 5); !errors.Is(err, algokit.ErrInvalidInput) {
		t.Errorf("reset with m=0 should be invalid input, got %v", err)
	}
	if m, k := filter.Params(); m != 4096 || k != 5 {
		t.Errorf("failed reset should keep params, got %v/%v", m, k)
	}
}

func TestFilterWithEstimates(t *testing.T) {
	if _, err := NewBloomFilterWithEstimates(0, 0.01); !errors.Is(err, algokit.ErrInvalidInput) {
		t.Errorf("zero items should be invalid input, got %v", err)
	}
	if _, err := NewBloomFilterWithEstimates(100, 1.5); !errors.Is(err, algokit.ErrInvalidInput) {
		t.Errorf("error rate 1.5 should be invalid input, got %v", err)
	}
	filter, err := NewBloomFilterWithEstimates(1000, 0.01)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if filter.GetCap() != algokit.CalculateFilterSize(1000, 0.01) {
		t.Errorf("unexpected size %v", filter.GetCap())
	}
}

func testPositiveRate(nItems int, errorRate float64, t *testing.T) {
	filter, _ := NewBloomFilterWithEstimates(uint(nItems), errorRate)
	for i := 0; i < nItems; i++ {
		filter.Add("in-" + strconv.Itoa(i))
	}
	estimated, _ := filter.PositiveRate()
	if estimated > 1.5*errorRate {
		t.Errorf("estimated error rate %v too high for nItems %v and expected error rate %v", estimated, nItems, errorRate)
	}
	probes := 20000
	falsePositives := 0
	for i := 0; i < probes; i++ {
		if ok, _ := filter.Check("out-" + strconv.Itoa(i)); ok {
			falsePositives++
		}
	}
	if observed := float64(falsePositives) / float64(probes); observed > 2*errorRate {
		t.Errorf("observed error rate %v too high for expected error rate %v", observed, errorRate)
	}
}

func TestPositiveRate1000_001(t *testing.T) {
	testPositiveRate(1000, 0.01, t)
}

func TestPositiveRate10000_001(t *testing.T) {
	testPositiveRate(10000, 0.01, t)
}

func TestPositiveRate1000_01(t *testing.T) {
	testPositiveRate(1000, 0.1, t)
}

func TestFilterConcurrentAccess(t *testing.T) {
	filter, _ := NewBloomFilter(1<<14, 4)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := strconv.Itoa(w) + "-" + strconv.Itoa(i)
				filter.Add(key)
				if ok, _ := filter.Check(key); !ok {
					t.Errorf("%v should be in filter", key)
				}
			}
		}(w)
	}
	wg.Wait()
}

func TestFilterWithBitSetRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	connOptions, _ := algokit.ParseRedisURI("redis://" + mr.Addr())
	client := algokit.NewRedisClient(*connOptions)
	defer client.Close()

	filter, err := NewBloomFilter(2048, 4, WithBitSetFactory(bitset.RedisFactory(client)))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	filter.AddMany([]string{"a", "b"})
	present, err := filter.CheckMany([]string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if !present[0] || !present[1] || present[2] {
		t.Errorf("expected [true true false], got %v", present)
	}
	if len(mr.Keys()) != 1 {
		t.Fatalf("expected a single redis key, got %v", mr.Keys())
	}
	oldKey := mr.Keys()[0]
	if err := filter.Reset(1024, 3); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if mr.Exists(oldKey) {
		t.Errorf("reset should delete the previous key %v", oldKey)
	}
	if ok, _ := filter.Check("a"); ok {
		t.Error("reset should discard previous keys")
	}
}

func TestFilterRedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	connOptions, _ := algokit.ParseRedisURI("redis://" + mr.Addr())
	client := algokit.NewRedisClient(*connOptions)
	defer client.Close()
	filter, _ := NewBloomFilter(128, 2, WithBitSetFactory(bitset.RedisFactory(client)))
	mr.Close()
	if err := filter.Add("a"); err == nil {
		t.Error("add should fail once redis is gone")
	}
	if _, err := filter.Check("a"); err == nil {
		t.Error("check should fail once redis is gone")
	}
}
