package filters

import (
	"fmt"
	"math"
	"sync"

	"github.com/kwertop/algokit"
	"github.com/kwertop/algokit/bitset"
	"github.com/kwertop/algokit/hash"
)

// BloomFilter is an approximate set of strings over an m-bit array with k
// hash functions. Added keys always check true; keys never added check true
// with a probability that grows with the fill ratio. Bits are never cleared
// except by Reset.
//
// A BloomFilter is safe for concurrent use. Writers hold the lock
// exclusively; checks share it.
type BloomFilter struct {
	mu        sync.RWMutex
	size      uint
	numHashes uint
	family    hash.Family
	newBits   bitset.Factory
	filter    bitset.IBitSet
}

type options struct {
	family  hash.Family
	newBits bitset.Factory
}

// Option configures a BloomFilter.
type Option func(*options)

// WithHashFamily selects the hash family. nil keeps hash.Default.
func WithHashFamily(family hash.Family) Option {
	return func(o *options) {
		if family != nil {
			o.family = family
		}
	}
}

// WithBitSetFactory selects the bit array backend. nil keeps the in-memory one.
func WithBitSetFactory(factory bitset.Factory) Option {
	return func(o *options) {
		if factory != nil {
			o.newBits = factory
		}
	}
}

// NewBloomFilter returns an empty filter of m bits using k hash functions.
func NewBloomFilter(m, k int, opts ...Option) (*BloomFilter, error) {
	cfg := options{family: hash.Default, newBits: bitset.MemFactory}
	for _, opt := range opts {
		opt(&cfg)
	}
	bloomFilter := &BloomFilter{family: cfg.family, newBits: cfg.newBits}
	if err := bloomFilter.init(m, k); err != nil {
		return nil, err
	}
	return bloomFilter, nil
}

// NewBloomFilterWithEstimates sizes the filter for numItems keys at the given
// false positive rate.
func NewBloomFilterWithEstimates(numItems uint, errorRate float64, opts ...Option) (*BloomFilter, error) {
	if numItems == 0 {
		return nil, algokit.InvalidInput("numItems", "must be positive")
	}
	if errorRate <= 0 || errorRate >= 1 {
		return nil, algokit.InvalidInput("errorRate", "must be in (0, 1), got %v", errorRate)
	}
	size := algokit.CalculateFilterSize(numItems, errorRate)
	numHashes := algokit.CalculateNumHashes(size, numItems)
	return NewBloomFilter(int(algokit.Max(size, 1)), int(algokit.Max(numHashes, 1)), opts...)
}

func (bloomFilter *BloomFilter) init(m, k int) error {
	if m <= 0 {
		return algokit.InvalidInput("m", "bit array length must be positive, got %d", m)
	}
	if k <= 0 {
		return algokit.InvalidInput("k", "hash count must be positive, got %d", k)
	}
	filter, err := bloomFilter.newBits(uint(m))
	if err != nil {
		return fmt.Errorf("algokit: error initializing filter: %w", err)
	}
	bloomFilter.size = uint(m)
	bloomFilter.numHashes = uint(k)
	bloomFilter.filter = filter
	return nil
}

// Reset discards every bit and reinitialises the filter with m bits and k
// hash functions. On error the filter keeps its previous state.
func (bloomFilter *BloomFilter) Reset(m, k int) error {
	bloomFilter.mu.Lock()
	defer bloomFilter.mu.Unlock()
	old := bloomFilter.filter
	if err := bloomFilter.init(m, k); err != nil {
		return err
	}
	if err := old.Release(); err != nil {
		return fmt.Errorf("algokit: error releasing previous bitset: %w", err)
	}
	return nil
}

// Release frees the backing bit array.
func (bloomFilter *BloomFilter) Release() error {
	bloomFilter.mu.Lock()
	defer bloomFilter.mu.Unlock()
	return bloomFilter.filter.Release()
}

func (bloomFilter *BloomFilter) getIndexes(key string) []uint {
	indexes := make([]uint, bloomFilter.numHashes)
	for i := range indexes {
		indexes[i] = uint(bloomFilter.family.Hash(i, key, uint64(bloomFilter.size)))
	}
	return indexes
}

// Add inserts key. Adding a key twice is a no-op.
func (bloomFilter *BloomFilter) Add(key string) error {
	bloomFilter.mu.Lock()
	defer bloomFilter.mu.Unlock()
	return bloomFilter.add(key)
}

func (bloomFilter *BloomFilter) add(key string) error {
	if _, err := bloomFilter.filter.InsertMulti(bloomFilter.getIndexes(key)); err != nil {
		return fmt.Errorf("algokit: error adding %q to filter: %w", key, err)
	}
	return nil
}

// AddMany inserts keys in order under a single lock acquisition.
func (bloomFilter *BloomFilter) AddMany(keys []string) error {
	bloomFilter.mu.Lock()
	defer bloomFilter.mu.Unlock()
	for _, key := range keys {
		if err := bloomFilter.add(key); err != nil {
			return err
		}
	}
	return nil
}

// Check reports whether key may have been added. False is definitive.
func (bloomFilter *BloomFilter) Check(key string) (bool, error) {
	bloomFilter.mu.RLock()
	defer bloomFilter.mu.RUnlock()
	return bloomFilter.check(key)
}

func (bloomFilter *BloomFilter) check(key string) (bool, error) {
	for i := uint(0); i < bloomFilter.numHashes; i++ {
		index := uint(bloomFilter.family.Hash(int(i), key, uint64(bloomFilter.size)))
		ok, err := bloomFilter.filter.Has(index)
		if err != nil {
			return false, fmt.Errorf("algokit: error checking %q in filter: %w", key, err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// CheckMany checks keys in order; results align with keys.
func (bloomFilter *BloomFilter) CheckMany(keys []string) ([]bool, error) {
	bloomFilter.mu.RLock()
	defer bloomFilter.mu.RUnlock()
	result := make([]bool, len(keys))
	for i, key := range keys {
		ok, err := bloomFilter.check(key)
		if err != nil {
			return nil, err
		}
		result[i] = ok
	}
	return result, nil
}

func (bloomFilter *BloomFilter) GetCap() uint {
	bloomFilter.mu.RLock()
	defer bloomFilter.mu.RUnlock()
	return bloomFilter.size
}

func (bloomFilter *BloomFilter) GetNumHashes() uint {
	bloomFilter.mu.RLock()
	defer bloomFilter.mu.RUnlock()
	return bloomFilter.numHashes
}

// Params returns m and k as one consistent pair.
func (bloomFilter *BloomFilter) Params() (m, k uint) {
	bloomFilter.mu.RLock()
	defer bloomFilter.mu.RUnlock()
	return bloomFilter.size, bloomFilter.numHashes
}

// PositiveRate estimates the current false positive probability from the
// number of set bits.
func (bloomFilter *BloomFilter) PositiveRate() (float64, error) {
	bloomFilter.mu.RLock()
	defer bloomFilter.mu.RUnlock()
	length, err := bloomFilter.filter.BitCount()
	if err != nil {
		return 0, err
	}
	fill := float64(length) / float64(bloomFilter.size)
	return math.Pow(fill, float64(bloomFilter.numHashes)), nil
}
