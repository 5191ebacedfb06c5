// Package service exposes the algokit structures behind typed requests.
//
// A Service validates every request at the boundary, runs call-scoped
// algorithms (grid search, cycle detection, sampling, sketching, digests) and
// owns the one long-lived membership filter. It holds no package-level state,
// so several Services can run side by side.
package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/kwertop/algokit"
	"github.com/kwertop/algokit/bitset"
	"github.com/kwertop/algokit/filters"
	"github.com/kwertop/algokit/hash"
)

const (
	// DefaultBloomBits is the bit array length of a fresh Service filter.
	DefaultBloomBits = 2048
	// DefaultBloomHashes is the hash count of a fresh Service filter.
	DefaultBloomHashes = 4
	// DefaultSketchDepth is used when a SketchRequest leaves Depth at zero.
	DefaultSketchDepth = 5
	// DefaultSketchWidth is used when a SketchRequest leaves Width at zero.
	DefaultSketchWidth = 200
)

type options struct {
	family      hash.Family
	bitsets     bitset.Factory
	logger      *algokit.Logger
	bloomBits   int
	bloomHashes int
}

// Option configures a Service.
type Option func(*options)

// WithHashFamily selects the hash family shared by the filter and sketches.
func WithHashFamily(family hash.Family) Option {
	return func(o *options) {
		if family != nil {
			o.family = family
		}
	}
}

// WithBitSetFactory selects the bit array backend of the filter.
func WithBitSetFactory(factory bitset.Factory) Option {
	return func(o *options) {
		if factory != nil {
			o.bitsets = factory
		}
	}
}

// WithLogger sets the logger. nil keeps the no-op logger.
func WithLogger(logger *algokit.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithBloomParams sets the initial filter size m and hash count k.
func WithBloomParams(m, k int) Option {
	return func(o *options) {
		o.bloomBits = m
		o.bloomHashes = k
	}
}

// Service runs algokit operations. It is safe for concurrent use.
type Service struct {
	family hash.Family
	logger *algokit.Logger

	// bloomMu keeps a reset, the adds that follow it and the echoed
	// parameters together. Checks share it.
	bloomMu sync.RWMutex
	bloom   *filters.BloomFilter
}

// New builds a Service with an empty filter.
func New(opts ...Option) (*Service, error) {
	cfg := options{
		family:      hash.Default,
		bitsets:     bitset.MemFactory,
		logger:      algokit.NoopLogger(),
		bloomBits:   DefaultBloomBits,
		bloomHashes: DefaultBloomHashes,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	bloom, err := filters.NewBloomFilter(cfg.bloomBits, cfg.bloomHashes,
		filters.WithHashFamily(cfg.family),
		filters.WithBitSetFactory(cfg.bitsets),
	)
	if err != nil {
		return nil, fmt.Errorf("service: creating membership filter: %w", err)
	}
	return &Service{
		family: cfg.family,
		logger: cfg.logger,
		bloom:  bloom,
	}, nil
}

// Close releases the filter's bit array.
func (s *Service) Close() error {
	return s.bloom.Release()
}

// BloomAdd inserts the request items, resetting the filter first when asked.
// The reset and the adds happen as one step.
func (s *Service) BloomAdd(ctx context.Context, req BloomAddRequest) (BloomAddResponse, error) {
	log := s.logger.WithOperation("bloom_add")
	if err := req.Validate(); err != nil {
		log.LogBloom(ctx, "add", len(req.Items), 0, 0, err)
		return BloomAddResponse{}, err
	}
	items := req.Items
	if items == nil {
		items = []string{}
	}

	s.bloomMu.Lock()
	defer s.bloomMu.Unlock()
	if req.Reset {
		m, k := req.params()
		if err := s.reset(ctx, m, k); err != nil {
			return BloomAddResponse{}, err
		}
	}
	err := s.bloom.AddMany(items)
	m, k := s.bloom.Params()
	log.LogBloom(ctx, "add", len(items), m, k, err)
	if err != nil {
		return BloomAddResponse{}, err
	}
	return BloomAddResponse{Added: items, M: m, K: k}, nil
}

// BloomCheck reports probable membership of each item.
func (s *Service) BloomCheck(ctx context.Context, req BloomCheckRequest) (BloomCheckResponse, error) {
	log := s.logger.WithOperation("bloom_check")
	s.bloomMu.RLock()
	present, err := s.bloom.CheckMany(req.Items)
	m, k := s.bloom.Params()
	s.bloomMu.RUnlock()
	log.LogBloom(ctx, "check", len(req.Items), m, k, err)
	if err != nil {
		return BloomCheckResponse{}, err
	}
	out := make(map[string]bool, len(req.Items))
	for i, item := range req.Items {
		out[item] = present[i]
	}
	return BloomCheckResponse{Present: out, M: m, K: k}, nil
}

// BloomReset discards every item and resizes the filter.
func (s *Service) BloomReset(ctx context.Context, m, k int) error {
	s.bloomMu.Lock()
	defer s.bloomMu.Unlock()
	return s.reset(ctx, m, k)
}

func (s *Service) reset(ctx context.Context, m, k int) error {
	err := s.bloom.Reset(m, k)
	s.logger.WithOperation("bloom_reset").LogBloom(ctx, "reset", 0, uint(max(m, 0)), uint(max(k, 0)), err)
	return err
}
