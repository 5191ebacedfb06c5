// Package sample draws fixed-size uniform samples from streams of unknown
// length using reservoir sampling (Algorithm R).
//
// Each call owns its random source. A seeded call is reproducible and never
// touches the global math/rand state; an unseeded call draws a fresh
// time-based seed.
package sample

import (
	"iter"
	"math/rand"
	"time"
)

type options struct {
	seed   int64
	seeded bool
}

// Option configures a sampling run.
type Option func(*options)

// WithSeed makes the sequence of draws, and therefore the sample,
// reproducible for a given stream.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
		o.seeded = true
	}
}

func newSource(opts []Option) *rand.Rand {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if !o.seeded {
		o.seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(o.seed))
}

// Sampler keeps a reservoir of at most k items over the items offered so far.
// Every offered item is in the reservoir with probability min(1, k/n).
//
// A Sampler is not safe for concurrent use.
type Sampler[T any] struct {
	k         int
	seen      int
	reservoir []T
	rng       *rand.Rand
}

// NewSampler returns an empty Sampler of capacity k. A non-positive k
// yields a Sampler whose reservoir stays empty.
func NewSampler[T any](k int, opts ...Option) *Sampler[T] {
	if k < 0 {
		k = 0
	}
	return &Sampler[T]{
		k:         k,
		reservoir: make([]T, 0, min(k, 1024)),
		rng:       newSource(opts),
	}
}

// Offer feeds the next stream item.
func (s *Sampler[T]) Offer(item T) {
	i := s.seen
	s.seen++
	if s.k == 0 {
		return
	}
	if i < s.k {
		s.reservoir = append(s.reservoir, item)
		return
	}
	if j := s.rng.Int63n(int64(i) + 1); j < int64(s.k) {
		s.reservoir[j] = item
	}
}

// Result returns a copy of the current reservoir.
func (s *Sampler[T]) Result() []T {
	out := make([]T, len(s.reservoir))
	copy(out, s.reservoir)
	return out
}

// Seen returns how many items have been offered.
func (s *Sampler[T]) Seen() int { return s.seen }

// K returns the reservoir capacity.
func (s *Sampler[T]) K() int { return s.k }

// Sample returns min(k, len(stream)) items of stream chosen uniformly at
// random. The stream is not modified.
func Sample[T any](stream []T, k int, opts ...Option) []T {
	if k <= 0 {
		return []T{}
	}
	s := NewSampler[T](k, opts...)
	for _, item := range stream {
		s.Offer(item)
	}
	return s.Result()
}

// SampleSeq is Sample over an iterator. The iterator is consumed to the end,
// except that k <= 0 returns at once without pulling any item.
func SampleSeq[T any](seq iter.Seq[T], k int, opts ...Option) []T {
	if k <= 0 {
		return []T{}
	}
	s := NewSampler[T](k, opts...)
	for item := range seq {
		s.Offer(item)
	}
	return s.Result()
}
