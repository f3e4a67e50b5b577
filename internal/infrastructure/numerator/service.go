// Package numerator implements core/numerator.Generator over a Sequencer,
// a store-owned atomic counter (memory or PostgreSQL).
package numerator

import (
	"context"
	"fmt"
	"sync"
	"time"

	corenumerator "gestcom/internal/core/numerator"
)

// DefaultRangeSize is the block reserved per refill by the cached strategy.
const DefaultRangeSize int64 = 50

// Sequencer owns the counters. Implementations must make Reserve atomic:
// concurrent callers never receive overlapping values.
type Sequencer interface {
	// Reserve advances the counter for key by n and returns the new value.
	// The reserved block is (value-n, value].
	Reserve(ctx context.Context, key string, n int64) (int64, error)

	// Current returns the counter value, 0 when the key was never used.
	Current(ctx context.Context, key string) (int64, error)

	// Set overwrites the counter value.
	Set(ctx context.Context, key string, value int64) error
}

type cachedRange struct {
	current int64
	max     int64
}

// Service provides document numbering.
type Service struct {
	seq Sequencer

	// cacheMu protects ranges map
	cacheMu sync.Mutex
	// ranges stores active ranges for each key (cached strategy only)
	ranges map[string]*cachedRange
}

// Ensure compile-time interface compliance.
var _ corenumerator.Generator = (*Service)(nil)

// New creates a numerator service over seq.
func New(seq Sequencer) *Service {
	return &Service{
		seq:    seq,
		ranges: make(map[string]*cachedRange),
	}
}

// NextSequence reserves the next value for cfg in period.
//
// Supports Strict (one reservation per number) and Cached (range in memory) strategies.
func (s *Service) NextSequence(ctx context.Context, cfg corenumerator.Config, opts *corenumerator.Options, period time.Time) (int64, error) {
	if s == nil || s.seq == nil {
		return 0, fmt.Errorf("numerator service is not initialized")
	}
	if opts == nil {
		opts = corenumerator.DefaultOptions()
	}

	key := cfg.Key(period)
	switch opts.Strategy {
	case corenumerator.StrategyCached:
		return s.nextCached(ctx, key, opts)
	default:
		num, err := s.seq.Reserve(ctx, key, 1)
		if err != nil {
			return 0, fmt.Errorf("strict next %s: %w", key, err)
		}
		return num, nil
	}
}

// GetNextNumber reserves the next value and formats it with the period year.
func (s *Service) GetNextNumber(ctx context.Context, cfg corenumerator.Config, opts *corenumerator.Options, period time.Time) (string, error) {
	num, err := s.NextSequence(ctx, cfg, opts, period)
	if err != nil {
		return "", err
	}
	return corenumerator.Format(cfg, num, period.Year()), nil
}

// nextCached hands out numbers from memory, refilling from the sequencer if needed.
func (s *Service) nextCached(ctx context.Context, key string, opts *corenumerator.Options) (int64, error) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	rng, exists := s.ranges[key]
	if !exists {
		rng = &cachedRange{}
		s.ranges[key] = rng
	}

	if rng.current >= rng.max {
		size := opts.RangeSize
		if size <= 0 {
			size = DefaultRangeSize
		}

		newMax, err := s.seq.Reserve(ctx, key, size)
		if err != nil {
			return 0, fmt.Errorf("reserve range %s: %w", key, err)
		}

		// Block is (newMax-size, newMax]; current sits one before its first value.
		rng.current = newMax - size
		rng.max = newMax
	}

	rng.current++
	return rng.current, nil
}

// Peek returns what the next reservation would return.
func (s *Service) Peek(ctx context.Context, cfg corenumerator.Config, opts *corenumerator.Options, period time.Time) (int64, error) {
	key := cfg.Key(period)

	if opts != nil && opts.Strategy == corenumerator.StrategyCached {
		s.cacheMu.Lock()
		rng, ok := s.ranges[key]
		if ok && rng.current < rng.max {
			next := rng.current + 1
			s.cacheMu.Unlock()
			return next, nil
		}
		s.cacheMu.Unlock()
	}

	cur, err := s.seq.Current(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("peek %s: %w", key, err)
	}
	return cur + 1, nil
}

// SetNextNumber sets the counter so the next number is value+1 (for migrating
// existing numbering) and drops any cached range for the key.
func (s *Service) SetNextNumber(ctx context.Context, cfg corenumerator.Config, period time.Time, value int64) error {
	key := cfg.Key(period)
	if err := s.seq.Set(ctx, key, value); err != nil {
		return fmt.Errorf("set sequence %s: %w", key, err)
	}

	s.cacheMu.Lock()
	delete(s.ranges, key)
	s.cacheMu.Unlock()
	return nil
}
