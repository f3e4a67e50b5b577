package numerator

import (
	"context"
	"sync"
	"time"
)

// MockGenerator is a test implementation of Generator.
// Without overrides it counts per config key in memory.
type MockGenerator struct {
	NextSequenceFunc  func(ctx context.Context, cfg Config, opts *Options, period time.Time) (int64, error)
	SetNextNumberFunc func(ctx context.Context, cfg Config, period time.Time, value int64) error

	mu       sync.Mutex
	counters map[string]int64
}

// NextSequence implements Generator.
func (m *MockGenerator) NextSequence(ctx context.Context, cfg Config, opts *Options, period time.Time) (int64, error) {
	if m.NextSequenceFunc != nil {
		return m.NextSequenceFunc(ctx, cfg, opts, period)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counters == nil {
		m.counters = make(map[string]int64)
	}
	m.counters[cfg.Key(period)]++
	return m.counters[cfg.Key(period)], nil
}

// GetNextNumber implements Generator.
func (m *MockGenerator) GetNextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error) {
	seq, err := m.NextSequence(ctx, cfg, opts, period)
	if err != nil {
		return "", err
	}
	return Format(cfg, seq, period.Year()), nil
}

// Peek implements Generator.
func (m *MockGenerator) Peek(ctx context.Context, cfg Config, opts *Options, period time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[cfg.Key(period)] + 1, nil
}

// SetNextNumber implements Generator.
func (m *MockGenerator) SetNextNumber(ctx context.Context, cfg Config, period time.Time, value int64) error {
	if m.SetNextNumberFunc != nil {
		return m.SetNextNumberFunc(ctx, cfg, period, value)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counters == nil {
		m.counters = make(map[string]int64)
	}
	m.counters[cfg.Key(period)] = value
	return nil
}

// Ensure compile-time interface compliance.
var _ Generator = (*MockGenerator)(nil)
