package memory

import (
	"context"
	"fmt"
	"sync"

	"gestcom/internal/infrastructure/numerator"
)

// Sequencer keeps one counter per key behind a mutex.
type Sequencer struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewSequencer creates an empty sequencer.
func NewSequencer() *Sequencer {
	return &Sequencer{counters: make(map[string]int64)}
}

var _ numerator.Sequencer = (*Sequencer)(nil)

// Reserve implements numerator.Sequencer.
func (s *Sequencer) Reserve(ctx context.Context, key string, n int64) (int64, error) {
	if n <= 0 {
		return 0, fmt.Errorf("reserve %s: non-positive count %d", key, n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[key] += n
	return s.counters[key], nil
}

// Current implements numerator.Sequencer.
func (s *Sequencer) Current(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[key], nil
}

// Set implements numerator.Sequencer.
func (s *Sequencer) Set(ctx context.Context, key string, value int64) error {
	if value < 0 {
		return fmt.Errorf("set %s: negative value %d", key, value)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[key] = value
	return nil
}
