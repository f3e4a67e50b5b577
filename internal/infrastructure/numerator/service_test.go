package numerator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corenumerator "gestcom/internal/core/numerator"
)

// countingSequencer simulates the store and records reservations.
type countingSequencer struct {
	mu       sync.Mutex
	values   map[string]int64
	reserves int
	err      error
}

func newCountingSequencer() *countingSequencer {
	return &countingSequencer{values: make(map[string]int64)}
}

func (c *countingSequencer) Reserve(ctx context.Context, key string, n int64) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return 0, c.err
	}
	c.reserves++
	c.values[key] += n
	return c.values[key], nil
}

func (c *countingSequencer) Current(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values[key], nil
}

func (c *countingSequencer) Set(ctx context.Context, key string, value int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

var period2024 = time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

func TestGetNextNumber_Strict(t *testing.T) {
	seq := newCountingSequencer()
	svc := New(seq)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("FAC")

	num, err := svc.GetNextNumber(ctx, cfg, nil, period2024)
	require.NoError(t, err)
	assert.Equal(t, "FAC2024-0001", num)

	num, err = svc.GetNextNumber(ctx, cfg, nil, period2024)
	require.NoError(t, err)
	assert.Equal(t, "FAC2024-0002", num)
	assert.Equal(t, 2, seq.reserves)
}

func TestGetNextNumber_Cached(t *testing.T) {
	seq := newCountingSequencer()
	svc := New(seq)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("BC")
	opts := &corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 10}

	// First call reserves 1..10 in one round trip.
	num, err := svc.GetNextNumber(ctx, cfg, opts, period2024)
	require.NoError(t, err)
	assert.Equal(t, "BC2024-0001", num)
	assert.Equal(t, int64(10), seq.values["BC"])

	num, err = svc.GetNextNumber(ctx, cfg, opts, period2024)
	require.NoError(t, err)
	assert.Equal(t, "BC2024-0002", num)
	assert.Equal(t, 1, seq.reserves)

	for i := 0; i < 8; i++ {
		_, err := svc.GetNextNumber(ctx, cfg, opts, period2024)
		require.NoError(t, err)
	}

	// Range exhausted: next call reserves 11..20.
	num, err = svc.GetNextNumber(ctx, cfg, opts, period2024)
	require.NoError(t, err)
	assert.Equal(t, "BC2024-0011", num)
	assert.Equal(t, int64(20), seq.values["BC"])
	assert.Equal(t, 2, seq.reserves)
}

func TestSetNextNumber_InvalidatesCache(t *testing.T) {
	seq := newCountingSequencer()
	svc := New(seq)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("DEV")
	opts := &corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 10}

	_, err := svc.NextSequence(ctx, cfg, opts, period2024)
	require.NoError(t, err)

	require.NoError(t, svc.SetNextNumber(ctx, cfg, period2024, 100))

	next, err := svc.NextSequence(ctx, cfg, opts, period2024)
	require.NoError(t, err)
	assert.Equal(t, int64(101), next)
}

func TestPeek(t *testing.T) {
	seq := newCountingSequencer()
	svc := New(seq)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("AV")

	next, err := svc.Peek(ctx, cfg, nil, period2024)
	require.NoError(t, err)
	assert.Equal(t, int64(1), next)

	_, err = svc.NextSequence(ctx, cfg, nil, period2024)
	require.NoError(t, err)

	next, err = svc.Peek(ctx, cfg, nil, period2024)
	require.NoError(t, err)
	assert.Equal(t, int64(2), next)
	assert.Equal(t, 1, seq.reserves, "peek must not reserve")

	cached := &corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 5}
	_, err = svc.NextSequence(ctx, cfg, cached, period2024)
	require.NoError(t, err)
	next, err = svc.Peek(ctx, cfg, cached, period2024)
	require.NoError(t, err)
	assert.Equal(t, int64(3), next)
}

func TestResetPeriodKeys(t *testing.T) {
	seq := newCountingSequencer()
	svc := New(seq)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("FAC")
	cfg.ResetPeriod = corenumerator.ResetYear

	_, err := svc.NextSequence(ctx, cfg, nil, period2024)
	require.NoError(t, err)
	num, err := svc.GetNextNumber(ctx, cfg, nil, period2024.AddDate(1, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, "FAC2025-0001", num)
}

func TestNextSequence_Concurrent(t *testing.T) {
	for _, opts := range []*corenumerator.Options{
		nil,
		{Strategy: corenumerator.StrategyCached, RangeSize: 7},
	} {
		seq := newCountingSequencer()
		svc := New(seq)
		ctx := context.Background()
		cfg := corenumerator.DefaultConfig("BL")

		const workers, perWorker = 16, 50
		results := make(chan int64, workers*perWorker)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < perWorker; i++ {
					n, err := svc.NextSequence(ctx, cfg, opts, period2024)
					if err != nil {
						t.Error(err)
						return
					}
					results <- n
				}
			}()
		}
		wg.Wait()
		close(results)

		seen := make(map[int64]bool)
		for n := range results {
			assert.False(t, seen[n], "duplicate sequence %d", n)
			seen[n] = true
		}
		require.Len(t, seen, workers*perWorker)
		for n := int64(1); n <= workers*perWorker; n++ {
			assert.True(t, seen[n], "gap at %d", n)
		}
	}
}

func TestNextSequence_Errors(t *testing.T) {
	var nilSvc *Service
	_, err := nilSvc.NextSequence(context.Background(), corenumerator.DefaultConfig("X"), nil, period2024)
	assert.Error(t, err)

	seq := newCountingSequencer()
	seq.err = errors.New("db down")
	_, err = New(seq).GetNextNumber(context.Background(), corenumerator.DefaultConfig("FAC"), nil, period2024)
	assert.ErrorIs(t, err, seq.err)
}
