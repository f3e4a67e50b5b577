package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"gestcom/internal/infrastructure/numerator"
	"gestcom/pkg/logger"
)

// Sequencer keeps numbering counters in sys_sequences. Reserve is a single
// UPSERT ... RETURNING, so concurrent callers serialize on the row lock.
type Sequencer struct {
	txManager *TxManager
}

var _ numerator.Sequencer = (*Sequencer)(nil)

// NewSequencer creates a sequencer.
func NewSequencer(txManager *TxManager) *Sequencer {
	return &Sequencer{txManager: txManager}
}

// Reserve implements numerator.Sequencer.
func (s *Sequencer) Reserve(ctx context.Context, key string, n int64) (int64, error) {
	if n <= 0 {
		return 0, fmt.Errorf("reserve %s: non-positive count %d", key, n)
	}
	if !s.txManager.InTransaction(ctx) {
		logger.Debug(ctx, "sequence reserved outside a transaction", "key", key, "count", n)
	}

	var value int64
	err := s.txManager.GetQuerier(ctx).QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + EXCLUDED.current_val
		RETURNING current_val
	`, key, n).Scan(&value)
	if err != nil {
		return 0, MapError("reserve "+key, err)
	}
	return value, nil
}

// Current implements numerator.Sequencer.
func (s *Sequencer) Current(ctx context.Context, key string) (int64, error) {
	var value int64
	err := s.txManager.GetQuerier(ctx).QueryRow(ctx,
		`SELECT current_val FROM sys_sequences WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("current %s: %w", key, err)
	}
	return value, nil
}

// Set implements numerator.Sequencer.
func (s *Sequencer) Set(ctx context.Context, key string, value int64) error {
	if value < 0 {
		return fmt.Errorf("set %s: negative value %d", key, value)
	}
	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET current_val = EXCLUDED.current_val
	`, key, value)
	if err != nil {
		return MapError("set "+key, err)
	}
	return nil
}
