package memory

import (
	"context"
	"sync"
	"time"

	appctx "gestcom/internal/core/context"
	"gestcom/internal/domain/documents"
)

// HistoryLog keeps document snapshots per kind and reference.
type HistoryLog struct {
	mu      sync.RWMutex
	entries map[string][]documents.HistoryEntry
	now     func() time.Time
}

var _ documents.HistoryReader = (*HistoryLog)(nil)

// NewHistoryLog creates an empty log.
func NewHistoryLog() *HistoryLog {
	return &HistoryLog{entries: make(map[string][]documents.HistoryEntry), now: time.Now}
}

func historyKey(kind documents.Kind, id string) string {
	return string(kind) + "/" + id
}

// Record implements documents.RecordFunc.
func (l *HistoryLog) Record(ctx context.Context, action documents.HistoryAction, doc *documents.Document) error {
	entry := documents.HistoryEntry{
		Action:   action,
		At:       l.now().UTC(),
		Snapshot: doc.Clone(),
	}
	if trace := appctx.GetTrace(ctx); trace != nil {
		entry.Metadata = trace.Metadata()
	}

	key := historyKey(doc.Kind, doc.ID)
	l.mu.Lock()
	l.entries[key] = append(l.entries[key], entry)
	l.mu.Unlock()
	return nil
}

// History implements documents.HistoryReader.
func (l *HistoryLog) History(ctx context.Context, kind documents.Kind, id string, limit int) ([]documents.HistoryEntry, error) {
	if limit <= 0 {
		limit = documents.DefaultHistoryLimit
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	stored := l.entries[historyKey(kind, id)]
	out := make([]documents.HistoryEntry, 0, min(limit, len(stored)))
	for i := len(stored) - 1; i >= 0 && len(out) < limit; i-- {
		e := stored[i]
		e.Snapshot = e.Snapshot.Clone()
		out = append(out, e)
	}
	return out, nil
}
