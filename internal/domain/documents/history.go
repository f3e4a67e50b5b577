package documents

import (
	"context"
	"time"

	"gestcom/internal/domain"
)

// HistoryAction is the mutation a history entry records.
type HistoryAction string

const (
	HistoryCreate HistoryAction = "create"
	HistoryUpdate HistoryAction = "update"
	HistoryDelete HistoryAction = "delete"
)

// DefaultHistoryLimit caps History when no limit is given.
const DefaultHistoryLimit = 50

// HistoryEntry is one snapshot of a document, taken after a successful mutation.
type HistoryEntry struct {
	Action   HistoryAction
	At       time.Time
	Snapshot *Document
	// Metadata carries request correlation IDs (trace_id, request_id, idempotency_key)
	Metadata map[string]string
}

// HistoryReader returns the snapshots of one document, newest first.
type HistoryReader interface {
	History(ctx context.Context, kind Kind, id string, limit int) ([]HistoryEntry, error)
}

// RecordFunc persists one snapshot.
type RecordFunc func(ctx context.Context, action HistoryAction, doc *Document) error

// RecordHistory registers record on the after-create, after-update and after-delete hooks.
func RecordHistory(hooks *domain.HookRegistry[*Document], record RecordFunc) {
	for hook, action := range map[domain.HookEvent]HistoryAction{
		domain.AfterCreate: HistoryCreate,
		domain.AfterUpdate: HistoryUpdate,
		domain.AfterDelete: HistoryDelete,
	} {
		action := action
		hooks.On(hook, func(ctx context.Context, doc *Document) error {
			return record(ctx, action, doc)
		})
	}
}
