package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/klauspost/compress/zstd"

	appctx "gestcom/internal/core/context"
	"gestcom/internal/core/id"
	"gestcom/internal/domain/documents"
)

const auditTable = "sys_audit"

// CompressionAlgo names how AuditEntry.Changes is stored.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// DefaultCompressThreshold is the snapshot size above which it is stored zstd-compressed.
const DefaultCompressThreshold = 4 * 1024

// AuditEntry is one sys_audit row.
type AuditEntry struct {
	ID                id.ID                   `db:"id"`
	EntityType        string                  `db:"entity_type"`
	EntityID          string                  `db:"entity_id"`
	Action            documents.HistoryAction `db:"action"`
	Changes           json.RawMessage         `db:"changes"`
	ChangesCompressed []byte                  `db:"changes_compressed"`
	CompressionAlgo   CompressionAlgo         `db:"compression_algo"`
	Metadata          json.RawMessage         `db:"metadata"`
	CreatedAt         time.Time               `db:"created_at"`
}

var auditColumns = ExtractDBColumns[AuditEntry]()

// AuditService keeps document snapshots in sys_audit and serves them back as history.
type AuditService struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

var _ documents.HistoryReader = (*AuditService)(nil)

// NewAuditService creates an audit service.
func NewAuditService(txManager *TxManager) (*AuditService, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &AuditService{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: DefaultCompressThreshold,
	}, nil
}

func (s *AuditService) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (s *AuditService) pack(entry *AuditEntry) {
	entry.CompressionAlgo = CompressionNone
	if len(entry.Changes) <= s.compressThreshold {
		return
	}
	entry.ChangesCompressed = s.encoder.EncodeAll(entry.Changes, nil)
	entry.Changes = nil
	entry.CompressionAlgo = CompressionZstd
}

func (s *AuditService) unpack(entry *AuditEntry) error {
	if entry.CompressionAlgo != CompressionZstd || len(entry.ChangesCompressed) == 0 {
		return nil
	}
	raw, err := s.decoder.DecodeAll(entry.ChangesCompressed, nil)
	if err != nil {
		return fmt.Errorf("decompress audit %s: %w", entry.ID, err)
	}
	entry.Changes = raw
	entry.ChangesCompressed = nil
	return nil
}

// Log inserts entry, filling ID, timestamp and request metadata when unset.
func (s *AuditService) Log(ctx context.Context, entry AuditEntry) error {
	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.Metadata == nil {
		if trace := appctx.GetTrace(ctx); trace != nil {
			entry.Metadata, _ = json.Marshal(trace.Metadata())
		}
	}
	s.pack(&entry)

	sql, args, err := s.builder().Insert(auditTable).SetMap(StructToMap(entry)).ToSql()
	if err != nil {
		return fmt.Errorf("build audit insert: %w", err)
	}
	if _, err := s.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return MapError("insert audit entry", err)
	}
	return nil
}

// Record snapshots doc; it is the documents.RecordFunc wired onto the service hooks.
func (s *AuditService) Record(ctx context.Context, action documents.HistoryAction, doc *documents.Document) error {
	snapshot, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s %s: %w", doc.Kind, doc.ID, err)
	}
	return s.Log(ctx, AuditEntry{
		EntityType: string(doc.Kind),
		EntityID:   doc.ID,
		Action:     action,
		Changes:    snapshot,
	})
}

// Entries returns the raw rows of one entity, newest first, decompressed.
func (s *AuditService) Entries(ctx context.Context, entityType, entityID string, limit int) ([]AuditEntry, error) {
	q := s.builder().
		Select(auditColumns...).
		From(auditTable).
		Where(squirrel.Eq{"entity_type": entityType, "entity_id": entityID}).
		OrderBy("created_at DESC", "id DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build audit select: %w", err)
	}

	var entries []AuditEntry
	if err := pgxscan.Select(ctx, s.txManager.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, MapError("select audit entries", err)
	}
	for i := range entries {
		if err := s.unpack(&entries[i]); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// History implements documents.HistoryReader.
func (s *AuditService) History(ctx context.Context, kind documents.Kind, id string, limit int) ([]documents.HistoryEntry, error) {
	if limit <= 0 {
		limit = documents.DefaultHistoryLimit
	}
	entries, err := s.Entries(ctx, string(kind), id, limit)
	if err != nil {
		return nil, err
	}
	out := make([]documents.HistoryEntry, 0, len(entries))
	for _, e := range entries {
		h, err := e.historyEntry()
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

func (e AuditEntry) historyEntry() (documents.HistoryEntry, error) {
	h := documents.HistoryEntry{Action: e.Action, At: e.CreatedAt}
	if len(e.Changes) > 0 {
		h.Snapshot = &documents.Document{}
		if err := json.Unmarshal(e.Changes, h.Snapshot); err != nil {
			return h, fmt.Errorf("decode audit %s: %w", e.ID, err)
		}
	}
	if len(e.Metadata) > 0 {
		if err := json.Unmarshal(e.Metadata, &h.Metadata); err != nil {
			return h, fmt.Errorf("decode audit metadata %s: %w", e.ID, err)
		}
	}
	return h, nil
}
