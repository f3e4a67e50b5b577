package app

import (
	"context"
	"fmt"

	"gestcom/internal/core/tx"
	"gestcom/internal/domain/documents"
	"gestcom/internal/domain/reports"
	"gestcom/internal/domain/settings"
	"gestcom/internal/infrastructure/cache"
	"gestcom/internal/infrastructure/numerator"
	"gestcom/internal/infrastructure/storage/memory"
	"gestcom/internal/infrastructure/storage/postgres"
	"gestcom/internal/infrastructure/storage/postgres/document_repo"
	"gestcom/internal/infrastructure/storage/postgres/settings_repo"
	"gestcom/pkg/logger"
)

// App holds the wired services for one process.
type App struct {
	Config Config

	Documents   *documents.Service
	Settings    *settings.Service
	Reports     *reports.Service
	Numerator   *numerator.Service
	Idempotency *cache.IdempotencyStore

	// History is backed by sys_audit on postgres and by a HistoryLog in memory
	History documents.HistoryReader

	// Pool and Audit are nil for the memory backend
	Pool  *postgres.Pool
	Audit *postgres.AuditService

	settingsCache *cache.SettingsRepository
}

// New opens the configured storage and wires every service on top of it.
func New(ctx context.Context, cfg Config, log *logger.Logger) (*App, error) {
	a := &App{Config: cfg}

	var (
		docRepo      documents.Repository
		record       documents.RecordFunc
		settingsRepo settings.Repository
		sequencer    numerator.Sequencer
		txManager    tx.Manager
	)

	switch cfg.Storage {
	case StoragePostgres:
		poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
		if cfg.DBMaxConns > 0 {
			poolCfg.MaxConns = int32(cfg.DBMaxConns)
		}
		pool, err := postgres.NewPool(ctx, poolCfg)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		a.Pool = pool

		if cfg.AutoMigrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, err
			}
			log.Info("database schema applied")
		}

		pgTx := postgres.NewTxManager(pool)
		audit, err := postgres.NewAuditService(pgTx)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("init audit: %w", err)
		}
		a.Audit = audit
		a.History = audit
		record = audit.Record

		docRepo = document_repo.NewDocumentRepo(pgTx)
		settingsRepo = settings_repo.NewSettingsRepo(pgTx)
		sequencer = postgres.NewSequencer(pgTx)
		txManager = pgTx
	default:
		history := memory.NewHistoryLog()
		a.History = history
		record = history.Record
		docRepo = memory.NewDocumentStore()
		settingsRepo = memory.NewSettingsStore()
		sequencer = memory.NewSequencer()
		txManager = tx.Direct{}
	}

	conditions, err := settings.NewConditionEvaluator()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init condition evaluator: %w", err)
	}
	a.settingsCache = cache.NewSettingsRepository(settingsRepo, cfg.SettingsCacheTTL)
	a.Settings = settings.NewService(a.settingsCache, conditions)

	a.Numerator = numerator.New(sequencer)
	a.Documents = documents.NewService(documents.ServiceConfig{
		Repo:             docRepo,
		TxManager:        txManager,
		Numerator:        a.Numerator,
		NumeratorOptions: cfg.NumeratorOptions(),
		ResetPeriod:      cfg.NumeratorReset,
		Rates:            a.Settings,
	})
	documents.RecordHistory(a.Documents.Hooks(), record)

	a.Reports = reports.NewService(a.Documents)
	a.Idempotency = cache.NewIdempotencyStore(cfg.IdempotencyTTL)

	log.Infow("services initialized",
		"storage", cfg.Storage,
		"numerator_reset", cfg.NumeratorReset,
		"settings_cache_ttl", cfg.SettingsCacheTTL)
	return a, nil
}

// Close releases the database pool, if any.
func (a *App) Close() {
	if a.settingsCache != nil {
		a.settingsCache.Flush()
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
}
