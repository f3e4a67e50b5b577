package documents

import (
	"context"
	"fmt"
	"time"

	"gestcom/internal/core/apperror"
	"gestcom/internal/core/numerator"
	"gestcom/internal/core/tx"
	"gestcom/internal/core/types"
	"gestcom/internal/domain"
	"gestcom/internal/domain/totals"
	"gestcom/pkg/logger"
)

// RateResolver supplies the VAT rate and fiscal stamp in force on a date.
type RateResolver interface {
	ResolveVATRate(ctx context.Context, at time.Time) (types.Rate, error)
	ResolveFiscalStamp(ctx context.Context, at time.Time) (types.Money, error)
}

// ServiceConfig configures the document service.
type ServiceConfig struct {
	Repo      Repository
	TxManager tx.Manager
	Numerator numerator.Generator

	// NumeratorOptions selects strict or cached numbering (default strict)
	NumeratorOptions *numerator.Options
	ResetPeriod      numerator.ResetPeriod

	// Rates is optional; defaults apply when nil
	Rates RateResolver

	// Policies overrides the per-kind totals policy
	Policies map[Kind]totals.Policy

	// Now is optional, for tests
	Now func() time.Time
}

// Service provides business operations for every document kind.
type Service struct {
	repo      Repository
	txManager tx.Manager
	numerator numerator.Generator
	numOpts   *numerator.Options
	reset     numerator.ResetPeriod
	rates     RateResolver
	policies  map[Kind]totals.Policy
	now       func() time.Time
	hooks     *domain.HookRegistry[*Document]
}

// NewService creates a new document service.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		repo:      cfg.Repo,
		txManager: cfg.TxManager,
		numerator: cfg.Numerator,
		numOpts:   cfg.NumeratorOptions,
		reset:     cfg.ResetPeriod,
		rates:     cfg.Rates,
		policies:  cfg.Policies,
		now:       cfg.Now,
		hooks:     domain.NewHookRegistry[*Document](),
	}
	if s.txManager == nil {
		s.txManager = tx.Direct{}
	}
	if s.numOpts == nil {
		s.numOpts = numerator.DefaultOptions()
	}
	if s.reset == "" {
		s.reset = numerator.ResetNever
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*Document] {
	return s.hooks
}

// Policy returns the totals policy for kind, honouring overrides.
func (s *Service) Policy(kind Kind) (totals.Policy, error) {
	if p, ok := s.policies[kind]; ok {
		return p, nil
	}
	return kind.Policy()
}

func (s *Service) vatRate(ctx context.Context, at time.Time) (types.Rate, error) {
	if s.rates == nil {
		return totals.DefaultVATRate, nil
	}
	rate, err := s.rates.ResolveVATRate(ctx, at)
	if err != nil {
		return types.Zero(), fmt.Errorf("resolve vat rate: %w", err)
	}
	return rate, nil
}

func (s *Service) fiscalStamp(ctx context.Context, at time.Time) (types.Money, error) {
	if s.rates == nil {
		return totals.DefaultFiscalStamp, nil
	}
	stamp, err := s.rates.ResolveFiscalStamp(ctx, at)
	if err != nil {
		return types.Zero(), fmt.Errorf("resolve fiscal stamp: %w", err)
	}
	return stamp, nil
}

// compute validates doc and fills every derived amount.
func (s *Service) compute(ctx context.Context, doc *Document) error {
	doc.Normalize()
	if err := doc.Validate(ctx); err != nil {
		return err
	}

	policy, err := s.Policy(doc.Kind)
	if err != nil {
		return err
	}
	policy = doc.EffectivePolicy(policy)

	rate, err := s.vatRate(ctx, doc.Date)
	if err != nil {
		return err
	}
	stamp := types.Zero()
	if policy.ApplyFiscalStamp {
		if stamp, err = s.fiscalStamp(ctx, doc.Date); err != nil {
			return err
		}
	}

	lines, docTotals, err := totals.ComputeDocument(doc.LineInputs(), policy, rate, stamp)
	if err != nil {
		return err
	}
	if policy.VATExempt {
		rate = types.Zero()
	}
	doc.ApplyTotals(lines, docTotals, rate)
	return nil
}

// Preview computes a draft without persisting it or reserving a reference.
func (s *Service) Preview(ctx context.Context, doc *Document) (*Document, error) {
	if err := s.compute(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// NextSequence reserves the next sequence number for kind.
func (s *Service) NextSequence(ctx context.Context, kind Kind) (int64, error) {
	cfg, err := kind.NumeratorConfig(s.reset)
	if err != nil {
		return 0, err
	}
	seq, err := s.numerator.NextSequence(ctx, cfg, s.numOpts, s.now())
	if err != nil {
		return 0, fmt.Errorf("next sequence for %s: %w", kind, err)
	}
	return seq, nil
}

// PeekReference shows the reference the next document of kind dated at would
// receive, without reserving it.
func (s *Service) PeekReference(ctx context.Context, kind Kind, at time.Time) (int64, string, error) {
	cfg, err := kind.NumeratorConfig(s.reset)
	if err != nil {
		return 0, "", err
	}
	seq, err := s.numerator.Peek(ctx, cfg, s.numOpts, at)
	if err != nil {
		return 0, "", fmt.Errorf("peek sequence for %s: %w", kind, err)
	}
	return seq, numerator.Format(cfg, seq, at.Year()), nil
}

// Create validates, computes and stores a new document. A reference is
// assigned when doc.ID is empty.
func (s *Service) Create(ctx context.Context, doc *Document) (*Document, error) {
	// Run before-create hooks (for enrichment, validation, etc.)
	if err := s.hooks.Run(ctx, domain.BeforeCreate, doc); err != nil {
		return nil, err
	}

	if err := s.compute(ctx, doc); err != nil {
		return nil, err
	}

	var saved *Document
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if doc.ID == "" {
			cfg, err := doc.Kind.NumeratorConfig(s.reset)
			if err != nil {
				return err
			}
			ref, err := s.numerator.GetNextNumber(ctx, cfg, s.numOpts, doc.Date)
			if err != nil {
				return fmt.Errorf("generate reference: %w", err)
			}
			doc.ID = ref
		}

		now := s.now()
		doc.Version = 1
		doc.CreatedAt = now
		doc.UpdatedAt = now

		var err error
		saved, err = s.repo.Insert(ctx, doc.Kind, doc)
		if err != nil {
			return fmt.Errorf("create %s: %w", doc.Kind, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.hooks.Run(ctx, domain.AfterCreate, saved); err != nil {
		logger.Warn(ctx, "after-create hook failed", "id", saved.ID, "error", err)
	}

	logger.Info(ctx, "document created",
		"kind", saved.Kind,
		"id", saved.ID,
		"total", types.Fixed(saved.Totals.Total))

	return saved, nil
}

// Update recomputes and replaces an existing document. Cancelled documents
// are frozen; a stale Version is rejected.
func (s *Service) Update(ctx context.Context, doc *Document) (*Document, error) {
	if !doc.Kind.Valid() {
		return nil, apperror.NewUnknownDocumentType(string(doc.Kind))
	}
	if err := s.hooks.Run(ctx, domain.BeforeUpdate, doc); err != nil {
		return nil, err
	}

	var saved *Document
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.repo.GetByID(ctx, doc.Kind, doc.ID)
		if err != nil {
			return err
		}
		if existing.IsCancelled() {
			return apperror.NewBusinessRule(apperror.CodeDocumentCancelled, "cancelled documents cannot be modified").
				WithDetail("id", doc.ID)
		}
		if doc.Version != 0 && doc.Version != existing.Version {
			return apperror.NewConcurrentModification(string(doc.Kind), doc.ID)
		}

		if err := s.compute(ctx, doc); err != nil {
			return err
		}

		doc.Version = existing.Version + 1
		doc.CreatedAt = existing.CreatedAt
		doc.UpdatedAt = s.now()

		saved, err = s.repo.Upsert(ctx, doc.Kind, doc)
		if err != nil {
			return fmt.Errorf("update %s: %w", doc.Kind, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.hooks.Run(ctx, domain.AfterUpdate, saved); err != nil {
		logger.Warn(ctx, "after-update hook failed", "id", saved.ID, "error", err)
	}

	logger.Info(ctx, "document updated", "kind", saved.Kind, "id", saved.ID, "version", saved.Version)
	return saved, nil
}

// Get returns one document.
func (s *Service) Get(ctx context.Context, kind Kind, id string) (*Document, error) {
	if !kind.Valid() {
		return nil, apperror.NewUnknownDocumentType(string(kind))
	}
	return s.repo.GetByID(ctx, kind, id)
}

// List returns a page of documents of kind.
func (s *Service) List(ctx context.Context, kind Kind, filter ListFilter) (domain.ListResult[*Document], error) {
	if !kind.Valid() {
		return domain.ListResult[*Document]{}, apperror.NewUnknownDocumentType(string(kind))
	}
	filter.Normalize()
	return s.repo.List(ctx, kind, filter)
}

// Delete removes a document and reports whether anything was removed.
// The reference is never handed out again.
func (s *Service) Delete(ctx context.Context, kind Kind, id string) (bool, error) {
	doc, err := s.Get(ctx, kind, id)
	if apperror.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := s.hooks.Run(ctx, domain.BeforeDelete, doc); err != nil {
		return false, err
	}

	var removed bool
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		removed, err = s.repo.DeleteByID(ctx, kind, id)
		if err != nil {
			return fmt.Errorf("delete %s: %w", kind, err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	if removed {
		if err := s.hooks.Run(ctx, domain.AfterDelete, doc); err != nil {
			logger.Warn(ctx, "after-delete hook failed", "id", id, "error", err)
		}
		logger.Info(ctx, "document deleted", "kind", kind, "id", id)
	}
	return removed, nil
}
