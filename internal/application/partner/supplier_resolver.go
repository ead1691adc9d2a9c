package partner

import (
	"context"
	"errors"
	"strings"

	"github.com/Z3RO333/formularios/internal/application/uow"
	"github.com/Z3RO333/formularios/internal/domain/matching"
	"github.com/Z3RO333/formularios/internal/domain/partner"
	"github.com/Z3RO333/formularios/internal/domain/shared"
	"github.com/Z3RO333/formularios/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ResolverConfig tunes supplier resolution
type ResolverConfig struct {
	// AcceptanceThreshold is the minimum similarity for a fuzzy match
	AcceptanceThreshold float64
	// PlaceholderName is the canonical name of suppliers created without a name
	PlaceholderName string
}

// DefaultResolverConfig returns the default resolution settings
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		AcceptanceThreshold: matching.DefaultAcceptanceThreshold,
		PlaceholderName:     partner.DefaultPlaceholderName,
	}
}

// ResolveInput is the supplier data as typed on a form
type ResolveInput struct {
	Name    string
	TaxID   string
	Email   string
	ActorID uuid.UUID
}

// Resolution is the outcome of a resolve. Events are the domain events the
// resolution produced; they must only be published after the enclosing unit
// of work commits.
type Resolution struct {
	Supplier *partner.Supplier
	Kind     partner.MatchKind
	Score    float64
	Events   []shared.DomainEvent
}

// SupplierResolver maps free-text supplier input to a canonical supplier,
// creating one when nothing in the registry is close enough.
type SupplierResolver struct {
	scope           uow.TransactionScope
	config          ResolverConfig
	logger          *zap.Logger
	eventPublisher  shared.EventPublisher
	businessMetrics *telemetry.BusinessMetrics
}

// NewSupplierResolver creates a new SupplierResolver
func NewSupplierResolver(scope uow.TransactionScope, config ResolverConfig, logger *zap.Logger) *SupplierResolver {
	if config.AcceptanceThreshold <= 0 {
		config.AcceptanceThreshold = matching.DefaultAcceptanceThreshold
	}
	if strings.TrimSpace(config.PlaceholderName) == "" {
		config.PlaceholderName = partner.DefaultPlaceholderName
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SupplierResolver{
		scope:  scope,
		config: config,
		logger: logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (r *SupplierResolver) SetEventPublisher(publisher shared.EventPublisher) {
	r.eventPublisher = publisher
}

// SetBusinessMetrics sets the business metrics collector
func (r *SupplierResolver) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	r.businessMetrics = bm
}

// Config returns the active resolution settings
func (r *SupplierResolver) Config() ResolverConfig {
	return r.config
}

// Resolve runs a resolution in its own unit of work. A unique-constraint race
// with a concurrent resolve is retried once; the retry sees the winner's row.
func (r *SupplierResolver) Resolve(ctx context.Context, in ResolveInput) (*Resolution, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "supplier", "resolve")
	defer span.End()

	res, err := r.resolve(ctx, in)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, "match_kind", string(res.Kind), "supplier_id", res.Supplier.ID.String())
	return res, nil
}

func (r *SupplierResolver) resolve(ctx context.Context, in ResolveInput) (*Resolution, error) {
	var res *Resolution
	run := func() error {
		return r.scope.Execute(ctx, func(repos uow.TransactionalRepositories) error {
			var err error
			res, err = r.ResolveWith(ctx, repos, in)
			return err
		})
	}

	err := run()
	if errors.Is(err, shared.ErrConflict) {
		r.logger.Info("Supplier resolution lost a race, retrying",
			zap.String("name", in.Name),
			zap.Error(err))
		err = run()
	}
	if err != nil {
		return nil, err
	}

	r.PublishResolution(ctx, res)
	return res, nil
}

// ResolveWith runs a resolution inside the caller's unit of work. The caller
// publishes the returned events after its commit, usually via PublishResolution.
func (r *SupplierResolver) ResolveWith(ctx context.Context, repos uow.TransactionalRepositories, in ResolveInput) (*Resolution, error) {
	suppliers := repos.Suppliers()
	if err := suppliers.LockRegistry(ctx); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)

	if taxID := matching.NormalizeTaxID(in.TaxID); taxID != "" {
		found, err := findByTaxID(ctx, suppliers, taxID)
		switch {
		case err == nil:
			return r.matched(ctx, suppliers, found, name, in.ActorID, partner.MatchKindTaxID, 1)
		case !errors.Is(err, shared.ErrNotFound):
			return nil, err
		}
	}

	if normalized := matching.Normalize(name); normalized != "" {
		candidates, err := suppliers.ListActive(ctx)
		if err != nil {
			return nil, err
		}
		best, score := bestCandidate(candidates, normalized)
		if best != nil && matching.MeetsThreshold(score, r.config.AcceptanceThreshold) {
			return r.matched(ctx, suppliers, best, name, in.ActorID, partner.MatchKindFuzzy, score)
		}
	}

	created := partner.NewSupplier(name, in.TaxID, in.Email, r.config.PlaceholderName, in.ActorID)
	if err := suppliers.Create(ctx, created); err != nil {
		return nil, err
	}
	events := append([]shared.DomainEvent{}, created.GetDomainEvents()...)
	created.ClearDomainEvents()
	events = append(events, partner.NewSupplierResolvedEvent(created, name, partner.MatchKindCreated, 0, in.ActorID))

	return &Resolution{
		Supplier: created,
		Kind:     partner.MatchKindCreated,
		Events:   events,
	}, nil
}

// maxMergeHops bounds how far findByTaxID follows a chain of merges
const maxMergeHops = 16

// findByTaxID returns the live supplier holding taxID. When only a tombstone
// holds it, the merge chain is followed to the live supplier that absorbed it.
func findByTaxID(ctx context.Context, suppliers partner.SupplierRepository, taxID string) (*partner.Supplier, error) {
	found, err := suppliers.FindActiveByTaxID(ctx, taxID)
	if !errors.Is(err, shared.ErrNotFound) {
		return found, err
	}

	s, err := suppliers.FindMergedByTaxID(ctx, taxID)
	if err != nil {
		return nil, err
	}
	for hops := 0; s.IsTombstoned(); hops++ {
		if hops == maxMergeHops {
			return nil, shared.NewDomainError(shared.KindNotFound, "NOT_FOUND", "Merge chain too long")
		}
		if s, err = suppliers.FindByID(ctx, *s.MergedInto); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// bestCandidate returns the highest scoring supplier. Candidates arrive oldest
// first and only a strictly greater score replaces the current best, so ties
// go to the oldest supplier.
func bestCandidate(candidates []partner.Supplier, normalized string) (*partner.Supplier, float64) {
	var best *partner.Supplier
	bestScore := 0.0
	for i := range candidates {
		score := candidates[i].MatchScore(normalized)
		if score > bestScore {
			best = &candidates[i]
			bestScore = score
		}
	}
	return best, bestScore
}

func (r *SupplierResolver) matched(ctx context.Context, suppliers partner.SupplierRepository, s *partner.Supplier, name string, actorID uuid.UUID, kind partner.MatchKind, score float64) (*Resolution, error) {
	var events []shared.DomainEvent
	if s.AddAlias(name) {
		if err := suppliers.AddAliases(ctx, s.ID, name); err != nil {
			return nil, err
		}
		events = append(events, partner.NewSupplierAliasRegisteredEvent(s, name, actorID))
	}
	events = append(events, partner.NewSupplierResolvedEvent(s, name, kind, score, actorID))

	return &Resolution{
		Supplier: s,
		Kind:     kind,
		Score:    score,
		Events:   events,
	}, nil
}

// PublishResolution records a committed resolution: metrics, a log line and the
// domain events. Publishing failures are logged and otherwise ignored.
func (r *SupplierResolver) PublishResolution(ctx context.Context, res *Resolution) {
	if res == nil {
		return
	}
	r.logger.Info("Supplier resolved",
		zap.String("supplier_id", res.Supplier.ID.String()),
		zap.String("kind", string(res.Kind)),
		zap.Float64("score", res.Score))

	if r.businessMetrics != nil {
		r.businessMetrics.RecordResolution(ctx, string(res.Kind))
	}
	if r.eventPublisher != nil && len(res.Events) > 0 {
		if err := r.eventPublisher.Publish(ctx, res.Events...); err != nil {
			r.logger.Error("Failed to publish supplier resolution events",
				zap.String("supplier_id", res.Supplier.ID.String()),
				zap.Error(err))
		}
	}
}
