package partner

import (
	"context"
	"sort"

	"github.com/Z3RO333/formularios/internal/application/uow"
	"github.com/Z3RO333/formularios/internal/domain/matching"
	"github.com/Z3RO333/formularios/internal/domain/partner"
	"github.com/Z3RO333/formularios/internal/domain/shared"
	"github.com/Z3RO333/formularios/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MergeInput names the surviving supplier and the duplicate folded into it
type MergeInput struct {
	PrimaryID   uuid.UUID
	SecondaryID uuid.UUID
	ActorID     uuid.UUID
}

// MergeResult reports what a merge changed
type MergeResult struct {
	PrimaryID        uuid.UUID
	SecondaryID      uuid.UUID
	InheritedAliases []string
	OrdersMoved      int64
	AttachmentsMoved int64
}

// DuplicateCandidate is a pair of live suppliers whose names look alike.
// First always has the smaller id.
type DuplicateCandidate struct {
	First  *partner.Supplier
	Second *partner.Supplier
	Score  float64
}

// SupplierMerger folds duplicate suppliers into one and finds suspected
// duplicates for review.
type SupplierMerger struct {
	scope              uow.TransactionScope
	suspicionThreshold float64
	logger             *zap.Logger
	eventPublisher     shared.EventPublisher
	businessMetrics    *telemetry.BusinessMetrics
}

// NewSupplierMerger creates a new SupplierMerger
func NewSupplierMerger(scope uow.TransactionScope, suspicionThreshold float64, logger *zap.Logger) *SupplierMerger {
	if suspicionThreshold <= 0 {
		suspicionThreshold = matching.DefaultSuspicionThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SupplierMerger{
		scope:              scope,
		suspicionThreshold: suspicionThreshold,
		logger:             logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (m *SupplierMerger) SetEventPublisher(publisher shared.EventPublisher) {
	m.eventPublisher = publisher
}

// SetBusinessMetrics sets the business metrics collector
func (m *SupplierMerger) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	m.businessMetrics = bm
}

// Merge tombstones the secondary supplier in favor of the primary. Aliases,
// orders and attachments move to the primary in the same transaction; on any
// failure nothing changes. Merges cannot be undone.
func (m *SupplierMerger) Merge(ctx context.Context, in MergeInput) (*MergeResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "supplier", "merge",
		"primary_id", in.PrimaryID.String(),
		"secondary_id", in.SecondaryID.String())
	defer span.End()

	result, err := m.merge(ctx, in)
	telemetry.RecordError(span, err)
	return result, err
}

func (m *SupplierMerger) merge(ctx context.Context, in MergeInput) (*MergeResult, error) {
	if in.PrimaryID == in.SecondaryID {
		return nil, shared.ErrSelfMerge
	}

	var (
		result *MergeResult
		events []shared.DomainEvent
	)
	err := m.scope.Execute(ctx, func(repos uow.TransactionalRepositories) error {
		// a resolve holding the registry lock may already have picked secondary
		if err := repos.Suppliers().LockRegistry(ctx); err != nil {
			return err
		}
		primary, secondary, err := lockPair(ctx, repos.Suppliers(), in.PrimaryID, in.SecondaryID)
		if err != nil {
			return err
		}

		primaryTaxID := primary.TaxID
		inherited, err := secondary.MergeInto(primary, in.ActorID)
		if err != nil {
			return err
		}
		if len(inherited) > 0 {
			if err := repos.Suppliers().AddAliases(ctx, primary.ID, inherited...); err != nil {
				return err
			}
		}
		if err := repos.Suppliers().MarkMerged(ctx, secondary.ID, primary.ID); err != nil {
			return err
		}
		// live tax ids are unique, so this waits until secondary is a tombstone
		if primary.TaxID != primaryTaxID {
			if err := repos.Suppliers().SetTaxID(ctx, primary.ID, primary.TaxID); err != nil {
				return err
			}
		}

		ordersMoved, err := repos.Orders().ReassignSupplier(ctx, secondary.ID, primary.ID)
		if err != nil {
			return err
		}
		attachmentsMoved, err := repos.Attachments().ReassignSupplier(ctx, secondary.ID, primary.ID)
		if err != nil {
			return err
		}

		for _, e := range secondary.GetDomainEvents() {
			if merged, ok := e.(*partner.SuppliersMergedEvent); ok {
				merged.OrdersMoved = ordersMoved
				merged.AttachmentsMoved = attachmentsMoved
			}
			events = append(events, e)
		}
		secondary.ClearDomainEvents()

		result = &MergeResult{
			PrimaryID:        primary.ID,
			SecondaryID:      secondary.ID,
			InheritedAliases: inherited,
			OrdersMoved:      ordersMoved,
			AttachmentsMoved: attachmentsMoved,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("Suppliers merged",
		zap.String("primary_id", result.PrimaryID.String()),
		zap.String("secondary_id", result.SecondaryID.String()),
		zap.Int("inherited_aliases", len(result.InheritedAliases)),
		zap.Int64("orders_moved", result.OrdersMoved),
		zap.Int64("attachments_moved", result.AttachmentsMoved))

	if m.businessMetrics != nil {
		m.businessMetrics.RecordMerge(ctx, result.OrdersMoved, result.AttachmentsMoved)
	}
	if m.eventPublisher != nil {
		if err := m.eventPublisher.Publish(ctx, events...); err != nil {
			m.logger.Error("Failed to publish merge events", zap.Error(err))
		}
	}
	return result, nil
}

// lockPair loads both suppliers for update, always locking the smaller id
// first so two merges over the same pair cannot deadlock.
func lockPair(ctx context.Context, repo partner.SupplierRepository, primaryID, secondaryID uuid.UUID) (*partner.Supplier, *partner.Supplier, error) {
	firstID, secondID := primaryID, secondaryID
	if secondID.String() < firstID.String() {
		firstID, secondID = secondID, firstID
	}

	first, err := repo.FindByIDForUpdate(ctx, firstID)
	if err != nil {
		return nil, nil, err
	}
	second, err := repo.FindByIDForUpdate(ctx, secondID)
	if err != nil {
		return nil, nil, err
	}

	if first.ID == primaryID {
		return first, second, nil
	}
	return second, first, nil
}

// FindSuspectedDuplicates compares every pair of live suppliers by normalized
// canonical name. This is quadratic in the registry size and meant for
// back-office review, not the request path.
func (m *SupplierMerger) FindSuspectedDuplicates(ctx context.Context) ([]DuplicateCandidate, error) {
	var suppliers []partner.Supplier
	err := uow.ReadWithRetry(ctx, func(ctx context.Context) error {
		return m.scope.Execute(ctx, func(repos uow.TransactionalRepositories) error {
			var err error
			suppliers, err = repos.Suppliers().ListActive(ctx)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	candidates := make([]DuplicateCandidate, 0)
	for i := 0; i < len(suppliers); i++ {
		a := &suppliers[i]
		if a.NormalizedName == "" {
			continue
		}
		for j := i + 1; j < len(suppliers); j++ {
			b := &suppliers[j]
			if b.NormalizedName == "" {
				continue
			}
			score := matching.Similarity(a.NormalizedName, b.NormalizedName)
			if !matching.MeetsThreshold(score, m.suspicionThreshold) {
				continue
			}
			first, second := a, b
			if second.ID.String() < first.ID.String() {
				first, second = second, first
			}
			candidates = append(candidates, DuplicateCandidate{First: first, Second: second, Score: score})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		ci, cj := candidates[i], candidates[j]
		if ci.Score != cj.Score {
			return ci.Score > cj.Score
		}
		if ci.First.ID != cj.First.ID {
			return ci.First.ID.String() < cj.First.ID.String()
		}
		return ci.Second.ID.String() < cj.Second.ID.String()
	})
	return candidates, nil
}
