package partner

import (
	"strings"

	"github.com/Z3RO333/formularios/internal/domain/matching"
	"github.com/Z3RO333/formularios/internal/domain/shared"
	"github.com/google/uuid"
)

// DefaultPlaceholderName is the canonical name given to suppliers created
// from an empty name
const DefaultPlaceholderName = "Fornecedor sem nome"

// Supplier is a vendor in the canonical registry. It is the aggregate root for
// identity resolution and merges.
type Supplier struct {
	shared.BaseAggregateRoot
	CanonicalName  string
	NormalizedName string // derived, used for matching only
	TaxID          string // digits only, empty when unknown
	Email          string
	Aliases        []string
	MergedInto     *uuid.UUID
}

// NewSupplier creates a supplier from a typed name. An empty name yields the
// placeholder canonical name and no aliases.
func NewSupplier(name, taxID, email, placeholder string, actorID uuid.UUID) *Supplier {
	name = strings.TrimSpace(name)
	if placeholder == "" {
		placeholder = DefaultPlaceholderName
	}

	s := &Supplier{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CanonicalName:     name,
		NormalizedName:    matching.Normalize(name),
		TaxID:             matching.NormalizeTaxID(taxID),
		Email:             strings.TrimSpace(strings.ToLower(email)),
		Aliases:           []string{},
	}
	if name == "" {
		s.CanonicalName = placeholder
	} else {
		s.Aliases = append(s.Aliases, name)
	}

	s.AddDomainEvent(NewSupplierCreatedEvent(s, actorID))
	return s
}

// IsTombstoned reports whether the supplier was merged away
func (s *Supplier) IsTombstoned() bool {
	return s.MergedInto != nil
}

// HasAlias reports whether alias is already registered
func (s *Supplier) HasAlias(alias string) bool {
	alias = strings.TrimSpace(alias)
	for _, a := range s.Aliases {
		if a == alias {
			return true
		}
	}
	return false
}

// AddAlias registers alias and reports whether it was new. Empty and already
// present aliases are a no-op.
func (s *Supplier) AddAlias(alias string) bool {
	alias = strings.TrimSpace(alias)
	if alias == "" || s.HasAlias(alias) {
		return false
	}
	s.Aliases = append(s.Aliases, alias)
	s.Touch()
	return true
}

// MatchScore returns the best similarity between a normalized input and the
// supplier's canonical name or any of its aliases.
func (s *Supplier) MatchScore(normalizedInput string) float64 {
	if normalizedInput == "" {
		return 0
	}
	candidates := make([]string, 0, len(s.Aliases)+1)
	candidates = append(candidates, s.NormalizedName)
	for _, a := range s.Aliases {
		candidates = append(candidates, matching.Normalize(a))
	}
	return matching.BestScore(normalizedInput, candidates...)
}

// MergeInto tombstones s in favor of primary and returns the aliases primary
// gained. Primary also takes the tax id of s when it has none. Both suppliers
// must be live and distinct.
func (s *Supplier) MergeInto(primary *Supplier, actorID uuid.UUID) ([]string, error) {
	if primary.ID == s.ID {
		return nil, shared.ErrSelfMerge
	}
	if s.IsTombstoned() {
		return nil, shared.NewNotFoundError("supplier", s.ID)
	}
	if primary.IsTombstoned() {
		return nil, shared.NewNotFoundError("supplier", primary.ID)
	}

	inherited := make([]string, 0, len(s.Aliases)+1)
	if s.NormalizedName != "" && primary.AddAlias(s.CanonicalName) {
		inherited = append(inherited, strings.TrimSpace(s.CanonicalName))
	}
	for _, a := range s.Aliases {
		if primary.AddAlias(a) {
			inherited = append(inherited, strings.TrimSpace(a))
		}
	}

	if primary.TaxID == "" && s.TaxID != "" {
		primary.TaxID = s.TaxID
		primary.Touch()
	}

	primaryID := primary.ID
	s.MergedInto = &primaryID
	s.Touch()
	s.IncrementVersion()

	s.AddDomainEvent(NewSuppliersMergedEvent(primary, s, inherited, actorID))
	return inherited, nil
}
