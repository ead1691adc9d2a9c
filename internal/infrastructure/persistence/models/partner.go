package models

import (
	"time"

	"github.com/Z3RO333/formularios/internal/domain/partner"
	"github.com/google/uuid"
)

// SupplierModel is the persistence model for the Supplier aggregate root.
// Tax id and normalized name are unique among live suppliers only, so a
// tombstone never blocks a new registration.
type SupplierModel struct {
	AggregateModel
	CanonicalName  string     `gorm:"type:varchar(200);not null"`
	NormalizedName string     `gorm:"type:varchar(200);not null;default:'';uniqueIndex:idx_suppliers_live_normalized_name,where:merged_into IS NULL AND normalized_name <> ''"`
	TaxID          string     `gorm:"column:tax_id;type:varchar(20);not null;default:'';uniqueIndex:idx_suppliers_live_tax_id,where:merged_into IS NULL AND tax_id <> ''"`
	Email          string     `gorm:"type:varchar(200)"`
	MergedInto     *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (SupplierModel) TableName() string {
	return "suppliers"
}

// ToDomain converts the persistence model to a domain Supplier. Aliases are
// loaded separately and passed in.
func (m *SupplierModel) ToDomain(aliases []string) *partner.Supplier {
	if aliases == nil {
		aliases = []string{}
	}
	return &partner.Supplier{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		CanonicalName:     m.CanonicalName,
		NormalizedName:    m.NormalizedName,
		TaxID:             m.TaxID,
		Email:             m.Email,
		Aliases:           aliases,
		MergedInto:        m.MergedInto,
	}
}

// FromDomain populates the persistence model from a domain Supplier.
func (m *SupplierModel) FromDomain(s *partner.Supplier) {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.CanonicalName = s.CanonicalName
	m.NormalizedName = s.NormalizedName
	m.TaxID = s.TaxID
	m.Email = s.Email
	m.MergedInto = s.MergedInto
}

// SupplierModelFromDomain creates a new persistence model from a domain Supplier.
func SupplierModelFromDomain(s *partner.Supplier) *SupplierModel {
	m := &SupplierModel{}
	m.FromDomain(s)
	return m
}

// SupplierAliasModel is one registered spelling of a supplier name
type SupplierAliasModel struct {
	SupplierID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Alias      string    `gorm:"type:varchar(200);primaryKey"`
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SupplierAliasModel) TableName() string {
	return "supplier_aliases"
}

// SupplierAliasModels builds alias rows for a supplier
func SupplierAliasModels(supplierID uuid.UUID, aliases []string, now time.Time) []SupplierAliasModel {
	rows := make([]SupplierAliasModel, 0, len(aliases))
	for i, a := range aliases {
		// keeps insertion order stable when aliases share a statement
		rows = append(rows, SupplierAliasModel{
			SupplierID: supplierID,
			Alias:      a,
			CreatedAt:  now.Add(time.Duration(i) * time.Microsecond),
		})
	}
	return rows
}
