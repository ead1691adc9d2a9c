package persistence

import (
	"context"

	"github.com/Z3RO333/formularios/internal/application/uow"
	"github.com/Z3RO333/formularios/internal/domain/partner"
	"github.com/Z3RO333/formularios/internal/domain/trade"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed. Errors from
// begin and commit are translated like repository errors.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos uow.TransactionalRepositories) error) error {
	return translateError(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	}))
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// Suppliers returns the supplier repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Suppliers() partner.SupplierRepository {
	return NewGormSupplierRepository(r.tx)
}

// Orders returns the purchase order repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Orders() trade.PurchaseOrderRepository {
	return NewGormPurchaseOrderRepository(r.tx)
}

// History returns the status history repository scoped to the current transaction.
func (r *gormTransactionalRepositories) History() trade.StatusHistoryRepository {
	return NewGormStatusHistoryRepository(r.tx)
}

// Attachments returns the attachment repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Attachments() trade.AttachmentRepository {
	return NewGormAttachmentRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ uow.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ uow.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
