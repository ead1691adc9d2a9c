// Package uow defines the unit of work shared by the application services.
package uow

import (
	"context"

	"github.com/Z3RO333/formularios/internal/domain/partner"
	"github.com/Z3RO333/formularios/internal/domain/trade"
)

// TransactionScope provides transactional access to the repositories.
// Every write made through the repositories handed to fn commits together, or
// none of them do when fn returns an error.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories within a transaction.
// All repositories returned share the same underlying database transaction.
type TransactionalRepositories interface {
	// Suppliers returns the supplier registry scoped to the current transaction
	Suppliers() partner.SupplierRepository
	// Orders returns the purchase order repository scoped to the current transaction
	Orders() trade.PurchaseOrderRepository
	// History returns the append-only status history scoped to the current transaction
	History() trade.StatusHistoryRepository
	// Attachments returns the attachment metadata repository scoped to the current transaction
	Attachments() trade.AttachmentRepository
}

// NoOpTransactionScope runs the function against fixed repositories without a
// real transaction. Used by tests that mock the repositories.
type NoOpTransactionScope struct {
	suppliers   partner.SupplierRepository
	orders      trade.PurchaseOrderRepository
	history     trade.StatusHistoryRepository
	attachments trade.AttachmentRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	suppliers partner.SupplierRepository,
	orders trade.PurchaseOrderRepository,
	history trade.StatusHistoryRepository,
	attachments trade.AttachmentRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		suppliers:   suppliers,
		orders:      orders,
		history:     history,
		attachments: attachments,
	}
}

// Execute runs fn without a transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Suppliers returns the supplier repository.
func (s *NoOpTransactionScope) Suppliers() partner.SupplierRepository {
	return s.suppliers
}

// Orders returns the order repository.
func (s *NoOpTransactionScope) Orders() trade.PurchaseOrderRepository {
	return s.orders
}

// History returns the status history repository.
func (s *NoOpTransactionScope) History() trade.StatusHistoryRepository {
	return s.history
}

// Attachments returns the attachment repository.
func (s *NoOpTransactionScope) Attachments() trade.AttachmentRepository {
	return s.attachments
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
