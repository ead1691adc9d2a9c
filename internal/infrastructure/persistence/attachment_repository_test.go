package persistence

import (
	"context"
	"testing"

	"github.com/Z3RO333/formularios/internal/domain/shared"
	"github.com/Z3RO333/formularios/internal/domain/trade"
	"github.com/Z3RO333/formularios/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormAttachmentRepository(t *testing.T) {
	repo := NewGormAttachmentRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()

	supplierID := uuid.New()
	order, _ := newTestOrder(t, &supplierID)

	invoice, err := trade.NewAttachment(order, trade.DocumentTypeInvoice, "", "nf-123.pdf", "application/pdf", 2048, uuid.New())
	require.NoError(t, err)
	quote, err := trade.NewAttachment(order, trade.DocumentTypeQuote, "2024-01", "orcamento.pdf", "", 512, uuid.New())
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, invoice))
	require.NoError(t, repo.Create(ctx, quote))

	t.Run("finds by id", func(t *testing.T) {
		found, err := repo.FindByID(ctx, invoice.ID)
		require.NoError(t, err)
		assert.Equal(t, invoice.StorageKey, found.StorageKey)
		assert.Equal(t, trade.DocumentTypeInvoice, found.DocType)
		assert.Equal(t, order.Competence, found.Competence)
		assert.Equal(t, int64(2048), found.Size)

		_, err = repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("lists by order", func(t *testing.T) {
		list, err := repo.ListByOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("reassigns supplier", func(t *testing.T) {
		target := uuid.New()
		moved, err := repo.ReassignSupplier(ctx, supplierID, target)
		require.NoError(t, err)
		assert.Equal(t, int64(2), moved)

		found, err := repo.FindByID(ctx, quote.ID)
		require.NoError(t, err)
		require.NotNil(t, found.SupplierID)
		assert.Equal(t, target, *found.SupplierID)

		moved, err = repo.ReassignSupplier(ctx, supplierID, target)
		require.NoError(t, err)
		assert.Zero(t, moved)
	})

	t.Run("duplicate storage key is a conflict", func(t *testing.T) {
		dup := *invoice
		dup.ID = uuid.New()
		assert.ErrorIs(t, repo.Create(ctx, &dup), shared.ErrConflict)
	})
}

func TestGormAuditRepository(t *testing.T) {
	repo := NewGormAuditRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()

	entityID := uuid.New()
	actor := uuid.New()
	require.NoError(t, repo.Record(ctx, &shared.AuditEntry{
		ActorID:    &actor,
		Action:     "SuppliersMerged",
		EntityType: "Supplier",
		EntityID:   entityID,
		Details:    `{"orders_moved":2}`,
	}))
	require.NoError(t, repo.Record(ctx, &shared.AuditEntry{
		Action:     "SupplierResolved",
		EntityType: "Supplier",
		EntityID:   entityID,
	}))

	entries, err := repo.ListByEntity(ctx, entityID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "SuppliersMerged", entries[0].Action)
	assert.Equal(t, actor, *entries[0].ActorID)
	assert.NotEqual(t, uuid.Nil, entries[0].ID)
	assert.Nil(t, entries[1].ActorID)
}
