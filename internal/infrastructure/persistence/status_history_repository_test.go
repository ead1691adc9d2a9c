package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/Z3RO333/formularios/internal/domain/trade"
	"github.com/Z3RO333/formularios/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormStatusHistoryRepository_ListByOrder(t *testing.T) {
	repo := NewGormStatusHistoryRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()

	orderID := uuid.New()
	actor := uuid.New()
	at := time.Now().UTC()

	// appended out of order and sharing a timestamp with the creation entry
	approval := trade.NewTransitionEntry(orderID, trade.OrderStatusPendingApproval, trade.OrderStatusApproved, actor, trade.DefaultApprovalNote, at)
	creation := trade.NewCreationEntry(orderID, actor, at)
	require.NoError(t, repo.Append(ctx, approval))
	require.NoError(t, repo.Append(ctx, creation))
	require.NoError(t, repo.Append(ctx, trade.NewCreationEntry(uuid.New(), actor, at)))

	entries, err := repo.ListByOrder(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.True(t, entries[0].IsCreation())
	assert.Equal(t, trade.OrderStatusPendingApproval, entries[0].NewStatus)
	assert.Equal(t, trade.DefaultCreationNote, entries[0].Note)

	require.NotNil(t, entries[1].PreviousStatus)
	assert.Equal(t, trade.OrderStatusPendingApproval, *entries[1].PreviousStatus)
	assert.Equal(t, trade.OrderStatusApproved, entries[1].NewStatus)
	assert.Equal(t, actor, entries[1].ActorID)
}

func TestGormStatusHistoryRepository_EmptyOrder(t *testing.T) {
	repo := NewGormStatusHistoryRepository(testutil.NewSQLiteDB(t))

	entries, err := repo.ListByOrder(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
