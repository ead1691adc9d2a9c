package integration

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	partnerapp "github.com/Z3RO333/formularios/internal/application/partner"
	tradeapp "github.com/Z3RO333/formularios/internal/application/trade"
	"github.com/Z3RO333/formularios/internal/domain/partner"
	"github.com/Z3RO333/formularios/internal/domain/shared"
	"github.com/Z3RO333/formularios/internal/domain/trade"
	"github.com/Z3RO333/formularios/internal/infrastructure/event"
	"github.com/Z3RO333/formularios/internal/infrastructure/migration"
	"github.com/Z3RO333/formularios/internal/infrastructure/persistence"
	"github.com/Z3RO333/formularios/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stack wires the services over a PostgreSQL database the way cmd/server does
type stack struct {
	db        *TestDB
	resolver  *partnerapp.SupplierResolver
	merger    *partnerapp.SupplierMerger
	orders    *tradeapp.OrderService
	lifecycle *tradeapp.LifecycleService
}

func newStack(t *testing.T, tdb *TestDB) *stack {
	t.Helper()
	log := zap.NewNop()
	scope := persistence.NewGormTransactionScope(tdb.DB)

	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(event.NewAuditHandler(persistence.NewGormAuditRepository(tdb.DB), log))
	require.NoError(t, bus.Start(context.Background()))

	resolver := partnerapp.NewSupplierResolver(scope, partnerapp.DefaultResolverConfig(), log)
	resolver.SetEventPublisher(bus)
	merger := partnerapp.NewSupplierMerger(scope, 0, log)
	merger.SetEventPublisher(bus)
	orders := tradeapp.NewOrderService(scope, resolver, log)
	orders.SetEventPublisher(bus)
	lifecycle := tradeapp.NewLifecycleService(scope, log)
	lifecycle.SetEventPublisher(bus)

	return &stack{db: tdb, resolver: resolver, merger: merger, orders: orders, lifecycle: lifecycle}
}

func orderRequest(supplier string) tradeapp.CreateOrderRequest {
	price := decimal.RequireFromString("12.90")
	return tradeapp.CreateOrderRequest{
		Department:    "Compras",
		Location:      "Matriz",
		Kind:          "Material de escritório",
		Description:   "Reposição mensal",
		Justification: "Estoque baixo",
		Priority:      "media",
		Supplier:      tradeapp.SupplierInput{Name: supplier},
		Items: []tradeapp.OrderItemInput{
			{Description: "Resma papel A4", Quantity: decimal.NewFromInt(10), Unit: "CX", EstimatedUnitPrice: &price},
			{Description: "Caneta azul", Quantity: decimal.NewFromInt(20)},
		},
	}
}

func TestMigrations_DownAndUpAgain(t *testing.T) {
	tdb := NewTestDB(t)

	conn, err := sql.Open("postgres", tdb.DSN)
	require.NoError(t, err)
	m, err := migration.New(conn, zap.NewNop())
	require.NoError(t, err)
	defer func() { _ = m.Close() }()

	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(4), version)
	assert.False(t, dirty)

	require.NoError(t, m.Down())
	assert.False(t, tdb.DB.Migrator().HasTable("suppliers"))

	require.NoError(t, m.Up())
	require.NoError(t, m.Up(), "second up is a no-op")
	assert.True(t, tdb.DB.Migrator().HasTable("purchase_order_items"))
}

func TestResolver_ConcurrentResolvesShareOneSupplier(t *testing.T) {
	s := newStack(t, NewTestDB(t))
	ctx := context.Background()

	const workers = 8
	ids := make([]uuid.UUID, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := s.resolver.Resolve(ctx, partnerapp.ResolveInput{Name: "Papelaria Central Ltda", ActorID: testutil.ActorID("buyer")})
			errs[i] = err
			if err == nil {
				ids[i] = res.Supplier.ID
			}
		}(i)
	}
	wg.Wait()

	for i := range workers {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	assert.Equal(t, int64(1), s.db.Count("suppliers", ""))
	assert.Equal(t, int64(1), s.db.Count("supplier_aliases", ""))
}

func TestResolver_TaxIDWinsOverName(t *testing.T) {
	s := newStack(t, NewTestDB(t))
	ctx := context.Background()

	first, err := s.resolver.Resolve(ctx, partnerapp.ResolveInput{Name: "Alfa Materiais", TaxID: "11.222.333/0001-81"})
	require.NoError(t, err)
	assert.Equal(t, partner.MatchKindCreated, first.Kind)

	second, err := s.resolver.Resolve(ctx, partnerapp.ResolveInput{Name: "Nome Totalmente Diferente", TaxID: "11222333000181"})
	require.NoError(t, err)
	assert.Equal(t, partner.MatchKindTaxID, second.Kind)
	assert.Equal(t, first.Supplier.ID, second.Supplier.ID)
	assert.Contains(t, second.Supplier.Aliases, "Nome Totalmente Diferente")
}

func TestOrderLifecycle_Postgres(t *testing.T) {
	s := newStack(t, NewTestDB(t))
	ctx := context.Background()
	requester := testutil.ActorID("requester")
	approver := testutil.ActorID("approver")

	created, err := s.orders.Create(ctx, requester, orderRequest("Papelaria Central Ltda"))
	require.NoError(t, err)
	require.NotNil(t, created.SupplierID)
	assert.Equal(t, string(trade.OrderStatusPendingApproval), created.Status)
	require.Len(t, created.Items, 2)

	update := tradeapp.UpdateOrderRequest{
		Department:    created.Department,
		Location:      created.Location,
		Kind:          created.Kind,
		Description:   created.Description,
		Justification: created.Justification,
		Priority:      created.Priority,
		Supplier:      tradeapp.SupplierInput{Name: created.SupplierName},
	}
	kept := created.Items[0].ID
	update.Items = []tradeapp.OrderItemInput{
		{ID: &kept, Description: "Resma papel A4", Quantity: decimal.NewFromInt(12), Unit: "CX"},
		{Description: "Clips", Quantity: decimal.NewFromInt(3)},
	}
	require.NoError(t, s.orders.Update(ctx, requester, created.ID, update))

	loaded, err := s.orders.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 2)
	assert.Equal(t, kept, loaded.Items[0].ID)
	assert.True(t, decimal.NewFromInt(12).Equal(loaded.Items[0].Quantity))
	assert.Equal(t, int64(2), s.db.Count("purchase_order_items", "order_id = ?", created.ID))

	approved, err := s.lifecycle.Approve(ctx, tradeapp.ApproveInput{OrderID: created.ID, ActorID: approver, Note: "ok"})
	require.NoError(t, err)
	assert.Equal(t, string(trade.OrderStatusApproved), approved.Status)

	_, err = s.lifecycle.Approve(ctx, tradeapp.ApproveInput{OrderID: created.ID, ActorID: approver})
	assert.True(t, shared.IsKind(err, shared.KindInvalidTransition))
	_, err = s.lifecycle.Reject(ctx, tradeapp.RejectInput{OrderID: created.ID, ActorID: approver, Reason: "late"})
	assert.True(t, shared.IsKind(err, shared.KindInvalidTransition))

	history, err := s.lifecycle.History(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Nil(t, history[0].PreviousStatus)
	assert.Equal(t, string(trade.OrderStatusApproved), history[1].NewStatus)

	assert.Equal(t, int64(1), s.db.Count("audit_log", "action = ? AND entity_id = ?", trade.EventTypeOrderApproved, created.ID))
}

func TestMerge_Postgres(t *testing.T) {
	s := newStack(t, NewTestDB(t))
	ctx := context.Background()

	a, err := s.orders.Create(ctx, uuid.New(), orderRequest("Alfa Materiais"))
	require.NoError(t, err)
	b, err := s.orders.Create(ctx, uuid.New(), orderRequest("Construtora Beta"))
	require.NoError(t, err)
	require.NotEqual(t, *a.SupplierID, *b.SupplierID)

	_, err = s.merger.Merge(ctx, partnerapp.MergeInput{PrimaryID: *a.SupplierID, SecondaryID: *a.SupplierID})
	assert.ErrorIs(t, err, shared.ErrSelfMerge)

	result, err := s.merger.Merge(ctx, partnerapp.MergeInput{PrimaryID: *a.SupplierID, SecondaryID: *b.SupplierID, ActorID: testutil.ActorID("admin")})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.OrdersMoved)
	assert.Contains(t, result.InheritedAliases, "Construtora Beta")

	moved, err := s.orders.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, *a.SupplierID, *moved.SupplierID)
	assert.Equal(t, "Construtora Beta", moved.SupplierName, "typed name is kept")

	assert.Equal(t, int64(1), s.db.Count("suppliers", "merged_into = ?", *a.SupplierID))

	// The tombstone's old name now resolves to the survivor.
	res, err := s.resolver.Resolve(ctx, partnerapp.ResolveInput{Name: "construtora beta"})
	require.NoError(t, err)
	assert.Equal(t, *a.SupplierID, res.Supplier.ID)
}

func TestFindSuspectedDuplicates_Postgres(t *testing.T) {
	s := newStack(t, NewTestDB(t))
	ctx := context.Background()
	repo := persistence.NewGormSupplierRepository(s.db.DB)

	for _, name := range []string{"Papelaria Central", "Papelaria Centrall", "Oficina Mecânica Silva"} {
		require.NoError(t, repo.Create(ctx, partner.NewSupplier(name, "", "", "", uuid.Nil)))
	}

	candidates, err := s.merger.FindSuspectedDuplicates(ctx)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.ElementsMatch(t,
		[]string{"Papelaria Central", "Papelaria Centrall"},
		[]string{candidates[0].First.CanonicalName, candidates[0].Second.CanonicalName})
	assert.GreaterOrEqual(t, candidates[0].Score, 0.8)
}
