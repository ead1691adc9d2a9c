package partner

import (
	"context"
	"testing"
	"time"

	"github.com/Z3RO333/formularios/internal/application/uow"
	"github.com/Z3RO333/formularios/internal/domain/partner"
	"github.com/Z3RO333/formularios/internal/domain/shared"
	"github.com/Z3RO333/formularios/internal/domain/trade"
	"github.com/Z3RO333/formularios/internal/infrastructure/persistence"
	"github.com/Z3RO333/formularios/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// publishedTypes returns the event types of every Publish call, in order
func (m *MockEventPublisher) publishedTypes() []string {
	var types []string
	for _, call := range m.Calls {
		if call.Method != "Publish" {
			continue
		}
		for _, e := range call.Arguments.Get(1).([]shared.DomainEvent) {
			types = append(types, e.EventType())
		}
	}
	return types
}

type registryFixture struct {
	db          *gorm.DB
	scope       *persistence.GormTransactionScope
	suppliers   *persistence.GormSupplierRepository
	orders      *persistence.GormPurchaseOrderRepository
	attachments *persistence.GormAttachmentRepository
}

func newRegistryFixture(t *testing.T) *registryFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	return &registryFixture{
		db:          db,
		scope:       persistence.NewGormTransactionScope(db),
		suppliers:   persistence.NewGormSupplierRepository(db),
		orders:      persistence.NewGormPurchaseOrderRepository(db),
		attachments: persistence.NewGormAttachmentRepository(db),
	}
}

// seedSupplier stores a supplier created at the given offset from now, so
// tests control the registry scan order.
func (f *registryFixture) seedSupplier(t *testing.T, name, taxID string, age time.Duration) *partner.Supplier {
	t.Helper()
	s := partner.NewSupplier(name, taxID, "", "", uuid.Nil)
	s.CreatedAt = time.Now().UTC().Add(-age)
	s.UpdatedAt = s.CreatedAt
	require.NoError(t, f.suppliers.Create(context.Background(), s))
	s.ClearDomainEvents()
	return s
}

func (f *registryFixture) seedOrder(t *testing.T, supplierID uuid.UUID) *trade.PurchaseOrder {
	t.Helper()
	header := trade.OrderHeader{
		Department:    "Compras",
		Location:      "Matriz",
		Kind:          "Material",
		Description:   "Papel A4",
		Justification: "Estoque baixo",
		Priority:      trade.PriorityMedium,
	}
	items := []trade.ItemInput{{Description: "Resma papel A4", Quantity: decimal.NewFromInt(10), Unit: "CX"}}
	order, _, err := trade.NewPurchaseOrder(uuid.New(), header, trade.SupplierInput{Name: "typed"}, &supplierID, items)
	require.NoError(t, err)
	require.NoError(t, f.orders.Create(context.Background(), order))
	return order
}

func (f *registryFixture) seedAttachment(t *testing.T, order *trade.PurchaseOrder) *trade.Attachment {
	t.Helper()
	a, err := trade.NewAttachment(order, trade.DocumentTypeInvoice, "", "nf-123.pdf", "application/pdf", 2048, uuid.New())
	require.NoError(t, err)
	require.NoError(t, f.attachments.Create(context.Background(), a))
	return a
}

func (f *registryFixture) liveSupplierCount(t *testing.T) int {
	t.Helper()
	live, err := f.suppliers.ListActive(context.Background())
	require.NoError(t, err)
	return len(live)
}

// faultyScope wraps a real scope and lets a test replace the supplier
// repository handed to the unit of work.
type faultyScope struct {
	inner uow.TransactionScope
	wrap  func(partner.SupplierRepository) partner.SupplierRepository
}

func (s *faultyScope) Execute(ctx context.Context, fn func(repos uow.TransactionalRepositories) error) error {
	return s.inner.Execute(ctx, func(repos uow.TransactionalRepositories) error {
		return fn(&faultyRepos{TransactionalRepositories: repos, suppliers: s.wrap(repos.Suppliers())})
	})
}

type faultyRepos struct {
	uow.TransactionalRepositories
	suppliers partner.SupplierRepository
}

func (r *faultyRepos) Suppliers() partner.SupplierRepository {
	return r.suppliers
}

// flakySupplierRepository fails the first createFailures calls to Create and
// every call to ListActive while listErr is set.
type flakySupplierRepository struct {
	partner.SupplierRepository
	createErr      error
	createFailures *int
	listErr        error
}

func (r *flakySupplierRepository) Create(ctx context.Context, s *partner.Supplier) error {
	if *r.createFailures > 0 {
		*r.createFailures--
		return r.createErr
	}
	return r.SupplierRepository.Create(ctx, s)
}

func (r *flakySupplierRepository) ListActive(ctx context.Context) ([]partner.Supplier, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.SupplierRepository.ListActive(ctx)
}

// recordingSupplierRepository records the order of locking calls
type recordingSupplierRepository struct {
	partner.SupplierRepository
	calls *[]string
}

func (r *recordingSupplierRepository) LockRegistry(ctx context.Context) error {
	*r.calls = append(*r.calls, "LockRegistry")
	return r.SupplierRepository.LockRegistry(ctx)
}

func (r *recordingSupplierRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*partner.Supplier, error) {
	*r.calls = append(*r.calls, "FindByIDForUpdate")
	return r.SupplierRepository.FindByIDForUpdate(ctx, id)
}
