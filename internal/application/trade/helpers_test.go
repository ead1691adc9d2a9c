package trade

import (
	"context"
	"sync"
	"testing"
	"time"

	partnerapp "github.com/Z3RO333/formularios/internal/application/partner"
	"github.com/Z3RO333/formularios/internal/domain/shared"
	"github.com/Z3RO333/formularios/internal/infrastructure/persistence"
	"github.com/Z3RO333/formularios/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
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

type orderFixture struct {
	db        *gorm.DB
	scope     *persistence.GormTransactionScope
	resolver  *partnerapp.SupplierResolver
	orders    *OrderService
	lifecycle *LifecycleService
	publisher *MockEventPublisher
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	scope := persistence.NewGormTransactionScope(db)
	resolver := partnerapp.NewSupplierResolver(scope, partnerapp.DefaultResolverConfig(), zap.NewNop())

	publisher := new(MockEventPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	orders := NewOrderService(scope, resolver, zap.NewNop())
	orders.SetEventPublisher(publisher)
	lifecycle := NewLifecycleService(scope, zap.NewNop())
	lifecycle.SetEventPublisher(publisher)

	return &orderFixture{
		db:        db,
		scope:     scope,
		resolver:  resolver,
		orders:    orders,
		lifecycle: lifecycle,
		publisher: publisher,
	}
}

func validCreateRequest() CreateOrderRequest {
	price := decimal.RequireFromString("25.50")
	return CreateOrderRequest{
		Department:    "Financeiro",
		Location:      "Matriz",
		Kind:          "Material de escritório",
		Description:   "Reposição de papel",
		Justification: "Estoque abaixo do mínimo",
		Priority:      "alta",
		Supplier:      SupplierInput{Name: "Papelaria Central Ltda", TaxID: "11.222.333/0001-81", Email: "vendas@central.com.br"},
		Items: []OrderItemInput{
			{Description: "Resma papel A4", Quantity: decimal.NewFromInt(10), Unit: "CX", EstimatedUnitPrice: &price},
			{Description: "Caneta azul", Quantity: decimal.NewFromInt(50)},
			{Description: "Grampeador", Quantity: decimal.NewFromInt(2), Note: "modelo grande"},
		},
	}
}

// updateFrom turns a stored order back into an update request that keeps
// every item by id.
func updateFrom(o *OrderResponse) UpdateOrderRequest {
	req := UpdateOrderRequest{
		Department:    o.Department,
		Location:      o.Location,
		Kind:          o.Kind,
		Description:   o.Description,
		Justification: o.Justification,
		Priority:      o.Priority,
		Supplier:      SupplierInput{Name: o.SupplierName, TaxID: o.SupplierTaxID, Email: o.SupplierEmail},
	}
	for _, it := range o.Items {
		id := it.ID
		req.Items = append(req.Items, OrderItemInput{
			ID:                 &id,
			Description:        it.Description,
			Quantity:           it.Quantity,
			Unit:               it.Unit,
			EstimatedUnitPrice: it.EstimatedUnitPrice,
			Note:               it.Note,
		})
	}
	return req
}

func (f *orderFixture) create(t *testing.T) *OrderResponse {
	t.Helper()
	resp, err := f.orders.Create(context.Background(), uuid.New(), validCreateRequest())
	require.NoError(t, err)
	return resp
}

func (f *orderFixture) load(t *testing.T, id uuid.UUID) *OrderResponse {
	t.Helper()
	resp, err := f.orders.Get(context.Background(), id)
	require.NoError(t, err)
	return resp
}

func itemIDs(items []OrderItemResponse) []uuid.UUID {
	ids := make([]uuid.UUID, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

// memoryGuard is a SubmissionGuard over a map
type memoryGuard struct {
	mu       sync.Mutex
	keys     map[string]time.Time
	claimErr error
}

func newMemoryGuard() *memoryGuard {
	return &memoryGuard{keys: make(map[string]time.Time)}
}

func (g *memoryGuard) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.claimErr != nil {
		return false, g.claimErr
	}
	if exp, ok := g.keys[key]; ok && time.Now().Before(exp) {
		return false, nil
	}
	g.keys[key] = time.Now().Add(ttl)
	return true, nil
}

func (g *memoryGuard) Release(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.keys, key)
	return nil
}

func (g *memoryGuard) Close() error { return nil }

// memoryStorage is an ObjectStorageService over a map
type memoryStorage struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploadErr error
	urlErr    error
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: make(map[string][]byte)}
}

func (s *memoryStorage) Upload(_ context.Context, key string, data []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadErr != nil {
		return s.uploadErr
	}
	s.objects[key] = append([]byte(nil), data...)
	return nil
}

func (s *memoryStorage) GenerateDownloadURL(_ context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	if s.urlErr != nil {
		return "", time.Time{}, s.urlErr
	}
	return "memory://" + key, time.Now().Add(expiresIn), nil
}

func (s *memoryStorage) DeleteObject(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *memoryStorage) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

func (s *memoryStorage) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

var _ shared.SubmissionGuard = (*memoryGuard)(nil)
var _ ObjectStorageService = (*memoryStorage)(nil)
