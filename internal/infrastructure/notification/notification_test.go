package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Z3RO333/formularios/internal/domain/partner"
	"github.com/Z3RO333/formularios/internal/domain/trade"
	"github.com/Z3RO333/formularios/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, n *DecisionNotification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNotifier) Close() error { return nil }

func pendingOrder(t *testing.T) *trade.PurchaseOrder {
	t.Helper()
	order, _, err := trade.NewPurchaseOrder(uuid.New(),
		trade.OrderHeader{
			Department:    "TI",
			Location:      "Filial Norte",
			Kind:          "Equipamento",
			Description:   "Notebook para novo colaborador",
			Justification: "Contratação aprovada",
			Priority:      trade.PriorityMedium,
		},
		trade.SupplierInput{}, nil,
		[]trade.ItemInput{{Description: "Notebook 14\"", Quantity: decimal.NewFromInt(1)}},
	)
	require.NoError(t, err)
	return order
}

func TestDecisionHandler_Approved(t *testing.T) {
	order := pendingOrder(t)
	approver := uuid.New()
	at := time.Date(2025, 4, 2, 15, 30, 0, 0, time.UTC)
	_, err := order.Approve(approver, "", at)
	require.NoError(t, err)

	notifier := new(MockNotifier)
	notifier.On("Notify", mock.Anything, mock.MatchedBy(func(n *DecisionNotification) bool {
		return n.OrderID == order.ID.String() &&
			n.Status == string(trade.OrderStatusApproved) &&
			n.DecidedBy == approver.String() &&
			n.RequesterID == order.RequesterID.String() &&
			n.DecidedAt == "2025-04-02T15:30:00Z"
	})).Return(nil)

	h := NewDecisionHandler(notifier, zap.NewNop())
	require.NoError(t, h.Handle(context.Background(), trade.NewOrderApprovedEvent(order, trade.DefaultApprovalNote)))
	notifier.AssertExpectations(t)
}

func TestDecisionHandler_RejectedCarriesReason(t *testing.T) {
	order := pendingOrder(t)
	_, err := order.Reject(uuid.New(), "Orçamento acima do limite", time.Now())
	require.NoError(t, err)

	notifier := new(MockNotifier)
	notifier.On("Notify", mock.Anything, mock.MatchedBy(func(n *DecisionNotification) bool {
		return n.Status == string(trade.OrderStatusRejected) && n.Note == "Orçamento acima do limite"
	})).Return(nil)

	require.NoError(t, NewDecisionHandler(notifier, zap.NewNop()).Handle(context.Background(), trade.NewOrderRejectedEvent(order)))
	notifier.AssertExpectations(t)
}

func TestDecisionHandler_NotifierFailure(t *testing.T) {
	order := pendingOrder(t)
	_, err := order.Approve(uuid.New(), "", time.Now())
	require.NoError(t, err)

	notifier := new(MockNotifier)
	notifier.On("Notify", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

	err = NewDecisionHandler(notifier, zap.NewNop()).Handle(context.Background(), trade.NewOrderApprovedEvent(order, ""))
	assert.ErrorContains(t, err, "connection reset")
}

func TestDecisionHandler_IgnoresOtherEvents(t *testing.T) {
	notifier := new(MockNotifier)
	supplier := partner.NewSupplier("Acme", "", "", "", uuid.Nil)

	err := NewDecisionHandler(notifier, zap.NewNop()).Handle(context.Background(), partner.NewSupplierCreatedEvent(supplier, uuid.Nil))
	assert.NoError(t, err)
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestDecisionHandler_EventTypes(t *testing.T) {
	h := NewDecisionHandler(new(MockNotifier), zap.NewNop())
	assert.ElementsMatch(t, []string{trade.EventTypeOrderApproved, trade.EventTypeOrderRejected}, h.EventTypes())
}

func TestLogNotifier_Notify(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	n := NewLogNotifier(zap.New(core))

	require.NoError(t, n.Notify(context.Background(), &DecisionNotification{OrderID: "o-1", Status: "APPROVED"}))

	entries := logs.FilterMessage("order decision").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "o-1", entries[0].ContextMap()["order_id"])
	assert.NoError(t, n.Close())
}

func TestNewNotifier(t *testing.T) {
	ctx := context.Background()

	assert.Nil(t, NewNotifier(ctx, config.NotificationConfig{Enabled: false}, config.RedisConfig{}, zap.NewNop()))

	n := NewNotifier(ctx, config.NotificationConfig{Enabled: true}, config.RedisConfig{Enabled: false}, zap.NewNop())
	assert.IsType(t, &LogNotifier{}, n)

	n = NewNotifier(ctx, config.NotificationConfig{Enabled: true, Channel: "x"}, config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}, zap.NewNop())
	assert.IsType(t, &LogNotifier{}, n, "unreachable Redis falls back to the log")
}

func TestNewRedisNotifierWithClient_DefaultChannel(t *testing.T) {
	n := NewRedisNotifierWithClient(nil, "")
	assert.Equal(t, DefaultChannel, n.Channel())
	assert.NoError(t, n.Close())
}
