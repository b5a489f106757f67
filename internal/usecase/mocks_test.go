package usecase_test

import (
	"context"
	"testing"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// ---- TransactionManager ----

type TxManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	m.Called(ctx)
	return fn(m.Repos)
}

type TxReposMock struct {
	orders        repo.OrderRepository
	orderItems    repo.OrderItemRepository
	cartLines     repo.CartLineRepository
	products      repo.ProductRepository
	paymentEvents repo.PaymentEventRepository
}

func (r *TxReposMock) Orders() repo.OrderRepository              { return r.orders }
func (r *TxReposMock) OrderItems() repo.OrderItemRepository      { return r.orderItems }
func (r *TxReposMock) CartLines() repo.CartLineRepository        { return r.cartLines }
func (r *TxReposMock) Products() repo.ProductRepository          { return r.products }
func (r *TxReposMock) PaymentEvents() repo.PaymentEventRepository { return r.paymentEvents }

// ---- OrderRepository ----

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(model.Order), args.Error(1)
}

func (m *OrderRepoMock) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	args := m.Called(ctx, userID, page, limit)
	return args.Get(0).([]model.Order), args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepoMock) Create(ctx context.Context, order model.Order) (int64, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OrderRepoMock) UpdateStatus(ctx context.Context, orderID int64, status model.PaymentStatus) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

func (m *OrderRepoMock) SetRemoteOrderID(ctx context.Context, orderID int64, remoteOrderID string) error {
	args := m.Called(ctx, orderID, remoteOrderID)
	return args.Error(0)
}

func (m *OrderRepoMock) FindByRemoteOrderIDForUpdate(ctx context.Context, remoteOrderID string) (model.Order, error) {
	args := m.Called(ctx, remoteOrderID)
	return args.Get(0).(model.Order), args.Error(1)
}

func (m *OrderRepoMock) FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error) {
	args := m.Called(ctx, userID, key)
	return args.Get(0).(model.Order), args.Bool(1), args.Error(2)
}

// ---- OrderItemRepository ----

type OrderItemRepoMock struct{ mock.Mock }

func (m *OrderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *OrderItemRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).([]model.OrderItem), args.Error(1)
}

// ---- CartLineRepository ----

type CartLineRepoMock struct{ mock.Mock }

func (m *CartLineRepoMock) ListByUserID(ctx context.Context, userID int64) ([]model.CartLine, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]model.CartLine), args.Error(1)
}

func (m *CartLineRepoMock) ListByUserIDForUpdate(ctx context.Context, userID int64) ([]model.CartLine, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]model.CartLine), args.Error(1)
}

func (m *CartLineRepoMock) UpsertByUserAndProduct(ctx context.Context, userID int64, productID int64, addQty int64) error {
	args := m.Called(ctx, userID, productID, addQty)
	return args.Error(0)
}

func (m *CartLineRepoMock) UpdateQuantity(ctx context.Context, lineID int64, qty int64) error {
	args := m.Called(ctx, lineID, qty)
	return args.Error(0)
}

func (m *CartLineRepoMock) DeleteByID(ctx context.Context, lineID int64) error {
	args := m.Called(ctx, lineID)
	return args.Error(0)
}

func (m *CartLineRepoMock) DeleteByUserID(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *CartLineRepoMock) FindByID(ctx context.Context, lineID int64) (model.CartLine, error) {
	args := m.Called(ctx, lineID)
	return args.Get(0).(model.CartLine), args.Error(1)
}

// ---- ProductRepository ----

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]model.Product), args.Get(1).(int64), args.Error(2)
}

func (m *ProductRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Product), args.Error(1)
}

func (m *ProductRepoMock) ListRelated(ctx context.Context, categoryID int64, excludeID int64, limit int) ([]model.Product, error) {
	args := m.Called(ctx, categoryID, excludeID, limit)
	return args.Get(0).([]model.Product), args.Error(1)
}

// ---- CategoryRepository ----

type CategoryRepoMock struct{ mock.Mock }

func (m *CategoryRepoMock) ListAll(ctx context.Context) ([]model.Category, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.Category), args.Error(1)
}

func (m *CategoryRepoMock) FindBySlug(ctx context.Context, slug string) (model.Category, error) {
	args := m.Called(ctx, slug)
	return args.Get(0).(model.Category), args.Error(1)
}

// ---- PaymentEventRepository ----

type PaymentEventRepoMock struct{ mock.Mock }

func (m *PaymentEventRepoMock) Create(ctx context.Context, event model.PaymentEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *PaymentEventRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.PaymentEvent, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).([]model.PaymentEvent), args.Error(1)
}

// ---- PaymentGateway ----

type GatewayMock struct{ mock.Mock }

func (m *GatewayMock) CreateRemoteOrder(ctx context.Context, amountMinorUnits int64, currency string, receipt string, autoCapture bool) (string, error) {
	args := m.Called(ctx, amountMinorUnits, currency, receipt, autoCapture)
	return args.String(0), args.Error(1)
}

func (m *GatewayMock) VerifySignature(remoteOrderID, remotePaymentID, signature string) bool {
	args := m.Called(remoteOrderID, remotePaymentID, signature)
	return args.Bool(0)
}

// ---- UserRepository ----

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepoMock) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	args := m.Called(ctx, userID)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

// ---- helpers ----

func assertErrContains(t *testing.T, err error, substr string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), substr)
	}
}
