package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"app/internal/domain/model"
	"app/internal/handler"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

// コールバックの応答契約をHTTPレベルで確認する。
// usecaseは本物、リポジトリとゲートウェイだけ差し替える。

type gatewayStub struct{ verify bool }

func (g gatewayStub) CreateRemoteOrder(ctx context.Context, amountMinorUnits int64, currency string, receipt string, autoCapture bool) (string, error) {
	panic("not used in callback tests")
}

func (g gatewayStub) VerifySignature(remoteOrderID, remotePaymentID, signature string) bool {
	return g.verify
}

type txStub struct{ repos repo.TxRepos }

func (s txStub) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return fn(s.repos)
}

type txReposStub struct {
	orders        repo.OrderRepository
	cartLines     repo.CartLineRepository
	paymentEvents repo.PaymentEventRepository
}

func (s txReposStub) Orders() repo.OrderRepository         { return s.orders }
func (s txReposStub) OrderItems() repo.OrderItemRepository { panic("not used in callback tests") }
func (s txReposStub) CartLines() repo.CartLineRepository   { return s.cartLines }
func (s txReposStub) Products() repo.ProductRepository     { panic("not used in callback tests") }
func (s txReposStub) PaymentEvents() repo.PaymentEventRepository {
	return s.paymentEvents
}

// FindByRemoteOrderIDForUpdate と状態更新だけ応える
type orderRepoStub struct {
	byRemoteID map[string]model.Order
	updated    map[int64]model.PaymentStatus
}

func (s *orderRepoStub) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	panic("not used in callback tests")
}

func (s *orderRepoStub) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	panic("not used in callback tests")
}

func (s *orderRepoStub) Create(ctx context.Context, order model.Order) (int64, error) {
	panic("not used in callback tests")
}

func (s *orderRepoStub) UpdateStatus(ctx context.Context, orderID int64, status model.PaymentStatus) error {
	s.updated[orderID] = status
	return nil
}

func (s *orderRepoStub) SetRemoteOrderID(ctx context.Context, orderID int64, remoteOrderID string) error {
	panic("not used in callback tests")
}

func (s *orderRepoStub) FindByRemoteOrderIDForUpdate(ctx context.Context, remoteOrderID string) (model.Order, error) {
	o, ok := s.byRemoteID[remoteOrderID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (s *orderRepoStub) FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error) {
	panic("not used in callback tests")
}

type cartRepoStub struct{ clearedUsers []int64 }

func (s *cartRepoStub) ListByUserID(ctx context.Context, userID int64) ([]model.CartLine, error) {
	panic("not used in callback tests")
}

func (s *cartRepoStub) ListByUserIDForUpdate(ctx context.Context, userID int64) ([]model.CartLine, error) {
	panic("not used in callback tests")
}

func (s *cartRepoStub) UpsertByUserAndProduct(ctx context.Context, userID int64, productID int64, addQty int64) error {
	panic("not used in callback tests")
}

func (s *cartRepoStub) UpdateQuantity(ctx context.Context, lineID int64, qty int64) error {
	panic("not used in callback tests")
}

func (s *cartRepoStub) DeleteByID(ctx context.Context, lineID int64) error {
	panic("not used in callback tests")
}

func (s *cartRepoStub) DeleteByUserID(ctx context.Context, userID int64) error {
	s.clearedUsers = append(s.clearedUsers, userID)
	return nil
}

func (s *cartRepoStub) FindByID(ctx context.Context, lineID int64) (model.CartLine, error) {
	panic("not used in callback tests")
}

type eventRepoStub struct{}

func (eventRepoStub) Create(ctx context.Context, event model.PaymentEvent) error { return nil }

func (eventRepoStub) ListByOrderID(ctx context.Context, orderID int64) ([]model.PaymentEvent, error) {
	panic("not used in callback tests")
}

func newCallbackServer(verify bool, orders *orderRepoStub, carts *cartRepoStub) *echo.Echo {
	uc := usecase.NewOrderUsecase(
		txStub{repos: txReposStub{
			orders:        orders,
			cartLines:     carts,
			paymentEvents: eventRepoStub{},
		}},
		gatewayStub{verify: verify},
		"INR",
	)

	e := echo.New()
	handler.NewPaymentHandler(uc).RegisterRoutes(e)
	return e
}

func postCallback(e *echo.Echo, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/payment/callback", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func callbackStatus(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp handler.CallbackResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Status
}

func TestPaymentCallback_Success(t *testing.T) {
	orders := &orderRepoStub{
		byRemoteID: map[string]model.Order{
			"order_rzp123": {ID: 7, UserID: 3, PaymentMethod: model.PaymentMethodRazorpay, PaymentStatus: model.PaymentStatusPending},
		},
		updated: map[int64]model.PaymentStatus{},
	}
	carts := &cartRepoStub{}
	e := newCallbackServer(true, orders, carts)

	rec := postCallback(e, `{"razorpay_order_id":"order_rzp123","razorpay_payment_id":"pay_abc","razorpay_signature":"sig"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", callbackStatus(t, rec))
	assert.Equal(t, model.PaymentStatusCompleted, orders.updated[7])
	assert.Equal(t, []int64{3}, carts.clearedUsers)
}

func TestPaymentCallback_SignatureVerificationFailed(t *testing.T) {
	orders := &orderRepoStub{
		byRemoteID: map[string]model.Order{
			"order_rzp123": {ID: 7, UserID: 3, PaymentMethod: model.PaymentMethodRazorpay, PaymentStatus: model.PaymentStatusPending},
		},
		updated: map[int64]model.PaymentStatus{},
	}
	carts := &cartRepoStub{}
	e := newCallbackServer(false, orders, carts)

	rec := postCallback(e, `{"razorpay_order_id":"order_rzp123","razorpay_payment_id":"pay_abc","razorpay_signature":"bad"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "signature_verification_failed", callbackStatus(t, rec))
	assert.Equal(t, model.PaymentStatusFailed, orders.updated[7])
	assert.Empty(t, carts.clearedUsers)
}

func TestPaymentCallback_OrderNotFound(t *testing.T) {
	orders := &orderRepoStub{byRemoteID: map[string]model.Order{}, updated: map[int64]model.PaymentStatus{}}
	e := newCallbackServer(true, orders, &cartRepoStub{})

	rec := postCallback(e, `{"razorpay_order_id":"order_unknown","razorpay_payment_id":"pay_abc","razorpay_signature":"sig"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "order_not_found", callbackStatus(t, rec))
}

func TestPaymentCallback_InvalidRequest(t *testing.T) {
	orders := &orderRepoStub{byRemoteID: map[string]model.Order{}, updated: map[int64]model.PaymentStatus{}}
	e := newCallbackServer(true, orders, &cartRepoStub{})

	//署名欠落
	rec := postCallback(e, `{"razorpay_order_id":"order_rzp123","razorpay_payment_id":"pay_abc"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", callbackStatus(t, rec))

	//壊れたJSON
	rec = postCallback(e, `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", callbackStatus(t, rec))
}
