package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, srv *httptest.Server) *RazorpayClient {
	t.Helper()
	c := NewRazorpayClient("rzp_test_key", "rzp_test_secret", zap.NewNop())
	c.baseURL = srv.URL
	return c
}

func TestCreateRemoteOrder_Success(t *testing.T) {
	var got map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "rzp_test_secret", pass)

		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]string{"id": "order_rzp123"})
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	id, err := c.CreateRemoteOrder(context.Background(), 2500, "INR", "order_7", true)

	assert.NoError(t, err)
	assert.Equal(t, "order_rzp123", id)

	//金額は最小通貨単位のまま送る
	assert.Equal(t, float64(2500), got["amount"])
	assert.Equal(t, "INR", got["currency"])
	assert.Equal(t, "order_7", got["receipt"])
	assert.Equal(t, float64(1), got["payment_capture"])
}

func TestCreateRemoteOrder_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.CreateRemoteOrder(context.Background(), 2500, "INR", "order_7", true)

	assert.Error(t, err)
}

func TestCreateRemoteOrder_APIErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"code": "BAD_REQUEST_ERROR", "description": "amount invalid"},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.CreateRemoteOrder(context.Background(), 2500, "INR", "order_7", true)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "BAD_REQUEST_ERROR")
}

func TestCreateRemoteOrder_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() //先に閉じて接続失敗させる

	c := newTestClient(t, srv)
	_, err := c.CreateRemoteOrder(context.Background(), 2500, "INR", "order_7", true)

	assert.Error(t, err)
}

func signPayload(secret string, orderID string, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	c := NewRazorpayClient("rzp_test_key", "rzp_test_secret", zap.NewNop())

	good := signPayload("rzp_test_secret", "order_rzp123", "pay_abc")

	assert.True(t, c.VerifySignature("order_rzp123", "pay_abc", good))

	//改ざん
	assert.False(t, c.VerifySignature("order_rzp123", "pay_abc", good[:len(good)-1]+"g"))
	assert.False(t, c.VerifySignature("order_other", "pay_abc", good))

	//別の鍵で署名
	other := signPayload("other_secret", "order_rzp123", "pay_abc")
	assert.False(t, c.VerifySignature("order_rzp123", "pay_abc", other))

	//空入力はすべてfalse
	assert.False(t, c.VerifySignature("", "pay_abc", good))
	assert.False(t, c.VerifySignature("order_rzp123", "", good))
	assert.False(t, c.VerifySignature("order_rzp123", "pay_abc", ""))
}
