package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"app/internal/metrics"

	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://api.razorpay.com/v1"
	requestTimeout = 10 * time.Second
)

// RazorpayClient は usecase.PaymentGateway のRazorpay実装。
// main.goで一度だけ構築して注入する。
type RazorpayClient struct {
	keyID     string
	keySecret string
	baseURL   string
	client    *http.Client
	log       *zap.Logger
}

func NewRazorpayClient(keyID string, keySecret string, log *zap.Logger) *RazorpayClient {
	return &RazorpayClient{
		keyID:     keyID,
		keySecret: keySecret,
		baseURL:   defaultBaseURL,
		client:    &http.Client{Timeout: requestTimeout},
		log:       log,
	}
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"` //最小通貨単位
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	//1なら即時キャプチャ
	PaymentCapture int `json:"payment_capture"`
}

type createOrderResponse struct {
	ID    string `json:"id"`
	Error *struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error,omitempty"`
}

// CreateRemoteOrder はゲートウェイ側に注文を作成してIDを返す。
// ネットワーク・HTTP・デコード失敗はすべてエラー（呼び出し側でGatewayUnavailable扱い）。
func (r *RazorpayClient) CreateRemoteOrder(ctx context.Context, amountMinorUnits int64, currency string, receipt string, autoCapture bool) (string, error) {
	capture := 0
	if autoCapture {
		capture = 1
	}

	payload, err := json.Marshal(createOrderRequest{
		Amount:         amountMinorUnits,
		Currency:       currency,
		Receipt:        receipt,
		PaymentCapture: capture,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/orders", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(r.keyID, r.keySecret)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		metrics.GatewayRequests.WithLabelValues("network_error").Inc()
		r.log.Warn("razorpay order create failed", zap.Error(err))
		return "", fmt.Errorf("razorpay unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.GatewayRequests.WithLabelValues("network_error").Inc()
		return "", fmt.Errorf("razorpay response read: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		metrics.GatewayRequests.WithLabelValues("http_error").Inc()
		r.log.Warn("razorpay order create rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("receipt", receipt),
		)
		return "", fmt.Errorf("razorpay API error (%d)", resp.StatusCode)
	}

	var out createOrderResponse
	if err := json.Unmarshal(body, &out); err != nil {
		metrics.GatewayRequests.WithLabelValues("decode_error").Inc()
		return "", fmt.Errorf("razorpay response parse: %w", err)
	}
	if out.Error != nil {
		metrics.GatewayRequests.WithLabelValues("api_error").Inc()
		return "", fmt.Errorf("razorpay error: %s", out.Error.Code)
	}
	if out.ID == "" {
		metrics.GatewayRequests.WithLabelValues("api_error").Inc()
		return "", fmt.Errorf("razorpay returned empty order id")
	}

	metrics.GatewayRequests.WithLabelValues("ok").Inc()
	return out.ID, nil
}

// VerifySignature は署名を検証する。
// 期待値は HMAC-SHA256(remoteOrderID + "|" + remotePaymentID, keySecret) のhex。
// 入力不備や不一致はすべてfalse（fail closed）、エラーは外に出さない。
func (r *RazorpayClient) VerifySignature(remoteOrderID string, remotePaymentID string, signature string) bool {
	if remoteOrderID == "" || remotePaymentID == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(r.keySecret))
	mac.Write([]byte(remoteOrderID + "|" + remotePaymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	//タイミング攻撃対策で定数時間比較
	return hmac.Equal([]byte(expected), []byte(signature))
}
