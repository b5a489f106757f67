package handler

import (
	"errors"
	"net/http"

	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 決済ゲートウェイからの非同期通知を受ける。
// 認証なしの公開エンドポイント。正当性は署名検証で担保する。
type PaymentHandler struct {
	uc *usecase.OrderUsecase
}

func NewPaymentHandler(uc *usecase.OrderUsecase) *PaymentHandler {
	return &PaymentHandler{uc: uc}
}

type PaymentCallbackRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}

// コールバックの応答契約
type CallbackResponse struct {
	Status string `json:"status"`
}

func (h *PaymentHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/payment/callback", h.callback)
}

func (h *PaymentHandler) callback(c echo.Context) error {
	var req PaymentCallbackRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, CallbackResponse{Status: "invalid_request"})
	}
	if req.RazorpayOrderID == "" || req.RazorpayPaymentID == "" || req.RazorpaySignature == "" {
		return c.JSON(http.StatusBadRequest, CallbackResponse{Status: "invalid_request"})
	}

	out, err := h.uc.ConfirmPayment(c.Request().Context(), usecase.ConfirmPaymentInput{
		RemoteOrderID:   req.RazorpayOrderID,
		RemotePaymentID: req.RazorpayPaymentID,
		Signature:       req.RazorpaySignature,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, CallbackResponse{Status: "order_not_found"})
		}
		return c.JSON(http.StatusInternalServerError, CallbackResponse{Status: "error"})
	}

	if !out.Verified {
		//署名不一致は正常系の結果。詳細は返さない。
		return c.JSON(http.StatusBadRequest, CallbackResponse{Status: "signature_verification_failed"})
	}

	return c.JSON(http.StatusOK, CallbackResponse{Status: "success"})
}
