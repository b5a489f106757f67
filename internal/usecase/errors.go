package usecase

import (
	"errors"
	"fmt"
)

// 状態や外部要因の失敗はsentinelで区別する。
// handler側でHTTPステータスに変換する。
var (
	//カートが空のままチェックアウトした（400）
	ErrEmptyCart = errors.New("cart empty")
	//ゲートウェイ呼び出し失敗。注文はPENDINGのまま、リトライ可（502）
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	//コールバックのremote order idに一致する注文が無い（404）
	ErrOrderNotFound = errors.New("order not found")
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}
