package usecase

import "context"

// PaymentGateway はホスト型決済プロバイダへの窓口。
// main.goで一度だけ構築して注入する（グローバルなSDKクライアントは持たない）。
type PaymentGateway interface {
	//ゲートウェイ側に注文を作成し、そのIDを返す。
	//amountMinorUnitsは最小通貨単位（INRならpaise）。
	CreateRemoteOrder(ctx context.Context, amountMinorUnits int64, currency string, receipt string, autoCapture bool) (string, error)

	//署名検証。失敗・例外はすべてfalse（fail closed）。
	VerifySignature(remoteOrderID string, remotePaymentID string, signature string) bool
}
