package repository

import (
	"context"

	"app/internal/domain/model"
)

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) (int64, error)
	UpdateStatus(ctx context.Context, orderID int64, status model.PaymentStatus) error

	//ゲートウェイ側注文IDの保存（リトライ時は上書き）
	SetRemoteOrderID(ctx context.Context, orderID int64, remoteOrderID string) error

	//コールバック処理用。行ロック付きで取得する。
	FindByRemoteOrderIDForUpdate(ctx context.Context, remoteOrderID string) (model.Order, error)

	//検索（同じキーなら同じ結果を返す）
	FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error)
}
