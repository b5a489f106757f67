package repository

import (
	"app/internal/domain/model"
	"context"
)

type CartLineRepository interface {
	ListByUserID(ctx context.Context, userID int64) ([]model.CartLine, error)
	//チェックアウト用。行ロック付きで取得する。
	ListByUserIDForUpdate(ctx context.Context, userID int64) ([]model.CartLine, error)
	// 同一商品はプラス
	UpsertByUserAndProduct(ctx context.Context, userID int64, productID int64, addQty int64) error
	UpdateQuantity(ctx context.Context, lineID int64, qty int64) error
	DeleteByID(ctx context.Context, lineID int64) error
	//ユーザーの明細を全削除（注文確定・決済完了時）
	DeleteByUserID(ctx context.Context, userID int64) error
	FindByID(ctx context.Context, lineID int64) (model.CartLine, error)
}
