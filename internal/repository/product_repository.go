package repository

import (
	"app/internal/domain/model"
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// 一覧検索
type ProductListQuery struct {
	Page       int
	Limit      int
	CategoryID *int64
}

// 商品の取得だけを約束。注文フローからは読み取り専用。
type ProductRepository interface {
	List(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)
	//同カテゴリの関連商品（自分自身は除く）
	ListRelated(ctx context.Context, categoryID int64, excludeID int64, limit int) ([]model.Product, error)
}

type CategoryRepository interface {
	ListAll(ctx context.Context) ([]model.Category, error)
	FindBySlug(ctx context.Context, slug string) (model.Category, error)
}
