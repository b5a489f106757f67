package repository

import (
	"context"

	repo "app/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	orders        repo.OrderRepository
	orderItems    repo.OrderItemRepository
	cartLines     repo.CartLineRepository
	products      repo.ProductRepository
	paymentEvents repo.PaymentEventRepository
}

func (r *txReposGorm) Orders() repo.OrderRepository               { return r.orders }
func (r *txReposGorm) OrderItems() repo.OrderItemRepository       { return r.orderItems }
func (r *txReposGorm) CartLines() repo.CartLineRepository         { return r.cartLines }
func (r *txReposGorm) Products() repo.ProductRepository           { return r.products }
func (r *txReposGorm) PaymentEvents() repo.PaymentEventRepository { return r.paymentEvents }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			orders:        NewOrderGormRepository(tx),
			orderItems:    NewOrderItemGormRepository(tx),
			cartLines:     NewCartLineGormRepository(tx),
			products:      NewProductGormRepository(tx),
			paymentEvents: NewPaymentEventGormRepository(tx),
		}
		return fn(r)
	})
}
