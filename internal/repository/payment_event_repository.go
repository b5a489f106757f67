package repository

import (
	"context"

	"app/internal/domain/model"
)

// 決済遷移の履歴。遷移と同じトランザクションで書く。
type PaymentEventRepository interface {
	Create(ctx context.Context, event model.PaymentEvent) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.PaymentEvent, error)
}
