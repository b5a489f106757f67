package repository

import (
	"context"

	"app/internal/domain/model"

	"gorm.io/gorm"
)

type PaymentEventGormRepository struct {
	db *gorm.DB
}

func NewPaymentEventGormRepository(db *gorm.DB) *PaymentEventGormRepository {
	return &PaymentEventGormRepository{db: db}
}

func (r *PaymentEventGormRepository) Create(ctx context.Context, event model.PaymentEvent) error {
	return r.db.WithContext(ctx).Create(&event).Error
}

func (r *PaymentEventGormRepository) ListByOrderID(ctx context.Context, orderID int64) ([]model.PaymentEvent, error) {
	var events []model.PaymentEvent
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id asc").Find(&events).Error
	if err != nil {
		return []model.PaymentEvent{}, err
	}
	return events, nil
}
