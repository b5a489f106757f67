package model

import "time"

type PaymentMethod string

const (
	//代金引換。オンライン決済なし、注文は即CONFIRMED。
	PaymentMethodCOD PaymentMethod = "COD"
	//Razorpay経由のオンライン決済。
	PaymentMethodRazorpay PaymentMethod = "RAZORPAY"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusConfirmed PaymentStatus = "CONFIRMED"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// TotalAmount は作成時に確定し、以後再計算しない。
// RemoteOrderID は決済ゲートウェイ側の注文ID（CODならnull）。
type Order struct {
	ID             int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         int64         `gorm:"not null;index" json:"user_id"`
	TotalAmount    int64         `gorm:"not null" json:"total_amount"`
	PaymentMethod  PaymentMethod `gorm:"type:varchar(20);not null" json:"payment_method"`
	PaymentStatus  PaymentStatus `gorm:"type:varchar(20);not null;index" json:"payment_status"`
	RemoteOrderID  *string       `gorm:"type:varchar(100);uniqueIndex" json:"remote_order_id,omitempty"`
	IdempotencyKey string        `gorm:"type:varchar(255);not null;uniqueIndex" json:"-"`
	CreatedAt      time.Time     `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
