package model

import "time"

// 決済ステータス遷移の履歴。遷移と同じトランザクションで追記する。
// 「どの注文が」「どこからどこへ」「なぜ」変わったかを残す。
type PaymentEvent struct {
	ID      int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID int64 `gorm:"not null;index" json:"order_id"`

	FromStatus PaymentStatus `gorm:"type:varchar(20);not null" json:"from_status"`
	ToStatus   PaymentStatus `gorm:"type:varchar(20);not null" json:"to_status"`

	//order_created / payment_retry / signature_verified / signature_mismatch
	Reason string `gorm:"type:varchar(100);not null" json:"reason"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
