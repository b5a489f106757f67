package model

import "time"

// 金額は最小通貨単位のint64（例: 10.00 → 1000）。
type Product struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string `gorm:"type:varchar(200);not null" json:"title"`
	Price       int64  `gorm:"not null" json:"price"`
	Description string `gorm:"type:text" json:"description"`
	CategoryID  int64  `gorm:"not null;index" json:"category_id"`
	ImageURL    string `gorm:"type:varchar(500)" json:"image_url"`

	//外部カタログ由来の商品ID（手動登録ならnull）
	SourceID *int64 `gorm:"uniqueIndex" json:"source_id,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
