package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文時点の商品名・単価を持つ（後から商品価格が変わっても変えない）
type OrderItem struct {
	ID                  int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID             int64           `gorm:"not null;index" json:"order_id"`
	ProductID           int64           `gorm:"not null;index" json:"product_id"`
	ProductNameSnapshot string          `gorm:"type:varchar(255);not null" json:"product_name_snapshot"`
	UnitPriceSnapshot   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price_snapshot"`
	Quantity            int64           `gorm:"not null" json:"quantity"`
	Subtotal            decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	CreatedAt           time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}

func NewOrderItem(p ProductSnapshot, quantity int64) OrderItem {
	return OrderItem{
		ProductID:           p.ID,
		ProductNameSnapshot: p.Name,
		UnitPriceSnapshot:   p.UnitPrice,
		Quantity:            quantity,
		Subtotal:            p.UnitPrice.Mul(decimal.NewFromInt(quantity)),
	}
}
