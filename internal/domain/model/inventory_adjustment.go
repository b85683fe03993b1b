package model

import "time"

//在庫調整の履歴

type InventoryAdjustment struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID  int64     `gorm:"not null;index" json:"product_id"`
	Delta      int64     `gorm:"not null" json:"delta"`
	StockAfter int64     `gorm:"not null" json:"stock_after"`
	Reason     string    `gorm:"type:varchar(255);not null" json:"reason"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

const (
	AdjustmentReasonOrderPlaced    = "order placed"
	AdjustmentReasonOrderCancelled = "order cancelled"
	AdjustmentReasonManual         = "manual"
	AdjustmentReasonInitialStock   = "initial stock"
)

// 符号から理由を決める（負=予約、正=戻し）
func AdjustmentReasonForDelta(delta int64) string {
	switch {
	case delta < 0:
		return AdjustmentReasonOrderPlaced
	case delta > 0:
		return AdjustmentReasonOrderCancelled
	default:
		return AdjustmentReasonManual
	}
}
