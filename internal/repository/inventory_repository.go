package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
)

// 在庫がマイナスになる調整
var ErrInsufficientStock = errors.New("insufficient stock")

// InsufficientStockError は拒否した調整の在庫と要求量を持つ。
type InsufficientStockError struct {
	ProductID int64
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return ErrInsufficientStock.Error()
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

type InventoryRepository interface {
	// 在庫に delta を加算（0未満になるなら拒否）し、履歴も残す
	ApplyDelta(ctx context.Context, productID int64, delta int64, reason string) (model.Product, error)

	// 調整履歴
	ListAdjustments(ctx context.Context, productID int64) ([]model.InventoryAdjustment, error)
}
