package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 注文集約（Order + OrderItem）の永続化を約束。
type OrderRepository interface {
	//id/タイムスタンプを採番して返す
	Insert(ctx context.Context, order model.Order) (model.Order, error)
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	FindByUserID(ctx context.Context, userID int64) ([]model.Order, error)
	FindAll(ctx context.Context) ([]model.Order, error)
	//明細は書き換えない（注文行のみ更新）
	Update(ctx context.Context, order model.Order) (model.Order, error)
}
