package usecase

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

// SetOrderStatus はステータスを変更する（CANCELLED なら在庫戻し）
// 終端（DELIVERED / CANCELLED）以外からはどのステータスにも変更できる。
func (u *OrderUsecase) SetOrderStatus(ctx context.Context, orderID int64, status string) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, validationError("invalid id")
	}
	requested, err := model.ParseOrderStatus(status)
	if err != nil {
		return OrderOutput{}, validationError("invalid status")
	}

	// 注文取得
	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return OrderOutput{}, notFoundError(fmt.Sprintf("order not found: %d", orderID))
	}
	if err != nil {
		return OrderOutput{}, dbError(err)
	}

	// 終端ガード
	previous := o.Status
	next, err := model.Transition(previous, requested)
	if err != nil {
		return OrderOutput{}, invalidTransitionError(previous, requested)
	}

	if next == model.OrderStatusCancelled {
		if err := u.restoreStock(ctx, o); err != nil {
			return OrderOutput{}, err
		}
	}

	o.Status = next
	updated, err := u.orders.Update(ctx, o)
	if errors.Is(err, repo.ErrNotFound) {
		return OrderOutput{}, notFoundError(fmt.Sprintf("order not found: %d", orderID))
	}
	if err != nil {
		return OrderOutput{}, dbError(err)
	}
	u.log.Info("order status changed",
		zap.Int64("order_id", orderID),
		zap.String("from", string(previous)),
		zap.String("to", string(next)),
	)

	//監査ログ（失敗してもステータス変更は成功のまま）
	if u.audit != nil {
		if err := u.audit.Create(ctx, model.AuditLog{
			Action:       model.AuditActionUpdateOrderStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   `{"status":"` + string(previous) + `"}`,
			AfterJSON:    `{"status":"` + string(next) + `"}`,
			RequestID:    RequestIDFrom(ctx),
			CreatedAt:    u.now(),
		}); err != nil {
			u.log.Warn("audit log not written", zap.Int64("order_id", orderID), zap.Error(err))
		}
	}

	u.publish(ctx, OrderEvent{
		Type:           OrderEventStatusChanged,
		OrderID:        updated.ID,
		UserID:         updated.UserID,
		Status:         updated.Status,
		PreviousStatus: previous,
		TotalAmount:    model.NewMoney(updated.TotalAmount),
	})

	return toOrderOutput(updated, u.lookupUser(ctx, updated.UserID)), nil
}

// 在庫戻し。途中で失敗したら戻した分はそのまま（ステータスは変えない）
func (u *OrderUsecase) restoreStock(ctx context.Context, o model.Order) error {
	restored := make([]int64, 0, len(o.Items))
	for _, it := range o.Items {
		if _, err := u.catalog.AdjustStock(ctx, it.ProductID, it.Quantity); err != nil {
			if len(restored) > 0 {
				u.log.Error("order cancellation failed after stock was partially restored",
					zap.Int64("order_id", o.ID),
					zap.Int64s("restored_product_ids", restored),
					zap.Error(err),
				)
			}
			return adjustmentError(it.ProductID, err)
		}
		restored = append(restored, it.ProductID)
		u.log.Info("stock restored", zap.Int64("product_id", it.ProductID), zap.Int64("quantity", it.Quantity))
	}
	return nil
}

// ListStatusHistory はステータス変更の監査ログ（新しい順）
func (u *OrderUsecase) ListStatusHistory(ctx context.Context, orderID int64, limit, offset int) ([]model.AuditLog, error) {
	if orderID <= 0 {
		return []model.AuditLog{}, validationError("invalid id")
	}
	if _, err := u.orders.FindByID(ctx, orderID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return []model.AuditLog{}, notFoundError(fmt.Sprintf("order not found: %d", orderID))
		}
		return []model.AuditLog{}, dbError(err)
	}

	logs, err := u.audit.ListByResource(ctx, model.AuditResourceOrder, orderID, repo.Page{Limit: limit, Offset: offset})
	if err != nil {
		return []model.AuditLog{}, dbError(err)
	}
	return logs, nil
}
