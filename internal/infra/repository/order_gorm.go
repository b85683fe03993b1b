package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

// 明細は作成順（id asc）で読む
func withItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("id asc")
	})
}

// 注文と明細を一度に作成
func (r *OrderGormRepository) Insert(ctx context.Context, order model.Order) (model.Order, error) {
	order.ID = 0
	for i := range order.Items {
		order.Items[i].ID = 0
		order.Items[i].OrderID = 0
	}
	if err := r.db.WithContext(ctx).Create(&order).Error; err != nil {
		return model.Order{}, err
	}
	return order, nil
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	err := withItems(r.db.WithContext(ctx)).Where("id = ?", orderID).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (r *OrderGormRepository) FindByUserID(ctx context.Context, userID int64) ([]model.Order, error) {
	var orders []model.Order
	err := withItems(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("id asc").
		Find(&orders).Error
	if err != nil {
		return []model.Order{}, err
	}
	return orders, nil
}

func (r *OrderGormRepository) FindAll(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	if err := withItems(r.db.WithContext(ctx)).Order("id asc").Find(&orders).Error; err != nil {
		return []model.Order{}, err
	}
	return orders, nil
}

// 注文行だけ更新（明細は変更しない）
func (r *OrderGormRepository) Update(ctx context.Context, order model.Order) (model.Order, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Order{ID: order.ID}).
		Omit(clause.Associations).
		Updates(map[string]interface{}{
			"status":           order.Status,
			"shipping_address": order.ShippingAddress,
			"total_amount":     order.TotalAmount,
		})
	if res.Error != nil {
		return model.Order{}, res.Error
	}
	if res.RowsAffected == 0 {
		return model.Order{}, repo.ErrNotFound
	}
	return r.FindByID(ctx, order.ID)
}
