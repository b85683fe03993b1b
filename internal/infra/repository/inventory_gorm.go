package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// postgres: check_violation / unique_violation
const (
	pgCheckViolation  = "23514"
	pgUniqueViolation = "23505"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// 行ロックして在庫に delta を足し、調整履歴を作る。
// 同じ商品への同時調整はここで直列化される。
func (r *InventoryGormRepository) ApplyDelta(ctx context.Context, productID int64, delta int64, reason string) (model.Product, error) {
	var out model.Product

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p model.Product
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, productID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return repo.ErrNotFound
		}
		if err != nil {
			return err
		}

		newStock := p.Stock + delta
		if newStock < 0 {
			return &repo.InsufficientStockError{ProductID: productID, Available: p.Stock, Requested: -delta}
		}

		res := tx.Model(&model.Product{}).
			Where("id = ?", productID).
			Update("stock", gorm.Expr("stock + ?", delta))
		if res.Error != nil {
			//CHECK制約（stock >= 0）に引っかかった場合も在庫不足扱い
			if isPgCode(res.Error, pgCheckViolation) {
				return &repo.InsufficientStockError{ProductID: productID, Available: p.Stock, Requested: -delta}
			}
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}

		adj := model.InventoryAdjustment{
			ProductID:  productID,
			Delta:      delta,
			StockAfter: newStock,
			Reason:     reason,
		}
		if err := tx.Create(&adj).Error; err != nil {
			return err
		}

		p.Stock = newStock
		out = p
		return nil
	})
	if err != nil {
		return model.Product{}, err
	}
	return out, nil
}

// 調整履歴（新しい順）
func (r *InventoryGormRepository) ListAdjustments(ctx context.Context, productID int64) ([]model.InventoryAdjustment, error) {
	var adjs []model.InventoryAdjustment
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("id desc").
		Find(&adjs).Error
	if err != nil {
		return []model.InventoryAdjustment{}, err
	}
	return adjs, nil
}

func isPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
