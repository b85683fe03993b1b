package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductUsecase は catalog サービス側の商品・在庫操作
type ProductUsecase struct {
	productRepo   repo.ProductRepository
	inventoryRepo repo.InventoryRepository
	tx            repo.TransactionManager
	log           *zap.Logger
}

// DI
func NewProductUsecase(
	productRepo repo.ProductRepository,
	inventoryRepo repo.InventoryRepository,
	tx repo.TransactionManager,
	log *zap.Logger,
) *ProductUsecase {
	return &ProductUsecase{
		productRepo:   productRepo,
		inventoryRepo: inventoryRepo,
		tx:            tx,
		log:           log,
	}
}

type ProductInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int64           `json:"stock"`
	Category    string          `json:"category"`
}

// 1回の在庫調整・初期在庫の上限（在庫計算のオーバーフロー防止）
const maxStockChange = 1_000_000_000

type AdjustStockInput struct {
	QuantityChange int64  `json:"quantity_change"`
	Reason         string `json:"reason"`
}

func validateProductInput(in ProductInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return validationError("name required")
	}
	if len(name) > 100 {
		return validationError("name too long")
	}
	if len(in.Description) > 500 {
		return validationError("description too long")
	}
	if !in.Price.IsPositive() {
		return validationError("price must be > 0")
	}
	if in.Stock < 0 {
		return validationError("stock must be >= 0")
	}
	if in.Stock > maxStockChange {
		return validationError(fmt.Sprintf("stock must be <= %d", maxStockChange))
	}
	if len(in.Category) > 50 {
		return validationError("category too long")
	}
	return nil
}

func (u *ProductUsecase) ListProducts(ctx context.Context, category string) ([]model.Product, error) {
	items, err := u.productRepo.List(ctx, repo.ProductListQuery{Category: strings.TrimSpace(category)})
	if err != nil {
		return []model.Product{}, dbError(err)
	}
	return items, nil
}

func (u *ProductUsecase) GetProduct(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, validationError("invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, notFoundError(fmt.Sprintf("product not found: %d", productID))
	}
	if err != nil {
		return model.Product{}, dbError(err)
	}
	return p, nil
}

// CreateProduct は在庫0で作ってから初期在庫を調整として入れる（履歴に残すため）
func (u *ProductUsecase) CreateProduct(ctx context.Context, in ProductInput) (model.Product, error) {
	if err := validateProductInput(in); err != nil {
		return model.Product{}, err
	}

	var out model.Product
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().Create(ctx, model.Product{
			Name:        strings.TrimSpace(in.Name),
			Description: in.Description,
			Price:       in.Price.Round(2),
			Stock:       0,
			Category:    strings.TrimSpace(in.Category),
		})
		if err != nil {
			return err
		}

		if in.Stock > 0 {
			if p, err = r.Inventory().ApplyDelta(ctx, p.ID, in.Stock, model.AdjustmentReasonInitialStock); err != nil {
				return err
			}
		}
		out = p
		return nil
	})
	if err != nil {
		return model.Product{}, dbError(err)
	}
	u.log.Info("product created", zap.Int64("product_id", out.ID), zap.String("name", out.Name), zap.Int64("stock", out.Stock))
	return out, nil
}

// UpdateProduct は在庫以外の項目を更新する（在庫は AdjustStock だけで動かす）
func (u *ProductUsecase) UpdateProduct(ctx context.Context, productID int64, in ProductInput) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, validationError("invalid product id")
	}
	if err := validateProductInput(in); err != nil {
		return model.Product{}, err
	}

	p, err := u.productRepo.Update(ctx, model.Product{
		ID:          productID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price.Round(2),
		Category:    strings.TrimSpace(in.Category),
	})
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, notFoundError(fmt.Sprintf("product not found: %d", productID))
	}
	if err != nil {
		return model.Product{}, dbError(err)
	}
	return p, nil
}

func (u *ProductUsecase) DeleteProduct(ctx context.Context, productID int64) error {
	if productID <= 0 {
		return validationError("invalid product id")
	}

	err := u.productRepo.SoftDelete(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return notFoundError(fmt.Sprintf("product not found: %d", productID))
	}
	if err != nil {
		return dbError(err)
	}
	u.log.Info("product deleted", zap.Int64("product_id", productID))
	return nil
}

// AdjustStock は在庫に差分を足す。結果が0未満になる調整は400で拒否。
// 同じ商品への同時調整はDB側で直列化される。
func (u *ProductUsecase) AdjustStock(ctx context.Context, productID int64, in AdjustStockInput) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, validationError("invalid product id")
	}
	if in.QuantityChange > maxStockChange || in.QuantityChange < -maxStockChange {
		return model.Product{}, validationError(fmt.Sprintf("quantity_change must be between %d and %d", -maxStockChange, maxStockChange))
	}
	reason := strings.TrimSpace(in.Reason)
	if len(reason) > 255 {
		return model.Product{}, validationError("reason too long")
	}
	if reason == "" {
		reason = model.AdjustmentReasonForDelta(in.QuantityChange)
	}

	p, err := u.inventoryRepo.ApplyDelta(ctx, productID, in.QuantityChange, reason)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, notFoundError(fmt.Sprintf("product not found: %d", productID))
	}
	var ise *repo.InsufficientStockError
	if errors.As(err, &ise) {
		return model.Product{}, &HTTPError{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("insufficient stock. available: %d, requested: %d", ise.Available, ise.Requested),
			Err:     ErrInsufficientStock,
		}
	}
	if err != nil {
		return model.Product{}, dbError(err)
	}

	u.log.Info("stock adjusted",
		zap.Int64("product_id", productID),
		zap.Int64("delta", in.QuantityChange),
		zap.Int64("stock", p.Stock),
		zap.String("reason", reason),
	)
	return p, nil
}

func (u *ProductUsecase) ListAdjustments(ctx context.Context, productID int64) ([]model.InventoryAdjustment, error) {
	if _, err := u.GetProduct(ctx, productID); err != nil {
		return []model.InventoryAdjustment{}, err
	}
	adjs, err := u.inventoryRepo.ListAdjustments(ctx, productID)
	if err != nil {
		return []model.InventoryAdjustment{}, dbError(err)
	}
	return adjs, nil
}
