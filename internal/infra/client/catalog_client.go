package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type productResponse struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int64           `json:"stock"`
}

func (p productResponse) snapshot() model.ProductSnapshot {
	return model.ProductSnapshot{
		ID:             p.ID,
		Name:           p.Name,
		UnitPrice:      p.Price,
		AvailableStock: p.Stock,
	}
}

type stockChangeRequest struct {
	QuantityChange int64 `json:"quantity_change"`
}

type CatalogClient struct {
	rest restClient
}

// DI
func NewCatalogClient(baseURL string, timeout time.Duration, log *zap.Logger) *CatalogClient {
	return &CatalogClient{rest: newRESTClient("catalog", baseURL, timeout, log)}
}

var _ usecase.CatalogClient = (*CatalogClient)(nil)

func (c *CatalogClient) GetProduct(ctx context.Context, productID int64) (model.ProductSnapshot, error) {
	var out productResponse
	err := c.rest.do(ctx, http.MethodGet, fmt.Sprintf("/api/products/%d", productID), nil, &out)
	if err != nil {
		return model.ProductSnapshot{}, classify(err, false)
	}
	return out.snapshot(), nil
}

// AdjustStock は PATCH /api/products/:id/stock（400は調整の拒否）
func (c *CatalogClient) AdjustStock(ctx context.Context, productID int64, delta int64) (model.ProductSnapshot, error) {
	var out productResponse
	err := c.rest.do(ctx, http.MethodPatch,
		fmt.Sprintf("/api/products/%d/stock", productID),
		stockChangeRequest{QuantityChange: delta},
		&out,
	)
	if err != nil {
		return model.ProductSnapshot{}, classify(err, true)
	}
	return out.snapshot(), nil
}

// 404 → ErrRemoteNotFound、調整の400 → ErrInvalidAdjustment、それ以外はそのまま
func classify(err error, adjust bool) error {
	var se *StatusError
	if !errors.As(err, &se) {
		return err
	}
	switch {
	case se.Status == http.StatusNotFound:
		return fmt.Errorf("%w: %w", usecase.ErrRemoteNotFound, err)
	case adjust && se.Status == http.StatusBadRequest:
		return fmt.Errorf("%w: %w", usecase.ErrInvalidAdjustment, err)
	}
	return err
}
