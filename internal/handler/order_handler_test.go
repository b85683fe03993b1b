package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront/internal/domain/model"
	"storefront/internal/handler"
	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// =====================
// fakes
// =====================

type stubCatalog struct {
	stock map[int64]int64
}

func (c *stubCatalog) GetProduct(ctx context.Context, id int64) (model.ProductSnapshot, error) {
	s, ok := c.stock[id]
	if !ok {
		return model.ProductSnapshot{}, usecase.ErrRemoteNotFound
	}
	return model.ProductSnapshot{ID: id, Name: "Mug", UnitPrice: decimal.RequireFromString("50.00"), AvailableStock: s}, nil
}

func (c *stubCatalog) AdjustStock(ctx context.Context, id int64, delta int64) (model.ProductSnapshot, error) {
	c.stock[id] += delta
	return model.ProductSnapshot{ID: id, AvailableStock: c.stock[id]}, nil
}

type stubIdentity struct{}

func (stubIdentity) GetUser(ctx context.Context, id int64) (model.UserSnapshot, error) {
	if id != 1 {
		return model.UserSnapshot{}, usecase.ErrRemoteNotFound
	}
	return model.UserSnapshot{ID: 1, Email: "hanako@example.com", DisplayName: "Hanako Sato", Address: "Tokyo"}, nil
}

type stubOrders struct {
	orders []model.Order
}

func (r *stubOrders) Insert(ctx context.Context, o model.Order) (model.Order, error) {
	o.ID = int64(len(r.orders) + 1)
	r.orders = append(r.orders, o)
	return o, nil
}

func (r *stubOrders) FindByID(ctx context.Context, id int64) (model.Order, error) {
	if id < 1 || int(id) > len(r.orders) {
		return model.Order{}, repository.ErrNotFound
	}
	return r.orders[id-1], nil
}

func (r *stubOrders) FindByUserID(ctx context.Context, userID int64) ([]model.Order, error) {
	out := []model.Order{}
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *stubOrders) FindAll(ctx context.Context) ([]model.Order, error) {
	return r.orders, nil
}

func (r *stubOrders) Update(ctx context.Context, o model.Order) (model.Order, error) {
	if o.ID < 1 || int(o.ID) > len(r.orders) {
		return model.Order{}, repository.ErrNotFound
	}
	r.orders[o.ID-1] = o
	return o, nil
}

type stubAudit struct{ logs []model.AuditLog }

func (a *stubAudit) Create(ctx context.Context, l model.AuditLog) error {
	a.logs = append(a.logs, l)
	return nil
}

func (a *stubAudit) ListByResource(ctx context.Context, resource model.AuditResourceType, resourceID int64, page repository.Page) ([]model.AuditLog, error) {
	out := []model.AuditLog{}
	for i := len(a.logs) - 1; i >= 0; i-- {
		if a.logs[i].ResourceType == resource && a.logs[i].ResourceID == resourceID {
			out = append(out, a.logs[i])
		}
	}
	return out, nil
}

func newOrderEcho(catalog *stubCatalog) *echo.Echo {
	uc := usecase.NewOrderUsecase(&stubOrders{}, &stubAudit{}, catalog, stubIdentity{}, zap.NewNop())
	e := echo.New()
	handler.NewOrderHandler(uc).RegisterRoutes(e)
	return e
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// =====================
// tests
// =====================

func TestOrderHandler_CreateAndCancel(t *testing.T) {
	catalog := &stubCatalog{stock: map[int64]int64{7: 10}}
	e := newOrderEcho(catalog)

	rec := do(e, http.MethodPost, "/api/orders", `{"user_id":1,"items":[{"product_id":7,"quantity":2}]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// 金額は小数2桁で返る
	assert.Contains(t, rec.Body.String(), `"total_amount":"100.00"`)
	assert.Contains(t, rec.Body.String(), `"unit_price":"50.00"`)

	var created usecase.OrderOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "PENDING", created.Status)
	assert.Equal(t, "hanako@example.com", created.UserEmail)
	assert.True(t, created.TotalAmount.Equal(decimal.RequireFromString("100")))
	assert.Equal(t, int64(8), catalog.stock[7])

	// ?status= でも body でも受け付ける
	rec = do(e, http.MethodPut, "/api/orders/1/status?status=CONFIRMED", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(e, http.MethodPut, "/api/orders/1/status", `{"status":"CANCELLED"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(10), catalog.stock[7])

	rec = do(e, http.MethodPut, "/api/orders/1/status?status=SHIPPED", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"cannot change status of a CANCELLED order"}`, rec.Body.String())

	// 履歴は新しい順
	rec = do(e, http.MethodGet, "/api/orders/1/history", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var history []model.AuditLog
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 2)
	assert.Equal(t, `{"status":"CANCELLED"}`, history[0].AfterJSON)
	assert.Equal(t, `{"status":"CONFIRMED"}`, history[1].AfterJSON)
}

func TestOrderHandler_Create_InsufficientStock(t *testing.T) {
	e := newOrderEcho(&stubCatalog{stock: map[int64]int64{7: 1}})

	rec := do(e, http.MethodPost, "/api/orders", `{"user_id":1,"items":[{"product_id":7,"quantity":2}]}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body handler.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Error, "available: 1, requested: 2")
}

func TestOrderHandler_Create_InvalidBody(t *testing.T) {
	e := newOrderEcho(&stubCatalog{})

	rec := do(e, http.MethodPost, "/api/orders", `{"user_id":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderHandler_NotFoundAndBadIDs(t *testing.T) {
	e := newOrderEcho(&stubCatalog{})

	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/api/orders/5", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/api/orders/abc", "").Code)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/api/orders/user/2", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPut, "/api/orders/1/status", "").Code)
}

func TestOrderHandler_ListEmpty(t *testing.T) {
	e := newOrderEcho(&stubCatalog{})

	rec := do(e, http.MethodGet, "/api/orders", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestWriteError_UnknownErrorIs500(t *testing.T) {
	e := echo.New()
	e.GET("/boom", func(c echo.Context) error {
		return handler.WriteError(c, errors.New("boom"))
	})

	rec := do(e, http.MethodGet, "/boom", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())
}
