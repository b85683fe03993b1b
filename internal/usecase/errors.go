package usecase

import (
	"errors"
	"fmt"
	"net/http"

	"storefront/internal/domain/model"
)

var (
	//400 入力の形が不正
	ErrValidation = errors.New("validation error")
	//404 注文・ユーザー・商品が無い
	ErrNotFound = errors.New("not found")
	//400 在庫不足
	ErrInsufficientStock = errors.New("insufficient stock")
	//400 終端ステータスからの変更
	ErrInvalidTransition = errors.New("invalid status transition")
	//503 相手サービスのエラー/タイムアウト
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
	//409 検証後に在庫調整が拒否された
	ErrStockAdjustmentRejected = errors.New("stock adjustment rejected")
	//409 重複
	ErrConflict = errors.New("conflict")
)

// HTTPError はhandlerがそのままレスポンスにする。
// Errに分類用のエラーを持つ（errors.Is/Asで判定できる）。
type HTTPError struct {
	Status  int
	Message string
	Err     error
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

func validationError(message string) error {
	return &HTTPError{Status: http.StatusBadRequest, Message: message, Err: ErrValidation}
}

func notFoundError(message string) error {
	return &HTTPError{Status: http.StatusNotFound, Message: message, Err: ErrNotFound}
}

func dbError(err error) error {
	return &HTTPError{Status: http.StatusInternalServerError, Message: "db error", Err: err}
}

// InsufficientStockError は商品名と在庫数・要求数を持つ
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	Available   int64
	Requested   int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product: %s. available: %d, requested: %d",
		e.ProductName, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

func insufficientStockError(p model.ProductSnapshot, requested int64) error {
	ise := &InsufficientStockError{
		ProductID:   p.ID,
		ProductName: p.Name,
		Available:   p.AvailableStock,
		Requested:   requested,
	}
	return &HTTPError{Status: http.StatusBadRequest, Message: ise.Error(), Err: ise}
}

// InvalidTransitionError は現在のステータスを持つ
type InvalidTransitionError struct {
	Current   model.OrderStatus
	Requested model.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot change status of a %s order", e.Current)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

func invalidTransitionError(current, requested model.OrderStatus) error {
	ite := &InvalidTransitionError{Current: current, Requested: requested}
	return &HTTPError{Status: http.StatusBadRequest, Message: ite.Error(), Err: ite}
}
