package usecase

import (
	"context"
	"errors"
	"time"

	"storefront/internal/domain/model"
)

// 相手サービス（catalog / identity）のクライアントが返す分類済みエラー。
// それ以外のエラーはすべて「相手が使えない」扱い。
var (
	ErrRemoteNotFound    = errors.New("remote resource not found")
	ErrInvalidAdjustment = errors.New("invalid stock adjustment")
)

// catalogサービス
type CatalogClient interface {
	GetProduct(ctx context.Context, productID int64) (model.ProductSnapshot, error)
	// 負のdeltaで予約、正のdeltaで戻す
	AdjustStock(ctx context.Context, productID int64, delta int64) (model.ProductSnapshot, error)
}

// identityサービス
type IdentityClient interface {
	GetUser(ctx context.Context, userID int64) (model.UserSnapshot, error)
}

type OrderEventType string

const (
	OrderEventCreated       OrderEventType = "OrderCreated"
	OrderEventStatusChanged OrderEventType = "OrderStatusChanged"
)

type OrderEvent struct {
	Type           OrderEventType    `json:"type"`
	OrderID        int64             `json:"order_id"`
	UserID         int64             `json:"user_id"`
	Status         model.OrderStatus `json:"status"`
	PreviousStatus model.OrderStatus `json:"previous_status,omitempty"`
	TotalAmount    model.Money       `json:"total_amount"`
	OccurredAt     time.Time         `json:"occurred_at"`
}

// 注文イベントの送信（失敗しても注文処理は成功のまま）
type EventPublisher interface {
	Publish(ctx context.Context, event OrderEvent) error
}

// Idempotency-Key と注文IDの対応
type IdempotencyStore interface {
	// キーを確保する。確保済みなら既存の注文ID（作成中は0）を返す
	Reserve(ctx context.Context, key string) (orderID int64, reserved bool, err error)
	Remember(ctx context.Context, key string, orderID int64) error
	// 作成に失敗したキーを手放す
	Release(ctx context.Context, key string) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, OrderEvent) error { return nil }

type requestIDKey struct{}

// WithRequestID はリクエストIDをcontextに入れる（監査ログ用）
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
