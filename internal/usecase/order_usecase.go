package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

const maxShippingAddressLen = 500

// OrderUsecase は注文の作成・参照・ステータス変更をまとめる。
// catalog / identity は別サービスなので、在庫と注文の整合は best-effort。
type OrderUsecase struct {
	orders   repo.OrderRepository
	audit    repo.AuditLogRepository
	catalog  CatalogClient
	identity IdentityClient
	events   EventPublisher
	idem     IdempotencyStore
	log      *zap.Logger
	now      func() time.Time
}

type OrderOption func(*OrderUsecase)

func WithEventPublisher(p EventPublisher) OrderOption {
	return func(u *OrderUsecase) {
		if p != nil {
			u.events = p
		}
	}
}

func WithIdempotencyStore(s IdempotencyStore) OrderOption {
	return func(u *OrderUsecase) { u.idem = s }
}

func WithClock(now func() time.Time) OrderOption {
	return func(u *OrderUsecase) { u.now = now }
}

func NewOrderUsecase(
	orders repo.OrderRepository,
	audit repo.AuditLogRepository,
	catalog CatalogClient,
	identity IdentityClient,
	log *zap.Logger,
	opts ...OrderOption,
) *OrderUsecase {
	u := &OrderUsecase{
		orders:   orders,
		audit:    audit,
		catalog:  catalog,
		identity: identity,
		events:   noopPublisher{},
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

type OrderLineInput struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type CreateOrderInput struct {
	UserID          int64
	ShippingAddress *string
	Items           []OrderLineInput
	IdempotencyKey  string
}

type OrderItemOutput struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   model.Money `json:"unit_price"`
	Subtotal    model.Money `json:"subtotal"`
}

type OrderOutput struct {
	ID              int64             `json:"id"`
	UserID          int64             `json:"user_id"`
	UserEmail       string            `json:"user_email"`
	UserName        string            `json:"user_name"`
	Items           []OrderItemOutput `json:"items"`
	TotalAmount     model.Money       `json:"total_amount"`
	Status          string            `json:"status"`
	ShippingAddress string            `json:"shipping_address"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func validateCreateOrder(in CreateOrderInput) error {
	if in.UserID <= 0 {
		return validationError("user_id is required")
	}
	if len(in.Items) == 0 {
		return validationError("order must have at least one item")
	}
	for i, it := range in.Items {
		if it.ProductID <= 0 {
			return validationError(fmt.Sprintf("items[%d].product_id is required", i))
		}
		if it.Quantity < 1 {
			return validationError(fmt.Sprintf("items[%d].quantity must be at least 1", i))
		}
	}
	if in.ShippingAddress != nil && utf8.RuneCountInString(*in.ShippingAddress) > maxShippingAddressLen {
		return validationError("shipping_address too long")
	}
	if len(in.IdempotencyKey) > 255 {
		return validationError("invalid idempotency key")
	}
	return nil
}

// CreateOrder は Idempotency-Key があれば先にキーを確保してから作成する。
// 同じキーの2回目以降は最初の注文を返し、作成中なら409。
func (u *OrderUsecase) CreateOrder(ctx context.Context, in CreateOrderInput) (OrderOutput, error) {
	if err := validateCreateOrder(in); err != nil {
		return OrderOutput{}, err
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" || u.idem == nil {
		return u.createOrder(ctx, in)
	}

	orderID, reserved, err := u.idem.Reserve(ctx, key)
	if err != nil {
		//Redisが使えないときはキー無しで作る
		u.log.Warn("idempotency store unavailable", zap.Error(err))
		return u.createOrder(ctx, in)
	}
	if !reserved {
		return u.replayIdempotent(ctx, orderID)
	}

	out, err := u.createOrder(ctx, in)
	if err != nil {
		if rerr := u.idem.Release(ctx, key); rerr != nil {
			u.log.Warn("could not release idempotency key", zap.Error(rerr))
		}
		return OrderOutput{}, err
	}
	if err := u.idem.Remember(ctx, key, out.ID); err != nil {
		u.log.Warn("could not remember idempotency key", zap.Int64("order_id", out.ID), zap.Error(err))
	}
	return out, nil
}

// createOrder は購入者確認 → 全明細の検証 → 注文組み立て → 在庫減算 → 保存 の順で進める。
// 検証はすべての変更より前に終わるが、検証と減算はアトミックではない。
// 減算の途中や保存で失敗しても、減算済みの在庫は戻さない。
func (u *OrderUsecase) createOrder(ctx context.Context, in CreateOrderInput) (OrderOutput, error) {
	//購入者の確認（失敗したら注文は作らない）
	user, err := u.identity.GetUser(ctx, in.UserID)
	if err != nil {
		return OrderOutput{}, collaboratorError("identity", "user", in.UserID, err)
	}
	u.log.Info("user verified", zap.Int64("user_id", user.ID), zap.String("email", user.Email))

	//明細ごとに商品を取得して在庫を確認（ここでは何も変更しない）
	snapshots := make([]model.ProductSnapshot, 0, len(in.Items))
	for _, line := range in.Items {
		p, err := u.catalog.GetProduct(ctx, line.ProductID)
		if err != nil {
			return OrderOutput{}, collaboratorError("catalog", "product", line.ProductID, err)
		}
		if line.Quantity > p.AvailableStock {
			return OrderOutput{}, insufficientStockError(p, line.Quantity)
		}
		snapshots = append(snapshots, p)
	}

	//注文を組み立てる（名前と単価はこの時点のスナップショット）
	address := user.Address
	if in.ShippingAddress != nil && strings.TrimSpace(*in.ShippingAddress) != "" {
		address = strings.TrimSpace(*in.ShippingAddress)
	}
	order := model.NewOrder(in.UserID, address)
	for i, line := range in.Items {
		order.AddItem(snapshots[i], line.Quantity)
	}

	//在庫減算
	reserved := make([]model.OrderItem, 0, len(order.Items))
	for _, it := range order.Items {
		if _, err := u.catalog.AdjustStock(ctx, it.ProductID, -it.Quantity); err != nil {
			u.logUnrestoredReservations(reserved, err)
			return OrderOutput{}, adjustmentError(it.ProductID, err)
		}
		reserved = append(reserved, it)
		u.log.Info("stock reserved", zap.Int64("product_id", it.ProductID), zap.Int64("quantity", it.Quantity))
	}

	saved, err := u.orders.Insert(ctx, order)
	if err != nil {
		u.logUnrestoredReservations(reserved, err)
		return OrderOutput{}, dbError(err)
	}
	u.log.Info("order created",
		zap.Int64("order_id", saved.ID),
		zap.Int64("user_id", saved.UserID),
		zap.String("total_amount", saved.TotalAmount.StringFixed(2)),
	)

	u.publish(ctx, OrderEvent{
		Type:        OrderEventCreated,
		OrderID:     saved.ID,
		UserID:      saved.UserID,
		Status:      saved.Status,
		TotalAmount: model.NewMoney(saved.TotalAmount),
	})

	return toOrderOutput(saved, &user), nil
}

// 同じキーで作成済みなら既存注文を返す
func (u *OrderUsecase) replayIdempotent(ctx context.Context, orderID int64) (OrderOutput, error) {
	if orderID == 0 {
		return OrderOutput{}, &HTTPError{
			Status:  http.StatusConflict,
			Message: "an order with this idempotency key is already being created",
			Err:     ErrConflict,
		}
	}
	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return OrderOutput{}, notFoundError(fmt.Sprintf("order not found: %d", orderID))
	}
	if err != nil {
		return OrderOutput{}, dbError(err)
	}
	u.log.Info("idempotent replay", zap.Int64("order_id", o.ID))
	return toOrderOutput(o, u.lookupUser(ctx, o.UserID)), nil
}

// 減算済みで戻していない明細を記録する（ロールバックはしない）
func (u *OrderUsecase) logUnrestoredReservations(reserved []model.OrderItem, cause error) {
	if len(reserved) == 0 {
		return
	}
	fields := make([]zap.Field, 0, 2)
	ids := make([]int64, 0, len(reserved))
	qtys := make([]int64, 0, len(reserved))
	for _, it := range reserved {
		ids = append(ids, it.ProductID)
		qtys = append(qtys, it.Quantity)
	}
	fields = append(fields, zap.Int64s("product_ids", ids), zap.Int64s("quantities", qtys), zap.Error(cause))
	u.log.Error("order creation failed after stock was reserved; reserved stock is not restored", fields...)
}

func (u *OrderUsecase) GetOrder(ctx context.Context, orderID int64) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, validationError("invalid id")
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return OrderOutput{}, notFoundError(fmt.Sprintf("order not found: %d", orderID))
	}
	if err != nil {
		return OrderOutput{}, dbError(err)
	}

	return toOrderOutput(o, u.lookupUser(ctx, o.UserID)), nil
}

func (u *OrderUsecase) ListOrders(ctx context.Context) ([]OrderOutput, error) {
	orders, err := u.orders.FindAll(ctx)
	if err != nil {
		return []OrderOutput{}, dbError(err)
	}

	//同じ操作の中では同じユーザーを何度も取りに行かない
	users := make(map[int64]*model.UserSnapshot)
	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		user, ok := users[o.UserID]
		if !ok {
			user = u.lookupUser(ctx, o.UserID)
			users[o.UserID] = user
		}
		outs = append(outs, toOrderOutput(o, user))
	}
	return outs, nil
}

// ListOrdersForUser はユーザー確認に失敗したらエラー（空リストにはしない）
func (u *OrderUsecase) ListOrdersForUser(ctx context.Context, userID int64) ([]OrderOutput, error) {
	if userID <= 0 {
		return []OrderOutput{}, validationError("invalid user id")
	}

	user, err := u.identity.GetUser(ctx, userID)
	if err != nil {
		return []OrderOutput{}, collaboratorError("identity", "user", userID, err)
	}

	orders, err := u.orders.FindByUserID(ctx, userID)
	if err != nil {
		return []OrderOutput{}, dbError(err)
	}

	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		outs = append(outs, toOrderOutput(o, &user))
	}
	return outs, nil
}

// 参照系のユーザー取得。失敗してもnilを返すだけ
func (u *OrderUsecase) lookupUser(ctx context.Context, userID int64) *model.UserSnapshot {
	user, err := u.identity.GetUser(ctx, userID)
	if err != nil {
		u.log.Warn("could not fetch user details", zap.Int64("user_id", userID), zap.Error(err))
		return nil
	}
	return &user
}

func (u *OrderUsecase) publish(ctx context.Context, ev OrderEvent) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = u.now().UTC()
	}
	if err := u.events.Publish(ctx, ev); err != nil {
		u.log.Warn("order event not published",
			zap.String("type", string(ev.Type)),
			zap.Int64("order_id", ev.OrderID),
			zap.Error(err),
		)
	}
}

// 相手サービスのエラーを分類（見つからない=404、それ以外=503）
func collaboratorError(service string, resource string, id int64, err error) error {
	if errors.Is(err, ErrRemoteNotFound) {
		return notFoundError(fmt.Sprintf("%s not found: %d", resource, id))
	}
	return &HTTPError{
		Status:  http.StatusServiceUnavailable,
		Message: service + " service unavailable",
		Err:     fmt.Errorf("%w: %w", ErrCollaboratorUnavailable, err),
	}
}

func adjustmentError(productID int64, err error) error {
	if errors.Is(err, ErrInvalidAdjustment) {
		return &HTTPError{
			Status:  http.StatusConflict,
			Message: fmt.Sprintf("stock adjustment rejected for product: %d", productID),
			Err:     fmt.Errorf("%w: %w", ErrStockAdjustmentRejected, err),
		}
	}
	return collaboratorError("catalog", "product", productID, err)
}

func toOrderOutput(o model.Order, user *model.UserSnapshot) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(o.Items))
	for _, it := range o.Items {
		outItems = append(outItems, OrderItemOutput{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductNameSnapshot,
			Quantity:    it.Quantity,
			UnitPrice:   model.NewMoney(it.UnitPriceSnapshot),
			Subtotal:    model.NewMoney(it.Subtotal),
		})
	}

	out := OrderOutput{
		ID:              o.ID,
		UserID:          o.UserID,
		Items:           outItems,
		TotalAmount:     model.NewMoney(o.TotalAmount),
		Status:          string(o.Status),
		ShippingAddress: o.ShippingAddress,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	if user != nil {
		out.UserEmail = user.Email
		out.UserName = user.DisplayName
	}
	return out
}
