package model

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

var (
	ErrUnknownOrderStatus = errors.New("unknown order status")
	ErrOrderTerminal      = errors.New("order is in a terminal status")
)

// ParseOrderStatus は大文字小文字を無視してステータスを解釈する。
func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", ErrUnknownOrderStatus
	}
	return st, nil
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// 終端（DELIVERED / CANCELLED）からは動かせない
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// Transition は current から requested への遷移を判定する。
// 終端以外からは順序を問わずどの状態にも移れる。
func Transition(current, requested OrderStatus) (OrderStatus, error) {
	if !requested.Valid() {
		return current, ErrUnknownOrderStatus
	}
	if current.IsTerminal() {
		return current, ErrOrderTerminal
	}
	return requested, nil
}

type Order struct {
	ID              int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          int64           `gorm:"not null;index" json:"user_id"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	Status          OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	ShippingAddress string          `gorm:"type:varchar(500)" json:"shipping_address"`
	CreatedAt       time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// NewOrder は PENDING の空注文を作る。
func NewOrder(userID int64, shippingAddress string) Order {
	return Order{
		UserID:          userID,
		Status:          OrderStatusPending,
		ShippingAddress: shippingAddress,
		TotalAmount:     decimal.Zero,
	}
}

// AddItem はスナップショットから明細を追加し、合計を積み上げる。
func (o *Order) AddItem(p ProductSnapshot, quantity int64) OrderItem {
	item := NewOrderItem(p, quantity)
	o.Items = append(o.Items, item)
	o.TotalAmount = o.TotalAmount.Add(item.Subtotal)
	return item
}

// 明細小計の合計
func (o Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Subtotal)
	}
	return total
}
