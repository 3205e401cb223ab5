package model

import "time"

type OrderStatus string

const (
	OrderStatusCreated   OrderStatus = "CREATED"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusValidated OrderStatus = "VALIDATED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusRefunded  OrderStatus = "REFUNDED"
)

// 注文ステータスの遷移表。
// CREATED → PAID → VALIDATED → SHIPPED → DELIVERED が正常ルート。
// CANCELLED は出荷前のみ、REFUNDED は支払い後かキャンセル後のみ。
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusCreated:   {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:      {OrderStatusValidated, OrderStatusCancelled, OrderStatusRefunded},
	OrderStatusValidated: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {OrderStatusRefunded},
	OrderStatusRefunded:  {},
}

func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// CanTransitionTo は s から next への遷移が許可されているかを返す。
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, t := range orderTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

type Order struct {
	ID             int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         int64       `gorm:"not null;index;uniqueIndex:idx_orders_user_idem" json:"user_id"`
	Status         OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	IdempotencyKey string      `gorm:"type:varchar(255);not null;uniqueIndex:idx_orders_user_idem" json:"-"`

	// 各遷移が最初に起きた時刻。一度セットしたら書き換えない。
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	ValidatedAt *time.Time `json:"validated_at,omitempty"`
	ShippedAt   *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	RefundedAt  *time.Time `json:"refunded_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// OrderTotal は明細から合計金額を計算する。
// 合計は注文行には保存しない（明細とズレるのを防ぐため常に導出する）。
func OrderTotal(items []OrderItem) int64 {
	var total int64
	for _, it := range items {
		total += it.UnitPriceSnapshot * it.Quantity
	}
	return total
}
