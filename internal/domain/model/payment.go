package model

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusSucceeded PaymentStatus = "SUCCEEDED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

// 支払いレコード。1つの注文にSUCCEEDEDは最大1つ。
// 返金は元レコードを書き換えず、負の金額のREFUNDED行を追加する。
// カード情報は下4桁（表示用）以外は保持しない。
type Payment struct {
	ID             int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID        int64         `gorm:"not null;index" json:"order_id"`
	Amount         int64         `gorm:"not null" json:"amount"`
	Status         PaymentStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Method         string        `gorm:"type:varchar(20);not null" json:"method"`
	IdempotencyKey string        `gorm:"type:varchar(255);not null;uniqueIndex" json:"-"`
	CardLast4      string        `gorm:"type:varchar(4)" json:"card_last4,omitempty"`
	GatewayRef     string        `gorm:"type:varchar(100)" json:"-"`
	CreatedAt      time.Time     `gorm:"not null;autoCreateTime" json:"created_at"`
}

const (
	PaymentMethodCard   = "CARD"
	PaymentMethodRefund = "REFUND"
)
