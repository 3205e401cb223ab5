package model

import "time"

// 請求書。支払い済み注文からの読み取り専用の写し。
// 同じ注文に対して2回発行しても同じ内容の1枚を返す。
type Invoice struct {
	ID       int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID  int64     `gorm:"not null;uniqueIndex" json:"order_id"`
	UserID   int64     `gorm:"not null;index" json:"user_id"`
	Total    int64     `gorm:"not null" json:"total"`
	IssuedAt time.Time `gorm:"not null" json:"issued_at"`
}

type InvoiceLine struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	InvoiceID int64  `gorm:"not null;index" json:"invoice_id"`
	ProductID int64  `gorm:"not null" json:"product_id"`
	Name      string `gorm:"type:varchar(255);not null" json:"name"`
	UnitPrice int64  `gorm:"not null" json:"unit_price"`
	Quantity  int64  `gorm:"not null" json:"quantity"`
	LineTotal int64  `gorm:"not null" json:"line_total"`
}
