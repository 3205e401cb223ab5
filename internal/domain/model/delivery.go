package model

import "time"

type DeliveryStatus string

const (
	DeliveryStatusPreparing DeliveryStatus = "PREPARING"
	DeliveryStatusInTransit DeliveryStatus = "IN_TRANSIT"
	DeliveryStatusDelivered DeliveryStatus = "DELIVERED"
)

// 配送。注文がVALIDATEDになった時点で1:1で作られる。
type Delivery struct {
	ID             int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID        int64          `gorm:"not null;uniqueIndex" json:"order_id"`
	Carrier        string         `gorm:"type:varchar(100);not null" json:"carrier"`
	TrackingNumber string         `gorm:"type:varchar(100)" json:"tracking_number,omitempty"`
	Status         DeliveryStatus `gorm:"type:varchar(20);not null" json:"status"`
	CreatedAt      time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
