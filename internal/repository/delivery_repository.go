package repository

import (
	"context"

	"shop/internal/domain/model"
)

type DeliveryRepository interface {
	Create(ctx context.Context, d model.Delivery) (model.Delivery, error)
	FindByOrderID(ctx context.Context, orderID int64) (model.Delivery, bool, error)
	Update(ctx context.Context, d model.Delivery) error
}
