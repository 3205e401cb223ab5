package repository

import (
	"context"

	"shop/internal/domain/model"
)

// 支払いレコードは追記のみ（更新しない）。
type PaymentRepository interface {
	Create(ctx context.Context, p model.Payment) (model.Payment, error)
	FindByID(ctx context.Context, id int64) (model.Payment, error)
	FindByIdempotencyKey(ctx context.Context, key string) (model.Payment, bool, error)
	ListByOrderID(ctx context.Context, orderID int64) ([]model.Payment, error)
	// 注文に対する成功済み支払い（返金時の参照元）
	FindSucceededByOrderID(ctx context.Context, orderID int64) (model.Payment, bool, error)
}
