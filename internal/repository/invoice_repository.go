package repository

import (
	"context"

	"shop/internal/domain/model"
)

// 請求書は追記のみ。1注文につき1枚（order_idに一意制約）。
type InvoiceRepository interface {
	Create(ctx context.Context, inv model.Invoice, lines []model.InvoiceLine) (model.Invoice, error)
	FindByOrderID(ctx context.Context, orderID int64) (model.Invoice, bool, error)
	ListLines(ctx context.Context, invoiceID int64) ([]model.InvoiceLine, error)
}
