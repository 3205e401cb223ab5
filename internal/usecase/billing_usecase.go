package usecase

import (
	"context"
	"time"

	"shop/internal/domain/apperr"
	"shop/internal/domain/model"
	repo "shop/internal/repository"
)

type BillingUsecase struct {
	tx repo.TransactionManager
}

func NewBillingUsecase(tx repo.TransactionManager) *BillingUsecase {
	return &BillingUsecase{tx: tx}
}

type InvoiceLineOutput struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int64  `json:"quantity"`
	LineTotal int64  `json:"line_total"`
}

type InvoiceOutput struct {
	ID       int64               `json:"id"`
	OrderID  int64               `json:"order_id"`
	Total    int64               `json:"total"`
	IssuedAt time.Time           `json:"issued_at"`
	Lines    []InvoiceLineOutput `json:"lines"`
}

// issueInvoice は注文明細から請求書を起こす。呼び出し側のトランザクション内で使う。
// 既に発行済みなら既存の1枚を返す（order_idの一意制約が二重発行を防ぐ）。
func issueInvoice(ctx context.Context, r repo.TxRepos, o model.Order, items []model.OrderItem, now time.Time) (model.Invoice, error) {
	if existing, found, err := r.Invoices().FindByOrderID(ctx, o.ID); err != nil {
		return model.Invoice{}, err
	} else if found {
		return existing, nil
	}

	lines := make([]model.InvoiceLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, model.InvoiceLine{
			ProductID: it.ProductID,
			Name:      it.ProductNameSnapshot,
			UnitPrice: it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
			LineTotal: it.UnitPriceSnapshot * it.Quantity,
		})
	}

	return r.Invoices().Create(ctx, model.Invoice{
		OrderID:  o.ID,
		UserID:   o.UserID,
		Total:    model.OrderTotal(items),
		IssuedAt: now,
	}, lines)
}

// GetInvoice は自分の注文の請求書を返す。
// 支払い前の注文には請求書はない（NotFound）。
func (u *BillingUsecase) GetInvoice(ctx context.Context, userID int64, orderID int64) (InvoiceOutput, error) {
	if userID <= 0 {
		return InvoiceOutput{}, apperr.InvalidInput("invalid user")
	}
	if orderID <= 0 {
		return InvoiceOutput{}, apperr.InvalidInput("invalid id")
	}

	var out InvoiceOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := loadOwnedOrder(ctx, r, userID, orderID); err != nil {
			return err
		}

		inv, found, err := r.Invoices().FindByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		if !found {
			return apperr.NotFound("invoice")
		}

		lines, err := r.Invoices().ListLines(ctx, inv.ID)
		if err != nil {
			return err
		}

		out = toInvoiceOutput(inv, lines)
		return nil
	})

	if err != nil {
		return InvoiceOutput{}, err
	}
	return out, nil
}

func toInvoiceOutput(inv model.Invoice, lines []model.InvoiceLine) InvoiceOutput {
	outLines := make([]InvoiceLineOutput, 0, len(lines))
	for _, l := range lines {
		outLines = append(outLines, InvoiceLineOutput{
			ProductID: l.ProductID,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			LineTotal: l.LineTotal,
		})
	}
	return InvoiceOutput{
		ID:       inv.ID,
		OrderID:  inv.OrderID,
		Total:    inv.Total,
		IssuedAt: inv.IssuedAt,
		Lines:    outLines,
	}
}
