package repository

import (
	"context"
	"errors"

	"shop/internal/domain/model"
	repo "shop/internal/repository"

	"gorm.io/gorm"
)

type InvoiceGormRepository struct {
	db *gorm.DB
}

func NewInvoiceGormRepository(db *gorm.DB) *InvoiceGormRepository {
	return &InvoiceGormRepository{db: db}
}

// Create は請求書と明細をまとめて作る。
// order_idの一意制約に当たったら既存の1枚を返す（二重発行防止）。
func (r *InvoiceGormRepository) Create(ctx context.Context, inv model.Invoice, lines []model.InvoiceLine) (model.Invoice, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&inv).Error; err != nil {
			return err
		}
		for i := range lines {
			lines[i].InvoiceID = inv.ID
		}
		if len(lines) > 0 {
			if err := tx.Create(&lines).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			existing, found, findErr := r.FindByOrderID(ctx, inv.OrderID)
			if findErr == nil && found {
				return existing, nil
			}
			return model.Invoice{}, repo.ErrConflict
		}
		return model.Invoice{}, err
	}
	return inv, nil
}

func (r *InvoiceGormRepository) FindByOrderID(ctx context.Context, orderID int64) (model.Invoice, bool, error) {
	var inv model.Invoice
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&inv).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Invoice{}, false, nil
	}
	if err != nil {
		return model.Invoice{}, false, err
	}
	return inv, true, nil
}

func (r *InvoiceGormRepository) ListLines(ctx context.Context, invoiceID int64) ([]model.InvoiceLine, error) {
	var lines []model.InvoiceLine
	err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("id asc").
		Find(&lines).Error
	if err != nil {
		return []model.InvoiceLine{}, err
	}
	return lines, nil
}
