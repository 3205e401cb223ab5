package repository

import (
	"context"
	"errors"

	"shop/internal/domain/model"
	repo "shop/internal/repository"

	"gorm.io/gorm"
)

type DeliveryGormRepository struct {
	db *gorm.DB
}

func NewDeliveryGormRepository(db *gorm.DB) *DeliveryGormRepository {
	return &DeliveryGormRepository{db: db}
}

// Create は配送を追加する。order_idの一意制約（1注文1配送）に当たったら
// 既存の配送を返す。
func (r *DeliveryGormRepository) Create(ctx context.Context, d model.Delivery) (model.Delivery, error) {
	if err := r.db.WithContext(ctx).Create(&d).Error; err != nil {
		if isUniqueViolation(err) {
			existing, found, findErr := r.FindByOrderID(ctx, d.OrderID)
			if findErr == nil && found {
				return existing, nil
			}
			return model.Delivery{}, repo.ErrConflict
		}
		return model.Delivery{}, err
	}
	return d, nil
}

func (r *DeliveryGormRepository) FindByOrderID(ctx context.Context, orderID int64) (model.Delivery, bool, error) {
	var d model.Delivery
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&d).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Delivery{}, false, nil
	}
	if err != nil {
		return model.Delivery{}, false, err
	}
	return d, true, nil
}

func (r *DeliveryGormRepository) Update(ctx context.Context, d model.Delivery) error {
	res := r.db.WithContext(ctx).
		Model(&model.Delivery{}).
		Where("id = ?", d.ID).
		Updates(map[string]any{
			"carrier":         d.Carrier,
			"tracking_number": d.TrackingNumber,
			"status":          d.Status,
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
