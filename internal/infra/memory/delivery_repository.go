package memory

import (
	"context"
	"time"

	"shop/internal/domain/model"
	repo "shop/internal/repository"
)

type DeliveryRepository struct {
	store *Store
}

func NewDeliveryRepository(store *Store) *DeliveryRepository {
	return &DeliveryRepository{store: store}
}

// 1注文1配送。既にあれば既存を返す。
func (r *DeliveryRepository) Create(ctx context.Context, d model.Delivery) (model.Delivery, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.deliveries[d.OrderID]; ok {
		return *existing, nil
	}

	d.ID = s.nextIDLocked()
	now := time.Now()
	d.CreatedAt = now
	d.UpdatedAt = now
	cp := d
	s.deliveries[d.OrderID] = &cp
	return d, nil
}

func (r *DeliveryRepository) FindByOrderID(ctx context.Context, orderID int64) (model.Delivery, bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.deliveries[orderID]
	if !ok {
		return model.Delivery{}, false, nil
	}
	return *d, true, nil
}

func (r *DeliveryRepository) Update(ctx context.Context, d model.Delivery) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.deliveries[d.OrderID]
	if !ok {
		return repo.ErrNotFound
	}
	existing.Carrier = d.Carrier
	existing.TrackingNumber = d.TrackingNumber
	existing.Status = d.Status
	existing.UpdatedAt = time.Now()
	return nil
}
