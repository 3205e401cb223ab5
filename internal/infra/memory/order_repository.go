package memory

import (
	"context"
	"sort"
	"time"

	"shop/internal/domain/model"
	repo "shop/internal/repository"
)

type OrderRepository struct {
	store *Store
}

func NewOrderRepository(store *Store) *OrderRepository {
	return &OrderRepository{store: store}
}

func (r *OrderRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return *o, nil
}

func (r *OrderRepository) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []model.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			all = append(all, *o)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return []model.Order{}, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *OrderRepository) Create(ctx context.Context, order model.Order) (int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range s.orders {
		if o.UserID == order.UserID && o.IdempotencyKey == order.IdempotencyKey {
			return 0, repo.ErrConflict
		}
	}

	order.ID = s.nextIDLocked()
	cp := order
	s.orders[order.ID] = &cp
	return order.ID, nil
}

func (r *OrderRepository) TransitionStatus(ctx context.Context, orderID int64, from, to model.OrderStatus, at time.Time) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok || o.Status != from {
		return repo.ErrNotFound
	}

	o.Status = to
	o.UpdatedAt = at
	ts := at
	switch to {
	case model.OrderStatusPaid:
		o.PaidAt = &ts
	case model.OrderStatusValidated:
		o.ValidatedAt = &ts
	case model.OrderStatusShipped:
		o.ShippedAt = &ts
	case model.OrderStatusDelivered:
		o.DeliveredAt = &ts
	case model.OrderStatusCancelled:
		o.CancelledAt = &ts
	case model.OrderStatusRefunded:
		o.RefundedAt = &ts
	}
	return nil
}

func (r *OrderRepository) FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range s.orders {
		if o.UserID == userID && o.IdempotencyKey == key {
			return *o, true, nil
		}
	}
	return model.Order{}, false, nil
}

func (r *OrderRepository) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []model.Order
	for _, o := range s.orders {
		if f.Status != "" && string(o.Status) != f.Status {
			continue
		}
		if f.UserID != nil && o.UserID != *f.UserID {
			continue
		}
		if f.From != nil && o.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && o.CreatedAt.After(*f.To) {
			continue
		}
		all = append(all, *o)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return all, int64(len(all)), nil
}

type OrderItemRepository struct {
	store *Store
}

func NewOrderItemRepository(store *Store) *OrderItemRepository {
	return &OrderItemRepository{store: store}
}

func (r *OrderItemRepository) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range items {
		it.ID = s.nextIDLocked()
		it.OrderID = orderID
		s.orderItems[orderID] = append(s.orderItems[orderID], it)
	}
	return nil
}

func (r *OrderItemRepository) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.orderItems[orderID]
	out := make([]model.OrderItem, len(items))
	copy(out, items)
	return out, nil
}
