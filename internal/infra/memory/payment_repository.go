package memory

import (
	"context"
	"sort"
	"time"

	"shop/internal/domain/model"
	repo "shop/internal/repository"
)

type PaymentRepository struct {
	store *Store
}

func NewPaymentRepository(store *Store) *PaymentRepository {
	return &PaymentRepository{store: store}
}

func (r *PaymentRepository) Create(ctx context.Context, p model.Payment) (model.Payment, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.payments {
		if existing.IdempotencyKey == p.IdempotencyKey {
			return model.Payment{}, repo.ErrConflict
		}
	}

	p.ID = s.nextIDLocked()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	cp := p
	s.payments[p.ID] = &cp
	return p, nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, id int64) (model.Payment, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[id]
	if !ok {
		return model.Payment{}, repo.ErrNotFound
	}
	return *p, nil
}

func (r *PaymentRepository) FindByIdempotencyKey(ctx context.Context, key string) (model.Payment, bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.payments {
		if p.IdempotencyKey == key {
			return *p, true, nil
		}
	}
	return model.Payment{}, false, nil
}

func (r *PaymentRepository) ListByOrderID(ctx context.Context, orderID int64) ([]model.Payment, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []model.Payment
	for _, p := range s.payments {
		if p.OrderID == orderID {
			items = append(items, *p)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (r *PaymentRepository) FindSucceededByOrderID(ctx context.Context, orderID int64) (model.Payment, bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var candidates []*model.Payment
	for _, p := range s.payments {
		if p.OrderID == orderID && p.Status == model.PaymentStatusSucceeded {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return model.Payment{}, false, nil
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })
	return *candidates[0], true, nil
}
