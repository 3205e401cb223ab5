package memory

import (
	"context"

	"shop/internal/domain/model"
	repo "shop/internal/repository"
)

type InventoryRepository struct {
	store *Store
}

func NewInventoryRepository(store *Store) *InventoryRepository {
	return &InventoryRepository{store: store}
}

// Reserve はロック1回の中で条件チェックと減算を行う。
func (r *InventoryRepository) Reserve(ctx context.Context, productID int64, qty int64) (bool, error) {
	if qty <= 0 {
		return false, nil
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok || !p.IsActive || p.Stock < qty {
		return false, nil
	}

	p.Stock -= qty
	if p.Stock == 0 {
		p.IsActive = false
	}
	return true, nil
}

func (r *InventoryRepository) Release(ctx context.Context, productID int64, qty int64) error {
	if qty <= 0 {
		return nil
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok {
		return repo.ErrNotFound
	}

	p.Stock += qty
	p.IsActive = true
	return nil
}

func (r *InventoryRepository) SetStock(ctx context.Context, productID int64, newStock int64) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok {
		return repo.ErrNotFound
	}

	p.Stock = newStock
	p.IsActive = newStock > 0
	return nil
}

func (r *InventoryRepository) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	adj.ID = s.nextIDLocked()
	s.adjustments = append(s.adjustments, adj)
	return nil
}
