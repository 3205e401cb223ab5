package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"shop/internal/domain/model"
	repo "shop/internal/repository"
)

type ProductRepository struct {
	store *Store
}

func NewProductRepository(store *Store) *ProductRepository {
	return &ProductRepository{store: store}
}

func (r *ProductRepository) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []model.Product
	for _, p := range s.products {
		if !p.IsActive {
			continue
		}
		if q.Q != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(q.Q)) {
			continue
		}
		if q.MinPrice != nil && p.Price < *q.MinPrice {
			continue
		}
		if q.MaxPrice != nil && p.Price > *q.MaxPrice {
			continue
		}
		all = append(all, *p)
	}

	switch q.Sort {
	case "price_asc":
		sort.Slice(all, func(i, j int) bool { return all[i].Price < all[j].Price })
	case "price_desc":
		sort.Slice(all, func(i, j int) bool { return all[i].Price > all[j].Price })
	default:
		sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	}

	total := int64(len(all))
	start := (q.Page - 1) * q.Limit
	if start >= len(all) {
		return []model.Product{}, total, nil
	}
	end := start + q.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return *p, nil
}

func (r *ProductRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.nextIDLocked()
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	cp := p
	s.products[p.ID] = &cp
	return p, nil
}

func (r *ProductRepository) Update(ctx context.Context, p model.Product) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.products[p.ID]
	if !ok {
		return repo.ErrNotFound
	}
	existing.Name = p.Name
	existing.Description = p.Description
	existing.Price = p.Price
	existing.IsActive = p.IsActive
	existing.UpdatedAt = time.Now()
	return nil
}

func (r *ProductRepository) SoftDelete(ctx context.Context, id int64) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return repo.ErrNotFound
	}
	delete(s.products, id)
	return nil
}
