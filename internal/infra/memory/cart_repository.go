package memory

import (
	"context"
	"sort"
	"time"

	"shop/internal/domain/model"
	repo "shop/internal/repository"
)

type CartRepository struct {
	store *Store
}

func NewCartRepository(store *Store) *CartRepository {
	return &CartRepository{store: store}
}

func (r *CartRepository) GetOrCreateActiveByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if c := findActiveLocked(s, userID); c != nil {
		return *c, nil
	}

	now := time.Now()
	cart := model.Cart{
		ID:        s.nextIDLocked(),
		UserID:    userID,
		Status:    model.CartStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.carts[cart.ID] = &cart
	return cart, nil
}

func (r *CartRepository) FindActiveByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if c := findActiveLocked(s, userID); c != nil {
		return *c, nil
	}
	return model.Cart{}, repo.ErrNotFound
}

func findActiveLocked(s *Store, userID int64) *model.Cart {
	var latest *model.Cart
	for _, c := range s.carts {
		if c.UserID == userID && c.Status == model.CartStatusActive {
			if latest == nil || c.ID > latest.ID {
				latest = c
			}
		}
	}
	return latest
}

func (r *CartRepository) UpdateStatus(ctx context.Context, cartID int64, status model.CartStatus) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[cartID]
	if !ok {
		return repo.ErrNotFound
	}
	c.Status = status
	c.UpdatedAt = time.Now()
	return nil
}

func (r *CartRepository) Clear(ctx context.Context, cartID int64) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.carts[cartID]; !ok {
		return repo.ErrNotFound
	}
	for id, it := range s.cartItems {
		if it.CartID == cartID {
			delete(s.cartItems, id)
		}
	}
	return nil
}

type CartItemRepository struct {
	store *Store
}

func NewCartItemRepository(store *Store) *CartItemRepository {
	return &CartItemRepository{store: store}
}

func (r *CartItemRepository) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []model.CartItem
	for _, it := range s.cartItems {
		if it.CartID == cartID {
			items = append(items, *it)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (r *CartItemRepository) UpsertByCartAndProduct(ctx context.Context, cartID int64, productID int64, addQty int64, unitPriceSnapshot int64) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for _, it := range s.cartItems {
		if it.CartID == cartID && it.ProductID == productID {
			it.Quantity += addQty
			it.UpdatedAt = now
			return nil
		}
	}

	item := model.CartItem{
		ID:                s.nextIDLocked(),
		CartID:            cartID,
		ProductID:         productID,
		Quantity:          addQty,
		UnitPriceSnapshot: unitPriceSnapshot,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	s.cartItems[item.ID] = &item
	return nil
}

func (r *CartItemRepository) UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.cartItems[cartItemID]
	if !ok {
		return repo.ErrNotFound
	}
	it.Quantity = qty
	it.UpdatedAt = time.Now()
	return nil
}

func (r *CartItemRepository) DeleteByID(ctx context.Context, cartItemID int64) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cartItems[cartItemID]; !ok {
		return repo.ErrNotFound
	}
	delete(s.cartItems, cartItemID)
	return nil
}

func (r *CartItemRepository) FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.cartItems[cartItemID]
	if !ok {
		return model.CartItem{}, repo.ErrNotFound
	}
	return *it, nil
}
