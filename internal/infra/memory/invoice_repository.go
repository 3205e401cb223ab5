package memory

import (
	"context"
	"time"

	"shop/internal/domain/model"
	repo "shop/internal/repository"
)

type InvoiceRepository struct {
	store *Store
}

func NewInvoiceRepository(store *Store) *InvoiceRepository {
	return &InvoiceRepository{store: store}
}

// 1注文1枚。既にあれば既存を返す（二重発行しない）。
func (r *InvoiceRepository) Create(ctx context.Context, inv model.Invoice, lines []model.InvoiceLine) (model.Invoice, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.invoices[inv.OrderID]; ok {
		return *existing, nil
	}

	inv.ID = s.nextIDLocked()
	cp := inv
	s.invoices[inv.OrderID] = &cp

	for _, l := range lines {
		l.ID = s.nextIDLocked()
		l.InvoiceID = inv.ID
		s.invoiceLines[inv.ID] = append(s.invoiceLines[inv.ID], l)
	}
	return inv, nil
}

func (r *InvoiceRepository) FindByOrderID(ctx context.Context, orderID int64) (model.Invoice, bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoices[orderID]
	if !ok {
		return model.Invoice{}, false, nil
	}
	return *inv, true, nil
}

func (r *InvoiceRepository) ListLines(ctx context.Context, invoiceID int64) ([]model.InvoiceLine, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.invoiceLines[invoiceID]
	out := make([]model.InvoiceLine, len(lines))
	copy(out, lines)
	return out, nil
}

type UserRepository struct {
	store *Store
}

func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (model.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return model.User{}, repo.ErrNotFound
	}
	return *u, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return *u, nil
		}
	}
	return model.User{}, repo.ErrNotFound
}

func (r *UserRepository) Create(ctx context.Context, u model.User) (model.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == u.Email {
			return model.User{}, repo.ErrConflict
		}
	}

	u.ID = s.nextIDLocked()
	cp := u
	s.users[u.ID] = &cp
	return u, nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	ts := at
	u.LastLoginAt = &ts
	return nil
}
