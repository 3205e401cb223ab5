// Package memory はリポジトリ群のインメモリ実装。
// テストダブルとして使う。1つのミューテックスで全テーブルを守るので、
// 在庫のreserve/releaseは商品単位で直列化される。
package memory

import (
	"context"
	"sync"

	"shop/internal/domain/model"
	repo "shop/internal/repository"
)

type Store struct {
	mu sync.Mutex

	products     map[int64]*model.Product
	orders       map[int64]*model.Order
	orderItems   map[int64][]model.OrderItem // orderID -> items（挿入順）
	carts        map[int64]*model.Cart
	cartItems    map[int64]*model.CartItem
	payments     map[int64]*model.Payment
	deliveries   map[int64]*model.Delivery // orderID -> delivery
	invoices     map[int64]*model.Invoice  // orderID -> invoice
	invoiceLines map[int64][]model.InvoiceLine
	users        map[int64]*model.User
	adjustments  []model.InventoryAdjustment
	auditLogs    []model.AuditLog

	nextID int64
}

func NewStore() *Store {
	return &Store{
		products:     map[int64]*model.Product{},
		orders:       map[int64]*model.Order{},
		orderItems:   map[int64][]model.OrderItem{},
		carts:        map[int64]*model.Cart{},
		cartItems:    map[int64]*model.CartItem{},
		payments:     map[int64]*model.Payment{},
		deliveries:   map[int64]*model.Delivery{},
		invoices:     map[int64]*model.Invoice{},
		invoiceLines: map[int64][]model.InvoiceLine{},
		users:        map[int64]*model.User{},
	}
}

// ロック保持中に呼ぶこと
func (s *Store) nextIDLocked() int64 {
	s.nextID++
	return s.nextID
}

// SeedProduct はテスト用に商品を登録する。
func (s *Store) SeedProduct(p model.Product) model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.nextIDLocked()
	}
	cp := p
	s.products[p.ID] = &cp
	return p
}

// SeedUser はテスト用にユーザーを登録する。
func (s *Store) SeedUser(u model.User) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.nextIDLocked()
	}
	cp := u
	s.users[u.ID] = &cp
	return u
}

// ProductStock は検証用に現在の在庫を返す。
func (s *Store) ProductStock(productID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[productID]; ok {
		return p.Stock
	}
	return 0
}

// AuditLogs は記録された監査ログのコピーを返す。
func (s *Store) AuditLogs() []model.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.AuditLog, len(s.auditLogs))
	copy(out, s.auditLogs)
	return out
}

// TxManager はトランザクションを張らずにそのまま実行する。
// 巻き戻しが必要な経路（チェックアウト失敗時のrelease）はusecase側の
// 補償処理が担う前提。
type TxManager struct {
	store *Store
}

func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

func (tm *TxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return fn(NewTxRepos(tm.store))
}

type txRepos struct {
	store *Store
}

func NewTxRepos(store *Store) repo.TxRepos {
	return &txRepos{store: store}
}

func (r *txRepos) Orders() repo.OrderRepository         { return &OrderRepository{store: r.store} }
func (r *txRepos) OrderItems() repo.OrderItemRepository { return &OrderItemRepository{store: r.store} }
func (r *txRepos) Carts() repo.CartRepository           { return &CartRepository{store: r.store} }
func (r *txRepos) CartItems() repo.CartItemRepository   { return &CartItemRepository{store: r.store} }
func (r *txRepos) Inventory() repo.InventoryRepository  { return &InventoryRepository{store: r.store} }
func (r *txRepos) Products() repo.ProductRepository     { return &ProductRepository{store: r.store} }
func (r *txRepos) Payments() repo.PaymentRepository     { return &PaymentRepository{store: r.store} }
func (r *txRepos) Deliveries() repo.DeliveryRepository  { return &DeliveryRepository{store: r.store} }
func (r *txRepos) Invoices() repo.InvoiceRepository     { return &InvoiceRepository{store: r.store} }
func (r *txRepos) Users() repo.UserRepository           { return &UserRepository{store: r.store} }
