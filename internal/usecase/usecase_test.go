package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"shop/internal/domain/model"
	"shop/internal/infra/memory"

	"go.uber.org/zap"
)

// fakeGateway は決済ゲートウェイのテストダブル。
// "0000" で終わるカード番号を拒否する（シミュレーションと同じ規則）。
type fakeGateway struct {
	mu         sync.Mutex
	charges    int
	refunds    int
	failRefund bool
}

func (g *fakeGateway) Charge(ctx context.Context, amount int64, card CardInput) (ChargeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.charges++
	if strings.HasSuffix(card.Number, "0000") {
		return ChargeResult{Success: false, FailureReason: "card declined"}, nil
	}
	return ChargeResult{Success: true, Reference: fmt.Sprintf("ch_%d", g.charges)}, nil
}

func (g *fakeGateway) Refund(ctx context.Context, reference string, amount int64) (RefundResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refunds++
	if g.failRefund {
		return RefundResult{Success: false}, nil
	}
	return RefundResult{Success: true, RefundID: fmt.Sprintf("re_%d", g.refunds)}, nil
}

func (g *fakeGateway) chargeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.charges
}

type stubIssuer struct{}

func (stubIssuer) Issue(userID int64, role model.Role) (string, error) {
	return fmt.Sprintf("token-%d-%s", userID, role), nil
}

type testEnv struct {
	store   *memory.Store
	gateway *fakeGateway

	auth       *AuthUsecase
	products   *ProductUsecase
	cart       *CartUsecase
	orders     *OrderUsecase
	payments   *PaymentUsecase
	billing    *BillingUsecase
	deliveries *DeliveryUsecase
	admin      *AdminOrderUsecase
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewStore()
	tx := memory.NewTxManager(store)
	gw := &fakeGateway{}
	logger := zap.NewNop()

	auditRepo := memory.NewAuditLogRepository(store)
	productRepo := memory.NewProductRepository(store)

	return &testEnv{
		store:      store,
		gateway:    gw,
		auth:       NewAuthUsecase(memory.NewUserRepository(store), stubIssuer{}, logger),
		products:   NewProductUsecase(productRepo, tx, auditRepo, logger),
		cart:       NewCartUsecase(tx),
		orders:     NewOrderUsecase(tx, logger),
		payments:   NewPaymentUsecase(tx, gw, NopMailer{}, logger),
		billing:    NewBillingUsecase(tx),
		deliveries: NewDeliveryUsecase(tx),
		admin:      NewAdminOrderUsecase(tx, gw, auditRepo, logger),
	}
}

func (e *testEnv) seedUser(t *testing.T, email string) model.User {
	t.Helper()
	return e.store.SeedUser(model.User{Email: email, Role: model.RoleUser, IsActive: true})
}

func (e *testEnv) seedAdmin(t *testing.T) model.User {
	t.Helper()
	return e.store.SeedUser(model.User{Email: "admin@example.com", Role: model.RoleAdmin, IsActive: true})
}

func (e *testEnv) seedProduct(t *testing.T, name string, price, stock int64) model.Product {
	t.Helper()
	return e.store.SeedProduct(model.Product{Name: name, Price: price, Stock: stock, IsActive: stock > 0})
}

// fillCart はカートに商品を入れる。
func (e *testEnv) fillCart(t *testing.T, userID int64, productID int64, qty int64) {
	t.Helper()
	if _, err := e.cart.AddToCart(context.Background(), userID, AddToCartInput{ProductID: productID, Quantity: qty}); err != nil {
		t.Fatalf("fill cart: %v", err)
	}
}

// paidOrder はチェックアウト済み・支払い済みの注文を用意する。
func (e *testEnv) paidOrder(t *testing.T, userID int64, productID int64, qty int64, key string) OrderOutput {
	t.Helper()
	ctx := context.Background()

	e.fillCart(t, userID, productID, qty)
	order, err := e.orders.Checkout(ctx, userID, CheckoutInput{IdempotencyKey: key})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if _, err := e.payments.Pay(ctx, userID, order.ID, PayInput{
		Card:           validCard(),
		IdempotencyKey: "pay-" + key,
	}); err != nil {
		t.Fatalf("pay: %v", err)
	}
	return order
}

func validCard() CardInput {
	return CardInput{Number: "4242424242424242", ExpMonth: 12, ExpYear: 2030, CVC: "123"}
}

func declinedCard() CardInput {
	return CardInput{Number: "4242424242420000", ExpMonth: 12, ExpYear: 2030, CVC: "123"}
}
