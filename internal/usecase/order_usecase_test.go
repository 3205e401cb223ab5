package usecase

import (
	"context"
	"sync"
	"testing"

	"shop/internal/domain/apperr"
	"shop/internal/domain/model"
	"shop/internal/infra/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.seedUser(t, "alice@example.com")
	keyboard := env.seedProduct(t, "Clavier", 1500, 3)
	mouse := env.seedProduct(t, "Souris", 1000, 5)

	env.fillCart(t, user.ID, keyboard.ID, 2)
	env.fillCart(t, user.ID, mouse.ID, 1)

	out, err := env.orders.Checkout(ctx, user.ID, CheckoutInput{IdempotencyKey: "co-1"})
	require.NoError(t, err)

	assert.Equal(t, string(model.OrderStatusCreated), out.Status)
	assert.Equal(t, int64(4000), out.Total)
	require.Len(t, out.Items, 2)
	assert.Equal(t, "Clavier", out.Items[0].Name)
	assert.Equal(t, int64(1500), out.Items[0].Price)

	//在庫が予約で減っている
	assert.Equal(t, int64(1), env.store.ProductStock(keyboard.ID))
	assert.Equal(t, int64(4), env.store.ProductStock(mouse.ID))

	//カートは空になっている
	cart, err := env.cart.GetCart(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCheckoutIdempotentReplay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.seedUser(t, "alice@example.com")
	p := env.seedProduct(t, "Clavier", 1500, 3)

	env.fillCart(t, user.ID, p.ID, 1)

	first, err := env.orders.Checkout(ctx, user.ID, CheckoutInput{IdempotencyKey: "co-1"})
	require.NoError(t, err)

	//同じキーの再実行は同じ注文を返し、在庫はもう減らない
	second, err := env.orders.Checkout(ctx, user.ID, CheckoutInput{IdempotencyKey: "co-1"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Total, second.Total)
	assert.Equal(t, int64(2), env.store.ProductStock(p.ID))
}

func TestCheckoutEmptyCart(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "alice@example.com")

	_, err := env.orders.Checkout(context.Background(), user.ID, CheckoutInput{IdempotencyKey: "co-1"})
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
}

func TestCheckoutMissingIdempotencyKey(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "alice@example.com")

	_, err := env.orders.Checkout(context.Background(), user.ID, CheckoutInput{IdempotencyKey: "  "})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestCheckoutInsufficientStockRollsBack(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.seedUser(t, "alice@example.com")
	keyboard := env.seedProduct(t, "Clavier", 1500, 5)
	mouse := env.seedProduct(t, "Souris", 1000, 1)

	env.fillCart(t, user.ID, keyboard.ID, 2)

	//カート投入後に在庫が他で減ったケースを直接再現する
	r := memory.NewTxRepos(env.store)
	cart, err := r.Carts().FindActiveByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.NoError(t, r.CartItems().UpsertByCartAndProduct(ctx, cart.ID, mouse.ID, 3, mouse.Price))

	_, err = env.orders.Checkout(ctx, user.ID, CheckoutInput{IdempotencyKey: "co-1"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "Souris")

	//先に予約した分も戻っている
	assert.Equal(t, int64(5), env.store.ProductStock(keyboard.ID))
	assert.Equal(t, int64(1), env.store.ProductStock(mouse.ID))

	//注文は作られていない
	orders, err := env.orders.ListMyOrders(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, orders)

	//カートは残っているのでリトライできる
	cartOut, err := env.cart.GetCart(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, cartOut.Items, 2)
}

func TestCheckoutConcurrentLastUnit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.seedProduct(t, "Clavier", 1500, 1)
	alice := env.seedUser(t, "alice@example.com")
	bob := env.seedUser(t, "bob@example.com")

	env.fillCart(t, alice.ID, p.ID, 1)
	env.fillCart(t, bob.ID, p.ID, 1)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, uid := range []int64{alice.ID, bob.ID} {
		wg.Add(1)
		go func(i int, uid int64) {
			defer wg.Done()
			_, errs[i] = env.orders.Checkout(ctx, uid, CheckoutInput{IdempotencyKey: "co"})
		}(i, uid)
	}
	wg.Wait()

	//どちらか一方だけ成功する
	var successes, stockouts int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case apperr.KindOf(err) == apperr.KindInsufficientStock:
			stockouts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, stockouts)
	assert.Equal(t, int64(0), env.store.ProductStock(p.ID))
}

func TestCancelRestoresStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.seedUser(t, "alice@example.com")
	p := env.seedProduct(t, "Clavier", 1500, 2)

	env.fillCart(t, user.ID, p.ID, 2)
	order, err := env.orders.Checkout(ctx, user.ID, CheckoutInput{IdempotencyKey: "co-1"})
	require.NoError(t, err)
	require.Equal(t, int64(0), env.store.ProductStock(p.ID))

	out, err := env.orders.Cancel(ctx, user.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, string(model.OrderStatusCancelled), out.Status)
	assert.Equal(t, int64(2), env.store.ProductStock(p.ID))

	//戻った在庫で再注文できる
	env.fillCart(t, user.ID, p.ID, 1)
	reorder, err := env.orders.Checkout(ctx, user.ID, CheckoutInput{IdempotencyKey: "co-2"})
	require.NoError(t, err)
	assert.NotEqual(t, order.ID, reorder.ID)
	assert.Equal(t, int64(1), env.store.ProductStock(p.ID))
}

func TestCancelTwice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.seedUser(t, "alice@example.com")
	p := env.seedProduct(t, "Clavier", 1500, 2)

	env.fillCart(t, user.ID, p.ID, 1)
	order, err := env.orders.Checkout(ctx, user.ID, CheckoutInput{IdempotencyKey: "co-1"})
	require.NoError(t, err)

	_, err = env.orders.Cancel(ctx, user.ID, order.ID)
	require.NoError(t, err)

	//二重キャンセルは拒否され、在庫は二重に戻らない
	_, err = env.orders.Cancel(ctx, user.ID, order.ID)
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
	assert.Equal(t, int64(2), env.store.ProductStock(p.ID))
}

func TestCancelNotOwned(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.seedUser(t, "alice@example.com")
	bob := env.seedUser(t, "bob@example.com")
	p := env.seedProduct(t, "Clavier", 1500, 2)

	env.fillCart(t, alice.ID, p.ID, 1)
	order, err := env.orders.Checkout(ctx, alice.ID, CheckoutInput{IdempotencyKey: "co-1"})
	require.NoError(t, err)

	//他人の注文は存在しない扱い
	_, err = env.orders.Cancel(ctx, bob.ID, order.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = env.orders.GetMyOrderDetail(ctx, bob.ID, order.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestGetMyOrderDetailNotFound(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "alice@example.com")

	_, err := env.orders.GetMyOrderDetail(context.Background(), user.ID, 9999)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = env.orders.Cancel(context.Background(), user.ID, 9999)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCheckoutDeactivatesProductAtZeroStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.seedUser(t, "alice@example.com")
	a := env.seedProduct(t, "Clavier", 1000, 5)
	b := env.seedProduct(t, "Ecran", 2000, 1)

	env.fillCart(t, user.ID, a.ID, 2)
	env.fillCart(t, user.ID, b.ID, 1)

	out, err := env.orders.Checkout(ctx, user.ID, CheckoutInput{IdempotencyKey: "co-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(4000), out.Total)
	assert.Equal(t, int64(3), env.store.ProductStock(a.ID))
	assert.Equal(t, int64(0), env.store.ProductStock(b.ID))

	//在庫ゼロになった商品はカタログから消える
	_, err = env.products.GetDetail(ctx, b.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
