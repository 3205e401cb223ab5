package usecase

import (
	"context"
	"testing"

	"shop/internal/domain/apperr"
	"shop/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddToCartMergesSameProduct(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.seedUser(t, "alice@example.com")
	p := env.seedProduct(t, "Clavier", 1500, 5)

	_, err := env.cart.AddToCart(ctx, user.ID, AddToCartInput{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)

	out, err := env.cart.AddToCart(ctx, user.ID, AddToCartInput{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)

	//同一商品は1行に数量加算される
	require.Len(t, out.Items, 1)
	assert.Equal(t, int64(3), out.Items[0].Quantity)
	assert.Equal(t, int64(4500), out.Total)

	//カート投入では在庫は減らない
	assert.Equal(t, int64(5), env.store.ProductStock(p.ID))
}

func TestAddToCartOverStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.seedUser(t, "alice@example.com")
	p := env.seedProduct(t, "Clavier", 1500, 2)

	_, err := env.cart.AddToCart(ctx, user.ID, AddToCartInput{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)

	//既存行との合算で在庫を超える追加は拒否
	_, err = env.cart.AddToCart(ctx, user.ID, AddToCartInput{ProductID: p.ID, Quantity: 1})
	assert.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(err))
}

func TestAddToCartInactiveProduct(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.seedUser(t, "alice@example.com")
	p := env.store.SeedProduct(model.Product{Name: "Clavier", Price: 1500, Stock: 0, IsActive: false})

	_, err := env.cart.AddToCart(ctx, user.ID, AddToCartInput{ProductID: p.ID, Quantity: 1})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestUpdateItemQuantityZeroRemoves(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.seedUser(t, "alice@example.com")
	p := env.seedProduct(t, "Clavier", 1500, 5)

	out, err := env.cart.AddToCart(ctx, user.ID, AddToCartInput{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)

	out, err = env.cart.UpdateItem(ctx, user.ID, out.Items[0].ID, 0)
	require.NoError(t, err)
	assert.Empty(t, out.Items)
	assert.Equal(t, int64(0), out.Total)
}

func TestUpdateItemNotOwned(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.seedUser(t, "alice@example.com")
	bob := env.seedUser(t, "bob@example.com")
	p := env.seedProduct(t, "Clavier", 1500, 5)

	out, err := env.cart.AddToCart(ctx, alice.ID, AddToCartInput{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)

	_, err = env.cart.UpdateItem(ctx, bob.ID, out.Items[0].ID, 2)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
