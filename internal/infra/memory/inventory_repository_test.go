package memory

import (
	"context"
	"sync"
	"testing"

	"shop/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventoryReserveNeverGoesNegative(t *testing.T) {
	store := NewStore()
	p := store.SeedProduct(model.Product{Name: "Clavier", Price: 1500, Stock: 10, IsActive: true})
	inv := NewInventoryRepository(store)
	ctx := context.Background()

	//在庫10に対して50並行で1個ずつ予約する
	var wg sync.WaitGroup
	results := make([]bool, 50)
	errs := make([]error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = inv.Reserve(ctx, p.ID, 1)
		}(i)
	}
	wg.Wait()

	var succeeded int
	for i, ok := range results {
		require.NoError(t, errs[i])
		if ok {
			succeeded++
		}
	}
	assert.Equal(t, 10, succeeded)
	assert.Equal(t, int64(0), store.ProductStock(p.ID))
}

func TestInventoryReserveDeactivatesAtZero(t *testing.T) {
	store := NewStore()
	p := store.SeedProduct(model.Product{Name: "Clavier", Price: 1500, Stock: 2, IsActive: true})
	inv := NewInventoryRepository(store)
	products := NewProductRepository(store)
	ctx := context.Background()

	ok, err := inv.Reserve(ctx, p.ID, 2)
	require.NoError(t, err)
	require.True(t, ok)

	//在庫ゼロで非アクティブになる
	got, err := products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	//非アクティブ商品は予約できない
	ok, err = inv.Reserve(ctx, p.ID, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	//戻すと復活する
	require.NoError(t, inv.Release(ctx, p.ID, 1))
	got, err = products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
	assert.Equal(t, int64(1), got.Stock)
}

func TestInventoryReserveInsufficient(t *testing.T) {
	store := NewStore()
	p := store.SeedProduct(model.Product{Name: "Clavier", Price: 1500, Stock: 3, IsActive: true})
	inv := NewInventoryRepository(store)
	ctx := context.Background()

	ok, err := inv.Reserve(ctx, p.ID, 4)
	require.NoError(t, err)
	assert.False(t, ok)

	//失敗時は在庫が変わらない
	assert.Equal(t, int64(3), store.ProductStock(p.ID))
}

func TestInventorySetStock(t *testing.T) {
	store := NewStore()
	p := store.SeedProduct(model.Product{Name: "Clavier", Price: 1500, Stock: 0, IsActive: false})
	inv := NewInventoryRepository(store)
	products := NewProductRepository(store)
	ctx := context.Background()

	require.NoError(t, inv.SetStock(ctx, p.ID, 7))

	got, err := products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.Stock)
	assert.True(t, got.IsActive)
}
