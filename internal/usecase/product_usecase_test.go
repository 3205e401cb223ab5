package usecase

import (
	"context"
	"testing"

	"shop/internal/domain/apperr"
	"shop/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductListOnlyActive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.seedProduct(t, "Clavier", 1500, 3)
	env.store.SeedProduct(model.Product{Name: "Souris", Price: 1000, Stock: 0, IsActive: false})

	out, err := env.products.List(ctx, ProductListInput{})
	require.NoError(t, err)
	require.Equal(t, int64(1), out.Total)
	assert.Equal(t, "Clavier", out.Products[0].Name)
}

func TestProductDetailInactiveHidden(t *testing.T) {
	env := newTestEnv(t)
	p := env.store.SeedProduct(model.Product{Name: "Souris", Price: 1000, Stock: 0, IsActive: false})

	_, err := env.products.GetDetail(context.Background(), p.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestAdminCreateProduct(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.seedAdmin(t)

	out, err := env.products.Create(ctx, admin.ID, ProductCreateInput{
		Name:  "Clavier",
		Price: 1500,
		Stock: 3,
	})
	require.NoError(t, err)
	assert.True(t, out.IsActive)

	//在庫ゼロで作ると非アクティブ
	zero, err := env.products.Create(ctx, admin.ID, ProductCreateInput{Name: "Souris", Price: 1000})
	require.NoError(t, err)
	assert.False(t, zero.IsActive)
}

func TestAdminCreateProductDeniedForUser(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "alice@example.com")

	_, err := env.products.Create(context.Background(), user.ID, ProductCreateInput{Name: "Clavier", Price: 1500})
	assert.Equal(t, apperr.KindPermissionDenied, apperr.KindOf(err))
}

func TestAdminSetStockReactivatesAndAudits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.seedAdmin(t)
	p := env.store.SeedProduct(model.Product{Name: "Clavier", Price: 1500, Stock: 0, IsActive: false})

	out, err := env.products.SetStock(ctx, admin.ID, p.ID, SetStockInput{Stock: 5, Reason: "restock"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), out.Stock)
	assert.True(t, out.IsActive)

	logs := env.store.AuditLogs()
	require.NotEmpty(t, logs)
	last := logs[len(logs)-1]
	assert.Equal(t, model.AuditActionUpdateStock, last.Action)
	assert.Equal(t, p.ID, last.ResourceID)
	assert.Contains(t, last.BeforeJSON, `"stock":0`)
	assert.Contains(t, last.AfterJSON, `"stock":5`)
}

func TestAdminUpdateProductKeepsStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.seedAdmin(t)
	p := env.seedProduct(t, "Clavier", 1500, 3)

	newPrice := int64(1800)
	out, err := env.products.Update(ctx, admin.ID, p.ID, ProductUpdateInput{Price: &newPrice})
	require.NoError(t, err)
	assert.Equal(t, int64(1800), out.Price)

	//価格変更では在庫は動かない
	assert.Equal(t, int64(3), env.store.ProductStock(p.ID))
}
