package usecase

import (
	"context"
	"strings"
	"testing"

	"shop/internal/domain/apperr"
	"shop/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminFulfillmentFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.seedAdmin(t)
	user := env.seedUser(t, "alice@example.com")
	p := env.seedProduct(t, "Clavier", 1500, 3)

	order := env.paidOrder(t, user.ID, p.ID, 1, "co-1")

	//PAID → VALIDATED で配送が準備される
	out, err := env.admin.Validate(ctx, admin.ID, order.ID, "")
	require.NoError(t, err)
	assert.Equal(t, string(model.OrderStatusValidated), out.Status)

	d, err := env.deliveries.GetDelivery(ctx, user.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, string(model.DeliveryStatusPreparing), d.Status)
	assert.Equal(t, "POSTE", d.Carrier)
	assert.Empty(t, d.TrackingNumber)

	//VALIDATED → SHIPPED で追跡番号が採番される
	out, err = env.admin.Ship(ctx, admin.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, string(model.OrderStatusShipped), out.Status)

	d, err = env.deliveries.GetDelivery(ctx, user.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, string(model.DeliveryStatusInTransit), d.Status)
	assert.True(t, strings.HasPrefix(d.TrackingNumber, "TRK-"), d.TrackingNumber)
	assert.Len(t, d.TrackingNumber, 14)

	//SHIPPED → DELIVERED
	out, err = env.admin.MarkDelivered(ctx, admin.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, string(model.OrderStatusDelivered), out.Status)

	d, err = env.deliveries.GetDelivery(ctx, user.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, string(model.DeliveryStatusDelivered), d.Status)
}

func TestAdminShipBeforeValidate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.seedAdmin(t)
	user := env.seedUser(t, "alice@example.com")
	p := env.seedProduct(t, "Clavier", 1500, 3)

	order := env.paidOrder(t, user.ID, p.ID, 1, "co-1")

	_, err := env.admin.Ship(ctx, admin.ID, order.ID)
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
}

func TestAdminValidateUnpaid(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.seedAdmin(t)
	user := env.seedUser(t, "alice@example.com")
	p := env.seedProduct(t, "Clavier", 1500, 3)

	env.fillCart(t, user.ID, p.ID, 1)
	order, err := env.orders.Checkout(ctx, user.ID, CheckoutInput{IdempotencyKey: "co-1"})
	require.NoError(t, err)

	_, err = env.admin.Validate(ctx, admin.ID, order.ID, "")
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
}

func TestAdminOperationsDeniedForUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.seedUser(t, "alice@example.com")
	p := env.seedProduct(t, "Clavier", 1500, 3)

	order := env.paidOrder(t, user.ID, p.ID, 1, "co-1")

	//一般ユーザーはトークンを偽ってもDB上のロールで弾く
	_, err := env.admin.Validate(ctx, user.ID, order.ID, "")
	assert.Equal(t, apperr.KindPermissionDenied, apperr.KindOf(err))

	_, err = env.admin.Refund(ctx, user.ID, order.ID)
	assert.Equal(t, apperr.KindPermissionDenied, apperr.KindOf(err))

	_, err = env.admin.List(ctx, user.ID, AdminOrderListInput{})
	assert.Equal(t, apperr.KindPermissionDenied, apperr.KindOf(err))
}

func TestRefundFromPaid(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.seedAdmin(t)
	user := env.seedUser(t, "alice@example.com")
	p := env.seedProduct(t, "Clavier", 1500, 3)

	order := env.paidOrder(t, user.ID, p.ID, 2, "co-1")
	require.Equal(t, int64(1), env.store.ProductStock(p.ID))

	out, err := env.admin.Refund(ctx, admin.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, string(model.OrderStatusRefunded), out.Status)

	//PAIDからの返金は在庫も戻す
	assert.Equal(t, int64(3), env.store.ProductStock(p.ID))

	//負の金額のREFUNDED行が追加されている
	history, err := env.payments.ListPayments(ctx, user.ID, order.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)

	var refund *PaymentOutput
	for i := range history {
		if history[i].Status == string(model.PaymentStatusRefunded) {
			refund = &history[i]
		}
	}
	require.NotNil(t, refund)
	assert.Equal(t, int64(-3000), refund.Amount)
	assert.Equal(t, model.PaymentMethodRefund, refund.Method)

	//二重返金は拒否される
	_, err = env.admin.Refund(ctx, admin.ID, order.ID)
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
	assert.Equal(t, int64(3), env.store.ProductStock(p.ID))
}

func TestRefundFromCancelledDoesNotReleaseTwice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.seedAdmin(t)
	user := env.seedUser(t, "alice@example.com")
	p := env.seedProduct(t, "Clavier", 1500, 3)

	order := env.paidOrder(t, user.ID, p.ID, 2, "co-1")

	//キャンセル時点で在庫は戻る
	_, err := env.admin.Cancel(ctx, admin.ID, order.ID)
	require.NoError(t, err)
	require.Equal(t, int64(3), env.store.ProductStock(p.ID))

	//CANCELLEDからの返金は在庫を二重に戻さない
	out, err := env.admin.Refund(ctx, admin.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, string(model.OrderStatusRefunded), out.Status)
	assert.Equal(t, int64(3), env.store.ProductStock(p.ID))
}

func TestRefundWithoutPayment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.seedAdmin(t)
	user := env.seedUser(t, "alice@example.com")
	p := env.seedProduct(t, "Clavier", 1500, 3)

	env.fillCart(t, user.ID, p.ID, 1)
	order, err := env.orders.Checkout(ctx, user.ID, CheckoutInput{IdempotencyKey: "co-1"})
	require.NoError(t, err)

	//未払いの注文は返金できない
	_, err = env.admin.Refund(ctx, admin.ID, order.ID)
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
}

func TestRefundGatewayFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.seedAdmin(t)
	user := env.seedUser(t, "alice@example.com")
	p := env.seedProduct(t, "Clavier", 1500, 3)

	order := env.paidOrder(t, user.ID, p.ID, 1, "co-1")

	env.gateway.failRefund = true
	_, err := env.admin.Refund(ctx, admin.ID, order.ID)
	assert.Equal(t, apperr.KindGatewayFailure, apperr.KindOf(err))

	//注文はPAIDのまま、在庫も動かない
	detail, err := env.orders.GetMyOrderDetail(ctx, user.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, string(model.OrderStatusPaid), detail.Status)
	assert.Equal(t, int64(2), env.store.ProductStock(p.ID))
}

func TestAdminTransitionsWriteAuditLog(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.seedAdmin(t)
	user := env.seedUser(t, "alice@example.com")
	p := env.seedProduct(t, "Clavier", 1500, 3)

	order := env.paidOrder(t, user.ID, p.ID, 1, "co-1")

	_, err := env.admin.Validate(ctx, admin.ID, order.ID, "")
	require.NoError(t, err)

	logs := env.store.AuditLogs()
	require.NotEmpty(t, logs)
	last := logs[len(logs)-1]
	assert.Equal(t, admin.ID, last.ActorUserID)
	assert.Equal(t, model.AuditActionUpdateOrderStatus, last.Action)
	assert.Equal(t, order.ID, last.ResourceID)
	assert.Contains(t, last.AfterJSON, "VALIDATED")
}

func TestAdminList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.seedAdmin(t)
	alice := env.seedUser(t, "alice@example.com")
	bob := env.seedUser(t, "bob@example.com")
	p := env.seedProduct(t, "Clavier", 1500, 10)

	env.paidOrder(t, alice.ID, p.ID, 1, "co-a")
	env.fillCart(t, bob.ID, p.ID, 1)
	_, err := env.orders.Checkout(ctx, bob.ID, CheckoutInput{IdempotencyKey: "co-b"})
	require.NoError(t, err)

	all, err := env.admin.List(ctx, admin.ID, AdminOrderListInput{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Total)

	paid, err := env.admin.List(ctx, admin.ID, AdminOrderListInput{Status: string(model.OrderStatusPaid)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), paid.Total)

	_, err = env.admin.List(ctx, admin.ID, AdminOrderListInput{Status: "BOGUS"})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}
