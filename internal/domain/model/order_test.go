package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusCanTransitionTo(t *testing.T) {
	cases := []struct {
		from OrderStatus
		to   OrderStatus
		ok   bool
	}{
		//正常ルート
		{OrderStatusCreated, OrderStatusPaid, true},
		{OrderStatusPaid, OrderStatusValidated, true},
		{OrderStatusValidated, OrderStatusShipped, true},
		{OrderStatusShipped, OrderStatusDelivered, true},

		//キャンセルは出荷前のみ
		{OrderStatusCreated, OrderStatusCancelled, true},
		{OrderStatusPaid, OrderStatusCancelled, true},
		{OrderStatusValidated, OrderStatusCancelled, true},
		{OrderStatusShipped, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusCancelled, false},

		//返金は支払い後かキャンセル後のみ
		{OrderStatusPaid, OrderStatusRefunded, true},
		{OrderStatusCancelled, OrderStatusRefunded, true},
		{OrderStatusCreated, OrderStatusRefunded, false},
		{OrderStatusValidated, OrderStatusRefunded, false},
		{OrderStatusShipped, OrderStatusRefunded, false},
		{OrderStatusDelivered, OrderStatusRefunded, false},

		//スキップ・逆行は不可
		{OrderStatusCreated, OrderStatusValidated, false},
		{OrderStatusCreated, OrderStatusShipped, false},
		{OrderStatusPaid, OrderStatusShipped, false},
		{OrderStatusPaid, OrderStatusDelivered, false},
		{OrderStatusValidated, OrderStatusPaid, false},
		{OrderStatusShipped, OrderStatusValidated, false},

		//終端からは動けない
		{OrderStatusDelivered, OrderStatusRefunded, false},
		{OrderStatusRefunded, OrderStatusCancelled, false},
		{OrderStatusRefunded, OrderStatusPaid, false},

		//自己遷移は不可
		{OrderStatusPaid, OrderStatusPaid, false},
	}

	for _, c := range cases {
		got := c.from.CanTransitionTo(c.to)
		assert.Equalf(t, c.ok, got, "%s -> %s", c.from, c.to)
	}
}

func TestOrderStatusValid(t *testing.T) {
	for _, s := range []OrderStatus{
		OrderStatusCreated, OrderStatusPaid, OrderStatusValidated,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded,
	} {
		assert.Truef(t, s.Valid(), "%s", s)
	}
	assert.False(t, OrderStatus("UNKNOWN").Valid())
	assert.False(t, OrderStatus("").Valid())
}

func TestOrderTotal(t *testing.T) {
	items := []OrderItem{
		{UnitPriceSnapshot: 1500, Quantity: 2},
		{UnitPriceSnapshot: 1000, Quantity: 1},
	}
	assert.Equal(t, int64(4000), OrderTotal(items))
	assert.Equal(t, int64(0), OrderTotal(nil))
}
