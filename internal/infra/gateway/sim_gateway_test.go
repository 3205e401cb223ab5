package gateway

import (
	"context"
	"testing"

	"shop/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimGatewayCharge(t *testing.T) {
	g := NewSimGateway()
	ctx := context.Background()

	ok, err := g.Charge(ctx, 3000, usecase.CardInput{Number: "4242424242424242"})
	require.NoError(t, err)
	assert.True(t, ok.Success)
	assert.NotEmpty(t, ok.Reference)

	//"0000"で終わるカードは常に拒否
	declined, err := g.Charge(ctx, 3000, usecase.CardInput{Number: "4242424242420000"})
	require.NoError(t, err)
	assert.False(t, declined.Success)
	assert.Equal(t, "card declined", declined.FailureReason)
	assert.Empty(t, declined.Reference)
}

func TestSimGatewayRefund(t *testing.T) {
	g := NewSimGateway()

	out, err := g.Refund(context.Background(), "ch_1", 3000)
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.NotEmpty(t, out.RefundID)
}
