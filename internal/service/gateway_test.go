package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rva/egopass/internal/model"
)

func TestMockGatewayReferences(t *testing.T) {
	gw := NewMockGateway("https://mock-payment-gateway.com/")
	p := &model.Payment{Method: model.MethodMobileMoney}

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		res, err := gw.InitiateMobileMoney(context.Background(), p)
		require.NoError(t, err)
		assert.Regexp(t, `^TXN-[0-9A-F]{12}$`, res.TransactionRef)
		assert.Equal(t, "https://mock-payment-gateway.com/redirect?tx="+res.TransactionRef, res.RedirectURL)
		assert.False(t, seen[res.TransactionRef], "reference repeated")
		seen[res.TransactionRef] = true
	}
}

func TestMockGatewayInstructionsPerChannel(t *testing.T) {
	gw := NewMockGateway("https://mock-payment-gateway.com")
	ctx := context.Background()

	mm, err := gw.InitiateMobileMoney(ctx, &model.Payment{})
	require.NoError(t, err)
	cc, err := gw.InitiateCreditCard(ctx, &model.Payment{}, model.CardDetails{CardNumber: "4111111111111111"})
	require.NoError(t, err)
	pp, err := gw.InitiatePayPal(ctx, &model.Payment{})
	require.NoError(t, err)

	assert.NotEmpty(t, mm.Instructions)
	assert.NotEmpty(t, cc.Instructions)
	assert.NotEmpty(t, pp.Instructions)
	assert.NotEqual(t, mm.Instructions, cc.Instructions)
	assert.NotEqual(t, cc.Instructions, pp.Instructions)
}

func TestMockGatewayAlwaysVerifies(t *testing.T) {
	gw := NewMockGateway("https://mock-payment-gateway.com")
	ok, err := gw.Verify(context.Background(), "TXN-ABCDEF123456")
	require.NoError(t, err)
	assert.True(t, ok)
}
