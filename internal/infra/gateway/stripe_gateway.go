package gateway

import (
	"context"

	"shop/internal/usecase"

	stripe "github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"
	"github.com/stripe/stripe-go/v83/refund"
)

// StripeGateway は本番用の決済実装。
// CardInput.Number には生のカード番号ではなく、フロントでトークン化した
// PaymentMethod ID（pm_...）が入ってくる前提。
type StripeGateway struct {
	currency string
}

func NewStripeGateway(apiKey string, currency string) *StripeGateway {
	stripe.Key = apiKey
	if currency == "" {
		currency = "eur"
	}
	return &StripeGateway{currency: currency}
}

func (g *StripeGateway) Charge(ctx context.Context, amount int64, card usecase.CardInput) (usecase.ChargeResult, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(amount),
		Currency:      stripe.String(g.currency),
		PaymentMethod: stripe.String(card.Number),
		Confirm:       stripe.Bool(true),
	}
	params.Context = ctx

	pi, err := paymentintent.New(params)
	if err != nil {
		// Stripe側での拒否はエラーではなく失敗結果として返す
		if stripeErr, ok := err.(*stripe.Error); ok {
			return usecase.ChargeResult{
				Success:       false,
				FailureReason: string(stripeErr.Code),
			}, nil
		}
		return usecase.ChargeResult{}, err
	}

	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return usecase.ChargeResult{
			Success:       false,
			FailureReason: string(pi.Status),
		}, nil
	}

	return usecase.ChargeResult{
		Success:   true,
		Reference: pi.ID,
	}, nil
}

func (g *StripeGateway) Refund(ctx context.Context, reference string, amount int64) (usecase.RefundResult, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(reference),
		Amount:        stripe.Int64(amount),
	}
	params.Context = ctx

	r, err := refund.New(params)
	if err != nil {
		if _, ok := err.(*stripe.Error); ok {
			return usecase.RefundResult{Success: false}, nil
		}
		return usecase.RefundResult{}, err
	}

	return usecase.RefundResult{
		Success:  r.Status != stripe.RefundStatusFailed,
		RefundID: r.ID,
	}, nil
}
