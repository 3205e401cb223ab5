// Package gateway は決済ゲートウェイの実装。
package gateway

import (
	"context"
	"strings"

	"shop/internal/usecase"

	"github.com/google/uuid"
)

// DeclineSuffix で終わるカード番号は常に拒否される。
// 決済フローのテスト・デモ用の決定的なルール。
const DeclineSuffix = "0000"

// SimGateway は外部決済のシミュレーション。
// 拒否以外は常に成功し、取引参照としてUUIDを返す。
type SimGateway struct{}

func NewSimGateway() *SimGateway {
	return &SimGateway{}
}

func (g *SimGateway) Charge(ctx context.Context, amount int64, card usecase.CardInput) (usecase.ChargeResult, error) {
	if strings.HasSuffix(card.Number, DeclineSuffix) {
		return usecase.ChargeResult{
			Success:       false,
			FailureReason: "card declined",
		}, nil
	}

	return usecase.ChargeResult{
		Success:   true,
		Reference: uuid.NewString(),
	}, nil
}

func (g *SimGateway) Refund(ctx context.Context, reference string, amount int64) (usecase.RefundResult, error) {
	return usecase.RefundResult{
		Success:  true,
		RefundID: uuid.NewString(),
	}, nil
}
