package usecase

import "context"

// 決済ゲートウェイに渡すカード情報。
// 保存してよいのは下4桁だけ。構造体ごと永続化しないこと。
type CardInput struct {
	Number   string
	ExpMonth int
	ExpYear  int
	CVC      string
}

func (c CardInput) Last4() string {
	if len(c.Number) < 4 {
		return ""
	}
	return c.Number[len(c.Number)-4:]
}

type ChargeResult struct {
	Success   bool
	Reference string
	// 失敗時の理由（ゲートウェイの文言をそのまま保持）
	FailureReason string
}

type RefundResult struct {
	Success  bool
	RefundID string
}

// PaymentGateway は外部決済の差し替えポイント。
// 本番はStripe、テストはシミュレーションを注入する。
type PaymentGateway interface {
	Charge(ctx context.Context, amount int64, card CardInput) (ChargeResult, error)
	Refund(ctx context.Context, reference string, amount int64) (RefundResult, error)
}

// Mailer は注文確認メールの送信先。送信失敗は業務を止めない（ログのみ）。
type Mailer interface {
	SendOrderPaid(ctx context.Context, to string, orderID int64, total int64) error
}

// NopMailer はSMTP未設定時の差し込み。
type NopMailer struct{}

func (NopMailer) SendOrderPaid(ctx context.Context, to string, orderID int64, total int64) error {
	return nil
}
