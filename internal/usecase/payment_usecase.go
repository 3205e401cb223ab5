package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"shop/internal/domain/apperr"
	"shop/internal/domain/model"
	"shop/internal/metrics"
	repo "shop/internal/repository"

	"go.uber.org/zap"
)

type PaymentUsecase struct {
	tx      repo.TransactionManager
	gateway PaymentGateway
	mailer  Mailer
	logger  *zap.Logger
}

func NewPaymentUsecase(tx repo.TransactionManager, gateway PaymentGateway, mailer Mailer, logger *zap.Logger) *PaymentUsecase {
	return &PaymentUsecase{tx: tx, gateway: gateway, mailer: mailer, logger: logger}
}

type PayInput struct {
	Card           CardInput
	IdempotencyKey string
}

type PaymentOutput struct {
	ID        int64     `json:"id"`
	OrderID   int64     `json:"order_id"`
	Amount    int64     `json:"amount"`
	Status    string    `json:"status"`
	Method    string    `json:"method"`
	CardLast4 string    `json:"card_last4,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Pay は注文の支払い。CREATED の注文だけ支払える。
// 同じ冪等キーでの再実行は既存の支払いをそのまま返す（二重課金しない）。
// ゲートウェイに拒否されたらFAILED行を記録した上で GatewayFailure を返す。
// 注文は CREATED のままなので、別キーでリトライできる。
func (u *PaymentUsecase) Pay(ctx context.Context, userID int64, orderID int64, in PayInput) (PaymentOutput, error) {
	ctx, span := tracer.Start(ctx, "payment.pay")
	defer span.End()

	if userID <= 0 {
		return PaymentOutput{}, apperr.InvalidInput("invalid user")
	}
	if orderID <= 0 {
		return PaymentOutput{}, apperr.InvalidInput("invalid id")
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" || len(key) > 255 {
		return PaymentOutput{}, apperr.InvalidInput("invalid idempotency_key")
	}
	if in.Card.Number == "" {
		return PaymentOutput{}, apperr.InvalidInput("invalid card")
	}

	var (
		out      PaymentOutput
		replayed bool
		payErr   error
		total    int64
	)

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同じキーの支払いが既にあればそれを返す
		existing, found, err := r.Payments().FindByIdempotencyKey(ctx, key)
		if err != nil {
			return err
		}
		if found {
			out = toPaymentOutput(existing)
			replayed = true
			return nil
		}

		o, err := loadOwnedOrder(ctx, r, userID, orderID)
		if err != nil {
			return err
		}
		if o.Status != model.OrderStatusCreated {
			return apperr.InvalidState("order is not payable")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		total = model.OrderTotal(items)

		result, err := u.gateway.Charge(ctx, total, in.Card)
		if err != nil {
			return apperr.GatewayFailure(err.Error())
		}

		status := model.PaymentStatusSucceeded
		if !result.Success {
			status = model.PaymentStatusFailed
		}

		p, err := r.Payments().Create(ctx, model.Payment{
			OrderID:        orderID,
			Amount:         total,
			Status:         status,
			Method:         model.PaymentMethodCard,
			IdempotencyKey: key,
			CardLast4:      in.Card.Last4(),
			GatewayRef:     result.Reference,
			CreatedAt:      time.Now(),
		})
		if errors.Is(err, repo.ErrConflict) {
			// 同じキーで競合した。勝った方の支払いを返す
			winner, found, ferr := r.Payments().FindByIdempotencyKey(ctx, key)
			if ferr != nil {
				return ferr
			}
			if !found {
				return err
			}
			out = toPaymentOutput(winner)
			replayed = true
			return nil
		}
		if err != nil {
			return err
		}

		if !result.Success {
			// FAILED行はコミットして残す。エラーはトランザクションの外で返す
			out = toPaymentOutput(p)
			payErr = apperr.GatewayFailure(result.FailureReason)
			return nil
		}

		now := time.Now()
		if err := r.Orders().TransitionStatus(ctx, orderID, model.OrderStatusCreated, model.OrderStatusPaid, now); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return apperr.InvalidState("order is not payable")
			}
			return err
		}

		// 支払い成功と同時に請求書を発行する
		o.Status = model.OrderStatusPaid
		if _, err := issueInvoice(ctx, r, o, items, now); err != nil {
			return err
		}

		out = toPaymentOutput(p)
		return nil
	})

	if err != nil {
		metrics.PaymentTotal.WithLabelValues("error").Inc()
		return PaymentOutput{}, err
	}
	if replayed {
		metrics.PaymentTotal.WithLabelValues("replayed").Inc()
		return out, nil
	}
	if payErr != nil {
		metrics.PaymentTotal.WithLabelValues("declined").Inc()
		u.logger.Info("payment declined",
			zap.Int64("order_id", orderID), zap.Int64("user_id", userID))
		return out, payErr
	}

	metrics.PaymentTotal.WithLabelValues("success").Inc()
	metrics.OrderTransitionTotal.WithLabelValues(string(model.OrderStatusPaid)).Inc()
	u.logger.Info("payment succeeded",
		zap.Int64("order_id", orderID),
		zap.Int64("user_id", userID),
		zap.Int64("amount", total))

	// 通知メールは失敗しても支払いは成立させる
	u.sendPaidMail(ctx, userID, orderID, total)

	return out, nil
}

func (u *PaymentUsecase) sendPaidMail(ctx context.Context, userID, orderID, total int64) {
	var email string
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		usr, err := r.Users().FindByID(ctx, userID)
		if err != nil {
			return err
		}
		email = usr.Email
		return nil
	})
	if err != nil {
		u.logger.Warn("lookup user for mail", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	if err := u.mailer.SendOrderPaid(ctx, email, orderID, total); err != nil {
		u.logger.Warn("send order paid mail", zap.Int64("order_id", orderID), zap.Error(err))
	}
}

// ListPayments は注文の支払い履歴（返金行を含む）を返す。
func (u *PaymentUsecase) ListPayments(ctx context.Context, userID int64, orderID int64) ([]PaymentOutput, error) {
	if userID <= 0 {
		return nil, apperr.InvalidInput("invalid user")
	}
	if orderID <= 0 {
		return nil, apperr.InvalidInput("invalid id")
	}

	var outs []PaymentOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := loadOwnedOrder(ctx, r, userID, orderID); err != nil {
			return err
		}
		payments, err := r.Payments().ListByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		outs = make([]PaymentOutput, 0, len(payments))
		for _, p := range payments {
			outs = append(outs, toPaymentOutput(p))
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return outs, nil
}

func toPaymentOutput(p model.Payment) PaymentOutput {
	return PaymentOutput{
		ID:        p.ID,
		OrderID:   p.OrderID,
		Amount:    p.Amount,
		Status:    string(p.Status),
		Method:    p.Method,
		CardLast4: p.CardLast4,
		CreatedAt: p.CreatedAt,
	}
}
