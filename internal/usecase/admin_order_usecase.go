package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shop/internal/domain/apperr"
	"shop/internal/domain/model"
	"shop/internal/metrics"
	repo "shop/internal/repository"

	"go.uber.org/zap"
)

type AdminOrderUsecase struct {
	tx       repo.TransactionManager
	gateway  PaymentGateway
	auditLog repo.AuditLogRepository
	logger   *zap.Logger
}

func NewAdminOrderUsecase(tx repo.TransactionManager, gateway PaymentGateway, auditLog repo.AuditLogRepository, logger *zap.Logger) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, gateway: gateway, auditLog: auditLog, logger: logger}
}

type AdminOrderListInput struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
}

type AdminOrderListOutput struct {
	Orders []OrderOutput `json:"orders"`
	Total  int64         `json:"total"`
	Page   int           `json:"page"`
	Limit  int           `json:"limit"`
}

// requireAdmin はトークンだけでなくDB上のロールでも管理者か確かめる。
// 降格済みのトークンを弾くための二重チェック。
func requireAdmin(ctx context.Context, r repo.TxRepos, userID int64) error {
	usr, err := r.Users().FindByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return apperr.PermissionDenied("admin only")
	}
	if err != nil {
		return err
	}
	if !usr.IsAdmin() || !usr.IsActive {
		return apperr.PermissionDenied("admin only")
	}
	return nil
}

func (u *AdminOrderUsecase) List(ctx context.Context, adminID int64, in AdminOrderListInput) (AdminOrderListOutput, error) {
	if in.Page < 1 {
		in.Page = 1
	}
	if in.Limit < 1 || in.Limit > 100 {
		in.Limit = 20
	}
	if in.Status != "" && !model.OrderStatus(in.Status).Valid() {
		return AdminOrderListOutput{}, apperr.InvalidInput("invalid status")
	}

	var out AdminOrderListOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := requireAdmin(ctx, r, adminID); err != nil {
			return err
		}

		orders, total, err := r.Orders().ListAdmin(ctx, repo.AdminOrderListFilter{
			Page:   in.Page,
			Limit:  in.Limit,
			Status: in.Status,
			UserID: in.UserID,
		})
		if err != nil {
			return err
		}

		outs := make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return err
			}
			outs = append(outs, toOrderOutput(o, items))
		}

		out = AdminOrderListOutput{Orders: outs, Total: total, Page: in.Page, Limit: in.Limit}
		return nil
	})

	if err != nil {
		return AdminOrderListOutput{}, err
	}
	return out, nil
}

func (u *AdminOrderUsecase) GetDetail(ctx context.Context, adminID int64, orderID int64) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, apperr.InvalidInput("invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := requireAdmin(ctx, r, adminID); err != nil {
			return err
		}
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.NotFound("order")
		}
		if err != nil {
			return err
		}
		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// Validate は PAID → VALIDATED。同時に配送レコード（PREPARING）を作る。
func (u *AdminOrderUsecase) Validate(ctx context.Context, adminID int64, orderID int64, carrier string) (OrderOutput, error) {
	return u.transition(ctx, adminID, orderID, model.OrderStatusPaid, model.OrderStatusValidated,
		func(ctx context.Context, r repo.TxRepos, o model.Order) error {
			_, err := prepareDelivery(ctx, r, o.ID, carrier)
			return err
		})
}

// Ship は VALIDATED → SHIPPED。配送に追跡番号を採番してIN_TRANSITにする。
func (u *AdminOrderUsecase) Ship(ctx context.Context, adminID int64, orderID int64) (OrderOutput, error) {
	return u.transition(ctx, adminID, orderID, model.OrderStatusValidated, model.OrderStatusShipped,
		func(ctx context.Context, r repo.TxRepos, o model.Order) error {
			_, err := shipDelivery(ctx, r, o.ID)
			return err
		})
}

// MarkDelivered は SHIPPED → DELIVERED。配送もDELIVEREDにする。
func (u *AdminOrderUsecase) MarkDelivered(ctx context.Context, adminID int64, orderID int64) (OrderOutput, error) {
	return u.transition(ctx, adminID, orderID, model.OrderStatusShipped, model.OrderStatusDelivered,
		func(ctx context.Context, r repo.TxRepos, o model.Order) error {
			_, err := completeDelivery(ctx, r, o.ID)
			return err
		})
}

// transition は管理者による注文のCAS遷移の共通部分。
// from 以外の状態だったら InvalidTransition。
func (u *AdminOrderUsecase) transition(ctx context.Context, adminID int64, orderID int64, from, to model.OrderStatus, after func(context.Context, repo.TxRepos, model.Order) error) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, apperr.InvalidInput("invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := requireAdmin(ctx, r, adminID); err != nil {
			return err
		}

		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.NotFound("order")
		}
		if err != nil {
			return err
		}
		if o.Status != from {
			return apperr.InvalidTransition(o.Status, to)
		}

		now := time.Now()
		if err := r.Orders().TransitionStatus(ctx, orderID, from, to, now); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return apperr.InvalidTransition(o.Status, to)
			}
			return err
		}

		o.Status = to
		if after != nil {
			if err := after(ctx, r, o); err != nil {
				return err
			}
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}

	metrics.OrderTransitionTotal.WithLabelValues(string(to)).Inc()
	u.writeAudit(ctx, adminID, model.AuditActionUpdateOrderStatus, orderID, string(from), string(to))
	u.logger.Info("admin order transition",
		zap.Int64("admin_id", adminID),
		zap.Int64("order_id", orderID),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	return out, nil
}

// Cancel は管理者による注文キャンセル。顧客キャンセルと同じ遷移規則で在庫を戻す。
func (u *AdminOrderUsecase) Cancel(ctx context.Context, adminID int64, orderID int64) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, apperr.InvalidInput("invalid id")
	}

	var (
		out  OrderOutput
		from model.OrderStatus
	)

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := requireAdmin(ctx, r, adminID); err != nil {
			return err
		}

		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.NotFound("order")
		}
		if err != nil {
			return err
		}
		from = o.Status

		items, err := cancelOrder(ctx, r, o)
		if err != nil {
			return err
		}

		o.Status = model.OrderStatusCancelled
		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}

	u.writeAudit(ctx, adminID, model.AuditActionUpdateOrderStatus, orderID, string(from), string(model.OrderStatusCancelled))
	u.logger.Info("admin order cancelled", zap.Int64("admin_id", adminID), zap.Int64("order_id", orderID))
	return out, nil
}

// Refund は PAID または CANCELLED の注文を返金する。
// 成功済み支払いをゲートウェイで返金し、負の金額のREFUNDED行を追加する。
// PAIDからの返金は在庫も戻す。CANCELLEDからの返金はキャンセル時点で
// 在庫が戻っているので戻さない（二重に戻さない）。
func (u *AdminOrderUsecase) Refund(ctx context.Context, adminID int64, orderID int64) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, apperr.InvalidInput("invalid id")
	}

	var (
		out    OrderOutput
		from   model.OrderStatus
		amount int64
	)

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := requireAdmin(ctx, r, adminID); err != nil {
			return err
		}

		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.NotFound("order")
		}
		if err != nil {
			return err
		}
		from = o.Status
		if !o.Status.CanTransitionTo(model.OrderStatusRefunded) {
			return apperr.InvalidTransition(o.Status, model.OrderStatusRefunded)
		}

		paid, found, err := r.Payments().FindSucceededByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		if !found {
			return apperr.InvalidState("order has no succeeded payment")
		}
		amount = paid.Amount

		// 同じ注文を2回返金しない
		refundKey := fmt.Sprintf("refund:%d", orderID)
		if _, found, err := r.Payments().FindByIdempotencyKey(ctx, refundKey); err != nil {
			return err
		} else if found {
			return apperr.InvalidTransition(o.Status, model.OrderStatusRefunded)
		}

		result, err := u.gateway.Refund(ctx, paid.GatewayRef, paid.Amount)
		if err != nil {
			return apperr.GatewayFailure(err.Error())
		}
		if !result.Success {
			return apperr.GatewayFailure("refund rejected")
		}

		now := time.Now()
		if _, err := r.Payments().Create(ctx, model.Payment{
			OrderID:        orderID,
			Amount:         -paid.Amount,
			Status:         model.PaymentStatusRefunded,
			Method:         model.PaymentMethodRefund,
			IdempotencyKey: refundKey,
			GatewayRef:     result.RefundID,
			CreatedAt:      now,
		}); err != nil {
			if errors.Is(err, repo.ErrConflict) {
				return apperr.InvalidTransition(o.Status, model.OrderStatusRefunded)
			}
			return err
		}

		if err := r.Orders().TransitionStatus(ctx, orderID, from, model.OrderStatusRefunded, now); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return apperr.InvalidTransition(from, model.OrderStatusRefunded)
			}
			return err
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return err
		}

		// CANCELLED経由の場合はキャンセル時に在庫が戻っている
		if from == model.OrderStatusPaid {
			for _, it := range items {
				if err := r.Inventory().Release(ctx, it.ProductID, it.Quantity); err != nil {
					return err
				}
			}
		}

		o.Status = model.OrderStatusRefunded
		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}

	metrics.OrderTransitionTotal.WithLabelValues(string(model.OrderStatusRefunded)).Inc()
	u.writeAudit(ctx, adminID, model.AuditActionRefundOrder, orderID, string(from), string(model.OrderStatusRefunded))
	u.logger.Info("order refunded",
		zap.Int64("admin_id", adminID),
		zap.Int64("order_id", orderID),
		zap.Int64("amount", amount))
	return out, nil
}

func (u *AdminOrderUsecase) writeAudit(ctx context.Context, adminID int64, action model.AuditAction, orderID int64, before, after string) {
	beforeJSON, _ := json.Marshal(map[string]string{"status": before})
	afterJSON, _ := json.Marshal(map[string]string{"status": after})
	if err := u.auditLog.Create(ctx, model.AuditLog{
		ActorUserID:  adminID,
		Action:       action,
		ResourceType: model.AuditResourceOrder,
		ResourceID:   orderID,
		BeforeJSON:   string(beforeJSON),
		AfterJSON:    string(afterJSON),
		CreatedAt:    time.Now(),
	}); err != nil {
		u.logger.Warn("write audit log", zap.Int64("order_id", orderID), zap.Error(err))
	}
}
