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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer trace.Tracer = otel.Tracer("shop/usecase")

type OrderUsecase struct {
	tx     repo.TransactionManager
	logger *zap.Logger
}

func NewOrderUsecase(tx repo.TransactionManager, logger *zap.Logger) *OrderUsecase {
	return &OrderUsecase{tx: tx, logger: logger}
}

type CheckoutInput struct {
	IdempotencyKey string
}

type OrderItemOutput struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
}

type OrderOutput struct {
	ID        int64             `json:"id"`
	UserID    int64             `json:"user_id"`
	Status    string            `json:"status"`
	Total     int64             `json:"total"`
	CreatedAt time.Time         `json:"created_at"`
	PaidAt    *time.Time        `json:"paid_at,omitempty"`
	Items     []OrderItemOutput `json:"items"`
}

// チェックアウトで予約→注文作成が競合したときの内部シグナル。
// 外側で冪等キー検索をやり直す。
var errCheckoutConflict = errors.New("checkout conflict")

// Checkout はACTIVEカートを注文に変える。
// 全明細の在庫予約に成功した場合だけ注文を作る。途中で1件でも失敗したら、
// そこまでの予約を全部戻してから InsufficientStock を返す（部分予約を残さない）。
func (u *OrderUsecase) Checkout(ctx context.Context, userID int64, in CheckoutInput) (OrderOutput, error) {
	ctx, span := tracer.Start(ctx, "order.checkout")
	defer span.End()

	if userID <= 0 {
		return OrderOutput{}, apperr.InvalidInput("invalid user")
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" || len(key) > 255 {
		return OrderOutput{}, apperr.InvalidInput("invalid idempotency_key")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同じキーなら同じ注文を返す
		existing, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
		if err != nil {
			return err
		}
		if found {
			items, err := r.OrderItems().ListByOrderID(ctx, existing.ID)
			if err != nil {
				return err
			}
			out = toOrderOutput(existing, items)
			return nil
		}

		cart, err := r.Carts().FindActiveByUserID(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.InvalidState("cart is empty")
		}
		if err != nil {
			return err
		}

		cartItems, err := r.CartItems().ListByCartID(ctx, cart.ID)
		if err != nil {
			return err
		}
		if len(cartItems) == 0 {
			return apperr.InvalidState("cart is empty")
		}

		// 在庫予約。失敗したらここまでの予約を対称に巻き戻す
		reserved := make([]model.OrderItem, 0, len(cartItems))
		rollback := func() {
			for _, it := range reserved {
				if relErr := r.Inventory().Release(ctx, it.ProductID, it.Quantity); relErr != nil {
					u.logger.Error("release after failed checkout",
						zap.Int64("product_id", it.ProductID), zap.Error(relErr))
				}
			}
		}

		for _, ci := range cartItems {
			p, err := r.Products().FindByID(ctx, ci.ProductID)
			if errors.Is(err, repo.ErrNotFound) {
				rollback()
				return apperr.NotFound("product")
			}
			if err != nil {
				rollback()
				return err
			}

			ok, err := r.Inventory().Reserve(ctx, ci.ProductID, ci.Quantity)
			if err != nil {
				rollback()
				return err
			}
			if !ok {
				rollback()
				return apperr.InsufficientStock(p.Name)
			}

			// 商品名と価格はこの時点のスナップショット
			reserved = append(reserved, model.OrderItem{
				ProductID:           p.ID,
				ProductNameSnapshot: p.Name,
				UnitPriceSnapshot:   p.Price,
				Quantity:            ci.Quantity,
				CreatedAt:           time.Now(),
			})
		}

		now := time.Now()
		orderID, err := r.Orders().Create(ctx, model.Order{
			UserID:         userID,
			Status:         model.OrderStatusCreated,
			IdempotencyKey: key,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		if errors.Is(err, repo.ErrConflict) {
			// 同時に同じキーで注文が入った。予約を戻して外側で再検索する
			rollback()
			return errCheckoutConflict
		}
		if err != nil {
			rollback()
			return err
		}

		if err := r.OrderItems().CreateBulk(ctx, orderID, reserved); err != nil {
			return err
		}

		// カートをCHECKED_OUTにして明細をクリア（再注文防止）
		if err := r.Carts().UpdateStatus(ctx, cart.ID, model.CartStatusCheckedOut); err != nil {
			return err
		}
		if err := r.Carts().Clear(ctx, cart.ID); err != nil {
			return err
		}

		created := model.Order{
			ID:             orderID,
			UserID:         userID,
			Status:         model.OrderStatusCreated,
			IdempotencyKey: key,
			CreatedAt:      now,
		}
		out = toOrderOutput(created, reserved)
		return nil
	})

	if errors.Is(err, errCheckoutConflict) {
		return u.findByIdempotencyKey(ctx, userID, key)
	}
	if err != nil {
		metrics.CheckoutTotal.WithLabelValues(checkoutResultLabel(err)).Inc()
		return OrderOutput{}, err
	}

	metrics.CheckoutTotal.WithLabelValues("success").Inc()
	span.SetAttributes(
		attribute.Int64("order.id", out.ID),
		attribute.Int64("order.total", out.Total),
	)
	u.logger.Info("checkout",
		zap.Int64("user_id", userID),
		zap.Int64("order_id", out.ID),
		zap.Int64("total", out.Total))
	return out, nil
}

func (u *OrderUsecase) findByIdempotencyKey(ctx context.Context, userID int64, key string) (OrderOutput, error) {
	var out OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
		if err != nil {
			return err
		}
		if !found {
			return apperr.InvalidState("idempotency conflict")
		}
		items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
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

// Cancel は顧客自身による注文キャンセル。
// 出荷後は不可。成功したら全明細の在庫を戻す。
func (u *OrderUsecase) Cancel(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	ctx, span := tracer.Start(ctx, "order.cancel")
	defer span.End()

	if userID <= 0 {
		return OrderOutput{}, apperr.InvalidInput("invalid user")
	}
	if orderID <= 0 {
		return OrderOutput{}, apperr.InvalidInput("invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.NotFound("order")
		}
		if err != nil {
			return err
		}
		// 他人の注文は「存在しない扱い」にする
		if o.UserID != userID {
			return apperr.NotFound("order")
		}

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

	u.logger.Info("order cancelled", zap.Int64("order_id", orderID), zap.Int64("user_id", userID))
	return out, nil
}

// cancelOrder はCASで CANCELLED へ遷移させ、在庫を戻す。
// 顧客キャンセルと管理者キャンセルの共通部分。
func cancelOrder(ctx context.Context, r repo.TxRepos, o model.Order) ([]model.OrderItem, error) {
	if !o.Status.CanTransitionTo(model.OrderStatusCancelled) {
		return nil, apperr.InvalidTransition(o.Status, model.OrderStatusCancelled)
	}

	now := time.Now()
	err := r.Orders().TransitionStatus(ctx, o.ID, o.Status, model.OrderStatusCancelled, now)
	if errors.Is(err, repo.ErrNotFound) {
		// 並行操作でステータスが変わった
		return nil, apperr.InvalidTransition(o.Status, model.OrderStatusCancelled)
	}
	if err != nil {
		return nil, err
	}

	items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if err := r.Inventory().Release(ctx, it.ProductID, it.Quantity); err != nil {
			return nil, err
		}
	}

	metrics.OrderTransitionTotal.WithLabelValues(string(model.OrderStatusCancelled)).Inc()
	return items, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64) ([]OrderOutput, error) {
	if userID <= 0 {
		return []OrderOutput{}, apperr.InvalidInput("invalid user")
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListByUserID(ctx, userID, 1, 50)
		if err != nil {
			return err
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return err
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, apperr.InvalidInput("invalid user")
	}
	if orderID <= 0 {
		return OrderOutput{}, apperr.InvalidInput("invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := loadOwnedOrder(ctx, r, userID, orderID)
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

// loadOwnedOrder は本人の注文だけを返す。他人の注文はNotFound扱い。
func loadOwnedOrder(ctx context.Context, r repo.TxRepos, userID int64, orderID int64) (model.Order, error) {
	o, err := r.Orders().FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, apperr.NotFound("order")
	}
	if err != nil {
		return model.Order{}, err
	}
	if o.UserID != userID {
		return model.Order{}, apperr.NotFound("order")
	}
	return o, nil
}

func checkoutResultLabel(err error) string {
	switch apperr.KindOf(err) {
	case apperr.KindInsufficientStock:
		return "insufficient_stock"
	case apperr.KindInvalidState, apperr.KindInvalidInput:
		return "invalid"
	default:
		return "error"
	}
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Name:      it.ProductNameSnapshot,
			Price:     it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
		})
	}

	return OrderOutput{
		ID:        o.ID,
		UserID:    o.UserID,
		Status:    string(o.Status),
		Total:     model.OrderTotal(items),
		CreatedAt: o.CreatedAt,
		PaidAt:    o.PaidAt,
		Items:     outItems,
	}
}
