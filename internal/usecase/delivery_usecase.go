package usecase

import (
	"context"
	"strings"
	"time"

	"shop/internal/domain/apperr"
	"shop/internal/domain/model"
	repo "shop/internal/repository"

	"github.com/google/uuid"
)

const defaultCarrier = "POSTE"

type DeliveryOutput struct {
	OrderID        int64     `json:"order_id"`
	Carrier        string    `json:"carrier"`
	TrackingNumber string    `json:"tracking_number,omitempty"`
	Status         string    `json:"status"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// newTrackingNumber は "TRK-" + 16進10桁（大文字）。
func newTrackingNumber() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "TRK-" + strings.ToUpper(raw[:10])
}

// prepareDelivery は注文に対する配送レコードを作る（VALIDATED時）。
// 既にあれば既存を返す（order_idの一意制約）。
func prepareDelivery(ctx context.Context, r repo.TxRepos, orderID int64, carrier string) (model.Delivery, error) {
	if carrier == "" {
		carrier = defaultCarrier
	}
	if existing, found, err := r.Deliveries().FindByOrderID(ctx, orderID); err != nil {
		return model.Delivery{}, err
	} else if found {
		return existing, nil
	}
	return r.Deliveries().Create(ctx, model.Delivery{
		OrderID: orderID,
		Carrier: carrier,
		Status:  model.DeliveryStatusPreparing,
	})
}

// shipDelivery は配送をIN_TRANSITにする。追跡番号が未採番なら採番する。
func shipDelivery(ctx context.Context, r repo.TxRepos, orderID int64) (model.Delivery, error) {
	d, found, err := r.Deliveries().FindByOrderID(ctx, orderID)
	if err != nil {
		return model.Delivery{}, err
	}
	if !found {
		return model.Delivery{}, apperr.InvalidState("delivery has not been prepared")
	}
	if d.TrackingNumber == "" {
		d.TrackingNumber = newTrackingNumber()
	}
	d.Status = model.DeliveryStatusInTransit
	if err := r.Deliveries().Update(ctx, d); err != nil {
		return model.Delivery{}, err
	}
	return d, nil
}

// completeDelivery は配送をDELIVEREDにする。
func completeDelivery(ctx context.Context, r repo.TxRepos, orderID int64) (model.Delivery, error) {
	d, found, err := r.Deliveries().FindByOrderID(ctx, orderID)
	if err != nil {
		return model.Delivery{}, err
	}
	if !found {
		return model.Delivery{}, apperr.InvalidState("delivery has not been prepared")
	}
	d.Status = model.DeliveryStatusDelivered
	if err := r.Deliveries().Update(ctx, d); err != nil {
		return model.Delivery{}, err
	}
	return d, nil
}

type DeliveryUsecase struct {
	tx repo.TransactionManager
}

func NewDeliveryUsecase(tx repo.TransactionManager) *DeliveryUsecase {
	return &DeliveryUsecase{tx: tx}
}

// GetDelivery は自分の注文の配送状況を返す。
func (u *DeliveryUsecase) GetDelivery(ctx context.Context, userID int64, orderID int64) (DeliveryOutput, error) {
	if userID <= 0 {
		return DeliveryOutput{}, apperr.InvalidInput("invalid user")
	}
	if orderID <= 0 {
		return DeliveryOutput{}, apperr.InvalidInput("invalid id")
	}

	var out DeliveryOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := loadOwnedOrder(ctx, r, userID, orderID); err != nil {
			return err
		}
		d, found, err := r.Deliveries().FindByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		if !found {
			return apperr.NotFound("delivery")
		}
		out = toDeliveryOutput(d)
		return nil
	})

	if err != nil {
		return DeliveryOutput{}, err
	}
	return out, nil
}

func toDeliveryOutput(d model.Delivery) DeliveryOutput {
	return DeliveryOutput{
		OrderID:        d.OrderID,
		Carrier:        d.Carrier,
		TrackingNumber: d.TrackingNumber,
		Status:         string(d.Status),
		UpdatedAt:      d.UpdatedAt,
	}
}
