package usecase

import (
	"context"
	"errors"

	"shop/internal/domain/apperr"
	"shop/internal/domain/model"
	repo "shop/internal/repository"
)

type CartUsecase struct {
	tx repo.TransactionManager
}

func NewCartUsecase(tx repo.TransactionManager) *CartUsecase {
	return &CartUsecase{tx: tx}
}

type CartItemOutput struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int64  `json:"quantity"`
	Subtotal  int64  `json:"subtotal"`
}

type CartOutput struct {
	ID    int64            `json:"id"`
	Items []CartItemOutput `json:"items"`
	Total int64            `json:"total"`
}

type AddToCartInput struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartOutput, error) {
	if userID <= 0 {
		return CartOutput{}, apperr.InvalidInput("invalid user")
	}

	var out CartOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().GetOrCreateActiveByUserID(ctx, userID)
		if err != nil {
			return err
		}
		o, err := buildCartOutput(ctx, r, cart)
		if err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return CartOutput{}, err
	}
	return out, nil
}

// AddToCart は商品をカートに入れる。同じ商品は数量を加算する。
// 追加後の数量が在庫を超える場合は InsufficientStock。
// 在庫の予約自体はチェックアウトまで行わない（カート追加は在庫を減らさない）。
func (u *CartUsecase) AddToCart(ctx context.Context, userID int64, in AddToCartInput) (CartOutput, error) {
	if userID <= 0 {
		return CartOutput{}, apperr.InvalidInput("invalid user")
	}
	if in.ProductID <= 0 {
		return CartOutput{}, apperr.InvalidInput("invalid product_id")
	}
	if in.Quantity <= 0 {
		return CartOutput{}, apperr.InvalidInput("quantity must be positive")
	}

	var out CartOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByID(ctx, in.ProductID)
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.NotFound("product")
		}
		if err != nil {
			return err
		}
		if !p.IsActive {
			return apperr.NotFound("product")
		}

		cart, err := r.Carts().GetOrCreateActiveByUserID(ctx, userID)
		if err != nil {
			return err
		}

		// 既存行との合算で在庫上限を見る
		var current int64
		items, err := r.CartItems().ListByCartID(ctx, cart.ID)
		if err != nil {
			return err
		}
		for _, it := range items {
			if it.ProductID == in.ProductID {
				current = it.Quantity
				break
			}
		}
		if current+in.Quantity > p.Stock {
			return apperr.InsufficientStock(p.Name)
		}

		if err := r.CartItems().UpsertByCartAndProduct(ctx, cart.ID, in.ProductID, in.Quantity, p.Price); err != nil {
			return err
		}

		o, err := buildCartOutput(ctx, r, cart)
		if err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return CartOutput{}, err
	}
	return out, nil
}

// UpdateItem はカート明細の数量を変更する。0なら削除。
func (u *CartUsecase) UpdateItem(ctx context.Context, userID int64, cartItemID int64, qty int64) (CartOutput, error) {
	if userID <= 0 {
		return CartOutput{}, apperr.InvalidInput("invalid user")
	}
	if cartItemID <= 0 {
		return CartOutput{}, apperr.InvalidInput("invalid id")
	}
	if qty < 0 {
		return CartOutput{}, apperr.InvalidInput("quantity must not be negative")
	}

	var out CartOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, item, err := loadOwnedCartItem(ctx, r, userID, cartItemID)
		if err != nil {
			return err
		}

		if qty == 0 {
			if err := r.CartItems().DeleteByID(ctx, item.ID); err != nil {
				return err
			}
		} else {
			p, err := r.Products().FindByID(ctx, item.ProductID)
			if errors.Is(err, repo.ErrNotFound) {
				return apperr.NotFound("product")
			}
			if err != nil {
				return err
			}
			if qty > p.Stock {
				return apperr.InsufficientStock(p.Name)
			}
			if err := r.CartItems().UpdateQuantity(ctx, item.ID, qty); err != nil {
				return err
			}
		}

		o, err := buildCartOutput(ctx, r, cart)
		if err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return CartOutput{}, err
	}
	return out, nil
}

func (u *CartUsecase) RemoveItem(ctx context.Context, userID int64, cartItemID int64) (CartOutput, error) {
	return u.UpdateItem(ctx, userID, cartItemID, 0)
}

// loadOwnedCartItem は本人のACTIVEカートに属する明細だけを返す。
func loadOwnedCartItem(ctx context.Context, r repo.TxRepos, userID int64, cartItemID int64) (model.Cart, model.CartItem, error) {
	cart, err := r.Carts().FindActiveByUserID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Cart{}, model.CartItem{}, apperr.NotFound("cart item")
	}
	if err != nil {
		return model.Cart{}, model.CartItem{}, err
	}

	item, err := r.CartItems().FindByID(ctx, cartItemID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Cart{}, model.CartItem{}, apperr.NotFound("cart item")
	}
	if err != nil {
		return model.Cart{}, model.CartItem{}, err
	}
	if item.CartID != cart.ID {
		return model.Cart{}, model.CartItem{}, apperr.NotFound("cart item")
	}
	return cart, item, nil
}

func buildCartOutput(ctx context.Context, r repo.TxRepos, cart model.Cart) (CartOutput, error) {
	items, err := r.CartItems().ListByCartID(ctx, cart.ID)
	if err != nil {
		return CartOutput{}, err
	}

	out := CartOutput{ID: cart.ID, Items: make([]CartItemOutput, 0, len(items))}
	for _, it := range items {
		name := ""
		if p, err := r.Products().FindByID(ctx, it.ProductID); err == nil {
			name = p.Name
		}
		sub := it.UnitPriceSnapshot * it.Quantity
		out.Items = append(out.Items, CartItemOutput{
			ID:        it.ID,
			ProductID: it.ProductID,
			Name:      name,
			UnitPrice: it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
			Subtotal:  sub,
		})
		out.Total += sub
	}
	return out, nil
}
