package repository

import (
	"context"

	"shop/internal/domain/model"
)

// 在庫の増減はすべてここを通す。
// Product.Stock を直接read-modify-writeするコードを他に置かないこと。
type InventoryRepository interface {
	// Reserve は stock >= qty かつ商品がアクティブなときだけ原子的に減算する。
	// 減算の結果ゼロになったら同じ操作の中で is_active を落とす。
	// 減算できなければ false（変更なし）。
	Reserve(ctx context.Context, productID int64, qty int64) (bool, error)

	// Release は在庫を戻す。在庫切れで非アクティブだった商品は復活させる。
	Release(ctx context.Context, productID int64, qty int64) error

	// 在庫の現在値を設定（入荷・棚卸し）。正の在庫なら商品を復活させる。
	SetStock(ctx context.Context, productID int64, newStock int64) error

	// 調整履歴作成
	CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error
}
