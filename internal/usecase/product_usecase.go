package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"shop/internal/domain/apperr"
	"shop/internal/domain/model"
	repo "shop/internal/repository"

	"go.uber.org/zap"
)

type ProductUsecase struct {
	products repo.ProductRepository
	tx       repo.TransactionManager
	auditLog repo.AuditLogRepository
	logger   *zap.Logger
}

func NewProductUsecase(products repo.ProductRepository, tx repo.TransactionManager, auditLog repo.AuditLogRepository, logger *zap.Logger) *ProductUsecase {
	return &ProductUsecase{products: products, tx: tx, auditLog: auditLog, logger: logger}
}

type ProductListInput struct {
	Page     int
	Limit    int
	Q        string
	MinPrice *int64
	MaxPrice *int64
	Sort     string
}

type ProductOutput struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Stock       int64  `json:"stock"`
	IsActive    bool   `json:"is_active"`
}

type ProductListOutput struct {
	Products []ProductOutput `json:"products"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	Limit    int             `json:"limit"`
}

type ProductCreateInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Stock       int64  `json:"stock"`
}

type ProductUpdateInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Price       *int64  `json:"price"`
}

type SetStockInput struct {
	Stock  int64  `json:"stock"`
	Reason string `json:"reason"`
}

func (u *ProductUsecase) List(ctx context.Context, in ProductListInput) (ProductListOutput, error) {
	if in.Page < 1 {
		in.Page = 1
	}
	if in.Limit < 1 || in.Limit > 100 {
		in.Limit = 20
	}

	products, total, err := u.products.ListPublic(ctx, repo.ProductListQuery{
		Page:     in.Page,
		Limit:    in.Limit,
		Q:        in.Q,
		MinPrice: in.MinPrice,
		MaxPrice: in.MaxPrice,
		Sort:     in.Sort,
	})
	if err != nil {
		return ProductListOutput{}, err
	}

	outs := make([]ProductOutput, 0, len(products))
	for _, p := range products {
		outs = append(outs, toProductOutput(p))
	}
	return ProductListOutput{Products: outs, Total: total, Page: in.Page, Limit: in.Limit}, nil
}

func (u *ProductUsecase) GetDetail(ctx context.Context, id int64) (ProductOutput, error) {
	if id <= 0 {
		return ProductOutput{}, apperr.InvalidInput("invalid id")
	}
	p, err := u.products.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ProductOutput{}, apperr.NotFound("product")
	}
	if err != nil {
		return ProductOutput{}, err
	}
	if !p.IsActive {
		return ProductOutput{}, apperr.NotFound("product")
	}
	return toProductOutput(p), nil
}

func (u *ProductUsecase) Create(ctx context.Context, adminID int64, in ProductCreateInput) (ProductOutput, error) {
	if in.Name == "" {
		return ProductOutput{}, apperr.InvalidInput("name is required")
	}
	if in.Price <= 0 {
		return ProductOutput{}, apperr.InvalidInput("price must be positive")
	}
	if in.Stock < 0 {
		return ProductOutput{}, apperr.InvalidInput("stock must not be negative")
	}

	var out ProductOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := requireAdmin(ctx, r, adminID); err != nil {
			return err
		}
		p, err := r.Products().Create(ctx, model.Product{
			Name:        in.Name,
			Description: in.Description,
			Price:       in.Price,
			Stock:       in.Stock,
			IsActive:    in.Stock > 0,
		})
		if err != nil {
			return err
		}
		out = toProductOutput(p)
		return nil
	})
	if err != nil {
		return ProductOutput{}, err
	}

	u.logger.Info("product created", zap.Int64("admin_id", adminID), zap.Int64("product_id", out.ID))
	return out, nil
}

// Update は商品情報を変更する。在庫は触らない（SetStockを使う）。
func (u *ProductUsecase) Update(ctx context.Context, adminID int64, id int64, in ProductUpdateInput) (ProductOutput, error) {
	if id <= 0 {
		return ProductOutput{}, apperr.InvalidInput("invalid id")
	}
	if in.Price != nil && *in.Price <= 0 {
		return ProductOutput{}, apperr.InvalidInput("price must be positive")
	}

	var out ProductOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := requireAdmin(ctx, r, adminID); err != nil {
			return err
		}
		p, err := r.Products().FindByID(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.NotFound("product")
		}
		if err != nil {
			return err
		}
		if in.Name != nil {
			p.Name = *in.Name
		}
		if in.Description != nil {
			p.Description = *in.Description
		}
		if in.Price != nil {
			p.Price = *in.Price
		}
		if err := r.Products().Update(ctx, p); err != nil {
			return err
		}
		out = toProductOutput(p)
		return nil
	})
	if err != nil {
		return ProductOutput{}, err
	}
	return out, nil
}

func (u *ProductUsecase) Delete(ctx context.Context, adminID int64, id int64) error {
	if id <= 0 {
		return apperr.InvalidInput("invalid id")
	}
	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := requireAdmin(ctx, r, adminID); err != nil {
			return err
		}
		if _, err := r.Products().FindByID(ctx, id); errors.Is(err, repo.ErrNotFound) {
			return apperr.NotFound("product")
		} else if err != nil {
			return err
		}
		return r.Products().SoftDelete(ctx, id)
	})
}

// SetStock は在庫の絶対値を設定する（入荷・棚卸し）。
// 差分を調整履歴に残し、監査ログも書く。
func (u *ProductUsecase) SetStock(ctx context.Context, adminID int64, id int64, in SetStockInput) (ProductOutput, error) {
	if id <= 0 {
		return ProductOutput{}, apperr.InvalidInput("invalid id")
	}
	if in.Stock < 0 {
		return ProductOutput{}, apperr.InvalidInput("stock must not be negative")
	}

	var (
		out    ProductOutput
		before int64
	)

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := requireAdmin(ctx, r, adminID); err != nil {
			return err
		}

		p, err := r.Products().FindByID(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.NotFound("product")
		}
		if err != nil {
			return err
		}
		before = p.Stock

		if err := r.Inventory().SetStock(ctx, id, in.Stock); err != nil {
			return err
		}

		reason := in.Reason
		if reason == "" {
			reason = "restock"
		}
		if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
			ProductID:   id,
			AdminUserID: adminID,
			Delta:       in.Stock - before,
			Reason:      reason,
			CreatedAt:   time.Now(),
		}); err != nil {
			return err
		}

		p.Stock = in.Stock
		p.IsActive = in.Stock > 0
		out = toProductOutput(p)
		return nil
	})

	if err != nil {
		return ProductOutput{}, err
	}

	beforeJSON, _ := json.Marshal(map[string]int64{"stock": before})
	afterJSON, _ := json.Marshal(map[string]int64{"stock": in.Stock})
	if err := u.auditLog.Create(ctx, model.AuditLog{
		ActorUserID:  adminID,
		Action:       model.AuditActionUpdateStock,
		ResourceType: model.AuditResourceProduct,
		ResourceID:   id,
		BeforeJSON:   string(beforeJSON),
		AfterJSON:    string(afterJSON),
		CreatedAt:    time.Now(),
	}); err != nil {
		u.logger.Warn("write audit log", zap.Int64("product_id", id), zap.Error(err))
	}

	u.logger.Info("stock updated",
		zap.Int64("admin_id", adminID),
		zap.Int64("product_id", id),
		zap.Int64("before", before),
		zap.Int64("after", in.Stock))
	return out, nil
}

func toProductOutput(p model.Product) ProductOutput {
	return ProductOutput{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		IsActive:    p.IsActive,
	}
}
