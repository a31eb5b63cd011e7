package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/storefront/internal/model"
)

var (
	// ErrInsufficientStock 库存不足，条件扣减未命中
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ProductFilter 商品列表过滤条件
type ProductFilter struct {
	Status   string
	Featured *bool
}

// ProductRepository 商品仓储接口
type ProductRepository interface {
	// Create 创建商品
	Create(ctx context.Context, p *model.Product) error

	// Update 更新商品
	Update(ctx context.Context, p *model.Product) error

	// Delete 删除商品
	Delete(ctx context.Context, id string) error

	// GetByID 根据ID查询商品
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// GetBySlug 根据 slug 查询商品
	GetBySlug(ctx context.Context, slug string) (*model.Product, error)

	// List 查询商品列表，按 display_order 排序
	List(ctx context.Context, filter ProductFilter, offset, limit int) ([]*model.Product, error)

	// DecrementStock 条件扣减库存：stock >= qty 才扣减，否则返回 ErrInsufficientStock
	DecrementStock(ctx context.Context, productID string, qty int, orderID string) error

	// AdjustStock 调整库存（正负皆可）并记录流水
	AdjustStock(ctx context.Context, productID string, delta int, reason string, orderID *string) error

	// Reorder 批量更新展示顺序，ids 的下标即新顺序
	Reorder(ctx context.Context, ids []string) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepository{db: db} }

func (r *productRepository) Create(ctx context.Context, p *model.Product) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepository) Update(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *productRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Product{}).Error
}

func (r *productRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepository) GetBySlug(ctx context.Context, slug string) (*model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepository) List(ctx context.Context, filter ProductFilter, offset, limit int) ([]*model.Product, error) {
	q := r.db.WithContext(ctx).Model(&model.Product{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Featured != nil {
		q = q.Where("featured = ?", *filter.Featured)
	}
	var products []*model.Product
	err := q.Order("display_order ASC, created_at DESC").Offset(offset).Limit(limit).Find(&products).Error
	return products, err
}

// DecrementStock 条件 UPDATE，避免并发下单超卖
func (r *productRepository) DecrementStock(ctx context.Context, productID string, qty int, orderID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Product{}).
			Where("id = ? AND stock >= ?", productID, qty).
			Update("stock", gorm.Expr("stock - ?", qty))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInsufficientStock
		}
		mv := &model.StockMovement{
			ID:        uuid.New().String(),
			ProductID: productID,
			Delta:     -qty,
			Reason:    "checkout",
			OrderID:   &orderID,
			CreatedAt: time.Now(),
		}
		return tx.Create(mv).Error
	})
}

func (r *productRepository) AdjustStock(ctx context.Context, productID string, delta int, reason string, orderID *string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&model.Product{}).Where("id = ?", productID)
		// 负向调整与扣减同样受库存下限约束
		if delta < 0 {
			q = q.Where("stock >= ?", -delta)
		}
		res := q.Update("stock", gorm.Expr("stock + ?", delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if delta < 0 {
				return ErrInsufficientStock
			}
			return gorm.ErrRecordNotFound
		}
		mv := &model.StockMovement{
			ID:        uuid.New().String(),
			ProductID: productID,
			Delta:     delta,
			Reason:    reason,
			OrderID:   orderID,
			CreatedAt: time.Now(),
		}
		return tx.Create(mv).Error
	})
}

func (r *productRepository) Reorder(ctx context.Context, ids []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, id := range ids {
			if err := tx.Model(&model.Product{}).
				Where("id = ?", id).
				Update("display_order", i).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
