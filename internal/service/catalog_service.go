package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/d60-Lab/storefront/internal/cache"
	"github.com/d60-Lab/storefront/internal/model"
	"github.com/d60-Lab/storefront/internal/repository"
)

var ErrInvalidStatus = errors.New("invalid product status")

// CatalogService 商品目录服务
type CatalogService interface {
	Create(ctx context.Context, p *model.Product) error
	Update(ctx context.Context, p *model.Product) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*model.Product, error)
	GetBySlug(ctx context.Context, slug string) (*model.Product, error)

	// List 商品列表，读路径走缓存
	List(ctx context.Context, filter repository.ProductFilter, page, pageSize int) ([]*model.Product, error)

	// AdjustStock 人工调整库存（原 adjust_product_stock 存储过程）
	AdjustStock(ctx context.Context, productID string, delta int, reason string) error

	// Reorder 拖拽排序落库
	Reorder(ctx context.Context, ids []string) error
}

type catalogService struct {
	repo  repository.ProductRepository
	cache *cache.ProductCache
}

// NewCatalogService cache 可为 nil（关闭缓存）
func NewCatalogService(repo repository.ProductRepository, c *cache.ProductCache) CatalogService {
	return &catalogService{repo: repo, cache: c}
}

func validProductStatus(s string) bool {
	switch s {
	case model.ProductStatusDraft, model.ProductStatusActive, model.ProductStatusArchived,
		model.ProductStatusSoldOut, model.ProductStatusPreorder:
		return true
	}
	return false
}

func (s *catalogService) Create(ctx context.Context, p *model.Product) error {
	if p.Status == "" {
		p.Status = model.ProductStatusDraft
	}
	if !validProductStatus(p.Status) {
		return ErrInvalidStatus
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *catalogService) Update(ctx context.Context, p *model.Product) error {
	if !validProductStatus(p.Status) {
		return ErrInvalidStatus
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *catalogService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *catalogService) Get(ctx context.Context, id string) (*model.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *catalogService) GetBySlug(ctx context.Context, slug string) (*model.Product, error) {
	return s.repo.GetBySlug(ctx, slug)
}

func (s *catalogService) List(ctx context.Context, filter repository.ProductFilter, page, pageSize int) ([]*model.Product, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	if s.cache != nil {
		if list, ok := s.cache.GetList(ctx, filter.Status, filter.Featured, offset, pageSize); ok {
			return list, nil
		}
	}
	list, err := s.repo.List(ctx, filter, offset, pageSize)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.SetList(ctx, filter.Status, filter.Featured, offset, pageSize, list)
	}
	return list, nil
}

func (s *catalogService) AdjustStock(ctx context.Context, productID string, delta int, reason string) error {
	if reason == "" {
		reason = "adjustment"
	}
	if err := s.repo.AdjustStock(ctx, productID, delta, reason, nil); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *catalogService) Reorder(ctx context.Context, ids []string) error {
	if err := s.repo.Reorder(ctx, ids); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *catalogService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.InvalidateLists(ctx)
	}
}
