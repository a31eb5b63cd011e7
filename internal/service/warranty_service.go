package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/storefront/internal/model"
	"github.com/d60-Lab/storefront/internal/repository"
)

var ErrSerialTaken = errors.New("serial number already registered")

// DefaultWarrantyPeriod 默认保修期
const DefaultWarrantyPeriod = 2 * 365 * 24 * time.Hour

// WarrantyService 保修服务
type WarrantyService interface {
	// Register 登记保修；序列号唯一
	Register(ctx context.Context, w *model.Warranty) error

	// Lookup 按序列号查询，附带是否在保
	Lookup(ctx context.Context, serial string) (*model.Warranty, bool, error)

	ListByEmail(ctx context.Context, email string) ([]*model.Warranty, error)
	List(ctx context.Context, page, pageSize int) ([]*model.Warranty, error)
}

type warrantyService struct {
	repo repository.WarrantyRepository
}

func NewWarrantyService(repo repository.WarrantyRepository) WarrantyService {
	return &warrantyService{repo: repo}
}

func (s *warrantyService) Register(ctx context.Context, w *model.Warranty) error {
	if _, err := s.repo.GetBySerial(ctx, w.SerialNumber); err == nil {
		return ErrSerialTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	now := time.Now()
	if w.RegisteredAt.IsZero() {
		w.RegisteredAt = now
	}
	if w.ExpiresAt.IsZero() {
		w.ExpiresAt = w.RegisteredAt.Add(DefaultWarrantyPeriod)
	}
	return s.repo.Create(ctx, w)
}

func (s *warrantyService) Lookup(ctx context.Context, serial string) (*model.Warranty, bool, error) {
	w, err := s.repo.GetBySerial(ctx, serial)
	if err != nil {
		return nil, false, err
	}
	return w, w.Active(time.Now()), nil
}

func (s *warrantyService) ListByEmail(ctx context.Context, email string) ([]*model.Warranty, error) {
	return s.repo.ListByEmail(ctx, email)
}

func (s *warrantyService) List(ctx context.Context, page, pageSize int) ([]*model.Warranty, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}
	return s.repo.List(ctx, (page-1)*pageSize, pageSize)
}
