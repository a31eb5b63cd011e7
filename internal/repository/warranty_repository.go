package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/storefront/internal/model"
)

// WarrantyRepository 保修登记仓储接口
type WarrantyRepository interface {
	Create(ctx context.Context, w *model.Warranty) error
	GetBySerial(ctx context.Context, serial string) (*model.Warranty, error)
	ListByEmail(ctx context.Context, email string) ([]*model.Warranty, error)
	List(ctx context.Context, offset, limit int) ([]*model.Warranty, error)
}

type warrantyRepository struct{ db *gorm.DB }

func NewWarrantyRepository(db *gorm.DB) WarrantyRepository { return &warrantyRepository{db: db} }

func (r *warrantyRepository) Create(ctx context.Context, w *model.Warranty) error {
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(w).Error
}

func (r *warrantyRepository) GetBySerial(ctx context.Context, serial string) (*model.Warranty, error) {
	var w model.Warranty
	if err := r.db.WithContext(ctx).Where("serial_number = ?", serial).First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *warrantyRepository) ListByEmail(ctx context.Context, email string) ([]*model.Warranty, error) {
	var list []*model.Warranty
	err := r.db.WithContext(ctx).Where("email = ?", email).Order("registered_at DESC").Find(&list).Error
	return list, err
}

func (r *warrantyRepository) List(ctx context.Context, offset, limit int) ([]*model.Warranty, error) {
	var list []*model.Warranty
	err := r.db.WithContext(ctx).Order("registered_at DESC").Offset(offset).Limit(limit).Find(&list).Error
	return list, err
}
