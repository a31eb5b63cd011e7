package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/storefront/internal/model"
)

// TestimonialRepository 客户评价仓储接口
type TestimonialRepository interface {
	Create(ctx context.Context, t *model.Testimonial) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*model.Testimonial, error)
	// List approvedOnly 为 true 时仅返回已审核，按展示顺序排序
	List(ctx context.Context, approvedOnly bool, offset, limit int) ([]*model.Testimonial, error)
	// SetApproved 审核通过 / 撤回
	SetApproved(ctx context.Context, id string, approved bool) error
	// Reorder 批量更新展示顺序
	Reorder(ctx context.Context, ids []string) error
}

type testimonialRepository struct{ db *gorm.DB }

func NewTestimonialRepository(db *gorm.DB) TestimonialRepository {
	return &testimonialRepository{db: db}
}

func (r *testimonialRepository) Create(ctx context.Context, t *model.Testimonial) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *testimonialRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Testimonial{}).Error
}

func (r *testimonialRepository) GetByID(ctx context.Context, id string) (*model.Testimonial, error) {
	var t model.Testimonial
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *testimonialRepository) List(ctx context.Context, approvedOnly bool, offset, limit int) ([]*model.Testimonial, error) {
	q := r.db.WithContext(ctx).Model(&model.Testimonial{})
	if approvedOnly {
		q = q.Where("approved = ?", true)
	}
	var list []*model.Testimonial
	err := q.Order("display_order ASC, created_at DESC").Offset(offset).Limit(limit).Find(&list).Error
	return list, err
}

func (r *testimonialRepository) SetApproved(ctx context.Context, id string, approved bool) error {
	res := r.db.WithContext(ctx).Model(&model.Testimonial{}).
		Where("id = ?", id).
		Update("approved", approved)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *testimonialRepository) Reorder(ctx context.Context, ids []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, id := range ids {
			if err := tx.Model(&model.Testimonial{}).
				Where("id = ?", id).
				Update("display_order", i).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
