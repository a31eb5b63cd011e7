package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/storefront/internal/model"
)

// BlogRepository 博客仓储接口
type BlogRepository interface {
	Create(ctx context.Context, post *model.BlogPost) error
	Update(ctx context.Context, post *model.BlogPost) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*model.BlogPost, error)
	GetBySlug(ctx context.Context, slug string) (*model.BlogPost, error)
	// List publishedOnly 为 true 时仅返回已发布文章，按发布时间倒序
	List(ctx context.Context, publishedOnly bool, offset, limit int) ([]*model.BlogPost, error)
	// Publish 发布文章并记录发布时间
	Publish(ctx context.Context, id string, at time.Time) error
}

type blogRepository struct{ db *gorm.DB }

func NewBlogRepository(db *gorm.DB) BlogRepository { return &blogRepository{db: db} }

func (r *blogRepository) Create(ctx context.Context, post *model.BlogPost) error {
	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *blogRepository) Update(ctx context.Context, post *model.BlogPost) error {
	return r.db.WithContext(ctx).Save(post).Error
}

func (r *blogRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.BlogPost{}).Error
}

func (r *blogRepository) GetByID(ctx context.Context, id string) (*model.BlogPost, error) {
	var post model.BlogPost
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *blogRepository) GetBySlug(ctx context.Context, slug string) (*model.BlogPost, error) {
	var post model.BlogPost
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *blogRepository) List(ctx context.Context, publishedOnly bool, offset, limit int) ([]*model.BlogPost, error) {
	q := r.db.WithContext(ctx).Model(&model.BlogPost{})
	if publishedOnly {
		q = q.Where("published = ?", true).Order("published_at DESC")
	} else {
		q = q.Order("created_at DESC")
	}
	var posts []*model.BlogPost
	err := q.Offset(offset).Limit(limit).Find(&posts).Error
	return posts, err
}

func (r *blogRepository) Publish(ctx context.Context, id string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.BlogPost{}).
		Where("id = ?", id).
		Updates(map[string]any{"published": true, "published_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
