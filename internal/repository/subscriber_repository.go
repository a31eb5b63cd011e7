package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/storefront/internal/model"
)

// SubscriberRepository 邮件订阅仓储接口
type SubscriberRepository interface {
	// Subscribe 幂等订阅：已存在的邮箱重新激活
	Subscribe(ctx context.Context, email, source string) error

	// Unsubscribe 退订，保留行并记录时间
	Unsubscribe(ctx context.Context, email string) error

	GetByEmail(ctx context.Context, email string) (*model.Subscriber, error)

	// List 订阅者列表；activeOnly 为 true 时排除已退订
	List(ctx context.Context, activeOnly bool, offset, limit int) ([]*model.Subscriber, error)

	// Stats 订阅统计聚合（原 get_newsletter_stats 存储过程）
	Stats(ctx context.Context) (*model.NewsletterStats, error)
}

type subscriberRepository struct{ db *gorm.DB }

func NewSubscriberRepository(db *gorm.DB) SubscriberRepository { return &subscriberRepository{db: db} }

func (r *subscriberRepository) Subscribe(ctx context.Context, email, source string) error {
	sub := &model.Subscriber{
		ID:           uuid.New().String(),
		Email:        email,
		Source:       source,
		SubscribedAt: time.Now(),
	}
	// 冲突时视为重新订阅：刷新订阅时间并清除退订标记
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "email"}},
		DoUpdates: clause.Assignments(map[string]any{
			"subscribed_at":   sub.SubscribedAt,
			"unsubscribed_at": nil,
		}),
	}).Create(sub).Error
}

func (r *subscriberRepository) Unsubscribe(ctx context.Context, email string) error {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&model.Subscriber{}).
		Where("email = ? AND unsubscribed_at IS NULL", email).
		Update("unsubscribed_at", now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *subscriberRepository) GetByEmail(ctx context.Context, email string) (*model.Subscriber, error) {
	var sub model.Subscriber
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriberRepository) List(ctx context.Context, activeOnly bool, offset, limit int) ([]*model.Subscriber, error) {
	q := r.db.WithContext(ctx).Model(&model.Subscriber{})
	if activeOnly {
		q = q.Where("unsubscribed_at IS NULL")
	}
	var subs []*model.Subscriber
	err := q.Order("subscribed_at DESC").Offset(offset).Limit(limit).Find(&subs).Error
	return subs, err
}

func (r *subscriberRepository) Stats(ctx context.Context) (*model.NewsletterStats, error) {
	var stats model.NewsletterStats
	db := r.db.WithContext(ctx).Model(&model.Subscriber{})

	if err := db.Session(&gorm.Session{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := db.Session(&gorm.Session{}).Where("unsubscribed_at IS NULL").Count(&stats.Active).Error; err != nil {
		return nil, err
	}
	stats.Unsubscribed = stats.Total - stats.Active
	since := time.Now().AddDate(0, 0, -30)
	if err := db.Session(&gorm.Session{}).Where("subscribed_at >= ?", since).Count(&stats.Last30Days).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}
