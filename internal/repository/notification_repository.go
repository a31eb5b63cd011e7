package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/storefront/internal/model"
)

// NotificationRepository 通知外发盒仓储接口
type NotificationRepository interface {
	// Enqueue 入库一条待发送通知
	Enqueue(ctx context.Context, n *model.Notification) error

	// ClaimPending 认领一批 pending 通知并置为 processing
	ClaimPending(ctx context.Context, limit int) ([]*model.Notification, error)

	// MarkSent 标记发送成功
	MarkSent(ctx context.Context, id string, at time.Time) error

	// MarkFailed 标记发送失败并累加尝试次数；attempts 未超限时回到 pending
	MarkFailed(ctx context.Context, id string, maxAttempts int) error

	// CountByStatus 各状态通知数量
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type notificationRepository struct{ db *gorm.DB }

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Enqueue(ctx context.Context, n *model.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.Status == "" {
		n.Status = model.NotifyStatusPending
	}
	return r.db.WithContext(ctx).Create(n).Error
}

// ClaimPending 事务内先查后改，避免多个 worker 重复认领
func (r *notificationRepository) ClaimPending(ctx context.Context, limit int) ([]*model.Notification, error) {
	var batch []*model.Notification
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("status = ?", model.NotifyStatusPending).
			Order("created_at ASC").
			Limit(limit).
			Find(&batch).Error; err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		ids := make([]string, len(batch))
		for i, n := range batch {
			ids[i] = n.ID
		}
		return tx.Model(&model.Notification{}).
			Where("id IN ?", ids).
			Updates(map[string]any{
				"status":   model.NotifyStatusProcessing,
				"attempts": gorm.Expr("attempts + 1"),
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

func (r *notificationRepository) MarkSent(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": model.NotifyStatusSent, "sent_at": at}).Error
}

func (r *notificationRepository) MarkFailed(ctx context.Context, id string, maxAttempts int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n model.Notification
		if err := tx.Where("id = ?", id).First(&n).Error; err != nil {
			return err
		}
		status := model.NotifyStatusPending
		if n.Attempts >= maxAttempts {
			status = model.NotifyStatusFailed
		}
		return tx.Model(&model.Notification{}).
			Where("id = ?", id).
			Update("status", status).Error
	})
}

func (r *notificationRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		Cnt    int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&model.Notification{}).
		Select("status, count(*) as cnt").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, rw := range rows {
		out[rw.Status] = rw.Cnt
	}
	return out, nil
}
