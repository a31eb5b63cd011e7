package model

import "time"

// Subscriber 邮件订阅者；退订保留行并记录时间，便于统计
type Subscriber struct {
	ID             string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email          string     `json:"email" gorm:"type:varchar(128);uniqueIndex;not null"`
	Source         string     `json:"source" gorm:"type:varchar(32)"` // footer, checkout, popup
	SubscribedAt   time.Time  `json:"subscribed_at" gorm:"index;not null"`
	UnsubscribedAt *time.Time `json:"unsubscribed_at,omitempty" gorm:"index"`
}

func (Subscriber) TableName() string { return "subscribers" }

// NewsletterStats 订阅统计聚合结果
type NewsletterStats struct {
	Total        int64 `json:"total"`
	Active       int64 `json:"active"`
	Unsubscribed int64 `json:"unsubscribed"`
	Last30Days   int64 `json:"last_30_days"`
}
