package model

import "time"

// Notification 通知外发盒；订单状态变更时入库，由异步 worker 消费
type Notification struct {
	ID        string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID   string     `json:"order_id" gorm:"type:varchar(36);index:idx_notify_order"`
	Channel   string     `json:"channel" gorm:"type:varchar(16);not null"` // email, webhook
	Recipient string     `json:"recipient" gorm:"type:varchar(128);not null"`
	Subject   string     `json:"subject" gorm:"type:varchar(255)"`
	Body      string     `json:"body" gorm:"type:text"`
	Status    string     `json:"status" gorm:"type:varchar(16);index"` // pending, processing, sent, failed
	Attempts  int        `json:"attempts" gorm:"not null;default:0"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
	CreatedAt time.Time  `json:"created_at" gorm:"index"`
}

func (Notification) TableName() string { return "notifications" }

// Notification 状态常量
const (
	NotifyStatusPending    = "pending"
	NotifyStatusProcessing = "processing"
	NotifyStatusSent       = "sent"
	NotifyStatusFailed     = "failed"
)
