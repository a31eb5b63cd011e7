package model

import "time"

// Warranty 保修登记
type Warranty struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	SerialNumber string    `json:"serial_number" gorm:"type:varchar(64);uniqueIndex;not null"`
	ProductID    string    `json:"product_id" gorm:"type:varchar(36);index;not null"`
	OrderID      *string   `json:"order_id,omitempty" gorm:"type:varchar(36);index"`
	CustomerName string    `json:"customer_name" gorm:"type:varchar(128);not null"`
	Email        string    `json:"email" gorm:"type:varchar(128);index;not null"`
	RegisteredAt time.Time `json:"registered_at" gorm:"not null"`
	ExpiresAt    time.Time `json:"expires_at" gorm:"index;not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Warranty) TableName() string { return "warranties" }

// Active 保修是否仍在有效期内
func (w *Warranty) Active(now time.Time) bool {
	return now.Before(w.ExpiresAt)
}
