package model

import "time"

// Testimonial 客户评价；提交后默认待审核，审核通过才对外展示
type Testimonial struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CustomerName string    `json:"customer_name" gorm:"type:varchar(128);not null"`
	Content      string    `json:"content" gorm:"type:text;not null"`
	Rating       int       `json:"rating" gorm:"not null"` // 1-5
	Approved     bool      `json:"approved" gorm:"index;not null;default:false"`
	DisplayOrder int       `json:"display_order" gorm:"index;not null;default:0"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Testimonial) TableName() string { return "testimonials" }
