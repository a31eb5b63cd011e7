package model

import "time"

// BlogPost 博客文章
type BlogPost struct {
	ID          string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title       string     `json:"title" gorm:"type:varchar(255);not null"`
	Slug        string     `json:"slug" gorm:"type:varchar(255);uniqueIndex;not null"`
	Excerpt     string     `json:"excerpt" gorm:"type:text"`
	Content     string     `json:"content" gorm:"type:text"`
	CoverURL    string     `json:"cover_url" gorm:"type:varchar(512)"`
	Author      string     `json:"author" gorm:"type:varchar(64)"`
	Published   bool       `json:"published" gorm:"index;not null;default:false"`
	PublishedAt *time.Time `json:"published_at,omitempty" gorm:"index"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (BlogPost) TableName() string { return "blog_posts" }
