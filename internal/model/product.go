package model

import "time"

// ProductStatus 商品上架状态
const (
	ProductStatusDraft     = "draft"
	ProductStatusActive    = "active"
	ProductStatusArchived  = "archived"
	ProductStatusSoldOut   = "sold_out"
	ProductStatusPreorder  = "preorder"
)

// Product 商品
type Product struct {
	ID            string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name          string    `json:"name" gorm:"type:varchar(255);not null"`
	Slug          string    `json:"slug" gorm:"type:varchar(255);uniqueIndex;not null"`
	Description   string    `json:"description" gorm:"type:text"`
	Price         float64   `json:"price" gorm:"type:decimal(10,2);not null"`
	OriginalPrice *float64  `json:"original_price,omitempty" gorm:"type:decimal(10,2)"` // 划线价，可空
	Stock         int       `json:"stock" gorm:"not null;default:0"`
	Status        string    `json:"status" gorm:"type:varchar(16);index;not null;default:'draft'"`
	ImageURL      string    `json:"image_url" gorm:"type:varchar(512)"`
	Featured      bool      `json:"featured" gorm:"index;not null;default:false"`
	DisplayOrder  int       `json:"display_order" gorm:"index;not null;default:0"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Product) TableName() string { return "products" }

// StockMovement 库存流水，记录每次增减及原因
type StockMovement struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProductID string    `json:"product_id" gorm:"type:varchar(36);index:idx_stock_product;not null"`
	Delta     int       `json:"delta" gorm:"not null"` // 正数入库，负数出库
	Reason    string    `json:"reason" gorm:"type:varchar(64);not null"` // checkout, restock, adjustment, cancel_restore
	OrderID   *string   `json:"order_id,omitempty" gorm:"type:varchar(36);index"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_stock_product"`
}

func (StockMovement) TableName() string { return "stock_movements" }
