package model

import (
	"time"

	"github.com/d60-Lab/storefront/internal/workflow"
)

// OrderPriority 订单优先级（可空）
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Order 订单主体
type Order struct {
	ID          string               `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderNumber string               `json:"order_number" gorm:"type:varchar(32);uniqueIndex;not null"`
	OrderStatus workflow.OrderStatus `json:"order_status" gorm:"type:varchar(16);index;not null;default:'pending'"`
	// PaymentStatus 与履约状态独立演进，由支付回调更新
	PaymentStatus workflow.PaymentStatus `json:"payment_status" gorm:"type:varchar(16);index;not null;default:'pending'"`
	Priority      *string                `json:"priority,omitempty" gorm:"type:varchar(8)"`

	Items []OrderItem `json:"items" gorm:"foreignKey:OrderID"`

	// 金额字段，创建时必须满足 total = subtotal + tax + shipping - discount
	Subtotal       float64 `json:"subtotal" gorm:"type:decimal(10,2);not null"`
	TaxAmount      float64 `json:"tax_amount" gorm:"type:decimal(10,2);not null;default:0"`
	ShippingAmount float64 `json:"shipping_amount" gorm:"type:decimal(10,2);not null;default:0"`
	DiscountAmount float64 `json:"discount_amount" gorm:"type:decimal(10,2);not null;default:0"`
	TotalAmount    float64 `json:"total_amount" gorm:"type:decimal(10,2);not null"`

	CustomerName string `json:"customer_name" gorm:"type:varchar(128);not null"`
	Email        string `json:"email" gorm:"type:varchar(128);index;not null"`
	Phone        string `json:"phone" gorm:"type:varchar(32)"`
	Address      string `json:"address" gorm:"type:varchar(255)"`
	City         string `json:"city" gorm:"type:varchar(64)"`
	Notes        string `json:"notes,omitempty" gorm:"type:text"`

	AdminNotes            string     `json:"admin_notes,omitempty" gorm:"type:text"`
	TrackingNumber        string     `json:"tracking_number,omitempty" gorm:"type:varchar(64)"`
	EstimatedDeliveryDate *time.Time `json:"estimated_delivery_date,omitempty"`
	ActualDeliveryDate    *time.Time `json:"actual_delivery_date,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Order) TableName() string { return "orders" }

// OrderItem 订单行项目，下单时快照商品信息
type OrderItem struct {
	ID            string   `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID       string   `json:"order_id" gorm:"type:varchar(36);index;not null"`
	ProductID     string   `json:"product_id" gorm:"type:varchar(36);index;not null"`
	Name          string   `json:"name" gorm:"type:varchar(255);not null"`
	UnitPrice     float64  `json:"unit_price" gorm:"type:decimal(10,2);not null"`
	OriginalPrice *float64 `json:"original_price,omitempty" gorm:"type:decimal(10,2)"`
	Quantity      int      `json:"quantity" gorm:"not null"`
	ImageURL      string   `json:"image_url" gorm:"type:varchar(512)"`
	StatusTag     string   `json:"status_tag,omitempty" gorm:"type:varchar(16)"` // 如 preorder
}

func (OrderItem) TableName() string { return "order_items" }

// OrderStatusLog 状态变更审计，与订单状态更新同事务写入
type OrderStatusLog struct {
	ID        string               `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID   string               `json:"order_id" gorm:"type:varchar(36);index:idx_statuslog_order;not null"`
	OldStatus workflow.OrderStatus `json:"old_status" gorm:"type:varchar(16);not null"`
	NewStatus workflow.OrderStatus `json:"new_status" gorm:"type:varchar(16);not null"`
	ChangedBy string               `json:"changed_by" gorm:"type:varchar(64)"`
	Note      string               `json:"note,omitempty" gorm:"type:text"`
	CreatedAt time.Time            `json:"created_at" gorm:"index:idx_statuslog_order"`
}

func (OrderStatusLog) TableName() string { return "order_status_logs" }
