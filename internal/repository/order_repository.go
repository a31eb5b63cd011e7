package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/storefront/internal/model"
	"github.com/d60-Lab/storefront/internal/workflow"
)

var (
	// ErrStatusConflict 乐观并发失败：订单状态在读写之间被他人修改
	ErrStatusConflict = errors.New("order status changed since read")
)

// OrderFilter 订单列表过滤条件
type OrderFilter struct {
	Status        workflow.OrderStatus
	PaymentStatus workflow.PaymentStatus
	Email         string
}

// StatusUpdate 一次状态变更要持久化的字段
type StatusUpdate struct {
	AdminNotes         string
	TrackingNumber     string
	ActualDeliveryDate *time.Time
	ChangedBy          string
}

// OrderRepository 订单仓储接口
type OrderRepository interface {
	// Create 事务内创建订单与行项目
	Create(ctx context.Context, order *model.Order) error

	// GetByID 根据订单ID查询订单（含行项目）
	GetByID(ctx context.Context, id string) (*model.Order, error)

	// GetByNumber 根据订单号查询订单（含行项目）
	GetByNumber(ctx context.Context, orderNumber string) (*model.Order, error)

	// List 查询订单列表
	List(ctx context.Context, filter OrderFilter, offset, limit int) ([]*model.Order, error)

	// UpdateStatus 条件更新订单状态：当前状态必须等于 expected，
	// 否则返回 ErrStatusConflict；同事务写入状态变更审计
	UpdateStatus(ctx context.Context, orderID string, expected, next workflow.OrderStatus, upd StatusUpdate) error

	// UpdatePaymentStatus 更新支付状态（由支付回调驱动）
	UpdatePaymentStatus(ctx context.Context, orderID string, status workflow.PaymentStatus) error

	// StatusLogs 查询订单的状态变更历史
	StatusLogs(ctx context.Context, orderID string) ([]*model.OrderStatusLog, error)

	// CountByStatus 各状态订单数量
	CountByStatus(ctx context.Context) (map[workflow.OrderStatus]int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository { return &orderRepository{db: db} }

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.New().String()
		}
		order.Items[i].OrderID = order.ID
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(order).Error
	})
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetByNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).Preload("Items").Where("order_number = ?", orderNumber).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, filter OrderFilter, offset, limit int) ([]*model.Order, error) {
	q := r.db.WithContext(ctx).Model(&model.Order{})
	if filter.Status != "" {
		q = q.Where("order_status = ?", filter.Status)
	}
	if filter.PaymentStatus != "" {
		q = q.Where("payment_status = ?", filter.PaymentStatus)
	}
	if filter.Email != "" {
		q = q.Where("email = ?", filter.Email)
	}
	var orders []*model.Order
	err := q.Preload("Items").Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error
	return orders, err
}

// UpdateStatus 以 WHERE order_status = expected 做乐观并发检查
func (r *orderRepository) UpdateStatus(ctx context.Context, orderID string, expected, next workflow.OrderStatus, upd StatusUpdate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		values := map[string]any{"order_status": next}
		if upd.AdminNotes != "" {
			values["admin_notes"] = upd.AdminNotes
		}
		if upd.TrackingNumber != "" {
			values["tracking_number"] = upd.TrackingNumber
		}
		if upd.ActualDeliveryDate != nil {
			values["actual_delivery_date"] = upd.ActualDeliveryDate
		}
		res := tx.Model(&model.Order{}).
			Where("id = ? AND order_status = ?", orderID, expected).
			Updates(values)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// 区分不存在与状态已变
			var cnt int64
			if err := tx.Model(&model.Order{}).Where("id = ?", orderID).Count(&cnt).Error; err != nil {
				return err
			}
			if cnt == 0 {
				return gorm.ErrRecordNotFound
			}
			return ErrStatusConflict
		}
		log := &model.OrderStatusLog{
			ID:        uuid.New().String(),
			OrderID:   orderID,
			OldStatus: expected,
			NewStatus: next,
			ChangedBy: upd.ChangedBy,
			Note:      upd.AdminNotes,
			CreatedAt: time.Now(),
		}
		return tx.Create(log).Error
	})
}

func (r *orderRepository) UpdatePaymentStatus(ctx context.Context, orderID string, status workflow.PaymentStatus) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Update("payment_status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *orderRepository) StatusLogs(ctx context.Context, orderID string) ([]*model.OrderStatusLog, error) {
	var logs []*model.OrderStatusLog
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&logs).Error
	return logs, err
}

func (r *orderRepository) CountByStatus(ctx context.Context) (map[workflow.OrderStatus]int64, error) {
	type row struct {
		OrderStatus workflow.OrderStatus
		Cnt         int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Select("order_status, count(*) as cnt").
		Group("order_status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[workflow.OrderStatus]int64, len(rows))
	for _, rw := range rows {
		out[rw.OrderStatus] = rw.Cnt
	}
	return out, nil
}
