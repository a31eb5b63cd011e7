package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/d60-Lab/storefront/internal/model"
	"github.com/d60-Lab/storefront/internal/repository"
	"github.com/d60-Lab/storefront/internal/workflow"
	"github.com/d60-Lab/storefront/pkg/logger"
)

var (
	ErrTotalMismatch = errors.New("total_amount does not equal subtotal + tax + shipping - discount")
	ErrEmptyOrder    = errors.New("order has no items")
)

// CheckoutItem 结算请求的行项目
type CheckoutItem struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// CheckoutRequest 结算请求；金额为客户端快照，服务端校验合计不变式
type CheckoutRequest struct {
	Items          []CheckoutItem `json:"items" validate:"required,min=1,dive"`
	Subtotal       float64        `json:"subtotal" validate:"gte=0"`
	TaxAmount      float64        `json:"tax_amount" validate:"gte=0"`
	ShippingAmount float64        `json:"shipping_amount" validate:"gte=0"`
	DiscountAmount float64        `json:"discount_amount" validate:"gte=0"`
	TotalAmount    float64        `json:"total_amount" validate:"gte=0"`
	CustomerName   string         `json:"customer_name" validate:"required"`
	Email          string         `json:"email" validate:"required,email"`
	Phone          string         `json:"phone"`
	Address        string         `json:"address" validate:"required"`
	City           string         `json:"city" validate:"required"`
	Notes          string         `json:"notes"`
}

// StatusChangeRequest 状态变更请求
type StatusChangeRequest struct {
	Target         workflow.OrderStatus
	AdminNotes     string
	TrackingNumber string
	ChangedBy      string
}

// OrderService 订单服务
type OrderService interface {
	// Checkout 创建订单：校验合计不变式、逐项扣库存、落单
	Checkout(ctx context.Context, req CheckoutRequest) (*model.Order, error)

	Get(ctx context.Context, id string) (*model.Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (*model.Order, error)
	List(ctx context.Context, filter repository.OrderFilter, page, pageSize int) ([]*model.Order, error)

	// Transitions 当前订单开放的状态变更（供后台下拉框）
	Transitions(ctx context.Context, orderID string) ([]workflow.Transition, error)

	// ChangeStatus 校验守卫后以 CAS 持久化状态变更，成功后入队通知
	ChangeStatus(ctx context.Context, orderID string, req StatusChangeRequest) (*model.Order, error)

	// AdvanceAutomatic 推进首个可自动执行的变更；无可推进时返回 false
	AdvanceAutomatic(ctx context.Context, orderID string, changedBy string) (bool, error)

	// UpdatePayment 由支付回调更新支付状态
	UpdatePayment(ctx context.Context, orderID string, status workflow.PaymentStatus) error

	// StatusLogs 状态变更历史
	StatusLogs(ctx context.Context, orderID string) ([]*model.OrderStatusLog, error)

	// Progress 订单进度百分比
	Progress(order *model.Order) int
}

type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	notifyRepo  repository.NotificationRepository
	wf          *workflow.Workflow
	validate    *validator.Validate
}

func NewOrderService(orderRepo repository.OrderRepository, productRepo repository.ProductRepository, notifyRepo repository.NotificationRepository) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		notifyRepo:  notifyRepo,
		wf:          workflow.Default,
		validate:    validator.New(),
	}
}

// amountsEqual 金额比较容忍浮点误差（分以下）
func amountsEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.005
}

func (s *orderService) Checkout(ctx context.Context, req CheckoutRequest) (*model.Order, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	if !amountsEqual(req.TotalAmount, req.Subtotal+req.TaxAmount+req.ShippingAmount-req.DiscountAmount) {
		return nil, ErrTotalMismatch
	}

	orderID := uuid.New().String()

	// 逐项条件扣库存；任一失败则回补已扣项
	items := make([]model.OrderItem, 0, len(req.Items))
	decremented := make([]CheckoutItem, 0, len(req.Items))
	for _, it := range req.Items {
		p, err := s.productRepo.GetByID(ctx, it.ProductID)
		if err != nil {
			s.restoreStock(ctx, decremented, orderID)
			return nil, fmt.Errorf("load product %s: %w", it.ProductID, err)
		}
		if err := s.productRepo.DecrementStock(ctx, p.ID, it.Quantity, orderID); err != nil {
			s.restoreStock(ctx, decremented, orderID)
			return nil, fmt.Errorf("product %s: %w", p.Name, err)
		}
		decremented = append(decremented, it)
		tag := ""
		if p.Status == model.ProductStatusPreorder {
			tag = "preorder"
		}
		items = append(items, model.OrderItem{
			ProductID:     p.ID,
			Name:          p.Name,
			UnitPrice:     p.Price,
			OriginalPrice: p.OriginalPrice,
			Quantity:      it.Quantity,
			ImageURL:      p.ImageURL,
			StatusTag:     tag,
		})
	}

	order := &model.Order{
		ID:             orderID,
		OrderNumber:    newOrderNumber(),
		OrderStatus:    workflow.StatusPending,
		PaymentStatus:  workflow.PaymentPending,
		Items:          items,
		Subtotal:       req.Subtotal,
		TaxAmount:      req.TaxAmount,
		ShippingAmount: req.ShippingAmount,
		DiscountAmount: req.DiscountAmount,
		TotalAmount:    req.TotalAmount,
		CustomerName:   req.CustomerName,
		Email:          req.Email,
		Phone:          req.Phone,
		Address:        req.Address,
		City:           req.City,
		Notes:          req.Notes,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		s.restoreStock(ctx, decremented, orderID)
		return nil, err
	}

	s.enqueueNotification(ctx, order, "Order received",
		fmt.Sprintf("We received your order %s.", order.OrderNumber))
	return order, nil
}

func (s *orderService) restoreStock(ctx context.Context, items []CheckoutItem, orderID string) {
	for _, it := range items {
		if err := s.productRepo.AdjustStock(ctx, it.ProductID, it.Quantity, "checkout_rollback", &orderID); err != nil {
			logger.Error("restore stock after failed checkout",
				zap.String("product", it.ProductID), zap.Error(err))
		}
	}
}

// newOrderNumber 订单号：SO-日期-短随机段
func newOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return fmt.Sprintf("SO-%s-%s", time.Now().Format("20060102"), suffix)
}

func (s *orderService) Get(ctx context.Context, id string) (*model.Order, error) {
	return s.orderRepo.GetByID(ctx, id)
}

func (s *orderService) GetByNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	return s.orderRepo.GetByNumber(ctx, orderNumber)
}

func (s *orderService) List(ctx context.Context, filter repository.OrderFilter, page, pageSize int) ([]*model.Order, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	return s.orderRepo.List(ctx, filter, (page-1)*pageSize, pageSize)
}

func (s *orderService) Transitions(ctx context.Context, orderID string) ([]workflow.Transition, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.wf.AvailableTransitions(order.OrderStatus, order.PaymentStatus), nil
}

func (s *orderService) ChangeStatus(ctx context.Context, orderID string, req StatusChangeRequest) (*model.Order, error) {
	if !req.Target.IsValid() {
		return nil, workflow.ErrIllegalTransition
	}
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.wf.CheckTransition(order.OrderStatus, req.Target, order.PaymentStatus,
		req.AdminNotes, req.TrackingNumber); err != nil {
		return nil, err
	}

	// cancelled -> pending 的恢复路径需要重新占用库存，占不到则整单失败
	restoring := order.OrderStatus == workflow.StatusCancelled && req.Target == workflow.StatusPending
	if restoring {
		var taken []model.OrderItem
		for _, it := range order.Items {
			if err := s.productRepo.DecrementStock(ctx, it.ProductID, it.Quantity, order.ID); err != nil {
				for _, tk := range taken {
					_ = s.productRepo.AdjustStock(ctx, tk.ProductID, tk.Quantity, "restore_rollback", &order.ID)
				}
				return nil, fmt.Errorf("restore order %s: %w", order.OrderNumber, err)
			}
			taken = append(taken, it)
		}
	}

	upd := repository.StatusUpdate{
		AdminNotes:     req.AdminNotes,
		TrackingNumber: req.TrackingNumber,
		ChangedBy:      req.ChangedBy,
	}
	if req.Target == workflow.StatusDelivered {
		now := time.Now()
		upd.ActualDeliveryDate = &now
	}

	// 持久化前的最终校验由 CAS 承担：期望状态即读取到的状态
	if err := s.orderRepo.UpdateStatus(ctx, order.ID, order.OrderStatus, req.Target, upd); err != nil {
		if restoring {
			for _, it := range order.Items {
				_ = s.productRepo.AdjustStock(ctx, it.ProductID, it.Quantity, "restore_rollback", &order.ID)
			}
		}
		return nil, err
	}

	// 取消时回补库存
	if req.Target == workflow.StatusCancelled {
		for _, it := range order.Items {
			if err := s.productRepo.AdjustStock(ctx, it.ProductID, it.Quantity, "cancel_restore", &order.ID); err != nil {
				logger.Error("restore stock on cancel",
					zap.String("order", order.ID), zap.String("product", it.ProductID), zap.Error(err))
			}
		}
	}

	s.enqueueNotification(ctx, order, fmt.Sprintf("Order %s", req.Target),
		fmt.Sprintf("Your order %s is now %s.", order.OrderNumber, req.Target))

	return s.orderRepo.GetByID(ctx, order.ID)
}

func (s *orderService) AdvanceAutomatic(ctx context.Context, orderID string, changedBy string) (bool, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return false, err
	}
	next, ok := s.wf.NextAutomaticStatus(order.OrderStatus, order.PaymentStatus)
	if !ok {
		return false, nil
	}
	// automatable 变更不要求守卫字段，但发货仍需运单号，此时只能人工推进
	if err := s.wf.CheckTransition(order.OrderStatus, next, order.PaymentStatus, "", order.TrackingNumber); err != nil {
		if errors.Is(err, workflow.ErrTrackingRequired) || errors.Is(err, workflow.ErrAdminNotesRequired) {
			return false, nil
		}
		return false, err
	}
	_, err = s.ChangeStatus(ctx, orderID, StatusChangeRequest{
		Target:         next,
		TrackingNumber: order.TrackingNumber,
		ChangedBy:      changedBy,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *orderService) UpdatePayment(ctx context.Context, orderID string, status workflow.PaymentStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid payment status: %s", status)
	}
	return s.orderRepo.UpdatePaymentStatus(ctx, orderID, status)
}

func (s *orderService) StatusLogs(ctx context.Context, orderID string) ([]*model.OrderStatusLog, error) {
	return s.orderRepo.StatusLogs(ctx, orderID)
}

func (s *orderService) Progress(order *model.Order) int {
	return workflow.ProgressPercentage(order.OrderStatus)
}

func (s *orderService) enqueueNotification(ctx context.Context, order *model.Order, subject, body string) {
	if s.notifyRepo == nil {
		return
	}
	n := &model.Notification{
		OrderID:   order.ID,
		Channel:   "email",
		Recipient: order.Email,
		Subject:   subject,
		Body:      body,
		CreatedAt: time.Now(),
	}
	if err := s.notifyRepo.Enqueue(ctx, n); err != nil {
		logger.Warn("enqueue notification", zap.String("order", order.ID), zap.Error(err))
	}
}
