package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/d60-Lab/storefront/internal/repository"
	"github.com/d60-Lab/storefront/internal/service"
	"github.com/d60-Lab/storefront/internal/workflow"
	"github.com/d60-Lab/storefront/pkg/response"
)

// Checkout 提交结算创建订单
// @Summary 结算下单
// @Tags 订单
// @Accept json
// @Produce json
// @Param request body service.CheckoutRequest true "结算信息"
// @Success 200 {object} response.Response{data=model.Order}
// @Failure 400 {object} response.Response
// @Router /api/v1/checkout [post]
func (h *Handler) Checkout(c *gin.Context) {
	var req service.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	order, err := h.orderService.Checkout(c.Request.Context(), req)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.Success(c, order)
}

// TrackOrder 顾客按订单号查询进度
// @Summary 订单跟踪
// @Tags 订单
// @Param order_number path string true "订单号"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 404 {object} response.Response
// @Router /api/v1/track/{order_number} [get]
func (h *Handler) TrackOrder(c *gin.Context) {
	order, err := h.orderService.GetByNumber(c.Request.Context(), c.Param("order_number"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "order not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{
		"order_number":            order.OrderNumber,
		"order_status":            order.OrderStatus,
		"progress":                h.orderService.Progress(order),
		"tracking_number":         order.TrackingNumber,
		"estimated_delivery_date": order.EstimatedDeliveryDate,
		"actual_delivery_date":    order.ActualDeliveryDate,
	})
}

// ListOrders 后台订单列表
// @Summary 订单列表
// @Tags 订单
// @Param status query string false "履约状态"
// @Param payment_status query string false "支付状态"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Security BearerAuth
// @Router /api/v1/admin/orders [get]
func (h *Handler) ListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	filter := repository.OrderFilter{
		Status:        workflow.OrderStatus(c.Query("status")),
		PaymentStatus: workflow.PaymentStatus(c.Query("payment_status")),
		Email:         c.Query("email"),
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		response.BadRequest(c, "invalid status filter")
		return
	}
	if filter.PaymentStatus != "" && !filter.PaymentStatus.IsValid() {
		response.BadRequest(c, "invalid payment_status filter")
		return
	}

	list, err := h.orderService.List(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}

// GetOrder 后台订单详情（含进度与变更历史）
// @Summary 订单详情
// @Tags 订单
// @Param id path string true "订单ID"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 404 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/admin/orders/{id} [get]
func (h *Handler) GetOrder(c *gin.Context) {
	ctx := c.Request.Context()
	order, err := h.orderService.Get(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "order not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	logs, err := h.orderService.StatusLogs(ctx, order.ID)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{
		"order":    order,
		"progress": h.orderService.Progress(order),
		"logs":     logs,
	})
}

// ListTransitions 当前订单开放的状态变更
// @Summary 可用状态变更
// @Tags 订单
// @Param id path string true "订单ID"
// @Success 200 {object} response.Response{data=[]workflow.Transition}
// @Failure 404 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/admin/orders/{id}/transitions [get]
func (h *Handler) ListTransitions(c *gin.Context) {
	trs, err := h.orderService.Transitions(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "order not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, trs)
}

type statusChangeRequest struct {
	Status         string `json:"status" binding:"required"`
	AdminNotes     string `json:"admin_notes"`
	TrackingNumber string `json:"tracking_number"`
}

// ChangeOrderStatus 变更订单状态
// @Summary 变更订单状态
// @Tags 订单
// @Accept json
// @Param id path string true "订单ID"
// @Param request body statusChangeRequest true "目标状态与守卫字段"
// @Success 200 {object} response.Response{data=model.Order}
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/admin/orders/{id}/status [post]
func (h *Handler) ChangeOrderStatus(c *gin.Context) {
	var req statusChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	target := workflow.OrderStatus(req.Status)
	if !target.IsValid() {
		response.BadRequest(c, "unknown order status: "+req.Status)
		return
	}

	order, err := h.orderService.ChangeStatus(c.Request.Context(), c.Param("id"), service.StatusChangeRequest{
		Target:         target,
		AdminNotes:     req.AdminNotes,
		TrackingNumber: req.TrackingNumber,
		ChangedBy:      currentUsername(c),
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			response.NotFound(c, "order not found")
		case errors.Is(err, repository.ErrStatusConflict):
			response.Conflict(c, "order status changed since read, reload and retry")
		case errors.Is(err, workflow.ErrIllegalTransition),
			errors.Is(err, workflow.ErrAdminNotesRequired),
			errors.Is(err, workflow.ErrTrackingRequired),
			errors.Is(err, repository.ErrInsufficientStock):
			response.BadRequest(c, err.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.Success(c, order)
}

// AdvanceOrder 推进可自动执行的变更（供调度任务调用）
// @Summary 自动推进订单
// @Tags 订单
// @Param id path string true "订单ID"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Security BearerAuth
// @Router /api/v1/admin/orders/{id}/advance [post]
func (h *Handler) AdvanceOrder(c *gin.Context) {
	advanced, err := h.orderService.AdvanceAutomatic(c.Request.Context(), c.Param("id"), currentUsername(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "order not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"advanced": advanced})
}

type paymentCallbackRequest struct {
	OrderID       string `json:"order_id" binding:"required"`
	PaymentStatus string `json:"payment_status" binding:"required"`
}

// PaymentCallback 支付回调更新支付状态
// @Summary 支付回调
// @Tags 订单
// @Accept json
// @Param request body paymentCallbackRequest true "回调信息"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/payments/callback [post]
func (h *Handler) PaymentCallback(c *gin.Context) {
	var req paymentCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	ps := workflow.PaymentStatus(req.PaymentStatus)
	if !ps.IsValid() {
		response.BadRequest(c, "unknown payment status: "+req.PaymentStatus)
		return
	}
	if err := h.orderService.UpdatePayment(c.Request.Context(), req.OrderID, ps); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "order not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}

// currentUsername 从认证中间件注入的上下文取操作者
func currentUsername(c *gin.Context) string {
	if v, ok := c.Get("username"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
