package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/d60-Lab/storefront/internal/model"
	"github.com/d60-Lab/storefront/internal/service"
	"github.com/d60-Lab/storefront/pkg/response"
)

type warrantyRegisterRequest struct {
	SerialNumber string `json:"serial_number" binding:"required"`
	ProductID    string `json:"product_id" binding:"required"`
	OrderID      string `json:"order_id"`
	CustomerName string `json:"customer_name" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
}

// RegisterWarranty 登记保修
// @Summary 保修登记
// @Tags 保修
// @Accept json
// @Param request body warrantyRegisterRequest true "保修信息"
// @Success 200 {object} response.Response{data=model.Warranty}
// @Failure 400 {object} response.Response
// @Router /api/v1/warranties [post]
func (h *Handler) RegisterWarranty(c *gin.Context) {
	var req warrantyRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	w := &model.Warranty{
		SerialNumber: req.SerialNumber,
		ProductID:    req.ProductID,
		CustomerName: req.CustomerName,
		Email:        req.Email,
	}
	if req.OrderID != "" {
		w.OrderID = &req.OrderID
	}
	if err := h.warrantyService.Register(c.Request.Context(), w); err != nil {
		if errors.Is(err, service.ErrSerialTaken) {
			response.Conflict(c, err.Error())
			return
		}
		response.BadRequest(c, err.Error())
		return
	}
	response.Success(c, w)
}

// LookupWarranty 按序列号查询保修
// @Summary 保修查询
// @Tags 保修
// @Param serial path string true "序列号"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 404 {object} response.Response
// @Router /api/v1/warranties/{serial} [get]
func (h *Handler) LookupWarranty(c *gin.Context) {
	w, active, err := h.warrantyService.Lookup(c.Request.Context(), c.Param("serial"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "warranty not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"warranty": w, "active": active})
}

// AdminListWarranties 后台保修列表
// @Summary 后台保修列表
// @Tags 保修
// @Success 200 {object} response.Response{data=[]model.Warranty}
// @Security BearerAuth
// @Router /api/v1/admin/warranties [get]
func (h *Handler) AdminListWarranties(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	list, err := h.warrantyService.List(c.Request.Context(), page, pageSize)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, list)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 后台登录，签发 JWT
// @Summary 管理员登录
// @Tags 认证
// @Accept json
// @Param request body loginRequest true "账号口令"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 401 {object} response.Response
// @Router /api/v1/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	token, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Unauthorized(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"token": token})
}
