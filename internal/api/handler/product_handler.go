package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/d60-Lab/storefront/internal/model"
	"github.com/d60-Lab/storefront/internal/repository"
	"github.com/d60-Lab/storefront/pkg/response"
)

// ListProducts 店面商品列表（仅在售，走缓存）
// @Summary 商品列表
// @Tags 商品
// @Param featured query bool false "仅精选"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/products [get]
func (h *Handler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	filter := repository.ProductFilter{Status: model.ProductStatusActive}
	if v, ok := c.GetQuery("featured"); ok {
		featured := v == "true"
		filter.Featured = &featured
	}

	list, err := h.catalogService.List(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}

// GetProduct 按 slug 查询商品详情
// @Summary 商品详情
// @Tags 商品
// @Param slug path string true "商品 slug"
// @Success 200 {object} response.Response{data=model.Product}
// @Failure 404 {object} response.Response
// @Router /api/v1/products/{slug} [get]
func (h *Handler) GetProduct(c *gin.Context) {
	p, err := h.catalogService.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "product not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, p)
}

// AdminListProducts 后台商品列表（全部状态）
// @Summary 后台商品列表
// @Tags 商品
// @Param status query string false "上架状态"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Security BearerAuth
// @Router /api/v1/admin/products [get]
func (h *Handler) AdminListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	filter := repository.ProductFilter{Status: c.Query("status")}
	list, err := h.catalogService.List(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}

// CreateProduct 创建商品
// @Summary 创建商品
// @Tags 商品
// @Accept json
// @Param request body model.Product true "商品信息"
// @Success 200 {object} response.Response{data=model.Product}
// @Failure 400 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/admin/products [post]
func (h *Handler) CreateProduct(c *gin.Context) {
	var p model.Product
	if err := c.ShouldBindJSON(&p); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.catalogService.Create(c.Request.Context(), &p); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.Success(c, p)
}

// UpdateProduct 更新商品
// @Summary 更新商品
// @Tags 商品
// @Accept json
// @Param id path string true "商品ID"
// @Param request body model.Product true "商品信息"
// @Success 200 {object} response.Response{data=model.Product}
// @Failure 400 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/admin/products/{id} [put]
func (h *Handler) UpdateProduct(c *gin.Context) {
	var p model.Product
	if err := c.ShouldBindJSON(&p); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	p.ID = c.Param("id")
	if err := h.catalogService.Update(c.Request.Context(), &p); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.Success(c, p)
}

// DeleteProduct 删除商品
// @Summary 删除商品
// @Tags 商品
// @Param id path string true "商品ID"
// @Success 200 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/admin/products/{id} [delete]
func (h *Handler) DeleteProduct(c *gin.Context) {
	if err := h.catalogService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}

type stockAdjustRequest struct {
	Delta  int    `json:"delta" binding:"required"`
	Reason string `json:"reason"`
}

// AdjustStock 人工调整库存
// @Summary 调整库存
// @Tags 商品
// @Accept json
// @Param id path string true "商品ID"
// @Param request body stockAdjustRequest true "调整量与原因"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/admin/products/{id}/stock [post]
func (h *Handler) AdjustStock(c *gin.Context) {
	var req stockAdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.catalogService.AdjustStock(c.Request.Context(), c.Param("id"), req.Delta, req.Reason); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "product not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}

type reorderRequest struct {
	IDs []string `json:"ids" binding:"required,min=1"`
}

// ReorderProducts 拖拽排序落库
// @Summary 商品重排序
// @Tags 商品
// @Accept json
// @Param request body reorderRequest true "ID 顺序"
// @Success 200 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/admin/reorder/products [post]
func (h *Handler) ReorderProducts(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.catalogService.Reorder(c.Request.Context(), req.IDs); err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}
