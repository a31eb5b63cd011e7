package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/d60-Lab/storefront/internal/model"
	"github.com/d60-Lab/storefront/pkg/response"
)

// ListPosts 已发布文章列表
// @Summary 博客列表
// @Tags 博客
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/blog [get]
func (h *Handler) ListPosts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	list, err := h.blogService.List(c.Request.Context(), true, page, pageSize)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}

// GetPost 按 slug 查询文章
// @Summary 博客详情
// @Tags 博客
// @Param slug path string true "文章 slug"
// @Success 200 {object} response.Response{data=model.BlogPost}
// @Failure 404 {object} response.Response
// @Router /api/v1/blog/{slug} [get]
func (h *Handler) GetPost(c *gin.Context) {
	post, err := h.blogService.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "post not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	if !post.Published {
		response.NotFound(c, "post not found")
		return
	}
	response.Success(c, post)
}

// AdminListPosts 后台文章列表（含草稿）
// @Summary 后台博客列表
// @Tags 博客
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Security BearerAuth
// @Router /api/v1/admin/blog [get]
func (h *Handler) AdminListPosts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	list, err := h.blogService.List(c.Request.Context(), false, page, pageSize)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}

// CreatePost 创建文章（草稿）
// @Summary 创建文章
// @Tags 博客
// @Accept json
// @Param request body model.BlogPost true "文章"
// @Success 200 {object} response.Response{data=model.BlogPost}
// @Security BearerAuth
// @Router /api/v1/admin/blog [post]
func (h *Handler) CreatePost(c *gin.Context) {
	var post model.BlogPost
	if err := c.ShouldBindJSON(&post); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	post.Published = false
	if err := h.blogService.Create(c.Request.Context(), &post); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.Success(c, post)
}

// UpdatePost 更新文章
// @Summary 更新文章
// @Tags 博客
// @Accept json
// @Param id path string true "文章ID"
// @Param request body model.BlogPost true "文章"
// @Success 200 {object} response.Response{data=model.BlogPost}
// @Security BearerAuth
// @Router /api/v1/admin/blog/{id} [put]
func (h *Handler) UpdatePost(c *gin.Context) {
	var post model.BlogPost
	if err := c.ShouldBindJSON(&post); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	post.ID = c.Param("id")
	if err := h.blogService.Update(c.Request.Context(), &post); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.Success(c, post)
}

// PublishPost 发布文章
// @Summary 发布文章
// @Tags 博客
// @Param id path string true "文章ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/admin/blog/{id}/publish [post]
func (h *Handler) PublishPost(c *gin.Context) {
	if err := h.blogService.Publish(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "post not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}

// DeletePost 删除文章
// @Summary 删除文章
// @Tags 博客
// @Param id path string true "文章ID"
// @Success 200 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/admin/blog/{id} [delete]
func (h *Handler) DeletePost(c *gin.Context) {
	if err := h.blogService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}

type subscribeRequest struct {
	Email  string `json:"email" binding:"required,email"`
	Source string `json:"source"`
}

// Subscribe 订阅邮件列表（幂等）
// @Summary 订阅
// @Tags 订阅
// @Accept json
// @Param request body subscribeRequest true "邮箱"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/newsletter/subscribe [post]
func (h *Handler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.newsletterService.Subscribe(c.Request.Context(), req.Email, req.Source); err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}

// Unsubscribe 退订
// @Summary 退订
// @Tags 订阅
// @Accept json
// @Param request body subscribeRequest true "邮箱"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/newsletter/unsubscribe [post]
func (h *Handler) Unsubscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.newsletterService.Unsubscribe(c.Request.Context(), req.Email); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "not subscribed")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}

// NewsletterStats 订阅统计
// @Summary 订阅统计
// @Tags 订阅
// @Success 200 {object} response.Response{data=model.NewsletterStats}
// @Security BearerAuth
// @Router /api/v1/admin/newsletter/stats [get]
func (h *Handler) NewsletterStats(c *gin.Context) {
	stats, err := h.newsletterService.Stats(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, stats)
}

// ListTestimonials 已审核评价（店面轮播用）
// @Summary 评价列表
// @Tags 评价
// @Success 200 {object} response.Response{data=[]model.Testimonial}
// @Router /api/v1/testimonials [get]
func (h *Handler) ListTestimonials(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	list, err := h.testimonialService.List(c.Request.Context(), true, page, pageSize)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, list)
}

// SubmitTestimonial 顾客提交评价（待审核）
// @Summary 提交评价
// @Tags 评价
// @Accept json
// @Param request body model.Testimonial true "评价"
// @Success 200 {object} response.Response{data=model.Testimonial}
// @Failure 400 {object} response.Response
// @Router /api/v1/testimonials [post]
func (h *Handler) SubmitTestimonial(c *gin.Context) {
	var tm model.Testimonial
	if err := c.ShouldBindJSON(&tm); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.testimonialService.Submit(c.Request.Context(), &tm); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.Success(c, tm)
}

// AdminListTestimonials 后台评价列表（含待审核）
// @Summary 后台评价列表
// @Tags 评价
// @Success 200 {object} response.Response{data=[]model.Testimonial}
// @Security BearerAuth
// @Router /api/v1/admin/testimonials [get]
func (h *Handler) AdminListTestimonials(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	list, err := h.testimonialService.List(c.Request.Context(), false, page, pageSize)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, list)
}

// ApproveTestimonial 审核通过
// @Summary 审核评价
// @Tags 评价
// @Param id path string true "评价ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/admin/testimonials/{id}/approve [post]
func (h *Handler) ApproveTestimonial(c *gin.Context) {
	if err := h.testimonialService.Approve(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "testimonial not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}

// ReorderTestimonials 评价重排序
// @Summary 评价重排序
// @Tags 评价
// @Accept json
// @Param request body reorderRequest true "ID 顺序"
// @Success 200 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/admin/reorder/testimonials [post]
func (h *Handler) ReorderTestimonials(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.testimonialService.Reorder(c.Request.Context(), req.IDs); err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}
