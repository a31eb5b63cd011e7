package handler

import (
	"github.com/d60-Lab/storefront/internal/service"
)

// Handler 聚合各业务服务的 HTTP 处理器
type Handler struct {
	authService        service.AuthService
	catalogService     service.CatalogService
	orderService       service.OrderService
	blogService        service.BlogService
	newsletterService  service.NewsletterService
	testimonialService service.TestimonialService
	warrantyService    service.WarrantyService
}

func NewHandler(
	auth service.AuthService,
	catalog service.CatalogService,
	orders service.OrderService,
	blog service.BlogService,
	newsletter service.NewsletterService,
	testimonials service.TestimonialService,
	warranties service.WarrantyService,
) *Handler {
	return &Handler{
		authService:        auth,
		catalogService:     catalog,
		orderService:       orders,
		blogService:        blog,
		newsletterService:  newsletter,
		testimonialService: testimonials,
		warrantyService:    warranties,
	}
}
