package api

import (
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/storefront/config"
	"github.com/d60-Lab/storefront/internal/api/handler"
	"github.com/d60-Lab/storefront/internal/api/middleware"
	"github.com/d60-Lab/storefront/internal/service"
)

// NewRouter 组装路由与中间件
func NewRouter(cfg *config.Config, h *handler.Handler, auth service.AuthService) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	if cfg.Telemetry.Enabled {
		r.Use(otelgin.Middleware("storefront"))
	}
	if cfg.Sentry.DSN != "" {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	r.Use(middleware.RateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	{
		// 店面公开接口
		v1.POST("/auth/login", h.Login)
		v1.GET("/products", h.ListProducts)
		v1.GET("/products/:slug", h.GetProduct)
		v1.POST("/checkout", h.Checkout)
		v1.GET("/track/:order_number", h.TrackOrder)
		v1.POST("/payments/callback", h.PaymentCallback)
		v1.GET("/blog", h.ListPosts)
		v1.GET("/blog/:slug", h.GetPost)
		v1.POST("/newsletter/subscribe", h.Subscribe)
		v1.POST("/newsletter/unsubscribe", h.Unsubscribe)
		v1.GET("/testimonials", h.ListTestimonials)
		v1.POST("/testimonials", h.SubmitTestimonial)
		v1.POST("/warranties", h.RegisterWarranty)
		v1.GET("/warranties/:serial", h.LookupWarranty)

		// 后台接口
		admin := v1.Group("/admin", middleware.JWTAuth(auth))
		{
			admin.GET("/orders", h.ListOrders)
			admin.GET("/orders/:id", h.GetOrder)
			admin.GET("/orders/:id/transitions", h.ListTransitions)
			admin.POST("/orders/:id/status", h.ChangeOrderStatus)
			admin.POST("/orders/:id/advance", h.AdvanceOrder)

			admin.GET("/products", h.AdminListProducts)
			admin.POST("/products", h.CreateProduct)
			admin.PUT("/products/:id", h.UpdateProduct)
			admin.DELETE("/products/:id", h.DeleteProduct)
			admin.POST("/products/:id/stock", h.AdjustStock)
			// gin 路由树不允许 :id 与静态段同级，重排序单独挂载
			admin.POST("/reorder/products", h.ReorderProducts)

			admin.GET("/blog", h.AdminListPosts)
			admin.POST("/blog", h.CreatePost)
			admin.PUT("/blog/:id", h.UpdatePost)
			admin.POST("/blog/:id/publish", h.PublishPost)
			admin.DELETE("/blog/:id", h.DeletePost)

			admin.GET("/newsletter/stats", h.NewsletterStats)

			admin.GET("/testimonials", h.AdminListTestimonials)
			admin.POST("/testimonials/:id/approve", h.ApproveTestimonial)
			admin.POST("/reorder/testimonials", h.ReorderTestimonials)

			admin.GET("/warranties", h.AdminListWarranties)
		}
	}

	return r
}
