package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/d60-Lab/storefront/config"
	_ "github.com/d60-Lab/storefront/docs"
	"github.com/d60-Lab/storefront/internal/api"
	"github.com/d60-Lab/storefront/internal/api/handler"
	"github.com/d60-Lab/storefront/internal/cache"
	"github.com/d60-Lab/storefront/internal/model"
	"github.com/d60-Lab/storefront/internal/repository"
	"github.com/d60-Lab/storefront/internal/service"
	"github.com/d60-Lab/storefront/pkg/database"
	"github.com/d60-Lab/storefront/pkg/logger"
)

// @title Storefront API
// @version 1.0
// @description 商城前台与后台管理接口
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.Log.Level); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	if cfg.Telemetry.Enabled {
		shutdown, err := initTracing(cfg)
		if err != nil {
			logger.Warn("tracing init failed", zap.Error(err))
		} else {
			defer shutdown(context.Background())
		}
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Error("init database", zap.Error(err))
		os.Exit(1)
	}
	if err := db.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.StockMovement{},
		&model.Order{},
		&model.OrderItem{},
		&model.OrderStatusLog{},
		&model.BlogPost{},
		&model.Subscriber{},
		&model.Testimonial{},
		&model.Warranty{},
		&model.Notification{},
	); err != nil {
		logger.Error("auto migrate", zap.Error(err))
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		// 缓存不可用时降级为直查数据库
		logger.Warn("redis unreachable, cache disabled", zap.Error(err))
		rdb = nil
	}
	var productCache *cache.ProductCache
	if rdb != nil {
		productCache = cache.NewProductCache(rdb, cfg.Redis.CacheTTL)
	}

	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	blogRepo := repository.NewBlogRepository(db)
	subscriberRepo := repository.NewSubscriberRepository(db)
	testimonialRepo := repository.NewTestimonialRepository(db)
	warrantyRepo := repository.NewWarrantyRepository(db)
	notifyRepo := repository.NewNotificationRepository(db)

	authSvc := service.NewAuthService(userRepo, cfg.JWT)
	catalogSvc := service.NewCatalogService(productRepo, productCache)
	orderSvc := service.NewOrderService(orderRepo, productRepo, notifyRepo)
	blogSvc := service.NewBlogService(blogRepo)
	newsletterSvc := service.NewNewsletterService(subscriberRepo)
	testimonialSvc := service.NewTestimonialService(testimonialRepo)
	warrantySvc := service.NewWarrantyService(warrantyRepo)

	notifier := service.NewNotifier(notifyRepo, service.LogSender{}, 4, 64, 200*time.Millisecond)
	stopNotifier := notifier.Start()

	h := handler.NewHandler(authSvc, catalogSvc, orderSvc, blogSvc, newsletterSvc, testimonialSvc, warrantySvc)
	r := api.NewRouter(cfg, h, authSvc)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	if err := stopNotifier(ctx); err != nil {
		logger.Error("notifier shutdown", zap.Error(err))
	}
}

func initTracing(cfg *config.Config) (func(context.Context) error, error) {
	exp, err := otlptracehttp.New(context.Background(),
		otlptracehttp.WithEndpoint(cfg.Telemetry.Endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}
	res := resource.NewSchemaless(attribute.String("service.name", "storefront"))
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
