package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/storefront/config"
	"github.com/d60-Lab/storefront/internal/api/handler"
	"github.com/d60-Lab/storefront/internal/model"
	"github.com/d60-Lab/storefront/internal/repository"
	"github.com/d60-Lab/storefront/internal/service"
	"github.com/d60-Lab/storefront/pkg/logger"
	"github.com/d60-Lab/storefront/pkg/response"
)

func setupRouter(t *testing.T) (http.Handler, *gorm.DB) {
	require.NoError(t, logger.Init("error"))

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{}, &model.Product{}, &model.StockMovement{},
		&model.Order{}, &model.OrderItem{}, &model.OrderStatusLog{},
		&model.BlogPost{}, &model.Subscriber{}, &model.Testimonial{},
		&model.Warranty{}, &model.Notification{},
	))

	cfg := &config.Config{}
	cfg.Server.Mode = "test"
	cfg.Server.RateLimit = 10000
	cfg.Server.RateBurst = 10000
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.Expire = time.Hour
	cfg.JWT.Issuer = "storefront-test"

	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	notifyRepo := repository.NewNotificationRepository(db)

	authSvc := service.NewAuthService(userRepo, cfg.JWT)
	catalogSvc := service.NewCatalogService(productRepo, nil)
	orderSvc := service.NewOrderService(orderRepo, productRepo, notifyRepo)
	blogSvc := service.NewBlogService(repository.NewBlogRepository(db))
	newsletterSvc := service.NewNewsletterService(repository.NewSubscriberRepository(db))
	testimonialSvc := service.NewTestimonialService(repository.NewTestimonialRepository(db))
	warrantySvc := service.NewWarrantyService(repository.NewWarrantyRepository(db))

	_, err = authSvc.CreateUser(context.Background(), "admin", "admin@example.com", "secret123")
	require.NoError(t, err)

	h := handler.NewHandler(authSvc, catalogSvc, orderSvc, blogSvc, newsletterSvc, testimonialSvc, warrantySvc)
	return NewRouter(cfg, h, authSvc), db
}

func doJSON(t *testing.T, r http.Handler, method, path, token string, body interface{}) (*httptest.ResponseRecorder, response.Response) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp response.Response
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func login(t *testing.T, r http.Handler) string {
	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "admin", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	data := resp.Data.(map[string]interface{})
	return data["token"].(string)
}

func seedActiveProduct(t *testing.T, db *gorm.DB, stock int) *model.Product {
	p := &model.Product{
		Name:   "Oak Bookend",
		Slug:   "oak-bookend",
		Price:  25.0,
		Stock:  stock,
		Status: model.ProductStatusActive,
	}
	require.NoError(t, repository.NewProductRepository(db).Create(context.Background(), p))
	return p
}

func checkoutBody(p *model.Product, qty int) map[string]interface{} {
	total := p.Price * float64(qty)
	return map[string]interface{}{
		"items":         []map[string]interface{}{{"product_id": p.ID, "quantity": qty}},
		"subtotal":      total,
		"total_amount":  total,
		"customer_name": "张三",
		"email":         "zhangsan@example.com",
		"address":       "人民路 1 号",
		"city":          "上海",
	}
}

func TestCheckoutAndTrack(t *testing.T) {
	r, db := setupRouter(t)
	p := seedActiveProduct(t, db, 5)

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/checkout", "", checkoutBody(p, 2))
	require.Equal(t, http.StatusOK, w.Code)
	order := resp.Data.(map[string]interface{})
	orderNumber := order["order_number"].(string)
	require.NotEmpty(t, orderNumber)
	assert.Equal(t, "pending", order["order_status"])

	// 扣减后的库存
	got, err := repository.NewProductRepository(db).GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Stock)

	w, resp = doJSON(t, r, http.MethodGet, "/api/v1/track/"+orderNumber, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	track := resp.Data.(map[string]interface{})
	assert.Equal(t, "pending", track["order_status"])
	assert.Equal(t, float64(20), track["progress"])

	// 金额不一致拒单
	bad := checkoutBody(p, 1)
	bad["total_amount"] = 1.0
	w, _ = doJSON(t, r, http.MethodPost, "/api/v1/checkout", "", bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminStatusFlow(t *testing.T) {
	r, db := setupRouter(t)
	p := seedActiveProduct(t, db, 5)

	_, resp := doJSON(t, r, http.MethodPost, "/api/v1/checkout", "", checkoutBody(p, 1))
	orderID := resp.Data.(map[string]interface{})["id"].(string)

	// 未认证拒绝
	w, _ := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/admin/orders/%s/status", orderID), "",
		map[string]string{"status": "confirmed"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := login(t, r)

	// pending -> confirmed
	w, resp = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/admin/orders/%s/status", orderID), token,
		map[string]string{"status": "confirmed"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "confirmed", resp.Data.(map[string]interface{})["order_status"])

	// confirmed -> shipped 非法
	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/admin/orders/%s/status", orderID), token,
		map[string]string{"status": "shipped"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 支付回调标记已支付
	w, _ = doJSON(t, r, http.MethodPost, "/api/v1/payments/callback", "",
		map[string]string{"order_id": orderID, "payment_status": "paid"})
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/admin/orders/%s/status", orderID), token,
		map[string]string{"status": "processing"})
	require.Equal(t, http.StatusOK, w.Code)

	// processing -> shipped 需要运单号
	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/admin/orders/%s/status", orderID), token,
		map[string]string{"status": "shipped"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/admin/orders/%s/status", orderID), token,
		map[string]interface{}{"status": "shipped", "tracking_number": "SF123456"})
	require.Equal(t, http.StatusOK, w.Code)

	// 可用变更列表只剩 delivered
	w, resp = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/admin/orders/%s/transitions", orderID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	trs := resp.Data.([]interface{})
	require.Len(t, trs, 1)
	assert.Equal(t, "delivered", trs[0].(map[string]interface{})["to"].(string))

	// 未知状态 400
	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/admin/orders/%s/status", orderID), token,
		map[string]string{"status": "teleported"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 订单详情携带进度与历史
	w, resp = doJSON(t, r, http.MethodGet, "/api/v1/admin/orders/"+orderID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(80), detail["progress"])
	assert.NotEmpty(t, detail["logs"])
}

func TestHealthz(t *testing.T) {
	r, _ := setupRouter(t)
	w, _ := doJSON(t, r, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
