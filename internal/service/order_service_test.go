package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/storefront/internal/model"
	"github.com/d60-Lab/storefront/internal/repository"
	"github.com/d60-Lab/storefront/internal/workflow"
)

func setupServiceDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{}, &model.Product{}, &model.StockMovement{},
		&model.Order{}, &model.OrderItem{}, &model.OrderStatusLog{},
		&model.BlogPost{}, &model.Subscriber{}, &model.Testimonial{},
		&model.Warranty{}, &model.Notification{},
	))
	return db
}

type orderFixture struct {
	db          *gorm.DB
	orders      OrderService
	products    repository.ProductRepository
	notifyRepo  repository.NotificationRepository
	productID   string
}

func newOrderFixture(t *testing.T, stock int) *orderFixture {
	db := setupServiceDB(t)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	notifyRepo := repository.NewNotificationRepository(db)

	p := &model.Product{Name: "Oak Bookshelf", Slug: "oak-bookshelf", Price: 199.0, Stock: stock, Status: model.ProductStatusActive}
	require.NoError(t, productRepo.Create(context.Background(), p))

	return &orderFixture{
		db:         db,
		orders:     NewOrderService(orderRepo, productRepo, notifyRepo),
		products:   productRepo,
		notifyRepo: notifyRepo,
		productID:  p.ID,
	}
}

func checkoutReq(productID string, qty int) CheckoutRequest {
	sub := 199.0 * float64(qty)
	return CheckoutRequest{
		Items:          []CheckoutItem{{ProductID: productID, Quantity: qty}},
		Subtotal:       sub,
		TaxAmount:      10.0,
		ShippingAmount: 15.0,
		DiscountAmount: 5.0,
		TotalAmount:    sub + 10.0 + 15.0 - 5.0,
		CustomerName:   "Zhang Min",
		Email:          "zhang.min@example.com",
		Address:        "88 Jianguo Rd",
		City:           "Beijing",
	}
}

func (f *orderFixture) stock(t *testing.T) int {
	p, err := f.products.GetByID(context.Background(), f.productID)
	require.NoError(t, err)
	return p.Stock
}

func TestCheckoutHappyPath(t *testing.T) {
	f := newOrderFixture(t, 10)
	ctx := context.Background()

	order, err := f.orders.Checkout(ctx, checkoutReq(f.productID, 2))
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPending, order.OrderStatus)
	assert.Equal(t, workflow.PaymentPending, order.PaymentStatus)
	assert.NotEmpty(t, order.OrderNumber)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Oak Bookshelf", order.Items[0].Name)
	assert.Equal(t, 8, f.stock(t))
	assert.Equal(t, 20, f.orders.Progress(order))

	// 下单通知已入队
	counts, err := f.notifyRepo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts[model.NotifyStatusPending])
}

func TestCheckoutTotalInvariant(t *testing.T) {
	f := newOrderFixture(t, 10)

	req := checkoutReq(f.productID, 1)
	req.TotalAmount = req.TotalAmount + 1 // 破坏不变式
	_, err := f.orders.Checkout(context.Background(), req)
	assert.ErrorIs(t, err, ErrTotalMismatch)
	assert.Equal(t, 10, f.stock(t))
}

func TestCheckoutInsufficientStock(t *testing.T) {
	f := newOrderFixture(t, 1)

	_, err := f.orders.Checkout(context.Background(), checkoutReq(f.productID, 2))
	assert.ErrorIs(t, err, repository.ErrInsufficientStock)
	assert.Equal(t, 1, f.stock(t))
}

func TestCheckoutValidation(t *testing.T) {
	f := newOrderFixture(t, 10)

	req := checkoutReq(f.productID, 1)
	req.Email = "not-an-email"
	_, err := f.orders.Checkout(context.Background(), req)
	assert.Error(t, err)
	assert.Equal(t, 10, f.stock(t))
}

func TestChangeStatusGuards(t *testing.T) {
	f := newOrderFixture(t, 10)
	ctx := context.Background()

	order, err := f.orders.Checkout(ctx, checkoutReq(f.productID, 1))
	require.NoError(t, err)

	// 取消必须附说明
	_, err = f.orders.ChangeStatus(ctx, order.ID, StatusChangeRequest{Target: workflow.StatusCancelled})
	assert.ErrorIs(t, err, workflow.ErrAdminNotesRequired)

	// 跳级非法
	_, err = f.orders.ChangeStatus(ctx, order.ID, StatusChangeRequest{Target: workflow.StatusShipped})
	assert.ErrorIs(t, err, workflow.ErrIllegalTransition)

	// 正常推进
	got, err := f.orders.ChangeStatus(ctx, order.ID, StatusChangeRequest{Target: workflow.StatusConfirmed, ChangedBy: "admin"})
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusConfirmed, got.OrderStatus)

	logs, err := f.orders.StatusLogs(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, workflow.StatusConfirmed, logs[0].NewStatus)
}

func TestShippingRequiresTracking(t *testing.T) {
	f := newOrderFixture(t, 10)
	ctx := context.Background()

	order, err := f.orders.Checkout(ctx, checkoutReq(f.productID, 1))
	require.NoError(t, err)
	_, err = f.orders.ChangeStatus(ctx, order.ID, StatusChangeRequest{Target: workflow.StatusConfirmed})
	require.NoError(t, err)
	_, err = f.orders.ChangeStatus(ctx, order.ID, StatusChangeRequest{Target: workflow.StatusProcessing})
	require.NoError(t, err)

	_, err = f.orders.ChangeStatus(ctx, order.ID, StatusChangeRequest{Target: workflow.StatusShipped})
	assert.ErrorIs(t, err, workflow.ErrTrackingRequired)

	got, err := f.orders.ChangeStatus(ctx, order.ID, StatusChangeRequest{
		Target: workflow.StatusShipped, TrackingNumber: "SF98765", ChangedBy: "admin"})
	require.NoError(t, err)
	assert.Equal(t, "SF98765", got.TrackingNumber)
	assert.Equal(t, 80, f.orders.Progress(got))

	// 送达后写入实际送达时间，且不再有任何出边
	got, err = f.orders.ChangeStatus(ctx, order.ID, StatusChangeRequest{Target: workflow.StatusDelivered})
	require.NoError(t, err)
	require.NotNil(t, got.ActualDeliveryDate)
	assert.Equal(t, 100, f.orders.Progress(got))

	trs, err := f.orders.Transitions(ctx, order.ID)
	require.NoError(t, err)
	assert.Empty(t, trs)

	_, err = f.orders.ChangeStatus(ctx, order.ID, StatusChangeRequest{Target: workflow.StatusPending, AdminNotes: "x"})
	assert.ErrorIs(t, err, workflow.ErrIllegalTransition)
}

func TestCancelRestoresStock(t *testing.T) {
	f := newOrderFixture(t, 5)
	ctx := context.Background()

	order, err := f.orders.Checkout(ctx, checkoutReq(f.productID, 3))
	require.NoError(t, err)
	assert.Equal(t, 2, f.stock(t))

	_, err = f.orders.ChangeStatus(ctx, order.ID, StatusChangeRequest{
		Target: workflow.StatusCancelled, AdminNotes: "customer asked", ChangedBy: "admin"})
	require.NoError(t, err)
	assert.Equal(t, 5, f.stock(t))

	// 恢复路径重新占用库存
	got, err := f.orders.ChangeStatus(ctx, order.ID, StatusChangeRequest{
		Target: workflow.StatusPending, AdminNotes: "customer changed mind", ChangedBy: "admin"})
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPending, got.OrderStatus)
	assert.Equal(t, 2, f.stock(t))
}

func TestRestoreFailsWhenStockGone(t *testing.T) {
	f := newOrderFixture(t, 3)
	ctx := context.Background()

	order, err := f.orders.Checkout(ctx, checkoutReq(f.productID, 3))
	require.NoError(t, err)
	_, err = f.orders.ChangeStatus(ctx, order.ID, StatusChangeRequest{
		Target: workflow.StatusCancelled, AdminNotes: "oos", ChangedBy: "admin"})
	require.NoError(t, err)

	// 库存被其他订单占走
	require.NoError(t, f.products.AdjustStock(ctx, f.productID, -2, "adjustment", nil))

	_, err = f.orders.ChangeStatus(ctx, order.ID, StatusChangeRequest{
		Target: workflow.StatusPending, AdminNotes: "retry", ChangedBy: "admin"})
	assert.ErrorIs(t, err, repository.ErrInsufficientStock)

	got, err := f.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusCancelled, got.OrderStatus)
	assert.Equal(t, 1, f.stock(t)) // 失败不吞库存
}

func TestAdvanceAutomatic(t *testing.T) {
	f := newOrderFixture(t, 10)
	ctx := context.Background()

	order, err := f.orders.Checkout(ctx, checkoutReq(f.productID, 1))
	require.NoError(t, err)

	// pending -> confirmed -> processing 均可自动推进
	ok, err := f.orders.AdvanceAutomatic(ctx, order.ID, "scheduler")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.orders.AdvanceAutomatic(ctx, order.ID, "scheduler")
	require.NoError(t, err)
	assert.True(t, ok)

	// processing -> shipped 需要运单号，自动推进让位给人工
	ok, err = f.orders.AdvanceAutomatic(ctx, order.ID, "scheduler")
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := f.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusProcessing, got.OrderStatus)
}

func TestTransitionsListing(t *testing.T) {
	f := newOrderFixture(t, 10)
	ctx := context.Background()

	order, err := f.orders.Checkout(ctx, checkoutReq(f.productID, 1))
	require.NoError(t, err)

	trs, err := f.orders.Transitions(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, trs, 2)
	assert.Equal(t, workflow.StatusConfirmed, trs[0].To)
	assert.Equal(t, workflow.StatusCancelled, trs[1].To)
}

func TestUpdatePayment(t *testing.T) {
	f := newOrderFixture(t, 10)
	ctx := context.Background()

	order, err := f.orders.Checkout(ctx, checkoutReq(f.productID, 1))
	require.NoError(t, err)

	require.NoError(t, f.orders.UpdatePayment(ctx, order.ID, workflow.PaymentPaid))
	got, err := f.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.PaymentPaid, got.PaymentStatus)

	assert.Error(t, f.orders.UpdatePayment(ctx, order.ID, workflow.PaymentStatus("chargeback")))
}
