package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/storefront/internal/model"
	"github.com/d60-Lab/storefront/internal/workflow"
)

func setupTestDB(t *testing.T) *gorm.DB {
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

func seedProduct(t *testing.T, db *gorm.DB, stock int) *model.Product {
	p := &model.Product{
		Name:   "Walnut Desk Organizer",
		Slug:   "walnut-desk-organizer",
		Price:  49.0,
		Stock:  stock,
		Status: model.ProductStatusActive,
	}
	require.NoError(t, NewProductRepository(db).Create(context.Background(), p))
	return p
}

func TestProductDecrementStock(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()
	p := seedProduct(t, db, 3)

	require.NoError(t, repo.DecrementStock(ctx, p.ID, 2, "order-1"))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Stock)

	// 库存不足时拒绝扣减且不产生流水
	err = repo.DecrementStock(ctx, p.ID, 2, "order-2")
	assert.ErrorIs(t, err, ErrInsufficientStock)

	got, err = repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Stock)

	var movements int64
	require.NoError(t, db.Model(&model.StockMovement{}).Count(&movements).Error)
	assert.EqualValues(t, 1, movements)
}

func TestProductAdjustStockWritesMovement(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()
	p := seedProduct(t, db, 0)

	require.NoError(t, repo.AdjustStock(ctx, p.ID, 10, "restock", nil))
	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Stock)

	var mv model.StockMovement
	require.NoError(t, db.First(&mv).Error)
	assert.Equal(t, 10, mv.Delta)
	assert.Equal(t, "restock", mv.Reason)

	err = repo.AdjustStock(ctx, "missing", 1, "restock", nil)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestProductAdjustStockFloor(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()
	p := seedProduct(t, db, 3)

	// 负向调整不得把库存打到负数，失败时也不留流水
	err := repo.AdjustStock(ctx, p.ID, -5, "adjustment", nil)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Stock)

	var count int64
	require.NoError(t, db.Model(&model.StockMovement{}).Count(&count).Error)
	assert.Zero(t, count)

	require.NoError(t, repo.AdjustStock(ctx, p.ID, -3, "adjustment", nil))
	got, err = repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)
}

func newTestOrder(productID string) *model.Order {
	return &model.Order{
		OrderNumber:   "SO-20260901-0001",
		OrderStatus:   workflow.StatusPending,
		PaymentStatus: workflow.PaymentPending,
		Items: []model.OrderItem{
			{ProductID: productID, Name: "Walnut Desk Organizer", UnitPrice: 49.0, Quantity: 2},
		},
		Subtotal:       98.0,
		TaxAmount:      9.8,
		ShippingAmount: 5.0,
		TotalAmount:    112.8,
		CustomerName:   "Lin Wei",
		Email:          "lin.wei@example.com",
	}
}

func TestOrderCreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()
	p := seedProduct(t, db, 5)

	order := newTestOrder(p.ID)
	require.NoError(t, repo.Create(ctx, order))
	require.NotEmpty(t, order.ID)

	got, err := repo.GetByNumber(ctx, order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.Equal(t, workflow.StatusPending, got.OrderStatus)
}

func TestOrderUpdateStatusCAS(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()
	p := seedProduct(t, db, 5)

	order := newTestOrder(p.ID)
	require.NoError(t, repo.Create(ctx, order))

	// 正常推进
	err := repo.UpdateStatus(ctx, order.ID, workflow.StatusPending, workflow.StatusConfirmed,
		StatusUpdate{ChangedBy: "admin"})
	require.NoError(t, err)

	// 基于过期读的并发更新被拒绝
	err = repo.UpdateStatus(ctx, order.ID, workflow.StatusPending, workflow.StatusCancelled,
		StatusUpdate{AdminNotes: "duplicate", ChangedBy: "admin2"})
	assert.ErrorIs(t, err, ErrStatusConflict)

	// 不存在的订单
	err = repo.UpdateStatus(ctx, "missing", workflow.StatusPending, workflow.StatusConfirmed, StatusUpdate{})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusConfirmed, got.OrderStatus)

	logs, err := repo.StatusLogs(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, workflow.StatusPending, logs[0].OldStatus)
	assert.Equal(t, workflow.StatusConfirmed, logs[0].NewStatus)
	assert.Equal(t, "admin", logs[0].ChangedBy)
}

func TestOrderUpdateStatusPersistsGuardFields(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()
	p := seedProduct(t, db, 5)

	order := newTestOrder(p.ID)
	order.OrderStatus = workflow.StatusProcessing
	require.NoError(t, repo.Create(ctx, order))

	err := repo.UpdateStatus(ctx, order.ID, workflow.StatusProcessing, workflow.StatusShipped,
		StatusUpdate{TrackingNumber: "SF123456789", ChangedBy: "admin"})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusShipped, got.OrderStatus)
	assert.Equal(t, "SF123456789", got.TrackingNumber)
}

func TestOrderCountByStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()
	p := seedProduct(t, db, 50)

	for i, st := range []workflow.OrderStatus{workflow.StatusPending, workflow.StatusPending, workflow.StatusShipped} {
		o := newTestOrder(p.ID)
		o.OrderNumber = o.OrderNumber[:len(o.OrderNumber)-1] + string(rune('1'+i))
		o.OrderStatus = st
		require.NoError(t, repo.Create(ctx, o))
	}

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, counts[workflow.StatusPending])
	assert.EqualValues(t, 1, counts[workflow.StatusShipped])
}

func TestSubscriberIdempotentAndStats(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubscriberRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Subscribe(ctx, "a@example.com", "footer"))
	require.NoError(t, repo.Subscribe(ctx, "b@example.com", "checkout"))
	// 重复订阅不报错、不产生重复行
	require.NoError(t, repo.Subscribe(ctx, "a@example.com", "popup"))

	require.NoError(t, repo.Unsubscribe(ctx, "b@example.com"))
	err := repo.Unsubscribe(ctx, "b@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Total)
	assert.EqualValues(t, 1, stats.Active)
	assert.EqualValues(t, 1, stats.Unsubscribed)
	assert.EqualValues(t, 2, stats.Last30Days)

	// 退订后重新订阅恢复激活
	require.NoError(t, repo.Subscribe(ctx, "b@example.com", "footer"))
	sub, err := repo.GetByEmail(ctx, "b@example.com")
	require.NoError(t, err)
	assert.Nil(t, sub.UnsubscribedAt)
}

func TestNotificationClaimLifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Enqueue(ctx, &model.Notification{
			OrderID:   "order-1",
			Channel:   "email",
			Recipient: "lin.wei@example.com",
			Subject:   "Your order has shipped",
			CreatedAt: time.Now().Add(time.Duration(i) * time.Millisecond),
		}))
	}

	batch, err := repo.ClaimPending(ctx, 2)
	require.NoError(t, err)
	require.Len(t, batch, 2)

	// 已认领的不会被再次取走
	rest, err := repo.ClaimPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rest, 1)

	require.NoError(t, repo.MarkSent(ctx, batch[0].ID, time.Now()))
	require.NoError(t, repo.MarkFailed(ctx, batch[1].ID, 3))

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts[model.NotifyStatusSent])
	assert.EqualValues(t, 1, counts[model.NotifyStatusPending]) // 失败未超限回到 pending
}

func TestTestimonialReorder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTestimonialRepository(db)
	ctx := context.Background()

	ids := make([]string, 3)
	for i := range ids {
		tm := &model.Testimonial{CustomerName: "Customer", Content: "Great product", Rating: 5, Approved: true, DisplayOrder: i}
		require.NoError(t, repo.Create(ctx, tm))
		ids[i] = tm.ID
	}

	// 倒序重排
	require.NoError(t, repo.Reorder(ctx, []string{ids[2], ids[1], ids[0]}))

	list, err := repo.List(ctx, true, 0, 10)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, ids[2], list[0].ID)
	assert.Equal(t, ids[0], list[2].ID)
}
