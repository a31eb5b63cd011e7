package main

import (
    "context"
    "fmt"
    "os"
    "time"

    "github.com/google/uuid"

    "github.com/d60-Lab/storefront/config"
    "github.com/d60-Lab/storefront/internal/model"
    "github.com/d60-Lab/storefront/internal/repository"
    "github.com/d60-Lab/storefront/internal/service"
    "github.com/d60-Lab/storefront/pkg/database"
    "github.com/d60-Lab/storefront/pkg/logger"
)

func must[T any](v T, err error) T { if err != nil { panic(err) }; return v }

func main() {
    cfg := must(config.Load())
    if err := logger.Init(cfg.Log.Level); err != nil { panic(err) }
    db := must(database.InitDB(cfg))

    if err := db.AutoMigrate(
        &model.User{}, &model.Product{}, &model.StockMovement{},
        &model.Order{}, &model.OrderItem{}, &model.OrderStatusLog{},
        &model.BlogPost{}, &model.Subscriber{}, &model.Testimonial{},
        &model.Warranty{}, &model.Notification{},
    ); err != nil {
        panic(err)
    }

    ctx := context.Background()

    // 管理员账号，口令可用 ADMIN_PASSWORD 覆盖
    authSvc := service.NewAuthService(repository.NewUserRepository(db), cfg.JWT)
    password := "admin123"
    if p := os.Getenv("ADMIN_PASSWORD"); p != "" { password = p }
    if _, err := authSvc.CreateUser(ctx, "admin", "admin@example.com", password); err != nil {
        fmt.Println("admin user:", err)
    } else {
        fmt.Println("admin user created (username=admin)")
    }

    origPrice := 129.0
    products := []model.Product{
        {ID: uuid.New().String(), Name: "经典机械键盘", Slug: "classic-mechanical-keyboard", Description: "87 键热插拔机械键盘", Price: 99.0, OriginalPrice: &origPrice, Stock: 200, Status: model.ProductStatusActive, Featured: true, DisplayOrder: 1},
        {ID: uuid.New().String(), Name: "无线人体工学鼠标", Slug: "wireless-ergo-mouse", Description: "2.4G/蓝牙双模", Price: 59.0, Stock: 150, Status: model.ProductStatusActive, Featured: true, DisplayOrder: 2},
        {ID: uuid.New().String(), Name: "便携显示器支架", Slug: "portable-monitor-stand", Description: "铝合金折叠支架", Price: 39.0, Stock: 80, Status: model.ProductStatusActive, DisplayOrder: 3},
        {ID: uuid.New().String(), Name: "降噪耳机（预售）", Slug: "anc-headphones-preorder", Description: "主动降噪，预计下月发货", Price: 199.0, Stock: 0, Status: model.ProductStatusPreorder, DisplayOrder: 4},
    }
    for i := range products {
        if err := db.Where("slug = ?", products[i].Slug).FirstOrCreate(&products[i]).Error; err != nil {
            fmt.Println("seed product:", err)
        }
    }
    fmt.Printf("seeded %d products\n", len(products))

    now := time.Now()
    posts := []model.BlogPost{
        {ID: uuid.New().String(), Title: "新品上市：经典机械键盘", Slug: "launch-classic-keyboard", Content: "……", Excerpt: "87 键热插拔上市", Published: true, PublishedAt: &now},
        {ID: uuid.New().String(), Title: "保养指南", Slug: "maintenance-guide", Content: "……", Excerpt: "日常清洁与保养", Published: false},
    }
    for i := range posts {
        if err := db.Where("slug = ?", posts[i].Slug).FirstOrCreate(&posts[i]).Error; err != nil {
            fmt.Println("seed post:", err)
        }
    }

    testimonials := []model.Testimonial{
        {ID: uuid.New().String(), CustomerName: "李明", Content: "键盘手感很好，物流也快。", Rating: 5, Approved: true, DisplayOrder: 1},
        {ID: uuid.New().String(), CustomerName: "王芳", Content: "鼠标续航不错。", Rating: 4, Approved: true, DisplayOrder: 2},
        {ID: uuid.New().String(), CustomerName: "匿名用户", Content: "待审核的评价。", Rating: 3, Approved: false, DisplayOrder: 3},
    }
    for i := range testimonials {
        if err := db.Where("customer_name = ? AND display_order = ?",
            testimonials[i].CustomerName, testimonials[i].DisplayOrder).FirstOrCreate(&testimonials[i]).Error; err != nil {
            fmt.Println("seed testimonial:", err)
        }
    }

    subscribers := repository.NewSubscriberRepository(db)
    for _, email := range []string{"alice@example.com", "bob@example.com"} {
        if err := subscribers.Subscribe(ctx, email, "seed"); err != nil {
            fmt.Println("seed subscriber:", err)
        }
    }

    fmt.Println("seed done")
}
