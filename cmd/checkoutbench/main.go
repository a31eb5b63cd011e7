package main

import (
    "context"
    "fmt"
    "math"
    "os"
    "sort"
    "strconv"
    "time"

    "github.com/google/uuid"

    "github.com/d60-Lab/storefront/config"
    "github.com/d60-Lab/storefront/internal/model"
    "github.com/d60-Lab/storefront/internal/repository"
    "github.com/d60-Lab/storefront/internal/service"
    "github.com/d60-Lab/storefront/internal/workflow"
    "github.com/d60-Lab/storefront/pkg/database"
    "github.com/d60-Lab/storefront/pkg/logger"
)

func must[T any](v T, err error) T { if err != nil { panic(err) }; return v }

func main() {
    cfg := must(config.Load())
    if err := logger.Init("error"); err != nil { panic(err) }
    db := must(database.InitDB(cfg))
    if err := db.AutoMigrate(
        &model.Product{}, &model.StockMovement{},
        &model.Order{}, &model.OrderItem{}, &model.OrderStatusLog{},
        &model.Notification{},
    ); err != nil {
        panic(err)
    }

    // repositories & services
    productRepo := repository.NewProductRepository(db)
    orderRepo := repository.NewOrderRepository(db)
    notifyRepo := repository.NewNotificationRepository(db)
    orderSvc := service.NewOrderService(orderRepo, productRepo, notifyRepo)
    notifier := service.NewNotifier(notifyRepo, discardSender{}, 4, 128, 50*time.Millisecond)
    stop := notifier.Start()

    ctx := context.Background()

    N := 2000
    if s := os.Getenv("N"); s != "" {
        if n, err := strconv.Atoi(s); err == nil && n > 0 { N = n }
    }
    CONC := 4
    if s := os.Getenv("CONC"); s != "" {
        if c, err := strconv.Atoi(s); err == nil && c > 0 { CONC = c }
    }

    // seed one product with enough stock for N checkouts
    product := model.Product{
        ID: uuid.New().String(), Name: "bench", Slug: "bench-" + uuid.New().String()[:8],
        Price: 10, Stock: N * 2, Status: model.ProductStatusActive,
    }
    must(0, db.Create(&product).Error)

    // notification landing metrics
    sendMetrics := notifier.Metrics()
    sendRecs := make([]time.Duration, 0, N)
    doneSend := make(chan struct{})
    go func() {
        timeout := time.NewTimer(5 * time.Minute)
        defer timeout.Stop()
        for {
            select {
            case d := <-sendMetrics:
                sendRecs = append(sendRecs, d)
            case <-doneSend:
                return
            case <-timeout.C:
                return
            }
        }
    }()

    // checkout phase with CONC workers
    orderIDs := make([]string, N)
    checkoutCh := make(chan time.Duration, N)
    feed := make(chan int, N)
    for i := 0; i < N; i++ { feed <- i }
    close(feed)
    workers := CONC
    if workers > N { workers = N }
    errCh := make(chan error, workers)
    t0 := time.Now()
    for w := 0; w < workers; w++ {
        go func() {
            for i := range feed {
                st := time.Now()
                order, err := orderSvc.Checkout(ctx, service.CheckoutRequest{
                    Items:        []service.CheckoutItem{{ProductID: product.ID, Quantity: 1}},
                    Subtotal:     10, TotalAmount: 10,
                    CustomerName: "bench", Email: "bench@example.com",
                    Address: "1 Bench Rd", City: "Benchtown",
                })
                if err == nil { orderIDs[i] = order.ID }
                checkoutCh <- time.Since(st)
            }
            errCh <- nil
        }()
    }
    for w := 0; w < workers; w++ { <-errCh }
    close(checkoutCh)
    checkoutRecs := make([]time.Duration, 0, N)
    for d := range checkoutCh { checkoutRecs = append(checkoutRecs, d) }
    checkoutDur := time.Since(t0)

    // mark paid, then walk each order pending -> delivered via CAS updates
    statusRecs := make([]time.Duration, 0, N*4)
    path := []workflow.OrderStatus{
        workflow.StatusConfirmed, workflow.StatusProcessing,
        workflow.StatusShipped, workflow.StatusDelivered,
    }
    t1 := time.Now()
    transitions := 0
    for _, id := range orderIDs {
        if id == "" { continue }
        _ = orderSvc.UpdatePayment(ctx, id, workflow.PaymentPaid)
        for _, next := range path {
            st := time.Now()
            _, err := orderSvc.ChangeStatus(ctx, id, service.StatusChangeRequest{
                Target:         next,
                TrackingNumber: "TRK-" + id[:8],
                ChangedBy:      "bench",
            })
            statusRecs = append(statusRecs, time.Since(st))
            if err != nil { break }
            transitions++
        }
    }
    statusDur := time.Since(t1)

    // wait for notification drain
    drainStart := time.Now()
    time.Sleep(500 * time.Millisecond)
    _ = stop(context.Background())
    drainDur := time.Since(drainStart)
    close(doneSend)

    // Percentiles helper
    pct := func(vs []time.Duration, p float64) time.Duration {
        if len(vs) == 0 { return 0 }
        xs := append([]time.Duration(nil), vs...)
        sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
        k := int(math.Ceil(p*float64(len(xs)))) - 1
        if k < 0 { k = 0 }
        if k >= len(xs) { k = len(xs)-1 }
        return xs[k]
    }

    counts, _ := notifyRepo.CountByStatus(ctx)

    fmt.Printf("N=%d, CONC=%d\n", N, CONC)
    fmt.Printf("Checkout total: %v, per op: %v, p50: %v, p95: %v, p99: %v\n",
        checkoutDur, checkoutDur/time.Duration(N), pct(checkoutRecs, 0.50), pct(checkoutRecs, 0.95), pct(checkoutRecs, 0.99))
    fmt.Printf("Status transitions: %d ok, total: %v, p50: %v, p95: %v, p99: %v\n",
        transitions, statusDur, pct(statusRecs, 0.50), pct(statusRecs, 0.95), pct(statusRecs, 0.99))
    if len(sendRecs) > 0 {
        fmt.Printf("Notification landing: samples=%d, p50=%v, p95=%v, p99=%v, drain=%v\n",
            len(sendRecs), pct(sendRecs, 0.50), pct(sendRecs, 0.95), pct(sendRecs, 0.99), drainDur)
    }
    fmt.Printf("Notification counts: %v\n", counts)
}

// discardSender 压测时跳过真实发送
type discardSender struct{}

func (discardSender) Send(context.Context, *model.Notification) error { return nil }
