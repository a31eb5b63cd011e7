package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/storefront/internal/model"
	"github.com/d60-Lab/storefront/internal/repository"
	"github.com/d60-Lab/storefront/pkg/logger"
)

// Sender 单条通知的实际发送方（SMTP、webhook 等）
type Sender interface {
	Send(ctx context.Context, n *model.Notification) error
}

// LogSender 仅打日志的发送实现，本地与测试环境使用
type LogSender struct{}

func (LogSender) Send(_ context.Context, n *model.Notification) error {
	logger.Info("send notification",
		zap.String("channel", n.Channel),
		zap.String("recipient", n.Recipient),
		zap.String("subject", n.Subject))
	return nil
}

// Notifier 轮询通知外发盒并扇出发送的异步 worker
type Notifier struct {
	repo         repository.NotificationRepository
	sender       Sender
	workers      int
	batchSize    int
	pollInterval time.Duration
	maxAttempts  int
	metricsCh    chan time.Duration // 入库->发送完成耗时
}

func NewNotifier(repo repository.NotificationRepository, sender Sender, workers, batchSize int, pollInterval time.Duration) *Notifier {
	if workers <= 0 {
		workers = 2
	}
	if batchSize <= 0 {
		batchSize = 64
	}
	if pollInterval <= 0 {
		pollInterval = 200 * time.Millisecond
	}
	if sender == nil {
		sender = LogSender{}
	}
	return &Notifier{
		repo:         repo,
		sender:       sender,
		workers:      workers,
		batchSize:    batchSize,
		pollInterval: pollInterval,
		maxAttempts:  3,
		metricsCh:    make(chan time.Duration, 65536),
	}
}

// Metrics 返回发送延迟的只读通道（每发送一条发送一次 duration）
func (w *Notifier) Metrics() <-chan time.Duration { return w.metricsCh }

// Start 启动若干 worker 轮询外发盒；返回停止函数
func (w *Notifier) Start() func(context.Context) error {
	stop := make(chan struct{})
	for i := 0; i < w.workers; i++ {
		go w.loop(stop)
	}
	return func(ctx context.Context) error { close(stop); return nil }
}

func (w *Notifier) loop(stop <-chan struct{}) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			_ = w.ProcessOnce(context.Background())
		}
	}
}

// ProcessOnce 认领一批 pending 通知并发送
func (w *Notifier) ProcessOnce(ctx context.Context) error {
	batch, err := w.repo.ClaimPending(ctx, w.batchSize)
	if err != nil {
		logger.Warn("claim notifications", zap.Error(err))
		return err
	}
	for _, n := range batch {
		if err := w.sender.Send(ctx, n); err != nil {
			logger.Warn("send notification failed",
				zap.String("id", n.ID), zap.Int("attempts", n.Attempts+1), zap.Error(err))
			if mErr := w.repo.MarkFailed(ctx, n.ID, w.maxAttempts); mErr != nil {
				logger.Error("mark notification failed", zap.String("id", n.ID), zap.Error(mErr))
			}
			continue
		}
		now := time.Now()
		if err := w.repo.MarkSent(ctx, n.ID, now); err != nil {
			logger.Error("mark notification sent", zap.String("id", n.ID), zap.Error(err))
		}
		if !n.CreatedAt.IsZero() {
			select {
			case w.metricsCh <- now.Sub(n.CreatedAt):
			default:
			}
		}
	}
	return nil
}
