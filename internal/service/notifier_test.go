package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/storefront/internal/model"
	"github.com/d60-Lab/storefront/internal/repository"
)

type fakeSender struct {
	sent    []string
	failFor map[string]error
}

func (f *fakeSender) Send(_ context.Context, n *model.Notification) error {
	if err, ok := f.failFor[n.Recipient]; ok {
		return err
	}
	f.sent = append(f.sent, n.Recipient)
	return nil
}

func TestNotifierProcessOnce(t *testing.T) {
	db := setupServiceDB(t)
	repo := repository.NewNotificationRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Enqueue(ctx, &model.Notification{
		OrderID: "o1", Channel: "email", Recipient: "ok@example.com", Subject: "s", CreatedAt: time.Now()}))
	require.NoError(t, repo.Enqueue(ctx, &model.Notification{
		OrderID: "o2", Channel: "email", Recipient: "bad@example.com", Subject: "s", CreatedAt: time.Now()}))

	sender := &fakeSender{failFor: map[string]error{"bad@example.com": errors.New("smtp down")}}
	w := NewNotifier(repo, sender, 1, 10, time.Second)

	require.NoError(t, w.ProcessOnce(ctx))

	assert.Equal(t, []string{"ok@example.com"}, sender.sent)
	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts[model.NotifyStatusSent])
	assert.EqualValues(t, 1, counts[model.NotifyStatusPending]) // 失败回到 pending 等待重试

	// 发送延迟已上报
	select {
	case d := <-w.Metrics():
		assert.Greater(t, d, time.Duration(0))
	default:
		t.Fatal("expected a metrics sample")
	}

	// 重试两次后标记 failed（maxAttempts=3）
	require.NoError(t, w.ProcessOnce(ctx))
	require.NoError(t, w.ProcessOnce(ctx))
	counts, err = repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts[model.NotifyStatusFailed])
}

func TestNotifierStartStop(t *testing.T) {
	db := setupServiceDB(t)
	repo := repository.NewNotificationRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Enqueue(ctx, &model.Notification{
		OrderID: "o1", Channel: "email", Recipient: "ok@example.com", Subject: "s", CreatedAt: time.Now()}))

	sender := &fakeSender{}
	w := NewNotifier(repo, sender, 2, 10, 10*time.Millisecond)
	stop := w.Start()

	require.Eventually(t, func() bool {
		counts, err := repo.CountByStatus(context.Background())
		return err == nil && counts[model.NotifyStatusSent] == 1
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, stop(ctx))
}
