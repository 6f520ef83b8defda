package billing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/shopspring/decimal"

	"github.com/rss3-network/gateway-dashboard/internal/models"
	"github.com/rss3-network/gateway-dashboard/pkg/logger"
	"github.com/rss3-network/gateway-dashboard/pkg/units"
)

// Watcher polls the current withdrawal request and notifies when a
// pending request is settled or replaced.
type Watcher struct {
	logger      *logger.Logger
	gateway     models.GatewayService
	notificator models.NotificationService
	interval    time.Duration
	timeout     time.Duration

	scheduler *gocron.Scheduler

	mu   sync.Mutex
	last *decimal.Decimal
}

func NewWatcher(logger *logger.Logger, gateway models.GatewayService, notificator models.NotificationService, interval, timeout time.Duration) *Watcher {
	return &Watcher{
		logger:      logger.Named("watcher"),
		gateway:     gateway,
		notificator: notificator,
		interval:    interval,
		timeout:     timeout,
		scheduler:   gocron.NewScheduler(time.UTC),
	}
}

// Start schedules the poll and returns immediately.
func (w *Watcher) Start() error {
	seconds := int(w.interval.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	if _, err := w.scheduler.Every(seconds).Seconds().SingletonMode().Do(w.poll); err != nil {
		return fmt.Errorf("failed to schedule withdrawal watch: %w", err)
	}
	w.scheduler.StartAsync()
	w.logger.Info("Watching withdrawal requests", "interval", w.interval)
	return nil
}

func (w *Watcher) Stop() {
	w.scheduler.Stop()
}

func (w *Watcher) poll() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	if err := w.Check(ctx); err != nil {
		w.logger.Error("Failed to check withdrawal request", "error", err)
	}
}

// Check fetches the current request once and compares it with the
// previous poll. The first poll only records a baseline.
func (w *Watcher) Check(ctx context.Context) error {
	current, err := w.gateway.GetCurrentWithdrawalRequest(ctx)
	if err != nil {
		return err
	}
	amount := current.Amount

	w.mu.Lock()
	prev := w.last
	w.last = &amount
	w.mu.Unlock()

	if prev == nil {
		w.logger.Debug("Withdrawal baseline recorded", "amount", amount.String())
		return nil
	}

	switch {
	case prev.IsPositive() && amount.IsZero():
		w.notificator.SendNotification(&models.Notification{
			Kind:    models.NotificationWithdrawSettled,
			Title:   "Withdrawal settled",
			Message: fmt.Sprintf("Your withdrawal of %s %s has been processed.", units.FormatNumber(prev.String()), defaultSymbol),
		})
	case amount.IsPositive() && !amount.Equal(*prev):
		w.notificator.SendNotification(&models.Notification{
			Kind:    models.NotificationWithdrawChanged,
			Title:   "Withdrawal request changed",
			Message: fmt.Sprintf("%s %s is now pending withdrawal.", units.FormatNumber(amount.String()), defaultSymbol),
		})
	}
	return nil
}
