// internal/app/system/workers/deadlineexpiry.go
package workers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Expirer moves past-deadline opportunities to expired.
type Expirer interface {
	ExpirePastDeadline(ctx context.Context, now time.Time) (int64, error)
}

// DeadlineExpiry is a background worker that expires active opportunities
// once their application deadline has passed.
type DeadlineExpiry struct {
	store    Expirer
	log      *zap.Logger
	interval time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewDeadlineExpiry creates the worker. interval is how often it sweeps.
func NewDeadlineExpiry(store Expirer, logger *zap.Logger, interval time.Duration) *DeadlineExpiry {
	return &DeadlineExpiry{
		store:    store,
		log:      logger,
		interval: interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start runs one sweep immediately, then one per interval.
func (w *DeadlineExpiry) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("deadline expiry worker started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish. Safe to call
// more than once.
func (w *DeadlineExpiry) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
	w.log.Info("deadline expiry worker stopped")
}

func (w *DeadlineExpiry) run() {
	defer w.wg.Done()

	w.Sweep()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.Sweep()
		}
	}
}

// Sweep expires everything past its deadline once.
func (w *DeadlineExpiry) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := w.store.ExpirePastDeadline(ctx, w.now().UTC())
	if err != nil {
		w.log.Error("failed to expire opportunities", zap.Error(err))
		return
	}
	if count > 0 {
		w.log.Info("expired past-deadline opportunities", zap.Int64("count", count))
	}
}
