package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/labdesk/helpdesk/internal/persistence"
	"github.com/labdesk/helpdesk/internal/service"
)

const (
	popWait      = 5 * time.Second
	errorBackoff = time.Second
)

// NotificationWorker drains the notification queue.
type NotificationWorker struct {
	queue   persistence.Queue
	deliver func(context.Context, []byte) error
	logger  *zap.Logger
	wait    time.Duration
}

// NewNotificationWorker builds a worker that hands each message to deliver.
func NewNotificationWorker(queue persistence.Queue, deliver func(context.Context, []byte) error, logger *zap.Logger) *NotificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationWorker{queue: queue, deliver: deliver, logger: logger.Named("worker"), wait: popWait}
}

// Run pops and delivers messages until ctx is done. Failed deliveries are
// logged and dropped.
func (w *NotificationWorker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		payload, err := w.queue.Pop(ctx, w.wait)
		switch {
		case errors.Is(err, persistence.ErrQueueEmpty):
			continue
		case err != nil:
			if ctx.Err() != nil {
				return
			}
			w.logger.Warn("queue pop failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(errorBackoff):
			}
			continue
		}

		if err := w.deliver(ctx, payload); err != nil {
			w.logger.Warn("notification dropped", zap.Error(err), zap.ByteString("payload", payload))
		}
	}
}

// StartNotificationWorker registers notification handlers and runs the queue
// consumer in the background. The returned channel closes once it stops.
func StartNotificationWorker(ctx context.Context, notificationService *service.NotificationService, queue persistence.Queue, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	if notificationService == nil || queue == nil {
		close(done)
		return done
	}
	notificationService.RegisterHandlers()
	w := NewNotificationWorker(queue, notificationService.Deliver, logger)
	go func() {
		defer close(done)
		w.Run(ctx)
	}()
	return done
}
