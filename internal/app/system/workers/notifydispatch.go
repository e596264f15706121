package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/cmsdesk/internal/app/system/notify"
	"go.uber.org/zap"
)

// NotifyDispatcher delivers notifications off the request path. Events
// are queued in a bounded buffer; when it is full new events are dropped
// and logged so a slow channel never stalls task writes.
type NotifyDispatcher struct {
	provider notify.Provider
	log      *zap.Logger
	timeout  time.Duration
	queue    chan notify.Event
	stopCh   chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// NewNotifyDispatcher creates a dispatcher.
//
// Parameters:
//   - provider: where events go (usually a notify.Group)
//   - logger: zap logger for delivery failures
//   - buffer: queue capacity
//   - timeout: per-event delivery deadline
func NewNotifyDispatcher(provider notify.Provider, logger *zap.Logger, buffer int, timeout time.Duration) *NotifyDispatcher {
	if buffer <= 0 {
		buffer = 64
	}
	return &NotifyDispatcher{
		provider: provider,
		log:      logger,
		timeout:  timeout,
		queue:    make(chan notify.Event, buffer),
		stopCh:   make(chan struct{}),
	}
}

// Start begins the delivery loop.
func (w *NotifyDispatcher) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("notify dispatcher started",
		zap.String("provider", w.provider.Name()),
		zap.Int("buffer", cap(w.queue)))
}

// Stop delivers what is already queued, then returns.
func (w *NotifyDispatcher) Stop() {
	w.once.Do(func() { close(w.stopCh) })
	w.wg.Wait()
	w.log.Info("notify dispatcher stopped")
}

// Enqueue schedules e. It never blocks.
func (w *NotifyDispatcher) Enqueue(e notify.Event) {
	select {
	case w.queue <- e:
	default:
		w.log.Warn("notification dropped: queue full",
			zap.String("kind", string(e.Kind)),
			zap.String("task_id", e.Task.ID))
	}
}

func (w *NotifyDispatcher) run() {
	defer w.wg.Done()
	for {
		select {
		case e := <-w.queue:
			w.deliver(e)
		case <-w.stopCh:
			for {
				select {
				case e := <-w.queue:
					w.deliver(e)
				default:
					return
				}
			}
		}
	}
}

func (w *NotifyDispatcher) deliver(e notify.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	if err := w.provider.Send(ctx, e); err != nil {
		w.log.Warn("notification failed",
			zap.String("kind", string(e.Kind)),
			zap.String("task_id", e.Task.ID),
			zap.Error(err))
	}
}
