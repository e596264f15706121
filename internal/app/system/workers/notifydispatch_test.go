package workers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/cmsdesk/internal/app/system/notify"
	"github.com/dalemusser/cmsdesk/internal/domain/models"
	"go.uber.org/zap"
)

type countingProvider struct {
	mu    sync.Mutex
	ids   []string
	block chan struct{}
}

func (p *countingProvider) Name() string { return "counting" }
func (p *countingProvider) Send(_ context.Context, e notify.Event) error {
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ids = append(p.ids, e.Task.ID)
	return nil
}

func (p *countingProvider) delivered() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.ids...)
}

func TestNotifyDispatcher_DeliversInOrderAndDrainsOnStop(t *testing.T) {
	p := &countingProvider{}
	d := NewNotifyDispatcher(p, zap.NewNop(), 8, time.Second)
	d.Start()

	for _, id := range []string{"a", "b", "c"} {
		d.Enqueue(notify.Event{Kind: notify.TaskCreated, Task: models.Task{ID: id}})
	}
	d.Stop()

	got := p.delivered()
	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Errorf("delivered = %v, want [a b c]", got)
	}
}

func TestNotifyDispatcher_DropsWhenFull(t *testing.T) {
	p := &countingProvider{block: make(chan struct{})}
	d := NewNotifyDispatcher(p, zap.NewNop(), 1, time.Second)
	d.Start()

	// The first event is picked up by the loop and blocks in Send; the
	// second fills the queue; the rest are dropped.
	d.Enqueue(notify.Event{Task: models.Task{ID: "1"}})
	deadline := time.Now().Add(time.Second)
	for len(d.queue) != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	for i := 0; i < 5; i++ {
		d.Enqueue(notify.Event{Task: models.Task{ID: "x"}})
	}
	close(p.block)
	d.Stop()

	if got := len(p.delivered()); got != 2 {
		t.Errorf("delivered %d events, want 2", got)
	}
}
