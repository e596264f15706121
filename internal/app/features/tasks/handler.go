// internal/app/features/tasks/handler.go
package tasks

import (
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/dalemusser/cmsdesk/internal/app/store"
	"github.com/dalemusser/cmsdesk/internal/app/system/httpjson"
	"github.com/dalemusser/cmsdesk/internal/app/system/notify"
	"github.com/dalemusser/cmsdesk/internal/domain/models"
	"go.uber.org/zap"
)

// Notifier accepts task events for asynchronous delivery.
// *workers.NotifyDispatcher satisfies it.
type Notifier interface {
	Enqueue(e notify.Event)
}

// Revision is the process-wide task collection counter. Views compare it
// across responses to learn whether someone else wrote in between.
//
// A task write and its bump happen together under mu, so revision order is
// commit order and every write counted by Current has already committed.
type Revision struct {
	mu sync.Mutex
	n  atomic.Int64
}

// Current returns the revision without changing it. Read it before a
// query: the rows then contain at least the writes it counts.
func (r *Revision) Current() int64 { return r.n.Load() }

// Commit runs write and, when it succeeds, advances the revision. It
// returns the revision the caller's response should carry: the new value
// on success, the unchanged one on failure.
func (r *Revision) Commit(write func() error) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := write(); err != nil {
		return r.n.Load(), err
	}
	return r.n.Add(1), nil
}

// Handler serves the task API.
type Handler struct {
	Tasks    store.Tasks
	Users    store.Users
	Statuses models.StatusSet
	Revision *Revision
	Notify   Notifier // optional
	Log      *zap.Logger
}

// NewHandler constructs a task Handler. A nil rev gets a fresh counter.
func NewHandler(tasks store.Tasks, users store.Users, statuses models.StatusSet, rev *Revision, notifier Notifier, logger *zap.Logger) *Handler {
	if rev == nil {
		rev = &Revision{}
	}
	return &Handler{
		Tasks:    tasks,
		Users:    users,
		Statuses: statuses,
		Revision: rev,
		Notify:   notifier,
		Log:      logger,
	}
}

// respond writes v with the cache and revision headers every task
// response carries. rev is the revision v reflects, taken before a read or
// returned by Commit for a write.
func (h *Handler) respond(w http.ResponseWriter, status int, rev int64, v any) {
	setHeaders(w, rev)
	httpjson.Write(w, status, v)
}

func (h *Handler) fail(w http.ResponseWriter, err error, fallback string) {
	setHeaders(w, h.Revision.Current())
	httpjson.Fail(w, h.Log, err, fallback)
}

func setHeaders(w http.ResponseWriter, rev int64) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set(models.TasksRevisionHeader, strconv.FormatInt(rev, 10))
}

func (h *Handler) notify(e notify.Event) {
	if h.Notify != nil {
		h.Notify.Enqueue(e)
	}
}
