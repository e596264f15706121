package taskview

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dalemusser/cmsdesk/internal/domain/models"
)

// Cache is the registry of a client's open views. A mutation issued
// through any view invalidates every other view, so no page showing tasks
// stays stale past the request that changed them.
type Cache struct {
	api API

	mu    sync.Mutex
	views map[string]*View
}

// NewCache returns an empty registry over api.
func NewCache(api API) *Cache {
	return &Cache{api: api, views: make(map[string]*View)}
}

// View returns the view for f, creating it on first use. Equal filters
// share one view.
func (c *Cache) View(f models.TaskFilter) *View {
	key := filterKey(f)
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.views[key]; ok {
		return v
	}
	v := &View{cache: c, filter: f, stale: true}
	c.views[key] = v
	return v
}

// Close drops the view for f from the registry.
func (c *Cache) Close(f models.TaskFilter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.views, filterKey(f))
}

// InvalidateAll marks every view stale.
func (c *Cache) InvalidateAll() {
	c.invalidateExcept(nil)
}

func (c *Cache) invalidateExcept(keep *View) {
	c.mu.Lock()
	views := make([]*View, 0, len(c.views))
	for _, v := range c.views {
		if v != keep {
			views = append(views, v)
		}
	}
	c.mu.Unlock()
	for _, v := range views {
		v.Invalidate()
	}
}

func filterKey(f models.TaskFilter) string {
	ts := func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.UTC().Format(time.RFC3339Nano)
	}
	return f.Status + "\x00" + f.Search + "\x00" + ts(f.From) + "\x00" + ts(f.To)
}

// View is the cached result of one task query.
type View struct {
	cache  *Cache
	filter models.TaskFilter

	mu       sync.Mutex
	rows     []models.Task
	stale    bool
	revision int64
}

// Filter returns the query this view caches.
func (v *View) Filter() models.TaskFilter { return v.filter }

// Stale reports whether the next Rows call will requery.
func (v *View) Stale() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stale
}

// Revision is the server revision the cached rows correspond to.
func (v *View) Revision() int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.revision
}

// Invalidate forces a requery on the next Rows call.
func (v *View) Invalidate() {
	v.mu.Lock()
	v.stale = true
	v.mu.Unlock()
}

// Rows returns the cached rows, requerying first when stale. The slice is
// a copy.
func (v *View) Rows(ctx context.Context) ([]models.Task, error) {
	v.mu.Lock()
	stale := v.stale
	v.mu.Unlock()
	if stale {
		if err := v.Refresh(ctx); err != nil {
			return nil, err
		}
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.rows), nil
}

// Refresh requeries unconditionally.
func (v *View) Refresh(ctx context.Context) error {
	rows, rev, err := v.cache.api.List(ctx, v.filter)
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.rows = rows
	v.revision = rev
	v.stale = false
	v.mu.Unlock()
	return nil
}

// Create files a new task. The view does not insert the draft; it is
// invalidated along with every other view and requeried on next read,
// since id, timestamps and default status come from the server.
func (v *View) Create(ctx context.Context, d models.TaskDraft) (models.Task, error) {
	t, _, err := v.cache.api.Create(ctx, d)
	if err != nil {
		return models.Task{}, err
	}
	v.cache.InvalidateAll()
	return t, nil
}

// Update applies p to the cached row at once, then replaces it with the
// server's copy. On failure the optimistic copy is rolled back.
func (v *View) Update(ctx context.Context, id string, p models.TaskPatch) (models.Task, error) {
	v.mu.Lock()
	var (
		prev    models.Task
		applied models.Task
		cached  bool
	)
	if i := v.index(id); i >= 0 {
		prev = v.rows[i]
		applied = p.Apply(prev)
		v.rows[i] = applied
		cached = true
	}
	v.mu.Unlock()

	t, rev, err := v.cache.api.Update(ctx, id, p)

	v.mu.Lock()
	if err != nil {
		// Only undo our own write; a refresh may have replaced the row.
		if i := v.index(id); cached && i >= 0 && sameTask(v.rows[i], applied) {
			v.rows[i] = prev
		}
		v.mu.Unlock()
		return models.Task{}, err
	}
	if i := v.index(id); i >= 0 {
		if v.filter.Matches(t) {
			v.rows[i] = t
		} else {
			v.rows = slices.Delete(v.rows, i, i+1)
		}
	} else if v.filter.Matches(t) {
		// The task moved into this view's filter.
		v.stale = true
	}
	v.observe(rev)
	v.mu.Unlock()

	v.cache.invalidateExcept(v)
	return t, nil
}

// Delete removes the task on the server and, once confirmed, from the
// view. A failed delete leaves the row in place.
func (v *View) Delete(ctx context.Context, id string) error {
	rev, err := v.cache.api.Delete(ctx, id)
	if err != nil {
		return err
	}
	v.mu.Lock()
	if i := v.index(id); i >= 0 {
		v.rows = slices.Delete(v.rows, i, i+1)
	}
	v.observe(rev)
	v.mu.Unlock()

	v.cache.invalidateExcept(v)
	return nil
}

// observe records a mutation's revision. Anything other than exactly one
// step past what the view last saw means another writer got in between.
// Callers hold v.mu.
func (v *View) observe(rev int64) {
	if rev != v.revision+1 {
		v.stale = true
	}
	v.revision = rev
}

// index finds id in rows. Callers hold v.mu.
func (v *View) index(id string) int {
	return slices.IndexFunc(v.rows, func(t models.Task) bool { return t.ID == id })
}

func sameTask(a, b models.Task) bool {
	return a.ID == b.ID && a.Status == b.Status && a.UpdatedAt.Equal(b.UpdatedAt) &&
		ptrEq(a.SolutionProvided, b.SolutionProvided) && ptrEq(a.Remarks, b.Remarks) &&
		ptrEq(a.AssignedToID, b.AssignedToID)
}

func ptrEq(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
