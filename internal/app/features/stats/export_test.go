package stats

import "time"

// SetNow pins the handler's clock.
func (h *Handler) SetNow(f func() time.Time) { h.now = f }
