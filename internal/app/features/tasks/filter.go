package tasks

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/cmsdesk/internal/app/system/apperr"
	"github.com/dalemusser/cmsdesk/internal/app/system/normalize"
	"github.com/dalemusser/cmsdesk/internal/domain/models"
)

const dateOnly = "2006-01-02"

// parseFilter reads status, search, from and to. status "all" (or blank)
// means any status. Dates are RFC 3339 or YYYY-MM-DD; a date-only "to"
// covers that whole day.
func parseFilter(q url.Values, statuses models.StatusSet) (models.TaskFilter, error) {
	var f models.TaskFilter

	if s := normalize.QueryParam(q.Get("status")); s != "" && !strings.EqualFold(s, "all") {
		canon, ok := statuses.Canonical(s)
		if !ok {
			return f, apperr.Validation("unknown status " + strconv.Quote(s))
		}
		f.Status = canon
	}
	// Search is case-sensitive and matched as typed, minus outer space.
	f.Search = normalize.QueryParam(q.Get("search"))

	if s := normalize.QueryParam(q.Get("from")); s != "" {
		t, _, err := parseDate(s)
		if err != nil {
			return f, apperr.Validation("invalid from date")
		}
		f.From = &t
	}
	if s := normalize.QueryParam(q.Get("to")); s != "" {
		t, dayOnly, err := parseDate(s)
		if err != nil {
			return f, apperr.Validation("invalid to date")
		}
		if dayOnly {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		f.To = &t
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return f, apperr.Validation("to date is before from date")
	}
	return f, nil
}

func parseDate(s string) (time.Time, bool, error) {
	if t, err := time.Parse(dateOnly, s); err == nil {
		return t.UTC(), true, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false, err
	}
	return t.UTC(), false, nil
}
