package models

import "strings"

// Canonical task statuses.
const (
	StatusPending    = "pending"
	StatusInProgress = "in progress"
	StatusResolved   = "resolved"
)

// legacyStatuses maps the older Pending/Approved/Rejected/Completed
// vocabulary onto the canonical one.
var legacyStatuses = map[string]string{
	"pending":   StatusPending,
	"approved":  StatusInProgress,
	"rejected":  StatusResolved,
	"completed": StatusResolved,
}

// StatusSet is the task status vocabulary of a deployment. The first value
// is the default for new tasks.
type StatusSet struct {
	values []string
}

// DefaultStatuses returns pending / in progress / resolved.
func DefaultStatuses() StatusSet {
	return StatusSet{values: []string{StatusPending, StatusInProgress, StatusResolved}}
}

// NewStatusSet builds a vocabulary from values, dropping blanks and
// duplicates. An empty input yields DefaultStatuses.
func NewStatusSet(values []string) StatusSet {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	if len(out) == 0 {
		return DefaultStatuses()
	}
	return StatusSet{values: out}
}

// Values returns the vocabulary in configured order.
func (s StatusSet) Values() []string {
	return append([]string(nil), s.values...)
}

// Default is the status assigned when a draft names none.
func (s StatusSet) Default() string {
	return s.values[0]
}

// Canonical resolves in to a member of the set. Matching is
// case-insensitive; legacy names are mapped only when the mapped value is in
// the set and in itself is not.
func (s StatusSet) Canonical(in string) (string, bool) {
	in = strings.TrimSpace(in)
	for _, v := range s.values {
		if strings.EqualFold(v, in) {
			return v, true
		}
	}
	if mapped, ok := legacyStatuses[strings.ToLower(in)]; ok {
		for _, v := range s.values {
			if v == mapped {
				return v, true
			}
		}
	}
	return "", false
}
