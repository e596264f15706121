package models

import (
	"strings"
	"time"
)

// Task is a problem ticket.
//
// SolutionProvided, Remarks and AssignedToID are nil until an administrator
// sets them; they encode as JSON null in that case.
type Task struct {
	ID                 string  `bson:"_id" json:"id" gorm:"primaryKey;size:64"`
	LSA                string  `bson:"lsa" json:"lsa" gorm:"index"`
	TSP                string  `bson:"tsp" json:"tsp" gorm:"index"`
	DotAndLEA          string  `bson:"dot_and_lea" json:"dotAndLea"`
	ProblemDescription string  `bson:"problem_description" json:"problemDescription" gorm:"not null"`
	Status             string  `bson:"status" json:"status" gorm:"index;not null"`
	SolutionProvided   *string `bson:"solution_provided,omitempty" json:"solutionProvided"`
	Remarks            *string `bson:"remarks,omitempty" json:"remarks"`
	AssignedToID       *string `bson:"assigned_to_id,omitempty" json:"assignedToId" gorm:"index;size:64"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt" gorm:"index"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// TaskDraft is the body of a create request.
type TaskDraft struct {
	LSA                string `json:"lsa"`
	TSP                string `json:"tsp"`
	DotAndLEA          string `json:"dotAndLea"`
	ProblemDescription string `json:"problemDescription"`
	Status             string `json:"status,omitempty"`
}

// MinProblemDescription is the minimum length of a new task's description.
const MinProblemDescription = 10

// TaskPatch is a partial update. A nil field is left untouched.
// An empty AssignedToID clears the assignment.
type TaskPatch struct {
	Status           *string `json:"status,omitempty"`
	SolutionProvided *string `json:"solutionProvided,omitempty"`
	Remarks          *string `json:"remarks,omitempty"`
	AssignedToID     *string `json:"assignedToId,omitempty"`
}

// IsEmpty reports whether the patch sets no fields.
func (p TaskPatch) IsEmpty() bool {
	return p.Status == nil && p.SolutionProvided == nil && p.Remarks == nil && p.AssignedToID == nil
}

// Apply returns a copy of t with the patch's fields merged in.
// UpdatedAt is left to the caller.
func (p TaskPatch) Apply(t Task) Task {
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.SolutionProvided != nil {
		v := *p.SolutionProvided
		t.SolutionProvided = &v
	}
	if p.Remarks != nil {
		v := *p.Remarks
		t.Remarks = &v
	}
	if p.AssignedToID != nil {
		if *p.AssignedToID == "" {
			t.AssignedToID = nil
		} else {
			v := *p.AssignedToID
			t.AssignedToID = &v
		}
	}
	return t
}

// TaskFilter narrows a task query. Zero values mean "no constraint".
type TaskFilter struct {
	Status string     // exact match
	Search string     // case-sensitive substring of description, solution or remarks
	From   *time.Time // inclusive lower bound on CreatedAt
	To     *time.Time // inclusive upper bound on CreatedAt
}

// Matches reports whether t satisfies the filter. Stores translate the
// filter into native queries; this is the reference semantics they follow.
func (f TaskFilter) Matches(t Task) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Search != "" {
		hit := strings.Contains(t.ProblemDescription, f.Search) ||
			(t.SolutionProvided != nil && strings.Contains(*t.SolutionProvided, f.Search)) ||
			(t.Remarks != nil && strings.Contains(*t.Remarks, f.Search))
		if !hit {
			return false
		}
	}
	if f.From != nil && t.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && t.CreatedAt.After(*f.To) {
		return false
	}
	return true
}

// TaskField names a categorical task field that can be grouped on.
type TaskField string

const (
	TaskFieldLSA    TaskField = "lsa"
	TaskFieldTSP    TaskField = "tsp"
	TaskFieldStatus TaskField = "status"
)

// TasksRevisionHeader carries the task collection's revision on every task
// API response. It changes on each successful create, update or delete.
const TasksRevisionHeader = "X-Tasks-Revision"

// TaskOptions lists the advisory values for the categorical task fields.
type TaskOptions struct {
	LSA       []string `json:"lsa"`
	TSP       []string `json:"tsp"`
	DotAndLEA []string `json:"dotAndLea"`
	Statuses  []string `json:"statuses"`
}
