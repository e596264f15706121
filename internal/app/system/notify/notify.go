// Package notify posts task activity to team channels.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/cmsdesk/internal/domain/models"
)

// Kind names what happened to a task.
type Kind string

const (
	TaskCreated       Kind = "task_created"
	TaskStatusChanged Kind = "task_status_changed"
	TaskDeleted       Kind = "task_deleted"
)

// Event is one notification.
type Event struct {
	Kind       Kind
	Task       models.Task
	PrevStatus string // set for TaskStatusChanged
}

// Text renders the event as a single chat line.
func (e Event) Text() string {
	switch e.Kind {
	case TaskCreated:
		return fmt.Sprintf("New task [%s/%s] (%s): %s", e.Task.LSA, e.Task.TSP, e.Task.Status, e.Task.ProblemDescription)
	case TaskStatusChanged:
		return fmt.Sprintf("Task %s status %s → %s: %s", e.Task.ID, e.PrevStatus, e.Task.Status, e.Task.ProblemDescription)
	case TaskDeleted:
		return fmt.Sprintf("Task %s deleted", e.Task.ID)
	default:
		return fmt.Sprintf("Task %s: %s", e.Task.ID, e.Kind)
	}
}

// Provider delivers events to one destination.
type Provider interface {
	Name() string
	Send(ctx context.Context, e Event) error
}

// Group fans an event out to every provider.
type Group struct {
	providers []Provider
}

// NewGroup drops nil providers.
func NewGroup(providers ...Provider) *Group {
	g := &Group{}
	for _, p := range providers {
		if p != nil {
			g.providers = append(g.providers, p)
		}
	}
	return g
}

func (g *Group) Name() string { return "group" }

// Len reports how many providers are wired.
func (g *Group) Len() int { return len(g.providers) }

// Send tries every provider and joins their errors.
func (g *Group) Send(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range g.providers {
		if err := p.Send(ctx, e); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Nop discards events.
type Nop struct{}

func (Nop) Name() string                      { return "nop" }
func (Nop) Send(context.Context, Event) error { return nil }
