// Package store declares the persistence contracts the rest of the app is
// written against. Two backends implement them: the per-collection MongoDB
// stores under this directory (bundled by NewMongo) and the gorm-based
// sqlstore package.
//
// All implementations follow the same conventions:
//   - IDs and timestamps are assigned by the store on create;
//   - a missing record yields an error wrapping apperr.ErrNotFound;
//   - a unique-constraint conflict yields one wrapping apperr.ErrDuplicate;
//   - lists of tasks, notes and users come back newest first.
package store

import (
	"context"
	"time"

	"github.com/dalemusser/cmsdesk/internal/domain/models"
)

// Tasks persists problem tickets.
type Tasks interface {
	Create(ctx context.Context, t models.Task) (models.Task, error)
	GetByID(ctx context.Context, id string) (models.Task, error)
	List(ctx context.Context, f models.TaskFilter) ([]models.Task, error)
	// Update is a read-modify-write: the task must exist, only the patch's
	// fields change and UpdatedAt is bumped. It returns the stored copy.
	Update(ctx context.Context, id string, p models.TaskPatch) (models.Task, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context, f models.TaskFilter) (int64, error)
	CountBy(ctx context.Context, field models.TaskField) ([]models.NameCount, error)
	// Recent returns up to limit tasks created at or after since, newest first.
	Recent(ctx context.Context, since time.Time, limit int) ([]models.Task, error)
}

// Users persists user identities.
type Users interface {
	Create(ctx context.Context, u models.User) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	// GetMany returns the users found among ids, keyed by ID. Missing ids are
	// simply absent.
	GetMany(ctx context.Context, ids []string) (map[string]models.User, error)
	List(ctx context.Context) ([]models.User, error)
	UpdateRole(ctx context.Context, id, role string) (models.User, error)
}

// Messages persists chat messages.
type Messages interface {
	Create(ctx context.Context, m models.Message) (models.Message, error)
	// ListGroup returns the latest limit messages of a group chat, oldest first.
	ListGroup(ctx context.Context, groupChatID string, limit int) ([]models.Message, error)
	// ListDirect returns the latest limit messages exchanged between two
	// users in either direction, oldest first.
	ListDirect(ctx context.Context, userID, peerID string, limit int) ([]models.Message, error)
}

// GroupChats persists chat rooms.
type GroupChats interface {
	Create(ctx context.Context, g models.GroupChat) (models.GroupChat, error)
	GetByID(ctx context.Context, id string) (models.GroupChat, error)
	List(ctx context.Context) ([]models.GroupChat, error)
}

// Notes persists the shared checklist.
type Notes interface {
	Create(ctx context.Context, message string) (models.TaskNote, error)
	List(ctx context.Context) ([]models.TaskNote, error)
	// Toggle flips Checked and returns the updated note.
	Toggle(ctx context.Context, id string) (models.TaskNote, error)
	Delete(ctx context.Context, id string) error
}

// Backend bundles one implementation of every store with its connection
// lifecycle.
type Backend struct {
	Driver     string
	Tasks      Tasks
	Users      Users
	Messages   Messages
	GroupChats GroupChats
	Notes      Notes

	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

// NewBackend assembles a Backend. ping and close may be nil.
func NewBackend(driver string, tasks Tasks, users Users, msgs Messages, chats GroupChats, notes Notes,
	ping, close func(ctx context.Context) error) Backend {
	return Backend{
		Driver:     driver,
		Tasks:      tasks,
		Users:      users,
		Messages:   msgs,
		GroupChats: chats,
		Notes:      notes,
		ping:       ping,
		close:      close,
	}
}

// Ping checks connectivity to the underlying database.
func (b Backend) Ping(ctx context.Context) error {
	if b.ping == nil {
		return nil
	}
	return b.ping(ctx)
}

// Close releases the underlying connection.
func (b Backend) Close(ctx context.Context) error {
	if b.close == nil {
		return nil
	}
	return b.close(ctx)
}
