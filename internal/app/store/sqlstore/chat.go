package sqlstore

import (
	"context"
	"fmt"
	"slices"

	"github.com/dalemusser/cmsdesk/internal/domain/models"
	"gorm.io/gorm"
)

// MessageStore implements store.Messages.
type MessageStore struct {
	db *gorm.DB
}

func (s *MessageStore) Create(ctx context.Context, m models.Message) (models.Message, error) {
	m.ID = newID()
	m.CreatedAt = now()
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return models.Message{}, fmt.Errorf("insert message: %w", err)
	}
	return m, nil
}

func (s *MessageStore) ListGroup(ctx context.Context, groupChatID string, limit int) ([]models.Message, error) {
	return s.latest(s.db.WithContext(ctx).Where("group_chat_id = ?", groupChatID), limit)
}

func (s *MessageStore) ListDirect(ctx context.Context, userID, peerID string, limit int) ([]models.Message, error) {
	q := s.db.WithContext(ctx).Where(
		"(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
		userID, peerID, peerID, userID)
	return s.latest(q, limit)
}

func (s *MessageStore) latest(q *gorm.DB, limit int) ([]models.Message, error) {
	out := make([]models.Message, 0, limit)
	if err := q.Order(newestFirst).Limit(limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("find messages: %w", err)
	}
	slices.Reverse(out)
	return out, nil
}

// GroupChatStore implements store.GroupChats.
type GroupChatStore struct {
	db *gorm.DB
}

func (s *GroupChatStore) Create(ctx context.Context, g models.GroupChat) (models.GroupChat, error) {
	g.ID = newID()
	g.CreatedAt = now()
	if g.ParticipantIDs == nil {
		g.ParticipantIDs = []string{}
	}
	if err := s.db.WithContext(ctx).Create(&g).Error; err != nil {
		return models.GroupChat{}, fmt.Errorf("insert group chat: %w", err)
	}
	return g, nil
}

func (s *GroupChatStore) GetByID(ctx context.Context, id string) (models.GroupChat, error) {
	var g models.GroupChat
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&g).Error; err != nil {
		return models.GroupChat{}, notFoundOr(err, "Group chat not found", "find group chat")
	}
	return g, nil
}

func (s *GroupChatStore) List(ctx context.Context) ([]models.GroupChat, error) {
	out := make([]models.GroupChat, 0)
	if err := s.db.WithContext(ctx).Order("name, id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("find group chats: %w", err)
	}
	return out, nil
}

// NoteStore implements store.Notes.
type NoteStore struct {
	db *gorm.DB
}

const noteNotFound = "Note not found"

func (s *NoteStore) Create(ctx context.Context, message string) (models.TaskNote, error) {
	n := models.TaskNote{ID: newID(), Message: message, CreatedAt: now()}
	if err := s.db.WithContext(ctx).Create(&n).Error; err != nil {
		return models.TaskNote{}, fmt.Errorf("insert note: %w", err)
	}
	return n, nil
}

func (s *NoteStore) List(ctx context.Context) ([]models.TaskNote, error) {
	out := make([]models.TaskNote, 0)
	if err := s.db.WithContext(ctx).Order(newestFirst).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("find notes: %w", err)
	}
	return out, nil
}

func (s *NoteStore) Toggle(ctx context.Context, id string) (models.TaskNote, error) {
	var n models.TaskNote
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.TaskNote{}).Where("id = ?", id).Update("checked", gorm.Expr("NOT checked"))
		if res.Error != nil {
			return fmt.Errorf("toggle note: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return notFoundOr(gorm.ErrRecordNotFound, noteNotFound, "toggle note")
		}
		return tx.Where("id = ?", id).First(&n).Error
	})
	if err != nil {
		return models.TaskNote{}, err
	}
	return n, nil
}

func (s *NoteStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.TaskNote{})
	if res.Error != nil {
		return fmt.Errorf("delete note: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFoundOr(gorm.ErrRecordNotFound, noteNotFound, "delete note")
	}
	return nil
}
