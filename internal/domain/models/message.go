package models

import "time"

// Message is one chat message. Exactly one of GroupChatID and ReceiverID is
// set for group and direct messages; neither for the broadcast fallback.
// Messages are never mutated after creation.
type Message struct {
	ID          string  `bson:"_id" json:"id" gorm:"primaryKey;size:64"`
	Content     string  `bson:"content" json:"content" gorm:"not null"`
	SenderID    string  `bson:"sender_id" json:"senderId" gorm:"index;not null;size:64"`
	GroupChatID *string `bson:"group_chat_id,omitempty" json:"groupChatId" gorm:"index;size:64"`
	ReceiverID  *string `bson:"receiver_id,omitempty" json:"receiverId" gorm:"index;size:64"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt" gorm:"index"`
}

// MessageView is a message as delivered to clients, with the sender's
// display name resolved.
type MessageView struct {
	Message
	SenderName string `json:"senderName"`
}

// GroupChat is a named chat room with static membership.
type GroupChat struct {
	ID             string    `bson:"_id" json:"id" gorm:"primaryKey;size:64"`
	Name           string    `bson:"name" json:"name" gorm:"not null"`
	ParticipantIDs []string  `bson:"participant_ids" json:"participantIds" gorm:"serializer:json"`
	CreatedAt      time.Time `bson:"created_at" json:"createdAt"`
}

// HasParticipant reports whether userID is a member of the chat.
func (g GroupChat) HasParticipant(userID string) bool {
	for _, id := range g.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// TaskNote is an item on the shared checklist. It is unrelated to Task and
// has no owner.
type TaskNote struct {
	ID        string    `bson:"_id" json:"id" gorm:"primaryKey;size:64"`
	Message   string    `bson:"message" json:"message" gorm:"not null"`
	Checked   bool      `bson:"checked" json:"checked"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt" gorm:"index"`
}
