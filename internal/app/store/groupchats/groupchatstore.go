package groupchatstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/cmsdesk/internal/app/system/apperr"
	"github.com/dalemusser/cmsdesk/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("group_chats")}
}

func (s *Store) Create(ctx context.Context, g models.GroupChat) (models.GroupChat, error) {
	g.ID = primitive.NewObjectID().Hex()
	g.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if g.ParticipantIDs == nil {
		g.ParticipantIDs = []string{}
	}
	if _, err := s.c.InsertOne(ctx, g); err != nil {
		return models.GroupChat{}, fmt.Errorf("insert group chat: %w", err)
	}
	return g, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (models.GroupChat, error) {
	var g models.GroupChat
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.GroupChat{}, apperr.NotFound("Group chat not found")
		}
		return models.GroupChat{}, fmt.Errorf("find group chat: %w", err)
	}
	return g, nil
}

// List returns group chats ordered by name.
func (s *Store) List(ctx context.Context) ([]models.GroupChat, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find group chats: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]models.GroupChat, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode group chats: %w", err)
	}
	return out, nil
}
