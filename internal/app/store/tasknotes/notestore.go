package notestore

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
	return &Store{c: db.Collection("task_notes")}
}

func notFound() error { return apperr.NotFound("Note not found") }

func (s *Store) Create(ctx context.Context, message string) (models.TaskNote, error) {
	n := models.TaskNote{
		ID:        primitive.NewObjectID().Hex(),
		Message:   message,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	if _, err := s.c.InsertOne(ctx, n); err != nil {
		return models.TaskNote{}, fmt.Errorf("insert note: %w", err)
	}
	return n, nil
}

func (s *Store) List(ctx context.Context) ([]models.TaskNote, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find notes: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]models.TaskNote, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode notes: %w", err)
	}
	return out, nil
}

// Toggle flips checked with an aggregation-pipeline update so concurrent
// toggles never lose a flip.
func (s *Store) Toggle(ctx context.Context, id string) (models.TaskNote, error) {
	upd := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{"checked": bson.M{"$not": bson.A{"$checked"}}}}},
	}
	var n models.TaskNote
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, upd, opts).Decode(&n); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.TaskNote{}, notFound()
		}
		return models.TaskNote{}, fmt.Errorf("toggle note: %w", err)
	}
	return n, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if res.DeletedCount == 0 {
		return notFound()
	}
	return nil
}
