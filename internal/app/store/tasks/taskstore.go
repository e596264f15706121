// internal/app/store/tasks/taskstore.go
package taskstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
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
	return &Store{c: db.Collection("tasks")}
}

// now returns the current time at the precision MongoDB stores, so the copy
// returned from Create equals what a later read decodes.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func notFound(id string) error {
	return apperr.NotFound(fmt.Sprintf("task %s not found", id))
}

func (s *Store) Create(ctx context.Context, t models.Task) (models.Task, error) {
	ts := now()
	t.ID = primitive.NewObjectID().Hex()
	t.CreatedAt = ts
	t.UpdatedAt = ts
	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return t, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (models.Task, error) {
	var t models.Task
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Task{}, notFound(id)
		}
		return models.Task{}, fmt.Errorf("find task: %w", err)
	}
	return t, nil
}

// filterDoc translates a TaskFilter. Search uses an escaped, unanchored
// regex without the "i" option, i.e. a case-sensitive substring match.
func filterDoc(f models.TaskFilter) bson.M {
	q := bson.M{}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search)}
		q["$or"] = bson.A{
			bson.M{"problem_description": re},
			bson.M{"solution_provided": re},
			bson.M{"remarks": re},
		}
	}
	if f.From != nil || f.To != nil {
		rng := bson.M{}
		if f.From != nil {
			rng["$gte"] = f.From.UTC()
		}
		if f.To != nil {
			rng["$lte"] = f.To.UTC()
		}
		q["created_at"] = rng
	}
	return q
}

var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

func (s *Store) List(ctx context.Context, f models.TaskFilter) ([]models.Task, error) {
	cur, err := s.c.Find(ctx, filterDoc(f), options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, fmt.Errorf("find tasks: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]models.Task, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	return out, nil
}

// Update applies p atomically with FindOneAndUpdate; a missing task is
// reported as NotFound rather than upserted.
func (s *Store) Update(ctx context.Context, id string, p models.TaskPatch) (models.Task, error) {
	set := bson.M{"updated_at": now()}
	unset := bson.M{}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	if p.SolutionProvided != nil {
		set["solution_provided"] = *p.SolutionProvided
	}
	if p.Remarks != nil {
		set["remarks"] = *p.Remarks
	}
	if p.AssignedToID != nil {
		if *p.AssignedToID == "" {
			unset["assigned_to_id"] = ""
		} else {
			set["assigned_to_id"] = *p.AssignedToID
		}
	}
	upd := bson.M{"$set": set}
	if len(unset) > 0 {
		upd["$unset"] = unset
	}

	var t models.Task
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, upd, opts).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Task{}, notFound(id)
		}
		return models.Task{}, fmt.Errorf("update task: %w", err)
	}
	return t, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if res.DeletedCount == 0 {
		return notFound(id)
	}
	return nil
}

func (s *Store) Count(ctx context.Context, f models.TaskFilter) (int64, error) {
	n, err := s.c.CountDocuments(ctx, filterDoc(f))
	if err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}

// CountBy groups all tasks on field and counts each bucket, ordered by name.
func (s *Store) CountBy(ctx context.Context, field models.TaskField) ([]models.NameCount, error) {
	switch field {
	case models.TaskFieldLSA, models.TaskFieldTSP, models.TaskFieldStatus:
	default:
		return nil, fmt.Errorf("count tasks by %q: unsupported field", field)
	}
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$" + string(field), "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate tasks by %s: %w", field, err)
	}
	defer cur.Close(ctx)

	var rows []struct {
		Name  string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode task counts: %w", err)
	}
	out := make([]models.NameCount, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.NameCount{Name: r.Name, Count: r.Count})
	}
	return out, nil
}

func (s *Store) Recent(ctx context.Context, since time.Time, limit int) ([]models.Task, error) {
	opts := options.Find().SetSort(newestFirst).SetLimit(int64(limit))
	cur, err := s.c.Find(ctx, bson.M{"created_at": bson.M{"$gte": since.UTC()}}, opts)
	if err != nil {
		return nil, fmt.Errorf("find recent tasks: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]models.Task, 0, limit)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode recent tasks: %w", err)
	}
	return out, nil
}
