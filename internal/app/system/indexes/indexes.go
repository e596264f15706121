// Package indexes reconciles the MongoDB indexes the stores rely on.
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// CollectionIndexes is the desired index set of one collection.
type CollectionIndexes struct {
	Collection string
	Indexes    []mongo.IndexModel
}

// Desired lists every index the application expects.
func Desired() []CollectionIndexes {
	return []CollectionIndexes{
		{"users", []mongo.IndexModel{
			idx("uniq_users_email", true, bson.E{Key: "email", Value: 1}),
			idx("idx_users_created", false, bson.E{Key: "created_at", Value: -1}, bson.E{Key: "_id", Value: -1}),
		}},
		{"tasks", []mongo.IndexModel{
			idx("idx_tasks_created", false, bson.E{Key: "created_at", Value: -1}, bson.E{Key: "_id", Value: -1}),
			idx("idx_tasks_status_created", false, bson.E{Key: "status", Value: 1}, bson.E{Key: "created_at", Value: -1}),
			idx("idx_tasks_lsa", false, bson.E{Key: "lsa", Value: 1}),
			idx("idx_tasks_tsp", false, bson.E{Key: "tsp", Value: 1}),
		}},
		{"messages", []mongo.IndexModel{
			idx("idx_messages_group_created", false, bson.E{Key: "group_chat_id", Value: 1}, bson.E{Key: "created_at", Value: -1}),
			idx("idx_messages_direct_created", false,
				bson.E{Key: "sender_id", Value: 1}, bson.E{Key: "receiver_id", Value: 1}, bson.E{Key: "created_at", Value: -1}),
		}},
		{"group_chats", []mongo.IndexModel{
			idx("idx_group_chats_name", false, bson.E{Key: "name", Value: 1}),
		}},
		{"task_notes", []mongo.IndexModel{
			idx("idx_task_notes_created", false, bson.E{Key: "created_at", Value: -1}, bson.E{Key: "_id", Value: -1}),
		}},
	}
}

func idx(name string, unique bool, keys ...bson.E) mongo.IndexModel {
	opts := options.Index().SetName(name)
	if unique {
		opts.SetUnique(true)
	}
	return mongo.IndexModel{Keys: bson.D(keys), Options: opts}
}

/*
EnsureAll is called at startup. Reconciling is idempotent; problems are
aggregated so every broken collection shows up in one startup failure.
*/
func EnsureAll(ctx context.Context, db *mongo.Database, log *zap.Logger) error {
	var problems []string
	for _, ci := range Desired() {
		if err := ensureIndexSet(ctx, db.Collection(ci.Collection), ci.Indexes, log); err != nil {
			problems = append(problems, ci.Collection+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func isUnique(b *bool) bool { return b != nil && *b }

func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

func listIndexes(ctx context.Context, coll *mongo.Collection, log *zap.Logger) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]existingIndex{}
	for cur.Next(ctx) {
		var ex existingIndex
		if err := cur.Decode(&ex); err != nil {
			log.Warn("failed to decode existing index", zap.String("collection", coll.Name()), zap.Error(err))
			continue
		}
		out[keySig(ex.Key)] = ex
	}
	return out, cur.Err()
}

// ensureIndexSet creates each desired index unless one with the same keys
// and uniqueness exists. A same-key index with a different name or
// uniqueness is dropped and recreated.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, desired []mongo.IndexModel, log *zap.Logger) error {
	existing, err := listIndexes(ctx, coll, log)
	if err != nil {
		// A collection that does not exist yet has no indexes.
		existing = map[string]existingIndex{}
	}

	var errs []string
	for _, m := range desired {
		name := *m.Options.Name
		unique := isUnique(m.Options.Unique)
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()
		fields := []zap.Field{
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", unique),
		}

		if ex, ok := existing[sig]; ok {
			if isUnique(ex.Unique) == unique && ex.Name == name {
				log.Debug("reusing existing index", fields...)
				continue
			}
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s: drop %s failed: %v", name, ex.Name, err))
				continue
			}
			log.Info("dropped mismatched index", append(fields, zap.String("old_name", ex.Name))...)
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if unique && isDuplicateKeyErr(err) {
				errs = append(errs, fmt.Sprintf("%s: cannot create unique index (duplicates present)", name))
			} else {
				errs = append(errs, fmt.Sprintf("%s: %v", name, err))
			}
			continue
		}
		log.Info("index created", append(fields, zap.Duration("took", time.Since(start)))...)
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
