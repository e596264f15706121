package store

import (
	"context"

	groupchatstore "github.com/dalemusser/cmsdesk/internal/app/store/groupchats"
	messagestore "github.com/dalemusser/cmsdesk/internal/app/store/messages"
	notestore "github.com/dalemusser/cmsdesk/internal/app/store/tasknotes"
	taskstore "github.com/dalemusser/cmsdesk/internal/app/store/tasks"
	userstore "github.com/dalemusser/cmsdesk/internal/app/store/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// DriverMongo names the MongoDB backend in configuration.
const DriverMongo = "mongo"

// NewMongo wires the per-collection MongoDB stores onto db. Closing the
// backend disconnects client.
func NewMongo(client *mongo.Client, db *mongo.Database) Backend {
	return NewBackend(DriverMongo,
		taskstore.New(db),
		userstore.New(db),
		messagestore.New(db),
		groupchatstore.New(db),
		notestore.New(db),
		func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) },
		func(ctx context.Context) error { return client.Disconnect(ctx) },
	)
}
