// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/cmsdesk/internal/app/realtime"
	"github.com/dalemusser/cmsdesk/internal/app/store"
	"github.com/dalemusser/cmsdesk/internal/app/system/ratelimit"
	"github.com/dalemusser/cmsdesk/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
//
// Backend is set for every driver; the Mongo handles only when
// store_driver=mongo (index setup needs the raw database).
type DBDeps struct {
	Backend store.Backend

	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Services is filled by BuildHandler and torn down by Shutdown.
	Services *Services
}

// Services are the long-running pieces started while building the handler.
type Services struct {
	Hub          *realtime.Hub
	Dispatcher   *workers.NotifyDispatcher
	LoginLimiter *ratelimit.LoginLimiter
}
