package testutil

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dalemusser/cmsdesk/internal/app/store"
	"github.com/dalemusser/cmsdesk/internal/app/store/sqlstore"
	"github.com/dalemusser/cmsdesk/internal/app/system/indexes"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// MongoURIEnv names the variable that points tests at a MongoDB server.
const MongoURIEnv = "CMSDESK_TEST_MONGO_URI"

// TestContext returns a context bounded for a single test step.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

var (
	mongoOnce   sync.Once
	mongoClient *mongo.Client
	mongoErr    error
	dbCounter   int64
)

func sharedMongo() (*mongo.Client, error) {
	mongoOnce.Do(func() {
		uri := os.Getenv(MongoURIEnv)
		if uri == "" {
			mongoErr = fmt.Errorf("%s not set", MongoURIEnv)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if err != nil {
			mongoErr = err
			return
		}
		if err := c.Ping(ctx, readpref.Primary()); err != nil {
			_ = c.Disconnect(context.Background())
			mongoErr = err
			return
		}
		mongoClient = c
	})
	return mongoClient, mongoErr
}

// SetupTestDB returns a fresh, uniquely named MongoDB database that is
// dropped when the test ends. The test is skipped when no server is
// reachable through CMSDESK_TEST_MONGO_URI.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()
	client, err := sharedMongo()
	if err != nil {
		t.Skipf("skipping MongoDB test: %v", err)
	}
	name := fmt.Sprintf("cmsdesk_test_%d_%d", time.Now().UnixNano(), atomic.AddInt64(&dbCounter, 1))
	db := client.Database(name)
	t.Cleanup(func() {
		ctx, cancel := TestContext()
		defer cancel()
		_ = db.Drop(ctx)
	})
	return db
}

// SetupMongoBackend wraps SetupTestDB in a store.Backend.
func SetupMongoBackend(t *testing.T) store.Backend {
	t.Helper()
	db := SetupTestDB(t)
	ctx, cancel := TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}
	b := store.NewMongo(db.Client(), db)
	// The client is shared across tests; never disconnect it.
	return store.NewBackend(b.Driver, b.Tasks, b.Users, b.Messages, b.GroupChats, b.Notes, b.Ping, nil)
}

// SetupSQLBackend opens a private in-memory SQLite database for one test.
func SetupSQLBackend(t *testing.T) store.Backend {
	t.Helper()
	n := atomic.AddInt64(&dbCounter, 1)
	b, err := sqlstore.Open(sqlstore.Config{
		Driver:       sqlstore.DriverSQLite,
		DSN:          fmt.Sprintf("file:cmsdesk_test_%d?mode=memory&cache=shared", n),
		MaxOpenConns: 1,
	})
	if err != nil {
		t.Fatalf("open sqlite backend: %v", err)
	}
	t.Cleanup(func() { _ = b.Close(context.Background()) })
	return b
}
