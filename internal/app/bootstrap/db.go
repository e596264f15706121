// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/cmsdesk/internal/app/store"
	"github.com/dalemusser/cmsdesk/internal/app/store/sqlstore"
	"github.com/dalemusser/cmsdesk/internal/app/system/indexes"
	"github.com/dalemusser/cmsdesk/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB opens the configured store backend.
//
// For MongoDB the client is pinged before returning so a bad URI or an
// unreachable server fails startup. SQL backends migrate their tables on
// open.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	deps := DBDeps{Services: &Services{}}

	switch appCfg.StoreDriver {
	case store.DriverMongo:
		opts := options.Client().
			ApplyURI(appCfg.MongoURI).
			SetMaxPoolSize(appCfg.MongoMaxPoolSize).
			SetMinPoolSize(appCfg.MongoMinPoolSize)

		client, err := mongo.Connect(ctx, opts)
		if err != nil {
			logger.Error("MongoDB connect failed", zap.Error(err))
			return DBDeps{}, fmt.Errorf("connect mongo: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
		defer cancel()
		if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
			_ = client.Disconnect(context.Background())
			logger.Error("MongoDB ping failed", zap.Error(err))
			return DBDeps{}, fmt.Errorf("ping mongo: %w", err)
		}

		db := client.Database(appCfg.MongoDatabase)
		deps.MongoClient = client
		deps.MongoDatabase = db
		deps.Backend = store.NewMongo(client, db)
		logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	case sqlstore.DriverSQLite, sqlstore.DriverLibSQL:
		backend, err := sqlstore.Open(sqlstore.Config{Driver: appCfg.StoreDriver, DSN: appCfg.SQLiteDSN})
		if err != nil {
			logger.Error("SQL store open failed", zap.String("driver", appCfg.StoreDriver), zap.Error(err))
			return DBDeps{}, err
		}
		deps.Backend = backend
		logger.Info("opened SQL store", zap.String("driver", appCfg.StoreDriver))

	default:
		return DBDeps{}, fmt.Errorf("unknown store_driver %q", appCfg.StoreDriver)
	}

	return deps, nil
}

// EnsureSchema creates the MongoDB indexes. The SQL backend migrated its
// tables in ConnectDB, so there is nothing left to do for it.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.MongoDatabase == nil {
		return nil
	}
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Long(), logger, "ensure indexes")
	defer cancel()
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase, logger); err != nil {
		logger.Error("index setup failed", zap.Error(err))
		return err
	}
	return nil
}
