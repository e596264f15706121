// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown cleanly tears down the relay, background workers and the store.
// Connected sockets are dropped first so no send lands on a closed backend.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if svc := deps.Services; svc != nil {
		if svc.Hub != nil {
			svc.Hub.Close()
		}
		if svc.Dispatcher != nil {
			svc.Dispatcher.Stop()
		}
		if svc.LoginLimiter != nil {
			svc.LoginLimiter.Stop()
		}
	}

	logger.Info("closing store", zap.String("driver", deps.Backend.Driver))
	if err := deps.Backend.Close(ctx); err != nil {
		logger.Error("store close failed", zap.Error(err))
		return err
	}
	return nil
}
