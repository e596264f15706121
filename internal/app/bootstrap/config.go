// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/cmsdesk/internal/app/store"
	"github.com/dalemusser/cmsdesk/internal/app/store/sqlstore"
	"github.com/dalemusser/cmsdesk/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for cmsdesk.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: store_driver, mongo_uri, session_name, etc.
//   - Environment variables: CMSDESK_STORE_DRIVER, CMSDESK_MONGO_URI, etc.
//   - Command-line flags: --store_driver, --mongo_uri, etc.
var appConfigKeys = []config.AppKey{
	{Name: "store_driver", Default: store.DriverMongo, Desc: "Storage backend: 'mongo', 'sqlite' or 'libsql'"},

	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "cmsdesk", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	{Name: "sqlite_dsn", Default: "cmsdesk.db", Desc: "SQLite file path, or libsql:// URL when store_driver=libsql"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "cmsdesk-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime"},

	{Name: "task_statuses", Default: "pending,in progress,resolved", Desc: "Comma-separated task statuses; the first is the default"},

	// Realtime relay
	{Name: "socket_allowed_origins", Default: "", Desc: "Comma-separated origins allowed to open /socket ('*' allows any, blank allows same host)"},
	{Name: "socket_send_buffer", Default: 64, Desc: "Outbound events queued per connection before events are dropped"},
	{Name: "chat_rate_limit", Default: 20, Desc: "Chat messages allowed per user per window (0 disables)"},
	{Name: "chat_rate_window", Default: "10s", Desc: "Window for chat_rate_limit"},
	{Name: "history_limit", Default: 100, Desc: "Maximum messages returned by the history endpoint"},

	// Login throttling
	{Name: "login_ip_limit", Default: 20, Desc: "Login attempts allowed per client IP per window"},
	{Name: "login_email_limit", Default: 5, Desc: "Login attempts allowed per email per window"},
	{Name: "login_limit_window", Default: "15m", Desc: "Window for the login limits"},

	{Name: "seed_demo", Default: false, Desc: "Seed demo users, a group chat and sample tasks on an empty database"},

	// Discord notifications
	{Name: "discord_enabled", Default: false, Desc: "Post task events to a Discord channel"},
	{Name: "discord_token", Default: "", Desc: "Discord bot token"},
	{Name: "discord_channel_id", Default: "", Desc: "Discord channel ID"},

	// Store call deadlines
	{Name: "timeout_short", Default: "5s", Desc: "Deadline for single-record store calls"},
	{Name: "timeout_medium", Default: "10s", Desc: "Deadline for list queries"},
	{Name: "timeout_long", Default: "30s", Desc: "Deadline for aggregates, index builds and seeding"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges .env files, config files,
// CMSDESK_* environment variables and flags, with flags taking precedence.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "CMSDESK", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		StoreDriver: strings.ToLower(strings.TrimSpace(appValues.String("store_driver"))),

		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SQLiteDSN: appValues.String("sqlite_dsn"),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 30*24*time.Hour),

		TaskStatuses: splitList(appValues.String("task_statuses")),

		SocketAllowedOrigins: splitList(appValues.String("socket_allowed_origins")),
		SocketSendBuffer:     appValues.Int("socket_send_buffer"),
		ChatRateLimit:        appValues.Int("chat_rate_limit"),
		ChatRateWindow:       appValues.Duration("chat_rate_window", 10*time.Second),
		HistoryLimit:         appValues.Int("history_limit"),

		LoginIPLimit:     appValues.Int("login_ip_limit"),
		LoginEmailLimit:  appValues.Int("login_email_limit"),
		LoginLimitWindow: appValues.Duration("login_limit_window", 15*time.Minute),

		SeedDemo: appValues.Bool("seed_demo"),

		DiscordEnabled:   appValues.Bool("discord_enabled"),
		DiscordToken:     appValues.String("discord_token"),
		DiscordChannelID: appValues.String("discord_channel_id"),

		TimeoutShort:  appValues.Duration("timeout_short", timeouts.DefaultShort),
		TimeoutMedium: appValues.Duration("timeout_medium", timeouts.DefaultMedium),
		TimeoutLong:   appValues.Duration("timeout_long", timeouts.DefaultLong),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// The store driver decides which connection settings must be usable; the
// MongoDB URI is checked up front so a typo fails before dialing.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	switch appCfg.StoreDriver {
	case store.DriverMongo:
		if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
			logger.Error("invalid MongoDB URI", zap.Error(err))
			return fmt.Errorf("invalid MongoDB URI: %w", err)
		}
		if strings.TrimSpace(appCfg.MongoDatabase) == "" {
			return fmt.Errorf("mongo_database is required when store_driver=%s", store.DriverMongo)
		}
	case sqlstore.DriverSQLite, sqlstore.DriverLibSQL:
		if strings.TrimSpace(appCfg.SQLiteDSN) == "" {
			return fmt.Errorf("sqlite_dsn is required when store_driver=%s", appCfg.StoreDriver)
		}
	default:
		return fmt.Errorf("unknown store_driver %q (want mongo, sqlite or libsql)", appCfg.StoreDriver)
	}

	if strings.TrimSpace(appCfg.SessionKey) == "" {
		return fmt.Errorf("session_key is required")
	}
	if appCfg.SocketSendBuffer <= 0 {
		return fmt.Errorf("socket_send_buffer must be positive")
	}
	if appCfg.HistoryLimit <= 0 {
		return fmt.Errorf("history_limit must be positive")
	}
	if appCfg.DiscordEnabled && (appCfg.DiscordToken == "" || appCfg.DiscordChannelID == "") {
		return fmt.Errorf("discord_enabled requires discord_token and discord_channel_id")
	}
	if coreCfg != nil && coreCfg.Env == "prod" && strings.HasPrefix(appCfg.SessionKey, "dev-only") {
		logger.Warn("running in prod with the development session key")
	}

	return nil
}

// splitList parses a comma-separated config value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
