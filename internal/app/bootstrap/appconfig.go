// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables (CMSDESK_*), configuration
// files, or command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig
// keeps the framework-level settings (ports, TLS, logging, CORS); everything
// that is specific to the help desk lives here.
type AppConfig struct {
	// Storage backend: "mongo", "sqlite" or "libsql".
	StoreDriver string

	// MongoDB connection configuration (store_driver=mongo)
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// SQL connection configuration (store_driver=sqlite|libsql).
	// A file path or "file::memory:" for sqlite; a libsql:// URL for Turso.
	SQLiteDSN string

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: cmsdesk-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Task status vocabulary; the first entry is the default for new tasks.
	TaskStatuses []string

	// Realtime relay
	SocketAllowedOrigins []string      // Browser origins allowed to open /socket ("*" allows any)
	SocketSendBuffer     int           // Per-connection outbound queue length
	ChatRateLimit        int           // Messages per window per user (0 disables)
	ChatRateWindow       time.Duration // Window for ChatRateLimit
	HistoryLimit         int           // Messages returned by GET /messages

	// Login throttling
	LoginIPLimit     int
	LoginEmailLimit  int
	LoginLimitWindow time.Duration

	// Seed an admin, two employees, a "General" chat and sample tasks on an
	// empty database.
	SeedDemo bool

	// Discord notifications for task events
	DiscordEnabled   bool
	DiscordToken     string
	DiscordChannelID string

	// Store call deadlines (zero keeps the package defaults)
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}
