// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	chatfeature "github.com/dalemusser/cmsdesk/internal/app/features/chat"
	healthfeature "github.com/dalemusser/cmsdesk/internal/app/features/health"
	loginfeature "github.com/dalemusser/cmsdesk/internal/app/features/login"
	logoutfeature "github.com/dalemusser/cmsdesk/internal/app/features/logout"
	notesfeature "github.com/dalemusser/cmsdesk/internal/app/features/notes"
	statsfeature "github.com/dalemusser/cmsdesk/internal/app/features/stats"
	tasksfeature "github.com/dalemusser/cmsdesk/internal/app/features/tasks"
	usersfeature "github.com/dalemusser/cmsdesk/internal/app/features/users"
	"github.com/dalemusser/cmsdesk/internal/app/realtime"
	"github.com/dalemusser/cmsdesk/internal/app/system/auth"
	"github.com/dalemusser/cmsdesk/internal/app/system/notify"
	"github.com/dalemusser/cmsdesk/internal/app/system/ratelimit"
	"github.com/dalemusser/cmsdesk/internal/app/system/timeouts"
	"github.com/dalemusser/cmsdesk/internal/app/system/workers"
	"github.com/dalemusser/cmsdesk/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. cmsdesk creates the session manager,
// starts the realtime hub and the notification dispatcher, and mounts the
// JSON feature routers plus the /socket relay endpoint.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	backend := deps.Backend
	statuses := models.NewStatusSet(appCfg.TaskStatuses)

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	// The session only carries the user ID; role changes apply on the next request.
	sessionMgr.SetUserLookup(backend.Users)

	svc := deps.Services
	if svc == nil {
		svc = &Services{}
	}

	// Task notifications are optional. The interface stays nil when they are
	// off so the handler skips enqueueing entirely.
	var notifier tasksfeature.Notifier
	if appCfg.DiscordEnabled {
		discord, err := notify.NewDiscord(appCfg.DiscordToken, appCfg.DiscordChannelID)
		if err != nil {
			logger.Error("discord notifier init failed", zap.Error(err))
			return nil, err
		}
		svc.Dispatcher = workers.NewNotifyDispatcher(notify.NewGroup(discord), logger, 128, timeouts.Short())
		svc.Dispatcher.Start()
		notifier = svc.Dispatcher
	}

	svc.LoginLimiter = ratelimit.NewLoginLimiterWithConfig(
		appCfg.LoginIPLimit, appCfg.LoginLimitWindow,
		appCfg.LoginEmailLimit, appCfg.LoginLimitWindow,
	)

	svc.Hub = realtime.NewHub(backend.Messages, backend.Users, backend.GroupChats, realtime.Config{
		SendBuffer: appCfg.SocketSendBuffer,
		RateLimit:  appCfg.ChatRateLimit,
		RateWindow: appCfg.ChatRateWindow,
	}, logger)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(backend, backend.Driver, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication
	loginHandler := loginfeature.NewHandler(backend.Users, sessionMgr, svc.LoginLimiter, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))
	r.Mount("/me", loginfeature.MeRoutes(loginHandler, sessionMgr))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	// Tickets
	tasksHandler := tasksfeature.NewHandler(backend.Tasks, backend.Users, statuses, nil, notifier, logger)
	r.Mount("/tasks", tasksfeature.Routes(tasksHandler, sessionMgr))

	statsHandler := statsfeature.NewHandler(backend.Tasks, backend.Users, statuses, logger)
	r.Mount("/stats", statsfeature.Routes(statsHandler, sessionMgr))

	notesHandler := notesfeature.NewHandler(backend.Notes, logger)
	r.Mount("/notes", notesfeature.Routes(notesHandler, sessionMgr))

	// People and chat
	usersHandler := usersfeature.NewHandler(backend.Users, logger)
	r.Mount("/users", usersfeature.Routes(usersHandler, sessionMgr))

	chatHandler := chatfeature.NewHandler(backend.GroupChats, backend.Messages, backend.Users, appCfg.HistoryLimit, logger)
	r.Mount("/group-chats", chatfeature.GroupChatRoutes(chatHandler, sessionMgr))
	r.Mount("/messages", chatfeature.MessageRoutes(chatHandler, sessionMgr))

	// Realtime relay
	r.Get("/socket", svc.Hub.Handler(realtime.TransportConfig{AllowedOrigins: appCfg.SocketAllowedOrigins}))

	return r, nil
}
