// Package server wires stores, handlers, and middleware into the HTTP API.
package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/keepsake/internal/backup"
	"github.com/dukerupert/keepsake/internal/config"
	"github.com/dukerupert/keepsake/internal/email"
	"github.com/dukerupert/keepsake/internal/handler"
	"github.com/dukerupert/keepsake/internal/middleware"
	"github.com/dukerupert/keepsake/internal/push"
	"github.com/dukerupert/keepsake/internal/store"
	ws "github.com/dukerupert/keepsake/internal/websocket"
)

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	authH         *handler.AuthHandler
	eventH        *handler.EventHandler
	messageH      *handler.MessageHandler
	contributionH *handler.ContributionHandler
	pushH         *handler.PushHandler
	sessionStore  *store.SessionStore
	backupManager *backup.Manager
	logger        *slog.Logger
}

func New(db *sql.DB, cfg config.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	eventStore := store.NewEventStore(db)
	messageStore := store.NewMessageStore(db)
	contributionStore := store.NewContributionStore(db)
	pushStore := store.NewPushStore(db)
	backupStore := store.NewBackupStore(db)

	emailClient := email.NewClient(cfg.Postmark.ServerToken, cfg.Postmark.FromEmail, cfg.BaseURL)

	// Push is optional: without VAPID keys the endpoints are absent and
	// write handlers skip notification entirely.
	var pushSvc *push.Service
	var pushNotifier *push.Notifier
	var pushH *handler.PushHandler
	if cfg.VAPID.PublicKey != "" && cfg.VAPID.PrivateKey != "" {
		pushSvc = push.NewService(cfg.VAPID.PublicKey, cfg.VAPID.PrivateKey, cfg.VAPID.Subscriber)
		pushNotifier = push.NewNotifier(pushSvc, pushStore, logger.With("component", "push"))
		pushH = handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push_handler"))
	}

	backupCfg := backup.Config{
		S3: backup.S3Config{
			Endpoint:  cfg.Backup.S3Endpoint,
			Bucket:    cfg.Backup.S3Bucket,
			Region:    cfg.Backup.S3Region,
			AccessKey: cfg.Backup.S3AccessKey,
			SecretKey: cfg.Backup.S3SecretKey,
		},
		DBPath:        cfg.DBPath,
		Passphrase:    cfg.Backup.Passphrase,
		ScheduleHour:  cfg.Backup.ScheduleHour,
		RetentionDays: cfg.Backup.RetentionDays,
	}
	backupMgr := backup.NewManager(backupCfg, db, backupStore, logger.With("component", "backup"))

	return &Server{
		db:            db,
		hub:           hub,
		authH:         handler.NewAuthHandler(userStore, sessionStore, emailClient, cfg.AuthDelivery, cfg.BaseURL, logger.With("component", "auth")),
		eventH:        handler.NewEventHandler(eventStore, messageStore, contributionStore, logger.With("component", "event")),
		messageH:      handler.NewMessageHandler(messageStore, eventStore, hub, pushNotifier, logger.With("component", "message")),
		contributionH: handler.NewContributionHandler(contributionStore, eventStore, hub, pushNotifier, logger.With("component", "contribution")),
		pushH:         pushH,
		sessionStore:  sessionStore,
		backupManager: backupMgr,
		logger:        logger,
	}
}

// SessionStore returns the session store for the cleanup loop.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// BackupManager returns the backup manager.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes
	outerMux.HandleFunc("POST /auth/magic-link", s.authH.MagicLink)
	outerMux.HandleFunc("POST /auth/verify", s.authH.Verify)
	outerMux.HandleFunc("POST /auth/logout", s.authH.Logout)
	outerMux.HandleFunc("GET /events/{code}", s.eventH.PublicByCode)
	outerMux.HandleFunc("POST /messages", s.messageH.Create)
	outerMux.HandleFunc("POST /contributions", s.contributionH.Create)
	outerMux.HandleFunc("GET /ws", ws.HandleFeed(s.hub, s.logger.With("component", "websocket")))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes behind the session gate
	protectedMux := http.NewServeMux()
	protectedMux.HandleFunc("GET /auth/me", s.authH.Me)
	protectedMux.HandleFunc("POST /events", s.eventH.Create)
	protectedMux.HandleFunc("GET /events/creator/list", s.eventH.CreatorList)
	protectedMux.HandleFunc("GET /events/creator/{id}", s.eventH.CreatorDetail)
	if s.pushH != nil {
		protectedMux.HandleFunc("POST /api/push/subscriptions", s.pushH.Subscribe)
		protectedMux.HandleFunc("GET /api/push/subscriptions", s.pushH.List)
		protectedMux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
		protectedMux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
	}

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.logger.With("component", "auth_middleware"))
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
