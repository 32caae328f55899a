package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/TomiRonco/gym-pro-sub000/internal/activity"
	"github.com/TomiRonco/gym-pro-sub000/internal/auth"
	"github.com/TomiRonco/gym-pro-sub000/internal/backup"
	"github.com/TomiRonco/gym-pro-sub000/internal/email"
	"github.com/TomiRonco/gym-pro-sub000/internal/handler"
	"github.com/TomiRonco/gym-pro-sub000/internal/middleware"
	"github.com/TomiRonco/gym-pro-sub000/internal/push"
	"github.com/TomiRonco/gym-pro-sub000/internal/store"
	"github.com/TomiRonco/gym-pro-sub000/internal/stripe"
	ws "github.com/TomiRonco/gym-pro-sub000/internal/websocket"
)

// Config collects everything the server wires together beyond the database.
type Config struct {
	JWTSecret string
	Backup    backup.Config
	Push      push.Config
	Stripe    stripe.Config
}

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	feed          *activity.Feed
	tokens        *auth.Tokens
	authH         *handler.AuthHandler
	memberH       *handler.MemberHandler
	paymentH      *handler.PaymentHandler
	planH         *handler.PlanHandler
	scheduleH     *handler.ScheduleHandler
	attendanceH   *handler.AttendanceHandler
	dashboardH    *handler.DashboardHandler
	settingsH     *handler.SettingsHandler
	userH         *handler.UserHandler
	backupH       *handler.BackupHandler
	checkoutH     *handler.CheckoutHandler
	pushH         *handler.PushHandler
	rateLimiter   *middleware.RateLimiter
	backupManager *backup.Manager
	pushScheduler *push.Scheduler
	logger        *slog.Logger
}

func New(db *sql.DB, cfg Config, emailClient *email.Client, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))
	feed := activity.NewFeed()
	tokens := auth.NewTokens(cfg.JWTSecret, 0)
	rateLimiter := middleware.NewRateLimiter()

	memberStore := store.NewMemberStore(db)
	paymentStore := store.NewPaymentStore(db)
	planStore := store.NewPlanStore(db)
	scheduleStore := store.NewScheduleStore(db)
	attendanceStore := store.NewAttendanceStore(db)
	userStore := store.NewUserStore(db)
	settingsStore := store.NewSettingsStore(db)
	pushStore := store.NewPushStore(db)
	backupStore := store.NewBackupStore(db)

	backupMgr := backup.NewManager(cfg.Backup, db, backupStore, settingsStore,
		logger.With("component", "backup"), func(s backup.Status) {
			hub.Broadcast(ws.Message{
				Type:   "backup_status",
				Entity: "backup",
				Action: string(s.State),
				Extra: map[string]any{
					"in_progress": s.InProgress,
					"error":       s.Error,
				},
			})
		})

	pushLogger := logger.With("component", "push")
	var pushSvc *push.Service
	var pushSched *push.Scheduler
	var pushH *handler.PushHandler
	if cfg.Push.VAPIDPublicKey != "" && cfg.Push.VAPIDPrivateKey != "" {
		pushSvc = push.NewService(cfg.Push.VAPIDPublicKey, cfg.Push.VAPIDPrivateKey)
		pushSched = push.NewScheduler(pushSvc, emailClient, pushStore, memberStore, settingsStore, pushLogger)
		pushH = handler.NewPushHandler(pushStore, pushSvc, pushLogger)
	}

	stripeClient := stripe.NewClient(cfg.Stripe)

	return &Server{
		db:     db,
		hub:    hub,
		feed:   feed,
		tokens: tokens,
		authH:  handler.NewAuthHandler(userStore, tokens, rateLimiter, logger.With("component", "auth")),
		memberH: handler.NewMemberHandler(memberStore, feed, hub,
			logger.With("component", "member")),
		paymentH: handler.NewPaymentHandler(paymentStore, memberStore, feed, hub,
			logger.With("component", "payment")),
		planH:       handler.NewPlanHandler(planStore, hub, logger.With("component", "plan")),
		scheduleH:   handler.NewScheduleHandler(scheduleStore, hub, logger.With("component", "schedule")),
		attendanceH: handler.NewAttendanceHandler(attendanceStore, memberStore, feed, hub, logger.With("component", "attendance")),
		dashboardH:  handler.NewDashboardHandler(memberStore, paymentStore, feed, logger.With("component", "dashboard")),
		settingsH:   handler.NewSettingsHandler(settingsStore, logger.With("component", "settings")),
		userH:       handler.NewUserHandler(userStore, logger.With("component", "user")),
		backupH:     handler.NewBackupHandler(backupMgr, backupStore, logger.With("component", "backup_handler")),
		checkoutH: handler.NewCheckoutHandler(stripeClient, memberStore, planStore, paymentStore, feed, hub,
			logger.With("component", "checkout")),
		pushH:         pushH,
		rateLimiter:   rateLimiter,
		backupManager: backupMgr,
		pushScheduler: pushSched,
		logger:        logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// BackupManager returns the backup manager.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

// PushScheduler returns the push notification scheduler, nil when VAPID keys
// are not configured.
func (s *Server) PushScheduler() *push.Scheduler {
	return s.pushScheduler
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/auth/login", s.authH.Login)
	outerMux.HandleFunc("POST /webhooks/stripe", s.checkoutH.Webhook)
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes, wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.tokens)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/auth/me", s.authH.Me)
	mux.HandleFunc("PUT /api/auth/password", s.authH.ChangePassword)

	// Member routes
	mux.HandleFunc("POST /api/members", s.memberH.Create)
	mux.HandleFunc("GET /api/members", s.memberH.List)
	mux.HandleFunc("GET /api/members/{id}", s.memberH.Get)
	mux.HandleFunc("PUT /api/members/{id}", s.memberH.Update)
	mux.HandleFunc("PUT /api/members/{id}/deactivate", s.memberH.Deactivate)

	// Payment routes
	mux.HandleFunc("POST /api/payments", s.paymentH.Create)
	mux.HandleFunc("GET /api/payments", s.paymentH.List)
	mux.HandleFunc("GET /api/payments/stats/month", s.paymentH.MonthStats)
	mux.HandleFunc("GET /api/payments/{id}", s.paymentH.Get)
	mux.HandleFunc("PUT /api/payments/{id}/verify", s.paymentH.Verify)
	mux.HandleFunc("PUT /api/payments/{id}/unverify", s.paymentH.Unverify)
	mux.HandleFunc("DELETE /api/payments/{id}", s.paymentH.Delete)

	// Plan routes
	mux.HandleFunc("POST /api/plans", s.planH.Create)
	mux.HandleFunc("GET /api/plans", s.planH.List)
	mux.HandleFunc("GET /api/plans/{id}", s.planH.Get)
	mux.HandleFunc("PUT /api/plans/{id}", s.planH.Update)
	mux.HandleFunc("DELETE /api/plans/{id}", s.planH.Retire)

	// Schedule routes
	mux.HandleFunc("GET /api/schedules", s.scheduleH.List)
	mux.HandleFunc("PUT /api/schedules/{id}", s.scheduleH.Update)

	// Attendance routes
	mux.HandleFunc("POST /api/attendance/check-in", s.attendanceH.CheckIn)
	mux.HandleFunc("PUT /api/attendance/check-out", s.attendanceH.CheckOut)
	mux.HandleFunc("GET /api/attendance", s.attendanceH.List)

	// Dashboard routes
	mux.HandleFunc("GET /api/dashboard/stats", s.dashboardH.Stats)
	mux.HandleFunc("GET /api/dashboard/recent-activity", s.dashboardH.RecentActivity)

	// Settings routes
	mux.HandleFunc("GET /api/settings", s.settingsH.GetAll)
	mux.HandleFunc("GET /api/settings/gym", s.settingsH.GetProfile)
	mux.HandleFunc("PUT /api/settings/gym", s.settingsH.Update)

	// Trainer listing is open to all staff
	mux.HandleFunc("GET /api/users/trainers", s.userH.ListTrainers)

	// Online checkout; session creation needs a logged-in staff user, the
	// webhook stays public
	mux.HandleFunc("POST /api/checkout", s.checkoutH.CreateSession)

	// Push notification routes
	if s.pushH != nil {
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
		mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
		mux.HandleFunc("GET /api/push/subscriptions", s.pushH.ListSubscriptions)
		mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
	}

	// Admin-only routes
	adminMux := http.NewServeMux()
	adminMux.HandleFunc("GET /api/users", s.userH.List)
	adminMux.HandleFunc("POST /api/users", s.userH.Create)
	adminMux.HandleFunc("GET /api/users/{id}", s.userH.Get)
	adminMux.HandleFunc("PUT /api/users/{id}", s.userH.Update)
	adminMux.HandleFunc("PUT /api/users/{id}/deactivate", s.userH.Deactivate)
	adminMux.HandleFunc("GET /api/backups", s.backupH.List)
	adminMux.HandleFunc("GET /api/backups/status", s.backupH.Status)
	adminMux.HandleFunc("POST /api/backups/run", s.backupH.Run)
	adminMux.HandleFunc("GET /api/backups/{id}/download", s.backupH.Download)
	adminMux.HandleFunc("POST /api/backups/{id}/restore", s.backupH.Restore)
	admin := middleware.RequireAdmin(adminMux)
	mux.Handle("/api/users", admin)
	mux.Handle("/api/users/{id}", admin)
	mux.Handle("/api/users/{id}/deactivate", admin)
	mux.Handle("/api/backups", admin)
	mux.Handle("/api/backups/", admin)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))
}
