package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/twentytesters/backend/internal/auth"
	"github.com/twentytesters/backend/internal/config"
	"github.com/twentytesters/backend/internal/handlers"
	"github.com/twentytesters/backend/internal/lifecycle"
	"github.com/twentytesters/backend/internal/mailer"
	"github.com/twentytesters/backend/internal/matchmaker"
	"github.com/twentytesters/backend/internal/middleware"
	"github.com/twentytesters/backend/internal/service"
	"github.com/twentytesters/backend/internal/storage/sqlite"
	"github.com/twentytesters/backend/pkg/logging"
)

func main() {
	logging.Setup()
	cfg := config.Load()

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("storage initialized", "database", cfg.DBPath)

	var mail mailer.Mailer
	if cfg.SMTPHost != "" {
		mail = mailer.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
		slog.Info("smtp mail enabled", "host", cfg.SMTPHost)
	} else {
		mail = mailer.LogMailer{}
		slog.Info("smtp not configured, mail disabled")
	}

	scheduler := lifecycle.NewScheduler(store, mail)
	defer scheduler.Stop()
	engine := lifecycle.NewEngine(store, mail, scheduler, cfg.CompletionWindow)
	batcher := matchmaker.New(store, mail, engine, cfg)

	// Re-arm the delayed completion transitions that were pending when
	// the previous process stopped.
	if err := scheduler.Recover(context.Background()); err != nil {
		slog.Error("scheduler recovery failed", "error", err)
		os.Exit(1)
	}

	// Periodic sweep: fires queue reminders and catches any batching
	// opportunity missed between joins.
	go func() {
		ticker := time.NewTicker(cfg.QueueSweepInterval)
		defer ticker.Stop()
		for range ticker.C {
			if err := batcher.Process(context.Background()); err != nil {
				slog.Error("queue sweep failed", "error", err)
			}
		}
	}()

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenDuration)
	authenticator := auth.NewPasswordAuthenticator(store)

	handler := &handlers.Handler{
		Auth:          service.NewAuthService(authenticator, jwtManager),
		Apps:          service.NewAppService(store),
		Queue:         service.NewQueueService(store, batcher),
		Groups:        service.NewGroupService(store, engine),
		Requests:      service.NewRequestService(store, mail, engine),
		Notifications: service.NewNotificationService(store),
	}

	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, `{"status":"healthy"}`)
	}).Methods(http.MethodGet)

	handler.Register(r, middleware.RequireAuth(jwtManager, store))

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(r)

	logged := middleware.Logging(corsHandler)

	// h2c lets gRPC-style and HTTP/2 clients connect without TLS.
	h2cHandler := h2c.NewHandler(logged, &http2.Server{})

	addr := fmt.Sprintf(":%d", cfg.Port)
	slog.Info("server starting", "address", addr)
	if err := http.ListenAndServe(addr, h2cHandler); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
