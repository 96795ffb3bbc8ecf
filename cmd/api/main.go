package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/xavierca1/leadtrack/internal/config"
	"github.com/xavierca1/leadtrack/internal/infra/auth"
	"github.com/xavierca1/leadtrack/internal/infra/database"
	"github.com/xavierca1/leadtrack/internal/infra/http/handlers"
	"github.com/xavierca1/leadtrack/internal/infra/http/middleware"
	"github.com/xavierca1/leadtrack/internal/infra/mail"
	"github.com/xavierca1/leadtrack/internal/infra/queue"
	"github.com/xavierca1/leadtrack/internal/usecase"
)

const version = "1.0.0"

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.Load()
	if cfg.UsesDefaultAdminKey() {
		logger.Warn("ADMIN_KEY is not set, the built-in admin key is active")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Database
	db, err := database.NewDBConnection(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database unavailable", zap.Error(err))
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	listener, err := database.NewLeadChangeListener(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("lead change listener unavailable", zap.Error(err))
	}
	go listener.Run(ctx)

	// 2. Repositories
	accountRepo := database.NewAccountRepository(db)
	leadRepo := database.NewLeadRepository(db)
	credentialRepo := database.NewCredentialRepository(db)

	secret := cfg.JWTSecret
	if secret == "" {
		secret = randomSecret()
		logger.Warn("JWT_SECRET is not set, sessions will not survive a restart")
	}
	authService := auth.NewService(credentialRepo, secret, cfg.SessionTTL, logger)

	// 3. Queue and notifications (optional)
	var (
		events   usecase.EventPublisher
		amqpConn *amqp.Connection
	)
	if cfg.RabbitMQ.Enabled() {
		rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQ.User, cfg.RabbitMQ.Pass, cfg.RabbitMQ.Host, cfg.RabbitMQ.Port)
		if err != nil {
			logger.Fatal("rabbitmq unavailable", zap.Error(err))
		}
		defer rabbitMQ.Close()
		amqpConn = rabbitMQ.Conn
		events = queue.NewProducer(rabbitMQ.Ch)

		if cfg.Mail.Enabled() {
			sender := mail.NewEmailSender(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.User, cfg.Mail.Password, cfg.Mail.From, cfg.Mail.NotifyTo)
			sender.DashboardURL = cfg.AppURL + usecase.PathAdmin
			sender.SalesNames = salesNameLookup(accountRepo)

			worker := queue.NewWorker(rabbitMQ.Ch, sender, logger)
			go func() {
				if err := worker.Start(ctx, queue.QueueName); err != nil {
					logger.Error("notification worker stopped", zap.Error(err))
				}
			}()
		} else {
			logger.Info("mail not configured, lead notifications are only queued")
		}
	}

	// 4. Use cases
	leadService := usecase.NewLeadService(leadRepo, listener, events, logger)
	dashboardService := usecase.NewDashboardService(leadService, accountRepo, logger)

	sessions := middleware.NewSessionRegistry(func(ctx context.Context, token string) *usecase.Session {
		sess := usecase.NewSession(auth.RestoreClient(ctx, authService, token), accountRepo, cfg.AdminKey, logger)
		// The session outlives the request that opened it.
		sess.Init(context.WithoutCancel(ctx))
		return sess
	}, cfg.SessionTTL, logger)
	go sessions.Run(ctx, time.Minute)

	// 5. Handlers and routes
	r := newRouter(routes{
		auth:        handlers.NewAuthHandler(sessions, cfg.SessionTTL, os.Getenv("SECURE_COOKIE") == "true", logger),
		emails:      handlers.NewValidationHandler(authService),
		leads:       handlers.NewLeadHandler(leadService),
		dashboards:  handlers.NewDashboardHandler(dashboardService, leadService, logger),
		health:      handlers.NewHealthHandler(db, amqpConn, version),
		sessions:    sessions,
		corsOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("leadtrack api listening", zap.String("port", cfg.Port), zap.String("version", version))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func salesNameLookup(accounts *database.AccountRepository) mail.SalesNameLookup {
	return func(ctx context.Context, salesID string) string {
		acc, err := accounts.FindByID(ctx, salesID)
		if err != nil {
			return usecase.UnknownOwner
		}
		return acc.Name
	}
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
