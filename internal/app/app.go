package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"devevents/config"
	_ "devevents/docs"
	"devevents/internal/adapters/auth"
	"devevents/internal/adapters/email"
	"devevents/internal/adapters/imageproc"
	"devevents/internal/adapters/storage"
	httpdelivery "devevents/internal/delivery/http"
	"devevents/internal/delivery/http/controllers"
	"devevents/internal/domain"
	"devevents/internal/metrics"
	"devevents/internal/normalize"
	"devevents/internal/repository/postgres"
	"devevents/internal/services"
)

const (
	readTimeout     = 15 * time.Second
	idleTimeout     = 60 * time.Second
	shutdownTimeout = 30 * time.Second
)

type App struct {
	cfg        *config.Config
	log        *slog.Logger
	connector  *postgres.Connector
	db         *sql.DB
	httpServer *http.Server
}

// New connects to the database, applies migrations and wires the HTTP server.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log, connector: postgres.NewConnector(cfg.DBUrl)}

	db, err := a.connector.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("init db: %w", err)
	}
	a.db = db
	log.InfoContext(ctx, "database connected")

	if err := postgres.Migrate(db); err != nil {
		_ = a.connector.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	log.InfoContext(ctx, "migrations applied")

	handler, err := buildHandler(cfg, log, db, prometheus.NewRegistry())
	if err != nil {
		_ = a.connector.Close()
		return nil, fmt.Errorf("init services: %w", err)
	}
	a.httpServer = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       readTimeout,
		// Event creation waits on the image upload.
		WriteTimeout: cfg.Upload.Timeout + cfg.RequestTimeout,
		IdleTimeout:  idleTimeout,
	}
	return a, nil
}

// buildHandler wires repositories, adapters, services and controllers on top of db.
func buildHandler(cfg *config.Config, log *slog.Logger, db *sql.DB, reg *prometheus.Registry) (http.Handler, error) {
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	if err := m.WatchDB(db); err != nil {
		return nil, fmt.Errorf("db metrics: %w", err)
	}

	eventRepo := postgres.NewEventRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)

	uploader, err := storage.NewUploader(storage.UploaderConfig{
		Provider:      cfg.Upload.Provider,
		PublicBaseURL: cfg.Upload.PublicBaseURL,
		S3: storage.S3Config{
			Bucket:          cfg.Upload.Bucket,
			Region:          cfg.Upload.Region,
			Endpoint:        cfg.Upload.Endpoint,
			AccessKeyID:     cfg.Upload.AccessKeyID,
			SecretAccessKey: cfg.Upload.SecretAccessKey,
		},
	}, log)
	if err != nil {
		return nil, err
	}
	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:          cfg.Email.SESRegion,
			AccessKeyID:     cfg.Upload.AccessKeyID,
			SecretAccessKey: cfg.Upload.SecretAccessKey,
		},
	}, log)
	if err != nil {
		return nil, err
	}

	eventService := services.NewEventService(
		eventRepo,
		uploader,
		&imageproc.Processor{MaxWidth: cfg.Upload.MaxWidth, MaxPixels: cfg.Upload.MaxPixels},
		normalize.NewDateParser(time.Now),
		m,
		log,
		services.EventServiceConfig{
			ContextTimeout: cfg.RequestTimeout,
			UploadTimeout:  cfg.Upload.Timeout,
			UploadFolder:   cfg.Upload.Folder,
		},
	)
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer(), log)
	bookingService := services.NewBookingService(bookingRepo, eventRepo, emailService, m, log, cfg.RequestTimeout)

	routerCfg := httpdelivery.RouterConfig{
		Logger:         log,
		Gatherer:       reg,
		AllowedOrigins: cfg.AllowedOrigins,
	}
	if cfg.Auth.JWTSecret != "" {
		routerCfg.Verifier = auth.NewJWTIssuer(cfg.Auth.JWTSecret)
	} else {
		log.Warn("AUTH_JWT_SECRET is empty; event writes are not protected")
	}

	routes := httpdelivery.NewRouter(
		controllers.NewEventController(log, eventService, bookingService, cfg.MaxUploadBytes, cfg.Production()),
		controllers.NewBookingController(log, bookingService, cfg.Production()),
		controllers.NewHealthController(log, db),
		routerCfg,
	)
	return httpdelivery.NewHandler(routes, routerCfg), nil
}

// Run serves HTTP until SIGINT or SIGTERM, then shuts down gracefully.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("HTTP server starting", "addr", a.httpServer.Addr, "env", a.cfg.Environment)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.connector.Close()
		return err
	}
	return a.shutdown()
}

func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	a.log.Info("HTTP server stopped")

	if err := a.connector.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	a.log.Info("database connection closed")
	return nil
}

// Migrate connects and applies pending migrations without serving.
func Migrate(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	connector := postgres.NewConnector(cfg.DBUrl)
	db, err := connector.Connect(ctx)
	if err != nil {
		return err
	}
	defer connector.Close()
	if err := postgres.Migrate(db); err != nil {
		return err
	}
	log.InfoContext(ctx, "migrations applied")
	return nil
}

// IssueToken signs an organizer token for subject.
func IssueToken(cfg *config.Config, subject string, ttl time.Duration) (string, error) {
	if cfg.Auth.JWTSecret == "" {
		return "", errors.New("AUTH_JWT_SECRET is not set")
	}
	var issuer domain.TokenIssuer = auth.NewJWTIssuer(cfg.Auth.JWTSecret)
	return issuer.Issue(subject, ttl)
}
