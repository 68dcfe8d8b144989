package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/shelfy/internal/config"
	"github.com/Skotchmaster/shelfy/internal/db"
	"github.com/Skotchmaster/shelfy/internal/events"
	"github.com/Skotchmaster/shelfy/internal/hash"
	"github.com/Skotchmaster/shelfy/internal/httpserver"
	"github.com/Skotchmaster/shelfy/internal/logging"
	"github.com/Skotchmaster/shelfy/internal/metrics"
	loggingmw "github.com/Skotchmaster/shelfy/internal/middleware/logging"
	"github.com/Skotchmaster/shelfy/internal/models"
	"github.com/Skotchmaster/shelfy/internal/repo"
	"github.com/Skotchmaster/shelfy/internal/revocation"
	"github.com/Skotchmaster/shelfy/internal/search"
	"github.com/Skotchmaster/shelfy/internal/service"
	"github.com/Skotchmaster/shelfy/internal/tokens"
)

func main() {
	cfg := config.Load()
	config.MustValid(cfg)

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	if err == nil {
		err = db.Migrate(ctx, gdb)
	}
	cancel()
	if err != nil {
		log.Fatalf("db: %v", err)
	}

	tok, err := tokens.NewService(cfg.JWTConfig())
	if err != nil {
		log.Fatalf("tokens: %v", err)
	}

	r := repo.New(gdb)
	if err := bootstrapAdmin(context.Background(), r, cfg); err != nil {
		log.Fatalf("bootstrap admin: %v", err)
	}

	var closers []io.Closer

	var ledger revocation.Ledger = revocation.Noop{}
	if cfg.RedisAddr != "" {
		rl, err := revocation.Dial(context.Background(), revocation.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		ledger = rl
		closers = append(closers, rl)
		logger.Info("refresh_ledger_enabled", "addr", cfg.RedisAddr)
	} else {
		logger.Warn("refresh_ledger_disabled", "reason", "REDIS_ADDR not set; refresh tokens stay reusable until expiry")
	}

	emitter := &events.Emitter{ProductTopic: cfg.KafkaProductTopic, UserTopic: cfg.KafkaUserTopic}
	if len(cfg.KafkaBrokers) > 0 {
		producer := events.NewProducer(cfg.KafkaBrokers)
		emitter.Pub = producer
		closers = append(closers, producer)
		logger.Info("events_enabled", "brokers", cfg.KafkaBrokers)
	}

	catalog := &service.CatalogService{Repo: r, Events: emitter}
	if cfg.ESURL != "" {
		idx, err := search.Connect(context.Background(), search.Options{
			URL:      cfg.ESURL,
			User:     cfg.ESUser,
			Password: cfg.ESPassword,
			Index:    cfg.ESIndex,
		})
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		catalog.Index = idx
		catalog.Search = idx
		logger.Info("search_enabled", "index", cfg.ESIndex)
	}

	m := metrics.New()

	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType},
		AllowCredentials: true,
	}))

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{
			Svc: &service.AuthService{
				Users:   r,
				Tokens:  tok,
				Ledger:  ledger,
				Events:  emitter,
				Metrics: m,
			},
			Delivery:     cfg.TokenDelivery,
			CookieSecure: cfg.CookieSecure,
		},
		CatalogHandler: &httpserver.CatalogHTTP{Svc: catalog},
		Tokens:         tok,
		Metrics:        m,
		Ready: func(ctx context.Context) error {
			if err := db.Ping(ctx, gdb); err != nil {
				return err
			}
			if rl, ok := ledger.(*revocation.RedisLedger); ok {
				return rl.Ping(ctx)
			}
			return nil
		},
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("http_listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_shutdown_error", "error", err)
	}
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Error("close_error", "error", err)
		}
	}
	_ = db.Close(gdb)

	logger.Info("shelfy stopped")
}

// bootstrapAdmin provisions the configured admin credential once. An existing
// user keeps its password.
func bootstrapAdmin(ctx context.Context, r *repo.GormRepo, cfg config.Config) error {
	if cfg.BootstrapAdminUser == "" || cfg.BootstrapAdminPassword == "" {
		return nil
	}
	pw, err := hash.HashPassword(cfg.BootstrapAdminPassword)
	if err != nil {
		return err
	}
	u := &models.User{Username: cfg.BootstrapAdminUser, PasswordHash: pw, Enabled: true}
	if err := r.CreateUserIfNotExists(ctx, u); err != nil && !errors.Is(err, repo.ErrUserAlreadyExist) {
		return err
	}
	return r.AssignRole(ctx, u.ID, httpserver.AdminRole)
}
