package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iliyamo/rideshare-groups/internal/config"
	"github.com/iliyamo/rideshare-groups/internal/database"
	"github.com/iliyamo/rideshare-groups/internal/handler"
	"github.com/iliyamo/rideshare-groups/internal/logger"
	"github.com/iliyamo/rideshare-groups/internal/queue"
	"github.com/iliyamo/rideshare-groups/internal/repository"
	"github.com/iliyamo/rideshare-groups/internal/router"
	"github.com/iliyamo/rideshare-groups/internal/service"
)

// NewServeCommand starts the HTTP API.
func NewServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the admin API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(ctx context.Context, opts *RootOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, log := opts.Config, opts.Log

	db, dialect, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if dialect == database.DialectSQLite {
		if err := database.Migrate(ctx, db, dialect); err != nil {
			return err
		}
	}

	var rdb *redis.Client
	if cfg.Cache.Enabled || cfg.RateLimit.Enabled {
		rdb, err = config.NewRedisClient(cfg.Redis)
		if err != nil {
			log.WithError(err).WithField("addr", cfg.Redis.Addr).Warn("redis unavailable; cache and rate limit disabled")
		} else {
			defer rdb.Close()
		}
	}

	var events service.EventPublisher = service.NopPublisher{}
	if cfg.EventsEnabled {
		events = &service.AMQPPublisher{URL: cfg.RabbitURL, Log: log}
		consumer := &queue.Consumer{URL: cfg.RabbitURL, Log: log}
		go consumer.Start(ctx)
	}

	store := repository.NewSQLStore(db)
	engine := service.NewGroupEngine(store, service.NewChangeLog(store), events, log, cfg.BagUnitAdvisoryLimit)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(logger.RequestLogger(log))
	router.RegisterHealth(e, db)
	router.RegisterAdmin(e, handler.NewAdminHandler(engine, log, cfg.MessageDismissAfter), cfg, rdb, log)

	addr := ":" + cfg.Port
	errc := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env, "driver": cfg.StorageDriver}).Info("listening")
		errc <- e.Start(addr)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
