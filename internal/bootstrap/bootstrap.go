// Package bootstrap assembles the card automation service and manages its
// lifecycle: configuration, logging, storage connections, the pipeline, the
// tick daemon, and the HTTP server.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/amirb101/three-sided-sub001/internal/ai"
	"github.com/amirb101/three-sided-sub001/internal/api"
	"github.com/amirb101/three-sided-sub001/internal/archive"
	"github.com/amirb101/three-sided-sub001/internal/config"
	"github.com/amirb101/three-sided-sub001/internal/database"
	"github.com/amirb101/three-sided-sub001/internal/events"
	"github.com/amirb101/three-sided-sub001/internal/logger"
	"github.com/amirb101/three-sided-sub001/internal/metrics"
	"github.com/amirb101/three-sided-sub001/internal/pipeline"
	"github.com/amirb101/three-sided-sub001/internal/profiling"
	"github.com/amirb101/three-sided-sub001/internal/runlog"
	"github.com/amirb101/three-sided-sub001/internal/scheduler"
	"github.com/amirb101/three-sided-sub001/internal/server"
)

// ServiceName identifies this service in logs and health responses.
const ServiceName = "card-automation"

const hoursPerDay = 24

// App holds the assembled service with all its dependencies.
type App struct {
	cfg      *config.Config
	log      logger.Logger
	db       *sqlx.DB
	redis    *redis.Client
	profiler *profiling.Profiler
	daemon   *scheduler.Daemon
	server   *server.Server
}

// Options configures app assembly.
type Options struct {
	ConfigPath string
	Version    string
}

// New loads configuration and wires every component. The returned app owns
// the database and Redis connections until Close.
func New(ctx context.Context, opts Options) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	logCfg := cfg.Logging
	if cfg.Debug {
		logCfg.Development = true
	}
	log, err := logger.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	log = log.With(
		logger.String("service", ServiceName),
		logger.String("version", opts.Version),
	)

	profiler, err := profiling.Start(cfg.Profiling, ServiceName, opts.Version)
	if err != nil {
		return nil, fmt.Errorf("start profiling: %w", err)
	}
	if profiler != nil {
		log.Info("Continuous profiling started",
			logger.String("server", cfg.Profiling.ServerURL),
		)
	}

	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		closeQuietly(profiler, nil, nil)
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if schemaErr := database.EnsureSchema(ctx, db); schemaErr != nil {
		closeQuietly(profiler, db, nil)
		return nil, fmt.Errorf("ensure schema: %w", schemaErr)
	}
	log.Info("Database connection established",
		logger.String("host", cfg.Database.Host),
		logger.String("dbname", cfg.Database.DBName),
	)

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = events.NewRedisClient(cfg.Redis)
		if err != nil {
			closeQuietly(profiler, db, nil)
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		log.Info("Redis connection established",
			logger.String("address", cfg.Redis.Address),
			logger.String("stream", cfg.Redis.Stream),
		)
	}

	esClient, err := archive.NewClient(ctx, cfg.Archive, log)
	if err != nil {
		closeQuietly(profiler, db, redisClient)
		return nil, fmt.Errorf("connect to archive: %w", err)
	}

	m := metrics.New(nil)

	settingsRepo := database.NewSettingsRepository(db, cfg.Automation.ClaimStaleAfter)
	publisherRepo := database.NewPublisherRepository(db)
	cardRepo := database.NewCardRepository(db)
	runlogRepo := database.NewRunlogRepository(db)

	recorder := runlog.NewRecorder(
		runlogRepo,
		events.NewPublisher(redisClient, cfg.Redis.Stream, log),
		m,
		log,
	)

	orchestrator := pipeline.New(pipeline.Deps{
		Store:       settingsRepo,
		Directory:   publisherRepo,
		Source:      archive.NewSource(esClient, cfg.Archive.Index, log),
		Transformer: ai.NewTransformer(cfg.Transformer, log),
		Sink:        cardRepo,
		Recorder:    recorder,
		Logger:      log,
		Config: pipeline.Config{
			RecencyWindow: time.Duration(cfg.Archive.RecencyDays) * hoursPerDay * time.Hour,
			ScoreMin:      cfg.Archive.ScoreMin,
			ScoreMax:      cfg.Archive.ScoreMax,
		},
	})
	runner := pipeline.WithMetrics(orchestrator, m)

	daemon := scheduler.NewDaemon(settingsRepo, runner, m, cfg.Automation.TickInterval, log)

	automationHandler := api.NewAutomationHandler(runner, settingsRepo)
	runsHandler := api.NewRunsHandler(runlogRepo)
	publishersHandler := api.NewPublishersHandler(publisherRepo)

	builder := server.NewServerBuilder(ServiceName, cfg.Server.Port).
		WithHost(cfg.Server.Host).
		WithLogger(log).
		WithDebug(cfg.Debug).
		WithVersion(opts.Version).
		WithCORSOrigins(cfg.Server.CORSOrigins).
		WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, server.DefaultIdleTimeout).
		WithJWTAuth(cfg.Auth.JWTSecret).
		WithDatabaseHealthCheck(db.Ping).
		WithArchiveHealthCheck(func() error {
			res, pingErr := esClient.Ping()
			if pingErr != nil {
				return pingErr
			}
			defer res.Body.Close()
			if res.IsError() {
				return fmt.Errorf("archive ping: %s", res.Status())
			}
			return nil
		}).
		WithRoutes(func(router *gin.Engine) {
			api.SetupRoutes(router, automationHandler, runsHandler, publishersHandler, m.Handler(), cfg.Auth.JWTSecret)
		})

	if redisClient != nil {
		builder = builder.WithRedisHealthCheck(func() error {
			return redisClient.Ping(context.Background()).Err()
		})
	}

	return &App{
		cfg:      cfg,
		log:      log,
		db:       db,
		redis:    redisClient,
		profiler: profiler,
		daemon:   daemon,
		server:   builder.Build(),
	}, nil
}

// Run starts the daemon and the HTTP server, then blocks until a shutdown
// signal or context cancellation.
func (a *App) Run(ctx context.Context) error {
	a.daemon.Start(ctx)
	defer a.daemon.Stop()

	return a.server.RunWithGracefulShutdown(ctx)
}

// Close releases the connections the app owns.
func (a *App) Close() error {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn("failed to close redis client", logger.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("failed to close database", logger.Error(err))
		}
	}
	if err := a.profiler.Stop(); err != nil {
		a.log.Warn("failed to stop profiler", logger.Error(err))
	}
	return a.log.Sync()
}

// Logger returns the application logger.
func (a *App) Logger() logger.Logger {
	return a.log
}

func closeQuietly(profiler *profiling.Profiler, db *sqlx.DB, redisClient *redis.Client) {
	profiler.Stop()
	if db != nil {
		db.Close()
	}
	if redisClient != nil {
		redisClient.Close()
	}
}
