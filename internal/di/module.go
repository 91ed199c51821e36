// Package di wires rfcbridge components together with fx.
package di

import (
	"context"
	"fmt"
	"time"

	"github.com/ignitionstack/rfcbridge/internal/repository"
	"github.com/ignitionstack/rfcbridge/pkg/cache"
	"github.com/ignitionstack/rfcbridge/pkg/config"
	apperrors "github.com/ignitionstack/rfcbridge/pkg/errors"
	"github.com/ignitionstack/rfcbridge/pkg/logging"
	"github.com/ignitionstack/rfcbridge/pkg/mapping"
	"github.com/ignitionstack/rfcbridge/pkg/resolver"
	"github.com/ignitionstack/rfcbridge/pkg/rfc"
	"github.com/ignitionstack/rfcbridge/pkg/rfc/replay"
	"github.com/ignitionstack/rfcbridge/pkg/services"
	"github.com/ignitionstack/rfcbridge/pkg/tableread"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides every component needed by the CLI. The caller supplies
// the *config.Config.
var Module = fx.Options(
	fx.Provide(
		NewLogger,
		NewRepository,
		NewCache,
		NewCaller,
		NewResolver,
		NewReader,
		NewBridgeService,
	),
)

// NewLogger builds the application logger from the log section.
func NewLogger(cfg *config.Config, lc fx.Lifecycle) (*zap.Logger, error) {
	logger, err := logging.New(logging.Options{
		Level:       cfg.Log.Level,
		File:        cfg.Log.File,
		Development: cfg.Log.Development,
	})
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			_ = logger.Sync()
			return nil
		},
	})
	return logger, nil
}

// NewRepository opens the metadata database. When it cannot be opened the
// cache runs in memory for this process.
func NewRepository(cfg *config.Config, logger *zap.Logger) (repository.DBRepository, error) {
	path := cfg.DBPath()
	repo, err := repository.Open(path, logging.NewBadgerLogger(logger))
	if err != nil {
		if repo == nil {
			return nil, apperrors.Wrap(apperrors.KindCacheIO, "failed to open metadata database", err).WithSubject(path)
		}
		logger.Error("metadata database unavailable, using in-memory cache",
			zap.String("error_code", string(apperrors.KindCacheIO)),
			zap.String("path", path),
			zap.Error(err))
	}
	return repo, nil
}

// NewCache loads the metadata cache and closes it on shutdown.
func NewCache(cfg *config.Config, repo repository.DBRepository, logger *zap.Logger, lc fx.Lifecycle) *cache.Cache {
	c := cache.New(repo, cfg.Cache.TTL, cache.WithLogger(logger))
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return c.Close()
		},
	})
	return c
}

// NewCaller returns the serialized backend caller behind a circuit breaker.
// Without a fixture every call fails with a communication error.
func NewCaller(cfg *config.Config, logger *zap.Logger) (rfc.Caller, error) {
	var backend rfc.Caller = rfc.CallerFunc(func(context.Context, string, rfc.Params) (rfc.Result, error) {
		return nil, rfc.NewError(rfc.KindCommunication, "NO_BACKEND", "no backend configured, set backend.fixture")
	})
	if cfg.Backend.Fixture != "" {
		fixture, err := replay.Load(cfg.Backend.Fixture, logger)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindConnection, "failed to load backend fixture", err).
				WithSubject(cfg.Backend.Fixture)
		}
		backend = fixture
	}
	breaker := rfc.NewBreakerCaller(backend, cfg.Backend.FailureThreshold, cfg.Backend.ResetTimeout, logger)
	return rfc.NewSerialCaller(breaker, cfg.Backend.CallTimeout, logger), nil
}

// NewResolver creates the metadata resolver.
func NewResolver(cfg *config.Config, caller rfc.Caller, c *cache.Cache, logger *zap.Logger) *resolver.Resolver {
	return resolver.New(caller, c, resolver.Options{
		DefaultLanguage: cfg.Metadata.DefaultLanguage,
		Logger:          logger,
	})
}

// NewReader creates the table reader.
func NewReader(cfg *config.Config, caller rfc.Caller, logger *zap.Logger) *tableread.Reader {
	return tableread.New(caller, tableread.Options{
		BufferSize:     cfg.Table.BufferSize,
		SafetyMargin:   cfg.Table.SafetyMargin,
		DefaultMaxRows: cfg.Table.DefaultMaxRows,
		Delimiter:      cfg.Table.Delimiter,
		Language:       mapping.MapLanguage(cfg.Metadata.DefaultLanguage, mapping.CategoryMostStrict),
		Logger:         logger,
	})
}

// NewBridgeService creates the service used by the commands.
func NewBridgeService(res *resolver.Resolver, c *cache.Cache, reader *tableread.Reader, logger *zap.Logger) services.BridgeService {
	return services.NewBridgeService(res, c, reader, logger)
}

// Run starts the components for cfg, hands the service to fn and stops
// them again once fn returns.
func Run(ctx context.Context, cfg *config.Config, fn func(context.Context, services.BridgeService) error) error {
	var svc services.BridgeService
	app := fx.New(
		fx.NopLogger,
		fx.Supply(cfg),
		Module,
		fx.Populate(&svc),
		fx.StartTimeout(30*time.Second),
		fx.StopTimeout(30*time.Second),
	)
	if err := app.Err(); err != nil {
		return err
	}
	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}

	runErr := fn(ctx, svc)

	if err := app.Stop(context.Background()); err != nil && runErr == nil {
		return fmt.Errorf("error during shutdown: %w", err)
	}
	return runErr
}
