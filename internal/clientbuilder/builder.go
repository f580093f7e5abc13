// Package clientbuilder wires the client components from AppConfig.
package clientbuilder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/chessonline-client/internal/analysis"
	"github.com/park285/chessonline-client/internal/apiclient"
	"github.com/park285/chessonline-client/internal/archive"
	"github.com/park285/chessonline-client/internal/config"
	"github.com/park285/chessonline-client/internal/engine"
	"github.com/park285/chessonline-client/internal/localstore"
	"github.com/park285/chessonline-client/internal/msgcat"
	"github.com/park285/chessonline-client/internal/presenter"
	"github.com/park285/chessonline-client/internal/push"
	"github.com/park285/chessonline-client/internal/render"
)

type Deps struct {
	Config    *config.AppConfig
	API       *apiclient.Client
	Push      *push.Client
	Sender    push.MoveSender
	Store     localstore.Store
	Catalog   *msgcat.Catalog
	Presenter *presenter.Presenter
	Engine    *engine.Pool
	Archive   *archive.Archive

	closers []func() error
}

func New(ctx context.Context, cfg *config.AppConfig, out io.Writer, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Deps{Config: cfg}

	// Local store (Redis optional)
	if strings.TrimSpace(cfg.RedisURL) != "" {
		rs, err := localstore.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("init local store: %w", err)
		}
		d.Store = rs
		d.closers = append(d.closers, rs.Close)
	} else {
		d.Store = localstore.NewMemoryStore()
	}

	apiOpts := []apiclient.Option{
		apiclient.WithTimeout(cfg.HTTPTimeout),
		apiclient.WithRetry(cfg.HTTPRetry),
		apiclient.WithTokenStore(d.Store),
		apiclient.WithLogger(logger.Named("api")),
	}
	if cfg.AuthToken != "" {
		apiOpts = append(apiOpts, apiclient.WithToken(cfg.AuthToken))
	}
	d.API = apiclient.NewClient(cfg.APIBaseURL, apiOpts...)
	if _, err := d.API.RestoreToken(ctx); err != nil {
		logger.Warn("token_restore_failed", zap.Error(err))
	}

	d.Push = push.NewClient(cfg.PushWSURL,
		push.WithToken(d.API.Token()),
		push.WithMaxReconnect(cfg.PushMaxReconnect),
		push.WithReadyTimeout(cfg.PushReadyTimeout),
		push.WithLogger(logger.Named("push")),
	)
	// a dropped REST session also ends the push session
	d.API.OnLogout(func() { d.Push.SetToken("") })
	d.Sender = push.NewMoveSender(cfg.MoveSender, d.API, d.Push, logger.Named("sender"))

	cat, err := msgcat.New(cfg.Locale, cfg.MsgOverrideDir)
	if err != nil {
		_ = d.Close(ctx)
		return nil, fmt.Errorf("init messages: %w", err)
	}
	d.Catalog = cat
	d.Presenter = presenter.New(out, presenter.NewFormatter(cat), render.NewSVGRenderer(), cfg.RenderDir, logger.Named("presenter"))

	// Engine (optional)
	if strings.TrimSpace(cfg.StockfishPath) != "" {
		pool, err := engine.NewPool(engine.PoolConfig{
			BinaryPath: cfg.StockfishPath,
			Capacity:   cfg.EnginePool,
			Logger:     logger.Named("engine"),
		})
		if err != nil {
			_ = d.Close(ctx)
			return nil, fmt.Errorf("init engine: %w", err)
		}
		d.Engine = pool
		d.closers = append(d.closers, pool.Close)
	}

	// Archive (Postgres optional)
	repo := archive.NewMemoryRepository()
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		repo, err = archive.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			_ = d.Close(ctx)
			return nil, fmt.Errorf("init archive: %w", err)
		}
	}
	d.Archive = archive.New(repo, logger.Named("archive"))
	d.closers = append(d.closers, d.Archive.Close)

	return d, nil
}

// AnalysisOptions selects the local engine when one is configured and always
// keeps the backend as the fallback analyser.
func (d *Deps) AnalysisOptions(logger *zap.Logger) []analysis.Option {
	opts := []analysis.Option{
		analysis.WithRemote(d.API),
		analysis.WithDepth(d.Config.AnalysisDepth),
		analysis.WithLogger(logger),
	}
	if d.Engine != nil {
		opts = append(opts, analysis.WithEvaluator(d.Engine))
	}
	return opts
}

// Close releases every resource in reverse order of creation.
func (d *Deps) Close(ctx context.Context) error {
	var errs []error
	if d.Push != nil {
		if err := d.Push.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}
