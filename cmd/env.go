package main

import (
	"context"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/windcost/internal/bos"
	"github.com/sells-group/windcost/internal/config"
	"github.com/sells-group/windcost/internal/energy"
	"github.com/sells-group/windcost/internal/farm"
	"github.com/sells-group/windcost/internal/fetcher"
	"github.com/sells-group/windcost/internal/lcoe"
	"github.com/sells-group/windcost/internal/refdata"
	"github.com/sells-group/windcost/internal/stats"
	"github.com/sells-group/windcost/internal/store"
	"github.com/sells-group/windcost/pkg/worldbank"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "windcost.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// openStore opens and migrates the configured store.
func openStore(ctx context.Context) (store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// calcEnv holds the calculator and the resources it depends on.
type calcEnv struct {
	Store      store.Store
	Calculator *lcoe.Calculator
	Tables     *refdata.Tables
}

// Close releases resources held by the environment.
func (e *calcEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// newFetchers returns the HTTP and FTP fetchers shared by the World Bank
// client and remote reference tables.
func newFetchers(c *config.Config) (fetcher.Fetcher, fetcher.Fetcher) {
	limiters := fetcher.DefaultRateLimiters()
	if c.WorldBank.RatePerSec > 0 {
		burst := int(c.WorldBank.RatePerSec)
		if burst < 1 {
			burst = 1
		}
		limiters[fetcher.WorldBankHost] = rate.NewLimiter(rate.Limit(c.WorldBank.RatePerSec), burst)
	}
	httpF := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		Timeout:      c.WorldBank.Timeout(),
		MaxRetries:   c.WorldBank.MaxRetries,
		RateLimiters: limiters,
		Adaptive:     true,
	})
	ftpF := fetcher.NewFTPFetcher(fetcher.FTPOptions{Timeout: c.WorldBank.Timeout()})
	return httpF, ftpF
}

// loadTables reads every reference table named by the config.
func loadTables(ctx context.Context, c *config.Config, opener refdata.Opener) (*refdata.Tables, error) {
	tables, err := refdata.Load(ctx, c.Tables, opener)
	if err != nil {
		return nil, eris.Wrap(err, "load reference tables")
	}
	return tables, nil
}

// storeNeeded reports whether a calculator run touches the store: when the
// run is saved or indicators are cached persistently.
func storeNeeded(save bool, c *config.Config) bool {
	return save || c.Cache.Persistent
}

// initCalculator sets up the statistics provider, the reference tables and
// the cost stages, and the store when withStore is set. Callers should
// defer env.Close().
func initCalculator(ctx context.Context, mode string, withStore bool) (*calcEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	env := &calcEnv{}
	if storeNeeded(withStore, cfg) {
		st, err := openStore(ctx)
		if err != nil {
			return nil, err
		}
		env.Store = st
	}
	st := env.Store

	httpF, ftpF := newFetchers(cfg)

	var provider stats.Provider = worldbank.NewFromConfig(cfg.WorldBank, httpF)
	if cfg.Cache.Persistent {
		ttl := time.Duration(cfg.Cache.TTLHours) * time.Hour
		provider = stats.NewPersistent(provider, st, ttl)
		if n, err := st.DeleteExpiredIndicators(ctx); err != nil {
			zap.L().Warn("prune indicator cache failed", zap.Error(err))
		} else if n > 0 {
			zap.L().Debug("pruned indicator cache", zap.Int("rows", n))
		}
	}

	var err error
	env.Tables, err = loadTables(ctx, cfg, refdata.Opener{HTTP: httpF, FTP: ftpF})
	if err != nil {
		env.Close()
		return nil, err
	}

	deps, err := buildDeps(cfg, env.Tables)
	if err != nil {
		env.Close()
		return nil, err
	}

	env.Calculator = lcoe.NewCalculator(provider, lcoe.StandardBuilder(deps),
		lcoe.WithLifetime(cfg.Model.LifetimeYears),
	)

	zap.L().Info("calculator ready",
		zap.String("store", cfg.Store.Driver),
		zap.Bool("persistent_cache", cfg.Cache.Persistent),
		zap.String("bos_estimator", cfg.BOS.Estimator),
		zap.Int("lifetime_years", cfg.Model.LifetimeYears),
	)
	return env, nil
}

// buildDeps assembles the balance-of-system and energy collaborators.
func buildDeps(c *config.Config, tables *refdata.Tables) (lcoe.Deps, error) {
	layout, err := loadLayout(c.BOS.LayoutFile)
	if err != nil {
		return lcoe.Deps{}, err
	}

	tmpl, err := bos.ReadTemplate(c.BOS.TemplatePath(), layout)
	if err != nil {
		return lcoe.Deps{}, eris.Wrap(err, "read bos template")
	}

	var est bos.Estimator
	switch c.BOS.Estimator {
	case config.EstimatorStatic:
		est = bos.NewStaticEstimator(c.BOS.StaticTotalUSD)
	default:
		est = bos.NewProcessEstimator(c.BOS.Config)
	}

	yield, err := buildEnergy(c.Farm)
	if err != nil {
		return lcoe.Deps{}, err
	}

	return lcoe.Deps{
		Tables:       tables,
		Rates:        c.Rates,
		BOS:          est,
		Layout:       layout,
		Template:     tmpl,
		Energy:       yield,
		EurozoneRate: c.Model.EurozoneRate,
	}, nil
}

func loadLayout(path string) (bos.Layout, error) {
	if path == "" {
		return bos.DefaultLayout()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return bos.Layout{}, eris.Wrapf(err, "read bos layout %s", path)
	}
	return bos.ParseLayout(data)
}

func buildEnergy(fc config.FarmConfig) (*energy.Estimator, error) {
	if fc.ReferenceAEPKWh > 0 {
		return energy.NewEstimator(nil, energy.WithReferenceAEP(fc.ReferenceAEPKWh)), nil
	}

	sim := farm.NewSimulator()
	sim.DisableWakes = fc.DisableWakes

	var opts []energy.Option
	if fc.BoundaryShapefile != "" {
		boundary, err := farm.LoadBoundary(fc.BoundaryShapefile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, energy.WithSite(farm.Site{Boundary: boundary, Rose: farm.ReferenceRose()}))
	}
	return energy.NewEstimator(sim, opts...), nil
}
