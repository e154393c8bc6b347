package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/windcost/internal/bos"
	"github.com/sells-group/windcost/internal/refdata"
	"github.com/sells-group/windcost/internal/region"
	"github.com/sells-group/windcost/pkg/worldbank"
)

// Config holds the full application configuration.
type Config struct {
	Log       LogConfig        `yaml:"log" mapstructure:"log"`
	Store     StoreConfig      `yaml:"store" mapstructure:"store"`
	WorldBank worldbank.Config `yaml:"worldbank" mapstructure:"worldbank"`
	Cache     CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Tables    refdata.Sources  `yaml:"tables" mapstructure:"tables"`
	BOS       BOSConfig        `yaml:"bos" mapstructure:"bos"`
	Farm      FarmConfig       `yaml:"farm" mapstructure:"farm"`
	Rates     region.Rates     `yaml:"rates" mapstructure:"rates"`
	Model     ModelConfig      `yaml:"model" mapstructure:"model"`
	Server    ServerConfig     `yaml:"server" mapstructure:"server"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// StoreConfig configures the run history backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// CacheConfig configures the indicator cache shared across runs.
type CacheConfig struct {
	TTLHours   int  `yaml:"ttl_hours" mapstructure:"ttl_hours"`
	Persistent bool `yaml:"persistent" mapstructure:"persistent"`
}

// Balance-of-system estimator kinds.
const (
	EstimatorProcess = "process"
	EstimatorStatic  = "static"
)

// BOSConfig selects and configures the balance-of-system estimator.
type BOSConfig struct {
	bos.Config `yaml:",inline" mapstructure:",squash"`

	Estimator      string  `yaml:"estimator" mapstructure:"estimator"`
	StaticTotalUSD float64 `yaml:"static_total_usd" mapstructure:"static_total_usd"`
	LayoutFile     string  `yaml:"layout_file" mapstructure:"layout_file"`
}

// FarmConfig configures the reference wind farm.
type FarmConfig struct {
	ReferenceAEPKWh   float64 `yaml:"reference_aep_kwh" mapstructure:"reference_aep_kwh"`
	BoundaryShapefile string  `yaml:"boundary_shapefile" mapstructure:"boundary_shapefile"`
	DisableWakes      bool    `yaml:"disable_wakes" mapstructure:"disable_wakes"`
}

// ModelConfig holds the LCOE model parameters.
type ModelConfig struct {
	LifetimeYears int     `yaml:"lifetime_years" mapstructure:"lifetime_years"`
	EurozoneRate  float64 `yaml:"eurozone_rate" mapstructure:"eurozone_rate"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("WINDCOST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "windcost.db")
	v.SetDefault("worldbank.base_url", worldbank.DefaultBaseURL)
	v.SetDefault("worldbank.timeout_secs", 30)
	v.SetDefault("worldbank.max_retries", 2)
	v.SetDefault("worldbank.rate_per_sec", 5)
	v.SetDefault("worldbank.failure_threshold", 5)
	v.SetDefault("worldbank.reset_timeout_secs", 30)
	v.SetDefault("cache.ttl_hours", 720)
	v.SetDefault("cache.persistent", true)
	v.SetDefault("tables.dir", "data")
	v.SetDefault("bos.estimator", EstimatorProcess)
	v.SetDefault("bos.command", "python")
	v.SetDefault("bos.args", []string{"main.py"})
	v.SetDefault("bos.timeout_secs", 600)
	v.SetDefault("model.lifetime_years", 20)
	v.SetDefault("model.eurozone_rate", 4.5)
	v.SetDefault("server.port", 8080)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	cfg.Rates = withDefaultRates(cfg.Rates)
	return &cfg, nil
}

// withDefaultRates fills an unconfigured exchange-rate table from
// region.DefaultRates.
func withDefaultRates(r region.Rates) region.Rates {
	def := region.DefaultRates()
	if len(r.Quotes) == 0 {
		r.Quotes = def.Quotes
	}
	if len(r.LocalWageCurrency) == 0 {
		r.LocalWageCurrency = def.LocalWageCurrency
	}
	return r
}

// Validate checks the sections needed by mode: "compute", "serve", "runs"
// or "tables".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, "store.driver must be sqlite or postgres")
	}
	if c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}

	switch mode {
	case "runs", "tables":
	case "compute", "serve":
		errs = append(errs, c.validateModel()...)
		if mode == "serve" && (c.Server.Port <= 0 || c.Server.Port > 65535) {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateModel() []string {
	var errs []string
	if c.Model.LifetimeYears <= 0 {
		errs = append(errs, "model.lifetime_years must be > 0")
	}
	if c.Model.EurozoneRate < 0 {
		errs = append(errs, "model.eurozone_rate must be >= 0")
	}
	if c.Cache.TTLHours < 0 {
		errs = append(errs, "cache.ttl_hours must be >= 0")
	}
	if c.WorldBank.RatePerSec < 0 {
		errs = append(errs, "worldbank.rate_per_sec must be >= 0")
	}
	if c.Farm.ReferenceAEPKWh < 0 {
		errs = append(errs, "farm.reference_aep_kwh must be >= 0")
	}

	switch c.BOS.Estimator {
	case EstimatorProcess:
		if c.BOS.Command == "" {
			errs = append(errs, "bos.command is required")
		}
		if c.BOS.TemplateDir == "" {
			errs = append(errs, "bos.template_dir is required")
		}
	case EstimatorStatic:
		if c.BOS.StaticTotalUSD <= 0 {
			errs = append(errs, "bos.static_total_usd must be > 0")
		}
	default:
		errs = append(errs, "bos.estimator must be process or static")
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
