package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/valeevte/PriceOptimizer/internal/database"
	"github.com/valeevte/PriceOptimizer/internal/logger"
	"github.com/valeevte/PriceOptimizer/internal/scheduler"
)

const DefaultPath = "config.yml"

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Pricing   PricingConfig   `yaml:"pricing"`
	Log       logger.Config   `yaml:"log"`
}

type ServerConfig struct {
	Port    string `yaml:"port"`
	GinMode string `yaml:"gin_mode"`
	// ShutdownSeconds bounds how long in-flight requests get on shutdown.
	ShutdownSeconds int `yaml:"shutdown_seconds"`
	// RateLimitRPS is the per-client request rate; 0 disables limiting.
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`
}

type DatabaseConfig struct {
	Driver            string `yaml:"driver"`
	database.DBConfig `yaml:",inline"`
}

type SchedulerConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Spec            string `yaml:"spec"`
	IntervalSeconds int    `yaml:"interval_seconds"`
	// RunOnStart refreshes competitor prices once right away.
	RunOnStart bool `yaml:"run_on_start"`
}

// CronSpec returns Spec, or an @every descriptor built from IntervalSeconds.
func (s SchedulerConfig) CronSpec() string {
	if s.Spec != "" {
		return s.Spec
	}
	return fmt.Sprintf("@every %ds", s.IntervalSeconds)
}

// Job returns the settings scheduler.Run needs.
func (s SchedulerConfig) Job() scheduler.Config {
	return scheduler.Config{Spec: s.CronSpec(), RunOnStart: s.RunOnStart}
}

type PricingConfig struct {
	// Seed fixes the simulator's random source; 0 seeds from the clock.
	Seed           uint64 `yaml:"seed"`
	Workers        int    `yaml:"workers"`
	SeedDays       int    `yaml:"seed_days"`
	InitialCatalog bool   `yaml:"initial_catalog"`
	BackfillOnRead bool   `yaml:"backfill_on_read"`
}

func Default() *Config {
	return &Config{
		Server:    ServerConfig{Port: "8080", GinMode: "debug", ShutdownSeconds: 15, RateLimitRPS: 20, RateLimitBurst: 40},
		Database:  DatabaseConfig{Driver: DriverMemory},
		Scheduler: SchedulerConfig{Enabled: true, IntervalSeconds: 60, RunOnStart: true},
		Pricing:   PricingConfig{Workers: 4, SeedDays: 30, InitialCatalog: true, BackfillOnRead: true},
		Log:       logger.Config{Level: "info", Format: "json"},
	}
}

// Load reads .env (if present), then the YAML file at path, then environment
// overrides. A missing file is only an error when path was given explicitly.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	explicit := path != ""
	if !explicit {
		path = os.Getenv("CONFIG_PATH")
		explicit = path != ""
	}
	if path == "" {
		path = DefaultPath
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "cannot parse YAML %s", path)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return nil, errors.Wrapf(err, "cannot read config file %s", path)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString(&c.Server.Port, "PORT")
	setString(&c.Server.GinMode, "GIN_MODE")
	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Scheduler.Spec, "SCHEDULER_SPEC")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.File, "LOG_FILE")
	c.Database.DBConfig = database.NewDBConfigFromEnv().Merge(c.Database.DBConfig)

	if v := os.Getenv("PRICING_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "PRICING_SEED %q", v)
		}
		c.Pricing.Seed = seed
	}
	if v := os.Getenv("SCHEDULER_RUN_ON_START"); v != "" {
		runOnStart, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "SCHEDULER_RUN_ON_START %q", v)
		}
		c.Scheduler.RunOnStart = runOnStart
	}
	if v := os.Getenv("SCHEDULER_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "SCHEDULER_ENABLED %q", v)
		}
		c.Scheduler.Enabled = enabled
	}
	return nil
}

func (c *Config) Validate() error {
	c.Database.Driver = strings.ToLower(c.Database.Driver)
	switch c.Database.Driver {
	case DriverMemory:
	case DriverPostgres:
		if !c.Database.Complete() {
			return errors.New("database: user, host, port and name are required for the postgres driver")
		}
	default:
		return errors.Errorf("database: unknown driver %q", c.Database.Driver)
	}
	if c.Server.Port == "" {
		return errors.New("server: port is required")
	}
	if c.Server.RateLimitRPS < 0 {
		return errors.Errorf("server: rate_limit_rps must not be negative, got %v", c.Server.RateLimitRPS)
	}
	if c.Server.RateLimitRPS > 0 && c.Server.RateLimitBurst <= 0 {
		return errors.Errorf("server: rate_limit_burst must be positive, got %d", c.Server.RateLimitBurst)
	}
	if c.Pricing.Workers <= 0 {
		return errors.Errorf("pricing: workers must be positive, got %d", c.Pricing.Workers)
	}
	if c.Pricing.SeedDays <= 0 {
		return errors.Errorf("pricing: seed_days must be positive, got %d", c.Pricing.SeedDays)
	}
	if c.Scheduler.Enabled {
		if c.Scheduler.Spec == "" && c.Scheduler.IntervalSeconds <= 0 {
			return errors.New("scheduler: spec or a positive interval_seconds is required")
		}
		if _, err := cron.ParseStandard(c.Scheduler.CronSpec()); err != nil {
			return errors.Wrapf(err, "scheduler: invalid spec %q", c.Scheduler.CronSpec())
		}
	}
	return nil
}
