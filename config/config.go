package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for a sync run
type Config struct {
	Source StoreConfig  `mapstructure:"source"`
	Target StoreConfig  `mapstructure:"target"`
	Sync   SyncConfig   `mapstructure:"sync"`
	Driver DriverConfig `mapstructure:"driver"`
	Report ReportConfig `mapstructure:"report"`
	Log    LogConfig    `mapstructure:"log"`
}

// StoreConfig identifies one store admin panel. User and Pass are the
// operator's admin credentials; they are not needed when attaching to
// an already-authenticated browser over CDP.
type StoreConfig struct {
	URL      string `mapstructure:"url"`
	Label    string `mapstructure:"label"`
	User     string `mapstructure:"user"`
	Pass     string `mapstructure:"pass"`
	APIToken string `mapstructure:"api_token"`
}

// SyncConfig bounds what a run is allowed to do
type SyncConfig struct {
	DryRun           bool          `mapstructure:"dry_run"`
	SyncLimit        int           `mapstructure:"sync_limit"`
	PageLimit        int           `mapstructure:"page_limit"`
	PageSize         int           `mapstructure:"page_size"`
	MutationInterval time.Duration `mapstructure:"mutation_interval"`
	NameFallback     bool          `mapstructure:"name_fallback"`
}

// DriverConfig holds browser session configuration
type DriverConfig struct {
	CDPURL             string        `mapstructure:"cdp_url"`
	Headless           bool          `mapstructure:"headless"`
	NoSandbox          bool          `mapstructure:"no_sandbox"`
	DeepLinkPaging     bool          `mapstructure:"deep_link_paging"`
	NavigationTimeout  time.Duration `mapstructure:"navigation_timeout"`
	FingerprintTimeout time.Duration `mapstructure:"fingerprint_timeout"`
	StepDelay          time.Duration `mapstructure:"step_delay"`
	RetryBudget        int           `mapstructure:"retry_budget"`
}

// ReportConfig locates run artifacts
type ReportConfig struct {
	Dir string `mapstructure:"dir"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/traysync/")

	v.SetEnvPrefix("TRAYSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; env vars and defaults are enough.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values. Every key needs a
// default so viper surfaces env-only values during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("source.url", "")
	v.SetDefault("source.label", "fonte")
	v.SetDefault("source.user", "")
	v.SetDefault("source.pass", "")
	v.SetDefault("source.api_token", "")
	v.SetDefault("target.url", "")
	v.SetDefault("target.label", "destino")
	v.SetDefault("target.user", "")
	v.SetDefault("target.pass", "")
	v.SetDefault("target.api_token", "")

	v.SetDefault("sync.dry_run", true)
	v.SetDefault("sync.sync_limit", 0)
	v.SetDefault("sync.page_limit", 0)
	v.SetDefault("sync.page_size", 25)
	v.SetDefault("sync.mutation_interval", "5s")
	v.SetDefault("sync.name_fallback", true)

	v.SetDefault("driver.cdp_url", "")
	v.SetDefault("driver.headless", true)
	v.SetDefault("driver.no_sandbox", false)
	v.SetDefault("driver.deep_link_paging", false)
	v.SetDefault("driver.navigation_timeout", "25s")
	v.SetDefault("driver.fingerprint_timeout", "15s")
	v.SetDefault("driver.step_delay", "300ms")
	v.SetDefault("driver.retry_budget", 2)

	v.SetDefault("report.dir", "reports")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Source.URL == "" {
		return fmt.Errorf("source store URL is required (set TRAYSYNC_SOURCE_URL)")
	}
	if config.Target.URL == "" {
		return fmt.Errorf("target store URL is required (set TRAYSYNC_TARGET_URL)")
	}
	// Without a CDP attach target the operator must provide credentials
	// for the sessions the launched browsers will use.
	if config.Driver.CDPURL == "" {
		if config.Source.User == "" || config.Source.Pass == "" {
			return fmt.Errorf("source store credentials are required unless TRAYSYNC_DRIVER_CDP_URL is set")
		}
		if config.Target.User == "" || config.Target.Pass == "" {
			return fmt.Errorf("target store credentials are required unless TRAYSYNC_DRIVER_CDP_URL is set")
		}
	}
	if config.Sync.SyncLimit < 0 {
		return fmt.Errorf("sync limit must not be negative, got: %d", config.Sync.SyncLimit)
	}
	if config.Sync.PageLimit < 0 {
		return fmt.Errorf("page limit must not be negative, got: %d", config.Sync.PageLimit)
	}
	if config.Sync.PageSize <= 0 {
		return fmt.Errorf("page size must be positive, got: %d", config.Sync.PageSize)
	}
	if config.Sync.MutationInterval <= 0 {
		return fmt.Errorf("mutation interval must be positive, got: %s", config.Sync.MutationInterval)
	}
	return nil
}
