package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	DataSource struct {
		BaseURL    string        `yaml:"base_url" default:"https://api.coingecko.com/api/v3" validate:"url"`
		APIKey     string        `yaml:"api_key"`
		VsCurrency string        `yaml:"vs_currency" default:"usd"`
		Days       int           `yaml:"days" default:"30" validate:"min=2,max=365"`
		Assets     []string      `yaml:"assets" default:"[\"bitcoin\",\"ethereum\"]" validate:"min=1"`
		BaseAsset  string        `yaml:"base_asset" default:"bitcoin"`
		RetryDelay time.Duration `yaml:"retry_delay" default:"5s"`
	} `yaml:"data_source"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path" default:"data/coinscope.db"`
	} `yaml:"database"`
	Schedule struct {
		CollectCron string `yaml:"collect_cron" default:"0 0 1 * * *"`
		AnalyzeCron string `yaml:"analyze_cron" default:"0 30 1 * * *"`
	} `yaml:"schedule"`
	Output struct {
		Dir        string `yaml:"dir" default:"visualizations"`
		ReportFile string `yaml:"report_file" default:"report.md"`
		ExcelFile  string `yaml:"excel_file" default:"crypto_data.xlsx"`
		Charts     bool   `yaml:"charts" default:"true"`
	} `yaml:"output"`
	Server struct {
		Enabled         bool          `yaml:"enabled" default:"true"`
		Port            int           `yaml:"port" default:"8080" validate:"min=1,max=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool `yaml:"enabled" default:"true"`
	} `yaml:"metrics"`
	Proxy string `yaml:"proxy"`
}

// Load fills defaults, overlays the YAML file and environment variable
// overrides, and validates the result. A missing file is not an error;
// defaults plus environment are enough to run. Defaults go first so a
// false in the file can override a true default.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("COINGECKO_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("COINGECKO_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("COINSCOPE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
}

// Validate checks struct tags plus the cross-field rules the tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return err
	}
	found := false
	for _, a := range c.DataSource.Assets {
		if a == c.DataSource.BaseAsset {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("data_source.base_asset %q must be one of data_source.assets", c.DataSource.BaseAsset)
	}
	return nil
}
