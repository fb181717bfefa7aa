package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all importer configuration
type Config struct {
	App       AppConfig
	Target    TargetConfig
	Endpoints EndpointsConfig
	CSRF      CSRFConfig
	Locale    LocaleConfig
	Bootstrap BootstrapConfig
	DevServer DevServerConfig
	Database  DatabaseConfig
	Log       LogConfig
}

// DatabaseConfig selects where the development backend keeps import jobs
type DatabaseConfig struct {
	Driver       string // memory, sqlite or postgres
	DSN          string
	LogLevel     string // silent, error, warn, info
	MaxOpenConns int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
}

// TargetConfig describes the import backend the client talks to
type TargetConfig struct {
	BaseURL       string
	Timeout       time.Duration // zero means no client-side timeout
	TLSSkipVerify bool
	Headers       map[string]string
}

// EndpointsConfig holds the fixed backend paths
type EndpointsConfig struct {
	UploadPath  string
	ImportPath  string
	HistoryPath string
}

// CSRFConfig names the anti-forgery cookie and the header it is echoed in
type CSRFConfig struct {
	CookieName string
	HeaderName string
}

// LocaleConfig selects display formatting
type LocaleConfig struct {
	Language       string // BCP 47 tag, e.g. pt-BR
	Currency       string // ISO 4217 code, e.g. BRL
	CurrencySymbol string
	Timezone       string // IANA zone
}

// BootstrapConfig controls the in-progress page refresh
type BootstrapConfig struct {
	ReloadDelay time.Duration
	Markers     []string
}

// DevServerConfig configures the local development backend
type DevServerConfig struct {
	Port         string
	StorageDir   string
	PreviewLimit int
	JobDuration  time.Duration
	MaxUploadMB  int64
}

// Load loads configuration from a TOML file and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with IMPORTER_ prefix (e.g., IMPORTER_TARGET_BASE_URL)
// 2. the file at path, or importer.toml in the search paths when path is empty
// 3. Built-in defaults
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("importer")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/importer")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// no file is fine, defaults and env vars apply
	}

	v.SetEnvPrefix("IMPORTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		Target: TargetConfig{
			BaseURL:       v.GetString("target.base_url"),
			Timeout:       v.GetDuration("target.timeout"),
			TLSSkipVerify: v.GetBool("target.tls_skip_verify"),
			Headers:       v.GetStringMapString("target.headers"),
		},
		Endpoints: EndpointsConfig{
			UploadPath:  v.GetString("endpoints.upload_path"),
			ImportPath:  v.GetString("endpoints.import_path"),
			HistoryPath: v.GetString("endpoints.history_path"),
		},
		CSRF: CSRFConfig{
			CookieName: v.GetString("csrf.cookie_name"),
			HeaderName: v.GetString("csrf.header_name"),
		},
		Locale: LocaleConfig{
			Language:       v.GetString("locale.language"),
			Currency:       v.GetString("locale.currency"),
			CurrencySymbol: v.GetString("locale.currency_symbol"),
			Timezone:       v.GetString("locale.timezone"),
		},
		Bootstrap: BootstrapConfig{
			ReloadDelay: v.GetDuration("bootstrap.reload_delay"),
			Markers:     v.GetStringSlice("bootstrap.markers"),
		},
		DevServer: DevServerConfig{
			Port:         v.GetString("devserver.port"),
			StorageDir:   v.GetString("devserver.storage_dir"),
			PreviewLimit: v.GetInt("devserver.preview_limit"),
			JobDuration:  v.GetDuration("devserver.job_duration"),
			MaxUploadMB:  v.GetInt64("devserver.max_upload_mb"),
		},
		Database: DatabaseConfig{
			Driver:       v.GetString("database.driver"),
			DSN:          v.GetString("database.dsn"),
			LogLevel:     v.GetString("database.log_level"),
			MaxOpenConns: v.GetInt("database.max_open_conns"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns the built-in configuration
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "erp-importer"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.Target.BaseURL == "" {
		cfg.Target.BaseURL = "http://localhost:8000"
	}
	if cfg.Endpoints.UploadPath == "" {
		cfg.Endpoints.UploadPath = "/importador/api/upload/"
	}
	if cfg.Endpoints.ImportPath == "" {
		cfg.Endpoints.ImportPath = "/importador/api/import/"
	}
	if cfg.Endpoints.HistoryPath == "" {
		cfg.Endpoints.HistoryPath = "/importador/importacoes/"
	}
	if cfg.CSRF.CookieName == "" {
		cfg.CSRF.CookieName = "csrftoken"
	}
	if cfg.CSRF.HeaderName == "" {
		cfg.CSRF.HeaderName = "X-CSRFToken"
	}
	if cfg.Locale.Language == "" {
		cfg.Locale.Language = "pt-BR"
	}
	if cfg.Locale.Currency == "" {
		cfg.Locale.Currency = "BRL"
	}
	if cfg.Locale.CurrencySymbol == "" {
		cfg.Locale.CurrencySymbol = "R$"
	}
	if cfg.Locale.Timezone == "" {
		cfg.Locale.Timezone = "America/Sao_Paulo"
	}
	if cfg.Bootstrap.ReloadDelay == 0 {
		cfg.Bootstrap.ReloadDelay = 5 * time.Second
	}
	if len(cfg.Bootstrap.Markers) == 0 {
		cfg.Bootstrap.Markers = []string{"status-processing", "progress-bar-animated"}
	}
	if cfg.DevServer.Port == "" {
		cfg.DevServer.Port = "8000"
	}
	if cfg.DevServer.StorageDir == "" {
		cfg.DevServer.StorageDir = "./uploads"
	}
	if cfg.DevServer.PreviewLimit == 0 {
		cfg.DevServer.PreviewLimit = 5
	}
	if cfg.DevServer.JobDuration == 0 {
		cfg.DevServer.JobDuration = 20 * time.Second
	}
	if cfg.DevServer.MaxUploadMB == 0 {
		cfg.DevServer.MaxUploadMB = 10
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "memory"
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stderr"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	u, err := url.Parse(c.Target.BaseURL)
	if err != nil {
		return fmt.Errorf("target.base_url is invalid: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("target.base_url must be an http or https URL, got %q", c.Target.BaseURL)
	}
	if c.Target.Timeout < 0 {
		return fmt.Errorf("target.timeout cannot be negative")
	}

	paths := []struct{ key, value string }{
		{"endpoints.upload_path", c.Endpoints.UploadPath},
		{"endpoints.import_path", c.Endpoints.ImportPath},
		{"endpoints.history_path", c.Endpoints.HistoryPath},
	}
	for _, p := range paths {
		if !strings.HasPrefix(p.value, "/") {
			return fmt.Errorf("%s must start with '/', got %q", p.key, p.value)
		}
	}

	if strings.ContainsAny(c.CSRF.CookieName, "=; ") {
		return fmt.Errorf("csrf.cookie_name %q is not a valid cookie name", c.CSRF.CookieName)
	}
	if c.Bootstrap.ReloadDelay < 0 {
		return fmt.Errorf("bootstrap.reload_delay cannot be negative")
	}
	if c.DevServer.PreviewLimit < 0 {
		return fmt.Errorf("devserver.preview_limit cannot be negative")
	}
	if c.DevServer.MaxUploadMB < 0 {
		return fmt.Errorf("devserver.max_upload_mb cannot be negative")
	}

	switch c.Database.Driver {
	case "memory":
	case "sqlite", "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for driver %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("database.driver must be memory, sqlite or postgres, got %q", c.Database.Driver)
	}

	if c.App.Env == "production" && c.Target.TLSSkipVerify {
		return fmt.Errorf("target.tls_skip_verify cannot be enabled in production")
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
