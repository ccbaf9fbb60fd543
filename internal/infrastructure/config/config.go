package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/commerce/fulfillment/internal/domain/shipping"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Carrier   CarrierConfig
	Storage   StorageConfig
	Shipping  ShippingConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-specific settings.
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	TrustedProxies []string
}

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
}

// DSN returns the Postgres connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// RedisConfig holds Redis connection settings for the quote cache.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CarrierConfig holds carrier provider API settings.
type CarrierConfig struct {
	APIKey         string
	BaseURL        string
	TimeoutSeconds int
}

// Validate checks that the carrier provider can be called.
func (c CarrierConfig) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("carrier.api_key is required")
	}
	return nil
}

// StorageConfig holds S3-compatible object storage settings for the
// durable label mirror. Disabled entirely when the bucket is empty.
type StorageConfig struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// Enabled reports whether label archiving is configured.
func (c StorageConfig) Enabled() bool {
	return c.Bucket != ""
}

// TelemetryConfig holds OpenTelemetry settings. One switch gates
// traces, logs and metrics; they share the collector endpoint.
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	DBTraceEnabled    bool
}

// ShippingConfig holds the engine's tunables: origin address, package
// planning thresholds, quote cache TTL and rate selection defaults.
// These are resolved once at startup and injected as constants.
type ShippingConfig struct {
	OriginName       string
	OriginPhone      string
	OriginLine1      string
	OriginLine2      string
	OriginCity       string
	OriginState      string
	OriginPostalCode string
	OriginCountry    string

	DefaultWeight           float64 // pounds
	DefaultBoxLength        float64 // inches
	DefaultBoxWidth         float64
	DefaultBoxHeight        float64
	HighWeightThreshold     float64
	BulkDimensionThreshold  float64
	CombinedWeightThreshold float64

	QuoteTTL time.Duration // <= 0 means quotes never expire

	MaxTransitDays      int
	PreferredCarrier    string
	ConfidenceThreshold int
}

// OriginAddress assembles the configured origin into a domain address.
func (c ShippingConfig) OriginAddress() shipping.Address {
	return shipping.Address{
		Name:       c.OriginName,
		Phone:      c.OriginPhone,
		Line1:      c.OriginLine1,
		Line2:      c.OriginLine2,
		City:       c.OriginCity,
		State:      c.OriginState,
		PostalCode: c.OriginPostalCode,
		Country:    c.OriginCountry,
	}.Normalize()
}

// PlannerConfig assembles the configured thresholds for the planner.
func (c ShippingConfig) PlannerConfig() shipping.PlannerConfig {
	return shipping.PlannerConfig{
		DefaultWeight: c.DefaultWeight,
		DefaultBox: shipping.Dimensions{
			Length: c.DefaultBoxLength,
			Width:  c.DefaultBoxWidth,
			Height: c.DefaultBoxHeight,
		},
		HighWeightThreshold:     c.HighWeightThreshold,
		BulkDimensionThreshold:  c.BulkDimensionThreshold,
		CombinedWeightThreshold: c.CombinedWeightThreshold,
	}
}

// SelectionOptions assembles the configured rate selection defaults.
func (c ShippingConfig) SelectionOptions() shipping.SelectionOptions {
	return shipping.SelectionOptions{
		MaxTransitDays:      c.MaxTransitDays,
		PreferredCarrier:    c.PreferredCarrier,
		ConfidenceThreshold: c.ConfidenceThreshold,
	}
}

// Load loads configuration from a TOML file and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with FULFILLMENT_ prefix
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine; defaults and env vars apply.
	}

	v.SetEnvPrefix("FULFILLMENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaulted through viper rather than applyDefaults so that an
	// explicit zero (accept any confidence) survives loading.
	v.SetDefault("shipping.confidence_threshold", 75)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Carrier: CarrierConfig{
			APIKey:         v.GetString("carrier.api_key"),
			BaseURL:        v.GetString("carrier.base_url"),
			TimeoutSeconds: v.GetInt("carrier.timeout_seconds"),
		},
		Storage: StorageConfig{
			Endpoint:  v.GetString("storage.endpoint"),
			Region:    v.GetString("storage.region"),
			Bucket:    v.GetString("storage.bucket"),
			AccessKey: v.GetString("storage.access_key"),
			SecretKey: v.GetString("storage.secret_key"),
			UseSSL:    v.GetBool("storage.use_ssl"),
		},
		Shipping: ShippingConfig{
			OriginName:       v.GetString("shipping.origin_name"),
			OriginPhone:      v.GetString("shipping.origin_phone"),
			OriginLine1:      v.GetString("shipping.origin_line1"),
			OriginLine2:      v.GetString("shipping.origin_line2"),
			OriginCity:       v.GetString("shipping.origin_city"),
			OriginState:      v.GetString("shipping.origin_state"),
			OriginPostalCode: v.GetString("shipping.origin_postal_code"),
			OriginCountry:    v.GetString("shipping.origin_country"),

			DefaultWeight:           v.GetFloat64("shipping.default_weight"),
			DefaultBoxLength:        v.GetFloat64("shipping.default_box_length"),
			DefaultBoxWidth:         v.GetFloat64("shipping.default_box_width"),
			DefaultBoxHeight:        v.GetFloat64("shipping.default_box_height"),
			HighWeightThreshold:     v.GetFloat64("shipping.high_weight_threshold"),
			BulkDimensionThreshold:  v.GetFloat64("shipping.bulk_dimension_threshold"),
			CombinedWeightThreshold: v.GetFloat64("shipping.combined_weight_threshold"),

			QuoteTTL: v.GetDuration("shipping.quote_ttl"),

			MaxTransitDays:      v.GetInt("shipping.max_transit_days"),
			PreferredCarrier:    v.GetString("shipping.preferred_carrier"),
			ConfidenceThreshold: v.GetInt("shipping.confidence_threshold"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults sets default values for any empty config fields.
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "fulfillment"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "fulfillment"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Carrier.BaseURL == "" {
		cfg.Carrier.BaseURL = "https://api.easypost.com/v2"
	}
	if cfg.Carrier.TimeoutSeconds == 0 {
		cfg.Carrier.TimeoutSeconds = 30
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}

	s := &cfg.Shipping
	if s.OriginCountry == "" {
		s.OriginCountry = shipping.DefaultCountry
	}
	if s.DefaultWeight == 0 {
		s.DefaultWeight = 1
	}
	if s.DefaultBoxLength == 0 {
		s.DefaultBoxLength = 12
	}
	if s.DefaultBoxWidth == 0 {
		s.DefaultBoxWidth = 9
	}
	if s.DefaultBoxHeight == 0 {
		s.DefaultBoxHeight = 6
	}
	if s.HighWeightThreshold == 0 {
		s.HighWeightThreshold = 150
	}
	if s.BulkDimensionThreshold == 0 {
		s.BulkDimensionThreshold = 60
	}
	if s.CombinedWeightThreshold == 0 {
		s.CombinedWeightThreshold = 300
	}
	if s.QuoteTTL == 0 {
		s.QuoteTTL = time.Hour
	}
	if s.MaxTransitDays == 0 {
		s.MaxTransitDays = 5
	}
}

// validate checks cross-field constraints that defaults cannot fix.
func (c *Config) validate() error {
	if c.Shipping.HighWeightThreshold <= 0 {
		return fmt.Errorf("shipping.high_weight_threshold must be positive")
	}
	if c.Shipping.CombinedWeightThreshold < c.Shipping.HighWeightThreshold {
		return fmt.Errorf("shipping.combined_weight_threshold cannot be below shipping.high_weight_threshold")
	}
	if c.Shipping.ConfidenceThreshold < 0 || c.Shipping.ConfidenceThreshold > 100 {
		return fmt.Errorf("shipping.confidence_threshold must be between 0 and 100")
	}
	if r := c.Telemetry.SamplingRatio; r < 0 || r > 1 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0 and 1")
	}
	if env := c.App.Env; env != "development" && env != "staging" && env != "production" {
		return fmt.Errorf("app.env must be development, staging or production, got %q", env)
	}
	return nil
}
