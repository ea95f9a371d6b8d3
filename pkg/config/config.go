package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"
	"voicebook/pkg/client"
	"voicebook/pkg/logger"
)

const (
	EnvironmentProduction  = "production"
	EnvironmentDevelopment = "development"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port        string
	Environment string

	JWTSecret    string
	AuthCacheCap int
	AuthCacheTTL time.Duration

	SlotLockTTL time.Duration

	VoiceWebhookSecret string
	ConfirmationKey    string

	SMSProviderURL   string
	SMSProviderToken string

	NotifyWorkers      int
	NotifyRatePerSec   int
	NotifyMaxAttempts  int
	NotifyBackoffBase  time.Duration
	NotifyPollInterval time.Duration

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	DefaultSlotMin     int
	DefaultStartOfDay  string
	DefaultEndOfDay    string
	BookingHorizonDays int

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port:        getEnvStr(EnvPort, DefaultPort),
		Environment: getEnvStr(EnvEnvironment, DefaultEnvironment),

		JWTSecret:    getEnvStr(EnvJWTSecret, ""),
		AuthCacheCap: getEnvNum(EnvAuthCacheCap, DefaultAuthCacheCap),
		AuthCacheTTL: getEnvDuration(EnvAuthCacheTTL, DefaultAuthCacheTTL),

		SlotLockTTL: getEnvDuration(EnvSlotLockTTL, DefaultSlotLockTTL),

		VoiceWebhookSecret: getEnvStr(EnvVoiceWebhookSecret, ""),
		ConfirmationKey:    getEnvStr(EnvConfirmationKey, ""),

		SMSProviderURL:   getEnvStr(EnvSMSProviderURL, ""),
		SMSProviderToken: getEnvStr(EnvSMSProviderToken, ""),

		NotifyWorkers:      getEnvNum(EnvNotifyWorkers, DefaultNotifyWorkers),
		NotifyRatePerSec:   getEnvNum(EnvNotifyRatePerSec, DefaultNotifyRatePerSec),
		NotifyMaxAttempts:  getEnvNum(EnvNotifyMaxAttempts, DefaultNotifyMaxAttempts),
		NotifyBackoffBase:  getEnvDuration(EnvNotifyBackoffBase, DefaultNotifyBackoffBase),
		NotifyPollInterval: getEnvDuration(EnvNotifyPollInterval, DefaultNotifyPollInterval),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		DefaultSlotMin:     getEnvNum(EnvDefaultSlotMin, DefaultDefaultSlotMin),
		DefaultStartOfDay:  getEnvStr(EnvDefaultStartOfDay, DefaultDefaultStartOfDay),
		DefaultEndOfDay:    getEnvStr(EnvDefaultEndOfDay, DefaultDefaultEndOfDay),
		BookingHorizonDays: getEnvNum(EnvBookingHorizonDays, DefaultBookingHorizonDays),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) IsDevelopment() bool {
	return cfg.Environment == EnvironmentDevelopment
}

func (cfg *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.Environment != EnvironmentProduction && cfg.Environment != EnvironmentDevelopment {
		errs = append(errs, fmt.Sprintf("Environment must be %q or %q, got: %s", EnvironmentProduction, EnvironmentDevelopment, cfg.Environment))
	}

	if cfg.JWTSecret == "" && !cfg.IsDevelopment() {
		errs = append(errs, "JWTSecret is required outside development")
	}

	if cfg.MongoURI == "" {
		errs = append(errs, "MongoURI cannot be empty")
	} else if !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errs = append(errs, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", cfg.MongoURI))
	}
	if cfg.MongoDatabaseName == "" {
		errs = append(errs, "MongoDatabaseName cannot be empty")
	}
	if cfg.MongoConnTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}

	if cfg.AuthCacheCap <= 0 {
		errs = append(errs, fmt.Sprintf("AuthCacheCap must be positive, got: %d", cfg.AuthCacheCap))
	}
	if cfg.AuthCacheTTL <= 0 {
		errs = append(errs, fmt.Sprintf("AuthCacheTTL must be positive, got: %s", cfg.AuthCacheTTL))
	}

	if cfg.SlotLockTTL <= 0 {
		errs = append(errs, fmt.Sprintf("SlotLockTTL must be positive, got: %s", cfg.SlotLockTTL))
	}

	if cfg.NotifyWorkers <= 0 {
		errs = append(errs, fmt.Sprintf("NotifyWorkers must be positive, got: %d", cfg.NotifyWorkers))
	}
	if cfg.NotifyRatePerSec <= 0 {
		errs = append(errs, fmt.Sprintf("NotifyRatePerSec must be positive, got: %d", cfg.NotifyRatePerSec))
	}
	if cfg.NotifyMaxAttempts <= 0 {
		errs = append(errs, fmt.Sprintf("NotifyMaxAttempts must be positive, got: %d", cfg.NotifyMaxAttempts))
	}
	if cfg.NotifyBackoffBase <= 0 {
		errs = append(errs, fmt.Sprintf("NotifyBackoffBase must be positive, got: %s", cfg.NotifyBackoffBase))
	}
	if cfg.NotifyPollInterval <= 0 {
		errs = append(errs, fmt.Sprintf("NotifyPollInterval must be positive, got: %s", cfg.NotifyPollInterval))
	}

	if cfg.RateLimitRequests <= 0 {
		errs = append(errs, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.RateLimitWindow <= 0 {
		errs = append(errs, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errs = append(errs, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.MaxRequestSize <= 0 {
		errs = append(errs, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.ReadTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	timeRegex := regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
	if !timeRegex.MatchString(cfg.DefaultStartOfDay) {
		errs = append(errs, fmt.Sprintf("DefaultStartOfDay must be in HH:MM format, got: %s", cfg.DefaultStartOfDay))
	}
	if !timeRegex.MatchString(cfg.DefaultEndOfDay) {
		errs = append(errs, fmt.Sprintf("DefaultEndOfDay must be in HH:MM format, got: %s", cfg.DefaultEndOfDay))
	}
	if cfg.DefaultSlotMin <= 0 {
		errs = append(errs, fmt.Sprintf("DefaultSlotMin must be positive, got: %d", cfg.DefaultSlotMin))
	}
	if cfg.BookingHorizonDays <= 0 {
		errs = append(errs, fmt.Sprintf("BookingHorizonDays must be positive, got: %d", cfg.BookingHorizonDays))
	}

	if len(errs) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, e := range errs {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, e)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"environment", cfg.Environment,
		"jwt_secret_set", cfg.JWTSecret != "",
		"auth_cache_cap", cfg.AuthCacheCap,
		"auth_cache_ttl", cfg.AuthCacheTTL,
		"slot_lock_ttl", cfg.SlotLockTTL,
		"voice_webhook_secret_set", cfg.VoiceWebhookSecret != "",
		"sms_provider_set", cfg.SMSProviderURL != "",
		"notify_workers", cfg.NotifyWorkers,
		"notify_rate_per_sec", cfg.NotifyRatePerSec,
		"notify_max_attempts", cfg.NotifyMaxAttempts,
		"notify_backoff_base", cfg.NotifyBackoffBase,
		"notify_poll_interval", cfg.NotifyPollInterval,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"default_slot_min", cfg.DefaultSlotMin,
		"default_start_of_day", cfg.DefaultStartOfDay,
		"default_end_of_day", cfg.DefaultEndOfDay,
		"booking_horizon_days", cfg.BookingHorizonDays,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown()
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
