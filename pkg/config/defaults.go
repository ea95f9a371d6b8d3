package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "voicebook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort        = "8080"
	DefaultLogLevel    = "info"
	DefaultEnvironment = EnvironmentProduction

	DefaultAuthCacheCap = 10000
	DefaultAuthCacheTTL = 5 * time.Minute

	DefaultSlotLockTTL = 10 * time.Second

	DefaultNotifyWorkers      = 5
	DefaultNotifyRatePerSec   = 10
	DefaultNotifyMaxAttempts  = 5
	DefaultNotifyBackoffBase  = 1 * time.Second
	DefaultNotifyPollInterval = 500 * time.Millisecond

	DefaultRateLimitRequests = 10
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultDefaultSlotMin     = 30
	DefaultDefaultStartOfDay  = "09:00"
	DefaultDefaultEndOfDay    = "18:00"
	DefaultBookingHorizonDays = 90

	DefaultPaginationLimit = 100
)
