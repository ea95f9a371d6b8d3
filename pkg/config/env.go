package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort        = "PORT"
	EnvLogLevel    = "LOG_LEVEL"
	EnvEnvironment = "ENVIRONMENT"

	EnvJWTSecret    = "JWT_SECRET"
	EnvAuthCacheCap = "AUTH_CACHE_CAP"
	EnvAuthCacheTTL = "AUTH_CACHE_TTL"

	EnvSlotLockTTL = "SLOT_LOCK_TTL"

	EnvVoiceWebhookSecret = "VOICE_WEBHOOK_SECRET"
	EnvConfirmationKey    = "CONFIRMATION_KEY"

	EnvSMSProviderURL   = "SMS_PROVIDER_URL"
	EnvSMSProviderToken = "SMS_PROVIDER_TOKEN"

	EnvNotifyWorkers      = "NOTIFY_WORKERS"
	EnvNotifyRatePerSec   = "NOTIFY_RATE_PER_SEC"
	EnvNotifyMaxAttempts  = "NOTIFY_MAX_ATTEMPTS"
	EnvNotifyBackoffBase  = "NOTIFY_BACKOFF_BASE"
	EnvNotifyPollInterval = "NOTIFY_POLL_INTERVAL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvDefaultSlotMin     = "DEFAULT_SLOT_MIN"
	EnvDefaultStartOfDay  = "DEFAULT_START_OF_DAY"
	EnvDefaultEndOfDay    = "DEFAULT_END_OF_DAY"
	EnvBookingHorizonDays = "BOOKING_HORIZON_DAYS"
)
