package config

const (
	EnvConfigFile = "CONFIG_FILE"

	EnvStoreBackend = "STORE_BACKEND"

	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"
	EnvMongoQueryTimeout = "MONGO_QUERY_TIMEOUT"

	EnvPort      = "PORT"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"

	EnvJWTSecret = "JWT_SECRET"
	EnvJWTIssuer = "JWT_ISSUER"

	EnvConfirmationTTL       = "CONFIRMATION_TTL"
	EnvPublicBaseURL         = "PUBLIC_BASE_URL"
	EnvNotifyTimeout         = "NOTIFY_TIMEOUT"
	EnvDefaultDayStart       = "DEFAULT_DAY_START"
	EnvDefaultDayEnd         = "DEFAULT_DAY_END"
	EnvMaxAssignmentSpanDays = "MAX_ASSIGNMENT_SPAN_DAYS"

	EnvRateLimitBackend          = "RATE_LIMIT_BACKEND"
	EnvRateLimitWindow           = "RATE_LIMIT_WINDOW"
	EnvRespondRateLimit          = "RESPOND_RATE_LIMIT"
	EnvLookupRateLimit           = "LOOKUP_RATE_LIMIT"
	EnvOperatorRateLimit         = "OPERATOR_RATE_LIMIT"
	EnvRateLimitCapacity         = "RATE_LIMIT_CAPACITY"
	EnvRateLimitCleanupThreshold = "RATE_LIMIT_CLEANUP_THRESHOLD"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"

	EnvNotifierBackend     = "NOTIFIER_BACKEND"
	EnvKafkaBrokers        = "KAFKA_BROKERS"
	EnvKafkaEmailTopic     = "KAFKA_EMAIL_TOPIC"
	EnvKafkaDLQTopic       = "KAFKA_EMAIL_DLQ_TOPIC"
	EnvKafkaMaxAttempts    = "KAFKA_PRODUCER_MAX_ATTEMPTS"
	EnvKafkaBatchTimeout   = "KAFKA_PRODUCER_BATCH_TIMEOUT"
	EnvKafkaRequireAcks    = "KAFKA_PRODUCER_REQUIRE_ACKS"
	EnvKafkaCompression    = "KAFKA_PRODUCER_COMPRESSION"
	EnvKafkaPublishRetries = "KAFKA_PUBLISH_RETRIES"
	EnvMailFromName        = "MAIL_FROM_NAME"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)
