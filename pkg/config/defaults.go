package config

import "time"

const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendKafka  = "kafka"
	BackendLog    = "log"
)

const (
	DefaultStoreBackend = BackendMongo

	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "fieldsched"
	DefaultMongoConnTimeout  = 10 * time.Second
	DefaultMongoQueryTimeout = 5 * time.Second

	DefaultPort      = "8080"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultJWTIssuer = "fieldsched"

	DefaultConfirmationTTL       = 7 * 24 * time.Hour
	DefaultPublicBaseURL         = "http://localhost:8080"
	DefaultNotifyTimeout         = 10 * time.Second
	DefaultDayStart              = "08:00"
	DefaultDayEnd                = "17:00"
	DefaultMaxAssignmentSpanDays = 366

	DefaultRateLimitBackend          = BackendMemory
	DefaultRateLimitWindow           = 1 * time.Minute
	DefaultRespondRateLimit          = 5
	DefaultLookupRateLimit           = 30
	DefaultOperatorRateLimit         = 300
	DefaultRateLimitCapacity         = 10000
	DefaultRateLimitCleanupThreshold = 1000

	DefaultRedisAddr = "localhost:6379"

	DefaultNotifierBackend     = BackendKafka
	DefaultKafkaBrokers        = "localhost:9092"
	DefaultKafkaEmailTopic     = "notifications.email"
	DefaultKafkaDLQTopic       = "notifications.email.dlq"
	DefaultKafkaMaxAttempts    = 3
	DefaultKafkaBatchTimeout   = 10 * time.Millisecond
	DefaultKafkaRequireAcks    = -1
	DefaultKafkaCompression    = "snappy"
	DefaultKafkaPublishRetries = 2
	DefaultMailFromName        = "Field Scheduling"

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
)
