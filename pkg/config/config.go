package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"fieldsched/pkg/client"
	"fieldsched/pkg/kafka"
	"fieldsched/pkg/logger"
)

type Config struct {
	StoreBackend string `yaml:"store_backend"`

	MongoURI          string        `yaml:"mongo_uri"`
	MongoDatabaseName string        `yaml:"mongo_database_name"`
	MongoConnTimeout  time.Duration `yaml:"mongo_conn_timeout"`
	MongoQueryTimeout time.Duration `yaml:"mongo_query_timeout"`

	Port      string `yaml:"port"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	JWTSecret string `yaml:"jwt_secret"`
	JWTIssuer string `yaml:"jwt_issuer"`

	ConfirmationTTL       time.Duration `yaml:"confirmation_ttl"`
	PublicBaseURL         string        `yaml:"public_base_url"`
	NotifyTimeout         time.Duration `yaml:"notify_timeout"`
	DefaultDayStart       string        `yaml:"default_day_start"`
	DefaultDayEnd         string        `yaml:"default_day_end"`
	MaxAssignmentSpanDays int           `yaml:"max_assignment_span_days"`

	RateLimitBackend          string        `yaml:"rate_limit_backend"`
	RateLimitWindow           time.Duration `yaml:"rate_limit_window"`
	RespondRateLimit          int           `yaml:"respond_rate_limit"`
	LookupRateLimit           int           `yaml:"lookup_rate_limit"`
	OperatorRateLimit         int           `yaml:"operator_rate_limit"`
	RateLimitCapacity         int           `yaml:"rate_limit_capacity"`
	RateLimitCleanupThreshold int           `yaml:"rate_limit_cleanup_threshold"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	NotifierBackend     string        `yaml:"notifier_backend"`
	KafkaBrokers        []string      `yaml:"kafka_brokers"`
	KafkaEmailTopic     string        `yaml:"kafka_email_topic"`
	KafkaDLQTopic       string        `yaml:"kafka_email_dlq_topic"`
	KafkaMaxAttempts    int           `yaml:"kafka_max_attempts"`
	KafkaBatchTimeout   time.Duration `yaml:"kafka_batch_timeout"`
	KafkaRequireAcks    int           `yaml:"kafka_require_acks"`
	KafkaCompression    string        `yaml:"kafka_compression"`
	KafkaPublishRetries int           `yaml:"kafka_publish_retries"`
	MailFromName        string        `yaml:"mail_from_name"`

	RequestTimeout time.Duration `yaml:"request_timeout"`
	IdempotencyTTL time.Duration `yaml:"idempotency_ttl"`
	MaxRequestSize int           `yaml:"max_request_size"`

	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	ServiceName string         `yaml:"-"`
	Log         *logger.Logger `yaml:"-"`
	Client      *client.Client `yaml:"-"`
}

// Load reads the configuration from the environment and the optional
// CONFIG_FILE overlay. Invalid configuration is fatal.
func Load(serviceName string) *Config {
	cfg, err := FromEnv(serviceName)

	cfg.Log = logger.New(logger.Config{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		AddSource: true,
		Service:   serviceName,
	})
	if err != nil {
		cfg.Log.Fatal("Failed to load configuration", "error", err)
	}
	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// FromEnv builds the configuration without validating it. The returned
// config is never nil; on error it holds whatever was read before the failure.
func FromEnv(serviceName string) (*Config, error) {
	cfg := &Config{
		StoreBackend: getEnvStr(EnvStoreBackend, DefaultStoreBackend),

		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),
		MongoQueryTimeout: getEnvDuration(EnvMongoQueryTimeout, DefaultMongoQueryTimeout),

		Port:      getEnvStr(EnvPort, DefaultPort),
		LogLevel:  getEnvStr(EnvLogLevel, DefaultLogLevel),
		LogFormat: getEnvStr(EnvLogFormat, DefaultLogFormat),

		JWTSecret: getEnvStr(EnvJWTSecret, ""),
		JWTIssuer: getEnvStr(EnvJWTIssuer, DefaultJWTIssuer),

		ConfirmationTTL:       getEnvDuration(EnvConfirmationTTL, DefaultConfirmationTTL),
		PublicBaseURL:         getEnvStr(EnvPublicBaseURL, DefaultPublicBaseURL),
		NotifyTimeout:         getEnvDuration(EnvNotifyTimeout, DefaultNotifyTimeout),
		DefaultDayStart:       getEnvStr(EnvDefaultDayStart, DefaultDayStart),
		DefaultDayEnd:         getEnvStr(EnvDefaultDayEnd, DefaultDayEnd),
		MaxAssignmentSpanDays: getEnvNum(EnvMaxAssignmentSpanDays, DefaultMaxAssignmentSpanDays),

		RateLimitBackend:          getEnvStr(EnvRateLimitBackend, DefaultRateLimitBackend),
		RateLimitWindow:           getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),
		RespondRateLimit:          getEnvNum(EnvRespondRateLimit, DefaultRespondRateLimit),
		LookupRateLimit:           getEnvNum(EnvLookupRateLimit, DefaultLookupRateLimit),
		OperatorRateLimit:         getEnvNum(EnvOperatorRateLimit, DefaultOperatorRateLimit),
		RateLimitCapacity:         getEnvNum(EnvRateLimitCapacity, DefaultRateLimitCapacity),
		RateLimitCleanupThreshold: getEnvNum(EnvRateLimitCleanupThreshold, DefaultRateLimitCleanupThreshold),

		RedisAddr:     getEnvStr(EnvRedisAddr, DefaultRedisAddr),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),
		RedisDB:       getEnvNum(EnvRedisDB, 0),

		NotifierBackend:     getEnvStr(EnvNotifierBackend, DefaultNotifierBackend),
		KafkaBrokers:        getEnvList(EnvKafkaBrokers, DefaultKafkaBrokers),
		KafkaEmailTopic:     getEnvStr(EnvKafkaEmailTopic, DefaultKafkaEmailTopic),
		KafkaDLQTopic:       getEnvStr(EnvKafkaDLQTopic, DefaultKafkaDLQTopic),
		KafkaMaxAttempts:    getEnvNum(EnvKafkaMaxAttempts, DefaultKafkaMaxAttempts),
		KafkaBatchTimeout:   getEnvDuration(EnvKafkaBatchTimeout, DefaultKafkaBatchTimeout),
		KafkaRequireAcks:    getEnvNum(EnvKafkaRequireAcks, DefaultKafkaRequireAcks),
		KafkaCompression:    getEnvStr(EnvKafkaCompression, DefaultKafkaCompression),
		KafkaPublishRetries: getEnvNum(EnvKafkaPublishRetries, DefaultKafkaPublishRetries),
		MailFromName:        getEnvStr(EnvMailFromName, DefaultMailFromName),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		ServiceName: serviceName,
		Client:      client.NewClient(),
	}

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// overlayFile decodes a YAML file on top of the current values. Keys absent
// from the file keep their environment or default value.
func (cfg *Config) overlayFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}
	return nil
}

var clockRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	switch cfg.StoreBackend {
	case BackendMongo:
		if cfg.MongoURI == "" {
			errors = append(errors, "MongoURI cannot be empty")
		} else if !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
			errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
		}
		if cfg.MongoDatabaseName == "" {
			errors = append(errors, "MongoDatabaseName cannot be empty")
		}
	case BackendMemory:
	default:
		errors = append(errors, fmt.Sprintf("StoreBackend must be one of [mongo, memory], got: %s", cfg.StoreBackend))
	}

	if len(cfg.JWTSecret) < 16 {
		errors = append(errors, "JWTSecret must be set and at least 16 characters long")
	}

	if !clockRegex.MatchString(cfg.DefaultDayStart) {
		errors = append(errors, fmt.Sprintf("DefaultDayStart must be in HH:MM format (00:00-23:59), got: %s", cfg.DefaultDayStart))
	}
	if !clockRegex.MatchString(cfg.DefaultDayEnd) {
		errors = append(errors, fmt.Sprintf("DefaultDayEnd must be in HH:MM format (00:00-23:59), got: %s", cfg.DefaultDayEnd))
	}
	if cfg.DefaultDayStart >= cfg.DefaultDayEnd {
		errors = append(errors, fmt.Sprintf("DefaultDayEnd (%s) must be after DefaultDayStart (%s)", cfg.DefaultDayEnd, cfg.DefaultDayStart))
	}
	if cfg.MaxAssignmentSpanDays <= 0 {
		errors = append(errors, fmt.Sprintf("MaxAssignmentSpanDays must be positive, got: %d", cfg.MaxAssignmentSpanDays))
	}

	if u, err := url.Parse(cfg.PublicBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errors = append(errors, fmt.Sprintf("PublicBaseURL must be an absolute URL, got: %s", cfg.PublicBaseURL))
	}

	switch cfg.RateLimitBackend {
	case BackendMemory:
	case BackendRedis:
		if cfg.RedisAddr == "" {
			errors = append(errors, "RedisAddr cannot be empty when RateLimitBackend is redis")
		}
	default:
		errors = append(errors, fmt.Sprintf("RateLimitBackend must be one of [memory, redis], got: %s", cfg.RateLimitBackend))
	}
	if cfg.RespondRateLimit <= 0 {
		errors = append(errors, fmt.Sprintf("RespondRateLimit must be positive, got: %d", cfg.RespondRateLimit))
	}
	if cfg.LookupRateLimit <= 0 {
		errors = append(errors, fmt.Sprintf("LookupRateLimit must be positive, got: %d", cfg.LookupRateLimit))
	}
	if cfg.OperatorRateLimit < 0 {
		errors = append(errors, fmt.Sprintf("OperatorRateLimit cannot be negative, got: %d", cfg.OperatorRateLimit))
	}
	if cfg.RateLimitCapacity <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitCapacity must be positive, got: %d", cfg.RateLimitCapacity))
	}
	if cfg.RateLimitCleanupThreshold <= 0 || cfg.RateLimitCleanupThreshold > cfg.RateLimitCapacity {
		errors = append(errors, fmt.Sprintf("RateLimitCleanupThreshold must be between 1 and RateLimitCapacity (%d), got: %d", cfg.RateLimitCapacity, cfg.RateLimitCleanupThreshold))
	}

	switch cfg.NotifierBackend {
	case BackendLog:
	case BackendKafka:
		if len(cfg.KafkaBrokers) == 0 {
			errors = append(errors, "At least one Kafka broker is required")
		}
		for i, broker := range cfg.KafkaBrokers {
			if broker == "" {
				errors = append(errors, fmt.Sprintf("Broker %d cannot be empty", i))
			}
		}
		if cfg.KafkaEmailTopic == "" {
			errors = append(errors, "KafkaEmailTopic cannot be empty")
		}
		if cfg.KafkaMaxAttempts <= 0 {
			errors = append(errors, fmt.Sprintf("KafkaMaxAttempts must be positive, got: %d", cfg.KafkaMaxAttempts))
		}
		validAcks := map[int]bool{-1: true, 0: true, 1: true}
		if !validAcks[cfg.KafkaRequireAcks] {
			errors = append(errors, fmt.Sprintf("KafkaRequireAcks must be -1, 0, or 1, got: %d", cfg.KafkaRequireAcks))
		}
		validCompressions := map[string]bool{"none": true, "gzip": true, "snappy": true, "lz4": true, "zstd": true}
		if !validCompressions[cfg.KafkaCompression] {
			errors = append(errors, fmt.Sprintf("KafkaCompression must be one of [none, gzip, snappy, lz4, zstd], got: %s", cfg.KafkaCompression))
		}
	default:
		errors = append(errors, fmt.Sprintf("NotifierBackend must be one of [kafka, log], got: %s", cfg.NotifierBackend))
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"MongoConnTimeout", cfg.MongoConnTimeout},
		{"MongoQueryTimeout", cfg.MongoQueryTimeout},
		{"ConfirmationTTL", cfg.ConfirmationTTL},
		{"NotifyTimeout", cfg.NotifyTimeout},
		{"RateLimitWindow", cfg.RateLimitWindow},
		{"RequestTimeout", cfg.RequestTimeout},
		{"IdempotencyTTL", cfg.IdempotencyTTL},
		{"ReadTimeout", cfg.ReadTimeout},
		{"WriteTimeout", cfg.WriteTimeout},
		{"IdleTimeout", cfg.IdleTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
	}
	for _, d := range durations {
		if d.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", d.name, d.value))
		}
	}

	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"store_backend", cfg.StoreBackend,
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"mongo_query_timeout", cfg.MongoQueryTimeout,
		"port", cfg.Port,
		"jwt_secret_set", cfg.JWTSecret != "",
		"jwt_issuer", cfg.JWTIssuer,
		"confirmation_ttl", cfg.ConfirmationTTL,
		"public_base_url", cfg.PublicBaseURL,
		"notify_timeout", cfg.NotifyTimeout,
		"default_day_start", cfg.DefaultDayStart,
		"default_day_end", cfg.DefaultDayEnd,
		"max_assignment_span_days", cfg.MaxAssignmentSpanDays,
		"rate_limit_backend", cfg.RateLimitBackend,
		"rate_limit_window", cfg.RateLimitWindow,
		"respond_rate_limit", cfg.RespondRateLimit,
		"lookup_rate_limit", cfg.LookupRateLimit,
		"operator_rate_limit", cfg.OperatorRateLimit,
		"rate_limit_capacity", cfg.RateLimitCapacity,
		"rate_limit_cleanup_threshold", cfg.RateLimitCleanupThreshold,
		"redis_addr", cfg.RedisAddr,
		"redis_password_set", cfg.RedisPassword != "",
		"notifier_backend", cfg.NotifierBackend,
		"kafka_brokers", cfg.KafkaBrokers,
		"kafka_email_topic", cfg.KafkaEmailTopic,
		"kafka_email_dlq_topic", cfg.KafkaDLQTopic,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
	)
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetRedis() {
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.MongoConnTimeout)
}

func (cfg *Config) SetEmailProducer() {
	producer, err := kafka.NewProducer(cfg.ProducerConfig(), cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	cfg.Client.SetEmailProducer(producer)
}

func (cfg *Config) ProducerConfig() kafka.ProducerConfig {
	return kafka.ProducerConfig{
		Brokers:      cfg.KafkaBrokers,
		Topic:        cfg.KafkaEmailTopic,
		DLQTopic:     cfg.KafkaDLQTopic,
		MaxAttempts:  cfg.KafkaMaxAttempts,
		BatchTimeout: cfg.KafkaBatchTimeout,
		RequireAcks:  cfg.KafkaRequireAcks,
		Compression:  cfg.KafkaCompression,
	}
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
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

func getEnvList(key, fallback string) []string {
	raw := getEnvStr(key, fallback)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}
