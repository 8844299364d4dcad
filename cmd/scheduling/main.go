package main

import (
	"context"
	"time"

	assignmentshandler "fieldsched/internal/assignments/handler"
	assignmentsrepo "fieldsched/internal/assignments/repository"
	assignmentsservice "fieldsched/internal/assignments/service"
	confirmationshandler "fieldsched/internal/confirmations/handler"
	confirmationsrepo "fieldsched/internal/confirmations/repository"
	confirmationsservice "fieldsched/internal/confirmations/service"
	conflictshandler "fieldsched/internal/conflicts/handler"
	conflictsrepo "fieldsched/internal/conflicts/repository"
	conflictsservice "fieldsched/internal/conflicts/service"
	healthhandler "fieldsched/internal/health/handler"
	"fieldsched/internal/memstore"
	projectshandler "fieldsched/internal/projects/handler"
	projectsrepo "fieldsched/internal/projects/repository"
	projectsservice "fieldsched/internal/projects/service"
	statushandler "fieldsched/internal/status/handler"
	statusservice "fieldsched/internal/status/service"
	"fieldsched/pkg/app"
	"fieldsched/pkg/auth"
	"fieldsched/pkg/config"
	"fieldsched/pkg/contracts"
	mongotx "fieldsched/pkg/db/mongo"
	kafkamiddleware "fieldsched/pkg/kafka/middleware"
	"fieldsched/pkg/notifier"
	"fieldsched/pkg/ratelimit"
	"fieldsched/pkg/validation"
)

const (
	ServiceName  = "scheduling"
	retryBackoff = 200 * time.Millisecond
)

type repositories struct {
	projects    projectsrepo.ProjectRepository
	assignments assignmentsrepo.AssignmentRepository
	days        assignmentsrepo.DayRepository
	history     assignmentsrepo.HistoryRepository
	conflicts   conflictsrepo.ConflictRepository
	requests    confirmationsrepo.RequestRepository
	links       confirmationsrepo.LinkRepository
	txManager   mongotx.TransactionManager
}

type limiters struct {
	respond  ratelimit.Limiter
	lookup   ratelimit.Limiter
	operator ratelimit.Limiter
}

func main() {
	cfg := config.Load(ServiceName)

	cfg.Log.Info("Starting Scheduling service")
	repos, checks := initRepositories(cfg)
	routes := initServices(cfg, repos, initLimiters(cfg), initNotifier(cfg))
	routes.Health = healthhandler.NewHealthHandler(checks, cfg.Log)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(routes)
	serverApp.Run()
}

func initRepositories(cfg *config.Config) (repositories, map[string]healthhandler.Check) {
	checks := map[string]healthhandler.Check{}

	if cfg.StoreBackend == config.BackendMemory {
		store := memstore.New()
		cfg.Log.Warn("Using in-memory store, data is lost on restart")
		return repositories{
			projects:    store.Projects(),
			assignments: store.Assignments(),
			days:        store.Days(),
			history:     store.History(),
			conflicts:   store.Conflicts(),
			requests:    store.Requests(),
			links:       store.Links(),
			txManager:   store.TxManager(),
		}, checks
	}

	cfg.SetMongo()
	checks["mongo"] = func(ctx context.Context) error {
		return cfg.Client.Mongo.Ping(ctx, nil)
	}
	cfg.Log.Info("Repositories initialized", "database", cfg.MongoDatabaseName)
	return repositories{
		projects:    projectsrepo.NewMongoProjectRepository(cfg),
		assignments: assignmentsrepo.NewMongoAssignmentRepository(cfg),
		days:        assignmentsrepo.NewMongoDayRepository(cfg),
		history:     assignmentsrepo.NewMongoHistoryRepository(cfg),
		conflicts:   conflictsrepo.NewMongoConflictRepository(cfg),
		requests:    confirmationsrepo.NewMongoRequestRepository(cfg),
		links:       confirmationsrepo.NewMongoLinkRepository(cfg),
		txManager:   mongotx.NewTransactionManager(cfg.Client.Mongo),
	}, checks
}

func initLimiters(cfg *config.Config) limiters {
	if cfg.RateLimitBackend == config.BackendRedis {
		cfg.SetRedis()
		l := limiters{
			respond: ratelimit.NewRedisLimiter(cfg.Client.Redis, ServiceName+":respond", cfg.RespondRateLimit, cfg.RateLimitWindow),
			lookup:  ratelimit.NewRedisLimiter(cfg.Client.Redis, ServiceName+":lookup", cfg.LookupRateLimit, cfg.RateLimitWindow),
		}
		if cfg.OperatorRateLimit > 0 {
			l.operator = ratelimit.NewRedisLimiter(cfg.Client.Redis, ServiceName+":operator", cfg.OperatorRateLimit, cfg.RateLimitWindow)
		}
		cfg.Log.Info("Rate limiters backed by Redis", "addr", cfg.RedisAddr)
		return l
	}

	memory := func(limit int) ratelimit.Limiter {
		return ratelimit.NewMemoryLimiter(ratelimit.MemoryConfig{
			Limit:            limit,
			Window:           cfg.RateLimitWindow,
			Capacity:         cfg.RateLimitCapacity,
			CleanupThreshold: cfg.RateLimitCleanupThreshold,
		})
	}
	l := limiters{
		respond: memory(cfg.RespondRateLimit),
		lookup:  memory(cfg.LookupRateLimit),
	}
	if cfg.OperatorRateLimit > 0 {
		l.operator = memory(cfg.OperatorRateLimit)
	}
	cfg.Log.Info("Rate limiters held in memory")
	return l
}

func initNotifier(cfg *config.Config) notifier.Notifier {
	if cfg.NotifierBackend == config.BackendLog {
		cfg.Log.Warn("Emails are logged, not delivered")
		return notifier.NewLogNotifier(cfg.Log)
	}

	cfg.SetEmailProducer()
	producer := cfg.Client.EmailProducer
	producer.Use(kafkamiddleware.Logging(cfg.Log))
	producer.Use(kafkamiddleware.Retry(cfg.KafkaPublishRetries, retryBackoff))
	cfg.Log.Info("Email notifier publishing to Kafka", "topic", cfg.KafkaEmailTopic)
	return notifier.NewKafkaNotifier(producer, ServiceName, cfg.MailFromName, cfg.Log)
}

func initServices(cfg *config.Config, repos repositories, l limiters, mailer notifier.Notifier) app.Routes {
	validator := validation.MustNew()

	statusService := statusservice.NewStatusService(
		repos.projects,
		repos.assignments,
		repos.history,
		repos.txManager,
		validator,
		cfg,
	)
	conflictService := conflictsservice.NewConflictService(
		repos.conflicts,
		repos.assignments,
		repos.days,
		repos.projects,
		validator,
		cfg,
	)
	assignmentService := assignmentsservice.NewAssignmentService(
		repos.assignments,
		repos.days,
		repos.history,
		repos.projects,
		repos.links,
		conflictService,
		statusService,
		repos.txManager,
		validator,
		cfg,
	)
	projectService := projectsservice.NewProjectService(
		repos.projects,
		repos.assignments,
		repos.days,
		repos.history,
		repos.requests,
		repos.links,
		repos.txManager,
		validator,
		cfg,
	)
	confirmationService := confirmationsservice.NewConfirmationService(
		repos.requests,
		repos.links,
		repos.assignments,
		repos.days,
		repos.projects,
		statusService,
		mailer,
		confirmationsservice.Limiters{Respond: l.respond, Lookup: l.lookup},
		repos.txManager,
		validator,
		cfg,
	)
	cfg.Log.Info("Scheduling services initialized", "store_backend", cfg.StoreBackend)

	return app.Routes{
		Operator: []contracts.Handler{
			projectshandler.NewProjectHandler(projectService, cfg.Log),
			assignmentshandler.NewAssignmentHandler(assignmentService, cfg.Log),
			statushandler.NewStatusHandler(statusService, cfg.Log),
			conflictshandler.NewConflictHandler(conflictService, cfg.Log),
			confirmationshandler.NewConfirmationHandler(confirmationService, cfg.Log),
		},
		Public: []contracts.Handler{
			confirmationshandler.NewPublicHandler(confirmationService, cfg.Log),
		},
		Verifier:        auth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer, cfg.Log),
		OperatorLimiter: l.operator,
	}
}
