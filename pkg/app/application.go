package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/julienschmidt/httprouter"

	"fieldsched/pkg/auth"
	"fieldsched/pkg/config"
	"fieldsched/pkg/contracts"
	"fieldsched/pkg/middleware"
	"fieldsched/pkg/ratelimit"
)

const publicPrefix = "/public/"

// Routes groups the handlers served by one process. Operator handlers sit
// behind bearer authentication; public handlers are reached by customers
// through emailed links.
type Routes struct {
	Health          contracts.Handler
	Operator        []contracts.Handler
	Public          []contracts.Handler
	Verifier        *auth.Verifier
	OperatorLimiter ratelimit.Limiter
}

type Application struct {
	cfg              *config.Config
	server           *http.Server
	idempotencyStore *middleware.InMemoryIdempotencyStore
	healthHandler    http.Handler
	operatorHandler  http.Handler
	publicHandler    http.Handler
}

func NewApplication(cfg *config.Config) *Application {
	return &Application{cfg: cfg}
}

func (a *Application) SetApp(routes Routes) {
	a.setHealthHandler(routes.Health)
	a.setOperatorHandler(routes)
	a.setPublicHandler(routes.Public)
	a.setAppServer()
}

// Handler exposes the assembled mux. Used by tests and embedding callers.
func (a *Application) Handler() http.Handler {
	return a.server.Handler
}

func (a *Application) setHealthHandler(health contracts.Handler) {
	healthRouter := httprouter.New()
	health.RegisterRoutes(healthRouter)

	var healthHTTPHandler http.Handler = healthRouter
	healthHTTPHandler = middleware.RequestLogging(a.cfg.Log)(healthHTTPHandler)
	healthHTTPHandler = middleware.Recovery(a.cfg.Log)(healthHTTPHandler)
	a.healthHandler = healthHTTPHandler
	a.cfg.Log.Info("Health endpoints configured with minimal middleware (Recovery + Logging only)")
}

func (a *Application) setOperatorHandler(routes Routes) {
	operatorRouter := httprouter.New()
	for _, h := range routes.Operator {
		h.RegisterRoutes(operatorRouter)
	}

	a.idempotencyStore = middleware.NewInMemoryIdempotencyStore(a.cfg.IdempotencyTTL)
	limiter := routes.OperatorLimiter
	if limiter == nil {
		limiter = ratelimit.Unlimited
	}

	var operatorHTTPHandler http.Handler = operatorRouter
	operatorHTTPHandler = middleware.Idempotency(a.idempotencyStore, middleware.DefaultIdempotencyHeader, auth.ActorKey)(operatorHTTPHandler)
	operatorHTTPHandler = middleware.RateLimit(limiter, auth.ActorKey, a.cfg.Log)(operatorHTTPHandler)
	operatorHTTPHandler = routes.Verifier.Middleware(operatorHTTPHandler)
	operatorHTTPHandler = middleware.RequestTimeout(a.cfg.RequestTimeout)(operatorHTTPHandler)
	operatorHTTPHandler = middleware.ContentTypeValidation(a.cfg.Log)(operatorHTTPHandler)
	operatorHTTPHandler = middleware.MaxRequestSize(int64(a.cfg.MaxRequestSize))(operatorHTTPHandler)
	operatorHTTPHandler = middleware.RequestLogging(a.cfg.Log)(operatorHTTPHandler)
	operatorHTTPHandler = middleware.Recovery(a.cfg.Log)(operatorHTTPHandler)
	a.operatorHandler = operatorHTTPHandler
	a.cfg.Log.Info("Operator endpoints configured with full security middleware stack")
}

// Public endpoints carry no bearer token. The confirmation service applies
// its own per-token and per-address limits.
func (a *Application) setPublicHandler(handlers []contracts.Handler) {
	publicRouter := httprouter.New()
	for _, h := range handlers {
		h.RegisterRoutes(publicRouter)
	}

	var publicHTTPHandler http.Handler = publicRouter
	publicHTTPHandler = middleware.RequestTimeout(a.cfg.RequestTimeout)(publicHTTPHandler)
	publicHTTPHandler = middleware.ContentTypeValidation(a.cfg.Log)(publicHTTPHandler)
	publicHTTPHandler = middleware.MaxRequestSize(int64(a.cfg.MaxRequestSize))(publicHTTPHandler)
	publicHTTPHandler = middleware.RequestLogging(a.cfg.Log)(publicHTTPHandler)
	publicHTTPHandler = middleware.Recovery(a.cfg.Log)(publicHTTPHandler)
	a.publicHandler = publicHTTPHandler
	a.cfg.Log.Info("Public confirmation endpoints configured")
}

func (a *Application) setAppServer() {
	mux := http.NewServeMux()
	mux.Handle("/health", a.healthHandler)
	mux.Handle("/ready", a.healthHandler)
	mux.Handle(publicPrefix, a.publicHandler)
	mux.Handle("/", a.operatorHandler)

	a.server = &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      mux,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  a.cfg.IdleTimeout,
	}

	a.cfg.Log.Info("HTTP server configured", "port", a.cfg.Port)
}

func (a *Application) Run() {
	serverErrors := make(chan error, 1)

	go func() {
		a.cfg.Log.Info("Starting HTTP server", "address", a.server.Addr)
		serverErrors <- a.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		a.cfg.Log.Fatal("HTTP server failed", "error", err)

	case sig := <-shutdown:
		a.cfg.Log.Info("Shutdown signal received", "signal", sig)
		a.gracefulShutdown()
	}
}

func (a *Application) gracefulShutdown() {
	a.cfg.Log.Info("Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Fatal("Could not stop server gracefully", "error", err)
		}
	}
	a.cfg.Log.Info("Server stopped gracefully")

	a.cfg.GracefulShutdown()
}
