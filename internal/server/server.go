package server

import (
	"time"

	"smartinbox/internal/classifier"
	"smartinbox/internal/config"
	"smartinbox/internal/database"
	"smartinbox/internal/dispatch"
	"smartinbox/internal/engine"
	"smartinbox/internal/handlers"
	"smartinbox/internal/mailer"
	"smartinbox/internal/registry"
	"smartinbox/internal/review"
	"smartinbox/internal/tracker"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// Server represents the application server
type Server struct {
	echo   *echo.Echo
	db     *sqlx.DB
	config *config.Config
	logger zerolog.Logger

	clients  *database.ClientStore
	rules    *database.RuleStore
	emails   *database.EmailStore
	resolver *registry.Resolver
	engine   *engine.Engine
	reviews  *review.Queue
}

// New creates a new server instance and wires the routing pipeline
func New(cfg *config.Config, db *sqlx.DB, logger zerolog.Logger) *Server {
	s := &Server{
		config: cfg,
		db:     db,
		logger: logger,
	}

	s.clients = database.NewClientStore(db)
	s.rules = database.NewRuleStore(db)
	s.emails = database.NewEmailStore(db)
	decisions := database.NewReviewStore(db)

	s.resolver = registry.NewResolver(s.clients,
		time.Duration(cfg.SnapshotTTL)*time.Second, logger)

	cls := classifier.New(cfg, logger)
	issues := tracker.New(cfg.GithubToken, cfg.GithubAPIURL)
	mail := mailer.NewMailer(cfg.SendGridAPIKey, cfg.InboxAddress)

	dispatcher := dispatch.NewDispatcher(issues, mail, s.newLedger(),
		cfg.DispatchMaxAttempts, time.Duration(cfg.DispatchTimeout)*time.Second, logger)

	s.engine = engine.New(s.resolver, cls, s.rules, s.clients, dispatcher,
		s.emails, cfg.ConfidenceThreshold, logger)
	s.reviews = review.NewQueue(s.emails, s.clients, decisions, s.engine, logger)

	return s
}

// newLedger picks the dispatch idempotency backend: Redis when
// configured, otherwise an in-process map. The in-memory ledger is only
// safe for single-instance deployments.
func (s *Server) newLedger() dispatch.Ledger {
	if s.config.RedisURL == "" {
		s.logger.Info().Msg("REDIS_URL not set, using in-memory dispatch ledger")
		return dispatch.NewMemoryLedger()
	}
	opts, err := redis.ParseURL(s.config.RedisURL)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Invalid REDIS_URL, falling back to in-memory dispatch ledger")
		return dispatch.NewMemoryLedger()
	}
	return dispatch.NewRedisLedger(redis.NewClient(opts))
}

// Engine exposes the routing engine for batch imports.
func (s *Server) Engine() *engine.Engine {
	return s.engine
}

// Emails exposes the email store for batch imports.
func (s *Server) Emails() *database.EmailStore {
	return s.emails
}

// zerologMiddleware creates a zerolog-based logging middleware for Echo
func (s *Server) zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			req := c.Request()
			res := c.Response()

			s.logger.Info().
				Str("method", req.Method).
				Str("uri", req.RequestURI).
				Str("remote_ip", c.RealIP()).
				Int("status", res.Status).
				Int64("latency_ms", time.Since(start).Milliseconds()).
				Str("user_agent", req.UserAgent()).
				Msg("HTTP request")

			return err
		}
	}
}

// Initialize sets up the Echo framework with middleware and routes
func (s *Server) Initialize() {
	s.echo = echo.New()

	// Middleware
	s.echo.Use(s.zerologMiddleware())
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.CORS())

	// Hide Echo banner
	s.echo.HideBanner = true

	// Setup routes
	s.setupRoutes()
}

// setupRoutes configures all the application routes
func (s *Server) setupRoutes() {
	// API group with /api prefix
	api := s.echo.Group("/api")

	// Swagger documentation
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	// Health endpoints (keep at root level for monitoring)
	s.echo.GET("/healthz", handlers.HealthHandler(s.config.Version))
	s.echo.GET("/healthz/db", handlers.DBHealthHandler(s.db))

	api.GET("/", handlers.RootHandler(s.config.Version))

	// Email ingestion and inspection
	api.POST("/emails", handlers.IngestEmailHandler(s.emails, s.engine))
	api.GET("/emails", handlers.ListEmailsHandler(s.emails))
	api.GET("/emails/:id", handlers.GetEmailHandler(s.emails))

	// Client registry
	api.GET("/clients", handlers.ListClientsHandler(s.clients))
	api.POST("/clients", handlers.CreateClientHandler(s.clients, s.resolver))
	api.GET("/clients/:id", handlers.GetClientHandler(s.clients))
	api.PUT("/clients/:id", handlers.UpdateClientHandler(s.clients, s.resolver))
	api.DELETE("/clients/:id", handlers.DeleteClientHandler(s.clients, s.resolver))

	// Routing rules
	api.GET("/rules", handlers.ListRulesHandler(s.rules))
	api.POST("/rules", handlers.CreateRuleHandler(s.rules))
	api.GET("/rules/:id", handlers.GetRuleHandler(s.rules))
	api.PUT("/rules/:id", handlers.UpdateRuleHandler(s.rules))
	api.POST("/rules/:id/toggle", handlers.ToggleRuleHandler(s.rules))
	api.DELETE("/rules/:id", handlers.DeleteRuleHandler(s.rules))

	// Manual review queue
	api.GET("/reviews", handlers.ListReviewsHandler(s.reviews))
	api.POST("/reviews/:email_id", handlers.DecideReviewHandler(s.reviews))
	api.GET("/reviews/:email_id/history", handlers.ReviewHistoryHandler(s.reviews))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info().Str("port", s.config.Port).Msg("Server starting")
	return s.echo.Start(":" + s.config.Port)
}
