package router

import (
	"github.com/anonto42/bloglist/backend/internal/auth"
	"github.com/anonto42/bloglist/backend/internal/cache"
	"github.com/anonto42/bloglist/backend/internal/handlers"
	"github.com/anonto42/bloglist/backend/internal/middleware"
	"github.com/anonto42/bloglist/backend/internal/repositories"
	"github.com/anonto42/bloglist/backend/pkg/config"
	"github.com/anonto42/bloglist/backend/validators"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Dependencies are the collaborators injected into handlers
type Dependencies struct {
	Config   *config.Config
	Users    repositories.UserRepository
	Blogs    repositories.BlogRepository
	Cache    cache.BlogListCache
	Issuer   *auth.TokenIssuer
	Firebase handlers.IDTokenVerifier // nil disables Firebase login
	Logger   *zap.Logger
}

// New builds a fully wired Echo instance
func New(deps Dependencies) *echo.Echo {
	if deps.Cache == nil {
		deps.Cache = cache.Noop{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validators.NewValidator()
	e.HTTPErrorHandler = handlers.NewHTTPErrorHandler(deps.Logger)

	SetupMiddleware(e, deps.Config, deps.Logger)
	SetupRoutes(e, deps)
	return e
}

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo, cfg *config.Config, logger *zap.Logger) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.RequestIDWithConfig(eMiddleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(logger))
	e.Use(eMiddleware.CORSWithConfig(eMiddleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
	}))
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Dependencies) {
	cfg, logger := deps.Config, deps.Logger

	e.GET("/health", handlers.HealthCheck)

	requireAuth := middleware.TokenAuth(deps.Issuer, deps.Users, logger)
	optionalAuth := middleware.OptionalTokenAuth(deps.Issuer, deps.Users, logger)
	authLimiter := middleware.NewRateLimiter(cfg.AuthRateLimitPerMinute).Middleware()

	api := e.Group("/api")

	authHandler := handlers.NewAuthHandler(deps.Users, deps.Issuer, deps.Firebase, logger)
	authHandler.RegisterAuthRoutes(api.Group("/login", authLimiter))

	userHandler := handlers.NewUserHandler(deps.Users, deps.Blogs)
	userHandler.RegisterUserRoutes(api.Group("/users"), authLimiter)

	blogHandler := handlers.NewBlogHandler(deps.Blogs, deps.Users, deps.Cache, cfg.BlogUpdatePolicy, logger)
	blogHandler.RegisterBlogRoutes(api.Group("/blogs"), requireAuth, optionalAuth)

	if cfg.IsTest() {
		testingHandler := handlers.NewTestingHandler(deps.Blogs, deps.Users, deps.Cache, logger)
		testingHandler.RegisterTestingRoutes(api.Group("/testing"))
		logger.Warn("testing routes enabled")
	}

	logger.Info("routes configured", zap.String("update_policy", cfg.BlogUpdatePolicy), zap.Bool("firebase_login", deps.Firebase != nil))
}
