package main

import (
	"console-service/internal/handler"
	"console-service/internal/middleware"
	"console-service/internal/oauth"
	"console-service/internal/service"
	"console-service/pkg/config"
	"console-service/pkg/database"
	"console-service/pkg/jwtutil"
	"console-service/pkg/logger"
	"console-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting console service...", zap.String("environment", cfg.Server.Env))

	// Initialize database
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utility initialized")

	db := database.GetDB()

	// Build OAuth provider clients for the configured providers
	providers := buildOAuthProviders(cfg)
	if len(providers) == 0 {
		log.Warn("No OAuth providers configured")
	}

	// Build services with injected collaborators
	features := service.NewFeatureService(cfg.Feature)
	billing := service.NewBillingService(cfg.Billing)
	accounts := service.NewAccountService(db, features, billing, log)
	tenants := service.NewTenantService(db, features, log)
	orgSync := service.NewOrgSyncService(db, tenants, log)
	invites := service.NewInviteService(db)

	oauthHandler := handler.NewOAuthHandler(providers, accounts, tenants, orgSync, invites, cfg.OAuth.ConsoleWebURL)
	workspaceHandler := handler.NewWorkspaceHandler(accounts, tenants)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover()) // Add recovery middleware
	e.Use(echomiddleware.CORS())    // Add CORS middleware
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// OAuth flow - browser-facing, no authentication required
	console := e.Group("/console/api")
	console.GET("/oauth/login/:provider", oauthHandler.Login)
	console.GET("/oauth/authorize/:provider", oauthHandler.Authorize)

	// Workspace queries - require a valid session
	workspaces := console.Group("/workspaces")
	workspaces.Use(middleware.AuthMiddleware)
	workspaces.GET("/current", workspaceHandler.GetCurrent)
	workspaces.GET("/hierarchy", workspaceHandler.GetAllHierarchies)
	workspaces.GET("/:id/hierarchy", workspaceHandler.GetHierarchy)

	// Get server port from configuration
	port := cfg.Server.Port

	// Start server
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}

// buildOAuthProviders creates a client per provider that has credentials set
func buildOAuthProviders(cfg *config.Config) map[string]oauth.Provider {
	providers := make(map[string]oauth.Provider)

	if cfg.OAuth.GitHub.Configured() {
		providers["github"] = oauth.NewGitHubOAuth(
			cfg.OAuth.GitHub.ClientID,
			cfg.OAuth.GitHub.ClientSecret,
			cfg.OAuth.ConsoleAPIURL+"/console/api/oauth/authorize/github",
			cfg.OAuth.GitHub.AuthURL,
			cfg.OAuth.GitHub.TokenURL,
			cfg.OAuth.GitHub.UserInfoURL,
		)
	}
	if cfg.OAuth.Casdoor.Configured() {
		providers["casdoor"] = oauth.NewCasdoorOAuth(
			cfg.OAuth.Casdoor.ClientID,
			cfg.OAuth.Casdoor.ClientSecret,
			cfg.OAuth.ConsoleAPIURL+"/console/api/oauth/authorize/casdoor",
			cfg.OAuth.Casdoor.AuthURL,
			cfg.OAuth.Casdoor.TokenURL,
			cfg.OAuth.Casdoor.UserInfoURL,
		)
	}

	return providers
}
