package httpserver

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/parkscope/analysis-api/internal/core/ports"
	customMiddleware "github.com/parkscope/analysis-api/internal/infrastructure/httpserver/middleware"
)

type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	TLSCertFile     string
	TLSKeyFile      string
	AllowedOrigins  []string
	MaxUploadBytes  int64
	AdminAPIKeyHash string
	AdminJWTSecret  string
	// UsagePreviewLimit bounds the admin usage listing.
	UsagePreviewLimit int
	// CachePreviewLimit bounds the admin cache stats key preview.
	CachePreviewLimit int
}

type ServerDeps struct {
	AnalysisService    ports.AnalysisService
	ContentCache       ports.ContentCache
	RateLimiterService ports.RateLimiterService
	UsageRepository    ports.UsageRepository
	HealthCheckers     []ports.HealthChecker
}

type Server struct {
	echo           *echo.Echo
	config         *ServerConfig
	logger         *logrus.Logger
	analysisSvc    ports.AnalysisService
	cache          ports.ContentCache
	usageRepo      ports.UsageRepository
	middleware     *customMiddleware.MiddlewareCollection
	healthCheckers []ports.HealthChecker
}

func NewServer(serverConfig *ServerConfig, logger *logrus.Logger, deps ServerDeps) *Server {
	e := echo.New()
	e.HideBanner = true

	server := &Server{
		echo:           e,
		config:         serverConfig,
		logger:         logger,
		analysisSvc:    deps.AnalysisService,
		cache:          deps.ContentCache,
		usageRepo:      deps.UsageRepository,
		healthCheckers: deps.HealthCheckers,
		middleware: customMiddleware.NewMiddlewareCollection(
			deps.RateLimiterService,
			logger,
			serverConfig.AdminAPIKeyHash,
			serverConfig.AdminJWTSecret,
			GetRequestsTotal(),
			GetRequestDuration(),
			GetRateLimitDenied(),
		),
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}
