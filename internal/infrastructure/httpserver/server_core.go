package httpserver

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/ledger/internal/core/ports"
	customMiddleware "github.com/avatarctic/ledger/internal/infrastructure/httpserver/middleware"
)

type ServerConfig struct {
	Host           string
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	TLSCertFile    string
	TLSKeyFile     string
	AllowedOrigins []string
	// PublicURL is used as the base of temporary asset links when set.
	PublicURL string
	BodyLimit string
}

type ServerDeps struct {
	AccountService     ports.AccountService
	UploadService      ports.UploadService
	SpeechService      ports.SpeechService
	ExtractionService  ports.ExtractionService
	AuthService        ports.AuthService
	RateLimiterService ports.RateLimiterService
	TempAssets         ports.TempAssetStore
	HealthCheckers     []ports.HealthChecker
}

type Server struct {
	echo           *echo.Echo
	config         *ServerConfig
	logger         *logrus.Logger
	accountSvc     ports.AccountService
	uploadSvc      ports.UploadService
	speechSvc      ports.SpeechService
	extractionSvc  ports.ExtractionService
	authSvc        ports.AuthService
	tempAssets     ports.TempAssetStore
	middleware     *customMiddleware.MiddlewareCollection
	healthCheckers []ports.HealthChecker
}

func NewServer(serverConfig *ServerConfig, logger *logrus.Logger, deps ServerDeps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newRequestValidator()

	server := &Server{
		echo:           e,
		config:         serverConfig,
		logger:         logger,
		accountSvc:     deps.AccountService,
		uploadSvc:      deps.UploadService,
		speechSvc:      deps.SpeechService,
		extractionSvc:  deps.ExtractionService,
		authSvc:        deps.AuthService,
		tempAssets:     deps.TempAssets,
		healthCheckers: deps.HealthCheckers,
		middleware: customMiddleware.NewMiddlewareCollection(
			deps.AuthService,
			deps.RateLimiterService,
			logger,
			GetRequestsTotal(),
			GetRequestDuration(),
		),
	}
	e.HTTPErrorHandler = server.handleError

	server.setupMiddleware()
	server.setupRoutes()

	return server
}
