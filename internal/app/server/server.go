package server

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/VisitAudit/internal/app/service"
	inthttp "github.com/sifan077/VisitAudit/internal/http/handler"
	"github.com/sifan077/VisitAudit/internal/http/middleware"
	infraPrometheus "github.com/sifan077/VisitAudit/internal/infra/prometheus"
	"go.uber.org/zap"
)

// Dependencies bundles everything the HTTP server needs to register its routes.
type Dependencies struct {
	Logger    *zap.Logger
	Metrics   *infraPrometheus.Metrics
	Visits    service.VisitService
	Auth      service.AuthService
	Analytics service.AnalyticsService
	Checks    map[string]inthttp.ReadinessCheck

	SiteName     string
	CORSOrigins  string
	BodyLimit    int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server wraps the Fiber application and its dependencies.
type Server struct {
	app  *fiber.App
	deps Dependencies
}

// New creates a new HTTP server instance with all routes registered.
func New(deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:               "VisitAudit",
		Immutable:             true,
		DisableStartupMessage: true,
		BodyLimit:             deps.BodyLimit,
		ReadTimeout:           deps.ReadTimeout,
		WriteTimeout:          deps.WriteTimeout,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
	})

	s := &Server{
		app:  app,
		deps: deps,
	}

	s.registerMiddleware()
	s.registerRoutes()
	return s
}

// App exposes the underlying Fiber application, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts the Fiber server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the Fiber server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) registerMiddleware() {
	s.app.Use(middleware.RequestID())
	s.app.Use(middleware.Recovery(s.deps.Logger))
	s.app.Use(middleware.Logger(s.deps.Logger))
	s.app.Use(middleware.CORS(s.deps.CORSOrigins))
}

func (s *Server) registerRoutes() {
	pageHandler := inthttp.NewPageHandler(inthttp.PageDeps{
		Logger:   s.deps.Logger,
		SiteName: s.deps.SiteName,
		Checks:   s.deps.Checks,
	})
	pageHandler.Register(s.app)

	visitHandler := inthttp.NewVisitHandler(inthttp.VisitDeps{
		Logger:       s.deps.Logger,
		VisitService: s.deps.Visits,
		Metrics:      s.deps.Metrics,
	})
	visitHandler.Register(s.app)

	adminHandler := inthttp.NewAdminHandler(inthttp.AdminDeps{
		Logger:           s.deps.Logger,
		AuthService:      s.deps.Auth,
		VisitService:     s.deps.Visits,
		AnalyticsService: s.deps.Analytics,
	})
	adminHandler.Register(s.app)
}
