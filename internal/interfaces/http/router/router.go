package router

import (
	"net/http"

	importapp "github.com/erp/importer/internal/application/import"
	"github.com/erp/importer/internal/infrastructure/config"
	"github.com/erp/importer/internal/infrastructure/csvimport"
	"github.com/erp/importer/internal/infrastructure/format"
	"github.com/erp/importer/internal/infrastructure/logger"
	"github.com/erp/importer/internal/infrastructure/storage"
	"github.com/erp/importer/internal/infrastructure/telemetry"
	"github.com/erp/importer/internal/interfaces/http/handler"
	"github.com/erp/importer/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// multipartOverhead is allowed on top of the file size for form fields and
// part headers
const multipartOverhead = 64 << 10

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	basePath   string
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithBasePath mounts every registrar under path
func WithBasePath(path string) RouterOption {
	return func(r *Router) {
		r.basePath = path
	}
}

// NewRouter creates a new Router instance. Routes are mounted at the root
// unless WithBasePath says otherwise.
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		basePath:   "/",
		registrars: make([]RouteRegistrar, 0),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers all routes with the engine
func (r *Router) Setup() {
	base := r.engine.Group(r.basePath)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(base)
	}
}

// DomainGroup creates a route group for a specific domain
type DomainGroup struct {
	name       string
	prefix     string
	routes     []routeDefinition
	subgroups  []*DomainGroup
	middleware []gin.HandlerFunc
}

type routeDefinition struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewDomainGroup creates a new domain-specific route group
func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{
		name:       name,
		prefix:     prefix,
		routes:     make([]routeDefinition, 0),
		subgroups:  make([]*DomainGroup, 0),
		middleware: make([]gin.HandlerFunc, 0),
	}
}

// Use adds middleware to this group
func (dg *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	dg.middleware = append(dg.middleware, middleware...)
	return dg
}

// GET registers a GET route
func (dg *DomainGroup) GET(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, routeDefinition{method: http.MethodGet, path: path, handlers: handlers})
	return dg
}

// POST registers a POST route
func (dg *DomainGroup) POST(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, routeDefinition{method: http.MethodPost, path: path, handlers: handlers})
	return dg
}

// Group creates a sub-group within this domain
func (dg *DomainGroup) Group(name, prefix string) *DomainGroup {
	subgroup := NewDomainGroup(name, prefix)
	dg.subgroups = append(dg.subgroups, subgroup)
	return subgroup
}

// RegisterRoutes implements RouteRegistrar interface
func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(dg.prefix)
	if len(dg.middleware) > 0 {
		group.Use(dg.middleware...)
	}

	for _, route := range dg.routes {
		group.Handle(route.method, route.path, route.handlers...)
	}

	for _, subgroup := range dg.subgroups {
		subgroup.RegisterRoutes(group)
	}
}

// Name returns the group name
func (dg *DomainGroup) Name() string {
	return dg.name
}

// Prefix returns the group prefix
func (dg *DomainGroup) Prefix() string {
	return dg.prefix
}

// Dependencies is everything the development backend serves from
type Dependencies struct {
	Config    *config.Config
	Logger    *zap.Logger
	Storage   *storage.LocalFileStorage
	Extractor *csvimport.Extractor
	Jobs      *importapp.JobService
	Metrics   *telemetry.ImportMetrics
	Formatter *format.Formatter
	// UploadLimiter throttles uploads per client; nil disables throttling
	UploadLimiter *middleware.RateLimiter
}

// NewEngine assembles the development backend: the upload and import
// endpoints the importer talks to, the history pages it lands on, and
// /metrics.
func NewEngine(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	log := logger.OrNop(deps.Logger)
	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(
		logger.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log, "/metrics", "/health"),
		middleware.Secure(),
		middleware.HTTPMetrics(deps.Metrics),
	)

	csrf := middleware.DefaultCSRFConfig()
	csrf.CookieName = cfg.CSRF.CookieName
	csrf.HeaderName = cfg.CSRF.HeaderName
	engine.Use(middleware.EnsureCSRFCookie(csrf))

	uploadCSRF := csrf
	uploadCSRF.OnReject = func(c *gin.Context) {
		deps.Metrics.RecordUpload("", telemetry.OutcomeForbidden, 0)
	}
	importCSRF := csrf
	importCSRF.OnReject = func(c *gin.Context) {
		deps.Metrics.RecordImportRequest("", telemetry.OutcomeForbidden)
	}

	pages := handler.NewPages(handler.Nav{
		UploadPath:  cfg.Endpoints.UploadPath,
		HistoryPath: cfg.Endpoints.HistoryPath,
	})
	uploads := handler.NewUploadRegistry()
	uploadHandler := handler.NewUploadHandler(deps.Storage, deps.Extractor, uploads, deps.Metrics, pages)
	importHandler := handler.NewImportHandler(deps.Jobs, uploads, deps.Metrics)
	historyHandler := handler.NewHistoryHandler(deps.Jobs, deps.Formatter, pages, cfg.Endpoints.HistoryPath)

	uploadChain := []gin.HandlerFunc{middleware.BodyLimit(cfg.DevServer.MaxUploadMB<<20 + multipartOverhead)}
	if deps.UploadLimiter != nil {
		uploadChain = append(uploadChain, middleware.RateLimit(deps.UploadLimiter))
	}
	uploadChain = append(uploadChain, middleware.RequireCSRF(uploadCSRF), uploadHandler.Upload)

	api := NewDomainGroup("importer", "")
	api.GET(cfg.Endpoints.UploadPath, uploadHandler.Form)
	api.POST(cfg.Endpoints.UploadPath, uploadChain...)
	api.POST(cfg.Endpoints.ImportPath, middleware.RequireCSRF(importCSRF), importHandler.Import)

	history := NewDomainGroup("history", cfg.Endpoints.HistoryPath)
	history.GET("", historyHandler.List)
	history.GET(":id/", historyHandler.Detail)
	history.POST(":id/cancelar/", middleware.RequireCSRF(csrf), historyHandler.Cancel)

	r := NewRouter(engine)
	r.Register(api).Register(history)
	r.Setup()

	engine.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "jobs_running": deps.Jobs.Running()})
	})
	engine.NoRoute(func(c *gin.Context) {
		pages.NotFound(c, "Página não encontrada.")
	})

	return engine
}
