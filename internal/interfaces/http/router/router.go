// Package router assembles the gin engine: global middleware, the tenant
// scoped /api/v1 surface and the health probes.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/retailcore/backend/internal/infrastructure/logger"
	"github.com/retailcore/backend/internal/interfaces/http/handler"
	"github.com/retailcore/backend/internal/interfaces/http/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	apiVersion string
	middleware []gin.HandlerFunc
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// WithAPIMiddleware adds middleware applied to the versioned API group only
func WithAPIMiddleware(mw ...gin.HandlerFunc) RouterOption {
	return func(r *Router) {
		r.middleware = append(r.middleware, mw...)
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
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
	api := r.engine.Group("/api/" + r.apiVersion)
	api.Use(r.middleware...)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// DomainGroup collects the routes of one domain under a prefix
type DomainGroup struct {
	name      string
	prefix    string
	routes    []routeDefinition
	subgroups []*DomainGroup
	mw        []gin.HandlerFunc
}

type routeDefinition struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewDomainGroup creates a new domain-specific route group
func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

// Use adds middleware to this group
func (dg *DomainGroup) Use(mw ...gin.HandlerFunc) *DomainGroup {
	dg.mw = append(dg.mw, mw...)
	return dg
}

func (dg *DomainGroup) handle(method, path string, handlers []gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, routeDefinition{method: method, path: path, handlers: handlers})
	return dg
}

// GET registers a GET route
func (dg *DomainGroup) GET(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodGet, path, handlers)
}

// POST registers a POST route
func (dg *DomainGroup) POST(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodPost, path, handlers)
}

// PATCH registers a PATCH route
func (dg *DomainGroup) PATCH(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodPatch, path, handlers)
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
	if len(dg.mw) > 0 {
		group.Use(dg.mw...)
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

// Handlers are the endpoint handlers mounted by New
type Handlers struct {
	Orders       *handler.OrderHandler
	Debts        *handler.DebtHandler
	CashSessions *handler.CashSessionHandler
	Stock        *handler.StockHandler
	Health       *handler.HealthHandler
}

// Options configures the engine built by New
type Options struct {
	Logger         *zap.Logger
	ServiceName    string
	TracingEnabled bool
	Meter          metric.Meter
	MetricsEnabled bool
	MaxBodySize    int64
	CORS           middleware.CORSConfig
	TrustedProxies []string
}

// New builds the engine with the global middleware chain and every route
func New(opts Options, h Handlers) (*gin.Engine, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, err
	}

	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		middleware.Tracing(middleware.TracingConfig{ServiceName: opts.ServiceName, Enabled: opts.TracingEnabled}),
		logger.GinMiddleware(log),
		middleware.HTTPMetrics(middleware.HTTPMetricsConfig{Meter: opts.Meter, Enabled: opts.MetricsEnabled, Logger: log}),
		middleware.SpanEnricher(),
		middleware.CORS(opts.CORS),
		middleware.Secure(),
	)
	if opts.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(opts.MaxBodySize))
	}

	if h.Health != nil {
		engine.GET("/health", h.Health.Health)
		engine.GET("/health/ready", h.Health.Ready)
	}

	r := NewRouter(engine, WithAPIMiddleware(middleware.Tenant(middleware.DefaultTenantConfig())))
	for _, g := range domainGroups(h) {
		r.Register(g)
	}
	r.Setup()
	return engine, nil
}

func domainGroups(h Handlers) []*DomainGroup {
	var groups []*DomainGroup

	if h.Orders != nil {
		groups = append(groups, NewDomainGroup("orders", "/orders").
			POST("", h.Orders.Create).
			GET("", h.Orders.List).
			GET("/:id", h.Orders.Get).
			PATCH("/:id/status", h.Orders.UpdateStatus))
	}

	if h.Debts != nil {
		groups = append(groups, NewDomainGroup("debts", "/debts").
			POST("", h.Debts.Create).
			GET("", h.Debts.List).
			GET("/summary", h.Debts.Summary).
			GET("/:id", h.Debts.Get).
			POST("/:id/payments", h.Debts.ConfirmPayment))
	}

	if h.CashSessions != nil {
		groups = append(groups, NewDomainGroup("cash-sessions", "/cash-sessions").
			POST("", h.CashSessions.Open).
			GET("", h.CashSessions.List).
			GET("/current", h.CashSessions.Current).
			GET("/:id", h.CashSessions.Get).
			POST("/:id/close", h.CashSessions.Close).
			POST("/:id/reopen", h.CashSessions.Reopen))
	}

	if h.Stock != nil {
		stock := NewDomainGroup("stock", "/stock").
			POST("/movements", h.Stock.RecordMovement)
		stock.Group("stock-products", "/products").
			GET("/:id/movements", h.Stock.ListMovements).
			GET("/:id/audit", h.Stock.Audit)
		groups = append(groups, stock)
	}

	return groups
}
