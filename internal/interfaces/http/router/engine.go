package router

import (
	"time"

	"github.com/Z3RO333/formularios/internal/infrastructure/logger"
	"github.com/Z3RO333/formularios/internal/infrastructure/telemetry"
	"github.com/Z3RO333/formularios/internal/interfaces/http/handler"
	"github.com/Z3RO333/formularios/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Config tunes the middleware chain
type Config struct {
	ServiceName      string
	MaxBodySize      int64
	RequestTimeout   time.Duration
	CORSAllowOrigins []string
	TrustedProxies   []string
	TracingEnabled   bool
	ProfilingEnabled bool
	// HTTPMetrics may be nil when metrics export is off
	HTTPMetrics *telemetry.HTTPMetrics
}

// Handlers are the endpoint groups served by the engine
type Handlers struct {
	Orders      *handler.PurchaseOrderHandler
	Attachments *handler.AttachmentHandler
	Suppliers   *handler.SupplierHandler
	Health      *handler.HealthHandler
}

// New builds the engine. The global chain runs tracing, request id, access
// log, panic recovery, metrics and the hardening headers; every /api/v1 route
// additionally requires X-User-ID.
func New(cfg Config, h Handlers, log *zap.Logger) (*gin.Engine, error) {
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.CORSAllowOrigins

	engine.Use(
		middleware.Tracing(cfg.ServiceName, cfg.TracingEnabled),
		middleware.RequestID(log),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.Metrics(cfg.HTTPMetrics),
		middleware.Profiling(cfg.ProfilingEnabled),
		middleware.CORS(cors),
		middleware.Secure(),
	)

	engine.GET("/health", h.Health.Check)

	r := NewRouter(engine, WithGroupMiddleware(
		middleware.BodyLimit(cfg.MaxBodySize),
		middleware.Timeout(cfg.RequestTimeout),
		middleware.Identity(),
	))
	r.Register(orderRoutes(h.Orders, h.Attachments)).
		Register(attachmentRoutes(h.Attachments)).
		Register(supplierRoutes(h.Suppliers))
	r.Setup()

	return engine, nil
}

func orderRoutes(orders *handler.PurchaseOrderHandler, attachments *handler.AttachmentHandler) *DomainGroup {
	return NewDomainGroup("orders", "/orders").
		POST("", orders.Create).
		GET("", orders.List).
		POST("/import/preview", orders.ImportPreview).
		GET("/:id", orders.Get).
		PUT("/:id", orders.Update).
		POST("/:id/approve", orders.Approve).
		POST("/:id/reject", orders.Reject).
		GET("/:id/history", orders.History).
		POST("/:id/attachments", attachments.Upload).
		GET("/:id/attachments", attachments.List)
}

func attachmentRoutes(attachments *handler.AttachmentHandler) *DomainGroup {
	return NewDomainGroup("attachments", "/attachments").
		GET("/:id/download", attachments.Download)
}

func supplierRoutes(suppliers *handler.SupplierHandler) *DomainGroup {
	return NewDomainGroup("suppliers", "/suppliers").
		GET("", suppliers.List).
		POST("/resolve", suppliers.Resolve).
		POST("/merge", suppliers.Merge).
		GET("/duplicates", suppliers.Duplicates).
		GET("/:id", suppliers.Get)
}
