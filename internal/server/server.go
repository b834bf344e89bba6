package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	auditdomain "github.com/smallbiznis/gstbook/internal/audit/domain"
	"github.com/smallbiznis/gstbook/internal/config"
	customerdomain "github.com/smallbiznis/gstbook/internal/customer/domain"
	ewaybilldomain "github.com/smallbiznis/gstbook/internal/ewaybill/domain"
	invoicedomain "github.com/smallbiznis/gstbook/internal/invoice/domain"
	"github.com/smallbiznis/gstbook/internal/observability"
	obslogger "github.com/smallbiznis/gstbook/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/gstbook/internal/observability/metrics"
	obstracing "github.com/smallbiznis/gstbook/internal/observability/tracing"
	"github.com/smallbiznis/gstbook/internal/ratelimit"
	taxdomain "github.com/smallbiznis/gstbook/internal/tax/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	addr := cfg.HTTPAddr
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	auditSvc    auditdomain.Service
	customerSvc customerdomain.Service
	taxSvc      taxdomain.Service
	invoiceSvc  invoicedomain.Service
	ewayBillSvc ewaybilldomain.Service

	writeLimiter *ratelimit.WriteLimiter
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	AuditSvc    auditdomain.Service
	CustomerSvc customerdomain.Service
	TaxSvc      taxdomain.Service
	InvoiceSvc  invoicedomain.Service
	EwayBillSvc ewaybilldomain.Service

	WriteLimiter *ratelimit.WriteLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		auditSvc:    p.AuditSvc,
		customerSvc: p.CustomerSvc,
		taxSvc:      p.TaxSvc,
		invoiceSvc:  p.InvoiceSvc,
		ewayBillSvc: p.EwayBillSvc,

		writeLimiter: p.WriteLimiter,
	}

	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Reference --------
	api.GET("/states", s.ListStates)
	api.GET("/states/:code", s.GetState)
	api.POST("/gstin/validate", s.ValidateGSTIN)

	// -------- GST --------
	api.GET("/gst/rates", s.ListGSTRates)
	api.POST("/gst/split", s.PreviewSplit)

	api.GET("/hsn-rates", s.ListHSNRates)
	api.POST("/hsn-rates", s.CreateHSNRate)
	api.PATCH("/hsn-rates/:id", s.UpdateHSNRate)

	// -------- Customers --------
	api.GET("/customers", s.ListCustomers)
	api.POST("/customers", s.CreateCustomer)
	api.GET("/customers/:id", s.GetCustomerByID)

	// -------- Invoices --------
	api.GET("/invoices", s.ListInvoices)
	api.POST("/invoices", s.WriteRateLimit(), s.CreateInvoice)
	api.POST("/invoices/bulk-status", s.WriteRateLimit(), s.BulkSetInvoiceStatus)
	api.GET("/invoices/:id", s.GetInvoiceByID)
	api.PUT("/invoices/:id/items", s.UpdateInvoiceItems)
	api.POST("/invoices/:id/status", s.SetInvoiceStatus)

	// -------- E-way bills --------
	api.GET("/eway-bills", s.ListEwayBills)
	api.POST("/eway-bills", s.WriteRateLimit(), s.GenerateEwayBill)
	api.GET("/eway-bills/:id", s.GetEwayBillByID)
	api.PATCH("/eway-bills/:id", s.UpdateEwayBill)
	api.POST("/eway-bills/:id/activate", s.ActivateEwayBill)
	api.POST("/eway-bills/:id/cancel", s.CancelEwayBill)

	// -------- Audit --------
	api.GET("/audit-logs", s.ListAuditLogs)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
