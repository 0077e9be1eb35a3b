package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	agentdomain "github.com/smallbiznis/brokerage/internal/agent/domain"
	assetdomain "github.com/smallbiznis/brokerage/internal/asset/domain"
	auditdomain "github.com/smallbiznis/brokerage/internal/audit/domain"
	"github.com/smallbiznis/brokerage/internal/auth"
	authdomain "github.com/smallbiznis/brokerage/internal/auth/domain"
	"github.com/smallbiznis/brokerage/internal/authorization"
	clientdomain "github.com/smallbiznis/brokerage/internal/client/domain"
	"github.com/smallbiznis/brokerage/internal/clock"
	"github.com/smallbiznis/brokerage/internal/config"
	"github.com/smallbiznis/brokerage/internal/document"
	insurerdomain "github.com/smallbiznis/brokerage/internal/insurer/domain"
	"github.com/smallbiznis/brokerage/internal/observability"
	obsmiddleware "github.com/smallbiznis/brokerage/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/brokerage/internal/observability/metrics"
	obstracing "github.com/smallbiznis/brokerage/internal/observability/tracing"
	policydomain "github.com/smallbiznis/brokerage/internal/policy/domain"
	"github.com/smallbiznis/brokerage/internal/providers"
	quotationdomain "github.com/smallbiznis/brokerage/internal/quotation/domain"
	"github.com/smallbiznis/brokerage/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	auth.Module,
	ratelimit.Module,
	providers.Module,
	document.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	addr := strings.TrimSpace(cfg.HTTPAddr)
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
			log.Info("http server listening", zap.String("addr", addr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
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
	engine       *gin.Engine
	cfg          config.Config
	log          *zap.Logger
	clock        clock.Clock
	authSvc      authdomain.Service
	authzSvc     authorization.Service
	auditSvc     auditdomain.Service
	limiter      *ratelimit.APILimiter
	clientSvc    clientdomain.Service
	agentSvc     agentdomain.Service
	assetSvc     assetdomain.Service
	insurerSvc   insurerdomain.Service
	quotationSvc quotationdomain.Service
	policySvc    policydomain.Service
	documents    *document.Service
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	Log          *zap.Logger
	Clock        clock.Clock
	AuthSvc      authdomain.Service
	AuthzSvc     authorization.Service
	AuditSvc     auditdomain.Service
	Limiter      *ratelimit.APILimiter `optional:"true"`
	ClientSvc    clientdomain.Service
	AgentSvc     agentdomain.Service
	AssetSvc     assetdomain.Service
	InsurerSvc   insurerdomain.Service
	QuotationSvc quotationdomain.Service
	PolicySvc    policydomain.Service
	Documents    *document.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		log:          p.Log.Named("http.server"),
		clock:        p.Clock,
		authSvc:      p.AuthSvc,
		authzSvc:     p.AuthzSvc,
		auditSvc:     p.AuditSvc,
		limiter:      p.Limiter,
		clientSvc:    p.ClientSvc,
		agentSvc:     p.AgentSvc,
		assetSvc:     p.AssetSvc,
		insurerSvc:   p.InsurerSvc,
		quotationSvc: p.QuotationSvc,
		policySvc:    p.PolicySvc,
		documents:    p.Documents,
	}

	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.AuthRequired(), s.RateLimit())

	// -------- Clients --------
	api.GET("/clients", s.authorize(authorization.ObjectClient, authorization.ActionClientView), s.ListClients)
	api.POST("/clients", s.authorize(authorization.ObjectClient, authorization.ActionClientCreate), s.CreateClient)
	api.GET("/clients/:id", s.authorize(authorization.ObjectClient, authorization.ActionClientView), s.GetClientByID)
	api.GET("/clients/:id/assets", s.authorize(authorization.ObjectAsset, authorization.ActionAssetView), s.ListClientAssets)
	api.GET("/clients/:id/agents", s.authorize(authorization.ObjectAgent, authorization.ActionAgentView), s.ListClientAgents)

	// -------- Agents --------
	api.GET("/agents", s.authorize(authorization.ObjectAgent, authorization.ActionAgentView), s.ListAgents)
	api.POST("/agents", s.authorize(authorization.ObjectAgent, authorization.ActionAgentCreate), s.CreateAgent)
	api.GET("/agents/:id", s.authorize(authorization.ObjectAgent, authorization.ActionAgentView), s.GetAgentByID)
	api.PATCH("/agents/:id", s.authorize(authorization.ObjectAgent, authorization.ActionAgentUpdate), s.UpdateAgent)
	api.DELETE("/agents/:id", s.authorize(authorization.ObjectAgent, authorization.ActionAgentDelete), s.DeleteAgent)
	api.GET("/agents/:id/clients", s.authorize(authorization.ObjectAgent, authorization.ActionAgentView), s.ListAgentClients)
	api.POST("/agents/:id/clients/:client_id", s.authorize(authorization.ObjectAgent, authorization.ActionAgentAssign), s.AssignAgentClient)
	api.DELETE("/agents/:id/clients/:client_id", s.authorize(authorization.ObjectAgent, authorization.ActionAgentAssign), s.UnassignAgentClient)

	// -------- Assets --------
	api.GET("/assets", s.authorize(authorization.ObjectAsset, authorization.ActionAssetView), s.ListAssets)
	api.POST("/assets", s.authorize(authorization.ObjectAsset, authorization.ActionAssetCreate), s.CreateAsset)
	api.GET("/assets/:id", s.authorize(authorization.ObjectAsset, authorization.ActionAssetView), s.GetAssetByID)
	api.PATCH("/assets/:id", s.authorize(authorization.ObjectAsset, authorization.ActionAssetUpdate), s.UpdateAsset)
	api.DELETE("/assets/:id", s.authorize(authorization.ObjectAsset, authorization.ActionAssetDelete), s.DeleteAsset)
	api.POST("/assets/:id/clients/:client_id", s.authorize(authorization.ObjectAsset, authorization.ActionAssetUpdate), s.AssignAssetClient)
	api.DELETE("/assets/:id/clients/:client_id", s.authorize(authorization.ObjectAsset, authorization.ActionAssetUpdate), s.UnassignAssetClient)
	api.GET("/assets/:id/quotations", s.authorize(authorization.ObjectQuotation, authorization.ActionQuotationView), s.ListAssetQuotations)

	// -------- Insurers --------
	api.GET("/insurers", s.authorize(authorization.ObjectInsurer, authorization.ActionInsurerView), s.ListInsurers)
	api.POST("/insurers", s.authorize(authorization.ObjectInsurer, authorization.ActionInsurerCreate), s.CreateInsurer)
	api.GET("/insurers/:id", s.authorize(authorization.ObjectInsurer, authorization.ActionInsurerView), s.GetInsurerByID)
	api.PATCH("/insurers/:id", s.authorize(authorization.ObjectInsurer, authorization.ActionInsurerUpdate), s.UpdateInsurer)
	api.DELETE("/insurers/:id", s.authorize(authorization.ObjectInsurer, authorization.ActionInsurerDelete), s.DeleteInsurer)
	api.GET("/insurers/:id/templates", s.authorize(authorization.ObjectInsurer, authorization.ActionInsurerView), s.GetInsurerTemplates)
	api.POST("/insurers/:id/deductibles", s.authorize(authorization.ObjectInsurer, authorization.ActionInsurerUpdate), s.CreateDeductible)
	api.POST("/insurers/:id/coverages", s.authorize(authorization.ObjectInsurer, authorization.ActionInsurerUpdate), s.CreateCoverage)
	api.POST("/insurers/:id/financing", s.authorize(authorization.ObjectInsurer, authorization.ActionInsurerUpdate), s.CreateFinancing)

	// -------- Quotations --------
	api.GET("/quotations", s.authorize(authorization.ObjectQuotation, authorization.ActionQuotationView), s.ListQuotations)
	api.POST("/quotations", s.authorize(authorization.ObjectQuotation, authorization.ActionQuotationCreate), s.CreateQuotation)
	api.POST("/quotations/simulate", s.authorize(authorization.ObjectQuotation, authorization.ActionQuotationSimulate), s.SimulateQuotation)
	api.GET("/quotations/:id", s.authorize(authorization.ObjectQuotation, authorization.ActionQuotationView), s.GetQuotationByID)
	api.PATCH("/quotations/:id/premium", s.authorize(authorization.ObjectQuotation, authorization.ActionQuotationUpdate), s.UpdateQuotationPremium)
	api.DELETE("/quotations/:id", s.authorize(authorization.ObjectQuotation, authorization.ActionQuotationDelete), s.DeleteQuotation)

	// -------- Policies --------
	api.GET("/policies", s.authorize(authorization.ObjectPolicy, authorization.ActionPolicyView), s.ListPolicies)
	api.POST("/policies", s.authorize(authorization.ObjectPolicy, authorization.ActionPolicyCreate), s.CreatePolicy)
	api.GET("/policies/code/:code", s.authorize(authorization.ObjectPolicy, authorization.ActionPolicyView), s.GetPolicyByCode)
	api.GET("/policies/:id", s.authorize(authorization.ObjectPolicy, authorization.ActionPolicyView), s.GetPolicyByID)
	api.PATCH("/policies/:id/cartera", s.authorize(authorization.ObjectPolicy, authorization.ActionPolicyCartera), s.UpdatePolicyCartera)
	api.POST("/policies/:id/installments/:number/pay", s.authorize(authorization.ObjectPolicy, authorization.ActionPolicyPay), s.RegisterPayment)
	api.POST("/policies/:id/cancel", s.authorize(authorization.ObjectPolicy, authorization.ActionPolicyCancel), s.CancelPolicy)
	api.GET("/policies/:id/schedule.pdf", s.authorize(authorization.ObjectPolicy, authorization.ActionPolicyView), s.GetPolicySchedule)
	api.POST("/policies/:id/schedule/archive", s.authorize(authorization.ObjectPolicy, authorization.ActionPolicyArchive), s.ArchivePolicySchedule)

	// -------- Installments --------
	api.GET("/installments/overdue", s.authorize(authorization.ObjectInstallment, authorization.ActionInstallmentView), s.ListOverdueInstallments)
	api.POST("/installments/overdue/reclassify", s.authorize(authorization.ObjectInstallment, authorization.ActionInstallmentReclassify), s.ReclassifyOverdueInstallments)

	// -------- Reports --------
	api.GET("/reports/cartera", s.authorize(authorization.ObjectReport, authorization.ActionReportView), s.GetCarteraReport)
	api.GET("/reports/cartera.xlsx", s.authorize(authorization.ObjectReport, authorization.ActionReportExport), s.ExportCarteraReport)

	// -------- Audit --------
	api.GET("/audit-logs", s.authorize(authorization.ObjectAuditLog, authorization.ActionAuditLogView), s.ListAuditLogs)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
