package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/pyar/asocmembers/internal/clock"
	"github.com/pyar/asocmembers/internal/config"
	debtdomain "github.com/pyar/asocmembers/internal/debt/domain"
	eventdomain "github.com/pyar/asocmembers/internal/event/domain"
	"github.com/pyar/asocmembers/internal/gateway/mercadopago"
	invoicedomain "github.com/pyar/asocmembers/internal/invoice/domain"
	ledgerdomain "github.com/pyar/asocmembers/internal/ledger/domain"
	memberdomain "github.com/pyar/asocmembers/internal/member/domain"
	"github.com/pyar/asocmembers/internal/observability/tracing"
	"github.com/pyar/asocmembers/internal/reconcile"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(run),
)

type recordSource interface {
	FetchRecords(ctx context.Context, filter mercadopago.Filter) ([]reconcile.Record, error)
}

type reconciler interface {
	Reconcile(ctx context.Context, records []reconcile.Record, customFee *decimal.Decimal) (reconcile.Summary, error)
}

func NewEngine(cfg config.Config, log *zap.Logger, tp trace.TracerProvider) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log.Named("http"), MiddlewareConfig{
		Debug:           cfg.LogLevel == "debug",
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(tracing.GinMiddleware(tp))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	Log        *zap.Logger
	Clock      clock.Clock
	MemberSvc  memberdomain.Service
	LedgerSvc  ledgerdomain.Service
	DebtSvc    debtdomain.Service
	InvoiceSvc invoicedomain.Service
	EventSvc   eventdomain.Service
	Gateway    *mercadopago.Client
	Reconciler *reconcile.Reconciler
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	log        *zap.Logger
	clock      clock.Clock
	memberSvc  memberdomain.Service
	ledgerSvc  ledgerdomain.Service
	debtSvc    debtdomain.Service
	invoiceSvc invoicedomain.Service
	eventSvc   eventdomain.Service
	source     recordSource
	reconciler reconciler
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		log:        p.Log.Named("server"),
		clock:      p.Clock,
		memberSvc:  p.MemberSvc,
		ledgerSvc:  p.LedgerSvc,
		debtSvc:    p.DebtSvc,
		invoiceSvc: p.InvoiceSvc,
		eventSvc:   p.EventSvc,
		source:     p.Gateway,
		reconciler: p.Reconciler,
	}
	s.registerAPIRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/members/:id", s.GetMember)
		api.POST("/members/:id/payments", s.RecordPayment)
		api.GET("/members/:id/debt", s.GetMemberDebt)
		api.GET("/payments/:id/quotas", s.ListPaymentQuotas)

		api.GET("/reports/debts", s.DebtReport)

		api.GET("/events/:id/money-report", s.EventMoneyReport)
		api.GET("/sponsorings/pending", s.PendingSponsorings)

		api.POST("/reconcile", s.Reconcile)
		api.POST("/invoices/generate", s.GenerateInvoices)
	}
}

func run(lc fx.Lifecycle, shutdowner fx.Shutdowner, cfg config.Config, log *zap.Logger, s *Server) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.String("addr", srv.Addr), zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			log.Info("http server listening", zap.String("addr", srv.Addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
