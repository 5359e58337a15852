package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/coursemint/settlement/docs"
	"github.com/coursemint/settlement/internal/app/api/handlers"
	"github.com/coursemint/settlement/internal/app/service/access"
	"github.com/coursemint/settlement/internal/app/service/diagnostics"
	"github.com/coursemint/settlement/internal/app/service/eventlog"
	"github.com/coursemint/settlement/internal/app/service/order"
	"github.com/coursemint/settlement/internal/app/service/settlement"
	"github.com/coursemint/settlement/internal/app/service/statistics"
	subsvc "github.com/coursemint/settlement/internal/app/service/subscription"
	cfgpkg "github.com/coursemint/settlement/pkg/config"

	mw "github.com/coursemint/settlement/internal/app/api/middleware"

	metrics "github.com/coursemint/settlement/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	// Add request tracing middleware only; request logger & access log are attached per group in registerRoutes
	r.Use(mw.TraceMiddleware())
	return r
}

type routeDeps struct {
	fx.In

	Log     *zap.SugaredLogger
	Cfg     *cfgpkg.Config
	Settler settlement.Settler
	Orders  *order.Service
	Access  *access.Service
	Subs    *subsvc.Service
	Stats   *statistics.Service
	Events  *eventlog.Service
	Diag    *diagnostics.Service
}

func registerRoutes(r *gin.Engine, d routeDeps) {
	log, cfg := d.Log, d.Cfg

	// Prometheus metrics
	if cfg != nil && cfg.MetricsAddr != "" {
		p := metrics.NewPrometheus(metrics.NewPrometheusOptions{
			ReqCntURLLabelMappingFn: func(c *gin.Context) string {
				if fp := c.FullPath(); fp != "" {
					return fp
				}
				return c.Request.URL.Path
			},
			Logger: log,
		})
		p.SetListenAddress(cfg.MetricsAddr)
		p.Use(r)

		log.Infow("metrics started", "addr", cfg.MetricsAddr)
	}

	// Public group: request logger + access log
	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterHealthRoutes(pub)
	// Swagger UI
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Payment settlement: called from browser checkout pages, so fully
	// permissive CORS with preflight handling.
	payment := r.Group("/api/v1/payment")
	payment.Use(cors.Default(), mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterSettlementRoutes(payment, d.Settler, log)

	// User-facing read APIs
	user := r.Group("/api/v1/user")
	user.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterUserRoutes(user, d.Orders, d.Access, d.Subs)

	// Admin APIs behind JWT auth
	admin := r.Group("/api/v1/admin")
	admin.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(), mw.AdminAuthMiddleware(cfg.Admin.JWTSecret))
	handlers.RegisterAdminRoutes(admin, d.Orders, d.Access, d.Subs, d.Stats, d.Events, d.Diag)
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
