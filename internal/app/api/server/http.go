package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/paygate/docs"
	"github.com/fatflowers/paygate/internal/app/api/handlers"
	mw "github.com/fatflowers/paygate/internal/app/api/middleware"
	"github.com/fatflowers/paygate/internal/app/service/callback"
	"github.com/fatflowers/paygate/internal/app/service/gateway"
	"github.com/fatflowers/paygate/internal/app/service/statistics"
	"github.com/fatflowers/paygate/internal/app/service/wallet"
	cfgpkg "github.com/fatflowers/paygate/pkg/config"
	"github.com/fatflowers/paygate/pkg/metrics"
)

func newEngine(cfg *cfgpkg.Config) *gin.Engine {
	if cfg.Env == cfgpkg.EnvProd {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	// Add request tracing middleware only; request logger & access log are attached per group in registerRoutes
	r.Use(mw.TraceMiddleware())
	r.Use(handlers.DebugErrorsMiddleware(cfg))
	return r
}

type routeDeps struct {
	fx.In

	Log       *zap.SugaredLogger
	Cfg       *cfgpkg.Config
	Registry  prometheus.Registerer
	Manager   *gateway.Manager
	Callbacks *callback.CallbackHandler
	Wallets   *wallet.Service
	Stats     *statistics.Service
}

func registerRoutes(lc fx.Lifecycle, r *gin.Engine, d routeDeps) error {
	log, cfg := d.Log, d.Cfg
	// Prometheus metrics
	if cfg.MetricsAddr != "" {
		p, err := metrics.NewPrometheus(metrics.NewPrometheusOptions{
			Registerer: d.Registry,
			Logger:     log,
		})
		if err != nil {
			return fmt.Errorf("failed to register http metrics: %w", err)
		}
		p.SetListenAddress(cfg.MetricsAddr)
		p.Use(r)
		lc.Append(fx.Hook{OnStop: p.Shutdown})
	}

	// Public group: request logger + access log
	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterHealthRoutes(pub, d.Manager)
	// Swagger UI
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	apiV1 := r.Group("/api/v1")
	apiV1.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())

	// Bank redirects carry no user token; the gateway is trusted through verify.
	handlers.RegisterCallbackRoutes(apiV1.Group("/payment/callback"), d.Callbacks, cfg)

	user := mw.UserAuthMiddleware(cfg)
	handlers.RegisterPaymentRoutes(apiV1.Group("/payment", user), d.Manager)
	handlers.RegisterWalletRoutes(apiV1.Group("/wallet", user), d.Wallets)

	handlers.RegisterAdminRoutes(apiV1.Group("/admin", mw.AdminAuthMiddleware(cfg)), d.Manager, d.Stats, d.Wallets)
	return nil
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
