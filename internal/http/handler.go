package http

import (
	"context"
	"errors"
	gohttp "net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/velodex/route-advisor/internal/advisor"
	"github.com/velodex/route-advisor/internal/config"
	"github.com/velodex/route-advisor/internal/http/httputil"
	"github.com/velodex/route-advisor/internal/http/middlewares"
)

const HTTP_SERVICE = "http-service"

type HTTPService struct {
	container.BaseDIInstance

	advisorSvc  *advisor.Service
	rateLimiter *middlewares.RateLimiter
	server      *gohttp.Server
	conf        *config.GeneralConfig

	handlers []httputil.IHttpHandler
}

func (svc *HTTPService) ID() string {
	return HTTP_SERVICE
}

func (svc *HTTPService) Configure(c container.IContainer) error {
	svc.conf = c.GetConfig(config.GENERAL_CONFIG_KEY).(*config.GeneralConfig)
	if svc.conf == nil {
		return errors.New("invalid server config")
	}

	svc.advisorSvc = c.Instance(advisor.ADVISOR_SERVICE).(*advisor.Service)
	svc.rateLimiter = middlewares.NewRateLimiter(10, 20)

	svc.handlers = []httputil.IHttpHandler{
		NewQuoteHandler(svc.advisorSvc),
		NewPoolHandler(svc.advisorSvc),
	}
	return nil
}

func (svc *HTTPService) Start() error {
	if svc.conf.Env == config.ProdEnv {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	r.Use(gin.Recovery())

	corsConf := cors.DefaultConfig()
	corsConf.AllowAllOrigins = true
	r.Use(cors.New(corsConf))

	r.Use(middlewares.MetricsMiddleware())
	r.Use(svc.rateLimiter.RateLimitMiddleware())

	r.GET("/health", svc.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	pub := r.Group("")
	admin := r.Group("admin")
	for _, h := range svc.handlers {
		h.SetRoutes(pub.Group(h.Root()), admin.Group(h.Root()))
	}

	svc.server = &gohttp.Server{
		Addr:    svc.conf.HTTPHost + ":" + svc.conf.HTTPPort,
		Handler: r,
	}
	log.Info().Str("host", svc.conf.HTTPHost).Str("port", svc.conf.HTTPPort).Msg("http server started")

	if err := svc.server.ListenAndServe(); err != nil && err != gohttp.ErrServerClosed {
		return err
	}
	return nil
}

func (svc *HTTPService) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := svc.server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("failed to stop http server")
		return err
	}
	log.Info().Msg("http server stopped gracefully")
	return nil
}

func (svc *HTTPService) health(c *gin.Context) {
	stats := svc.advisorSvc.GraphStats()
	c.JSON(gohttp.StatusOK, gin.H{
		"status":   "ok",
		"chain_id": svc.advisorSvc.ChainID(),
		"graph_stats": gin.H{
			"asset_count":      stats.AssetCount,
			"pool_count":       stats.PoolCount,
			"last_update_unix": stats.LastUpdateUnix,
		},
	})
}
