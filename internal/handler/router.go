package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"

	"mechanic-booking/internal/handler/api"
	"mechanic-booking/internal/handler/middleware"
	"mechanic-booking/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

type RouterParams struct {
	fx.In

	Engine         *gin.Engine
	Config         config.Config
	Logger         *middleware.Logger
	Gatherer       prometheus.Gatherer
	RateLimiter    *middleware.RateLimiter
	AuthMiddleware *middleware.AuthMiddleware
	Availability   *api.AvailabilityHandler
	Booking        *api.BookingHandler
	Webhook        *api.WebhookHandler
	Operator       *api.OperatorHandler
}

func NewRouter(p RouterParams) {
	setupMiddleware(p.Engine, p.Config, p.Logger)
	setupRoutes(p)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config, logger *middleware.Logger) {
	// outermost, so panics in any later middleware are caught
	engine.Use(logger.Recovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(logger.LoggingMiddleware())
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(p RouterParams) {
	engine := p.Engine
	engine.GET("/health", healthCheck)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{})))

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	limited := []gin.HandlerFunc{p.RateLimiter.Middleware()}

	apiGroup := engine.Group("/api")
	{
		addRoutes(apiGroup, []route{
			{Method: http.MethodGet, Path: "/availability", Handler: p.Availability.GetDay},
			{Method: http.MethodGet, Path: "/catalog", Handler: p.Availability.GetCatalog},
			{Method: http.MethodPost, Path: "/quotes", Handler: p.Booking.Quote},
			{Method: http.MethodPost, Path: "/bookings", Handler: p.Booking.Submit, Mw: limited},
			{Method: http.MethodGet, Path: "/bookings/:reference", Handler: p.Booking.GetByReference, Mw: limited},
			{Method: http.MethodPost, Path: "/webhooks/payments", Handler: p.Webhook.Payments},
		})

		operator := apiGroup.Group("/operator")
		{
			addRoutes(operator, []route{
				{Method: http.MethodPost, Path: "/login", Handler: p.Operator.Login, Mw: limited},
				{Method: http.MethodPost, Path: "/logout", Handler: p.Operator.Logout},
			})

			authRequired := operator.Group("")
			authRequired.Use(p.AuthMiddleware.RequireOperator())
			addRoutes(authRequired, []route{
				{Method: http.MethodGet, Path: "/reservations", Handler: p.Operator.List},
				{Method: http.MethodGet, Path: "/reservations/:id", Handler: p.Operator.Get},
				{Method: http.MethodPost, Path: "/reservations/:id/approve", Handler: p.Operator.Approve},
				{Method: http.MethodPost, Path: "/reservations/:id/cancel", Handler: p.Operator.Cancel},
				{Method: http.MethodGet, Path: "/reconciliations", Handler: p.Operator.Reconciliations},
			})
		}
	}
}

// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
