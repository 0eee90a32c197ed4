package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/modernblog/bloghub/internal/auth"
	"github.com/modernblog/bloghub/internal/config"
	"github.com/modernblog/bloghub/internal/http/handlers"
	"github.com/modernblog/bloghub/internal/http/middlewares"
	"github.com/modernblog/bloghub/internal/notifications"
	"github.com/modernblog/bloghub/internal/observability"
	"github.com/modernblog/bloghub/internal/repo/postgres"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type RouterDeps struct {
	Log          *slog.Logger
	Pool         *pgxpool.Pool
	Cfg          config.Config
	JWT          *auth.Manager
	Notifier     notifications.Notifier
	Prom         *observability.Prom
	Registry     *prometheus.Registry
	LimiterStore middlewares.LimiterStore
	Tracing      bool
}

func NewRouter(deps RouterDeps) *gin.Engine {
	if !deps.Cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(deps.Log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(deps.Cfg.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(1 << 20))
	r.Use(middlewares.RequireJSON())

	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}

	if deps.Tracing {
		r.Use(otelgin.Middleware("bloghub-api"))
	}

	// health + diagnostics
	ping := func(ctx context.Context) error {
		if deps.Pool == nil {
			return nil
		}

		pctx, cancel := context.WithTimeout(ctx, 1*time.Second)
		defer cancel()

		return deps.Pool.Ping(pctx)
	}

	testDB := func(ctx context.Context) error {
		qctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		var one int
		return deps.Pool.QueryRow(qctx, `SELECT 1`).Scan(&one)
	}

	h := handlers.NewHealthHandler(ping, testDB)
	r.GET("/", h.Root)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/test-db", h.TestDB)

	if deps.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	// wire up repositories
	usersRepo := postgres.NewUsersRepo(deps.Pool, deps.Prom)
	blogsRepo := postgres.NewBlogsRepo(deps.Pool, deps.Prom)

	// wire up handlers
	usersHandler := handlers.NewUsersHandler(usersRepo, deps.JWT)
	blogsHandler := handlers.NewBlogsHandler(blogsRepo)
	resetHandler := handlers.NewPasswordResetHandler(usersRepo, deps.Notifier, deps.Cfg)

	authMW := middlewares.NewAuthMiddleware(deps.JWT)

	// credential endpoints share a tight limit; reads stay unthrottled
	authLimiter := middlewares.NewRateLimiter(deps.LimiterStore, 10, time.Minute)

	users := r.Group("/users")
	{
		users.GET("", usersHandler.List)
		users.POST("/registration", usersHandler.Register)
		users.POST("/login", authLimiter.Middleware(middlewares.KeyByIP), usersHandler.Login)
		users.GET("/:id", usersHandler.GetByID)
		users.PATCH("/:id", authMW.RequireAuth(), usersHandler.Update)
		users.DELETE("/:id", authMW.RequireAuth(), usersHandler.Delete)
	}

	blogs := r.Group("/blogs")
	{
		blogs.GET("", blogsHandler.List)
		blogs.GET("/email/:email", blogsHandler.ListByAuthor)
		blogs.GET("/:id", blogsHandler.GetByID)
		blogs.POST("", authMW.RequireAuth(), blogsHandler.Create)
		blogs.PATCH("/:id", authMW.RequireAuth(), blogsHandler.Update)
		blogs.DELETE("/:id", authMW.RequireAuth(), blogsHandler.Delete)
	}

	reset := r.Group("/password-reset")
	reset.Use(authLimiter.Middleware(middlewares.KeyByIP))
	{
		reset.POST("/request", resetHandler.Request)
		reset.GET("/verify-token", resetHandler.VerifyToken)
		reset.POST("/reset", resetHandler.Reset)
	}

	return r
}
