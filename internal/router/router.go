package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/habit-tracker/internal/config"
	"github.com/habit-tracker/internal/handler"
	"github.com/habit-tracker/internal/metrics"
	"github.com/habit-tracker/internal/middleware"
	"github.com/habit-tracker/internal/service"
	"github.com/habit-tracker/pkg/response"
	"github.com/sirupsen/logrus"
)

// BuildInfo is reported by the health endpoint
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// Deps are the services the router dispatches to
type Deps struct {
	Config          *config.Config
	Logger          *logrus.Logger
	AuthService     *service.AuthService
	HabitService    *service.HabitService
	ProgressService *service.ProgressService
	// LoginLimiter is optional
	LoginLimiter handler.LoginLimiter
	Build        BuildInfo
}

// New builds the gin engine with middleware and all routes
func New(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLoggerMiddleware(d.Logger))
	router.Use(metrics.Middleware())
	handler.LoadTemplates(router)

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, gin.H{
			"status":     "ok",
			"version":    d.Build.Version,
			"commit":     d.Build.Commit,
			"build_time": d.Build.BuildTime,
			"time":       time.Now().Unix(),
		})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	pages := router.Group("/")
	pages.Use(response.SecureCookies(d.Config.Session.Secure))
	pages.Use(middleware.SessionMiddleware(d.AuthService, d.Config.Session.CookieName))
	requireLogin := middleware.RequireLogin()

	authHandler := handler.NewAuthHandler(d.AuthService, d.Config.Session, d.LoginLimiter, d.Logger)
	authHandler.RegisterRoutes(pages, requireLogin)

	habitHandler := handler.NewHabitHandler(d.HabitService, d.ProgressService)
	habitHandler.RegisterRoutes(pages, requireLogin)

	return router
}
