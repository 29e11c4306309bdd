package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/habit-tracker/internal/config"
	"github.com/habit-tracker/internal/middleware"
	"github.com/habit-tracker/internal/service"
	"github.com/habit-tracker/pkg/response"
	"github.com/sirupsen/logrus"
)

// LoginLimiter throttles login attempts per key
type LoginLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
	Current(ctx context.Context, key string) (int, error)
}

// credentialsForm is the register and login form
type credentialsForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

// AuthHandler handles the landing page, registration, login and logout
type AuthHandler struct {
	authService *service.AuthService
	sessionCfg  config.SessionConfig
	limiter     LoginLimiter
	logger      *logrus.Logger
}

// NewAuthHandler creates a new AuthHandler. limiter may be nil to disable
// login throttling.
func NewAuthHandler(
	authService *service.AuthService,
	sessionCfg config.SessionConfig,
	limiter LoginLimiter,
	logger *logrus.Logger,
) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		sessionCfg:  sessionCfg,
		limiter:     limiter,
		logger:      logger,
	}
}

// Index shows the landing page or sends logged-in users to their dashboard
// GET /
func (h *AuthHandler) Index(c *gin.Context) {
	if _, ok := middleware.GetUserID(c); ok {
		response.Redirect(c, "/dashboard")
		return
	}
	response.Page(c, "landing.html", nil)
}

// RegisterPage shows the registration form
// GET /register
func (h *AuthHandler) RegisterPage(c *gin.Context) {
	response.Page(c, "register.html", nil)
}

// Register handles user registration
// POST /register
func (h *AuthHandler) Register(c *gin.Context) {
	var form credentialsForm
	if err := c.ShouldBind(&form); err != nil {
		response.RedirectWithNotice(c, "/register", "Please provide username and password")
		return
	}

	_, err := h.authService.Register(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPasswordTooLong):
			response.RedirectWithNotice(c, "/register", "Password is too long")
		case errors.Is(err, service.ErrValidation):
			response.RedirectWithNotice(c, "/register", "Please provide username and password")
		case errors.Is(err, service.ErrConflict):
			response.RedirectWithNotice(c, "/register", "Username already taken")
		default:
			response.InternalError(c, err)
		}
		return
	}

	response.RedirectWithNotice(c, "/login", "Registered! Please login.")
}

// LoginPage shows the login form
// GET /login
func (h *AuthHandler) LoginPage(c *gin.Context) {
	response.Page(c, "login.html", nil)
}

// Login authenticates the user and sets the session cookie
// POST /login
func (h *AuthHandler) Login(c *gin.Context) {
	var form credentialsForm
	if err := c.ShouldBind(&form); err != nil {
		response.RedirectWithNotice(c, "/login", "Invalid credentials")
		return
	}
	ctx := c.Request.Context()
	limitKey := c.ClientIP() + ":" + form.Username

	if h.limiter != nil {
		allowed, err := h.limiter.Allow(ctx, limitKey)
		if err != nil {
			// a throttling outage must not lock everyone out
			h.logger.WithError(err).Warn("Login limiter unavailable")
		} else if !allowed {
			entry := h.logger.WithField("username", form.Username).WithField("client_ip", c.ClientIP())
			if attempts, err := h.limiter.Current(ctx, limitKey); err == nil {
				entry = entry.WithField("attempts", attempts)
			}
			entry.Warn("Login throttled")
			response.RedirectWithNotice(c, "/login", "Too many login attempts, try again later")
			return
		}
	}

	result, err := h.authService.Login(ctx, form.Username, form.Password)
	if err != nil {
		if errors.Is(err, service.ErrAuth) {
			response.RedirectWithNotice(c, "/login", "Invalid credentials")
			return
		}
		response.InternalError(c, err)
		return
	}

	if h.limiter != nil {
		if err := h.limiter.Reset(ctx, limitKey); err != nil {
			h.logger.WithError(err).Warn("Failed to reset login attempts")
		}
	}

	h.logger.WithField("user_id", result.User.ID).Info("User logged in")
	response.SetCookie(c, h.sessionCfg.CookieName, result.Token, int(time.Until(result.ExpiresAt).Seconds()))
	response.Redirect(c, "/dashboard")
}

// Logout ends the session and clears the cookie
// GET /logout
func (h *AuthHandler) Logout(c *gin.Context) {
	token, _ := c.Cookie(h.sessionCfg.CookieName)
	if err := h.authService.Logout(c.Request.Context(), token); err != nil {
		response.InternalError(c, err)
		return
	}
	response.ClearCookie(c, h.sessionCfg.CookieName)
	response.Redirect(c, "/")
}

// RegisterRoutes registers the public pages and the logout route
func (h *AuthHandler) RegisterRoutes(router gin.IRouter, requireLogin gin.HandlerFunc) {
	router.GET("/", h.Index)
	router.GET("/register", h.RegisterPage)
	router.POST("/register", h.Register)
	router.GET("/login", h.LoginPage)
	router.POST("/login", h.Login)
	router.GET("/logout", requireLogin, h.Logout)
}
