package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/habit-tracker/internal/service"
	"github.com/habit-tracker/pkg/response"
)

const (
	// ContextKeyUserID is the key for user ID in gin context
	ContextKeyUserID = "user_id"
	// ContextKeyUsername is the key for username in gin context
	ContextKeyUsername = "username"
)

// SessionMiddleware resolves the session cookie, when present, into the
// user id and username of the gin context. Requests without a valid session
// pass through anonymously and a stale cookie is cleared.
func SessionMiddleware(authService *service.AuthService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}

		sess, err := authService.Authenticate(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, service.ErrNotAuthenticated) {
				response.InternalError(c, err)
				return
			}
			response.ClearCookie(c, cookieName)
			c.Next()
			return
		}

		// Set user info in context
		c.Set(ContextKeyUserID, sess.UserID)
		c.Set(ContextKeyUsername, sess.Username)

		c.Next()
	}
}

// RequireLogin redirects anonymous requests to the login page
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetUserID(c); !ok {
			response.RedirectWithNotice(c, "/login", "Please log in to access this page.")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserID gets the user ID from the gin context
func GetUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(ContextKeyUserID)
	if !exists {
		return 0, false
	}
	id, ok := userID.(uint)
	return id, ok
}

// GetUsername gets the username from the gin context
func GetUsername(c *gin.Context) string {
	username, exists := c.Get(ContextKeyUsername)
	if !exists {
		return ""
	}
	return username.(string)
}
