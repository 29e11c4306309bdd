package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NoticeCookie carries a one-shot message to the next rendered page
const NoticeCookie = "notice"

const secureCookiesKey = "response.secure_cookies"

// Response is the standard JSON response structure
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success sends a successful JSON response
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Redirect sends a 303 redirect so that form posts are followed by a GET
func Redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusSeeOther, location)
}

// RedirectWithNotice stores a notice for the next page and redirects
func RedirectWithNotice(c *gin.Context, location, notice string) {
	SetNotice(c, notice)
	Redirect(c, location)
}

// SecureCookies marks every cookie written through this package as Secure
// when secure is set.
func SecureCookies(secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(secureCookiesKey, secure)
		c.Next()
	}
}

// SetCookie writes an HttpOnly, SameSite=Lax cookie on path "/"
func SetCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", c.GetBool(secureCookiesKey), true)
}

// ClearCookie expires the named cookie
func ClearCookie(c *gin.Context, name string) {
	SetCookie(c, name, "", -1)
}

// SetNotice stores a notice shown by the next rendered page. gin escapes the
// cookie value, so any UTF-8 text survives.
func SetNotice(c *gin.Context, notice string) {
	SetCookie(c, NoticeCookie, notice, 60)
}

// TakeNotice returns the pending notice and clears it
func TakeNotice(c *gin.Context) string {
	raw, err := c.Cookie(NoticeCookie)
	if err != nil || raw == "" {
		return ""
	}
	ClearCookie(c, NoticeCookie)
	return raw
}

// Page renders an HTML template with the pending notice under "Notice"
func Page(c *gin.Context, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["Notice"] = TakeNotice(c)
	c.HTML(http.StatusOK, name, data)
}

// PNG sends an image that must not be cached
func PNG(c *gin.Context, image []byte) {
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", image)
}

// InternalError records err for the request logger and sends a 500
func InternalError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.String(http.StatusInternalServerError, "internal server error")
	c.Abort()
}
