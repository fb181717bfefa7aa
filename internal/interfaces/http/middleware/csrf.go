package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
)

// CSRFTokenKey is the gin context key holding the request's CSRF token
const CSRFTokenKey = "csrf_token"

// CSRFFailureDetail is the detail sent when the token check fails
const CSRFFailureDetail = "CSRF token missing or incorrect."

// CSRFConfig names the cookie holding the token and the header it must be
// echoed in
type CSRFConfig struct {
	CookieName string
	HeaderName string
	// FormField is checked when the header is absent, for plain HTML forms
	FormField string
	// OnReject runs before a rejected request is aborted
	OnReject func(c *gin.Context)
}

// DefaultCSRFConfig returns the cookie and header names the client expects
func DefaultCSRFConfig() CSRFConfig {
	return CSRFConfig{
		CookieName: "csrftoken",
		HeaderName: "X-CSRFToken",
		FormField:  "csrfmiddlewaretoken",
	}
}

func newCSRFToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// EnsureCSRFCookie issues a token cookie to safe requests that arrive without
// one. The cookie is readable by page scripts.
func EnsureCSRFCookie(cfg CSRFConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cfg.CookieName)
		if err != nil || token == "" {
			if isSafeMethod(c.Request.Method) {
				token = newCSRFToken()
				c.SetSameSite(http.SameSiteLaxMode)
				c.SetCookie(cfg.CookieName, token, 365*24*60*60, "/", "", false, false)
			}
		}
		if token != "" {
			c.Set(CSRFTokenKey, token)
		}
		c.Next()
	}
}

// RequireCSRF rejects unsafe requests whose header does not match the
// cookie with 403 and a JSON failure body
func RequireCSRF(cfg CSRFConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}

		cookie, _ := c.Cookie(cfg.CookieName)
		header := c.GetHeader(cfg.HeaderName)
		if header == "" && cfg.FormField != "" && isFormPost(c) {
			header = c.PostForm(cfg.FormField)
		}
		if cookie == "" || header == "" || subtle.ConstantTimeCompare([]byte(cookie), []byte(header)) != 1 {
			if cfg.OnReject != nil {
				cfg.OnReject(c)
			}
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"detail":  CSRFFailureDetail,
			})
			return
		}
		c.Next()
	}
}

// GetCSRFToken returns the token seen or issued for this request
func GetCSRFToken(c *gin.Context) string {
	return c.GetString(CSRFTokenKey)
}

func isFormPost(c *gin.Context) bool {
	switch c.ContentType() {
	case binding.MIMEPOSTForm, binding.MIMEMultipartPOSTForm:
		return true
	}
	return false
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
