package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-tracker/internal/constants"
)

func sessionCookie(value string, maxAge int, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// SetSessionCookie stores token in an HTTP-only cookie scoped to "/".
func SetSessionCookie(c *gin.Context, token string, ttl time.Duration, secure bool) {
	http.SetCookie(c.Writer, sessionCookie(token, int(ttl.Seconds()), secure))
}

// ClearSessionCookie expires the session cookie on the client.
func ClearSessionCookie(c *gin.Context, secure bool) {
	http.SetCookie(c.Writer, sessionCookie("", -1, secure))
}

// SessionToken returns the raw token from the request cookie, or "".
func SessionToken(c *gin.Context) string {
	token, err := c.Cookie(constants.SessionCookieName)
	if err != nil {
		return ""
	}
	return token
}
