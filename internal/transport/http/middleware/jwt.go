package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"gopher-accounts/internal/pkg/jwtutil"
	"gopher-accounts/internal/transport/http/response"
)

const ContextUserIDKey = "user_id"

const credentialsDetail = "Could not validate credentials"

type TokenParser interface {
	Parse(token string) (*jwtutil.Claims, error)
}

// AuthJWT stores the token subject under ContextUserIDKey. It does not load
// the user; handlers act on that id alone.
func AuthJWT(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			unauthorized(c)
			return
		}

		claims, err := parser.Parse(token)
		if err != nil {
			RequestLog(c, nil).Debug(c.Request.Context(), "bearer token rejected", "error", err)
			unauthorized(c)
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Next()
	}
}

// UserID returns the identity set by AuthJWT.
func UserID(c *gin.Context) (uint, bool) {
	raw, exists := c.Get(ContextUserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := raw.(uint)
	return id, ok && id != 0
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	response.Abort(c, http.StatusUnauthorized, credentialsDetail)
}
