package middleware

import (
	"net/http"
	"strings"

	"hotel/internal/authz"
	"hotel/internal/domain"
	"hotel/internal/pkg/jwt"
	"hotel/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
	ctxEmail  = "email"
)

// JWTAuth validates the bearer token and stores the caller on the context.
func JWTAuth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Missing Authorization header")
			c.Abort()
			return
		}

		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		tokenStr = strings.TrimSpace(tokenStr)
		if !ok || tokenStr == "" {
			response.Error(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Authorization header must be 'Bearer <token>'")
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateToken(tokenStr)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			c.Abort()
			return
		}

		SetActor(c, authz.Actor{ID: claims.UserID, Role: domain.UserRole(claims.Role), Email: claims.Email})
		c.Next()
	}
}

func SetActor(c *gin.Context, actor authz.Actor) {
	c.Set(ctxUserID, actor.ID)
	c.Set(ctxRole, string(actor.Role))
	c.Set(ctxEmail, actor.Email)
}

// CurrentActor returns the authenticated caller, or a zero Actor that every
// authorization check rejects.
func CurrentActor(c *gin.Context) authz.Actor {
	return authz.Actor{
		ID:    c.GetInt64(ctxUserID),
		Role:  domain.UserRole(c.GetString(ctxRole)),
		Email: c.GetString(ctxEmail),
	}
}
