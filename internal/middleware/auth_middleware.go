package middleware

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"go-taskhub/internal/access"
	"go-taskhub/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const actorContextKey = "actor"

// ActorResolver turns the user id carried by the session token into a
// fully-loaded actor. Role and tenant come from the store on every
// request; the token itself is never trusted for authority.
type ActorResolver interface {
	ResolveActor(ctx context.Context, userID uuid.UUID) (access.Actor, error)
}

func SessionAuth(resolver ActorResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenString string

		authHeader := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			tokenString = ""
		}

		if tokenString == "" {
			if cookie, err := c.Cookie("access_token"); err == nil {
				tokenString = cookie
			}
		}

		if tokenString == "" {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Token not found", nil)
			c.Abort()
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(os.Getenv("JWT_SECRET")), nil
		})

		if err != nil || !token.Valid {
			code, message := "INVALID_TOKEN", "Invalid session token"
			if err != nil && strings.Contains(err.Error(), "expired") {
				code, message = "TOKEN_EXPIRED", "Session has expired"
			}
			response.Error(c, http.StatusUnauthorized, code, message, nil)
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid token claims", nil)
			c.Abort()
			return
		}

		userIDStr, ok := claims["user_id"].(string)
		if !ok || userIDStr == "" {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "User ID not found in token", nil)
			c.Abort()
			return
		}

		userID, err := uuid.Parse(userIDStr)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Malformed user ID in token", nil)
			c.Abort()
			return
		}

		actor, err := resolver.ResolveActor(c.Request.Context(), userID)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Session is no longer valid", nil)
			c.Abort()
			return
		}

		companyID := ""
		if !actor.IsSuperadmin() {
			companyID = actor.CompanyID.String()
		}

		c.Set(actorContextKey, actor)
		c.Set("user_id", actor.ID.String())
		c.Set("company_id", companyID)
		c.Set("role", string(actor.Role))

		c.Next()
	}
}

// ActorFrom returns the actor placed in the context by SessionAuth. The
// zero actor is returned on routes that skipped authentication.
func ActorFrom(c *gin.Context) access.Actor {
	if v, ok := c.Get(actorContextKey); ok {
		if actor, ok := v.(access.Actor); ok {
			return actor
		}
	}
	return access.Actor{}
}

// SetActor injects an actor directly, for handler tests.
func SetActor(c *gin.Context, actor access.Actor) {
	c.Set(actorContextKey, actor)
	c.Set("user_id", actor.ID.String())
	if !actor.IsSuperadmin() {
		c.Set("company_id", actor.CompanyID.String())
	}
	c.Set("role", string(actor.Role))
}

// RequireRoles gates a route to the given roles. Task-level decisions
// stay in the access table; this only guards coarse route groups.
func RequireRoles(roles ...access.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ActorFrom(c)

		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}

		response.Error(c, http.StatusForbidden, "FORBIDDEN",
			"You do not have permission to access this resource", nil)
		c.Abort()
	}
}
