package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/okonomi-dev/cloud-warden/internal/db"
)

// PrincipalResolver loads the acting user for a validated token subject.
type PrincipalResolver interface {
	GetUser(id uuid.UUID) (*db.User, error)
}

// AuthRequired validates the bearer token and resolves the acting User,
// storing it under "principal" for handlers.
func AuthRequired(jwtSecret string, users PrincipalResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Bearer token required"})
			c.Abort()
			return
		}

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(jwtSecret), nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token subject"})
			c.Abort()
			return
		}

		user, err := users.GetUser(userID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unknown principal"})
			c.Abort()
			return
		}

		c.Set("principal", user)
		c.Set("user_id", user.ID.String())
		c.Next()
	}
}

// Principal returns the resolved acting user.
func Principal(c *gin.Context) *db.User {
	v, ok := c.Get("principal")
	if !ok {
		return nil
	}
	return v.(*db.User)
}
