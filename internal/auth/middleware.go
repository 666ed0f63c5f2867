package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID    = "user_id"
	ctxUserRole  = "user_role"
	ctxTrainerID = "trainer_id"
)

func AuthMiddleware(accessTokenSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is empty"})
			c.Abort()
			return
		}

		claims, err := ValidateToken(tokenString, accessTokenSecret)
		if err != nil {
			switch {
			case errors.Is(err, ErrTokenExpired):
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Token expired"})
			case errors.Is(err, ErrUnknownRole):
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Unknown role"})
			default:
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or malformed token"})
			}
			c.Abort()
			return
		}

		if claims.TokenType != "access" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
			c.Abort()
			return
		}

		SetIdentity(c, claims.UserID, claims.Role, claims.TrainerID)
		c.Next()
	}
}

// RequireRole lets the request through when the caller holds any of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(ctxUserRole)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User role not found"})
			c.Abort()
			return
		}

		roleStr, ok := role.(string)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid role type"})
			c.Abort()
			return
		}

		for _, r := range roles {
			if roleStr == r {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		c.Abort()
	}
}

// SetIdentity stores the caller on the context the way AuthMiddleware does.
func SetIdentity(c *gin.Context, userID, role, trainerID string) {
	c.Set(ctxUserID, userID)
	c.Set(ctxUserRole, role)
	if trainerID != "" {
		c.Set(ctxTrainerID, trainerID)
	}
}

func GetUserID(c *gin.Context) (string, bool) {
	return getString(c, ctxUserID)
}

func GetRole(c *gin.Context) (string, bool) {
	return getString(c, ctxUserRole)
}

func GetTrainerID(c *gin.Context) (string, bool) {
	return getString(c, ctxTrainerID)
}

// CanActForTrainer reports whether the caller may manage trainerID's schedule.
func CanActForTrainer(c *gin.Context, trainerID string) bool {
	role, _ := GetRole(c)
	switch role {
	case RoleAdmin:
		return true
	case RoleTrainer:
		own, ok := GetTrainerID(c)
		return ok && own == trainerID
	}
	return false
}

func getString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		return "", false
	}

	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}

	return s, true
}
