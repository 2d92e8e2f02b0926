package middleware

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"taniconnect_back_end/internal/models"
	"taniconnect_back_end/internal/repository"
)

const principalKey = "principal"

type PrincipalLoader interface {
	Principal(ctx context.Context, id string) (*models.Principal, error)
}

// AuthRequired validates the HS256 bearer token, loads the user it names
// and stores the principal in the gin context.
func AuthRequired(secret []byte, users PrincipalLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			unauthorized(c, "You are not logged in. Please log in to get access.")
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			log.Printf("❌ Rejected JWT: %v", err)
			unauthorized(c, "Invalid or expired token. Please log in again.")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			unauthorized(c, "Invalid or expired token. Please log in again.")
			return
		}
		userID := claimString(claims, "id")
		if userID == "" {
			userID = claimString(claims, "user_id")
		}
		if userID == "" {
			unauthorized(c, "Invalid or expired token. Please log in again.")
			return
		}

		principal, err := users.Principal(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				unauthorized(c, "The user belonging to this token no longer exists.")
				return
			}
			log.Printf("❌ Failed to load user %s: %v", userID, err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
			return
		}

		SetPrincipal(c, *principal)
		c.Next()
	}
}

func SetPrincipal(c *gin.Context, p models.Principal) {
	c.Set(principalKey, p)
}

// PrincipalFrom returns the principal stored by AuthRequired.
func PrincipalFrom(c *gin.Context) (models.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return models.Principal{}, false
	}
	p, ok := v.(models.Principal)
	return p, ok
}

// TokenFromQuery lets clients that cannot set headers, such as browser
// WebSockets, pass the bearer token as a query parameter. A present
// Authorization header always wins.
func TokenFromQuery(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			if token := c.Query(param); token != "" {
				c.Request.Header.Set("Authorization", "Bearer "+token)
			}
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func claimString(claims jwt.MapClaims, key string) string {
	s, _ := claims[key].(string)
	return s
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": msg})
}
