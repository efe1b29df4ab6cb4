package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"masterdata/internal/core/actor"
	"masterdata/internal/core/apperror"
)

// TokenValidator validates bearer tokens into actors.
type TokenValidator interface {
	ValidateToken(tokenString string) (*actor.Actor, error)
}

// JWTValidator validates HMAC-signed JWTs.
type JWTValidator struct {
	secret []byte
}

// NewJWTValidator creates a validator for the shared secret.
func NewJWTValidator(secret string) *JWTValidator {
	return &JWTValidator{secret: []byte(secret)}
}

// ValidateToken parses and verifies the token, mapping its claims onto the
// actor consulted by permission predicates and the audit trail.
func (v *JWTValidator) ValidateToken(tokenString string) (*actor.Actor, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	a := &actor.Actor{Claims: map[string]any(claims)}
	if sub, _ := claims.GetSubject(); sub != "" {
		a.Subject = sub
	}
	if email, ok := claims["email"].(string); ok {
		a.Email = email
	}
	if role, ok := claims["role"].(string); ok {
		a.Role = role
	}
	return a, nil
}

// Auth middleware validates JWT tokens and populates the request actor.
func Auth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		a, err := validator.ValidateToken(parts[1])
		if err != nil {
			_ = c.Error(apperror.NewUnauthorized("invalid token"))
			c.Abort()
			return
		}

		ctx := actor.WithActor(c.Request.Context(), a)
		c.Request = c.Request.WithContext(ctx)
		c.Set("subject", a.Subject)

		c.Next()
	}
}

// OptionalAuth validates a token if present, but doesn't require one.
// Requests without a valid token act as the anonymous actor.
func OptionalAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.Next()
			return
		}

		if a, err := validator.ValidateToken(parts[1]); err == nil && a != nil {
			ctx := actor.WithActor(c.Request.Context(), a)
			c.Request = c.Request.WithContext(ctx)
			c.Set("subject", a.Subject)
		}

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
