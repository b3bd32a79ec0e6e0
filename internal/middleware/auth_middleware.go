package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yigit/huddle/internal/app/models"
	"github.com/yigit/huddle/internal/app/models/dto"
	"github.com/yigit/huddle/internal/pkg/apperrors"
	"github.com/yigit/huddle/internal/pkg/auth"
)

// Header and context keys used for caller identity
const (
	UserIDHeader     = "x-user-id"
	ContextUserIDKey = "userID"
)

// UserLookup resolves the caller's user record
type UserLookup interface {
	GetMe(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

// AuthMiddleware for authentication
type AuthMiddleware struct {
	jwtService *auth.JWTService
	users      UserLookup
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtService *auth.JWTService, users UserLookup) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		users:      users,
	}
}

func abortUnauthorized(c *gin.Context, code dto.ErrorCode, details string) {
	errorDetail := dto.NewErrorDetail(code, "Authentication required")
	errorDetail = errorDetail.WithDetails(details)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
}

// RequireUser identifies the caller by the x-user-id header or, failing that, by a Bearer
// token issued for the web form. The user must exist.
func (m *AuthMiddleware) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		var userID uuid.UUID

		if raw := strings.TrimSpace(c.GetHeader(UserIDHeader)); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				abortUnauthorized(c, dto.ErrorCodeUnauthorized, "x-user-id must be a valid UUID")
				return
			}
			userID = id
		} else {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				abortUnauthorized(c, dto.ErrorCodeUnauthorized, "x-user-id or Authorization header missing")
				return
			}

			tokenString, err := auth.ExtractBearerToken(authHeader)
			if err != nil {
				abortUnauthorized(c, dto.ErrorCodeInvalidToken, "Invalid token format")
				return
			}

			claims, err := m.jwtService.ValidateToken(tokenString)
			if err != nil {
				if errors.Is(err, auth.ErrExpiredToken) {
					abortUnauthorized(c, dto.ErrorCodeExpiredToken, "Token has expired")
					return
				}
				abortUnauthorized(c, dto.ErrorCodeInvalidToken, "Invalid token")
				return
			}
			userID = claims.UserID
		}

		if _, err := m.users.GetMe(c.Request.Context(), userID); err != nil {
			if apperrors.IsNotFound(err) {
				abortUnauthorized(c, dto.ErrorCodeUnauthorized, "Unknown user")
				return
			}
			HandleAPIError(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}

// CurrentUserID returns the caller identified by RequireUser
func CurrentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(ContextUserIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}
