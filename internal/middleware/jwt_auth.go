package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/anonto42/bloglist/backend/internal/auth"
	"github.com/anonto42/bloglist/backend/internal/models"
	"github.com/anonto42/bloglist/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ContextUserKey stores the authenticated *models.User in the echo context
const ContextUserKey = "user"

// TokenAuth requires a valid bearer token that resolves to an existing user.
func TokenAuth(issuer *auth.TokenIssuer, users repositories.UserRepository, logger *zap.Logger) echo.MiddlewareFunc {
	return tokenAuth(issuer, users, logger, true)
}

// OptionalTokenAuth resolves the caller when an Authorization header is sent
// and lets anonymous requests through. A header that is sent but invalid is
// still rejected.
func OptionalTokenAuth(issuer *auth.TokenIssuer, users repositories.UserRepository, logger *zap.Logger) echo.MiddlewareFunc {
	return tokenAuth(issuer, users, logger, false)
}

func tokenAuth(issuer *auth.TokenIssuer, users repositories.UserRepository, logger *zap.Logger, required bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				if !required {
					return next(c)
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "token missing")
			}

			// Expecting "Bearer <token>"
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header format")
			}

			claims, err := issuer.Parse(strings.TrimSpace(parts[1]))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "token invalid")
			}

			userID, err := primitive.ObjectIDFromHex(claims.ID)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "token invalid")
			}

			user, err := users.GetUserByID(c.Request().Context(), userID)
			if err != nil {
				if errors.Is(err, repositories.ErrUserNotFound) {
					return echo.NewHTTPError(http.StatusUnauthorized, "user not found")
				}
				logger.Error("resolving token user failed", zap.String("user_id", claims.ID), zap.Error(err))
				return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
			}

			c.Set(ContextUserKey, user)
			return next(c)
		}
	}
}

// CurrentUser returns the user attached by TokenAuth, or nil for anonymous requests
func CurrentUser(c echo.Context) *models.User {
	user, _ := c.Get(ContextUserKey).(*models.User)
	return user
}
