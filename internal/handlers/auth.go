package handlers

import (
	"context"
	"errors"
	"net/http"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/anonto42/bloglist/backend/internal/auth"
	"github.com/anonto42/bloglist/backend/internal/models"
	"github.com/anonto42/bloglist/backend/internal/repositories"
	"github.com/anonto42/bloglist/backend/pkg/firebase"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// IDTokenVerifier verifies Firebase ID tokens. *fbauth.Client satisfies it.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// AuthHandler handles login requests
type AuthHandler struct {
	userRepository repositories.UserRepository
	issuer         *auth.TokenIssuer
	firebaseAuth   IDTokenVerifier
	logger         *zap.Logger
}

// NewAuthHandler creates a new AuthHandler. firebaseAuth may be nil.
func NewAuthHandler(userRepo repositories.UserRepository, issuer *auth.TokenIssuer, firebaseAuth IDTokenVerifier, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		userRepository: userRepo,
		issuer:         issuer,
		firebaseAuth:   firebaseAuth,
		logger:         logger,
	}
}

// RegisterAuthRoutes registers login routes on the /api/login group
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("", h.Login)
	if h.firebaseAuth != nil {
		g.POST("/firebase", h.FirebaseLogin)
	}
}

// Login verifies username and password and issues a bearer token
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request payload")
	}

	user, err := h.userRepository.GetUserByUsername(c.Request().Context(), req.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "invalid username")
		}
		return internalError(err)
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "password was not correct")
	}

	return h.respondWithToken(c, user)
}

// FirebaseLogin exchanges a Firebase ID token for a local bearer token,
// creating the local user on first sign in. Accounts are keyed on the
// Firebase UID, so a Firebase email never grants access to a registered user.
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	var req models.FirebaseLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "idToken is required")
	}

	ctx := c.Request().Context()
	token, err := h.firebaseAuth.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid firebase ID token")
	}
	identity := firebase.IdentityFromToken(token)
	username := identity.Username()

	user, err := h.userRepository.GetUserByUsername(ctx, username)
	if errors.Is(err, repositories.ErrUserNotFound) {
		// no password hash: this account can only sign in through Firebase
		user = &models.User{Username: username, Name: identity.DisplayName()}
		err = h.userRepository.CreateUser(ctx, user)
		if errors.Is(err, repositories.ErrDuplicateUsername) {
			user, err = h.userRepository.GetUserByUsername(ctx, username)
		} else if err == nil {
			h.logger.Info("created user from firebase login", zap.String("username", username))
		}
	}
	if err != nil {
		return internalError(err)
	}
	if user.PasswordHash != "" {
		h.logger.Warn("firebase login matched a password account", zap.String("username", username))
		return echo.NewHTTPError(http.StatusUnauthorized, "account is not linked to firebase")
	}

	return h.respondWithToken(c, user)
}

func (h *AuthHandler) respondWithToken(c echo.Context, user *models.User) error {
	token, err := h.issuer.Issue(user)
	if err != nil {
		return internalError(err)
	}
	return c.JSON(http.StatusOK, models.LoginResponse{
		Token:    token,
		Username: user.Username,
		Name:     user.Name,
	})
}
