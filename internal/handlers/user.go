package handlers

import (
	"errors"
	"net/http"

	"github.com/anonto42/bloglist/backend/internal/auth"
	"github.com/anonto42/bloglist/backend/internal/models"
	"github.com/anonto42/bloglist/backend/internal/repositories"
	"github.com/anonto42/bloglist/backend/validators"
	"github.com/labstack/echo/v4"
)

// UserHandler handles registration and user listing
type UserHandler struct {
	userRepository repositories.UserRepository
	blogRepository repositories.BlogRepository
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository, blogRepo repositories.BlogRepository) *UserHandler {
	return &UserHandler{userRepository: userRepo, blogRepository: blogRepo}
}

// RegisterUserRoutes registers user routes on the /api/users group.
// register runs only on POST, so callers may rate limit it separately.
func (h *UserHandler) RegisterUserRoutes(g *echo.Group, register ...echo.MiddlewareFunc) {
	g.GET("", h.GetUsers)
	g.POST("", h.Register, register...)
}

// Register creates a new user with a hashed password
func (h *UserHandler) Register(c echo.Context) error {
	var req models.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request payload")
	}

	if err := c.Validate(&req); err != nil {
		field, tag, _ := validators.FirstFieldError(err)
		switch {
		case field == "Password" && tag == "min":
			return echo.NewHTTPError(http.StatusBadRequest, "password must be at least 3 characters long")
		case field == "Username" && tag == "excludes":
			return echo.NewHTTPError(http.StatusBadRequest, "username must not contain ':'")
		}
		return echo.NewHTTPError(http.StatusBadRequest, "username and password are required")
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return internalError(err)
	}

	user := &models.User{
		Username:     req.Username,
		Name:         req.Name,
		PasswordHash: passwordHash,
	}
	if err := h.userRepository.CreateUser(c.Request().Context(), user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateUsername) {
			return echo.NewHTTPError(http.StatusBadRequest, repositories.ErrDuplicateUsername.Error())
		}
		return internalError(err)
	}

	return c.JSON(http.StatusCreated, models.UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Name:     user.Name,
		Blogs:    []models.BlogSummary{},
	})
}

// GetUsers lists every user with their blogs resolved
func (h *UserHandler) GetUsers(c echo.Context) error {
	ctx := c.Request().Context()

	users, err := h.userRepository.GetUsers(ctx)
	if err != nil {
		return internalError(err)
	}

	resp, err := resolveBlogs(ctx, h.blogRepository, users)
	if err != nil {
		return internalError(err)
	}
	return c.JSON(http.StatusOK, resp)
}
