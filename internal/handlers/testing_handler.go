package handlers

import (
	"net/http"

	"github.com/anonto42/bloglist/backend/internal/cache"
	"github.com/anonto42/bloglist/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// TestingHandler exposes helpers for end-to-end test environments
type TestingHandler struct {
	blogRepository repositories.BlogRepository
	userRepository repositories.UserRepository
	listCache      cache.BlogListCache
	logger         *zap.Logger
}

func NewTestingHandler(blogRepo repositories.BlogRepository, userRepo repositories.UserRepository, listCache cache.BlogListCache, logger *zap.Logger) *TestingHandler {
	if listCache == nil {
		listCache = cache.Noop{}
	}
	return &TestingHandler{blogRepository: blogRepo, userRepository: userRepo, listCache: listCache, logger: logger}
}

func (h *TestingHandler) RegisterTestingRoutes(g *echo.Group) {
	g.POST("/reset", h.Reset)
}

// Reset wipes every blog and user
func (h *TestingHandler) Reset(c echo.Context) error {
	ctx := c.Request().Context()
	if err := h.blogRepository.DeleteAll(ctx); err != nil {
		return internalError(err)
	}
	if err := h.userRepository.DeleteAll(ctx); err != nil {
		return internalError(err)
	}
	h.listCache.Invalidate(ctx)
	h.logger.Info("test database reset")
	return c.NoContent(http.StatusNoContent)
}
