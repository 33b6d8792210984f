package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/anonto42/bloglist/backend/internal/cache"
	"github.com/anonto42/bloglist/backend/internal/middleware"
	"github.com/anonto42/bloglist/backend/internal/models"
	"github.com/anonto42/bloglist/backend/internal/repositories"
	"github.com/anonto42/bloglist/backend/internal/stats"
	"github.com/anonto42/bloglist/backend/pkg/config"
	"github.com/labstack/echo/v4"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

// BlogHandler handles HTTP requests related to blogs
type BlogHandler struct {
	blogRepository repositories.BlogRepository
	userRepository repositories.UserRepository
	listCache      cache.BlogListCache
	updatePolicy   string
	sanitizer      *bluemonday.Policy
	logger         *zap.Logger
}

// NewBlogHandler creates a new BlogHandler. updatePolicy is one of the
// config.UpdatePolicy* values.
func NewBlogHandler(blogRepo repositories.BlogRepository, userRepo repositories.UserRepository, listCache cache.BlogListCache, updatePolicy string, logger *zap.Logger) *BlogHandler {
	if listCache == nil {
		listCache = cache.Noop{}
	}
	if updatePolicy == "" {
		updatePolicy = config.UpdatePolicyOpen
	}
	return &BlogHandler{
		blogRepository: blogRepo,
		userRepository: userRepo,
		listCache:      listCache,
		updatePolicy:   updatePolicy,
		sanitizer:      bluemonday.StrictPolicy(),
		logger:         logger,
	}
}

// RegisterBlogRoutes registers blog routes on the /api/blogs group
func (h *BlogHandler) RegisterBlogRoutes(g *echo.Group, requireAuth, optionalAuth echo.MiddlewareFunc) {
	g.GET("", h.GetBlogs)
	g.GET("/stats", h.GetStats)
	g.GET("/:id", h.GetBlog)
	g.POST("", h.CreateBlog, requireAuth)
	g.DELETE("/:id", h.DeleteBlog, requireAuth)
	g.POST("/:id/comments", h.AddComment)

	if h.updatePolicy == config.UpdatePolicyOpen {
		h.logger.Warn("blog updates do not require authentication", zap.String("policy", h.updatePolicy))
		g.PUT("/:id", h.UpdateBlog, optionalAuth)
	} else {
		g.PUT("/:id", h.UpdateBlog, requireAuth)
	}
}

// GetBlogs lists every blog with its owner joined in
func (h *BlogHandler) GetBlogs(c echo.Context) error {
	ctx := c.Request().Context()
	// the generation is read before the database so a concurrent write
	// makes the Set below a no-op
	b, gen, ok := h.listCache.Get(ctx)
	if ok {
		return c.JSONBlob(http.StatusOK, b)
	}

	blogs, err := h.blogRepository.GetAllBlogs(ctx)
	if err != nil {
		return internalError(err)
	}
	resp, err := joinOwners(ctx, h.userRepository, blogs)
	if err != nil {
		return internalError(err)
	}

	b, err = json.Marshal(resp)
	if err != nil {
		return internalError(err)
	}
	h.listCache.Set(ctx, gen, b)
	return c.JSONBlob(http.StatusOK, b)
}

// GetBlog retrieves a blog by ID
func (h *BlogHandler) GetBlog(c echo.Context) error {
	ctx := c.Request().Context()
	blog, err := h.blogRepository.GetBlogByID(ctx, c.Param("id"))
	if err != nil {
		return blogLookupError(err)
	}

	resp, err := joinOwner(ctx, h.userRepository, blog)
	if err != nil {
		return internalError(err)
	}
	return c.JSON(http.StatusOK, resp)
}

// CreateBlog creates a blog owned by the authenticated user
func (h *BlogHandler) CreateBlog(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "token missing")
	}

	var req models.CreateBlogRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request payload")
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.URL) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing title or url")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "likes must not be negative")
	}

	blog := &models.Blog{
		Title:    req.Title,
		Author:   req.Author,
		URL:      req.URL,
		User:     user.ID,
		Comments: []string{},
	}
	if req.Likes != nil {
		blog.Likes = *req.Likes
	}

	ctx := c.Request().Context()
	if err := h.blogRepository.CreateBlog(ctx, blog); err != nil {
		return internalError(err)
	}

	// The blog and the owner's reference are separate writes. Undo the first
	// one if the second fails so no blog is left unlinked from its owner.
	if err := h.userRepository.AppendBlog(ctx, user.ID, blog.ID); err != nil {
		if delErr := h.blogRepository.DeleteBlog(ctx, blog.ID.Hex()); delErr != nil {
			h.logger.Error("compensating blog delete failed",
				zap.String("blog_id", blog.ID.Hex()),
				zap.String("user_id", user.ID.Hex()),
				zap.Error(delErr),
			)
		}
		return internalError(err)
	}
	user.Blogs = append(user.Blogs, blog.ID)
	h.listCache.Invalidate(ctx)

	return c.JSON(http.StatusCreated, blog.WithOwner(user))
}

// UpdateBlog overwrites title, author, url and likes of a blog. A missing
// blog is reported before the body is validated.
func (h *BlogHandler) UpdateBlog(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	var req models.UpdateBlogRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request payload")
	}

	existing, err := h.blogRepository.GetBlogByID(ctx, id)
	if err != nil {
		return blogLookupError(err)
	}

	caller := middleware.CurrentUser(c)
	switch h.updatePolicy {
	case config.UpdatePolicyOwner:
		if caller == nil || existing.User != caller.ID {
			return echo.NewHTTPError(http.StatusForbidden, "only the creator can update this blog")
		}
	case config.UpdatePolicyOpen:
		if caller == nil {
			h.logger.Warn("anonymous blog update", zap.String("blog_id", id), zap.String("remote_ip", c.RealIP()))
		}
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "title and url are required and likes must not be negative")
	}

	blog, err := h.blogRepository.ReplaceBlog(ctx, id, req)
	if err != nil {
		return blogLookupError(err)
	}
	h.listCache.Invalidate(ctx)

	resp, err := joinOwner(ctx, h.userRepository, blog)
	if err != nil {
		return internalError(err)
	}
	return c.JSON(http.StatusOK, resp)
}

// DeleteBlog deletes a blog owned by the authenticated user
func (h *BlogHandler) DeleteBlog(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "token missing")
	}

	ctx := c.Request().Context()
	id := c.Param("id")

	blog, err := h.blogRepository.GetBlogByID(ctx, id)
	if err != nil {
		return blogLookupError(err)
	}
	if blog.User != user.ID {
		return echo.NewHTTPError(http.StatusForbidden, "only the creator can delete this blog")
	}

	if err := h.blogRepository.DeleteBlog(ctx, id); err != nil {
		return blogLookupError(err)
	}
	h.listCache.Invalidate(ctx)

	return c.NoContent(http.StatusNoContent)
}

// AddComment appends a comment to a blog. Anyone may comment.
func (h *BlogHandler) AddComment(c echo.Context) error {
	var req models.CommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request payload")
	}

	comment := strings.TrimSpace(h.sanitizer.Sanitize(req.Comment))
	if comment == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "comment must not be empty")
	}

	ctx := c.Request().Context()
	blog, err := h.blogRepository.AppendComment(ctx, c.Param("id"), comment)
	if err != nil {
		return blogLookupError(err)
	}
	h.listCache.Invalidate(ctx)

	resp, err := joinOwner(ctx, h.userRepository, blog)
	if err != nil {
		return internalError(err)
	}
	return c.JSON(http.StatusCreated, resp)
}

// GetStats aggregates likes and authorship over all blogs
func (h *BlogHandler) GetStats(c echo.Context) error {
	blogs, err := h.blogRepository.GetAllBlogs(c.Request().Context())
	if err != nil {
		return internalError(err)
	}
	return c.JSON(http.StatusOK, stats.Summarize(blogs))
}

func blogLookupError(err error) error {
	if errors.Is(err, repositories.ErrBlogNotFound) || errors.Is(err, repositories.ErrInvalidID) {
		return echo.NewHTTPError(http.StatusNotFound, "blog not found")
	}
	return internalError(err)
}
