package handlers

import (
	"context"
	"errors"

	"github.com/anonto42/bloglist/backend/internal/models"
	"github.com/anonto42/bloglist/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// joinOwners attaches the owning user's identity to each blog. Blogs whose
// owner no longer exists render with a null user.
func joinOwners(ctx context.Context, users repositories.UserRepository, blogs []models.Blog) ([]models.BlogResponse, error) {
	seen := make(map[primitive.ObjectID]bool)
	ids := make([]primitive.ObjectID, 0, len(blogs))
	for _, blog := range blogs {
		if !seen[blog.User] {
			seen[blog.User] = true
			ids = append(ids, blog.User)
		}
	}

	owners, err := users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]*models.User, len(owners))
	for i := range owners {
		byID[owners[i].ID] = &owners[i]
	}

	resp := make([]models.BlogResponse, 0, len(blogs))
	for i := range blogs {
		resp = append(resp, blogs[i].WithOwner(byID[blogs[i].User]))
	}
	return resp, nil
}

func joinOwner(ctx context.Context, users repositories.UserRepository, blog *models.Blog) (models.BlogResponse, error) {
	owner, err := users.GetUserByID(ctx, blog.User)
	if err != nil && !errors.Is(err, repositories.ErrUserNotFound) {
		return models.BlogResponse{}, err
	}
	return blog.WithOwner(owner), nil
}

// resolveBlogs replaces each user's blog references with the blogs themselves,
// keeping reference order and skipping blogs that were deleted.
func resolveBlogs(ctx context.Context, blogs repositories.BlogRepository, users []models.User) ([]models.UserResponse, error) {
	var ids []primitive.ObjectID
	for _, user := range users {
		ids = append(ids, user.Blogs...)
	}

	found, err := blogs.GetBlogsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.Blog, len(found))
	for _, blog := range found {
		byID[blog.ID] = blog
	}

	resp := make([]models.UserResponse, 0, len(users))
	for _, user := range users {
		owned := make([]models.BlogSummary, 0, len(user.Blogs))
		for _, id := range user.Blogs {
			if blog, ok := byID[id]; ok {
				owned = append(owned, blog.Summary())
			}
		}
		resp = append(resp, models.UserResponse{
			ID:       user.ID,
			Username: user.Username,
			Name:     user.Name,
			Blogs:    owned,
		})
	}
	return resp, nil
}
