// Package stats aggregates likes and authorship across blogs.
package stats

import "github.com/anonto42/bloglist/backend/internal/models"

// TotalLikes sums the like count of every blog.
func TotalLikes(blogs []models.Blog) int {
	total := 0
	for _, blog := range blogs {
		total += blog.Likes
	}
	return total
}

// MostBlogs returns the author with the most blogs. On a tie the author seen
// first wins. Returns nil for an empty list.
func MostBlogs(blogs []models.Blog) *models.AuthorCount {
	counts := make(map[string]int)
	var order []string
	for _, blog := range blogs {
		if _, seen := counts[blog.Author]; !seen {
			order = append(order, blog.Author)
		}
		counts[blog.Author]++
	}

	var best *models.AuthorCount
	for _, author := range order {
		if best == nil || counts[author] > best.Blogs {
			best = &models.AuthorCount{Author: author, Blogs: counts[author]}
		}
	}
	return best
}

// MostLikes returns the first blog with the strictly greatest like count.
// Blogs with zero likes never qualify, so nil is returned when nobody liked anything.
func MostLikes(blogs []models.Blog) *models.Favorite {
	var favorite *models.Favorite
	maxLikes := 0
	for _, blog := range blogs {
		if blog.Likes > maxLikes {
			maxLikes = blog.Likes
			favorite = &models.Favorite{Title: blog.Title, Author: blog.Author, Likes: blog.Likes}
		}
	}
	return favorite
}

// Summarize computes every aggregate at once.
func Summarize(blogs []models.Blog) models.StatsResponse {
	return models.StatsResponse{
		TotalLikes: TotalLikes(blogs),
		MostBlogs:  MostBlogs(blogs),
		MostLikes:  MostLikes(blogs),
	}
}
