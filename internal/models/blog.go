package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Blog is a user submitted link stored in MongoDB
type Blog struct {
	ID       primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Title    string             `json:"title" bson:"title"`
	Author   string             `json:"author" bson:"author"`
	URL      string             `json:"url" bson:"url"`
	Likes    int                `json:"likes" bson:"likes"`
	User     primitive.ObjectID `json:"user" bson:"user"` // owner, set at creation
	Comments []string           `json:"comments" bson:"comments"`
}

// CreateBlogRequest defines the request body for creating a new blog.
// Likes is a pointer so an omitted value can default to zero.
type CreateBlogRequest struct {
	Title  string `json:"title" validate:"required"`
	Author string `json:"author"`
	URL    string `json:"url" validate:"required"`
	Likes  *int   `json:"likes" validate:"omitempty,min=0"`
}

// UpdateBlogRequest replaces every editable field of a blog
type UpdateBlogRequest struct {
	Title  string `json:"title" validate:"required"`
	Author string `json:"author"`
	URL    string `json:"url" validate:"required"`
	Likes  int    `json:"likes" validate:"min=0"`
}

// CommentRequest defines the request body for commenting on a blog
type CommentRequest struct {
	Comment string `json:"comment" validate:"required"`
}

// BlogResponse is a blog with its owner joined in
type BlogResponse struct {
	ID       primitive.ObjectID `json:"id"`
	Title    string             `json:"title"`
	Author   string             `json:"author"`
	URL      string             `json:"url"`
	Likes    int                `json:"likes"`
	User     *UserSummary       `json:"user"`
	Comments []string           `json:"comments"`
}

// BlogSummary is the shape of a blog embedded in a user listing
type BlogSummary struct {
	ID     primitive.ObjectID `json:"id"`
	Title  string             `json:"title"`
	Author string             `json:"author"`
	URL    string             `json:"url"`
	Likes  int                `json:"likes"`
}

// Summary returns the listing shape of the blog
func (b *Blog) Summary() BlogSummary {
	return BlogSummary{ID: b.ID, Title: b.Title, Author: b.Author, URL: b.URL, Likes: b.Likes}
}

// WithOwner joins the owner into the response. A nil owner renders as null.
func (b *Blog) WithOwner(owner *User) BlogResponse {
	resp := BlogResponse{
		ID:       b.ID,
		Title:    b.Title,
		Author:   b.Author,
		URL:      b.URL,
		Likes:    b.Likes,
		Comments: b.Comments,
	}
	if resp.Comments == nil {
		resp.Comments = []string{}
	}
	if owner != nil {
		resp.User = owner.Summary()
	}
	return resp
}
