package models

// AuthorCount is the author with the most blogs
type AuthorCount struct {
	Author string `json:"author"`
	Blogs  int    `json:"blogs"`
}

// Favorite is the most liked blog
type Favorite struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Likes  int    `json:"likes"`
}

// StatsResponse aggregates likes and authorship over all blogs
type StatsResponse struct {
	TotalLikes int          `json:"totalLikes"`
	MostBlogs  *AuthorCount `json:"mostBlogs"`
	MostLikes  *Favorite    `json:"mostLikes"`
}
