package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/anonto42/bloglist/backend/internal/models"
)

// Client talks to the bloglist HTTP API on behalf of one session
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
}

// Option customises a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a client for the server at baseURL. A nil session starts logged out.
func New(baseURL string, session *Session, opts ...Option) *Client {
	if session == nil {
		session = &Session{}
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		session:    session,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the session the client authenticates with
func (c *Client) Session() *Session {
	return c.session
}

// newRequest builds every API request. The bearer token is attached whenever
// the session holds one.
func (c *Client) newRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session.LoggedIn() {
		req.Header.Set("Authorization", "Bearer "+c.session.Token)
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload models.ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&payload) == nil {
			apiErr.Message = payload.Error
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func blogPath(id string) string {
	return "/api/blogs/" + url.PathEscape(id)
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, username, name, password string) (*models.UserResponse, error) {
	var user models.UserResponse
	req := models.RegisterRequest{Username: username, Name: name, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/users", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for a token and stores it in the session
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	var resp models.LoginResponse
	req := models.LoginRequest{Username: username, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/login", req, &resp); err != nil {
		return nil, err
	}
	*c.session = Session{Token: resp.Token, Username: resp.Username, Name: resp.Name}
	return c.session, nil
}

// Logout forgets the token held in memory
func (c *Client) Logout() {
	*c.session = Session{}
}

func (c *Client) ListBlogs(ctx context.Context) ([]models.BlogResponse, error) {
	var blogs []models.BlogResponse
	if err := c.do(ctx, http.MethodGet, "/api/blogs", nil, &blogs); err != nil {
		return nil, err
	}
	return blogs, nil
}

func (c *Client) GetBlog(ctx context.Context, id string) (*models.BlogResponse, error) {
	var blog models.BlogResponse
	if err := c.do(ctx, http.MethodGet, blogPath(id), nil, &blog); err != nil {
		return nil, err
	}
	return &blog, nil
}

// CreateBlog requires a logged in session
func (c *Client) CreateBlog(ctx context.Context, req models.CreateBlogRequest) (*models.BlogResponse, error) {
	if !c.session.LoggedIn() {
		return nil, ErrNotLoggedIn
	}
	var blog models.BlogResponse
	if err := c.do(ctx, http.MethodPost, "/api/blogs", req, &blog); err != nil {
		return nil, err
	}
	return &blog, nil
}

// UpdateBlog overwrites title, author, url and likes
func (c *Client) UpdateBlog(ctx context.Context, id string, req models.UpdateBlogRequest) (*models.BlogResponse, error) {
	var blog models.BlogResponse
	if err := c.do(ctx, http.MethodPut, blogPath(id), req, &blog); err != nil {
		return nil, err
	}
	return &blog, nil
}

// LikeBlog reads the blog and writes it back with one more like. Two
// concurrent likes can overwrite each other.
func (c *Client) LikeBlog(ctx context.Context, id string) (*models.BlogResponse, error) {
	blog, err := c.GetBlog(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.UpdateBlog(ctx, id, models.UpdateBlogRequest{
		Title:  blog.Title,
		Author: blog.Author,
		URL:    blog.URL,
		Likes:  blog.Likes + 1,
	})
}

// DeleteBlog requires a logged in session owning the blog
func (c *Client) DeleteBlog(ctx context.Context, id string) error {
	if !c.session.LoggedIn() {
		return ErrNotLoggedIn
	}
	return c.do(ctx, http.MethodDelete, blogPath(id), nil, nil)
}

func (c *Client) AddComment(ctx context.Context, id, comment string) (*models.BlogResponse, error) {
	var blog models.BlogResponse
	req := models.CommentRequest{Comment: comment}
	if err := c.do(ctx, http.MethodPost, blogPath(id)+"/comments", req, &blog); err != nil {
		return nil, err
	}
	return &blog, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]models.UserResponse, error) {
	var users []models.UserResponse
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) Stats(ctx context.Context) (*models.StatsResponse, error) {
	var stats models.StatsResponse
	if err := c.do(ctx, http.MethodGet, "/api/blogs/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
