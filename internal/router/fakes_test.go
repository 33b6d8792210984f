package router

import (
	"context"
	"errors"
	"sync"

	"github.com/anonto42/bloglist/backend/internal/models"
	"github.com/anonto42/bloglist/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memoryUsers is an in-memory UserRepository keeping insertion order
type memoryUsers struct {
	mu        sync.Mutex
	users     []models.User
	appendErr error
}

func (m *memoryUsers) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username {
			return repositories.ErrDuplicateUsername
		}
	}
	user.ID = primitive.NewObjectID()
	if user.Blogs == nil {
		user.Blogs = []primitive.ObjectID{}
	}
	m.users = append(m.users, cloneUser(*user))
	return nil
}

func (m *memoryUsers) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	return m.findOne(func(u models.User) bool { return u.ID == id })
}

func (m *memoryUsers) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	return m.findOne(func(u models.User) bool { return u.Username == username })
}

func (m *memoryUsers) findOne(match func(models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			c := cloneUser(u)
			return &c, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (m *memoryUsers) GetUsersByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	want := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.User{}
	for _, u := range m.users {
		if want[u.ID] {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

func (m *memoryUsers) GetUsers(_ context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, cloneUser(u))
	}
	return out, nil
}

func (m *memoryUsers) AppendBlog(_ context.Context, userID, blogID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	for i := range m.users {
		if m.users[i].ID == userID {
			m.users[i].Blogs = append(m.users[i].Blogs, blogID)
			return nil
		}
	}
	return repositories.ErrUserNotFound
}

func (m *memoryUsers) DeleteAll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = nil
	return nil
}

func cloneUser(u models.User) models.User {
	u.Blogs = append([]primitive.ObjectID{}, u.Blogs...)
	return u
}

// memoryBlogs is an in-memory BlogRepository keeping insertion order
type memoryBlogs struct {
	mu      sync.Mutex
	blogs   []models.Blog
	listErr error
	// afterList runs once GetAllBlogs has taken its snapshot
	afterList func()
}

func (m *memoryBlogs) CreateBlog(_ context.Context, blog *models.Blog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	blog.ID = primitive.NewObjectID()
	if blog.Comments == nil {
		blog.Comments = []string{}
	}
	m.blogs = append(m.blogs, cloneBlog(*blog))
	return nil
}

func (m *memoryBlogs) index(id string) (int, error) {
	objID, err := repositories.ParseID(id)
	if err != nil {
		return -1, err
	}
	for i, b := range m.blogs {
		if b.ID == objID {
			return i, nil
		}
	}
	return -1, repositories.ErrBlogNotFound
}

func (m *memoryBlogs) GetBlogByID(_ context.Context, id string) (*models.Blog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, err := m.index(id)
	if err != nil {
		return nil, err
	}
	b := cloneBlog(m.blogs[i])
	return &b, nil
}

func (m *memoryBlogs) GetBlogsByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Blog, error) {
	want := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Blog{}
	for _, b := range m.blogs {
		if want[b.ID] {
			out = append(out, cloneBlog(b))
		}
	}
	return out, nil
}

func (m *memoryBlogs) GetAllBlogs(_ context.Context) ([]models.Blog, error) {
	m.mu.Lock()
	if m.listErr != nil {
		m.mu.Unlock()
		return nil, m.listErr
	}
	out := make([]models.Blog, 0, len(m.blogs))
	for _, b := range m.blogs {
		out = append(out, cloneBlog(b))
	}
	hook := m.afterList
	m.afterList = nil
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	return out, nil
}

func (m *memoryBlogs) ReplaceBlog(_ context.Context, id string, req models.UpdateBlogRequest) (*models.Blog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, err := m.index(id)
	if err != nil {
		return nil, err
	}
	b := &m.blogs[i]
	b.Title, b.Author, b.URL, b.Likes = req.Title, req.Author, req.URL, req.Likes
	out := cloneBlog(*b)
	return &out, nil
}

func (m *memoryBlogs) DeleteBlog(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, err := m.index(id)
	if err != nil {
		return err
	}
	m.blogs = append(m.blogs[:i], m.blogs[i+1:]...)
	return nil
}

func (m *memoryBlogs) AppendComment(_ context.Context, id string, comment string) (*models.Blog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, err := m.index(id)
	if err != nil {
		return nil, err
	}
	m.blogs[i].Comments = append(m.blogs[i].Comments, comment)
	out := cloneBlog(m.blogs[i])
	return &out, nil
}

func (m *memoryBlogs) DeleteAll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blogs = nil
	return nil
}

func (m *memoryBlogs) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blogs)
}

func cloneBlog(b models.Blog) models.Blog {
	b.Comments = append([]string{}, b.Comments...)
	return b
}

// countingCache is a generational BlogListCache that records invalidations
type countingCache struct {
	mu            sync.Mutex
	data          []byte
	generation    int64
	invalidations int
}

func (c *countingCache) Get(context.Context) ([]byte, int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data, c.generation, c.data != nil
}

func (c *countingCache) Set(_ context.Context, generation int64, b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return
	}
	c.data = b
}

func (c *countingCache) Invalidate(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = nil
	c.generation++
	c.invalidations++
}

func (c *countingCache) cached() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data
}

var errStore = errors.New("store unavailable")
