package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/anonto42/bloglist/backend/internal/auth"
	"github.com/anonto42/bloglist/backend/internal/handlers"
	"github.com/anonto42/bloglist/backend/internal/models"
	"github.com/anonto42/bloglist/backend/pkg/config"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type testAPI struct {
	t      *testing.T
	e      *echo.Echo
	users  *memoryUsers
	blogs  *memoryBlogs
	cache  *countingCache
	issuer *auth.TokenIssuer
}

type fakeVerifier map[string]*fbauth.Token

func (f fakeVerifier) VerifyIDToken(_ context.Context, idToken string) (*fbauth.Token, error) {
	if tok, ok := f[idToken]; ok {
		return tok, nil
	}
	return nil, errors.New("token has expired")
}

func newTestAPI(t *testing.T, configure ...func(*config.Config)) *testAPI {
	return newTestAPIWith(t, nil, configure...)
}

func newTestAPIWith(t *testing.T, verifier handlers.IDTokenVerifier, configure ...func(*config.Config)) *testAPI {
	t.Helper()
	cfg := &config.Config{
		Env:                    "test",
		Secret:                 "test-secret",
		AuthRateLimitPerMinute: 1000,
		BlogUpdatePolicy:       config.UpdatePolicyOpen,
		CORSOrigins:            []string{"*"},
	}
	for _, fn := range configure {
		fn(cfg)
	}

	api := &testAPI{
		t:      t,
		users:  &memoryUsers{},
		blogs:  &memoryBlogs{},
		cache:  &countingCache{},
		issuer: auth.NewTokenIssuer(cfg.Secret, 0),
	}
	api.e = New(Dependencies{
		Config:   cfg,
		Users:    api.users,
		Blogs:    api.blogs,
		Cache:    api.cache,
		Issuer:   api.issuer,
		Firebase: verifier,
		Logger:   zap.NewNop(),
	})
	return api
}

func (a *testAPI) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[models.ErrorResponse](t, rec).Error
}

// signUp registers and logs in a user, returning its token and id
func (a *testAPI) signUp(username, password string) (string, primitive.ObjectID) {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/users", map[string]string{
		"username": username, "name": username + " name", "password": password,
	}, "")
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	user := decode[models.UserResponse](a.t, rec)

	rec = a.do(http.MethodPost, "/api/login", map[string]string{"username": username, "password": password}, "")
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[models.LoginResponse](a.t, rec).Token, user.ID
}

func (a *testAPI) createBlog(token string, body map[string]interface{}) models.BlogResponse {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/blogs", body, token)
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.BlogResponse](a.t, rec)
}

func TestExampleScenario(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/api/users", map[string]string{"username": "root", "password": "sekret"}, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(http.MethodPost, "/api/login", map[string]string{"username": "root", "password": "sekret"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode[models.LoginResponse](t, rec)
	require.NotEmpty(t, login.Token)
	assert.Equal(t, "root", login.Username)

	before := decode[[]models.BlogResponse](t, api.do(http.MethodGet, "/api/blogs", nil, ""))

	rec = api.do(http.MethodPost, "/api/blogs", map[string]string{"title": "T", "url": "http://x"}, login.Token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.BlogResponse](t, rec)
	assert.Equal(t, 0, created.Likes)
	require.NotNil(t, created.User)
	assert.Equal(t, "root", created.User.Username)

	after := decode[[]models.BlogResponse](t, api.do(http.MethodGet, "/api/blogs", nil, ""))
	require.Len(t, after, len(before)+1)
	assert.Equal(t, "T", after[len(after)-1].Title)
}

func TestRegister(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/api/users", map[string]string{"username": "mluukkai", "name": "Matti", "password": "salainen"}, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "salainen")
	assert.NotContains(t, rec.Body.String(), "password")

	user := decode[models.UserResponse](t, rec)
	assert.Equal(t, "mluukkai", user.Username)
	assert.Equal(t, "Matti", user.Name)
	assert.Empty(t, user.Blogs)
	assert.False(t, user.ID.IsZero())
}

func TestRegister_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		body    map[string]string
		message string
	}{
		{"short password", map[string]string{"username": "ab", "password": "pw"}, "password must be at least 3 characters long"},
		{"missing password", map[string]string{"username": "ab"}, "username and password are required"},
		{"missing username", map[string]string{"password": "secret"}, "username and password are required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t)
			rec := api.do(http.MethodPost, "/api/users", tt.body, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.message, errorMessage(t, rec))

			users := decode[[]models.UserResponse](t, api.do(http.MethodGet, "/api/users", nil, ""))
			assert.Empty(t, users)
		})
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	api := newTestAPI(t)
	api.signUp("root", "sekret")

	rec := api.do(http.MethodPost, "/api/users", map[string]string{"username": "root", "password": "other"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "unique")

	users := decode[[]models.UserResponse](t, api.do(http.MethodGet, "/api/users", nil, ""))
	assert.Len(t, users, 1)
}

func TestLogin(t *testing.T) {
	api := newTestAPI(t)
	_, id := api.signUp("root", "sekret")

	rec := api.do(http.MethodPost, "/api/login", map[string]string{"username": "root", "password": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodPost, "/api/login", map[string]string{"username": "nobody", "password": "sekret"}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodPost, "/api/login", map[string]string{"username": "root", "password": "sekret"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode[models.LoginResponse](t, rec)
	assert.Equal(t, "root name", login.Name)

	claims, err := api.issuer.Parse(login.Token)
	require.NoError(t, err)
	assert.Equal(t, "root", claims.Username)
	assert.Equal(t, id.Hex(), claims.ID)
	assert.Nil(t, claims.ExpiresAt)
}

func TestLogin_RateLimited(t *testing.T) {
	api := newTestAPI(t, func(c *config.Config) { c.AuthRateLimitPerMinute = 2 })

	body := map[string]string{"username": "nobody", "password": "x"}
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPost, "/api/login", body, "").Code)

	rec := api.do(http.MethodPost, "/api/login", body, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate limit exceeded", errorMessage(t, rec))
}

func TestCreateBlog_RequiresToken(t *testing.T) {
	api := newTestAPI(t)
	body := map[string]string{"title": "T", "url": "http://x"}

	rec := api.do(http.MethodPost, "/api/blogs", body, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "token missing", errorMessage(t, rec))

	rec = api.do(http.MethodPost, "/api/blogs", body, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "token invalid", errorMessage(t, rec))

	forged, err := auth.NewTokenIssuer("other-secret", 0).Issue(&models.User{ID: primitive.NewObjectID(), Username: "x"})
	require.NoError(t, err)
	rec = api.do(http.MethodPost, "/api/blogs", body, forged)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Zero(t, api.blogs.count())
}

func TestCreateBlog_UserNoLongerExists(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.signUp("root", "sekret")
	require.NoError(t, api.users.DeleteAll(t.Context()))

	rec := api.do(http.MethodPost, "/api/blogs", map[string]string{"title": "T", "url": "http://x"}, token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "user not found", errorMessage(t, rec))
}

func TestCreateBlog_Validation(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.signUp("root", "sekret")

	for _, body := range []map[string]interface{}{
		{"url": "http://x"},
		{"title": "T"},
		{"title": "   ", "url": "http://x"},
	} {
		rec := api.do(http.MethodPost, "/api/blogs", body, token)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "missing title or url", errorMessage(t, rec))
	}

	rec := api.do(http.MethodPost, "/api/blogs", map[string]interface{}{"title": "T", "url": "http://x", "likes": -1}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Zero(t, api.blogs.count())
}

func TestCreateBlog_LinksOwner(t *testing.T) {
	api := newTestAPI(t)
	token, id := api.signUp("root", "sekret")

	blog := api.createBlog(token, map[string]interface{}{"title": "Type wars", "author": "Robert C. Martin", "url": "http://blog.cleancoder.com", "likes": 2})
	assert.Equal(t, 2, blog.Likes)
	assert.Equal(t, id, blog.User.ID)
	assert.Equal(t, []string{}, blog.Comments)

	users := decode[[]models.UserResponse](t, api.do(http.MethodGet, "/api/users", nil, ""))
	require.Len(t, users, 1)
	require.Len(t, users[0].Blogs, 1)
	assert.Equal(t, blog.ID, users[0].Blogs[0].ID)
	assert.Equal(t, "Type wars", users[0].Blogs[0].Title)
}

func TestCreateBlog_CompensatesWhenOwnerLinkFails(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.signUp("root", "sekret")
	api.users.appendErr = errStore

	rec := api.do(http.MethodPost, "/api/blogs", map[string]string{"title": "T", "url": "http://x"}, token)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", errorMessage(t, rec))
	assert.Zero(t, api.blogs.count(), "blog must be removed when the owner link fails")
}

func TestGetBlog(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.signUp("root", "sekret")
	blog := api.createBlog(token, map[string]interface{}{"title": "T", "url": "http://x"})

	rec := api.do(http.MethodGet, "/api/blogs/"+blog.ID.Hex(), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[models.BlogResponse](t, rec)
	assert.Equal(t, blog.ID, got.ID)
	assert.Equal(t, "root", got.User.Username)

	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/blogs/"+primitive.NewObjectID().Hex(), nil, "").Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/blogs/not-an-id", nil, "").Code)
}

func TestDeleteBlog(t *testing.T) {
	api := newTestAPI(t)
	ownerToken, _ := api.signUp("root", "sekret")
	otherToken, _ := api.signUp("other", "sekret")
	blog := api.createBlog(ownerToken, map[string]interface{}{"title": "T", "url": "http://x"})
	path := "/api/blogs/" + blog.ID.Hex()

	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodDelete, path, nil, "").Code)

	rec := api.do(http.MethodDelete, path, nil, otherToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 1, api.blogs.count())

	rec = api.do(http.MethodDelete, path, nil, ownerToken)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	blogs := decode[[]models.BlogResponse](t, api.do(http.MethodGet, "/api/blogs", nil, ""))
	assert.Empty(t, blogs)

	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, path, nil, ownerToken).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, "/api/blogs/xyz", nil, ownerToken).Code)
}

func TestUpdateBlog_OpenPolicy(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.signUp("root", "sekret")
	blog := api.createBlog(token, map[string]interface{}{"title": "T", "author": "A", "url": "http://x", "likes": 3})

	rec := api.do(http.MethodPut, "/api/blogs/"+blog.ID.Hex(), map[string]interface{}{"title": "T", "url": "http://x", "likes": 4}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[models.BlogResponse](t, rec)
	assert.Equal(t, 4, updated.Likes)
	assert.Empty(t, updated.Author, "update overwrites fields wholesale")
	assert.Equal(t, "root", updated.User.Username)

	rec = api.do(http.MethodPut, "/api/blogs/"+primitive.NewObjectID().Hex(), map[string]interface{}{"title": "T", "url": "http://x"}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodPut, "/api/blogs/"+blog.ID.Hex(), map[string]interface{}{"likes": 5}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateBlog_MissingBlogIsNotFoundBeforeValidation(t *testing.T) {
	api := newTestAPI(t)

	for _, body := range []map[string]interface{}{{}, {"likes": 5}} {
		rec := api.do(http.MethodPut, "/api/blogs/"+primitive.NewObjectID().Hex(), body, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "blog not found", errorMessage(t, rec))
	}

	rec := api.do(http.MethodPut, "/api/blogs/not-an-id", map[string]interface{}{}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateBlog_AuthenticatedPolicy(t *testing.T) {
	api := newTestAPI(t, func(c *config.Config) { c.BlogUpdatePolicy = config.UpdatePolicyAuthenticated })
	ownerToken, _ := api.signUp("root", "sekret")
	otherToken, _ := api.signUp("other", "sekret")
	blog := api.createBlog(ownerToken, map[string]interface{}{"title": "T", "url": "http://x"})
	body := map[string]interface{}{"title": "T", "url": "http://x", "likes": 1}

	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodPut, "/api/blogs/"+blog.ID.Hex(), body, "").Code)
	assert.Equal(t, http.StatusOK, api.do(http.MethodPut, "/api/blogs/"+blog.ID.Hex(), body, otherToken).Code)
}

func TestUpdateBlog_OwnerPolicy(t *testing.T) {
	api := newTestAPI(t, func(c *config.Config) { c.BlogUpdatePolicy = config.UpdatePolicyOwner })
	ownerToken, _ := api.signUp("root", "sekret")
	otherToken, _ := api.signUp("other", "sekret")
	blog := api.createBlog(ownerToken, map[string]interface{}{"title": "T", "url": "http://x"})
	body := map[string]interface{}{"title": "T2", "url": "http://x", "likes": 1}

	rec := api.do(http.MethodPut, "/api/blogs/"+blog.ID.Hex(), body, otherToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "only the creator can update this blog", errorMessage(t, rec))

	rec = api.do(http.MethodPut, "/api/blogs/"+blog.ID.Hex(), body, ownerToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "T2", decode[models.BlogResponse](t, rec).Title)
}

func TestAddComment(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.signUp("root", "sekret")
	blog := api.createBlog(token, map[string]interface{}{"title": "T", "url": "http://x"})
	path := "/api/blogs/" + blog.ID.Hex() + "/comments"

	rec := api.do(http.MethodPost, path, map[string]string{"comment": "first"}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = api.do(http.MethodPost, path, map[string]string{"comment": "<b>second</b>"}, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	got := decode[models.BlogResponse](t, rec)
	assert.Equal(t, []string{"first", "second"}, got.Comments)
	assert.Equal(t, "root", got.User.Username)

	rec = api.do(http.MethodPost, path, map[string]string{"comment": "  "}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "comment must not be empty", errorMessage(t, rec))

	rec = api.do(http.MethodPost, "/api/blogs/"+primitive.NewObjectID().Hex()+"/comments", map[string]string{"comment": "x"}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStats(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.signUp("root", "sekret")

	stats := decode[models.StatsResponse](t, api.do(http.MethodGet, "/api/blogs/stats", nil, ""))
	assert.Zero(t, stats.TotalLikes)
	assert.Nil(t, stats.MostBlogs)
	assert.Nil(t, stats.MostLikes)

	api.createBlog(token, map[string]interface{}{"title": "Go To Statement Considered Harmful", "author": "Edsger W. Dijkstra", "url": "http://a", "likes": 5})
	api.createBlog(token, map[string]interface{}{"title": "Canonical string reduction", "author": "Edsger W. Dijkstra", "url": "http://b", "likes": 12})
	api.createBlog(token, map[string]interface{}{"title": "Type wars", "author": "Robert C. Martin", "url": "http://c", "likes": 2})

	stats = decode[models.StatsResponse](t, api.do(http.MethodGet, "/api/blogs/stats", nil, ""))
	assert.Equal(t, 19, stats.TotalLikes)
	assert.Equal(t, &models.AuthorCount{Author: "Edsger W. Dijkstra", Blogs: 2}, stats.MostBlogs)
	assert.Equal(t, &models.Favorite{Title: "Canonical string reduction", Author: "Edsger W. Dijkstra", Likes: 12}, stats.MostLikes)
}

func TestListCache_InvalidatedOnMutation(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.signUp("root", "sekret")

	first := api.do(http.MethodGet, "/api/blogs", nil, "")
	require.Equal(t, http.StatusOK, first.Code)
	require.NotNil(t, api.cache.cached(), "list response is cached")

	api.blogs.listErr = errStore
	cached := api.do(http.MethodGet, "/api/blogs", nil, "")
	assert.Equal(t, http.StatusOK, cached.Code, "served from cache without touching the store")
	api.blogs.listErr = nil

	before := api.cache.invalidations
	api.createBlog(token, map[string]interface{}{"title": "T", "url": "http://x"})
	assert.Greater(t, api.cache.invalidations, before)

	blogs := decode[[]models.BlogResponse](t, api.do(http.MethodGet, "/api/blogs", nil, ""))
	assert.Len(t, blogs, 1)
}

func TestListCache_ReadRacingCreateIsNotCached(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.signUp("root", "sekret")

	// a create lands after the list was read from the store but before the
	// rendered list is written to the cache
	var created models.BlogResponse
	api.blogs.afterList = func() {
		created = api.createBlog(token, map[string]interface{}{"title": "Racing", "url": "http://x"})
	}

	stale := decode[[]models.BlogResponse](t, api.do(http.MethodGet, "/api/blogs", nil, ""))
	assert.Empty(t, stale)
	assert.Nil(t, api.cache.cached(), "list read before the create must not be cached")

	blogs := decode[[]models.BlogResponse](t, api.do(http.MethodGet, "/api/blogs", nil, ""))
	require.Len(t, blogs, 1)
	assert.Equal(t, created.ID, blogs[0].ID)
}

func TestInternalErrorsAreGeneric(t *testing.T) {
	api := newTestAPI(t)
	api.blogs.listErr = errStore

	rec := api.do(http.MethodGet, "/api/blogs/stats", nil, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", errorMessage(t, rec))
	assert.NotContains(t, rec.Body.String(), errStore.Error())
}

func TestReset(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.signUp("root", "sekret")
	api.createBlog(token, map[string]interface{}{"title": "T", "url": "http://x"})

	rec := api.do(http.MethodPost, "/api/testing/reset", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, api.blogs.count())

	users := decode[[]models.UserResponse](t, api.do(http.MethodGet, "/api/users", nil, ""))
	assert.Empty(t, users)
}

func TestReset_NotMountedOutsideTestEnv(t *testing.T) {
	api := newTestAPI(t, func(c *config.Config) { c.Env = "production" })

	rec := api.do(http.MethodPost, "/api/testing/reset", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "unknown endpoint", errorMessage(t, rec))
}

func TestUnknownEndpointAndHealth(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/api/nothing-here", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "unknown endpoint", errorMessage(t, rec))

	rec = api.do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode[map[string]string](t, rec)["status"])
}

func TestFirebaseLoginNotMountedWithoutVerifier(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/api/login/firebase", map[string]string{"idToken": "x"}, "")
	assert.NotEqual(t, http.StatusOK, rec.Code)
}

func TestFirebaseLogin(t *testing.T) {
	api := newTestAPIWith(t, fakeVerifier{
		"good": {UID: "uid-1", Claims: map[string]interface{}{"email": "ada@example.com", "email_verified": true, "name": "Ada"}},
		"anon": {UID: "uid-2", Claims: map[string]interface{}{}},
	})

	rec := api.do(http.MethodPost, "/api/login/firebase", map[string]string{"idToken": "good"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decode[models.LoginResponse](t, rec)
	assert.Equal(t, "firebase:uid-1", first.Username)
	assert.Equal(t, "Ada", first.Name)

	rec = api.do(http.MethodPost, "/api/login/firebase", map[string]string{"idToken": "good"}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodPost, "/api/login/firebase", map[string]string{"idToken": "anon"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "firebase:uid-2", decode[models.LoginResponse](t, rec).Username)

	users := decode[[]models.UserResponse](t, api.do(http.MethodGet, "/api/users", nil, ""))
	assert.Len(t, users, 2, "second login reuses the account")

	// the issued token works against protected routes
	api.createBlog(first.Token, map[string]interface{}{"title": "T", "url": "http://x"})

	// firebase-only accounts have no password
	rec = api.do(http.MethodPost, "/api/login", map[string]string{"username": "firebase:uid-1", "password": ""}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodPost, "/api/login/firebase", map[string]string{"idToken": "bad"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodPost, "/api/login/firebase", map[string]string{}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFirebaseLogin_EmailDoesNotReachRegisteredAccount(t *testing.T) {
	api := newTestAPIWith(t, fakeVerifier{
		"evil": {UID: "evil", Claims: map[string]interface{}{"email": "victim@x.io", "email_verified": true}},
	})
	victimToken, victimID := api.signUp("victim@x.io", "sekret")
	blog := api.createBlog(victimToken, map[string]interface{}{"title": "mine", "url": "http://x"})

	rec := api.do(http.MethodPost, "/api/login/firebase", map[string]string{"idToken": "evil"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	login := decode[models.LoginResponse](t, rec)
	assert.Equal(t, "firebase:evil", login.Username)

	claims, err := api.issuer.Parse(login.Token)
	require.NoError(t, err)
	assert.NotEqual(t, victimID.Hex(), claims.ID)

	rec = api.do(http.MethodDelete, "/api/blogs/"+blog.ID.Hex(), nil, login.Token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 1, api.blogs.count())
}

func TestFirebaseLogin_RefusesPasswordAccount(t *testing.T) {
	api := newTestAPIWith(t, fakeVerifier{"tok": {UID: "uid-9"}})

	// only reachable through a store populated outside registration
	hash, err := auth.HashPassword("sekret")
	require.NoError(t, err)
	require.NoError(t, api.users.CreateUser(t.Context(), &models.User{Username: "firebase:uid-9", PasswordHash: hash}))

	rec := api.do(http.MethodPost, "/api/login/firebase", map[string]string{"idToken": "tok"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "account is not linked to firebase", errorMessage(t, rec))
}

func TestRegister_ReservedUsername(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/api/users", map[string]string{"username": "firebase:uid-1", "password": "sekret"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "username must not contain ':'", errorMessage(t, rec))
}
