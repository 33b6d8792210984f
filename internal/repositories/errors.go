package repositories

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrBlogNotFound      = errors.New("blog not found")
	ErrDuplicateUsername = errors.New("expected `username` to be unique")
	ErrInvalidID         = errors.New("invalid id format")
)
