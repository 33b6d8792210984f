package client

import (
	"errors"
	"fmt"
	"net/http"
)

var ErrNotLoggedIn = errors.New("not logged in")

// APIError is a non-2xx response from the server
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server responded %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("server responded %d: %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
