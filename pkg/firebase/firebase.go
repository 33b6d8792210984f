// Package firebase connects to Firebase Authentication for the optional
// ID token login exchange.
package firebase

import (
	"context"
	"errors"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// UsernamePrefix namespaces accounts created through Firebase. Registered
// usernames may not contain ':' so they can never collide with one.
const UsernamePrefix = "firebase:"

// NewAuthClient loads the service account at credentialsPath and returns the
// auth client used to verify ID tokens.
func NewAuthClient(ctx context.Context, credentialsPath string) (*auth.Client, error) {
	if credentialsPath == "" {
		return nil, errors.New("firebase credentials path not provided")
	}
	if _, err := os.Stat(credentialsPath); err != nil {
		return nil, fmt.Errorf("firebase credentials file not found at %s: %w", credentialsPath, err)
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting firebase auth client: %w", err)
	}
	return client, nil
}

// Identity is the part of a verified ID token the login exchange trusts
type Identity struct {
	UID           string
	Email         string
	EmailVerified bool
	Name          string
}

// IdentityFromToken reads the standard claims of a verified token
func IdentityFromToken(token *auth.Token) Identity {
	id := Identity{UID: token.UID}
	id.Email, _ = token.Claims["email"].(string)
	id.EmailVerified, _ = token.Claims["email_verified"].(bool)
	id.Name, _ = token.Claims["name"].(string)
	return id
}

// Username is the local username bound to this Firebase account. It depends
// only on the UID, never on the email.
func (i Identity) Username() string {
	return UsernamePrefix + i.UID
}

// DisplayName prefers the profile name and falls back to a verified email
func (i Identity) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	if i.EmailVerified {
		return i.Email
	}
	return ""
}
