package models

import (
	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a registered account stored in the credential store
type User struct {
	ID           primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Username     string               `json:"username" bson:"username"`
	Name         string               `json:"name" bson:"name"`
	PasswordHash string               `json:"-" bson:"password_hash"` // never serialized to clients
	Blogs        []primitive.ObjectID `json:"blogs" bson:"blogs"`
}

// RegisterRequest defines the request body for creating a new user.
// ":" is reserved for externally authenticated accounts.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,excludes=:"`
	Name     string `json:"name"`
	Password string `json:"password" validate:"required,min=3"`
}

// LoginRequest defines the request body for password login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// FirebaseLoginRequest defines the request body for Firebase login
type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// LoginResponse is returned by every successful login
type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// UserSummary is the owner identity joined into blog responses
type UserSummary struct {
	ID       primitive.ObjectID `json:"id"`
	Username string             `json:"username"`
	Name     string             `json:"name"`
}

// UserResponse is a user with owned blogs resolved
type UserResponse struct {
	ID       primitive.ObjectID `json:"id"`
	Username string             `json:"username"`
	Name     string             `json:"name"`
	Blogs    []BlogSummary      `json:"blogs"`
}

// Summary returns the public identity of the user
func (u *User) Summary() *UserSummary {
	return &UserSummary{ID: u.ID, Username: u.Username, Name: u.Name}
}

// TokenClaims are the claims embedded in issued bearer tokens
type TokenClaims struct {
	Username string `json:"username"`
	ID       string `json:"id"`
	jwt.RegisteredClaims
}
