package domain

import (
	"errors"
	"time"
)

var (
	// ErrUserNotFound indicates that the user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailAlreadyExists indicates that a user with the given email already exists.
	ErrEmailAlreadyExists = errors.New("email already exists")
	// ErrWrongPassword indicates the wrong password for the given user.
	ErrWrongPassword = errors.New("wrong password")
	// ErrInvalidPin indicates a failed PIN verification.
	ErrInvalidPin = errors.New("invalid PIN")
	// ErrAccessDenied indicates the caller is not entitled to the resource.
	ErrAccessDenied = errors.New("access denied")
	// ErrInvalidRole indicates an unknown role value.
	ErrInvalidRole = errors.New("invalid role")
)

// Role is the closed set of user roles.
type Role string

// All supported roles.
const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ParseRole maps a string onto the closed Role set.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	}

	return "", ErrInvalidRole
}

// User holds login and customer identity data.
//
// USER accounts carry the customer fields (CID, names, PIN); ADMIN accounts
// leave them empty.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	Role           Role      `json:"role"`
	CID            string    `json:"cid,omitempty"`
	NameTh         string    `json:"name_th,omitempty"`
	NameEn         string    `json:"name_en,omitempty"`
	HashedPin      string    `json:"-"`
	CreatedAt      time.Time `json:"created_date"`
}

// CreateUserParams holds data needed for User creation.
type CreateUserParams struct {
	Email          string
	HashedPassword string
	Role           Role
	CID            string
	NameTh         string
	NameEn         string
	HashedPin      string
}
