// Package domain provides definitions of all entities.
package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrAccountNotFound indicates that the account is not found.
	ErrAccountNotFound = errors.New("account not found")
)

// Account holds bank account data.
//
// The account id is sequential and displayed as a 7-digit zero-padded
// number. The owning customer is referenced by citizen id (CID); the same
// CID may back multiple accounts.
type Account struct {
	ID        int64     `json:"-"`
	CID       string    `json:"cid"`
	NameTh    string    `json:"name_th"`
	NameEn    string    `json:"name_en"`
	CreatedAt time.Time `json:"created_date"`
	UpdatedAt time.Time `json:"updated_date"`
}

// No returns the account number as a 7-digit zero-padded string.
func (a Account) No() string {
	return fmt.Sprintf("%07d", a.ID)
}

// CreateAccountParams holds data needed for Account creation.
type CreateAccountParams struct {
	CID    string `json:"cid"`
	NameTh string `json:"name_th"`
	NameEn string `json:"name_en"`
}
