// Package accountservice manages business logic layer of accounts.
package accountservice

import (
	"context"

	"github.com/0x0d01/simple-bank/internal/domain"
)

// Repo provides data access layer interface needed by account service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package accountservice
type Repo interface {
	Create(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error)
	Get(ctx context.Context, id int64) (domain.Account, error)
	ListByCID(ctx context.Context, cid string) ([]domain.Account, error)
}

// Service facilitates account service layer logic.
type Service struct {
	repo Repo
}

// New returns account service struct to manage account business logic.
func New(ar Repo) *Service {
	return &Service{repo: ar}
}

// Create opens an account for the given customer identity.
func (s *Service) Create(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error) {
	return s.repo.Create(ctx, arg)
}

// Get returns the account with the given id.
func (s *Service) Get(ctx context.Context, id int64) (domain.Account, error) {
	return s.repo.Get(ctx, id)
}

// ListByCID returns all accounts backed by the given citizen id.
func (s *Service) ListByCID(ctx context.Context, cid string) ([]domain.Account, error) {
	return s.repo.ListByCID(ctx, cid)
}
