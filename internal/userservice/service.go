// Package userservice manages business logic layer of users.
package userservice

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/0x0d01/simple-bank/internal/domain"
	"github.com/0x0d01/simple-bank/pkg/errorspkg"
	"github.com/0x0d01/simple-bank/pkg/passpkg"
)

// Repo provides data access layer interface needed by user service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package userservice
type Repo interface {
	Create(ctx context.Context, id string, arg domain.CreateUserParams) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByCID(ctx context.Context, cid string) (domain.User, error)
}

// Service facilitates user service layer logic.
type Service struct {
	repo Repo
}

// New returns user service struct to manage user business logic.
func New(ur Repo) *Service {
	return &Service{
		repo: ur,
	}
}

// CreateParams holds the plaintext registration input.
type CreateParams struct {
	Email    string
	Password string
	Role     string
	CID      string
	NameTh   string
	NameEn   string
	Pin      string
}

// Create registers and returns a user. Password and PIN are bcrypt-hashed
// before they reach the store.
func (s *Service) Create(ctx context.Context, arg CreateParams) (domain.User, error) {
	l := zerolog.Ctx(ctx)

	var result domain.User

	role, err := domain.ParseRole(arg.Role)
	if err != nil {
		return result, err
	}

	hashedPassword, err := passpkg.Hash(arg.Password)
	if err != nil {
		l.Error().Err(err).Send()
		return result, errorspkg.ErrInternal
	}

	hashedPin := ""

	if arg.Pin != "" {
		hashedPin, err = passpkg.Hash(arg.Pin)
		if err != nil {
			l.Error().Err(err).Send()
			return result, errorspkg.ErrInternal
		}
	}

	params := domain.CreateUserParams{
		Email:          arg.Email,
		HashedPassword: hashedPassword,
		Role:           role,
		CID:            arg.CID,
		NameTh:         arg.NameTh,
		NameEn:         arg.NameEn,
		HashedPin:      hashedPin,
	}

	return s.repo.Create(ctx, uuid.NewString(), params)
}

// Get returns the user behind the given email login.
func (s *Service) Get(ctx context.Context, email string) (domain.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

// CheckPassword returns the user when the password matches their email login.
func (s *Service) CheckPassword(ctx context.Context, email, password string) (domain.User, error) {
	l := zerolog.Ctx(ctx)

	gotUser, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return domain.User{}, err
	}

	if err := passpkg.Check(password, gotUser.HashedPassword); err != nil {
		l.Warn().Err(err).Send()
		return domain.User{}, domain.ErrWrongPassword
	}

	return gotUser, nil
}

// VerifyPin checks the PIN of the customer behind the given citizen id.
func (s *Service) VerifyPin(ctx context.Context, cid, pin string) error {
	l := zerolog.Ctx(ctx)

	gotUser, err := s.repo.GetByCID(ctx, cid)
	if err != nil {
		return err
	}

	if gotUser.HashedPin == "" {
		return domain.ErrInvalidPin
	}

	if err := passpkg.Check(pin, gotUser.HashedPin); err != nil {
		l.Warn().Err(err).Send()
		return domain.ErrInvalidPin
	}

	return nil
}
