package userservice

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/0x0d01/simple-bank/internal/domain"
	"github.com/0x0d01/simple-bank/pkg/passpkg"
	"github.com/0x0d01/simple-bank/pkg/randompkg"
)

func TestCreate(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := NewMockRepo(ctrl)
	svc := New(repo)

	arg := CreateParams{
		Email:    randompkg.Email(),
		Password: randompkg.String(10),
		Role:     "USER",
		CID:      randompkg.CID(),
		NameTh:   "สมชาย ใจดี",
		NameEn:   "Somchai J.",
		Pin:      randompkg.Pin(),
	}

	repo.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, id string, params domain.CreateUserParams) (domain.User, error) {
			require.NotEmpty(t, id)
			require.Equal(t, arg.Email, params.Email)
			require.Equal(t, domain.RoleUser, params.Role)
			require.Equal(t, arg.CID, params.CID)
			require.NoError(t, passpkg.Check(arg.Password, params.HashedPassword))
			require.NoError(t, passpkg.Check(arg.Pin, params.HashedPin))

			return domain.User{
				ID:        id,
				Email:     params.Email,
				Role:      params.Role,
				CID:       params.CID,
				NameTh:    params.NameTh,
				NameEn:    params.NameEn,
				HashedPin: params.HashedPin,
			}, nil
		})

	created, err := svc.Create(context.Background(), arg)
	require.NoError(t, err)
	require.Equal(t, arg.Email, created.Email)
	require.Equal(t, domain.RoleUser, created.Role)
}

func TestCreateInvalidRole(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := New(NewMockRepo(ctrl))

	_, err := svc.Create(context.Background(), CreateParams{
		Email:    randompkg.Email(),
		Password: randompkg.String(10),
		Role:     "SUPERUSER",
	})
	require.ErrorIs(t, err, domain.ErrInvalidRole)
}

func TestCheckPassword(t *testing.T) {
	password := randompkg.String(10)

	hashedPassword, err := passpkg.Hash(password)
	require.NoError(t, err)

	user := domain.User{
		ID:             "user-1",
		Email:          randompkg.Email(),
		HashedPassword: hashedPassword,
		Role:           domain.RoleUser,
	}

	testCases := []struct {
		name       string
		email      string
		password   string
		buildStubs func(repo *MockRepo)
		wantErr    error
	}{
		{
			name:     "OK",
			email:    user.Email,
			password: password,
			buildStubs: func(repo *MockRepo) {
				repo.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(user, nil)
			},
		},
		{
			name:     "WrongPassword",
			email:    user.Email,
			password: "not-the-password",
			buildStubs: func(repo *MockRepo) {
				repo.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(user, nil)
			},
			wantErr: domain.ErrWrongPassword,
		},
		{
			name:     "NotFound",
			email:    "missing@example.com",
			password: password,
			buildStubs: func(repo *MockRepo) {
				repo.EXPECT().GetByEmail(gomock.Any(), "missing@example.com").
					Return(domain.User{}, domain.ErrUserNotFound)
			},
			wantErr: domain.ErrUserNotFound,
		},
	}

	for _, tc := range testCases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := NewMockRepo(ctrl)
			tc.buildStubs(repo)

			svc := New(repo)

			got, err := svc.CheckPassword(context.Background(), tc.email, tc.password)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, user.ID, got.ID)
		})
	}
}

func TestVerifyPin(t *testing.T) {
	pin := randompkg.Pin()

	hashedPin, err := passpkg.Hash(pin)
	require.NoError(t, err)

	cid := randompkg.CID()
	user := domain.User{ID: "user-1", Role: domain.RoleUser, CID: cid, HashedPin: hashedPin}

	testCases := []struct {
		name       string
		cid        string
		pin        string
		buildStubs func(repo *MockRepo)
		wantErr    error
	}{
		{
			name: "OK",
			cid:  cid,
			pin:  pin,
			buildStubs: func(repo *MockRepo) {
				repo.EXPECT().GetByCID(gomock.Any(), cid).Return(user, nil)
			},
		},
		{
			name: "WrongPin",
			cid:  cid,
			pin:  "000000",
			buildStubs: func(repo *MockRepo) {
				repo.EXPECT().GetByCID(gomock.Any(), cid).Return(user, nil)
			},
			wantErr: domain.ErrInvalidPin,
		},
		{
			name: "NoPinSet",
			cid:  cid,
			pin:  pin,
			buildStubs: func(repo *MockRepo) {
				repo.EXPECT().GetByCID(gomock.Any(), cid).
					Return(domain.User{ID: "user-2", Role: domain.RoleUser, CID: cid}, nil)
			},
			wantErr: domain.ErrInvalidPin,
		},
		{
			name: "UnknownCID",
			cid:  "9999999999999",
			pin:  pin,
			buildStubs: func(repo *MockRepo) {
				repo.EXPECT().GetByCID(gomock.Any(), "9999999999999").
					Return(domain.User{}, domain.ErrUserNotFound)
			},
			wantErr: domain.ErrUserNotFound,
		},
	}

	for _, tc := range testCases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := NewMockRepo(ctrl)
			tc.buildStubs(repo)

			svc := New(repo)

			err := svc.VerifyPin(context.Background(), tc.cid, tc.pin)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
		})
	}
}
