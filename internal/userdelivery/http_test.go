package userdelivery

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/0x0d01/simple-bank/internal/domain"
	"github.com/0x0d01/simple-bank/internal/userservice"
	"github.com/0x0d01/simple-bank/pkg/randompkg"
	"github.com/0x0d01/simple-bank/pkg/tokenpkg"
	"github.com/0x0d01/simple-bank/pkg/web"
)

func newTestServer(t *testing.T) (*gin.Engine, *MockService) {
	t.Helper()

	tokenMaker, err := tokenpkg.NewPasetoMaker(randompkg.String(32))
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	service := NewMockService(ctrl)
	handler := NewHandler(service, tokenMaker, time.Minute)

	gin.SetMode(gin.ReleaseMode)
	server := gin.New()
	server.POST("/users", handler.Create)
	server.POST("/users/login", handler.Login)

	return server, service
}

func post(t *testing.T, server *gin.Engine, url string, body gin.H) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	request, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, request)

	return recorder
}

func TestCreateUserAPI(t *testing.T) {
	cid := randompkg.CID()

	body := gin.H{
		"email":    "customer@example.com",
		"password": "secret1",
		"role":     "USER",
		"cid":      cid,
		"name_th":  "สมชาย ใจดี",
		"name_en":  "Somchai J.",
		"pin":      "123456",
	}

	testCases := []struct {
		name       string
		body       gin.H
		buildStubs func(service *MockService)
		wantCode   int
	}{
		{
			name: "OK",
			body: body,
			buildStubs: func(service *MockService) {
				service.EXPECT().
					Create(gomock.Any(), userservice.CreateParams{
						Email:    "customer@example.com",
						Password: "secret1",
						Role:     "USER",
						CID:      cid,
						NameTh:   "สมชาย ใจดี",
						NameEn:   "Somchai J.",
						Pin:      "123456",
					}).
					Return(domain.User{ID: "user-1", Email: "customer@example.com", Role: domain.RoleUser, CID: cid}, nil)
			},
			wantCode: http.StatusOK,
		},
		{
			name: "EmailExists",
			body: body,
			buildStubs: func(service *MockService) {
				service.EXPECT().Create(gomock.Any(), gomock.Any()).
					Return(domain.User{}, domain.ErrEmailAlreadyExists)
			},
			wantCode: http.StatusConflict,
		},
		{
			name: "InvalidRole",
			body: gin.H{
				"email":    "customer@example.com",
				"password": "secret1",
				"role":     "SUPERUSER",
			},
			buildStubs: func(service *MockService) {
				service.EXPECT().Create(gomock.Any(), gomock.Any()).
					Return(domain.User{}, domain.ErrInvalidRole)
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "BadEmail",
			body: gin.H{
				"email":    "not-an-email",
				"password": "secret1",
				"role":     "USER",
			},
			buildStubs: func(service *MockService) {},
			wantCode:   http.StatusBadRequest,
		},
		{
			name: "ShortPin",
			body: gin.H{
				"email":    "customer@example.com",
				"password": "secret1",
				"role":     "USER",
				"pin":      "12",
			},
			buildStubs: func(service *MockService) {},
			wantCode:   http.StatusBadRequest,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			server, service := newTestServer(t)
			tc.buildStubs(service)

			recorder := post(t, server, "/users", tc.body)
			require.Equal(t, tc.wantCode, recorder.Code)
		})
	}
}

func TestLoginAPI(t *testing.T) {
	user := domain.User{
		ID:    "user-1",
		Email: "customer@example.com",
		Role:  domain.RoleUser,
		CID:   randompkg.CID(),
	}

	body := gin.H{
		"email":    user.Email,
		"password": "secret1",
	}

	testCases := []struct {
		name       string
		body       gin.H
		buildStubs func(service *MockService)
		wantCode   int
		checkResp  func(t *testing.T, recorder *httptest.ResponseRecorder)
	}{
		{
			name: "OK",
			body: body,
			buildStubs: func(service *MockService) {
				service.EXPECT().CheckPassword(gomock.Any(), user.Email, "secret1").Return(user, nil)
			},
			wantCode: http.StatusOK,
			checkResp: func(t *testing.T, recorder *httptest.ResponseRecorder) {
				var got web.Response
				require.NoError(t, json.NewDecoder(recorder.Body).Decode(&got))
				require.NotEmpty(t, got.AccessToken)
				require.NotEmpty(t, got.AccessTokenExpiresAt)
			},
		},
		{
			name: "WrongPassword",
			body: body,
			buildStubs: func(service *MockService) {
				service.EXPECT().CheckPassword(gomock.Any(), user.Email, "secret1").
					Return(domain.User{}, domain.ErrWrongPassword)
			},
			wantCode: http.StatusUnauthorized,
		},
		{
			name: "UserNotFound",
			body: body,
			buildStubs: func(service *MockService) {
				service.EXPECT().CheckPassword(gomock.Any(), user.Email, "secret1").
					Return(domain.User{}, domain.ErrUserNotFound)
			},
			wantCode: http.StatusNotFound,
		},
		{
			name: "MissingPassword",
			body: gin.H{
				"email": user.Email,
			},
			buildStubs: func(service *MockService) {},
			wantCode:   http.StatusBadRequest,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			server, service := newTestServer(t)
			tc.buildStubs(service)

			recorder := post(t, server, "/users/login", tc.body)
			require.Equal(t, tc.wantCode, recorder.Code)

			if tc.checkResp != nil {
				tc.checkResp(t, recorder)
			}
		})
	}
}
