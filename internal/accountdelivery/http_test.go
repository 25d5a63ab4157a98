package accountdelivery

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
	"github.com/0x0d01/simple-bank/internal/middleware"
	"github.com/0x0d01/simple-bank/pkg/randompkg"
	"github.com/0x0d01/simple-bank/pkg/tokenpkg"
)

type testEnv struct {
	server     *gin.Engine
	service    *MockService
	balances   *MockBalancer
	statements *MockStatementGenerator
	pins       *MockPinVerifier
	maker      tokenpkg.Maker
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tokenMaker, err := tokenpkg.NewPasetoMaker(randompkg.String(32))
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	service := NewMockService(ctrl)
	balances := NewMockBalancer(ctrl)
	statements := NewMockStatementGenerator(ctrl)
	pins := NewMockPinVerifier(ctrl)
	handler := NewHandler(service, balances, statements, pins)

	gin.SetMode(gin.ReleaseMode)
	server := gin.New()
	server.Use(middleware.Auth(tokenMaker))
	server.POST("/accounts", handler.Create)
	server.GET("/accounts", handler.List)
	server.GET("/accounts/:id", handler.Get)
	server.POST("/accounts/:id/statement", handler.Statement)

	return &testEnv{
		server:     server,
		service:    service,
		balances:   balances,
		statements: statements,
		pins:       pins,
		maker:      tokenMaker,
	}
}

func (e *testEnv) do(t *testing.T, method, url string, body gin.H, user *domain.User) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	request, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)

	if user != nil {
		err = middleware.AddAuthorization(request, e.maker, middleware.AuthTypeBearer,
			user.Email, string(user.Role), user.CID, time.Minute)
		require.NoError(t, err)
	}

	recorder := httptest.NewRecorder()
	e.server.ServeHTTP(recorder, request)

	return recorder
}

func TestCreateAccountAPI(t *testing.T) {
	admin := domain.User{Email: "teller@example.com", Role: domain.RoleAdmin}
	cid := randompkg.CID()
	customer := domain.User{Email: "customer@example.com", Role: domain.RoleUser, CID: cid}

	body := gin.H{
		"cid":     cid,
		"name_th": "สมชาย ใจดี",
		"name_en": "Somchai J.",
	}

	testCases := []struct {
		name       string
		body       gin.H
		user       *domain.User
		buildStubs func(e *testEnv)
		wantCode   int
	}{
		{
			name: "OK",
			body: body,
			user: &admin,
			buildStubs: func(e *testEnv) {
				e.service.EXPECT().
					Create(gomock.Any(), domain.CreateAccountParams{CID: cid, NameTh: "สมชาย ใจดี", NameEn: "Somchai J."}).
					Return(domain.Account{ID: 1, CID: cid, NameTh: "สมชาย ใจดี", NameEn: "Somchai J."}, nil)
			},
			wantCode: http.StatusOK,
		},
		{
			name:       "UserForbidden",
			body:       body,
			user:       &customer,
			buildStubs: func(e *testEnv) {},
			wantCode:   http.StatusForbidden,
		},
		{
			name:       "NoAuthorization",
			body:       body,
			user:       nil,
			buildStubs: func(e *testEnv) {},
			wantCode:   http.StatusUnauthorized,
		},
		{
			name: "BadCID",
			body: gin.H{
				"cid":     "123",
				"name_th": "สมชาย ใจดี",
				"name_en": "Somchai J.",
			},
			user:       &admin,
			buildStubs: func(e *testEnv) {},
			wantCode:   http.StatusBadRequest,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			e := newTestEnv(t)
			tc.buildStubs(e)

			recorder := e.do(t, http.MethodPost, "/accounts", tc.body, tc.user)
			require.Equal(t, tc.wantCode, recorder.Code)

			if tc.wantCode == http.StatusOK {
				var got struct {
					Data accountData `json:"data"`
				}
				require.NoError(t, json.NewDecoder(recorder.Body).Decode(&got))
				require.Equal(t, "0000001", got.Data.AccountNo)
				require.Equal(t, "0.00", got.Data.DisplayBalance)
			}
		})
	}
}

func TestGetAccountAPI(t *testing.T) {
	cid := randompkg.CID()
	admin := domain.User{Email: "teller@example.com", Role: domain.RoleAdmin}
	customer := domain.User{Email: "customer@example.com", Role: domain.RoleUser, CID: cid}

	account := domain.Account{ID: 1234567, CID: cid, NameEn: "Somchai J."}

	testCases := []struct {
		name       string
		url        string
		user       *domain.User
		buildStubs func(e *testEnv)
		wantCode   int
	}{
		{
			name: "OwnerOK",
			url:  "/accounts/1234567",
			user: &customer,
			buildStubs: func(e *testEnv) {
				e.service.EXPECT().Get(gomock.Any(), int64(1234567)).Return(account, nil)
				e.balances.EXPECT().BalanceOf(gomock.Any(), int64(1234567)).Return(int64(98700), nil)
			},
			wantCode: http.StatusOK,
		},
		{
			name: "AdminAnyAccount",
			url:  "/accounts/1234567",
			user: &admin,
			buildStubs: func(e *testEnv) {
				e.service.EXPECT().Get(gomock.Any(), int64(1234567)).Return(account, nil)
				e.balances.EXPECT().BalanceOf(gomock.Any(), int64(1234567)).Return(int64(98700), nil)
			},
			wantCode: http.StatusOK,
		},
		{
			name: "ForeignAccountForbidden",
			url:  "/accounts/1234567",
			user: &domain.User{Email: "other@example.com", Role: domain.RoleUser, CID: "9999999999999"},
			buildStubs: func(e *testEnv) {
				e.service.EXPECT().Get(gomock.Any(), int64(1234567)).Return(account, nil)
			},
			wantCode: http.StatusForbidden,
		},
		{
			name: "NotFound",
			url:  "/accounts/7654321",
			user: &admin,
			buildStubs: func(e *testEnv) {
				e.service.EXPECT().Get(gomock.Any(), int64(7654321)).
					Return(domain.Account{}, domain.ErrAccountNotFound)
			},
			wantCode: http.StatusNotFound,
		},
		{
			name:       "BadAccountNo",
			url:        "/accounts/123",
			user:       &admin,
			buildStubs: func(e *testEnv) {},
			wantCode:   http.StatusBadRequest,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			e := newTestEnv(t)
			tc.buildStubs(e)

			recorder := e.do(t, http.MethodGet, tc.url, nil, tc.user)
			require.Equal(t, tc.wantCode, recorder.Code)

			if tc.wantCode == http.StatusOK {
				var got struct {
					Data accountData `json:"data"`
				}
				require.NoError(t, json.NewDecoder(recorder.Body).Decode(&got))
				require.Equal(t, "1234567", got.Data.AccountNo)
				require.Equal(t, int64(98700), got.Data.Balance)
				require.Equal(t, "987.00", got.Data.DisplayBalance)
			}
		})
	}
}

func TestListAccountsAPI(t *testing.T) {
	cid := randompkg.CID()
	admin := domain.User{Email: "teller@example.com", Role: domain.RoleAdmin}
	customer := domain.User{Email: "customer@example.com", Role: domain.RoleUser, CID: cid}

	accounts := []domain.Account{
		{ID: 1234567, CID: cid, NameEn: "Somchai J."},
		{ID: 1234568, CID: cid, NameEn: "Somchai J."},
	}

	testCases := []struct {
		name       string
		url        string
		user       *domain.User
		buildStubs func(e *testEnv)
		wantCode   int
		wantLen    int
	}{
		{
			name: "OwnerListsOwnAccounts",
			url:  "/accounts",
			user: &customer,
			buildStubs: func(e *testEnv) {
				e.service.EXPECT().ListByCID(gomock.Any(), cid).Return(accounts, nil)
				e.balances.EXPECT().BalanceOf(gomock.Any(), int64(1234567)).Return(int64(98700), nil)
				e.balances.EXPECT().BalanceOf(gomock.Any(), int64(1234568)).Return(int64(0), nil)
			},
			wantCode: http.StatusOK,
			wantLen:  2,
		},
		{
			name: "AdminListsByCID",
			url:  "/accounts?cid=" + cid,
			user: &admin,
			buildStubs: func(e *testEnv) {
				e.service.EXPECT().ListByCID(gomock.Any(), cid).Return(accounts[:1], nil)
				e.balances.EXPECT().BalanceOf(gomock.Any(), int64(1234567)).Return(int64(98700), nil)
			},
			wantCode: http.StatusOK,
			wantLen:  1,
		},
		{
			name:       "AdminMissingCID",
			url:        "/accounts",
			user:       &admin,
			buildStubs: func(e *testEnv) {},
			wantCode:   http.StatusBadRequest,
		},
		{
			name:       "UserForeignCIDForbidden",
			url:        "/accounts?cid=9999999999999",
			user:       &customer,
			buildStubs: func(e *testEnv) {},
			wantCode:   http.StatusForbidden,
		},
		{
			name:       "BadCIDFormat",
			url:        "/accounts?cid=123",
			user:       &admin,
			buildStubs: func(e *testEnv) {},
			wantCode:   http.StatusBadRequest,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			e := newTestEnv(t)
			tc.buildStubs(e)

			recorder := e.do(t, http.MethodGet, tc.url, nil, tc.user)
			require.Equal(t, tc.wantCode, recorder.Code)

			if tc.wantCode == http.StatusOK {
				var got struct {
					Data accountsData `json:"data"`
				}
				require.NoError(t, json.NewDecoder(recorder.Body).Decode(&got))
				require.Len(t, got.Data.Accounts, tc.wantLen)
				require.Equal(t, "1234567", got.Data.Accounts[0].AccountNo)
				require.Equal(t, "987.00", got.Data.Accounts[0].DisplayBalance)
			}
		})
	}
}

func TestStatementAPI(t *testing.T) {
	cid := randompkg.CID()
	admin := domain.User{Email: "teller@example.com", Role: domain.RoleAdmin}
	customer := domain.User{Email: "customer@example.com", Role: domain.RoleUser, CID: cid}

	account := domain.Account{ID: 1234567, CID: cid, NameEn: "Somchai J."}

	statement := []byte("Date,Time,Code,Channel,Debit/Credit,Balance,Remark\n")

	body := gin.H{
		"pin":   "123456",
		"since": 1748736000,
		"until": 1751327999,
	}

	testCases := []struct {
		name       string
		body       gin.H
		user       *domain.User
		buildStubs func(e *testEnv)
		wantCode   int
		checkResp  func(t *testing.T, recorder *httptest.ResponseRecorder)
	}{
		{
			name: "OK",
			body: body,
			user: &customer,
			buildStubs: func(e *testEnv) {
				e.service.EXPECT().Get(gomock.Any(), int64(1234567)).Return(account, nil)
				e.pins.EXPECT().VerifyPin(gomock.Any(), cid, "123456").Return(nil)
				e.statements.EXPECT().
					Generate(gomock.Any(), int64(1234567), int64(1748736000), int64(1751327999)).
					Return(statement, nil)
			},
			wantCode: http.StatusOK,
			checkResp: func(t *testing.T, recorder *httptest.ResponseRecorder) {
				require.Equal(t, "text/csv", recorder.Header().Get("Content-Type"))
				require.Equal(t,
					"attachment; filename=bank_statement_1234567_1748736000_1751327999.csv",
					recorder.Header().Get("Content-Disposition"))
				require.Equal(t, statement, recorder.Body.Bytes())
			},
		},
		{
			name: "WindowFromEpochStart",
			body: gin.H{
				"pin":   "123456",
				"since": 0,
				"until": 1751327999,
			},
			user: &customer,
			buildStubs: func(e *testEnv) {
				e.service.EXPECT().Get(gomock.Any(), int64(1234567)).Return(account, nil)
				e.pins.EXPECT().VerifyPin(gomock.Any(), cid, "123456").Return(nil)
				e.statements.EXPECT().
					Generate(gomock.Any(), int64(1234567), int64(0), int64(1751327999)).
					Return(statement, nil)
			},
			wantCode: http.StatusOK,
		},
		{
			name: "NegativeSince",
			body: gin.H{
				"pin":   "123456",
				"since": -1,
				"until": 1751327999,
			},
			user: &customer,
			buildStubs: func(e *testEnv) {
				e.service.EXPECT().Get(gomock.Any(), int64(1234567)).Return(account, nil)
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name:       "AdminForbidden",
			body:       body,
			user:       &admin,
			buildStubs: func(e *testEnv) {},
			wantCode:   http.StatusForbidden,
		},
		{
			name: "WrongPin",
			body: gin.H{
				"pin":   "000000",
				"since": 1748736000,
				"until": 1751327999,
			},
			user: &customer,
			buildStubs: func(e *testEnv) {
				e.service.EXPECT().Get(gomock.Any(), int64(1234567)).Return(account, nil)
				e.pins.EXPECT().VerifyPin(gomock.Any(), cid, "000000").Return(domain.ErrInvalidPin)
			},
			wantCode: http.StatusForbidden,
		},
		{
			name: "InvertedRange",
			body: gin.H{
				"pin":   "123456",
				"since": 1751327999,
				"until": 1748736000,
			},
			user: &customer,
			buildStubs: func(e *testEnv) {
				e.service.EXPECT().Get(gomock.Any(), int64(1234567)).Return(account, nil)
				e.pins.EXPECT().VerifyPin(gomock.Any(), cid, "123456").Return(nil)
				e.statements.EXPECT().
					Generate(gomock.Any(), int64(1234567), int64(1751327999), int64(1748736000)).
					Return(nil, domain.ErrInvalidRange)
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "ShortPin",
			body: gin.H{
				"pin":   "123",
				"since": 1748736000,
				"until": 1751327999,
			},
			user: &customer,
			buildStubs: func(e *testEnv) {
				e.service.EXPECT().Get(gomock.Any(), int64(1234567)).Return(account, nil)
			},
			wantCode: http.StatusBadRequest,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			e := newTestEnv(t)
			tc.buildStubs(e)

			recorder := e.do(t, http.MethodPost, "/accounts/1234567/statement", tc.body, tc.user)
			require.Equal(t, tc.wantCode, recorder.Code)

			if tc.checkResp != nil {
				tc.checkResp(t, recorder)
			}
		})
	}
}
