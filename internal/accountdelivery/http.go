// Package accountdelivery manages delivery layer of accounts.
package accountdelivery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/0x0d01/simple-bank/internal/domain"
	"github.com/0x0d01/simple-bank/internal/middleware"
	"github.com/0x0d01/simple-bank/pkg/errorspkg"
	"github.com/0x0d01/simple-bank/pkg/moneypkg"
	"github.com/0x0d01/simple-bank/pkg/tokenpkg"
	"github.com/0x0d01/simple-bank/pkg/web"
)

// Service provides service layer interface needed by account delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package accountdelivery
type Service interface {
	Create(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error)
	Get(ctx context.Context, id int64) (domain.Account, error)
	ListByCID(ctx context.Context, cid string) ([]domain.Account, error)
}

// Balancer derives account balances from the transaction chain.
type Balancer interface {
	BalanceOf(ctx context.Context, accountID int64) (int64, error)
}

// StatementGenerator renders CSV statements.
type StatementGenerator interface {
	Generate(ctx context.Context, accountID, sinceEpochSec, untilEpochSec int64) ([]byte, error)
}

// PinVerifier checks customer PINs.
type PinVerifier interface {
	VerifyPin(ctx context.Context, cid, pin string) error
}

// Handler facilitates account delivery layer logic.
type Handler struct {
	service    Service
	balances   Balancer
	statements StatementGenerator
	pins       PinVerifier
}

// NewHandler returns account handler.
func NewHandler(as Service, b Balancer, sg StatementGenerator, pv PinVerifier) *Handler {
	return &Handler{
		service:    as,
		balances:   b,
		statements: sg,
		pins:       pv,
	}
}

type accountData struct {
	AccountNo      string         `json:"account_no"`
	Account        domain.Account `json:"account"`
	Balance        int64          `json:"balance"`
	DisplayBalance string         `json:"display_balance"`
}

type createRequest struct {
	CID    string `json:"cid" binding:"required,len=13,numeric"`
	NameTh string `json:"name_th" binding:"required"`
	NameEn string `json:"name_en" binding:"required"`
}

// Create handles http request to open an account.
func (h *Handler) Create(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)
	if authPayload.Role != string(domain.RoleAdmin) {
		gctx.JSON(http.StatusForbidden, web.Error(domain.ErrAccessDenied))
		return
	}

	var req createRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			field := ve[0]
			gctx.JSON(http.StatusBadRequest, web.Response{Error: field.Field() + web.GetErrorMsg(field)})

			return
		}

		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Error(err))

		return
	}

	createdAccount, err := h.service.Create(ctx, domain.CreateAccountParams{
		CID:    req.CID,
		NameTh: req.NameTh,
		NameEn: req.NameEn,
	})
	if err != nil {
		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
		return
	}

	res := web.Response{
		Data: accountData{
			AccountNo:      createdAccount.No(),
			Account:        createdAccount,
			Balance:        0,
			DisplayBalance: moneypkg.Display(0),
		},
	}

	gctx.JSON(http.StatusOK, res)
}

type accountsData struct {
	Accounts []accountData `json:"accounts"`
}

type listRequest struct {
	CID string `form:"cid" binding:"omitempty,len=13,numeric"`
}

// List handles http request to list accounts by owner, each with its derived
// balance. USER gets the accounts backed by their own citizen id; ADMIN names
// any customer with the cid query parameter.
func (h *Handler) List(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req listRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			field := ve[0]
			gctx.JSON(http.StatusBadRequest, web.Response{Error: field.Field() + web.GetErrorMsg(field)})

			return
		}

		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Error(err))

		return
	}

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	var cid string

	switch domain.Role(authPayload.Role) {
	case domain.RoleAdmin:
		if req.CID == "" {
			gctx.JSON(http.StatusBadRequest, web.Response{Error: "cid query parameter is required"})
			return
		}

		cid = req.CID
	case domain.RoleUser:
		if req.CID != "" && req.CID != authPayload.CID {
			gctx.JSON(http.StatusForbidden, web.Error(domain.ErrAccessDenied))
			return
		}

		cid = authPayload.CID
	default:
		gctx.JSON(http.StatusForbidden, web.Error(domain.ErrAccessDenied))
		return
	}

	accounts, err := h.service.ListByCID(ctx, cid)
	if err != nil {
		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
		return
	}

	items := make([]accountData, 0, len(accounts))

	for _, account := range accounts {
		balance, err := h.balances.BalanceOf(ctx, account.ID)
		if err != nil {
			gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
			return
		}

		items = append(items, accountData{
			AccountNo:      account.No(),
			Account:        account,
			Balance:        balance,
			DisplayBalance: moneypkg.Display(balance),
		})
	}

	gctx.JSON(http.StatusOK, web.Response{Data: accountsData{Accounts: items}})
}

type uriRequest struct {
	ID string `uri:"id" binding:"required,len=7,numeric"`
}

// resolve binds the 7-digit account number from the URI, loads the account
// and applies the role access rule: ADMIN reads any account, USER only
// accounts backed by their own citizen id.
func (h *Handler) resolve(gctx *gin.Context) (domain.Account, bool) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req uriRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			field := ve[0]
			gctx.JSON(http.StatusBadRequest, web.Response{Error: field.Field() + web.GetErrorMsg(field)})

			return domain.Account{}, false
		}

		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Error(err))

		return domain.Account{}, false
	}

	id, err := strconv.ParseInt(req.ID, 10, 64)
	if err != nil {
		gctx.JSON(http.StatusBadRequest, web.Error(err))
		return domain.Account{}, false
	}

	account, err := h.service.Get(ctx, id)
	if err != nil {
		if err == domain.ErrAccountNotFound {
			gctx.JSON(http.StatusNotFound, web.Error(err))
			return domain.Account{}, false
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return domain.Account{}, false
	}

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	switch domain.Role(authPayload.Role) {
	case domain.RoleAdmin:
	case domain.RoleUser:
		if account.CID == "" || account.CID != authPayload.CID {
			l.Warn().Str("account_no", account.No()).Msg("cid mismatch")
			gctx.JSON(http.StatusForbidden, web.Error(domain.ErrAccessDenied))

			return domain.Account{}, false
		}
	default:
		gctx.JSON(http.StatusForbidden, web.Error(domain.ErrAccessDenied))
		return domain.Account{}, false
	}

	return account, true
}

// Get handles http request to get an account with its derived balance.
func (h *Handler) Get(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	account, ok := h.resolve(gctx)
	if !ok {
		return
	}

	balance, err := h.balances.BalanceOf(ctx, account.ID)
	if err != nil {
		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
		return
	}

	res := web.Response{
		Data: accountData{
			AccountNo:      account.No(),
			Account:        account,
			Balance:        balance,
			DisplayBalance: moneypkg.Display(balance),
		},
	}

	gctx.JSON(http.StatusOK, res)
}

type statementRequest struct {
	Pin string `json:"pin" binding:"required,len=6,numeric"`
	// gte only: 0 is a valid boundary (a window starting at the epoch) and
	// required would reject it as an unset value.
	Since int64 `json:"since" binding:"gte=0"`
	Until int64 `json:"until" binding:"gte=0"`
}

// Statement handles http request to download a CSV account statement.
// Only the customer behind the account may request one, and the request
// must carry their valid PIN.
func (h *Handler) Statement(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)
	if authPayload.Role != string(domain.RoleUser) {
		gctx.JSON(http.StatusForbidden, web.Error(domain.ErrAccessDenied))
		return
	}

	account, ok := h.resolve(gctx)
	if !ok {
		return
	}

	var req statementRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			field := ve[0]
			gctx.JSON(http.StatusBadRequest, web.Response{Error: field.Field() + web.GetErrorMsg(field)})

			return
		}

		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Error(err))

		return
	}

	if err := h.pins.VerifyPin(ctx, authPayload.CID, req.Pin); err != nil {
		switch err {
		case domain.ErrInvalidPin:
			gctx.JSON(http.StatusForbidden, web.Error(err))
			return
		case domain.ErrUserNotFound:
			gctx.JSON(http.StatusForbidden, web.Error(domain.ErrInvalidPin))
			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	statement, err := h.statements.Generate(ctx, account.ID, req.Since, req.Until)
	if err != nil {
		switch err {
		case domain.ErrInvalidRange:
			gctx.JSON(http.StatusBadRequest, web.Error(err))
			return
		case domain.ErrAccountNotFound:
			gctx.JSON(http.StatusNotFound, web.Error(err))
			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	filename := fmt.Sprintf("bank_statement_%s_%d_%d.csv", account.No(), req.Since, req.Until)

	gctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	gctx.Data(http.StatusOK, "text/csv", statement)
}
