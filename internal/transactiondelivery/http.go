// Package transactiondelivery manages delivery layer of ledger transactions.
package transactiondelivery

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/0x0d01/simple-bank/internal/domain"
	"github.com/0x0d01/simple-bank/internal/middleware"
	"github.com/0x0d01/simple-bank/pkg/errorspkg"
	"github.com/0x0d01/simple-bank/pkg/tokenpkg"
	"github.com/0x0d01/simple-bank/pkg/web"
)

// Service provides service layer interface needed by transaction delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package transactiondelivery
type Service interface {
	Create(ctx context.Context, arg domain.CreateTransactionParams, actingUser domain.User) (domain.Transaction, error)
	Deposit(ctx context.Context, id, accountNo string, amount int64, actingUser domain.User) (domain.Transaction, error)
	Transfer(ctx context.Context, senderNo, receiverNo string, amount int64, actingUser domain.User) ([]domain.Transaction, error)
}

// AccountGetter provides the account lookups needed for access checks.
type AccountGetter interface {
	Get(ctx context.Context, id int64) (domain.Account, error)
}

// UserGetter resolves the acting user behind the token payload.
type UserGetter interface {
	Get(ctx context.Context, email string) (domain.User, error)
}

// Handler facilitates transaction delivery layer logic.
type Handler struct {
	service  Service
	accounts AccountGetter
	users    UserGetter
}

// NewHandler returns transaction handler.
func NewHandler(ts Service, ag AccountGetter, ug UserGetter) *Handler {
	return &Handler{
		service:  ts,
		accounts: ag,
		users:    ug,
	}
}

type transactionData struct {
	Transaction domain.Transaction `json:"transaction"`
}

type transactionsData struct {
	Transactions []domain.Transaction `json:"transactions"`
}

func bindError(gctx *gin.Context, err error) {
	l := zerolog.Ctx(gctx.Request.Context())

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		field := ve[0]
		gctx.JSON(http.StatusBadRequest, web.Response{Error: field.Field() + web.GetErrorMsg(field)})

		return
	}

	l.Info().Err(err).Send()
	gctx.JSON(http.StatusBadRequest, web.Error(err))
}

// actingUser resolves the authenticated user behind the request token.
func (h *Handler) actingUser(gctx *gin.Context) (domain.User, bool) {
	ctx := gctx.Request.Context()

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	user, err := h.users.Get(ctx, authPayload.Username)
	if err != nil {
		if err == domain.ErrUserNotFound {
			gctx.JSON(http.StatusUnauthorized, web.Error(err))
			return domain.User{}, false
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return domain.User{}, false
	}

	return user, true
}

type createRequest struct {
	AccountNo string `json:"account_no" binding:"required,len=7,numeric"`
	// gte only: the epoch itself (0) is an acceptable business timestamp
	// and required would reject it as an unset value.
	Date     int64  `json:"date" binding:"gte=0"`
	Amount   int64  `json:"amount" binding:"required"`
	Type     string `json:"type" binding:"required"`
	Channel  string `json:"channel" binding:"required"`
	Remark   string `json:"remark" binding:"omitempty"`
	Metadata string `json:"metadata" binding:"omitempty"`
}

// Create handles http request to append a generic ledger entry.
// ADMIN may write to any account, USER only to accounts backed by their
// own citizen id.
func (h *Handler) Create(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req createRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		bindError(gctx, err)
		return
	}

	user, ok := h.actingUser(gctx)
	if !ok {
		return
	}

	accountID, err := strconv.ParseInt(req.AccountNo, 10, 64)
	if err != nil {
		gctx.JSON(http.StatusBadRequest, web.Error(err))
		return
	}

	account, err := h.accounts.Get(ctx, accountID)
	if err != nil {
		if err == domain.ErrAccountNotFound {
			gctx.JSON(http.StatusNotFound, web.Error(err))
			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	switch user.Role {
	case domain.RoleAdmin:
	case domain.RoleUser:
		if account.CID == "" || account.CID != user.CID {
			gctx.JSON(http.StatusForbidden, web.Error(domain.ErrAccessDenied))
			return
		}
	default:
		gctx.JSON(http.StatusForbidden, web.Error(domain.ErrAccessDenied))
		return
	}

	created, err := h.service.Create(ctx, domain.CreateTransactionParams{
		AccountID: account.ID,
		Date:      time.UnixMilli(req.Date).UTC(),
		Amount:    req.Amount,
		Type:      req.Type,
		Channel:   req.Channel,
		Remark:    req.Remark,
		Metadata:  req.Metadata,
	}, user)
	if err != nil {
		switch err {
		case domain.ErrAccountNotFound:
			gctx.JSON(http.StatusNotFound, web.Error(err))
			return
		case domain.ErrDuplicateTransaction:
			gctx.JSON(http.StatusConflict, web.Error(err))
			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: transactionData{created}})
}

type depositRequest struct {
	ID        string `json:"id" binding:"required"`
	AccountNo string `json:"account_no" binding:"required,len=7,numeric"`
	Amount    int64  `json:"amount" binding:"required,gte=1"`
}

// Deposit handles http request to credit an account over the counter.
// ADMIN only; the caller-supplied id makes retries idempotent.
func (h *Handler) Deposit(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req depositRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		bindError(gctx, err)
		return
	}

	user, ok := h.actingUser(gctx)
	if !ok {
		return
	}

	if user.Role != domain.RoleAdmin {
		gctx.JSON(http.StatusForbidden, web.Error(domain.ErrAccessDenied))
		return
	}

	created, err := h.service.Deposit(ctx, req.ID, req.AccountNo, req.Amount, user)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAccountNotFound):
			gctx.JSON(http.StatusNotFound, web.Error(err))
			return
		case errors.Is(err, domain.ErrDuplicateTransaction):
			gctx.JSON(http.StatusConflict, web.Error(err))
			return
		case errors.Is(err, domain.ErrInvalidAmount):
			gctx.JSON(http.StatusBadRequest, web.Error(err))
			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: transactionData{created}})
}

type transferRequest struct {
	SenderNo   string `json:"sender_no" binding:"required,len=7,numeric"`
	ReceiverNo string `json:"receiver_no" binding:"required,len=7,numeric"`
	Amount     int64  `json:"amount" binding:"required,gte=1"`
}

// Transfer handles http request to move money between two accounts.
// USER only, and the sender account must be backed by the caller's own
// citizen id.
func (h *Handler) Transfer(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req transferRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		bindError(gctx, err)
		return
	}

	user, ok := h.actingUser(gctx)
	if !ok {
		return
	}

	switch user.Role {
	case domain.RoleUser:
	default:
		gctx.JSON(http.StatusForbidden, web.Error(domain.ErrAccessDenied))
		return
	}

	senderID, err := strconv.ParseInt(req.SenderNo, 10, 64)
	if err != nil {
		gctx.JSON(http.StatusBadRequest, web.Error(err))
		return
	}

	sender, err := h.accounts.Get(ctx, senderID)
	if err != nil {
		if err == domain.ErrAccountNotFound {
			gctx.JSON(http.StatusNotFound, web.Error(err))
			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	if sender.CID == "" || sender.CID != user.CID {
		gctx.JSON(http.StatusForbidden, web.Error(domain.ErrAccessDenied))
		return
	}

	created, err := h.service.Transfer(ctx, req.SenderNo, req.ReceiverNo, req.Amount, user)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAccountNotFound):
			gctx.JSON(http.StatusNotFound, web.Error(err))
			return
		case errors.Is(err, domain.ErrInsufficientFunds):
			gctx.JSON(http.StatusBadRequest, web.Error(err))
			return
		case errors.Is(err, domain.ErrDuplicateTransaction):
			gctx.JSON(http.StatusConflict, web.Error(err))
			return
		case errors.Is(err, domain.ErrInvalidAmount):
			gctx.JSON(http.StatusBadRequest, web.Error(err))
			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: transactionsData{created}})
}
