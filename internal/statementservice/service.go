// Package statementservice renders account statements as CSV.
package statementservice

import (
	"bytes"
	"context"
	"encoding/csv"
	"time"

	"github.com/rs/zerolog"

	"github.com/0x0d01/simple-bank/internal/domain"
	"github.com/0x0d01/simple-bank/pkg/errorspkg"
	"github.com/0x0d01/simple-bank/pkg/moneypkg"
)

// Repo provides the transaction reads needed by the statement service.
//
//go:generate mockgen -source service.go -destination service_mock.go -package statementservice
type Repo interface {
	ListInRange(ctx context.Context, accountID int64, since, until time.Time) ([]domain.Transaction, error)
}

// AccountRepo provides the account lookups needed by the statement service.
type AccountRepo interface {
	Get(ctx context.Context, id int64) (domain.Account, error)
}

// Service facilitates statement service layer logic.
type Service struct {
	repo     Repo
	accounts AccountRepo
}

// New returns statement service struct to generate account statements.
func New(tr Repo, ar AccountRepo) *Service {
	return &Service{
		repo:     tr,
		accounts: ar,
	}
}

var header = []string{"Date", "Time", "Code", "Channel", "Debit/Credit", "Balance", "Remark"}

// Generate renders the account's transactions within [since, until] (epoch
// seconds) as a CSV statement. Rows are ordered by business timestamp and the
// running balance starts at 0 within the window.
func (s *Service) Generate(ctx context.Context, accountID, sinceEpochSec, untilEpochSec int64) ([]byte, error) {
	if sinceEpochSec < 0 || untilEpochSec < 0 || sinceEpochSec > untilEpochSec {
		return nil, domain.ErrInvalidRange
	}

	if _, err := s.accounts.Get(ctx, accountID); err != nil {
		return nil, err
	}

	since := time.Unix(sinceEpochSec, 0).UTC()
	until := time.Unix(untilEpochSec, 0).UTC()

	transactions, err := s.repo.ListInRange(ctx, accountID, since, until)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer

	w := csv.NewWriter(&buf)

	if err := w.Write(header); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	var balance int64

	for _, t := range transactions {
		balance += t.Amount

		date := t.Date.UTC()

		record := []string{
			date.Format("02/01/06"),
			date.Format("15:04"),
			t.Type,
			t.Channel,
			moneypkg.DisplaySigned(t.Amount),
			moneypkg.Display(balance),
			t.Remark,
		}

		if err := w.Write(record); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}
	}

	w.Flush()

	if err := w.Error(); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return buf.Bytes(), nil
}
