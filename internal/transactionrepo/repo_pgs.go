// Package transactionrepo manages repository layer of the transaction ledger.
//
// The ledger is append-only: rows are inserted, never updated or deleted.
// Every append happens inside a database transaction that first locks the
// owning account row, so the previous-hash read, the balance handed to the
// builder and the insert of the successor all serialize per account.
package transactionrepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/0x0d01/simple-bank/internal/domain"
	"github.com/0x0d01/simple-bank/pkg/dbpkg"
	"github.com/0x0d01/simple-bank/pkg/errorspkg"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

const pqUniqueViolation = "23505"

// RepoPGS facilitates transaction repository layer logic.
type RepoPGS struct {
	db   dbpkg.SQLInterface
	conn *sql.DB
}

// NewRepoPGS returns a RepoPGS with a connection to start transactions.
func NewRepoPGS(db *sql.DB) *RepoPGS {
	return &RepoPGS{
		db:   db,
		conn: db,
	}
}

const insertQuery = `
INSERT INTO
    transactions (id, account_id, transaction_date, amount, display_amount,
                  type, channel, remark, metadata, created_by, hash, signature)
VALUES
    ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING id, account_id, transaction_date, amount, display_amount,
          type, channel, remark, metadata, created_by, hash, signature, created_date
`

func (r *RepoPGS) insert(ctx context.Context, db dbpkg.SQLInterface, t domain.Transaction) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	row := db.QueryRowContext(ctx, insertQuery,
		t.ID,
		t.AccountID,
		t.Date,
		t.Amount,
		t.DisplayAmount,
		t.Type,
		t.Channel,
		nullString(t.Remark),
		nullString(t.Metadata),
		t.CreatedBy,
		t.Hash,
		t.Signature,
	)

	saved, err := scanTransaction(row)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == pqUniqueViolation {
			return saved, domain.ErrDuplicateTransaction
		}

		l.Error().Err(err).Send()

		return saved, errorspkg.ErrInternal
	}

	return saved, nil
}

const latestQuery = `
SELECT
	id, account_id, transaction_date, amount, display_amount,
	type, channel, remark, metadata, created_by, hash, signature, created_date
FROM transactions
WHERE account_id = $1
ORDER BY created_date DESC
LIMIT 1
`

// latestFor returns the most recently created transaction for the account.
// Chaining follows creation order, not business timestamp order.
func (r *RepoPGS) latestFor(ctx context.Context, db dbpkg.SQLInterface, accountID int64) (*domain.Transaction, error) {
	row := db.QueryRowContext(ctx, latestQuery, accountID)

	t, err := scanTransaction(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	return &t, nil
}

const lockAccountQuery = `
SELECT id FROM accounts
WHERE id = $1
FOR UPDATE
`

func lockAccount(ctx context.Context, db dbpkg.SQLInterface, accountID int64) error {
	var id int64

	if err := db.QueryRowContext(ctx, lockAccountQuery, accountID).Scan(&id); err != nil {
		if err == sql.ErrNoRows {
			return domain.ErrAccountNotFound
		}

		return err
	}

	return nil
}

// Append creates one chained ledger entry for the account.
//
// Within a single database transaction it locks the account row, reads the
// latest transaction and the current balance, calls build to produce the new
// chained entry and inserts it. A builder error rolls the transaction back;
// a duplicate id maps to domain.ErrDuplicateTransaction.
func (r *RepoPGS) Append(ctx context.Context, accountID int64, build domain.TransactionBuilder) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	var saved domain.Transaction

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return saved, errorspkg.ErrInternal
	}

	defer func() {
		_ = tx.Rollback()
	}()

	saved, err = r.appendOne(ctx, tx, accountID, build)
	if err != nil {
		return domain.Transaction{}, err
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()
		return domain.Transaction{}, errorspkg.ErrInternal
	}

	return saved, nil
}

// AppendPair creates a debit entry and a credit entry on two accounts as a
// single all-or-nothing database transaction. Account rows are locked in
// ascending id order to avoid deadlocks between concurrent transfers.
func (r *RepoPGS) AppendPair(
	ctx context.Context,
	debitAccountID, creditAccountID int64,
	buildDebit, buildCredit domain.TransactionBuilder,
) ([]domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	defer func() {
		_ = tx.Rollback()
	}()

	firstLock, secondLock := debitAccountID, creditAccountID
	if firstLock > secondLock {
		firstLock, secondLock = secondLock, firstLock
	}

	if err := lockAccount(ctx, tx, firstLock); err != nil {
		return nil, err
	}

	if err := lockAccount(ctx, tx, secondLock); err != nil {
		return nil, err
	}

	debit, err := r.appendLocked(ctx, tx, debitAccountID, buildDebit)
	if err != nil {
		return nil, err
	}

	credit, err := r.appendLocked(ctx, tx, creditAccountID, buildCredit)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return []domain.Transaction{debit, credit}, nil
}

func (r *RepoPGS) appendOne(ctx context.Context, tx *sql.Tx, accountID int64, build domain.TransactionBuilder) (domain.Transaction, error) {
	if err := lockAccount(ctx, tx, accountID); err != nil {
		if err == domain.ErrAccountNotFound {
			return domain.Transaction{}, err
		}

		zerolog.Ctx(ctx).Error().Err(err).Send()

		return domain.Transaction{}, errorspkg.ErrInternal
	}

	return r.appendLocked(ctx, tx, accountID, build)
}

func (r *RepoPGS) appendLocked(ctx context.Context, tx *sql.Tx, accountID int64, build domain.TransactionBuilder) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	prev, err := r.latestFor(ctx, tx, accountID)
	if err != nil {
		l.Error().Err(err).Send()
		return domain.Transaction{}, errorspkg.ErrInternal
	}

	balance, err := sumFor(ctx, tx, accountID)
	if err != nil {
		l.Error().Err(err).Send()
		return domain.Transaction{}, errorspkg.ErrInternal
	}

	built, err := build(prev, balance)
	if err != nil {
		return domain.Transaction{}, err
	}

	return r.insert(ctx, tx, built)
}

const getQuery = `
SELECT
	id, account_id, transaction_date, amount, display_amount,
	type, channel, remark, metadata, created_by, hash, signature, created_date
FROM transactions
WHERE id = $1
`

// Get returns the transaction with the given id.
func (r *RepoPGS) Get(ctx context.Context, id string) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, getQuery, id)

	t, err := scanTransaction(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return t, domain.ErrTransactionNotFound
		}

		l.Error().Err(err).Send()

		return t, errorspkg.ErrInternal
	}

	return t, nil
}

const listInRangeQuery = `
SELECT
	id, account_id, transaction_date, amount, display_amount,
	type, channel, remark, metadata, created_by, hash, signature, created_date
FROM transactions
WHERE
	account_id = $1 AND transaction_date BETWEEN $2 AND $3
ORDER BY transaction_date ASC, created_date ASC
`

// ListInRange returns the account's transactions with business timestamps
// within [since, until], ascending by business timestamp with creation time
// as a stable tie-break.
func (r *RepoPGS) ListInRange(ctx context.Context, accountID int64, since, until time.Time) ([]domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listInRangeQuery, accountID, since, until)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Transaction{}

	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, t)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}

const sumAmountsQuery = `
SELECT COALESCE(SUM(amount), 0)
FROM transactions
WHERE account_id = $1
`

func sumFor(ctx context.Context, db dbpkg.SQLInterface, accountID int64) (int64, error) {
	var sum int64

	if err := db.QueryRowContext(ctx, sumAmountsQuery, accountID).Scan(&sum); err != nil {
		return 0, err
	}

	return sum, nil
}

// SumAmounts returns the sum of all transaction amounts for the account.
func (r *RepoPGS) SumAmounts(ctx context.Context, accountID int64) (int64, error) {
	sum, err := sumFor(ctx, r.db, accountID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Send()
		return 0, errorspkg.ErrInternal
	}

	return sum, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (domain.Transaction, error) {
	var (
		t        domain.Transaction
		remark   sql.NullString
		metadata sql.NullString
	)

	err := row.Scan(
		&t.ID,
		&t.AccountID,
		&t.Date,
		&t.Amount,
		&t.DisplayAmount,
		&t.Type,
		&t.Channel,
		&remark,
		&metadata,
		&t.CreatedBy,
		&t.Hash,
		&t.Signature,
		&t.CreatedAt,
	)
	if err != nil {
		return t, err
	}

	t.Remark = remark.String
	t.Metadata = metadata.String

	return t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
