package domain

import (
	"errors"
	"time"
)

var (
	// ErrTransactionNotFound indicates that the transaction is not found.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrDuplicateTransaction indicates that the transaction has already been processed.
	ErrDuplicateTransaction = errors.New("duplicate transaction")
	// ErrInsufficientFunds indicates that the account balance does not cover the amount.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInvalidAmount indicates a non-positive amount where a positive one is required.
	ErrInvalidAmount = errors.New("amount must be at least 1")
	// ErrInvalidRange indicates an invalid statement time window.
	ErrInvalidRange = errors.New("invalid time range")
)

// Transaction type and channel codes.
const (
	TypeDeposit     = "A0"
	TypeTransferOut = "A1"
	TypeTransferIn  = "A3"

	ChannelCounter  = "OTC"
	ChannelTransfer = "ATS"
)

// Transaction is a single immutable ledger entry for an account.
//
// Amount is a signed integer in minor units: negative is a debit, positive
// a credit. Hash chains the entry to the previous transaction of the same
// account (by creation order) and Signature is the RSA signature over the
// hash, so the ledger is tamper-evident and append-only.
type Transaction struct {
	ID            string    `json:"id"`
	AccountID     int64     `json:"-"`
	Date          time.Time `json:"transaction_date"`
	Amount        int64     `json:"amount"`
	DisplayAmount string    `json:"display_amount"`
	Type          string    `json:"type"`
	Channel       string    `json:"channel"`
	Remark        string    `json:"remark,omitempty"`
	Metadata      string    `json:"metadata,omitempty"`
	CreatedBy     string    `json:"created_by"`
	Hash          string    `json:"hash"`
	Signature     string    `json:"signature"`
	CreatedAt     time.Time `json:"created_date"`
}

// CreateTransactionParams holds data needed for Transaction creation.
//
// ID may be left empty to have one generated; deposits supply it as the
// caller's idempotency key.
type CreateTransactionParams struct {
	ID        string
	AccountID int64
	Date      time.Time
	Amount    int64
	Type      string
	Channel   string
	Remark    string
	Metadata  string
	CreatedBy string
}

// TransactionBuilder produces a fully formed chained transaction given the
// account's previous transaction (nil when the account has none) and the
// account's current balance. It runs inside the ledger's append transaction,
// after the account is locked, so both inputs are consistent with the insert:
// a builder that rejects the entry (e.g. insufficient funds) aborts the whole
// append before anything is written.
type TransactionBuilder func(prev *Transaction, balance int64) (Transaction, error)

// Balance is a derived projection of an account's transaction amounts.
// It is a cache only and must always be reconcilable by summing the chain.
type Balance struct {
	AccountID      int64  `json:"-"`
	Amount         int64  `json:"balance"`
	DisplayBalance string `json:"display_balance"`
}
