// Package userrepo manages repository layer of users.
package userrepo

import (
	"context"
	"database/sql"

	"github.com/0x0d01/simple-bank/internal/domain"
	"github.com/0x0d01/simple-bank/pkg/dbpkg"
	"github.com/0x0d01/simple-bank/pkg/errorspkg"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

const pqUniqueViolation = "23505"

// RepoPGS facilitates user repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns user RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

const createQuery = `
INSERT INTO
    users (id, email, hashed_password, role, cid, name_th, name_en, hashed_pin)
VALUES
    ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, email, hashed_password, role, cid, name_th, name_en, hashed_pin, created_date
`

// Create creates the user and then returns it.
func (r *RepoPGS) Create(ctx context.Context, id string, arg domain.CreateUserParams) (domain.User, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, createQuery,
		id,
		arg.Email,
		arg.HashedPassword,
		string(arg.Role),
		nullString(arg.CID),
		nullString(arg.NameTh),
		nullString(arg.NameEn),
		nullString(arg.HashedPin),
	)

	u, err := scanUser(row)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == pqUniqueViolation {
			return u, domain.ErrEmailAlreadyExists
		}

		l.Error().Err(err).Send()

		return u, errorspkg.ErrInternal
	}

	return u, nil
}

const getByEmailQuery = `
SELECT id, email, hashed_password, role, cid, name_th, name_en, hashed_pin, created_date
FROM users
WHERE email = $1
`

// GetByEmail returns the user with the given email.
func (r *RepoPGS) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.getOne(ctx, getByEmailQuery, email)
}

const getByCIDQuery = `
SELECT id, email, hashed_password, role, cid, name_th, name_en, hashed_pin, created_date
FROM users
WHERE cid = $1
`

// GetByCID returns the user backing the given citizen id.
func (r *RepoPGS) GetByCID(ctx context.Context, cid string) (domain.User, error) {
	return r.getOne(ctx, getByCIDQuery, cid)
}

func (r *RepoPGS) getOne(ctx context.Context, query string, arg interface{}) (domain.User, error) {
	l := zerolog.Ctx(ctx)

	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if err == sql.ErrNoRows {
			return u, domain.ErrUserNotFound
		}

		l.Error().Err(err).Send()

		return u, errorspkg.ErrInternal
	}

	return u, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		u         domain.User
		role      string
		cid       sql.NullString
		nameTh    sql.NullString
		nameEn    sql.NullString
		hashedPin sql.NullString
	)

	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.HashedPassword,
		&role,
		&cid,
		&nameTh,
		&nameEn,
		&hashedPin,
		&u.CreatedAt,
	)
	if err != nil {
		return u, err
	}

	parsed, err := domain.ParseRole(role)
	if err != nil {
		return u, err
	}

	u.Role = parsed
	u.CID = cid.String
	u.NameTh = nameTh.String
	u.NameEn = nameEn.String
	u.HashedPin = hashedPin.String

	return u, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
