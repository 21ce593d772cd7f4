package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"smm-reseller/internal/domain"
	"smm-reseller/internal/domain/model"
	"smm-reseller/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*userRepo)(nil)

type userRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepo{pool: pool}
}

func (r *userRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	const q = `
INSERT INTO users (id, username, email, password_hash, balance, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
  email = EXCLUDED.email,
  password_hash = EXCLUDED.password_hash,
  balance = EXCLUDED.balance,
  updated_at = EXCLUDED.updated_at;
`
	_, err := execSQL(ctx, r.pool, tx, q, u.ID, u.Username, u.Email, u.PasswordHash, u.Balance, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (r *userRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	return r.findBy(ctx, tx, "id", id)
}

func (r *userRepo) FindByUsername(ctx context.Context, tx repository.Tx, username string) (*model.User, error) {
	return r.findBy(ctx, tx, "username", username)
}

func (r *userRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	return r.findBy(ctx, tx, "email", email)
}

func (r *userRepo) findBy(ctx context.Context, tx repository.Tx, column, value string) (*model.User, error) {
	q := fmt.Sprintf(`
SELECT id, username, email, password_hash, balance, created_at, updated_at
  FROM users
 WHERE %s = $1;`, column)
	row, err := pickRow(ctx, r.pool, tx, q, value)
	if err != nil {
		return nil, err
	}
	var u model.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Balance, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &u, nil
}
