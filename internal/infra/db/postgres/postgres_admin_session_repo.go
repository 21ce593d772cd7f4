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

var _ repository.AdminSessionRepository = (*adminSessionRepo)(nil)

type adminSessionRepo struct {
	pool *pgxpool.Pool
}

func NewAdminSessionRepo(pool *pgxpool.Pool) repository.AdminSessionRepository {
	return &adminSessionRepo{pool: pool}
}

func (r *adminSessionRepo) Save(ctx context.Context, tx repository.Tx, s *model.AdminSession) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	const q = `
INSERT INTO admin_sessions (id, session_token, created_at, expires_at)
VALUES ($1, $2, $3, $4);
`
	_, err := execSQL(ctx, r.pool, tx, q, s.ID, s.SessionToken, s.CreatedAt, s.ExpiresAt)
	if err != nil {
		return fmt.Errorf("save admin session: %w", err)
	}
	return nil
}

func (r *adminSessionRepo) FindByToken(ctx context.Context, tx repository.Tx, token string) (*model.AdminSession, error) {
	const q = `
SELECT id, session_token, created_at, expires_at
  FROM admin_sessions
 WHERE session_token = $1;
`
	row, err := pickRow(ctx, r.pool, tx, q, token)
	if err != nil {
		return nil, err
	}
	var s model.AdminSession
	if err := row.Scan(&s.ID, &s.SessionToken, &s.CreatedAt, &s.ExpiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &s, nil
}

func (r *adminSessionRepo) Delete(ctx context.Context, tx repository.Tx, token string) error {
	const q = `DELETE FROM admin_sessions WHERE session_token = $1;`
	if _, err := execSQL(ctx, r.pool, tx, q, token); err != nil {
		return fmt.Errorf("delete admin session: %w", err)
	}
	return nil
}
