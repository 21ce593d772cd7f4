package usecase

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"smm-reseller/internal/config"
	"smm-reseller/internal/domain"
	"smm-reseller/internal/domain/model"
	"smm-reseller/internal/domain/ports/repository"
	"smm-reseller/internal/infra/metrics"
)

// SessionUseCase guards the admin back office. The operator credential
// is injected from configuration; sessions are opaque random tokens with
// a fixed TTL, lazily deleted once expired.
type SessionUseCase struct {
	sessions repository.AdminSessionRepository
	logs     repository.ActivityLogRepository
	cred     config.AdminConfig
	log      *zerolog.Logger
}

func NewSessionUseCase(sessions repository.AdminSessionRepository, logs repository.ActivityLogRepository, cred config.AdminConfig, logger *zerolog.Logger) *SessionUseCase {
	return &SessionUseCase{sessions: sessions, logs: logs, cred: cred, log: logger}
}

// Login checks the fixed operator credential and issues a session token.
// A failed attempt is itself an audit event.
func (uc *SessionUseCase) Login(ctx context.Context, username, password string) (string, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(uc.cred.Username)) == 1
	passOK := bcrypt.CompareHashAndPassword([]byte(uc.cred.PasswordHash), []byte(password)) == nil
	if !userOK || !passOK {
		metrics.IncAdminLogin("rejected")
		entry := &model.ActivityLog{
			Type:        model.ActivityAdminLoginFailed,
			Description: "admin login rejected",
			Metadata:    map[string]any{"username": username},
			CreatedAt:   time.Now(),
		}
		if err := uc.logs.Append(ctx, repository.NoTX, entry); err != nil {
			uc.log.Warn().Err(err).Msg("append login failure activity failed")
		}
		return "", domain.ErrUnauthorized
	}

	token, err := generateSessionToken()
	if err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	now := time.Now()
	session := &model.AdminSession{
		SessionToken: token,
		CreatedAt:    now,
		ExpiresAt:    now.Add(uc.cred.SessionTTL),
	}
	if err := uc.sessions.Save(ctx, repository.NoTX, session); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}

	metrics.IncAdminLogin("ok")
	entry := &model.ActivityLog{
		Type:        model.ActivityAdminLoggedIn,
		Description: "admin logged in",
		CreatedAt:   now,
	}
	if err := uc.logs.Append(ctx, repository.NoTX, entry); err != nil {
		uc.log.Warn().Err(err).Msg("append login activity failed")
	}
	return token, nil
}

// Authenticate validates a presented session token. Expired sessions are
// deleted on discovery; there is no refresh.
func (uc *SessionUseCase) Authenticate(ctx context.Context, token string) error {
	if token == "" {
		return domain.ErrUnauthorized
	}
	session, err := uc.sessions.FindByToken(ctx, repository.NoTX, token)
	if err != nil {
		return domain.ErrUnauthorized
	}
	if session.Expired(time.Now()) {
		if err := uc.sessions.Delete(ctx, repository.NoTX, token); err != nil {
			uc.log.Warn().Err(err).Msg("delete expired session failed")
		}
		return domain.ErrUnauthorized
	}
	return nil
}

func (uc *SessionUseCase) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return uc.sessions.Delete(ctx, repository.NoTX, token)
}

// ListActivity serves the admin audit view.
func (uc *SessionUseCase) ListActivity(ctx context.Context, limit int) ([]*model.ActivityLog, error) {
	return uc.logs.ListRecent(ctx, repository.NoTX, limit)
}
