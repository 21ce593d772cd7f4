//go:build !integration

package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"smm-reseller/internal/config"
	"smm-reseller/internal/domain"
	"smm-reseller/internal/domain/model"
	"smm-reseller/internal/domain/ports/repository"
)

func newSessionFixture(t *testing.T, ttl time.Duration) (*SessionUseCase, *memSessionRepo, *memActivityRepo) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	logger := zerolog.Nop()
	sessions := newMemSessionRepo()
	logs := newMemActivityRepo()
	cred := config.AdminConfig{Username: "admin", PasswordHash: string(hash), SessionTTL: ttl}
	return NewSessionUseCase(sessions, logs, cred, &logger), sessions, logs
}

func TestSessionUseCase_Login(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("correct credential issues a session that authenticates", func(t *testing.T) {
		uc, _, logs := newSessionFixture(t, time.Hour)

		token, err := uc.Login(ctx, "admin", "hunter22")
		if err != nil {
			t.Fatalf("Login: %v", err)
		}
		if len(token) != 64 {
			t.Fatalf("expected 64-char token got %d", len(token))
		}
		if err := uc.Authenticate(ctx, token); err != nil {
			t.Fatalf("Authenticate: %v", err)
		}
		if got := len(logs.byType(model.ActivityAdminLoggedIn)); got != 1 {
			t.Fatalf("expected one login audit entry got %d", got)
		}
	})

	t.Run("wrong password is unauthorized and audited", func(t *testing.T) {
		uc, _, logs := newSessionFixture(t, time.Hour)

		if _, err := uc.Login(ctx, "admin", "wrong"); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized got %v", err)
		}
		if _, err := uc.Login(ctx, "root", "hunter22"); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized got %v", err)
		}
		if got := len(logs.byType(model.ActivityAdminLoginFailed)); got != 2 {
			t.Fatalf("expected two failed-login audit entries got %d", got)
		}
	})
}

func TestSessionUseCase_Authenticate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("empty and unknown tokens are unauthorized", func(t *testing.T) {
		uc, _, _ := newSessionFixture(t, time.Hour)
		if err := uc.Authenticate(ctx, ""); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized got %v", err)
		}
		if err := uc.Authenticate(ctx, "deadbeef"); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized got %v", err)
		}
	})

	t.Run("expired session is rejected and lazily deleted", func(t *testing.T) {
		uc, sessions, _ := newSessionFixture(t, time.Hour)
		expired := &model.AdminSession{
			SessionToken: "oldtoken",
			CreatedAt:    time.Now().Add(-25 * time.Hour),
			ExpiresAt:    time.Now().Add(-time.Hour),
		}
		_ = sessions.Save(ctx, repository.NoTX, expired)

		if err := uc.Authenticate(ctx, "oldtoken"); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized got %v", err)
		}
		if _, err := sessions.FindByToken(ctx, repository.NoTX, "oldtoken"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expired session not deleted")
		}
	})

	t.Run("logout invalidates the session", func(t *testing.T) {
		uc, _, _ := newSessionFixture(t, time.Hour)
		token, err := uc.Login(ctx, "admin", "hunter22")
		if err != nil {
			t.Fatalf("Login: %v", err)
		}
		if err := uc.Logout(ctx, token); err != nil {
			t.Fatalf("Logout: %v", err)
		}
		if err := uc.Authenticate(ctx, token); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized after logout got %v", err)
		}
	})
}
