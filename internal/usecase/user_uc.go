package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"smm-reseller/internal/domain"
	"smm-reseller/internal/domain/model"
	"smm-reseller/internal/domain/ports/repository"
	"smm-reseller/internal/infra/security"
)

// UserUseCase covers storefront account registration and login.
type UserUseCase struct {
	users  repository.UserRepository
	tokens *security.TokenManager
	log    *zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, tokens *security.TokenManager, logger *zerolog.Logger) *UserUseCase {
	return &UserUseCase{users: users, tokens: tokens, log: logger}
}

func (uc *UserUseCase) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || len(password) < 8 {
		return nil, fmt.Errorf("%w: username, email and a password of at least 8 chars are required", domain.ErrInvalidArgument)
	}
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: invalid email", domain.ErrInvalidArgument)
	}

	if _, err := uc.users.FindByUsername(ctx, repository.NoTX, username); err == nil {
		return nil, fmt.Errorf("username taken: %w", domain.ErrAlreadyExists)
	}
	if _, err := uc.users.FindByEmail(ctx, repository.NoTX, email); err == nil {
		return nil, fmt.Errorf("email taken: %w", domain.ErrAlreadyExists)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	u := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Balance:      "0.00",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.users.Save(ctx, repository.NoTX, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies the credential and returns the account with a signed
// session token. Wrong username and wrong password are indistinguishable
// to the caller.
func (uc *UserUseCase) Login(ctx context.Context, username, password string) (*model.User, string, error) {
	u, err := uc.users.FindByUsername(ctx, repository.NoTX, username)
	if err != nil {
		return nil, "", domain.ErrUnauthorized
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", domain.ErrUnauthorized
	}
	token, err := uc.tokens.Mint(u.ID, u.Username)
	if err != nil {
		return nil, "", fmt.Errorf("mint token: %w", err)
	}
	return u, token, nil
}
