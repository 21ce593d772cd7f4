package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenManager mints and verifies HS256 session tokens for storefront
// user accounts. Admin sessions are opaque database tokens and do not go
// through here.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

type UserClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func (m *TokenManager) Mint(userID, username string) (string, error) {
	now := time.Now()
	claims := UserClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *TokenManager) Parse(token string) (*UserClaims, error) {
	claims := &UserClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
