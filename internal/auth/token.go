// Package auth выпускает и проверяет токены доступа.
package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken возвращается для подделанного, просроченного или отозванного токена.
var ErrInvalidToken = errors.New("invalid token")

const issuer = "littlelemon"

// Revoker хранит идентификаторы отозванных токенов.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Claims - проверенное содержимое токена.
type Claims struct {
	UserID    int64
	TokenID   string
	ExpiresAt time.Time
}

// TokenManager подписывает токены HMAC-SHA256.
type TokenManager struct {
	secret  []byte
	ttl     time.Duration
	revoker Revoker
	now     func() time.Time
}

// NewTokenManager создаёт менеджер токенов. При пустом секрете генерируется случайный ключ,
// и выданные токены перестают действовать после перезапуска.
// revoker может быть nil, тогда выход из системы не отзывает токен.
func NewTokenManager(secret string, ttl time.Duration, revoker Revoker) *TokenManager {
	key := []byte(secret)
	if len(key) == 0 {
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err == nil {
			key = randomKey
		} else {
			key = []byte("default-secret-key")
		}
	}

	return &TokenManager{
		secret:  key,
		ttl:     ttl,
		revoker: revoker,
		now:     time.Now,
	}
}

// Issue выпускает токен для пользователя.
func (m *TokenManager) Issue(userID int64) (string, error) {
	now := m.now()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   strconv.FormatInt(userID, 10),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse проверяет подпись, срок действия и отзыв токена.
func (m *TokenManager) Parse(ctx context.Context, token string) (Claims, error) {
	var rc jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &rc, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID, err := strconv.ParseInt(rc.Subject, 10, 64)
	if err != nil || rc.ID == "" {
		return Claims{}, ErrInvalidToken
	}

	if m.revoker != nil {
		revoked, err := m.revoker.IsRevoked(ctx, rc.ID)
		if err != nil {
			return Claims{}, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return Claims{}, ErrInvalidToken
		}
	}

	return Claims{
		UserID:    userID,
		TokenID:   rc.ID,
		ExpiresAt: rc.ExpiresAt.Time,
	}, nil
}

// Revoke отзывает токен до окончания срока его действия.
func (m *TokenManager) Revoke(ctx context.Context, c Claims) error {
	if m.revoker == nil {
		return nil
	}
	if err := m.revoker.Revoke(ctx, c.TokenID, c.ExpiresAt); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}
