package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/ledger/internal/core/domain/auth"
	"github.com/avatarctic/ledger/internal/core/ports"
)

const tokenIssuer = "ledger"

// AuthService mints and verifies HS256 bearer tokens. With an empty secret
// authentication is disabled and every token is rejected.
type AuthService struct {
	secret     []byte
	defaultTTL time.Duration
	logger     *logrus.Logger
}

func NewAuthService(secret string, defaultTTL time.Duration, logger *logrus.Logger) ports.AuthService {
	if defaultTTL <= 0 {
		defaultTTL = 30 * 24 * time.Hour
	}
	return &AuthService{secret: []byte(secret), defaultTTL: defaultTTL, logger: logger}
}

func (s *AuthService) Enabled() bool {
	return len(s.secret) > 0
}

func (s *AuthService) IssueToken(ctx context.Context, subject string, ttl time.Duration) (*auth.IssuedToken, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("AUTH_JWT_SECRET is not set")
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, fmt.Errorf("subject is required")
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := &auth.Claims{
		Scope: auth.ScopeLedger,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"subject": subject, "expires_at": expiresAt}).Info("issued api token")
	}
	return &auth.IssuedToken{Token: signed, Subject: subject, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("authentication is disabled")
	}
	token, err := jwt.ParseWithClaims(tokenString, &auth.Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Ensure the token's signing method is HMAC (prevent alg confusion)
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	claims, ok := token.Claims.(*auth.Claims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
