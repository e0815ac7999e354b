package ports

import (
	"context"
	"time"

	"github.com/avatarctic/ledger/internal/core/domain/auth"
)

// AuthService issues and validates bearer tokens for the API.
type AuthService interface {
	Enabled() bool
	IssueToken(ctx context.Context, subject string, ttl time.Duration) (*auth.IssuedToken, error)
	ValidateToken(ctx context.Context, token string) (*auth.Claims, error)
}
