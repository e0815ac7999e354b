package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	impl "github.com/avatarctic/ledger/internal/application/services"
	"github.com/avatarctic/ledger/internal/core/domain/auth"
)

func TestIssueAndValidateToken(t *testing.T) {
	svc := impl.NewAuthService("s3cret", time.Hour, nil)
	require.True(t, svc.Enabled())

	issued, err := svc.IssueToken(context.Background(), " shop-1 ", 0)
	require.NoError(t, err)
	require.Equal(t, "shop-1", issued.Subject)
	require.WithinDuration(t, time.Now().Add(time.Hour), issued.ExpiresAt, 5*time.Second)

	claims, err := svc.ValidateToken(context.Background(), issued.Token)
	require.NoError(t, err)
	require.Equal(t, "shop-1", claims.Subject)
	require.Equal(t, "ledger", claims.Scope)
}

func TestValidateToken_RejectsOtherSecretAndExpired(t *testing.T) {
	svc := impl.NewAuthService("s3cret", time.Hour, nil)
	other := impl.NewAuthService("different", time.Hour, nil)

	foreign, err := other.IssueToken(context.Background(), "x", time.Minute)
	require.NoError(t, err)
	_, err = svc.ValidateToken(context.Background(), foreign.Token)
	require.Error(t, err)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    "ledger",
		Subject:   "x",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(context.Background(), expired)
	require.Error(t, err)
}

func TestValidateToken_RejectsNoneAlgorithm(t *testing.T) {
	svc := impl.NewAuthService("s3cret", time.Hour, nil)
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Issuer: "ledger", Subject: "x"}}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.ValidateToken(context.Background(), unsigned)
	require.Error(t, err)
}

func TestAuthDisabledWithoutSecret(t *testing.T) {
	svc := impl.NewAuthService("", 0, nil)
	require.False(t, svc.Enabled())
	_, err := svc.IssueToken(context.Background(), "x", 0)
	require.Error(t, err)
	_, err = svc.ValidateToken(context.Background(), "anything")
	require.Error(t, err)
}
