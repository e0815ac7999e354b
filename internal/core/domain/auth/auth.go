package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ScopeLedger grants access to the ledger API.
const ScopeLedger = "ledger"

// Claims identifies the caller of the ledger API. Tokens are minted for a
// mini-program installation (the subject) rather than for individual users.
type Claims struct {
	Scope string `json:"scope,omitempty"`

	jwt.RegisteredClaims
}

// IssuedToken is returned by the token command.
type IssuedToken struct {
	Token     string    `json:"token"`
	Subject   string    `json:"subject"`
	ExpiresAt time.Time `json:"expires_at"`
}
