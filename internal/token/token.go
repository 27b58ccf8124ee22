package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Minter issues opaque session tokens. Tokens are HS256 JWTs over the
// username plus issue time and a random id, which makes every mint unique
// and unguessable. Callers never validate the signature to decide whether a
// session is live; the users table holds the one current token per account
// and resolution is an exact match against that column.
type Minter struct {
	secret []byte
}

func NewMinter(secret string) (*Minter, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("token secret is required")
	}
	return &Minter{secret: []byte(secret)}, nil
}

// Mint returns a fresh session token for the given username.
func (m *Minter) Mint(username string) (string, error) {
	claims := jwt.MapClaims{
		"username": username,
		"iat":      time.Now().Unix(),
		"jti":      uuid.NewString(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
