// Package auth checks dashboard credentials against bcrypt hashes and
// gates HTTP handlers with Basic authentication.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/LotfiJL/Jelo/pkg/application/services/access"
	"golang.org/x/crypto/bcrypt"
)

// Password rules for hashes produced by HashPassword
const (
	MinPasswordLength = 6
	MaxPasswordLength = 72
	BcryptCost        = 12
)

var (
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	ErrPasswordTooLong  = errors.New("password must be at most 72 bytes")
)

// User is a configured dashboard account
type User struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
}

// BcryptVerifier verifies credentials against a fixed set of bcrypt-hashed users
type BcryptVerifier struct {
	hashes map[string][]byte
	// decoy is compared for unknown users so both denials cost one bcrypt check
	decoy []byte
}

var _ access.Verifier = (*BcryptVerifier)(nil)

// NewBcryptVerifier validates the users' hashes and builds a verifier
func NewBcryptVerifier(users []User) (*BcryptVerifier, error) {
	v := &BcryptVerifier{hashes: make(map[string][]byte, len(users))}

	for i, u := range users {
		if u.Username == "" {
			return nil, fmt.Errorf("user %d: username cannot be empty", i+1)
		}
		if _, exists := v.hashes[u.Username]; exists {
			return nil, fmt.Errorf("user %s: duplicate username", u.Username)
		}
		if _, err := bcrypt.Cost([]byte(u.PasswordHash)); err != nil {
			return nil, fmt.Errorf("user %s: invalid password hash: %w", u.Username, err)
		}
		v.hashes[u.Username] = []byte(u.PasswordHash)
		if v.decoy == nil {
			v.decoy = []byte(u.PasswordHash)
		}
	}

	if v.decoy == nil {
		decoy, err := bcrypt.GenerateFromPassword([]byte("decoy"), bcrypt.MinCost)
		if err != nil {
			return nil, fmt.Errorf("failed to prepare verifier: %w", err)
		}
		v.decoy = decoy
	}

	return v, nil
}

// Verify reports whether secret matches the stored hash of identity
func (v *BcryptVerifier) Verify(ctx context.Context, identity, secret string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	hash, known := v.hashes[identity]
	if !known {
		hash = v.decoy
	}

	err := bcrypt.CompareHashAndPassword(hash, []byte(secret))
	switch {
	case err == nil:
		// an unknown user may still match the decoy hash
		return known, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("failed to verify %s: %w", identity, err)
	}
}

// Users returns the number of configured accounts
func (v *BcryptVerifier) Users() int {
	return len(v.hashes)
}

// HashPassword validates a password and returns its bcrypt hash
func HashPassword(password string, cost int) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLength {
		return "", ErrPasswordTooLong
	}
	if cost == 0 {
		cost = BcryptCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
