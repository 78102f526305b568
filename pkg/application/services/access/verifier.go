// Package access defines how dashboard credentials are checked.
package access

import "context"

// Verifier decides whether a secret is valid for an identity.
// A false result with a nil error is a plain denial.
type Verifier interface {
	Verify(ctx context.Context, identity, secret string) (bool, error)
}

// VerifierFunc adapts a function to the Verifier interface
type VerifierFunc func(ctx context.Context, identity, secret string) (bool, error)

// Verify calls f(ctx, identity, secret)
func (f VerifierFunc) Verify(ctx context.Context, identity, secret string) (bool, error) {
	return f(ctx, identity, secret)
}

// DenyAll rejects every credential
var DenyAll Verifier = VerifierFunc(func(context.Context, string, string) (bool, error) {
	return false, nil
})
