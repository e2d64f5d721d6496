// Package auth verifies identity tokens issued by the external identity
// provider and derives the profile fields of a first-time user from them.
package auth

import (
	"context"
	"strings"
)

// Verifier defines the interface for identity token verification.
// This abstraction allows swapping identity providers (shared-secret JWT,
// OIDC, etc.) without changing the middleware.
type Verifier interface {
	// Verify checks the token and returns the identity it carries.
	Verify(ctx context.Context, token string) (*Identity, error)
}

// Identity is what the identity provider tells us about a principal.
// TokenIdentifier is stable for the life of the account; the other
// fields are optional profile hints.
type Identity struct {
	TokenIdentifier string
	Name            string
	Nickname        string
	Username        string
	Email           string
}

// Handle derives the lowercase handle for a first-time user: the username,
// else the nickname, else the local part of the email, else the first 8
// characters of the token identifier.
func (id *Identity) Handle() string {
	local, _, hasAt := strings.Cut(id.Email, "@")

	var handle string
	switch {
	case strings.TrimSpace(id.Username) != "":
		handle = id.Username
	case strings.TrimSpace(id.Nickname) != "":
		handle = id.Nickname
	case hasAt && strings.TrimSpace(local) != "":
		handle = local
	default:
		handle = id.TokenIdentifier
		if len(handle) > 8 {
			handle = handle[:8]
		}
	}
	return strings.ToLower(strings.TrimSpace(handle))
}

// DisplayName returns the name to show for the identity, falling back to
// the nickname, then handle, then "Guest".
func (id *Identity) DisplayName(handle string) string {
	for _, s := range []string{id.Name, id.Nickname, handle} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return "Guest"
}

// NormalizedEmail returns the email trimmed and lowercased.
func (id *Identity) NormalizedEmail() string {
	return strings.ToLower(strings.TrimSpace(id.Email))
}
