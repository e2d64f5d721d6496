package middleware

import (
	"context"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/expenseshare/internal/auth"
	"github.com/mmynk/expenseshare/internal/ledger"
	"github.com/mmynk/expenseshare/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// UserIDKey is the context key for storing the authenticated user ID.
const UserIDKey contextKey = "user_id"

// callerKey holds a *caller installed by LoggingInterceptor.
const callerKey contextKey = "caller"

// caller records the user ID resolved further down the chain so that outer
// interceptors can see it once the call returns.
type caller struct {
	userID string
}

// GetUserID extracts the user ID from the context.
// Returns empty string if not found.
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}

// WithUserID returns a copy of ctx carrying userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	if c, ok := ctx.Value(callerKey).(*caller); ok {
		c.userID = userID
	}
	return context.WithValue(ctx, UserIDKey, userID)
}

// UserResolver maps a verified identity to a user record, creating it on
// first contact.
type UserResolver interface {
	SyncUser(ctx context.Context, id *auth.Identity) (*models.User, error)
}

// Authenticate returns an interceptor that verifies the bearer token, if
// any, and stores the resolved user ID in the context.
//
// Requests without an Authorization header pass through anonymously; the
// handler decides whether that is acceptable. A header that is present but
// malformed or invalid is rejected with CodeUnauthenticated.
func Authenticate(verifier auth.Verifier, users UserResolver) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			authHeader := req.Header().Get("Authorization")
			if authHeader == "" {
				return next(ctx, req)
			}

			// Parse Bearer token
			tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || tokenString == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
			}

			identity, err := verifier.Verify(ctx, tokenString)
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			user, err := users.SyncUser(ctx, identity)
			if err != nil {
				return nil, syncError(err)
			}

			return next(WithUserID(ctx, user.ID), req)
		}
	}
}

func syncError(err error) *connect.Error {
	switch ledger.KindOf(err) {
	case ledger.KindAuth:
		return connect.NewError(connect.CodeUnauthenticated, err)
	case ledger.KindValidation:
		return connect.NewError(connect.CodeInvalidArgument, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}
