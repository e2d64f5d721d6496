package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmynk/expenseshare/internal/auth"
	"github.com/mmynk/expenseshare/internal/models"
	"github.com/mmynk/expenseshare/internal/storage"
)

// maxHandleSuffix bounds the search for a free handle.
const maxHandleSuffix = 1000

// SyncUser returns the user for an authenticated identity, creating it on
// first contact. Later contacts update the display name if it changed.
func (l *Ledger) SyncUser(ctx context.Context, id *auth.Identity) (*models.User, error) {
	if id == nil || id.TokenIdentifier == "" {
		return nil, ErrUnauthenticated
	}

	existing, err := l.store.GetUserByTokenIdentifier(ctx, id.TokenIdentifier)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return l.refreshUser(ctx, existing, id)
	}

	email := id.NormalizedEmail()
	if email != "" {
		other, err := l.store.GetUserByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if other != nil {
			return nil, validationError("Email is already registered to another user")
		}
	}

	handle, err := l.freeHandle(ctx, id.Handle())
	if err != nil {
		return nil, err
	}

	user := &models.User{
		TokenIdentifier: id.TokenIdentifier,
		Name:            id.DisplayName(handle),
		Username:        handle,
		Email:           email,
		CreatedAt:       l.now().Unix(),
	}
	if err := l.store.CreateUser(ctx, user); err != nil {
		if !errors.Is(err, storage.ErrDuplicateUser) {
			return nil, err
		}
		// A concurrent first request for the same identity won the insert.
		winner, lookupErr := l.store.GetUserByTokenIdentifier(ctx, id.TokenIdentifier)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if winner == nil {
			return nil, validationError("Username or email is already taken")
		}
		return winner, nil
	}

	l.logger.InfoContext(ctx, "Created user", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// refreshUser updates the stored display name when the identity's changed.
func (l *Ledger) refreshUser(ctx context.Context, user *models.User, id *auth.Identity) (*models.User, error) {
	name := id.DisplayName(user.Username)
	if name == user.Name {
		return user, nil
	}

	if err := l.store.UpdateUserName(ctx, user.ID, name); err != nil {
		return nil, err
	}
	if err := l.profiles.DeleteUser(ctx, user.ID); err != nil {
		l.logger.WarnContext(ctx, "Profile cache eviction failed", "user_id", user.ID, "error", err)
	}

	updated := *user
	updated.Name = name
	return &updated, nil
}

// freeHandle returns base, or base followed by the smallest suffix from 2
// up that no other user holds.
func (l *Ledger) freeHandle(ctx context.Context, base string) (string, error) {
	candidate := base
	for n := 2; n <= maxHandleSuffix; n++ {
		taken, err := l.store.GetUserByUsername(ctx, candidate)
		if err != nil {
			return "", err
		}
		if taken == nil {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, n)
	}
	return "", validationError("Could not find a free username")
}

// CurrentUser returns the calling user's record.
func (l *Ledger) CurrentUser(ctx context.Context, callerID string) (*models.User, error) {
	return l.caller(ctx, callerID)
}
