package models

// User represents a person known to the system.
//
// Users are created the first time an authenticated principal reaches the
// server and are never deleted. Later contacts refresh the display name.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// TokenIdentifier is the opaque subject issued by the identity provider.
	// It is how an incoming principal is matched to a stored user.
	TokenIdentifier string

	// Name is the display name shown in balances and history.
	Name string

	// Username is the stable lowercase handle used to add people to groups.
	// Unique across all users.
	Username string

	// Email is the user's email address. Unique when present.
	Email string

	// CreatedAt is the Unix timestamp when the user was first seen.
	CreatedAt int64
}
