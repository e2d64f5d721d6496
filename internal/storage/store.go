// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/expenseshare/internal/models"
)

var (
	// ErrNotFound is returned when a referenced group does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyMember is returned when adding a user who is already in the group.
	ErrAlreadyMember = errors.New("already a member")

	// ErrDuplicateUser is returned when a unique user attribute is taken.
	ErrDuplicateUser = errors.New("user already exists")
)

// Store defines the interface for ledger storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the ledger layer.
//
// User lookups return nil, nil when the user does not exist.
type Store interface {
	// CreateUser persists a new user. ID and CreatedAt are filled in if empty.
	CreateUser(ctx context.Context, user *models.User) error

	// UpdateUserName changes a user's display name.
	UpdateUserName(ctx context.Context, userID, name string) error

	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetUserByTokenIdentifier(ctx context.Context, tokenIdentifier string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// GetUsersByIDs returns the users that exist among ids, keyed by ID.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)

	// CreateGroup persists a group with its creator as the first member.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup returns the group with its members in join order, or nil, nil.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroupsByMember returns every group userID belongs to, oldest first.
	ListGroupsByMember(ctx context.Context, userID string) ([]*models.Group, error)

	// ListCommonGroups returns the groups containing both users, oldest first.
	ListCommonGroups(ctx context.Context, userA, userB string) ([]*models.Group, error)

	// AddGroupMember appends userID to the group's members.
	// Returns ErrNotFound for a missing group and ErrAlreadyMember for a repeat.
	AddGroupMember(ctx context.Context, groupID, userID string) error

	// DeleteGroup removes the group together with its expenses, their splits
	// and its memberships, atomically.
	DeleteGroup(ctx context.Context, groupID string) error

	// CreateExpense persists an expense and its splits atomically.
	// Returns ErrNotFound if the group no longer exists.
	CreateExpense(ctx context.Context, expense *models.Expense, splits []models.Split) error

	// ListGroupExpenses returns a group's expenses with their splits, newest first.
	ListGroupExpenses(ctx context.Context, groupID string) ([]models.ExpenseWithSplits, error)

	// ListExpensesByPayers returns every expense, in any group, paid by one of payerIDs.
	ListExpensesByPayers(ctx context.Context, payerIDs []string) ([]models.ExpenseWithSplits, error)

	// ListExpensesInvolving returns every expense userID paid or has a split in.
	ListExpensesInvolving(ctx context.Context, userID string) ([]models.ExpenseWithSplits, error)

	// Close releases any resources held by the store.
	Close() error
}
