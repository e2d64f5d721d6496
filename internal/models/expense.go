package models

// SplitType selects how an expense is divided among members.
type SplitType string

const (
	// SplitEqual divides the amount evenly across every current member.
	SplitEqual SplitType = "EQUAL"
	// SplitExact assigns an absolute amount to each listed member.
	SplitExact SplitType = "EXACT"
	// SplitPercent assigns a percentage of the amount to each listed member.
	SplitPercent SplitType = "PERCENT"
)

// Valid reports whether t is one of the supported split types.
func (t SplitType) Valid() bool {
	switch t {
	case SplitEqual, SplitExact, SplitPercent:
		return true
	}
	return false
}

// Expense records that PayerID paid Amount on behalf of a group.
// Expenses are immutable once written; corrections are new expenses.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group this expense belongs to.
	GroupID string

	// PayerID is the user who paid.
	PayerID string

	// Amount is the total paid. Always positive.
	Amount float64

	// Description is free text shown in the history (e.g., "Groceries").
	Description string

	// SplitType is the strategy used to produce the splits.
	SplitType SplitType

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}

// Split is one member's share of an expense.
type Split struct {
	// ID is the unique identifier for the split (UUID format).
	ID string

	// ExpenseID is the expense this split belongs to.
	ExpenseID string

	// UserID is the member who owes this share.
	UserID string

	// Amount is what UserID owes for the expense.
	Amount float64
}

// ExpenseWithSplits is an expense together with its complete set of splits.
// The store always reads and writes the two together.
type ExpenseWithSplits struct {
	Expense
	Splits []Split
}
