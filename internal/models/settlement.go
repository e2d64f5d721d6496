package models

// Transfer is one payment in a settlement plan.
type Transfer struct {
	// From is the user who pays (a debtor).
	From string

	// To is the user who receives (a creditor).
	To string

	// Amount is the payment amount.
	Amount float64
}

// FriendBalance is the caller's net position against one other user,
// aggregated over every expense either of them took part in.
type FriendBalance struct {
	FriendID   string
	FriendName string

	// Amount is positive when the friend owes the caller and negative when
	// the caller owes the friend.
	Amount float64
}
