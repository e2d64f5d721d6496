package calculator

import "math"

// Balances maps a user ID to a signed net balance.
// Positive = owed money, negative = owes money.
type Balances map[string]float64

// Sum returns the total of all balances. For a consistent ledger it is ~0.
func (b Balances) Sum() float64 {
	var total float64
	for _, v := range b {
		total += v
	}
	return total
}

// Settled reports whether every balance is within Epsilon of zero.
func (b Balances) Settled() bool {
	for _, v := range b {
		if math.Abs(v) > Epsilon {
			return false
		}
	}
	return true
}

// EntryForBalance is an expense reduced to what balance calculations need.
type EntryForBalance struct {
	PayerID string
	Amount  float64
	Splits  []Obligation
}

// MemberBalances computes the net balance of every member over entries.
//
// Algorithm:
//   - every member starts at 0
//   - for each entry the payer is credited the full amount
//   - each split debits its user by the split amount
//
// Only members are tracked: a payer or split user outside members is
// skipped. Applied to a group's own expenses this is the group balance.
// Applied to every expense whose payer is a member it is the group-filtered
// global view, where a non-member participant's share credits the payer with
// no matching debit.
func MemberBalances(members []string, entries []EntryForBalance) Balances {
	balances := make(Balances, len(members))
	for _, m := range members {
		balances[m] = 0
	}

	for _, e := range entries {
		if _, ok := balances[e.PayerID]; ok {
			balances[e.PayerID] += e.Amount
		}
		for _, s := range e.Splits {
			if _, ok := balances[s.UserID]; ok {
				balances[s.UserID] -= s.Amount
			}
		}
	}

	return balances
}

// FriendBalances computes callerID's net position against every other user.
//
// For an entry paid by the caller, each other participant's split is added
// to that participant (they owe the caller). For an entry paid by someone
// else, the caller's own split is subtracted from the payer (the caller owes
// them). Entries within Epsilon of zero are dropped.
func FriendBalances(callerID string, entries []EntryForBalance) Balances {
	net := make(Balances)

	for _, e := range entries {
		if e.PayerID == callerID {
			for _, s := range e.Splits {
				if s.UserID != callerID {
					net[s.UserID] += s.Amount
				}
			}
			continue
		}
		for _, s := range e.Splits {
			if s.UserID == callerID {
				net[e.PayerID] -= s.Amount
			}
		}
	}

	for id, v := range net {
		if math.Abs(v) < Epsilon {
			delete(net, id)
		}
	}
	return net
}
