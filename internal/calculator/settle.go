package calculator

import (
	"sort"

	"github.com/mmynk/expenseshare/internal/models"
)

type party struct {
	id        string
	remaining float64
}

// PlanSettlements reduces balances to a short list of transfers that brings
// every balance to zero.
//
// Debtors (balance < -Epsilon) and creditors (balance > Epsilon) are each
// ordered by user ID, then matched greedily: the head debtor pays the head
// creditor min(owed, due), and whichever side reaches zero advances. Input
// that does not sum to ~0 leaves the excess unmatched.
func PlanSettlements(balances Balances) []models.Transfer {
	var debtors, creditors []*party
	for id, bal := range balances {
		if bal < -Epsilon {
			debtors = append(debtors, &party{id: id, remaining: -bal})
		} else if bal > Epsilon {
			creditors = append(creditors, &party{id: id, remaining: bal})
		}
	}
	sort.Slice(debtors, func(i, j int) bool { return debtors[i].id < debtors[j].id })
	sort.Slice(creditors, func(i, j int) bool { return creditors[i].id < creditors[j].id })

	var transfers []models.Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor, creditor := debtors[i], creditors[j]

		amount := debtor.remaining
		if creditor.remaining < amount {
			amount = creditor.remaining
		}

		if amount > Epsilon {
			transfers = append(transfers, models.Transfer{
				From:   debtor.id,
				To:     creditor.id,
				Amount: amount,
			})
		}

		debtor.remaining -= amount
		creditor.remaining -= amount

		if debtor.remaining < Epsilon {
			i++
		}
		if creditor.remaining < Epsilon {
			j++
		}
	}

	return transfers
}
