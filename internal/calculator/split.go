package calculator

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"

	"github.com/mmynk/expenseshare/internal/models"
)

const (
	// Epsilon is the amount below which a balance or transfer is treated as zero.
	Epsilon = 0.01

	// ExactTolerance is how far EXACT split values may drift from the expense amount.
	ExactTolerance = 0.01

	// PercentTolerance is how far PERCENT split values may drift from 100.
	PercentTolerance = 0.1
)

var (
	ErrInvalidAmount      = errors.New("Amount must be greater than zero")
	ErrUnknownSplitType   = errors.New("Split type must be EQUAL, EXACT or PERCENT")
	ErrNoMembers          = errors.New("Group has no members to split with")
	ErrMissingSplitData   = errors.New("Missing split data")
	ErrDuplicateShare     = errors.New("Each member may appear only once in the split")
	ErrPercentOutOfRange  = errors.New("Percentages must be between 0 and 100")
	ErrSplitTotalMismatch = errors.New("Splits don't match total")
	ErrPercentTotal       = errors.New("Percentages must equal 100")
	ErrShareNotMember     = errors.New("Split participants must be group members")
	ErrInvalidShareValue  = errors.New("Split values must be numbers")
)

// Share is one entry of caller-supplied split data: an absolute amount for
// EXACT splits or a percentage for PERCENT splits.
type Share struct {
	UserID string
	Value  float64
}

// Obligation is what one member owes for one expense.
type Obligation struct {
	UserID string
	Amount float64
}

// ComputeSplits validates the split data for splitType and returns one
// obligation per participant.
//
//   - EQUAL: amount / len(members) for every member; data is ignored.
//   - EXACT: each share's value, which must sum to amount within ExactTolerance.
//   - PERCENT: amount * value / 100, values must sum to 100 within PercentTolerance.
//
// members is the current member list of the group; EXACT and PERCENT
// participants must be drawn from it.
func ComputeSplits(splitType models.SplitType, amount float64, members []string, data []Share) ([]Obligation, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if !splitType.Valid() {
		return nil, ErrUnknownSplitType
	}
	if len(members) == 0 {
		return nil, ErrNoMembers
	}

	if splitType == models.SplitEqual {
		perMember := amount / float64(len(members))
		out := make([]Obligation, len(members))
		for i, m := range members {
			out[i] = Obligation{UserID: m, Amount: perMember}
		}
		return out, nil
	}

	if len(data) == 0 {
		return nil, ErrMissingSplitData
	}
	if err := checkShares(members, data); err != nil {
		return nil, err
	}

	total := sumShares(data)
	out := make([]Obligation, len(data))

	switch splitType {
	case models.SplitExact:
		// Values are signed; only their total is checked.
		if math.Abs(total-amount) > ExactTolerance {
			return nil, ErrSplitTotalMismatch
		}
		for i, s := range data {
			out[i] = Obligation{UserID: s.UserID, Amount: s.Value}
		}
	case models.SplitPercent:
		for _, s := range data {
			if s.Value < 0 || s.Value > 100 {
				return nil, ErrPercentOutOfRange
			}
		}
		if math.Abs(total-100) > PercentTolerance {
			return nil, ErrPercentTotal
		}
		dAmount := decimal.NewFromFloat(amount)
		hundred := decimal.NewFromInt(100)
		for i, s := range data {
			share, _ := dAmount.Mul(decimal.NewFromFloat(s.Value)).Div(hundred).Float64()
			out[i] = Obligation{UserID: s.UserID, Amount: share}
		}
	}

	return out, nil
}

// checkShares rejects unknown participants, duplicates and non-finite values.
func checkShares(members []string, data []Share) error {
	memberSet := make(map[string]bool, len(members))
	for _, m := range members {
		memberSet[m] = true
	}
	seen := make(map[string]bool, len(data))
	for _, s := range data {
		if math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
			return ErrInvalidShareValue
		}
		if !memberSet[s.UserID] {
			return ErrShareNotMember
		}
		if seen[s.UserID] {
			return ErrDuplicateShare
		}
		seen[s.UserID] = true
	}
	return nil
}

// sumShares adds share values in decimal so that e.g. 33.3+33.3+33.4 is exactly 100.
func sumShares(data []Share) float64 {
	total := decimal.Zero
	for _, s := range data {
		total = total.Add(decimal.NewFromFloat(s.Value))
	}
	f, _ := total.Float64()
	return f
}
