package ledger

import (
	"context"
	"errors"
	"strings"

	"github.com/mmynk/expenseshare/internal/calculator"
	"github.com/mmynk/expenseshare/internal/events"
	"github.com/mmynk/expenseshare/internal/models"
	"github.com/mmynk/expenseshare/internal/storage"
)

// ExpenseInput is a request to record an expense.
type ExpenseInput struct {
	GroupID string
	// PayerID defaults to the caller when empty.
	PayerID     string
	Amount      float64
	Description string
	SplitType   models.SplitType
	// SplitData is required for EXACT and PERCENT, ignored for EQUAL.
	SplitData []calculator.Share
}

// HistoryEntry is one row of a group's expense history.
type HistoryEntry struct {
	ID          string
	Description string
	Amount      float64
	PayerID     string
	PayerName   string
	SplitType   models.SplitType
	CreatedAt   int64
}

// RecordExpense validates and stores an expense with its splits.
// Nothing is written unless every check passes.
func (l *Ledger) RecordExpense(ctx context.Context, callerID string, in ExpenseInput) (string, error) {
	caller, err := l.caller(ctx, callerID)
	if err != nil {
		return "", err
	}

	group, err := l.store.GetGroup(ctx, in.GroupID)
	if err != nil {
		return "", err
	}
	if group == nil {
		return "", notFoundError(msgGroupNotFound)
	}

	payerID := in.PayerID
	if payerID == "" {
		payerID = caller.ID
	}
	if !group.HasMember(payerID) {
		return "", validationError("Payer must be a member of the group")
	}

	obligations, err := calculator.ComputeSplits(in.SplitType, in.Amount, group.Members, in.SplitData)
	if err != nil {
		return "", invalid(err)
	}

	expense := &models.Expense{
		GroupID:     group.ID,
		PayerID:     payerID,
		Amount:      in.Amount,
		Description: strings.TrimSpace(in.Description),
		SplitType:   in.SplitType,
		CreatedAt:   l.now().Unix(),
	}
	if err := l.store.CreateExpense(ctx, expense, toSplits(obligations)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", notFoundError(msgGroupNotFound)
		}
		return "", err
	}

	l.logger.InfoContext(ctx, "Recorded expense",
		"expense_id", expense.ID,
		"group_id", group.ID,
		"payer_id", payerID,
		"amount", expense.Amount,
		"split_type", expense.SplitType)
	l.publish(ctx, events.Event{
		Type:      events.ExpenseRecorded,
		GroupID:   group.ID,
		ActorID:   caller.ID,
		SubjectID: expense.ID,
		Amount:    expense.Amount,
	})
	return expense.ID, nil
}

// ExpenseHistory lists a group's expenses, newest first. A missing group
// has no history.
func (l *Ledger) ExpenseHistory(ctx context.Context, callerID, groupID string) ([]HistoryEntry, error) {
	if _, err := l.caller(ctx, callerID); err != nil {
		return nil, err
	}

	expenses, err := l.store.ListGroupExpenses(ctx, groupID)
	if err != nil {
		return nil, err
	}

	payerIDs := make([]string, 0, len(expenses))
	for _, e := range expenses {
		payerIDs = append(payerIDs, e.PayerID)
	}
	payers, err := l.users(ctx, payerIDs)
	if err != nil {
		return nil, err
	}

	history := make([]HistoryEntry, 0, len(expenses))
	for _, e := range expenses {
		payerName := "Unknown"
		if p, ok := payers[e.PayerID]; ok {
			payerName = p.Name
		}
		history = append(history, HistoryEntry{
			ID:          e.ID,
			Description: e.Description,
			Amount:      e.Amount,
			PayerID:     e.PayerID,
			PayerName:   payerName,
			SplitType:   e.SplitType,
			CreatedAt:   e.CreatedAt,
		})
	}
	return history, nil
}

func toSplits(obligations []calculator.Obligation) []models.Split {
	splits := make([]models.Split, len(obligations))
	for i, o := range obligations {
		splits[i] = models.Split{UserID: o.UserID, Amount: o.Amount}
	}
	return splits
}

// toEntries reduces stored expenses to what the balance calculations read.
func toEntries(expenses []models.ExpenseWithSplits) []calculator.EntryForBalance {
	entries := make([]calculator.EntryForBalance, len(expenses))
	for i, e := range expenses {
		obligations := make([]calculator.Obligation, len(e.Splits))
		for j, s := range e.Splits {
			obligations[j] = calculator.Obligation{UserID: s.UserID, Amount: s.Amount}
		}
		entries[i] = calculator.EntryForBalance{
			PayerID: e.PayerID,
			Amount:  e.Amount,
			Splits:  obligations,
		}
	}
	return entries
}
