package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/mmynk/expenseshare/internal/calculator"
	"github.com/mmynk/expenseshare/internal/events"
	"github.com/mmynk/expenseshare/internal/models"
	"github.com/mmynk/expenseshare/internal/storage"
)

// SettlementView pairs a group's local balances and plan with the
// group-filtered global balances and plan.
type SettlementView struct {
	Balances          calculator.Balances
	LocalSettlements  []models.Transfer
	GlobalBalances    calculator.Balances
	GlobalSettlements []models.Transfer
}

// Outstanding returns how much from still owes to according to the global
// plan, or 0 if the plan has no such transfer.
func (v *SettlementView) Outstanding(from, to string) float64 {
	var total float64
	for _, t := range v.GlobalSettlements {
		if t.From == from && t.To == to {
			total += t.Amount
		}
	}
	return total
}

// GroupBalances returns the net balance of every current member of the
// group. A missing group yields an empty map.
func (l *Ledger) GroupBalances(ctx context.Context, callerID, groupID string) (calculator.Balances, error) {
	if _, err := l.caller(ctx, callerID); err != nil {
		return nil, err
	}

	group, err := l.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		l.logger.DebugContext(ctx, "Balances requested for missing group", "group_id", groupID)
		return calculator.Balances{}, nil
	}

	return l.balancesFor(ctx, group)
}

func (l *Ledger) balancesFor(ctx context.Context, group *models.Group) (calculator.Balances, error) {
	expenses, err := l.store.ListGroupExpenses(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	return calculator.MemberBalances(group.Members, toEntries(expenses)), nil
}

// SettlementView computes the local and group-filtered global settlement
// plans for a group. The global view covers every expense, in any group,
// paid by a current member; only current members' splits are debited.
func (l *Ledger) SettlementView(ctx context.Context, callerID, groupID string) (*SettlementView, error) {
	if _, err := l.caller(ctx, callerID); err != nil {
		return nil, err
	}

	group, err := l.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		l.logger.DebugContext(ctx, "Settlement view requested for missing group", "group_id", groupID)
		return &SettlementView{
			Balances:          calculator.Balances{},
			LocalSettlements:  []models.Transfer{},
			GlobalBalances:    calculator.Balances{},
			GlobalSettlements: []models.Transfer{},
		}, nil
	}

	var local, global []models.ExpenseWithSplits
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		local, err = l.store.ListGroupExpenses(gctx, group.ID)
		return err
	})
	g.Go(func() error {
		var err error
		global, err = l.store.ListExpensesByPayers(gctx, group.Members)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	view := &SettlementView{
		Balances:       calculator.MemberBalances(group.Members, toEntries(local)),
		GlobalBalances: calculator.MemberBalances(group.Members, toEntries(global)),
	}
	view.LocalSettlements = nonNil(calculator.PlanSettlements(view.Balances))
	view.GlobalSettlements = nonNil(calculator.PlanSettlements(view.GlobalBalances))
	return view, nil
}

// GlobalBalances returns the caller's net position against every other
// user across all expenses either took part in, ordered by friend name.
func (l *Ledger) GlobalBalances(ctx context.Context, callerID string) ([]models.FriendBalance, error) {
	caller, err := l.caller(ctx, callerID)
	if err != nil {
		return nil, err
	}

	expenses, err := l.store.ListExpensesInvolving(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	net := calculator.FriendBalances(caller.ID, toEntries(expenses))

	ids := make([]string, 0, len(net))
	for id := range net {
		ids = append(ids, id)
	}
	friends, err := l.users(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]models.FriendBalance, 0, len(net))
	for id, amount := range net {
		name := "Unknown"
		if f, ok := friends[id]; ok {
			name = f.Name
		}
		out = append(out, models.FriendBalance{FriendID: id, FriendName: name, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FriendName != out[j].FriendName {
			return out[i].FriendName < out[j].FriendName
		}
		return out[i].FriendID < out[j].FriendID
	})
	return out, nil
}

// SettleGlobalDebt records that the caller paid friend amount, as an EXACT
// expense in the earliest-created group they share. Returns the group name.
func (l *Ledger) SettleGlobalDebt(ctx context.Context, callerID, friendID string, amount float64) (string, error) {
	caller, err := l.caller(ctx, callerID)
	if err != nil {
		return "", err
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return "", invalid(calculator.ErrInvalidAmount)
	}
	if friendID == caller.ID {
		return "", validationError("Cannot settle a debt with yourself")
	}

	friend, err := l.user(ctx, friendID)
	if err != nil {
		return "", err
	}
	if friend == nil {
		return "", notFoundError("User not found")
	}

	groups, err := l.store.ListCommonGroups(ctx, caller.ID, friend.ID)
	if err != nil {
		return "", err
	}
	if len(groups) == 0 {
		return "", notFoundError("No common group found to record the settlement")
	}
	group := groups[0]

	expense := &models.Expense{
		GroupID:     group.ID,
		PayerID:     caller.ID,
		Amount:      amount,
		Description: fmt.Sprintf("Settlement to %s", friend.Name),
		SplitType:   models.SplitExact,
		CreatedAt:   l.now().Unix(),
	}
	splits := []models.Split{{UserID: friend.ID, Amount: amount}}
	if err := l.store.CreateExpense(ctx, expense, splits); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", notFoundError(msgGroupNotFound)
		}
		return "", err
	}

	l.logger.InfoContext(ctx, "Recorded settlement",
		"expense_id", expense.ID,
		"group_id", group.ID,
		"user_id", caller.ID,
		"friend_id", friend.ID,
		"amount", amount)
	l.publish(ctx, events.Event{
		Type:      events.ExpenseRecorded,
		GroupID:   group.ID,
		ActorID:   caller.ID,
		SubjectID: expense.ID,
		Amount:    amount,
	})
	return group.Name, nil
}

func nonNil(transfers []models.Transfer) []models.Transfer {
	if transfers == nil {
		return []models.Transfer{}
	}
	return transfers
}
