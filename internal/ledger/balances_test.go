package ledger

import (
	"context"
	"testing"

	"github.com/mmynk/expenseshare/internal/calculator"
	"github.com/mmynk/expenseshare/internal/models"
)

func TestGroupBalances_MissingGroup(t *testing.T) {
	env := setupTestLedger(t)
	alice := env.signIn(t, "alice")

	balances, err := env.ledger.GroupBalances(context.Background(), alice.ID, "deleted-group")
	if err != nil {
		t.Fatalf("GroupBalances failed: %v", err)
	}
	if balances == nil || len(balances) != 0 {
		t.Errorf("expected empty map, got %v", balances)
	}
}

func TestSettlementView(t *testing.T) {
	env := setupTestLedger(t)
	ctx := context.Background()

	a := env.signIn(t, "a")
	b := env.signIn(t, "b")
	c := env.signIn(t, "c")

	small := env.newGroup(t, "Small", a, b)
	big := env.newGroup(t, "Big", a, b, c)

	// In Small: b pays 20 for a.
	env.record(t, b.ID, ExpenseInput{
		GroupID:   small.ID,
		Amount:    20,
		SplitType: models.SplitExact,
		SplitData: []calculator.Share{{UserID: a.ID, Value: 20}},
	})
	// In Big: a pays 90 split three ways.
	env.record(t, a.ID, ExpenseInput{GroupID: big.ID, Amount: 90, SplitType: models.SplitEqual})

	view, err := env.ledger.SettlementView(ctx, a.ID, small.ID)
	if err != nil {
		t.Fatalf("SettlementView failed: %v", err)
	}

	t.Run("local plan", func(t *testing.T) {
		if !near(view.Balances[a.ID], -20) || !near(view.Balances[b.ID], 20) {
			t.Errorf("local balances = %v", view.Balances)
		}
		if len(view.LocalSettlements) != 1 {
			t.Fatalf("expected 1 local transfer, got %v", view.LocalSettlements)
		}
		tr := view.LocalSettlements[0]
		if tr.From != a.ID || tr.To != b.ID || !near(tr.Amount, 20) {
			t.Errorf("local transfer = %+v", tr)
		}
	})

	t.Run("global view credits payers for non-member splits", func(t *testing.T) {
		// a is credited 90 and debited 30 (Big) and 20 (Small). c's share
		// of Big is debited nowhere in this view.
		if !near(view.GlobalBalances[a.ID], 90-30-20) {
			t.Errorf("global a = %v, want 40", view.GlobalBalances[a.ID])
		}
		if !near(view.GlobalBalances[b.ID], 20-30) {
			t.Errorf("global b = %v, want -10", view.GlobalBalances[b.ID])
		}
		if _, ok := view.GlobalBalances[c.ID]; ok {
			t.Error("non-member should not appear in the global view")
		}
		if !near(view.Outstanding(b.ID, a.ID), 10) {
			t.Errorf("Outstanding(b, a) = %v, want 10", view.Outstanding(b.ID, a.ID))
		}
		if view.Outstanding(a.ID, b.ID) != 0 {
			t.Errorf("Outstanding(a, b) = %v, want 0", view.Outstanding(a.ID, b.ID))
		}
	})

	t.Run("missing group", func(t *testing.T) {
		empty, err := env.ledger.SettlementView(ctx, a.ID, "nope")
		if err != nil {
			t.Fatalf("SettlementView failed: %v", err)
		}
		if len(empty.Balances) != 0 || len(empty.LocalSettlements) != 0 || len(empty.GlobalSettlements) != 0 {
			t.Errorf("expected empty view, got %+v", empty)
		}
	})
}

func TestGlobalBalancesAndSettle(t *testing.T) {
	env := setupTestLedger(t)
	ctx := context.Background()

	alice := env.signIn(t, "alice")
	bob := env.signIn(t, "bob")
	carol := env.signIn(t, "carol")
	dave := env.signIn(t, "dave")

	older := env.newGroup(t, "Older", alice, bob, carol)
	newer := env.newGroup(t, "Newer", bob, alice)

	// alice pays 90 in Older: bob and carol each owe her 30.
	env.record(t, alice.ID, ExpenseInput{GroupID: older.ID, Amount: 90, SplitType: models.SplitEqual})
	// bob pays 100 in Newer: alice owes him 50.
	env.record(t, bob.ID, ExpenseInput{GroupID: newer.ID, Amount: 100, SplitType: models.SplitEqual})

	balances, err := env.ledger.GlobalBalances(ctx, alice.ID)
	if err != nil {
		t.Fatalf("GlobalBalances failed: %v", err)
	}
	if len(balances) != 2 {
		t.Fatalf("expected 2 friends, got %+v", balances)
	}
	// Ordered by name: bob, carol.
	if balances[0].FriendID != bob.ID || !near(balances[0].Amount, -20) || balances[0].FriendName != "bob" {
		t.Errorf("bob entry = %+v, want -20", balances[0])
	}
	if balances[1].FriendID != carol.ID || !near(balances[1].Amount, 30) {
		t.Errorf("carol entry = %+v, want 30", balances[1])
	}

	t.Run("settle records in the earliest shared group", func(t *testing.T) {
		name, err := env.ledger.SettleGlobalDebt(ctx, alice.ID, bob.ID, 20)
		if err != nil {
			t.Fatalf("SettleGlobalDebt failed: %v", err)
		}
		if name != "Older" {
			t.Errorf("group = %q, want Older", name)
		}

		history, _ := env.ledger.ExpenseHistory(ctx, alice.ID, older.ID)
		if history[0].Description != "Settlement to bob" || history[0].SplitType != models.SplitExact {
			t.Errorf("unexpected settlement entry: %+v", history[0])
		}

		after, _ := env.ledger.GlobalBalances(ctx, alice.ID)
		if len(after) != 1 || after[0].FriendID != carol.ID {
			t.Errorf("expected only carol after settling with bob, got %+v", after)
		}
	})

	t.Run("carol sees her debt to alice", func(t *testing.T) {
		seen, _ := env.ledger.GlobalBalances(ctx, carol.ID)
		if len(seen) != 1 || seen[0].FriendID != alice.ID || !near(seen[0].Amount, -30) {
			t.Errorf("carol's view = %+v", seen)
		}
	})

	t.Run("no common group", func(t *testing.T) {
		_, err := env.ledger.SettleGlobalDebt(ctx, alice.ID, dave.ID, 5)
		if !IsNotFound(err) {
			t.Errorf("expected not found, got %v", err)
		}
	})

	t.Run("invalid requests", func(t *testing.T) {
		if _, err := env.ledger.SettleGlobalDebt(ctx, alice.ID, alice.ID, 5); !IsValidation(err) {
			t.Errorf("self settle: expected validation, got %v", err)
		}
		if _, err := env.ledger.SettleGlobalDebt(ctx, alice.ID, bob.ID, 0); !IsValidation(err) {
			t.Errorf("zero amount: expected validation, got %v", err)
		}
		if _, err := env.ledger.SettleGlobalDebt(ctx, alice.ID, "ghost", 5); !IsNotFound(err) {
			t.Errorf("unknown friend: expected not found, got %v", err)
		}
	})
}
