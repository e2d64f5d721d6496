package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/expenseshare/internal/models"
)

// expenseSelect joins every expense with its splits; callers append WHERE and ORDER BY.
const expenseSelect = `
	SELECT e.id, e.group_id, e.payer_id, e.amount, e.description, e.split_type, e.created_at,
	       s.id, s.user_id, s.amount
	FROM expenses e
	LEFT JOIN expense_splits s ON s.expense_id = e.id
`

// CreateExpense persists an expense and its splits in one transaction.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense, splits []models.Split) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		ok, err := groupExists(ctx, tx, expense.GroupID)
		if err != nil {
			return err
		}
		if !ok {
			return notFound(expense.GroupID)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO expenses (id, group_id, payer_id, amount, description, split_type, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			expense.ID, expense.GroupID, expense.PayerID, expense.Amount,
			expense.Description, string(expense.SplitType), expense.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}

		for i := range splits {
			split := &splits[i]
			if split.ID == "" {
				split.ID = uuid.New().String()
			}
			split.ExpenseID = expense.ID

			_, err = tx.ExecContext(ctx,
				"INSERT INTO expense_splits (id, expense_id, user_id, amount) VALUES (?, ?, ?, ?)",
				split.ID, split.ExpenseID, split.UserID, split.Amount,
			)
			if err != nil {
				return fmt.Errorf("failed to insert split: %w", err)
			}
		}
		return nil
	})
}

// ListGroupExpenses returns a group's expenses with splits, newest first.
func (s *SQLiteStore) ListGroupExpenses(ctx context.Context, groupID string) ([]models.ExpenseWithSplits, error) {
	return s.queryExpenses(ctx,
		expenseSelect+" WHERE e.group_id = ? ORDER BY e.created_at DESC, e.rowid DESC, s.rowid",
		groupID,
	)
}

// ListExpensesByPayers returns every expense paid by one of payerIDs.
func (s *SQLiteStore) ListExpensesByPayers(ctx context.Context, payerIDs []string) ([]models.ExpenseWithSplits, error) {
	if len(payerIDs) == 0 {
		return nil, nil
	}
	return s.queryExpenses(ctx,
		expenseSelect+" WHERE e.payer_id IN ("+placeholders(len(payerIDs))+") ORDER BY e.created_at, e.rowid, s.rowid",
		stringArgs(payerIDs)...,
	)
}

// ListExpensesInvolving returns every expense userID paid or owes a split of.
func (s *SQLiteStore) ListExpensesInvolving(ctx context.Context, userID string) ([]models.ExpenseWithSplits, error) {
	return s.queryExpenses(ctx, expenseSelect+`
		WHERE e.payer_id = ?
		   OR e.id IN (SELECT expense_id FROM expense_splits WHERE user_id = ?)
		ORDER BY e.created_at, e.rowid, s.rowid`,
		userID, userID,
	)
}

// queryExpenses folds the joined rows back into expenses. Rows for one
// expense are adjacent because every query orders by expense first.
func (s *SQLiteStore) queryExpenses(ctx context.Context, query string, args ...any) ([]models.ExpenseWithSplits, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	var out []models.ExpenseWithSplits
	for rows.Next() {
		var (
			e         models.Expense
			splitType string
			splitID   sql.NullString
			userID    sql.NullString
			amount    sql.NullFloat64
		)
		if err := rows.Scan(
			&e.ID, &e.GroupID, &e.PayerID, &e.Amount, &e.Description, &splitType, &e.CreatedAt,
			&splitID, &userID, &amount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		e.SplitType = models.SplitType(splitType)

		if n := len(out); n == 0 || out[n-1].ID != e.ID {
			out = append(out, models.ExpenseWithSplits{Expense: e})
		}
		if splitID.Valid {
			last := &out[len(out)-1]
			last.Splits = append(last.Splits, models.Split{
				ID:        splitID.String,
				ExpenseID: e.ID,
				UserID:    userID.String,
				Amount:    amount.Float64,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	return out, nil
}
