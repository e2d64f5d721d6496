package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/expenseshare/internal/ledger"
	"github.com/mmynk/expenseshare/internal/middleware"
	"github.com/mmynk/expenseshare/internal/models"
)

// ExpenseService records expenses and serves their history.
type ExpenseService struct {
	ledger *ledger.Ledger
}

// NewExpenseService creates a new ExpenseService backed by l.
func NewExpenseService(l *ledger.Ledger) *ExpenseService {
	return &ExpenseService{ledger: l}
}

// RecordExpense stores an expense and its splits.
func (s *ExpenseService) RecordExpense(ctx context.Context, req *connect.Request[RecordExpenseRequest]) (*connect.Response[RecordExpenseResponse], error) {
	slog.Info("RecordExpense request received",
		"group_id", req.Msg.GroupID,
		"amount", req.Msg.Amount,
		"split_type", req.Msg.SplitType,
	)

	id, err := s.ledger.RecordExpense(ctx, middleware.GetUserID(ctx), ledger.ExpenseInput{
		GroupID:     req.Msg.GroupID,
		PayerID:     req.Msg.PayerID,
		Amount:      req.Msg.Amount,
		Description: req.Msg.Description,
		SplitType:   models.SplitType(req.Msg.SplitType),
		SplitData:   sharesFromWire(req.Msg.SplitData),
	})
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&RecordExpenseResponse{ExpenseID: id}), nil
}

// GetExpenseHistory lists a group's expenses, newest first.
func (s *ExpenseService) GetExpenseHistory(ctx context.Context, req *connect.Request[GetExpenseHistoryRequest]) (*connect.Response[GetExpenseHistoryResponse], error) {
	slog.Debug("GetExpenseHistory request received", "group_id", req.Msg.GroupID)

	entries, err := s.ledger.ExpenseHistory(ctx, middleware.GetUserID(ctx), req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&GetExpenseHistoryResponse{Expenses: historyToWire(entries)}), nil
}
