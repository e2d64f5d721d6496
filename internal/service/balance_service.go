package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/expenseshare/internal/ledger"
	"github.com/mmynk/expenseshare/internal/middleware"
)

// BalanceService answers balance and settlement queries.
type BalanceService struct {
	ledger *ledger.Ledger
}

// NewBalanceService creates a new BalanceService backed by l.
func NewBalanceService(l *ledger.Ledger) *BalanceService {
	return &BalanceService{ledger: l}
}

// GetGroupBalances returns each member's net balance in a group.
func (s *BalanceService) GetGroupBalances(ctx context.Context, req *connect.Request[GetGroupBalancesRequest]) (*connect.Response[GetGroupBalancesResponse], error) {
	balances, err := s.ledger.GroupBalances(ctx, middleware.GetUserID(ctx), req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&GetGroupBalancesResponse{Balances: balances}), nil
}

// GetGroupSettlementView returns local and cross-group balances with a
// settlement plan for each.
func (s *BalanceService) GetGroupSettlementView(ctx context.Context, req *connect.Request[GetGroupSettlementViewRequest]) (*connect.Response[GetGroupSettlementViewResponse], error) {
	slog.Debug("GetGroupSettlementView request received", "group_id", req.Msg.GroupID)

	view, err := s.ledger.SettlementView(ctx, middleware.GetUserID(ctx), req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&GetGroupSettlementViewResponse{
		Balances:          view.Balances,
		LocalSettlements:  transfersToWire(view.LocalSettlements),
		GlobalBalances:    view.GlobalBalances,
		GlobalSettlements: transfersToWire(view.GlobalSettlements),
	}), nil
}

// GetGlobalBalances returns the caller's net position against each friend.
func (s *BalanceService) GetGlobalBalances(ctx context.Context, _ *connect.Request[emptypb.Empty]) (*connect.Response[GetGlobalBalancesResponse], error) {
	friends, err := s.ledger.GlobalBalances(ctx, middleware.GetUserID(ctx))
	if err != nil {
		return nil, toConnectError(err)
	}

	resp := &GetGlobalBalancesResponse{Balances: make([]FriendBalance, 0, len(friends))}
	for _, f := range friends {
		resp.Balances = append(resp.Balances, FriendBalance{
			FriendID:   f.FriendID,
			FriendName: f.FriendName,
			Amount:     f.Amount,
		})
	}
	return connect.NewResponse(resp), nil
}

// SettleGlobalDebt records a payment from the caller to a friend.
func (s *BalanceService) SettleGlobalDebt(ctx context.Context, req *connect.Request[SettleGlobalDebtRequest]) (*connect.Response[SettleGlobalDebtResponse], error) {
	slog.Info("SettleGlobalDebt request received",
		"friend_id", req.Msg.FriendID,
		"amount", req.Msg.Amount,
	)

	groupName, err := s.ledger.SettleGlobalDebt(ctx, middleware.GetUserID(ctx), req.Msg.FriendID, req.Msg.Amount)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&SettleGlobalDebtResponse{GroupName: groupName}), nil
}
