package service

import (
	"context"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"

	"github.com/mmynk/expenseshare/internal/ledger"
)

// Fully-qualified procedure names, used as HTTP paths.
const (
	WhoAmIProcedure = "/expenseshare.v1.UserService/WhoAmI"

	CreateGroupProcedure  = "/expenseshare.v1.GroupService/CreateGroup"
	GetGroupProcedure     = "/expenseshare.v1.GroupService/GetGroup"
	ListMyGroupsProcedure = "/expenseshare.v1.GroupService/ListMyGroups"
	AddMemberProcedure    = "/expenseshare.v1.GroupService/AddMember"
	DeleteGroupProcedure  = "/expenseshare.v1.GroupService/DeleteGroup"

	RecordExpenseProcedure     = "/expenseshare.v1.ExpenseService/RecordExpense"
	GetExpenseHistoryProcedure = "/expenseshare.v1.ExpenseService/GetExpenseHistory"

	GetGroupBalancesProcedure       = "/expenseshare.v1.BalanceService/GetGroupBalances"
	GetGroupSettlementViewProcedure = "/expenseshare.v1.BalanceService/GetGroupSettlementView"
	GetGlobalBalancesProcedure      = "/expenseshare.v1.BalanceService/GetGlobalBalances"
	SettleGlobalDebtProcedure       = "/expenseshare.v1.BalanceService/SettleGlobalDebt"
)

// Register mounts every RPC on r. Options such as interceptors apply to all
// handlers.
func Register(r chi.Router, l *ledger.Ledger, opts ...connect.HandlerOption) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	users := NewUserService(l)
	handle(r, WhoAmIProcedure, users.WhoAmI, opts)

	groups := NewGroupService(l)
	handle(r, CreateGroupProcedure, groups.CreateGroup, opts)
	handle(r, GetGroupProcedure, groups.GetGroup, opts)
	handle(r, ListMyGroupsProcedure, groups.ListMyGroups, opts)
	handle(r, AddMemberProcedure, groups.AddMember, opts)
	handle(r, DeleteGroupProcedure, groups.DeleteGroup, opts)

	expenses := NewExpenseService(l)
	handle(r, RecordExpenseProcedure, expenses.RecordExpense, opts)
	handle(r, GetExpenseHistoryProcedure, expenses.GetExpenseHistory, opts)

	balances := NewBalanceService(l)
	handle(r, GetGroupBalancesProcedure, balances.GetGroupBalances, opts)
	handle(r, GetGroupSettlementViewProcedure, balances.GetGroupSettlementView, opts)
	handle(r, GetGlobalBalancesProcedure, balances.GetGlobalBalances, opts)
	handle(r, SettleGlobalDebtProcedure, balances.SettleGlobalDebt, opts)
}

func handle[Req, Res any](
	r chi.Router,
	procedure string,
	fn func(context.Context, *connect.Request[Req]) (*connect.Response[Res], error),
	opts []connect.HandlerOption,
) {
	r.Handle(procedure, connect.NewUnaryHandler(procedure, fn, opts...))
}
