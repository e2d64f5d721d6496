package service

import (
	"context"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
)

// Client is a typed client for every RPC served by Register.
type Client struct {
	whoAmI                 *connect.Client[emptypb.Empty, WhoAmIResponse]
	createGroup            *connect.Client[CreateGroupRequest, CreateGroupResponse]
	getGroup               *connect.Client[GetGroupRequest, GetGroupResponse]
	listMyGroups           *connect.Client[emptypb.Empty, ListMyGroupsResponse]
	addMember              *connect.Client[AddMemberRequest, emptypb.Empty]
	deleteGroup            *connect.Client[DeleteGroupRequest, emptypb.Empty]
	recordExpense          *connect.Client[RecordExpenseRequest, RecordExpenseResponse]
	getExpenseHistory      *connect.Client[GetExpenseHistoryRequest, GetExpenseHistoryResponse]
	getGroupBalances       *connect.Client[GetGroupBalancesRequest, GetGroupBalancesResponse]
	getGroupSettlementView *connect.Client[GetGroupSettlementViewRequest, GetGroupSettlementViewResponse]
	getGlobalBalances      *connect.Client[emptypb.Empty, GetGlobalBalancesResponse]
	settleGlobalDebt       *connect.Client[SettleGlobalDebtRequest, SettleGlobalDebtResponse]
}

// NewClient creates a Client for the server at baseURL.
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &Client{
		whoAmI:                 connect.NewClient[emptypb.Empty, WhoAmIResponse](httpClient, baseURL+WhoAmIProcedure, opts...),
		createGroup:            connect.NewClient[CreateGroupRequest, CreateGroupResponse](httpClient, baseURL+CreateGroupProcedure, opts...),
		getGroup:               connect.NewClient[GetGroupRequest, GetGroupResponse](httpClient, baseURL+GetGroupProcedure, opts...),
		listMyGroups:           connect.NewClient[emptypb.Empty, ListMyGroupsResponse](httpClient, baseURL+ListMyGroupsProcedure, opts...),
		addMember:              connect.NewClient[AddMemberRequest, emptypb.Empty](httpClient, baseURL+AddMemberProcedure, opts...),
		deleteGroup:            connect.NewClient[DeleteGroupRequest, emptypb.Empty](httpClient, baseURL+DeleteGroupProcedure, opts...),
		recordExpense:          connect.NewClient[RecordExpenseRequest, RecordExpenseResponse](httpClient, baseURL+RecordExpenseProcedure, opts...),
		getExpenseHistory:      connect.NewClient[GetExpenseHistoryRequest, GetExpenseHistoryResponse](httpClient, baseURL+GetExpenseHistoryProcedure, opts...),
		getGroupBalances:       connect.NewClient[GetGroupBalancesRequest, GetGroupBalancesResponse](httpClient, baseURL+GetGroupBalancesProcedure, opts...),
		getGroupSettlementView: connect.NewClient[GetGroupSettlementViewRequest, GetGroupSettlementViewResponse](httpClient, baseURL+GetGroupSettlementViewProcedure, opts...),
		getGlobalBalances:      connect.NewClient[emptypb.Empty, GetGlobalBalancesResponse](httpClient, baseURL+GetGlobalBalancesProcedure, opts...),
		settleGlobalDebt:       connect.NewClient[SettleGlobalDebtRequest, SettleGlobalDebtResponse](httpClient, baseURL+SettleGlobalDebtProcedure, opts...),
	}
}

// WithBearerToken sends token in the Authorization header of every call.
func WithBearerToken(token string) connect.ClientOption {
	return connect.WithInterceptors(connect.UnaryInterceptorFunc(func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			req.Header().Set("Authorization", "Bearer "+token)
			return next(ctx, req)
		}
	}))
}

func call[Req, Res any](ctx context.Context, c *connect.Client[Req, Res], req *Req) (*Res, error) {
	resp, err := c.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func (c *Client) WhoAmI(ctx context.Context) (*WhoAmIResponse, error) {
	return call(ctx, c.whoAmI, &emptypb.Empty{})
}

func (c *Client) CreateGroup(ctx context.Context, req *CreateGroupRequest) (*CreateGroupResponse, error) {
	return call(ctx, c.createGroup, req)
}

func (c *Client) GetGroup(ctx context.Context, req *GetGroupRequest) (*GetGroupResponse, error) {
	return call(ctx, c.getGroup, req)
}

func (c *Client) ListMyGroups(ctx context.Context) (*ListMyGroupsResponse, error) {
	return call(ctx, c.listMyGroups, &emptypb.Empty{})
}

func (c *Client) AddMember(ctx context.Context, req *AddMemberRequest) error {
	_, err := call(ctx, c.addMember, req)
	return err
}

func (c *Client) DeleteGroup(ctx context.Context, req *DeleteGroupRequest) error {
	_, err := call(ctx, c.deleteGroup, req)
	return err
}

func (c *Client) RecordExpense(ctx context.Context, req *RecordExpenseRequest) (*RecordExpenseResponse, error) {
	return call(ctx, c.recordExpense, req)
}

func (c *Client) GetExpenseHistory(ctx context.Context, req *GetExpenseHistoryRequest) (*GetExpenseHistoryResponse, error) {
	return call(ctx, c.getExpenseHistory, req)
}

func (c *Client) GetGroupBalances(ctx context.Context, req *GetGroupBalancesRequest) (*GetGroupBalancesResponse, error) {
	return call(ctx, c.getGroupBalances, req)
}

func (c *Client) GetGroupSettlementView(ctx context.Context, req *GetGroupSettlementViewRequest) (*GetGroupSettlementViewResponse, error) {
	return call(ctx, c.getGroupSettlementView, req)
}

func (c *Client) GetGlobalBalances(ctx context.Context) (*GetGlobalBalancesResponse, error) {
	return call(ctx, c.getGlobalBalances, &emptypb.Empty{})
}

func (c *Client) SettleGlobalDebt(ctx context.Context, req *SettleGlobalDebtRequest) (*SettleGlobalDebtResponse, error) {
	return call(ctx, c.settleGlobalDebt, req)
}
