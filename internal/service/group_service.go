package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/expenseshare/internal/ledger"
	"github.com/mmynk/expenseshare/internal/middleware"
)

// GroupService implements group management.
type GroupService struct {
	ledger *ledger.Ledger
}

// NewGroupService creates a new GroupService backed by l.
func NewGroupService(l *ledger.Ledger) *GroupService {
	return &GroupService{ledger: l}
}

// CreateGroup creates a new group owned by the caller.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error) {
	slog.Info("CreateGroup request received", "name", req.Msg.Name)

	group, err := s.ledger.CreateGroup(ctx, middleware.GetUserID(ctx), req.Msg.Name)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&CreateGroupResponse{Group: groupToWire(group)}), nil
}

// GetGroup retrieves a group by ID with member profiles.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[GetGroupRequest]) (*connect.Response[GetGroupResponse], error) {
	slog.Info("GetGroup request received", "group_id", req.Msg.GroupID)

	details, err := s.ledger.GetGroup(ctx, middleware.GetUserID(ctx), req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}

	resp := &GetGroupResponse{
		Group:   groupToWire(details.Group),
		Members: make([]User, 0, len(details.Members)),
	}
	if details.Creator != nil {
		creator := userToWire(details.Creator)
		resp.Creator = &creator
	}
	for _, m := range details.Members {
		resp.Members = append(resp.Members, userToWire(m))
	}

	return connect.NewResponse(resp), nil
}

// ListMyGroups lists the caller's groups, oldest first.
func (s *GroupService) ListMyGroups(ctx context.Context, _ *connect.Request[emptypb.Empty]) (*connect.Response[ListMyGroupsResponse], error) {
	groups, err := s.ledger.ListMyGroups(ctx, middleware.GetUserID(ctx))
	if err != nil {
		return nil, toConnectError(err)
	}

	resp := &ListMyGroupsResponse{Groups: make([]Group, 0, len(groups))}
	for _, g := range groups {
		resp.Groups = append(resp.Groups, groupToWire(g))
	}

	slog.Debug("ListMyGroups successful", "count", len(resp.Groups))
	return connect.NewResponse(resp), nil
}

// AddMember adds an existing user to a group by handle or email.
func (s *GroupService) AddMember(ctx context.Context, req *connect.Request[AddMemberRequest]) (*connect.Response[emptypb.Empty], error) {
	slog.Info("AddMember request received", "group_id", req.Msg.GroupID)

	if err := s.ledger.AddMember(ctx, middleware.GetUserID(ctx), req.Msg.GroupID, req.Msg.HandleOrEmail); err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&emptypb.Empty{}), nil
}

// DeleteGroup deletes a settled group. Only its creator may do this.
func (s *GroupService) DeleteGroup(ctx context.Context, req *connect.Request[DeleteGroupRequest]) (*connect.Response[emptypb.Empty], error) {
	slog.Info("DeleteGroup request received", "group_id", req.Msg.GroupID)

	if err := s.ledger.DeleteGroup(ctx, middleware.GetUserID(ctx), req.Msg.GroupID); err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&emptypb.Empty{}), nil
}
