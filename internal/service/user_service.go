package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/expenseshare/internal/ledger"
	"github.com/mmynk/expenseshare/internal/middleware"
)

// UserService exposes the caller's own profile.
type UserService struct {
	ledger *ledger.Ledger
}

// NewUserService creates a new UserService backed by l.
func NewUserService(l *ledger.Ledger) *UserService {
	return &UserService{ledger: l}
}

// WhoAmI returns the authenticated caller.
func (s *UserService) WhoAmI(ctx context.Context, _ *connect.Request[emptypb.Empty]) (*connect.Response[WhoAmIResponse], error) {
	userID := middleware.GetUserID(ctx)
	slog.Debug("WhoAmI request received", "user_id", userID)

	user, err := s.ledger.CurrentUser(ctx, userID)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&WhoAmIResponse{User: userToWire(user)}), nil
}
