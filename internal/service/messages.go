package service

import (
	"github.com/mmynk/expenseshare/internal/calculator"
	"github.com/mmynk/expenseshare/internal/ledger"
	"github.com/mmynk/expenseshare/internal/models"
)

// Wire messages. RPCs without parameters or results use emptypb.Empty.

type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

type Group struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	CreatedBy string   `json:"created_by"`
	Members   []string `json:"members"`
	CreatedAt int64    `json:"created_at"`
}

type Share struct {
	UserID string  `json:"user_id"`
	Value  float64 `json:"value"`
}

type Transfer struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

type HistoryEntry struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	PayerID     string  `json:"payer_id"`
	PayerName   string  `json:"payer_name"`
	SplitType   string  `json:"split_type"`
	CreatedAt   int64   `json:"created_at"`
}

type FriendBalance struct {
	FriendID   string  `json:"friend_id"`
	FriendName string  `json:"friend_name"`
	Amount     float64 `json:"amount"`
}

type WhoAmIResponse struct {
	User User `json:"user"`
}

type CreateGroupRequest struct {
	Name string `json:"name"`
}

type CreateGroupResponse struct {
	Group Group `json:"group"`
}

type GetGroupRequest struct {
	GroupID string `json:"group_id"`
}

type GetGroupResponse struct {
	Group   Group  `json:"group"`
	Creator *User  `json:"creator,omitempty"`
	Members []User `json:"members"`
}

type ListMyGroupsResponse struct {
	Groups []Group `json:"groups"`
}

type AddMemberRequest struct {
	GroupID       string `json:"group_id"`
	HandleOrEmail string `json:"handle_or_email"`
}

type DeleteGroupRequest struct {
	GroupID string `json:"group_id"`
}

type RecordExpenseRequest struct {
	GroupID     string  `json:"group_id"`
	PayerID     string  `json:"payer_id,omitempty"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	SplitType   string  `json:"split_type"`
	SplitData   []Share `json:"split_data,omitempty"`
}

type RecordExpenseResponse struct {
	ExpenseID string `json:"expense_id"`
}

type GetExpenseHistoryRequest struct {
	GroupID string `json:"group_id"`
}

type GetExpenseHistoryResponse struct {
	Expenses []HistoryEntry `json:"expenses"`
}

type GetGroupBalancesRequest struct {
	GroupID string `json:"group_id"`
}

type GetGroupBalancesResponse struct {
	Balances map[string]float64 `json:"balances"`
}

type GetGroupSettlementViewRequest struct {
	GroupID string `json:"group_id"`
}

type GetGroupSettlementViewResponse struct {
	Balances          map[string]float64 `json:"balances"`
	LocalSettlements  []Transfer         `json:"local_settlements"`
	GlobalBalances    map[string]float64 `json:"global_balances"`
	GlobalSettlements []Transfer         `json:"global_settlements"`
}

type GetGlobalBalancesResponse struct {
	Balances []FriendBalance `json:"balances"`
}

type SettleGlobalDebtRequest struct {
	FriendID string  `json:"friend_id"`
	Amount   float64 `json:"amount"`
}

type SettleGlobalDebtResponse struct {
	GroupName string `json:"group_name"`
}

func userToWire(u *models.User) User {
	return User{
		ID:        u.ID,
		Name:      u.Name,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func groupToWire(g *models.Group) Group {
	members := g.Members
	if members == nil {
		members = []string{}
	}
	return Group{
		ID:        g.ID,
		Name:      g.Name,
		CreatedBy: g.CreatedBy,
		Members:   members,
		CreatedAt: g.CreatedAt,
	}
}

func transfersToWire(transfers []models.Transfer) []Transfer {
	out := make([]Transfer, len(transfers))
	for i, t := range transfers {
		out[i] = Transfer{From: t.From, To: t.To, Amount: t.Amount}
	}
	return out
}

func historyToWire(entries []ledger.HistoryEntry) []HistoryEntry {
	out := make([]HistoryEntry, len(entries))
	for i, e := range entries {
		out[i] = HistoryEntry{
			ID:          e.ID,
			Description: e.Description,
			Amount:      e.Amount,
			PayerID:     e.PayerID,
			PayerName:   e.PayerName,
			SplitType:   string(e.SplitType),
			CreatedAt:   e.CreatedAt,
		}
	}
	return out
}

func sharesFromWire(shares []Share) []calculator.Share {
	out := make([]calculator.Share, len(shares))
	for i, s := range shares {
		out[i] = calculator.Share{UserID: s.UserID, Value: s.Value}
	}
	return out
}
