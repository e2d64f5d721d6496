package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/expenseshare/internal/auth"
	"github.com/mmynk/expenseshare/internal/ledger"
	"github.com/mmynk/expenseshare/internal/middleware"
	"github.com/mmynk/expenseshare/internal/storage/sqlite"
)

type testServer struct {
	url  string
	jwt  *auth.JWTManager
	anon *Client
	logs *logBuffer
}

// logBuffer collects RPC log output written from server goroutines.
type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *logBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// setupTestServer serves every RPC over HTTP through the server's interceptor
// chain, with real token verification and a temporary SQLite database.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "service.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	l := ledger.New(store, ledger.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	jwtManager := auth.NewJWTManager("test-secret", "expenseshare-test", time.Hour)

	logs := &logBuffer{}
	rpcLogger := slog.New(slog.NewTextHandler(logs, nil))
	metrics := middleware.NewMetrics(prometheus.NewRegistry())

	r := chi.NewRouter()
	Register(r, l, middleware.Interceptors(rpcLogger, metrics, jwtManager, l))

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return &testServer{
		url:  server.URL,
		jwt:  jwtManager,
		anon: NewClient(http.DefaultClient, server.URL),
		logs: logs,
	}
}

// clientFor returns a client authenticated as username, and the user it
// resolves to.
func (s *testServer) clientFor(t *testing.T, username string) (*Client, User) {
	t.Helper()
	token, err := s.jwt.Generate(&auth.Identity{
		TokenIdentifier: "idp|" + username,
		Username:        username,
		Email:           username + "@example.com",
	})
	if err != nil {
		t.Fatalf("failed to mint token: %v", err)
	}
	client := NewClient(http.DefaultClient, s.url, WithBearerToken(token))
	me, err := client.WhoAmI(context.Background())
	if err != nil {
		t.Fatalf("WhoAmI(%s) failed: %v", username, err)
	}
	return client, me.User
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Fatalf("expected code %v, got %v (%v)", want, got, err)
	}
}

func assertMessage(t *testing.T, err error, want string) {
	t.Helper()
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		t.Fatalf("expected a connect error, got %v", err)
	}
	if connectErr.Message() != want {
		t.Errorf("expected message %q, got %q", want, connectErr.Message())
	}
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.01
}

func TestWhoAmI(t *testing.T) {
	s := setupTestServer(t)
	ctx := context.Background()

	_, err := s.anon.WhoAmI(ctx)
	assertCode(t, err, connect.CodeUnauthenticated)

	_, alice := s.clientFor(t, "alice")
	if alice.Username != "alice" {
		t.Errorf("expected username alice, got %q", alice.Username)
	}
	if alice.Email != "alice@example.com" {
		t.Errorf("expected email alice@example.com, got %q", alice.Email)
	}

	// Signing in again resolves to the same user.
	_, again := s.clientFor(t, "alice")
	if again.ID != alice.ID {
		t.Errorf("expected same user ID %s, got %s", alice.ID, again.ID)
	}

	bad := NewClient(http.DefaultClient, s.url, WithBearerToken("not-a-jwt"))
	_, err = bad.WhoAmI(ctx)
	assertCode(t, err, connect.CodeUnauthenticated)
}

func TestRPCLogsCaller(t *testing.T) {
	s := setupTestServer(t)

	aliceClient, alice := s.clientFor(t, "alice")
	if _, err := aliceClient.ListMyGroups(context.Background()); err != nil {
		t.Fatalf("ListMyGroups failed: %v", err)
	}

	out := s.logs.String()
	want := "procedure=" + ListMyGroupsProcedure + " user_id=" + alice.ID
	if !strings.Contains(out, want) {
		t.Errorf("log does not contain %q:\n%s", want, out)
	}
}

func TestGroupService(t *testing.T) {
	s := setupTestServer(t)
	ctx := context.Background()

	aliceClient, alice := s.clientFor(t, "alice")
	bobClient, bob := s.clientFor(t, "bob")

	t.Run("anonymous callers", func(t *testing.T) {
		_, err := s.anon.CreateGroup(ctx, &CreateGroupRequest{Name: "Trip"})
		assertCode(t, err, connect.CodeUnauthenticated)

		resp, err := s.anon.ListMyGroups(ctx)
		if err != nil {
			t.Fatalf("ListMyGroups failed: %v", err)
		}
		if len(resp.Groups) != 0 {
			t.Errorf("expected no groups, got %d", len(resp.Groups))
		}
	})

	_, err := aliceClient.CreateGroup(ctx, &CreateGroupRequest{Name: "   "})
	assertCode(t, err, connect.CodeInvalidArgument)

	created, err := aliceClient.CreateGroup(ctx, &CreateGroupRequest{Name: "Roommates"})
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	group := created.Group
	if group.CreatedBy != alice.ID {
		t.Errorf("expected creator %s, got %s", alice.ID, group.CreatedBy)
	}
	if len(group.Members) != 1 || group.Members[0] != alice.ID {
		t.Errorf("expected creator as sole member, got %v", group.Members)
	}

	t.Run("add member", func(t *testing.T) {
		err := bobClient.AddMember(ctx, &AddMemberRequest{GroupID: group.ID, HandleOrEmail: "alice"})
		assertCode(t, err, connect.CodePermissionDenied)

		err = aliceClient.AddMember(ctx, &AddMemberRequest{GroupID: group.ID, HandleOrEmail: "  BOB@Example.com "})
		if err != nil {
			t.Fatalf("AddMember failed: %v", err)
		}

		err = aliceClient.AddMember(ctx, &AddMemberRequest{GroupID: group.ID, HandleOrEmail: "bob"})
		assertCode(t, err, connect.CodeInvalidArgument)
		assertMessage(t, err, "User is already in this group")

		err = aliceClient.AddMember(ctx, &AddMemberRequest{GroupID: group.ID, HandleOrEmail: "nobody"})
		assertCode(t, err, connect.CodeNotFound)
		assertMessage(t, err, "User not found. Ask them to sign in once.")

		err = aliceClient.AddMember(ctx, &AddMemberRequest{GroupID: "missing", HandleOrEmail: "bob"})
		assertCode(t, err, connect.CodeNotFound)
	})

	t.Run("get group", func(t *testing.T) {
		resp, err := bobClient.GetGroup(ctx, &GetGroupRequest{GroupID: group.ID})
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if resp.Creator == nil || resp.Creator.ID != alice.ID {
			t.Errorf("expected creator alice, got %+v", resp.Creator)
		}
		if len(resp.Members) != 2 || resp.Members[0].ID != alice.ID || resp.Members[1].ID != bob.ID {
			t.Errorf("expected members [alice bob], got %+v", resp.Members)
		}

		_, err = bobClient.GetGroup(ctx, &GetGroupRequest{GroupID: "missing"})
		assertCode(t, err, connect.CodeNotFound)
		assertMessage(t, err, "Group not found")
	})

	t.Run("list my groups", func(t *testing.T) {
		if _, err := bobClient.CreateGroup(ctx, &CreateGroupRequest{Name: "Ski Trip"}); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}
		resp, err := bobClient.ListMyGroups(ctx)
		if err != nil {
			t.Fatalf("ListMyGroups failed: %v", err)
		}
		if len(resp.Groups) != 2 {
			t.Fatalf("expected 2 groups, got %d", len(resp.Groups))
		}
		if resp.Groups[0].Name != "Roommates" || resp.Groups[1].Name != "Ski Trip" {
			t.Errorf("expected oldest first, got %s, %s", resp.Groups[0].Name, resp.Groups[1].Name)
		}
	})

	t.Run("delete group", func(t *testing.T) {
		err := bobClient.DeleteGroup(ctx, &DeleteGroupRequest{GroupID: group.ID})
		assertCode(t, err, connect.CodePermissionDenied)
		assertMessage(t, err, "Unauthorized: Only the admin can delete this group")

		if err := aliceClient.DeleteGroup(ctx, &DeleteGroupRequest{GroupID: group.ID}); err != nil {
			t.Fatalf("DeleteGroup failed: %v", err)
		}
		_, err = aliceClient.GetGroup(ctx, &GetGroupRequest{GroupID: group.ID})
		assertCode(t, err, connect.CodeNotFound)
	})
}

func TestExpenseAndBalanceServices(t *testing.T) {
	s := setupTestServer(t)
	ctx := context.Background()

	aliceClient, alice := s.clientFor(t, "alice")
	bobClient, bob := s.clientFor(t, "bob")
	carolClient, carol := s.clientFor(t, "carol")

	created, err := aliceClient.CreateGroup(ctx, &CreateGroupRequest{Name: "Trip"})
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	groupID := created.Group.ID
	for _, handle := range []string{"bob", "carol"} {
		if err := aliceClient.AddMember(ctx, &AddMemberRequest{GroupID: groupID, HandleOrEmail: handle}); err != nil {
			t.Fatalf("AddMember(%s) failed: %v", handle, err)
		}
	}

	t.Run("rejects invalid expenses", func(t *testing.T) {
		_, err := aliceClient.RecordExpense(ctx, &RecordExpenseRequest{
			GroupID:   groupID,
			Amount:    30,
			SplitType: "EXACT",
			SplitData: []Share{{UserID: bob.ID, Value: 10}},
		})
		assertCode(t, err, connect.CodeInvalidArgument)
		assertMessage(t, err, "Splits don't match total")

		_, err = aliceClient.RecordExpense(ctx, &RecordExpenseRequest{GroupID: groupID, Amount: -5, SplitType: "EQUAL"})
		assertCode(t, err, connect.CodeInvalidArgument)

		_, err = aliceClient.RecordExpense(ctx, &RecordExpenseRequest{GroupID: "missing", Amount: 5, SplitType: "EQUAL"})
		assertCode(t, err, connect.CodeNotFound)

		_, err = s.anon.RecordExpense(ctx, &RecordExpenseRequest{GroupID: groupID, Amount: 5, SplitType: "EQUAL"})
		assertCode(t, err, connect.CodeUnauthenticated)
	})

	recorded, err := aliceClient.RecordExpense(ctx, &RecordExpenseRequest{
		GroupID:     groupID,
		Amount:      30,
		Description: "Dinner",
		SplitType:   "EQUAL",
	})
	if err != nil {
		t.Fatalf("RecordExpense failed: %v", err)
	}
	if recorded.ExpenseID == "" {
		t.Fatal("expected an expense ID")
	}

	t.Run("history", func(t *testing.T) {
		resp, err := bobClient.GetExpenseHistory(ctx, &GetExpenseHistoryRequest{GroupID: groupID})
		if err != nil {
			t.Fatalf("GetExpenseHistory failed: %v", err)
		}
		if len(resp.Expenses) != 1 {
			t.Fatalf("expected 1 expense, got %d", len(resp.Expenses))
		}
		got := resp.Expenses[0]
		if got.PayerID != alice.ID || got.PayerName != "alice" || got.Description != "Dinner" || got.SplitType != "EQUAL" {
			t.Errorf("unexpected history entry: %+v", got)
		}
	})

	t.Run("group balances", func(t *testing.T) {
		resp, err := carolClient.GetGroupBalances(ctx, &GetGroupBalancesRequest{GroupID: groupID})
		if err != nil {
			t.Fatalf("GetGroupBalances failed: %v", err)
		}
		want := map[string]float64{alice.ID: 20, bob.ID: -10, carol.ID: -10}
		for id, amount := range want {
			if !approxEqual(resp.Balances[id], amount) {
				t.Errorf("balance of %s: expected %.2f, got %.2f", id, amount, resp.Balances[id])
			}
		}

		missing, err := carolClient.GetGroupBalances(ctx, &GetGroupBalancesRequest{GroupID: "missing"})
		if err != nil {
			t.Fatalf("GetGroupBalances on missing group failed: %v", err)
		}
		if len(missing.Balances) != 0 {
			t.Errorf("expected no balances for missing group, got %v", missing.Balances)
		}
	})

	t.Run("settlement view", func(t *testing.T) {
		resp, err := bobClient.GetGroupSettlementView(ctx, &GetGroupSettlementViewRequest{GroupID: groupID})
		if err != nil {
			t.Fatalf("GetGroupSettlementView failed: %v", err)
		}
		if len(resp.LocalSettlements) != 2 {
			t.Fatalf("expected 2 local transfers, got %+v", resp.LocalSettlements)
		}
		for _, tr := range resp.LocalSettlements {
			if tr.To != alice.ID || !approxEqual(tr.Amount, 10) {
				t.Errorf("unexpected transfer %+v", tr)
			}
		}
		if len(resp.GlobalSettlements) != 2 {
			t.Errorf("expected 2 global transfers, got %+v", resp.GlobalSettlements)
		}
	})

	t.Run("global balances", func(t *testing.T) {
		resp, err := aliceClient.GetGlobalBalances(ctx)
		if err != nil {
			t.Fatalf("GetGlobalBalances failed: %v", err)
		}
		if len(resp.Balances) != 2 {
			t.Fatalf("expected 2 friends, got %+v", resp.Balances)
		}
		if resp.Balances[0].FriendName != "bob" || resp.Balances[1].FriendName != "carol" {
			t.Errorf("expected friends sorted by name, got %+v", resp.Balances)
		}
		for _, fb := range resp.Balances {
			if !approxEqual(fb.Amount, 10) {
				t.Errorf("expected %s to owe 10, got %.2f", fb.FriendName, fb.Amount)
			}
		}
	})

	t.Run("unsettled group cannot be deleted", func(t *testing.T) {
		err := aliceClient.DeleteGroup(ctx, &DeleteGroupRequest{GroupID: groupID})
		assertCode(t, err, connect.CodeInvalidArgument)
		assertMessage(t, err, "Cannot delete group: Not all expenses are settled.")
	})

	t.Run("settle global debt", func(t *testing.T) {
		_, err := bobClient.SettleGlobalDebt(ctx, &SettleGlobalDebtRequest{FriendID: alice.ID, Amount: 0})
		assertCode(t, err, connect.CodeInvalidArgument)

		_, err = bobClient.SettleGlobalDebt(ctx, &SettleGlobalDebtRequest{FriendID: "missing", Amount: 10})
		assertCode(t, err, connect.CodeNotFound)

		for _, c := range []*Client{bobClient, carolClient} {
			resp, err := c.SettleGlobalDebt(ctx, &SettleGlobalDebtRequest{FriendID: alice.ID, Amount: 10})
			if err != nil {
				t.Fatalf("SettleGlobalDebt failed: %v", err)
			}
			if resp.GroupName != "Trip" {
				t.Errorf("expected settlement in Trip, got %q", resp.GroupName)
			}
		}

		balances, err := aliceClient.GetGroupBalances(ctx, &GetGroupBalancesRequest{GroupID: groupID})
		if err != nil {
			t.Fatalf("GetGroupBalances failed: %v", err)
		}
		for id, amount := range balances.Balances {
			if !approxEqual(amount, 0) {
				t.Errorf("expected %s settled, got %.2f", id, amount)
			}
		}

		if err := aliceClient.DeleteGroup(ctx, &DeleteGroupRequest{GroupID: groupID}); err != nil {
			t.Fatalf("DeleteGroup after settling failed: %v", err)
		}
	})
}
