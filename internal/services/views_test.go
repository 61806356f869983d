package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/securepay/gateway/internal/config"
	apperrors "github.com/securepay/gateway/internal/errors"
	"github.com/securepay/gateway/internal/ledger"
	"github.com/securepay/gateway/internal/models"
	"github.com/securepay/gateway/internal/session"
)

// fakeLedger is a canned remote ledger service, mutable between requests.
type fakeLedger struct {
	users     []models.User
	feed      []models.Transaction
	feedFail  bool
	balance   string
	balanceOK bool
	chain     string
}

func newFixture(t *testing.T) (*fakeLedger, *ViewService, *session.Store) {
	t.Helper()
	f := &fakeLedger{
		users: []models.User{
			{ID: 1, Name: "Alice", Email: "alice@x.io"},
			{ID: 2, Name: "Bob", Email: "bob@x.io"},
			{ID: 3, Name: "carol", Email: "carol@x.io"},
		},
		balance:   "1000.50",
		balanceOK: true,
		chain:     `[{"blockIndex":0}]`,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(f.users)
	})
	mux.HandleFunc("/users/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/balance") {
			if !f.balanceOK {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.Write([]byte(f.balance))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/transactions", func(w http.ResponseWriter, r *http.Request) {
		if f.feedFail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(f.feed)
	})
	mux.HandleFunc("/blockchain", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(f.chain))
	})
	mux.HandleFunc("/mine", func(w http.ResponseWriter, r *http.Request) {
		pending := false
		for _, tx := range f.feed {
			if tx.Status == models.StatusPending {
				pending = true
			}
		}
		if !pending {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		for i := range f.feed {
			f.feed[i].Status = models.StatusMined
		}
		w.Write([]byte(`{"blockIndex":2,"hash":"00cd"}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := ledger.NewClient(config.LedgerConfig{BaseURL: srv.URL, Timeout: 5 * time.Second})
	store := session.NewStore(client, config.SessionConfig{Secret: "test", TokenTTL: time.Hour})
	return f, NewViewService(client, store), store
}

func userRef(id int64, name string) *models.User {
	return &models.User{ID: id, Name: name}
}

func tx(id int64, sender, receiver *models.User, amount string, status models.TransactionStatus) models.Transaction {
	return models.Transaction{
		ID:       id,
		Sender:   sender,
		Receiver: receiver,
		Amount:   decimal.RequireFromString(amount),
		Status:   status,
	}
}

func TestDashboardAssemblesView(t *testing.T) {
	f, views, _ := newFixture(t)
	f.feed = []models.Transaction{
		tx(1, userRef(1, "Alice"), userRef(2, "Bob"), "10", models.StatusMined),
		tx(2, userRef(2, "Bob"), userRef(3, "carol"), "5", models.StatusPending),
	}

	view, err := views.Dashboard(context.Background(), 1)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if view.User.Name != "Alice" {
		t.Errorf("user: got %+v", view.User)
	}
	if view.Balance != "1000.50" {
		t.Errorf("balance: got %q", view.Balance)
	}
	if view.Ledger.State != LedgerOK || len(view.Ledger.Rows) != 1 {
		t.Errorf("ledger: got state %q with %d rows", view.Ledger.State, len(view.Ledger.Rows))
	}
	if view.Blockchain == nil {
		t.Error("chain view missing")
	}
}

func TestDashboardBalanceDegradesToNA(t *testing.T) {
	f, views, _ := newFixture(t)
	f.balanceOK = false

	view, err := views.Dashboard(context.Background(), 1)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if view.Balance != "N/A" {
		t.Errorf("balance: got %q", view.Balance)
	}
}

func TestDashboardFailedFeedIsExplicit(t *testing.T) {
	f, views, _ := newFixture(t)
	f.feedFail = true

	view, err := views.Dashboard(context.Background(), 1)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if view.Ledger.State != LedgerFailed {
		t.Errorf("state: got %q", view.Ledger.State)
	}
	if view.Ledger.Message != "Failed to load transactions." {
		t.Errorf("message: got %q", view.Ledger.Message)
	}
}

func TestDashboardRefreshFlagSingleUse(t *testing.T) {
	_, views, store := newFixture(t)
	store.MarkRefreshNeeded(1)

	view, err := views.Dashboard(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if !view.RefreshNeeded {
		t.Error("first load after settle should carry the refresh flag")
	}

	view, err = views.Dashboard(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if view.RefreshNeeded {
		t.Error("flag must clear after one load")
	}
}

func TestDashboardQuickPayContacts(t *testing.T) {
	f, views, _ := newFixture(t)
	for i := int64(4); i <= 15; i++ {
		f.users = append(f.users, models.User{ID: i, Name: "Extra"})
	}

	view, err := views.Dashboard(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(view.Contacts) != 8 {
		t.Fatalf("contacts: got %d, want cap of 8", len(view.Contacts))
	}
	for _, c := range view.Contacts {
		if c.ID == 1 {
			t.Error("active user must not appear in quick-pay strip")
		}
	}
	// lowercase roster names get an uppercase initial
	if view.Contacts[1].Name != "carol" || view.Contacts[1].Initial != "C" {
		t.Errorf("contact: got %+v", view.Contacts[1])
	}
}

func TestDashboardMissingUserForcesLogout(t *testing.T) {
	_, views, _ := newFixture(t)

	_, err := views.Dashboard(context.Background(), 99)
	if err == nil {
		t.Fatal("expected forced logout")
	}
	if apperrors.AsAppError(err).Code != apperrors.ErrCodeSessionGone {
		t.Errorf("code: got %s", apperrors.AsAppError(err).Code)
	}
}

func TestProfileCapsRows(t *testing.T) {
	f, views, _ := newFixture(t)
	for i := int64(1); i <= 15; i++ {
		f.feed = append(f.feed, tx(i, userRef(1, "Alice"), userRef(2, "Bob"), "1", models.StatusMined))
	}

	view, err := views.Profile(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(view.Ledger.Rows) != 10 {
		t.Errorf("rows: got %d, want profile cap of 10", len(view.Ledger.Rows))
	}
}

func TestProfileEmptyMessage(t *testing.T) {
	_, views, _ := newFixture(t)

	view, err := views.Profile(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if view.Ledger.State != LedgerEmpty || view.Ledger.Message != "No transactions recorded." {
		t.Errorf("ledger: got %+v", view.Ledger)
	}
}

func TestHistoryFiltersToCounterparty(t *testing.T) {
	f, views, _ := newFixture(t)
	f.feed = []models.Transaction{
		tx(1, userRef(1, "Alice"), userRef(2, "Bob"), "10", models.StatusMined),
		tx(2, userRef(2, "Bob"), userRef(1, "Alice"), "4", models.StatusMined),
		tx(3, userRef(1, "Alice"), userRef(3, "carol"), "7", models.StatusMined),
	}

	view, err := views.History(context.Background(), 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if view.CounterpartyName != "Bob" {
		t.Errorf("name: got %q", view.CounterpartyName)
	}
	if len(view.Ledger.Rows) != 2 {
		t.Fatalf("rows: got %d", len(view.Ledger.Rows))
	}
}

func TestHistoryEmptyMessageNamesCounterparty(t *testing.T) {
	_, views, _ := newFixture(t)

	view, err := views.History(context.Background(), 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if view.Ledger.Message != "No direct transaction history found with Bob." {
		t.Errorf("message: got %q", view.Ledger.Message)
	}
}

func TestHistoryWithMiningPool(t *testing.T) {
	f, views, _ := newFixture(t)
	f.feed = []models.Transaction{
		tx(1, nil, userRef(1, "Alice"), "50", models.StatusMined),
	}

	view, err := views.History(context.Background(), 1, models.MiningPoolID)
	if err != nil {
		t.Fatal(err)
	}
	if view.CounterpartyName != models.MiningPoolName {
		t.Errorf("name: got %q", view.CounterpartyName)
	}
	if len(view.Ledger.Rows) != 1 {
		t.Fatalf("rows: got %d", len(view.Ledger.Rows))
	}
}

func TestMineLifecycle(t *testing.T) {
	f, views, _ := newFixture(t)
	f.feed = []models.Transaction{
		tx(1, userRef(1, "Alice"), userRef(2, "Bob"), "10", models.StatusPending),
	}

	result, err := views.Mine(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !result.Mined || result.Block == nil {
		t.Fatalf("result: got %+v", result)
	}
	if result.Message != "Block 2 mined successfully! Transactions confirmed." {
		t.Errorf("message: got %q", result.Message)
	}

	// the pool is drained; a second mine is a no-op with a distinct message
	result, err = views.Mine(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.Mined || result.Block != nil {
		t.Fatalf("second mine: got %+v", result)
	}
	if result.Message != "No pending transactions to mine. Blockchain remains unchanged." {
		t.Errorf("message: got %q", result.Message)
	}
}
