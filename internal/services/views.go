// Package services assembles the display views the gateway serves:
// dashboard ledger, condensed profile ledger, per-counterparty history,
// and the admin mining/chain panels. The roster is always loaded before
// any reconciliation that depends on it; reconciliation itself never
// touches the network.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/securepay/gateway/internal/ledger"
	"github.com/securepay/gateway/internal/models"
	"github.com/securepay/gateway/internal/reconcile"
	"github.com/securepay/gateway/internal/session"
)

// Ledger view states. A failed feed fetch renders an explicit failure, not
// an empty table.
const (
	LedgerOK     = "ok"
	LedgerEmpty  = "empty"
	LedgerFailed = "failed"
)

type LedgerView struct {
	State   string          `json:"state"`
	Message string          `json:"message,omitempty"`
	Rows    []reconcile.Row `json:"rows"`
}

type Contact struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Initial string `json:"initial"`
}

type DashboardView struct {
	User          models.User     `json:"user"`
	Balance       string          `json:"balance"`
	RefreshNeeded bool            `json:"refreshNeeded"`
	Ledger        LedgerView      `json:"ledger"`
	Contacts      []Contact       `json:"contacts"`
	Blockchain    json.RawMessage `json:"blockchain,omitempty"`
}

type ProfileView struct {
	User    models.User `json:"user"`
	Balance string      `json:"balance"`
	Ledger  LedgerView  `json:"ledger"`
}

type HistoryView struct {
	CounterpartyID   int64      `json:"counterpartyId"`
	CounterpartyName string     `json:"counterpartyName"`
	Ledger           LedgerView `json:"ledger"`
}

type MineResult struct {
	Mined   bool          `json:"mined"`
	Block   *models.Block `json:"block,omitempty"`
	Message string        `json:"message"`
}

// quickPayLimit caps the dashboard contact strip.
const quickPayLimit = 8

type ViewService struct {
	ledger   *ledger.Client
	sessions *session.Store
}

func NewViewService(l *ledger.Client, s *session.Store) *ViewService {
	return &ViewService{ledger: l, sessions: s}
}

// Dashboard builds the full account dashboard. Balance and chain fetches
// degrade independently; only a missing session is fatal.
func (s *ViewService) Dashboard(ctx context.Context, userID int64) (*DashboardView, error) {
	user, err := s.sessions.VerifyActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := &DashboardView{
		User:          user,
		RefreshNeeded: s.sessions.ConsumeRefreshNeeded(userID),
		Contacts:      s.quickPayContacts(userID),
	}

	view.Balance = s.balanceLabel(ctx, userID)
	view.Ledger = s.userLedger(ctx, userID, reconcile.ViewFull)

	chain, chainErr := s.ledger.Blockchain(ctx)
	if chainErr != nil {
		log.Warn().Err(chainErr).Msg("Chain view unavailable for dashboard")
	} else {
		view.Blockchain = chain
	}

	return view, nil
}

// Profile builds the condensed account view (first ten rows).
func (s *ViewService) Profile(ctx context.Context, userID int64) (*ProfileView, error) {
	user, err := s.sessions.VerifyActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ProfileView{
		User:    user,
		Balance: s.balanceLabel(ctx, userID),
		Ledger:  s.userLedger(ctx, userID, reconcile.ViewProfile),
	}, nil
}

// History builds the direct history between the active user and one
// counterparty.
func (s *ViewService) History(ctx context.Context, userID, counterpartyID int64) (*HistoryView, error) {
	if _, err := s.sessions.VerifyActive(ctx, userID); err != nil {
		return nil, err
	}

	name := models.MiningPoolName
	if counterpartyID != models.MiningPoolID {
		if u, ok := s.sessions.FindUser(counterpartyID); ok {
			name = u.Name
		} else {
			name = fmt.Sprintf("ID %d", counterpartyID)
		}
	}

	view := &HistoryView{CounterpartyID: counterpartyID, CounterpartyName: name}

	feed, err := s.ledger.Transactions(ctx)
	if err != nil {
		view.Ledger = LedgerView{State: LedgerFailed, Message: "Failed to load history.", Rows: []reconcile.Row{}}
		return view, nil
	}

	rows := reconcile.History(feed, userID, counterpartyID, s.sessions)
	if len(rows) == 0 {
		view.Ledger = LedgerView{
			State:   LedgerEmpty,
			Message: fmt.Sprintf("No direct transaction history found with %s.", name),
			Rows:    []reconcile.Row{},
		}
		return view, nil
	}

	view.Ledger = LedgerView{State: LedgerOK, Rows: rows}
	return view, nil
}

// Mine triggers mining of pending transactions. The no-content "nothing to
// mine" reply is a stable observable state with no side effect on the feed.
func (s *ViewService) Mine(ctx context.Context) (*MineResult, error) {
	block, mined, err := s.ledger.Mine(ctx)
	if err != nil {
		return nil, err
	}
	if !mined {
		return &MineResult{
			Mined:   false,
			Message: "No pending transactions to mine. Blockchain remains unchanged.",
		}, nil
	}
	return &MineResult{
		Mined:   true,
		Block:   block,
		Message: fmt.Sprintf("Block %d mined successfully! Transactions confirmed.", block.BlockIndex),
	}, nil
}

func (s *ViewService) Blockchain(ctx context.Context) (json.RawMessage, error) {
	return s.ledger.Blockchain(ctx)
}

func (s *ViewService) userLedger(ctx context.Context, userID int64, view reconcile.View) LedgerView {
	feed, err := s.ledger.Transactions(ctx)
	if err != nil {
		return LedgerView{State: LedgerFailed, Message: "Failed to load transactions.", Rows: []reconcile.Row{}}
	}

	rows := reconcile.Reconcile(feed, userID, view, s.sessions)
	if len(rows) == 0 {
		message := "No transactions for this user yet."
		if view == reconcile.ViewProfile {
			message = "No transactions recorded."
		}
		return LedgerView{State: LedgerEmpty, Message: message, Rows: []reconcile.Row{}}
	}
	return LedgerView{State: LedgerOK, Rows: rows}
}

// balanceLabel degrades to N/A instead of failing the whole view.
func (s *ViewService) balanceLabel(ctx context.Context, userID int64) string {
	balance, err := s.ledger.Balance(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Int64("userId", userID).Msg("Balance unavailable")
		return "N/A"
	}
	return balance.StringFixed(2)
}

func (s *ViewService) quickPayContacts(userID int64) []Contact {
	contacts := []Contact{}
	for _, u := range s.sessions.Roster() {
		if u.ID == userID {
			continue
		}
		initial := "?"
		if u.Name != "" {
			initial = strings.ToUpper(string([]rune(u.Name)[0:1]))
		}
		contacts = append(contacts, Contact{ID: u.ID, Name: u.Name, Initial: initial})
		if len(contacts) == quickPayLimit {
			break
		}
	}
	return contacts
}
