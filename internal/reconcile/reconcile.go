// Package reconcile derives per-user, ordered, directional transaction
// views from the shared ledger feed. The full dashboard ledger, the
// condensed profile ledger and the per-counterparty history all run
// through the same pipeline so their semantics cannot drift apart.
package reconcile

import (
	"fmt"
	"sort"

	"github.com/securepay/gateway/internal/format"
	"github.com/securepay/gateway/internal/models"
)

type View int

const (
	// ViewFull is the unbounded dashboard ledger.
	ViewFull View = iota
	// ViewProfile is the condensed profile ledger, capped at ten rows.
	ViewProfile
	// ViewHistory is the unbounded per-counterparty history.
	ViewHistory
)

// profileRowCap is pure display truncation; the underlying feed is never
// trimmed.
const profileRowCap = 10

// Roster resolves counterparty ids to users. The session store satisfies
// it.
type Roster interface {
	FindUser(id int64) (models.User, bool)
}

// Row is one reconciled, display-ready ledger entry.
type Row struct {
	TxID             int64  `json:"txId"`
	Time             string `json:"time"`
	Detail           string `json:"detail"`
	Amount           string `json:"amount"`
	Fee              string `json:"fee"`
	Status           string `json:"status"`
	StatusSeverity   string `json:"statusSeverity"`
	Outgoing         bool   `json:"outgoing"`
	CounterpartyID   int64  `json:"counterpartyId"`
	CounterpartyName string `json:"counterpartyName"`
	TransactionHash  string `json:"transactionHash,omitempty"`
}

// Reconcile builds the per-user view of the feed for the given view
// density. Every returned row has the active user as sender or receiver,
// ordered by creation time descending with feed order breaking ties.
func Reconcile(feed []models.Transaction, activeID int64, view View, roster Roster) []Row {
	filtered := make([]models.Transaction, 0, len(feed))
	for _, tx := range feed {
		if tx.SenderID() == activeID || tx.ReceiverID() == activeID {
			filtered = append(filtered, tx)
		}
	}
	return build(filtered, activeID, view, roster)
}

// History narrows the view to transactions between the active user and one
// counterparty, in either direction.
func History(feed []models.Transaction, activeID, counterpartyID int64, roster Roster) []Row {
	filtered := make([]models.Transaction, 0, len(feed))
	for _, tx := range feed {
		sent := tx.SenderID() == activeID && tx.ReceiverID() == counterpartyID
		received := tx.SenderID() == counterpartyID && tx.ReceiverID() == activeID
		if sent || received {
			filtered = append(filtered, tx)
		}
	}
	return build(filtered, activeID, ViewHistory, roster)
}

func build(filtered []models.Transaction, activeID int64, view View, roster Roster) []Row {
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt.Time)
	})

	if view == ViewProfile && len(filtered) > profileRowCap {
		filtered = filtered[:profileRowCap]
	}

	rows := make([]Row, 0, len(filtered))
	for i := range filtered {
		rows = append(rows, toRow(&filtered[i], activeID, view, roster))
	}
	return rows
}

func toRow(tx *models.Transaction, activeID int64, view View, roster Roster) Row {
	outgoing := tx.SenderID() == activeID

	counterpartyID := tx.ReceiverID()
	if !outgoing {
		counterpartyID = tx.SenderID()
	}
	name := resolveCounterparty(counterpartyID, roster)

	statusLabel, severity := format.Status(tx.Status)

	return Row{
		TxID:             tx.ID,
		Time:             format.TimeLabel(tx.CreatedAt),
		Detail:           format.Direction(outgoing, name, view != ViewProfile),
		Amount:           format.SignedAmount(tx.Amount, outgoing),
		Fee:              format.Fee(tx.NetworkFee),
		Status:           statusLabel,
		StatusSeverity:   severity,
		Outgoing:         outgoing,
		CounterpartyID:   counterpartyID,
		CounterpartyName: name,
		TransactionHash:  tx.TransactionHash,
	}
}

// resolveCounterparty never fails the render: the mining-pool sentinel gets
// its fixed label and any roster miss degrades to a synthetic id label.
func resolveCounterparty(id int64, roster Roster) string {
	if user, ok := roster.FindUser(id); ok {
		return user.Name
	}
	if id == models.MiningPoolID {
		return models.MiningPoolName
	}
	return fmt.Sprintf("ID %d", id)
}
