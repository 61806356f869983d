package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// Users
// =============================================================================

// MiningPoolID is the sentinel counterparty id used by the ledger service for
// network-fee collection. It never appears in the user directory.
const MiningPoolID int64 = 0

// MiningPoolName is the fixed display name for the sentinel counterparty.
const MiningPoolName = "Mining Pool"

type User struct {
	ID      int64           `json:"id"`
	Name    string          `json:"name"`
	Email   string          `json:"email"`
	Balance decimal.Decimal `json:"balance"`
}

type CreateUserRequest struct {
	Name    string          `json:"name" binding:"required"`
	Email   string          `json:"email"`
	Balance decimal.Decimal `json:"balance"`
}

// =============================================================================
// Transactions
// =============================================================================

type TransactionStatus string

const (
	StatusPending TransactionStatus = "PENDING"
	StatusMined   TransactionStatus = "MINED"
)

// Timestamp accepts both RFC 3339 instants and zone-less ISO timestamps so
// the client keeps working whichever serializer the ledger service is using.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		parsed, err = time.Parse("2006-01-02T15:04:05", s)
		if err != nil {
			return err
		}
	}
	t.Time = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.Time.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Time.Format(time.RFC3339Nano) + `"`), nil
}

// Transaction is the ledger's record of a pending or settled transfer. The
// client treats it as immutable and only ever re-fetches the feed.
type Transaction struct {
	ID              int64             `json:"id"`
	Sender          *User             `json:"sender"`
	Receiver        *User             `json:"receiver"`
	Amount          decimal.Decimal   `json:"amount"`
	NetworkFee      decimal.Decimal   `json:"networkFee"`
	Status          TransactionStatus `json:"status"`
	TransactionHash string            `json:"transactionHash"`
	CreatedAt       Timestamp         `json:"createdAt"`
}

// SenderID returns the sender's id, or MiningPoolID when the sender is
// absent (fee-collection rows carry a nil sender).
func (t *Transaction) SenderID() int64 {
	if t.Sender == nil {
		return MiningPoolID
	}
	return t.Sender.ID
}

func (t *Transaction) ReceiverID() int64 {
	if t.Receiver == nil {
		return MiningPoolID
	}
	return t.Receiver.ID
}

// =============================================================================
// Transfer drafts and risk assessment
// =============================================================================

// TransferDraft is the client-held proposed transfer. It exists only for the
// duration of one confirmation cycle and is never persisted.
type TransferDraft struct {
	SenderID   int64           `json:"senderId"`
	ReceiverID int64           `json:"receiverId"`
	Amount     decimal.Decimal `json:"amount"`
	NetworkFee decimal.Decimal `json:"networkFee"`
}

// TotalDeduction is the full amount leaving the sender's balance.
func (d TransferDraft) TotalDeduction() decimal.Decimal {
	return d.Amount.Add(d.NetworkFee)
}

type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// RiskAssessment is the risk service's verdict on a draft. Degraded
// assessments (service unreachable or unparseable) are substituted with a
// conservative HIGH so the review step always has something to show.
type RiskAssessment struct {
	Risk     RiskLevel `json:"risk"`
	Summary  string    `json:"summary"`
	Degraded bool      `json:"degraded,omitempty"`
}

// =============================================================================
// Blockchain
// =============================================================================

type Block struct {
	BlockIndex   int           `json:"blockIndex"`
	PreviousHash string        `json:"previousHash"`
	Hash         string        `json:"hash"`
	Nonce        int64         `json:"nonce"`
	Transactions []Transaction `json:"transactions"`
	Timestamp    Timestamp     `json:"timestamp"`
}

// =============================================================================
// API responses
// =============================================================================

type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Details   string `json:"details,omitempty"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type TokenResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	User    *User  `json:"user,omitempty"`
}
