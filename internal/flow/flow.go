// Package flow drives the risk-scored confirmation of a proposed
// transfer: validate the draft, obtain an asynchronous risk assessment,
// render it for review, and submit only on explicit confirmation. The
// state machine is authoritative; handlers only relay its transitions.
package flow

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	apperrors "github.com/securepay/gateway/internal/errors"
	"github.com/securepay/gateway/internal/format"
	"github.com/securepay/gateway/internal/ledger"
	"github.com/securepay/gateway/internal/models"
)

type State int

const (
	StateIdle State = iota
	StateValidating
	StateAwaitingAssessment
	StateReviewing
	StateSubmitting
	StateSettled
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateValidating:
		return "VALIDATING"
	case StateAwaitingAssessment:
		return "AWAITING_ASSESSMENT"
	case StateReviewing:
		return "REVIEWING"
	case StateSubmitting:
		return "SUBMITTING"
	case StateSettled:
		return "SETTLED"
	case StateAborted:
		return "ABORTED"
	default:
		return "UNKNOWN"
	}
}

// degradedSummary is shown when the risk service is unreachable or its
// reply cannot be interpreted at all.
const degradedSummary = "AI analysis failed to process."

// Ledger is the slice of the transport client the flow needs.
type Ledger interface {
	AnalyzeTransaction(ctx context.Context, draft *models.TransferDraft) (string, error)
	CreateTransaction(ctx context.Context, draft *models.TransferDraft) (*models.Transaction, error)
}

// Sessions receives the stale-balance mark after a settled submission.
type Sessions interface {
	MarkRefreshNeeded(userID int64)
}

// Review is what the confirmation surface shows while the flow waits for
// the user's explicit decision.
type Review struct {
	Assessment models.RiskAssessment `json:"assessment"`
	RiskIcon   string                `json:"riskIcon"`
	RiskTone   string                `json:"riskTone"`
	SenderID   int64                 `json:"senderId"`
	ReceiverID int64                 `json:"receiverId"`
	Amount     string                `json:"amount"`
	NetworkFee string                `json:"networkFee"`
	// Total is amount plus fee, itemized at fee precision.
	Total string `json:"totalDeduction"`
}

// Receipt reports the settlement outcome of a confirmed submission.
type Receipt struct {
	Transaction *models.Transaction `json:"transaction"`
	Status      string              `json:"status"`
	Message     string              `json:"message"`
}

// session is one user's confirmation flow. The surface is a singleton per
// session, so a mutex is enough to keep flows from interleaving.
type session struct {
	mu     sync.Mutex
	state  State
	draft  *models.TransferDraft
	review *Review
}

// Manager owns one confirmation flow per active user.
type Manager struct {
	ledger   Ledger
	sessions Sessions

	mu    sync.Mutex
	flows map[int64]*session
}

func NewManager(l Ledger, s Sessions) *Manager {
	return &Manager{
		ledger:   l,
		sessions: s,
		flows:    make(map[int64]*session),
	}
}

func (m *Manager) flowFor(userID int64) *session {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.flows[userID]
	if !ok {
		f = &session{state: StateIdle}
		m.flows[userID] = f
	}
	return f
}

// StateOf reports the current flow state for a user.
func (m *Manager) StateOf(userID int64) State {
	f := m.flowFor(userID)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Start validates the draft and obtains the risk assessment, leaving the
// flow in Reviewing with a displayable review. The draft is never carried
// forward past a validation failure, and the flow never reaches Reviewing
// without some assessment to show: a degraded call substitutes a
// conservative HIGH fallback.
func (m *Manager) Start(ctx context.Context, userID int64, draft *models.TransferDraft) (*Review, error) {
	f := m.flowFor(userID)
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state {
	case StateIdle, StateSettled, StateAborted:
		// terminal states fold back into a fresh cycle
	default:
		return nil, apperrors.New(apperrors.ErrCodeFlowState,
			fmt.Sprintf("a payment is already in progress (%s)", f.state), nil)
	}

	f.state = StateValidating
	draft.SenderID = userID
	if err := validate(draft); err != nil {
		f.state = StateIdle
		f.draft = nil
		return nil, err
	}

	f.state = StateAwaitingAssessment
	f.draft = draft

	assessment := m.assess(ctx, draft)
	icon, tone := format.RiskSeverity(assessment.Risk)

	f.review = &Review{
		Assessment: assessment,
		RiskIcon:   icon,
		RiskTone:   tone,
		SenderID:   draft.SenderID,
		ReceiverID: draft.ReceiverID,
		Amount:     format.Money(draft.Amount),
		NetworkFee: format.FeeMoney(draft.NetworkFee),
		Total:      format.FeeMoney(draft.TotalDeduction()),
	}
	f.state = StateReviewing

	log.Info().
		Int64("senderId", draft.SenderID).
		Int64("receiverId", draft.ReceiverID).
		Str("risk", string(assessment.Risk)).
		Bool("degraded", assessment.Degraded).
		Msg("Draft under review")

	return f.review, nil
}

// Confirm submits the reviewed draft. Only an explicit confirmation gets
// here; risk tier alone never blocks or triggers a submission.
func (m *Manager) Confirm(ctx context.Context, userID int64) (*Receipt, error) {
	f := m.flowFor(userID)
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateReviewing {
		return nil, apperrors.New(apperrors.ErrCodeFlowState,
			fmt.Sprintf("nothing to confirm (%s)", f.state), nil)
	}

	f.state = StateSubmitting
	tx, err := m.ledger.CreateTransaction(ctx, f.draft)
	if err != nil {
		// The draft is discarded; retry is a fresh user action from Idle.
		f.state = StateAborted
		f.draft = nil
		f.review = nil
		return nil, err
	}

	m.sessions.MarkRefreshNeeded(userID)
	f.state = StateSettled
	f.draft = nil
	f.review = nil

	statusLabel, _ := format.Status(tx.Status)
	return &Receipt{
		Transaction: tx,
		Status:      statusLabel,
		Message:     fmt.Sprintf("Payment initiated successfully! Status: %s. Your balance has been debited.", tx.Status),
	}, nil
}

// Cancel abandons the flow at the review step. It never leaves a partial
// draft behind, and cancelling an idle flow is a no-op.
func (m *Manager) Cancel(userID int64) error {
	f := m.flowFor(userID)
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state {
	case StateReviewing, StateSettled, StateAborted:
		f.state = StateIdle
		f.draft = nil
		f.review = nil
		return nil
	case StateIdle:
		return nil
	default:
		return apperrors.New(apperrors.ErrCodeFlowState,
			fmt.Sprintf("cannot cancel while %s", f.state), nil)
	}
}

// assess runs the risk call and always comes back with something to show.
func (m *Manager) assess(ctx context.Context, draft *models.TransferDraft) models.RiskAssessment {
	fallback := models.RiskAssessment{
		Risk:     models.RiskHigh,
		Summary:  degradedSummary,
		Degraded: true,
	}

	raw, err := m.ledger.AnalyzeTransaction(ctx, draft)
	if err != nil {
		log.Warn().Err(err).Msg("Risk assessment degraded, substituting HIGH fallback")
		return fallback
	}

	var parsed models.RiskAssessment
	if ledger.DecodeLoose(raw, &parsed) && parsed.Risk != "" {
		parsed.Degraded = false
		return parsed
	}

	// Unparseable but present: keep the raw text as the summary so the
	// user sees what the service actually said.
	fallback.Summary = raw
	log.Warn().Str("raw", raw).Msg("Risk assessment unparseable, treating as raw summary")
	return fallback
}

func validate(draft *models.TransferDraft) error {
	if draft.ReceiverID < 1 || draft.Amount.LessThanOrEqual(decimal.Zero) || draft.NetworkFee.IsNegative() {
		return apperrors.NewValidationError("Please enter valid amounts and Recipient ID.")
	}
	if draft.ReceiverID == draft.SenderID {
		return apperrors.New(apperrors.ErrCodeSelfPayment,
			"Cannot send payment to your own ID.", nil)
	}
	return nil
}
