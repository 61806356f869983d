// Package format holds the pure display mappings shared by every
// transaction view: monetary strings, direction fragments and status
// labels. Three views need identical semantics, so they live here and
// nowhere else.
package format

import (
	"github.com/shopspring/decimal"

	"github.com/securepay/gateway/internal/models"
)

const currencySymbol = "₹"

// Money renders a headline amount with two decimals.
func Money(d decimal.Decimal) string {
	return currencySymbol + d.StringFixed(2)
}

// FeeMoney renders an itemized fee with six decimals. The two precisions
// are deliberately distinct: headline vs itemized.
func FeeMoney(d decimal.Decimal) string {
	return currencySymbol + d.StringFixed(6)
}

// SignedAmount renders a ledger-row amount with debit/credit sign.
func SignedAmount(d decimal.Decimal, outgoing bool) string {
	if outgoing {
		return "- " + Money(d)
	}
	return "+ " + Money(d)
}

// Fee renders the fee cell; absent or zero fees show as unavailable.
func Fee(d decimal.Decimal) string {
	if d.IsZero() {
		return "N/A"
	}
	return FeeMoney(d)
}

// TimeLabel renders a row timestamp, or unavailable for zero times.
func TimeLabel(ts models.Timestamp) string {
	if ts.IsZero() {
		return "N/A"
	}
	return ts.Format("15:04:05")
}

// Status maps a settlement status onto its display label and severity
// tier. Anything the client does not recognize passes through verbatim.
func Status(status models.TransactionStatus) (label, severity string) {
	switch status {
	case models.StatusMined:
		return "confirmed", "success"
	case models.StatusPending:
		return "pending", "warning"
	default:
		return string(status), "neutral"
	}
}

// Direction renders the row's directional fragment. The dense form is used
// by the full ledger table; the long form by the condensed profile view.
func Direction(outgoing bool, counterparty string, dense bool) string {
	if dense {
		if outgoing {
			return "To: " + counterparty
		}
		return "From: " + counterparty
	}
	if outgoing {
		return "Sent to " + counterparty
	}
	return "Received from " + counterparty
}

// RiskSeverity maps a risk tier onto its escalating icon and tone.
func RiskSeverity(level models.RiskLevel) (icon, tone string) {
	switch level {
	case models.RiskHigh:
		return "🚨", "danger"
	case models.RiskMedium:
		return "⚠️", "warning"
	default:
		return "🛡️", "success"
	}
}
