package format

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/securepay/gateway/internal/models"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestMoneyPrecision(t *testing.T) {
	if got := Money(dec("10")); got != "₹10.00" {
		t.Errorf("Money: got %q", got)
	}
	if got := Money(dec("10.016")); got != "₹10.02" {
		t.Errorf("Money rounding: got %q", got)
	}
	if got := FeeMoney(dec("0.01")); got != "₹0.010000" {
		t.Errorf("FeeMoney: got %q", got)
	}
}

func TestSignedAmount(t *testing.T) {
	if got := SignedAmount(dec("10"), true); got != "- ₹10.00" {
		t.Errorf("debit: got %q", got)
	}
	if got := SignedAmount(dec("10"), false); got != "+ ₹10.00" {
		t.Errorf("credit: got %q", got)
	}
}

func TestFee(t *testing.T) {
	if got := Fee(decimal.Zero); got != "N/A" {
		t.Errorf("zero fee: got %q", got)
	}
	if got := Fee(dec("0.000001")); got != "₹0.000001" {
		t.Errorf("tiny fee: got %q", got)
	}
}

func TestTimeLabel(t *testing.T) {
	if got := TimeLabel(models.Timestamp{}); got != "N/A" {
		t.Errorf("zero time: got %q", got)
	}
	ts := models.Timestamp{Time: time.Date(2025, 3, 1, 9, 5, 30, 0, time.UTC)}
	if got := TimeLabel(ts); got != "09:05:30" {
		t.Errorf("time: got %q", got)
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		status   models.TransactionStatus
		label    string
		severity string
	}{
		{models.StatusMined, "confirmed", "success"},
		{models.StatusPending, "pending", "warning"},
		{models.TransactionStatus("REVERSED"), "REVERSED", "neutral"},
	}
	for _, tt := range tests {
		label, severity := Status(tt.status)
		if label != tt.label || severity != tt.severity {
			t.Errorf("Status(%s): got (%q, %q) want (%q, %q)",
				tt.status, label, severity, tt.label, tt.severity)
		}
	}
}

func TestDirection(t *testing.T) {
	tests := []struct {
		outgoing bool
		dense    bool
		want     string
	}{
		{true, true, "To: Bob"},
		{false, true, "From: Bob"},
		{true, false, "Sent to Bob"},
		{false, false, "Received from Bob"},
	}
	for _, tt := range tests {
		if got := Direction(tt.outgoing, "Bob", tt.dense); got != tt.want {
			t.Errorf("Direction(%v, %v): got %q want %q", tt.outgoing, tt.dense, got, tt.want)
		}
	}
}

func TestRiskSeverity(t *testing.T) {
	tests := []struct {
		level models.RiskLevel
		icon  string
		tone  string
	}{
		{models.RiskHigh, "🚨", "danger"},
		{models.RiskMedium, "⚠️", "warning"},
		{models.RiskLow, "🛡️", "success"},
		{models.RiskLevel("UNKNOWN"), "🛡️", "success"},
	}
	for _, tt := range tests {
		icon, tone := RiskSeverity(tt.level)
		if icon != tt.icon || tone != tt.tone {
			t.Errorf("RiskSeverity(%s): got (%q, %q)", tt.level, icon, tone)
		}
	}
}
