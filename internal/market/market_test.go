package market

import (
	"testing"

	apperrors "github.com/securepay/gateway/internal/errors"
)

func TestParseQuote(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		available bool
		price     float64
		message   string
	}{
		{name: "plain number", raw: "184.37", available: true, price: 184.37},
		{name: "padded number", raw: " 184.37\n", available: true, price: 184.37},
		{name: "upstream error text", raw: "Could not fetch price for symbol: XYZ", message: "Could not fetch price for symbol: XYZ"},
		{name: "empty body", raw: "", message: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := ParseQuote("IBM", tt.raw)
			if q.Available != tt.available {
				t.Fatalf("available: got %v", q.Available)
			}
			if tt.available && q.Price != tt.price {
				t.Errorf("price: got %v want %v", q.Price, tt.price)
			}
			if !tt.available && q.Message != tt.message {
				t.Errorf("message: got %q want %q", q.Message, tt.message)
			}
			if q.Symbol != "IBM" {
				t.Errorf("symbol: got %q", q.Symbol)
			}
		})
	}
}

func TestParseSearchMatches(t *testing.T) {
	raw := `{"bestMatches":[
		{"1. symbol":"IBM","2. name":"International Business Machines","3. type":"Equity","4. region":"United States","8. currency":"USD"},
		{"1. symbol":"IBML","2. name":"iShares iBonds","3. type":"ETF","4. region":"United States","8. currency":"USD"}
	]}`

	matches, err := ParseSearch(raw)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("matches: got %d", len(matches))
	}
	if matches[0].Symbol != "IBM" || matches[0].Name != "International Business Machines" {
		t.Errorf("first match: got %+v", matches[0])
	}
	if matches[1].Type != "ETF" || matches[1].Currency != "USD" {
		t.Errorf("second match: got %+v", matches[1])
	}
}

func TestParseSearchEmptyMatches(t *testing.T) {
	matches, err := ParseSearch(`{"bestMatches":[]}`)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("matches: got %d", len(matches))
	}
}

func TestParseSearchUpstreamErrorFields(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "lowercase error field", raw: `{"error":"keyword required"}`, want: "keyword required"},
		{name: "alphavantage error field", raw: `{"Error Message":"Invalid API call."}`, want: "Invalid API call."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSearch(tt.raw)
			if err == nil {
				t.Fatal("expected error")
			}
			appErr := apperrors.AsAppError(err)
			if appErr.Code != apperrors.ErrCodeUpstreamStatus || appErr.Message != tt.want {
				t.Errorf("got (%s, %q)", appErr.Code, appErr.Message)
			}
		})
	}
}

func TestParseSearchUnreadablePayload(t *testing.T) {
	_, err := ParseSearch("<html>service down</html>")
	if err == nil {
		t.Fatal("expected error")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.ErrCodeDecodeFailed {
		t.Errorf("code: got %s", appErr.Code)
	}
	if appErr.Details != "<html>service down</html>" {
		t.Errorf("details: got %q", appErr.Details)
	}
}

func TestParseSeriesChronological(t *testing.T) {
	raw := `{"Time Series (Daily Adjusted)":{
		"2025-03-03":{"5. adjusted close":"186.20"},
		"2025-03-01":{"5. adjusted close":"184.00"},
		"2025-03-02":{"5. adjusted close":"185.10"}
	}}`

	points, err := ParseSeries(raw)
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("points: got %d", len(points))
	}
	wantDates := []string{"2025-03-01", "2025-03-02", "2025-03-03"}
	wantCloses := []float64{184.00, 185.10, 186.20}
	for i, p := range points {
		if p.Date != wantDates[i] || p.Close != wantCloses[i] {
			t.Errorf("point %d: got %+v", i, p)
		}
	}
}

func TestParseSeriesRateLimitNote(t *testing.T) {
	_, err := ParseSeries(`{"Note":"API call frequency exceeded"}`)
	if err == nil {
		t.Fatal("expected error")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.ErrCodeUpstreamStatus || appErr.Message != "API call frequency exceeded" {
		t.Errorf("got (%s, %q)", appErr.Code, appErr.Message)
	}
}

func TestParseSeriesMissingData(t *testing.T) {
	_, err := ParseSeries(`{}`)
	if err == nil {
		t.Fatal("expected error")
	}
	if apperrors.AsAppError(err).Code != apperrors.ErrCodeNotFound {
		t.Errorf("code: got %s", apperrors.AsAppError(err).Code)
	}
}
