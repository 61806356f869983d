// Package market interprets the market-data passthrough payloads. The
// upstream replies are raw text and only best-effort JSON, so every parse
// here goes through the loose-decode fallback and degrades to a visible
// error message instead of failing.
package market

import (
	"sort"
	"strconv"
	"strings"

	apperrors "github.com/securepay/gateway/internal/errors"
	"github.com/securepay/gateway/internal/ledger"
)

// Quote is a price lookup result. When the upstream answered with an error
// string instead of a number, Available is false and Message carries the
// text verbatim.
type Quote struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price,omitempty"`
	Available bool    `json:"available"`
	Message   string  `json:"message,omitempty"`
}

// ParseQuote interprets the raw price text: a number or an error string.
func ParseQuote(symbol, raw string) Quote {
	raw = strings.TrimSpace(raw)
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Quote{Symbol: symbol, Available: false, Message: raw}
	}
	return Quote{Symbol: symbol, Price: price, Available: true}
}

// Match is one symbol-search hit.
type Match struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Region   string `json:"region"`
	Currency string `json:"currency"`
}

type searchPayload struct {
	BestMatches []map[string]string `json:"bestMatches"`
	Error       string              `json:"error"`
	ErrMessage  string              `json:"Error Message"`
}

// ParseSearch interprets the raw search text into matches, surfacing
// upstream error fields as an AppError.
func ParseSearch(raw string) ([]Match, error) {
	var payload searchPayload
	if !ledger.DecodeLoose(raw, &payload) {
		return nil, apperrors.New(apperrors.ErrCodeDecodeFailed,
			"symbol search returned an unreadable payload", nil).WithDetails(raw)
	}
	if payload.Error != "" || payload.ErrMessage != "" {
		msg := payload.Error
		if msg == "" {
			msg = payload.ErrMessage
		}
		return nil, apperrors.New(apperrors.ErrCodeUpstreamStatus, msg, nil)
	}

	matches := make([]Match, 0, len(payload.BestMatches))
	for _, m := range payload.BestMatches {
		matches = append(matches, Match{
			Symbol:   m["1. symbol"],
			Name:     m["2. name"],
			Type:     m["3. type"],
			Region:   m["4. region"],
			Currency: m["8. currency"],
		})
	}
	return matches, nil
}

// Point is one entry of the labeled time series handed to the charting
// sink: date label and adjusted closing price.
type Point struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

type seriesPayload struct {
	Daily      map[string]map[string]string `json:"Time Series (Daily Adjusted)"`
	ErrMessage string                       `json:"Error Message"`
	Note       string                       `json:"Note"`
}

// ParseSeries reduces the raw daily series into a chronological labeled
// series (dates ascending), which is exactly the shape the chart consumes.
func ParseSeries(raw string) ([]Point, error) {
	var payload seriesPayload
	if !ledger.DecodeLoose(raw, &payload) {
		return nil, apperrors.New(apperrors.ErrCodeDecodeFailed,
			"time series returned an unreadable payload", nil).WithDetails(raw)
	}
	if payload.ErrMessage != "" || payload.Note != "" {
		msg := payload.ErrMessage
		if msg == "" {
			msg = payload.Note
		}
		return nil, apperrors.New(apperrors.ErrCodeUpstreamStatus, msg, nil)
	}
	if len(payload.Daily) == 0 {
		return nil, apperrors.NewNotFoundError("daily series data")
	}

	dates := make([]string, 0, len(payload.Daily))
	for date := range payload.Daily {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	points := make([]Point, 0, len(dates))
	for _, date := range dates {
		closePrice, _ := strconv.ParseFloat(payload.Daily[date]["5. adjusted close"], 64)
		points = append(points, Point{Date: date, Close: closePrice})
	}
	return points, nil
}
