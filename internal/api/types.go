// Package api implements the HTTP client for the remote advisor service:
// prediction runs, run history, paper trading, and auth.
package api

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TradeAction is a paper trade direction.
type TradeAction string

const (
	ActionBuy  TradeAction = "buy"
	ActionSell TradeAction = "sell"
)

// Timestamp decodes the service's mixed timestamp encodings: Unix
// milliseconds as a JSON number, RFC 3339 strings, and zone-less ISO 8601
// strings as emitted for stored datetimes.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var ms float64
	if err := json.Unmarshal(data, &ms); err == nil {
		t.Time = time.UnixMilli(int64(ms))
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: cannot unmarshal %s", string(data))
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognised format %q", s)
}

// MarshalJSON implements json.Marshaler, emitting RFC 3339.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// Recommendation is a discrete trading signal computed by the remote service.
type Recommendation struct {
	Action            string  `json:"action"`
	Reason            string  `json:"reason"`
	ExpectedChangePct float64 `json:"expected_change_pct"`
}

// ActionUpper returns the action uppercased, or "N/A" when absent.
func (r *Recommendation) ActionUpper() string {
	if r == nil || r.Action == "" {
		return "N/A"
	}
	return strings.ToUpper(r.Action)
}

// SentimentSummary holds sentiment fractions in [0,1]. The fractions are not
// required to sum to 1; each is rendered independently.
type SentimentSummary struct {
	Positive float64 `json:"positive"`
	Neutral  float64 `json:"neutral"`
	Negative float64 `json:"negative"`
}

// RecentSeries is the actual-close window returned alongside a forecast.
// Dates and Prices are index-aligned.
type RecentSeries struct {
	Dates  []string  `json:"dates"`
	Prices []float64 `json:"prices"`
}

// Valid reports whether the series is present, non-empty, and aligned.
func (r *RecentSeries) Valid() bool {
	return r != nil && len(r.Dates) > 0 && len(r.Prices) > 0 && len(r.Dates) == len(r.Prices)
}

// PredictionResult is one prediction run: forecast closes, the recent actual
// window, a recommendation, and a sentiment summary.
type PredictionResult struct {
	Symbol           string            `json:"symbol"`
	PredictedPrices  []float64         `json:"predictedPrices"`
	Recent           *RecentSeries     `json:"recent"`
	Recommendation   *Recommendation   `json:"recommendation"`
	SentimentSummary *SentimentSummary `json:"sentimentSummary"`
}

// HistoryRun is one persisted prediction run, read-only to the client.
// Ordering is whatever the server returns.
type HistoryRun struct {
	ID              string          `json:"id"`
	CreatedAt       Timestamp       `json:"createdAt"`
	PredictedPrices []float64       `json:"predictedPrices,omitempty"`
	Recommendation  *Recommendation `json:"recommendation,omitempty"`
}

// PortfolioState is the server-owned paper account snapshot. The client
// never derives these fields; they are displayed as reported.
type PortfolioState struct {
	Cash          float64 `json:"cash"`
	Quantity      float64 `json:"quantity"`
	LivePrice     float64 `json:"livePrice"`
	PositionValue float64 `json:"positionValue"`
	TotalEquity   float64 `json:"totalEquity"`
}

// TradeResult is the service's trade confirmation. Rejections come back as
// a 200 with Error set; the authoritative outcome is the portfolio refresh.
type TradeResult struct {
	Message string  `json:"message"`
	Price   float64 `json:"price"`
	Error   string  `json:"error"`
}

// Profile is the user blob returned by login.
type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Session is the authenticated session: an opaque bearer token plus the
// user profile. It is persisted locally and injected into the client so
// every request carries the credential.
type Session struct {
	Token string  `json:"token"`
	User  Profile `json:"user"`
}
