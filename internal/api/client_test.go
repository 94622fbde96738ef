package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchPrediction(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/predict" {
			t.Errorf("path = %q, want /api/predict", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"symbol": "NIFTY50",
			"predictedPrices": [100.5, 101.2, 102.0],
			"recent": {"dates": ["2025-08-28", "2025-08-29"], "prices": [99.0, 100.0]},
			"recommendation": {"action": "buy", "reason": "trend up", "expected_change_pct": 2.4},
			"sentimentSummary": {"positive": 0.532, "neutral": 0.3, "negative": 0.168}
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	c.SetSession(&Session{Token: "tok-123"})

	pred, err := c.FetchPrediction(context.Background())
	if err != nil {
		t.Fatalf("FetchPrediction returned error: %v", err)
	}

	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer tok-123")
	}
	if len(pred.PredictedPrices) != 3 {
		t.Fatalf("len(PredictedPrices) = %d, want 3", len(pred.PredictedPrices))
	}
	if !pred.Recent.Valid() {
		t.Error("Recent.Valid() = false, want true")
	}
	if pred.Recommendation.ActionUpper() != "BUY" {
		t.Errorf("ActionUpper() = %q, want %q", pred.Recommendation.ActionUpper(), "BUY")
	}
	if pred.SentimentSummary.Positive != 0.532 {
		t.Errorf("SentimentSummary.Positive = %v, want 0.532", pred.SentimentSummary.Positive)
	}
}

func TestFetchHistoryEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"history": []}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	runs, err := c.FetchHistory(context.Background())
	if err != nil {
		t.Fatalf("FetchHistory returned error: %v", err)
	}
	if runs == nil {
		t.Fatal("FetchHistory returned nil slice, want empty")
	}
	if len(runs) != 0 {
		t.Errorf("len(runs) = %d, want 0", len(runs))
	}
}

func TestFetchHistoryRuns(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// createdAt comes back as zone-less ISO 8601 from the service's store.
		w.Write([]byte(`{"history": [
			{"id": "a1", "createdAt": "2025-08-30T10:15:00.123000",
			 "recommendation": {"action": "hold", "reason": "flat", "expected_change_pct": 0.1}},
			{"id": "a2", "createdAt": "2025-08-29T09:00:00"}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	runs, err := c.FetchHistory(context.Background())
	if err != nil {
		t.Fatalf("FetchHistory returned error: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len(runs) = %d, want 2", len(runs))
	}
	if runs[0].ID != "a1" {
		t.Errorf("runs[0].ID = %q, want %q", runs[0].ID, "a1")
	}
	if runs[0].CreatedAt.Year() != 2025 || runs[0].CreatedAt.Hour() != 10 {
		t.Errorf("runs[0].CreatedAt = %v, want 2025-08-30 10:15", runs[0].CreatedAt)
	}
	if runs[0].Recommendation.ActionUpper() != "HOLD" {
		t.Errorf("ActionUpper() = %q, want HOLD", runs[0].Recommendation.ActionUpper())
	}
	// Second run has no recommendation at all.
	if runs[1].Recommendation.ActionUpper() != "N/A" {
		t.Errorf("ActionUpper() = %q, want N/A", runs[1].Recommendation.ActionUpper())
	}
}

func TestPlaceTrade(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if got := r.URL.Query().Get("action"); got != "buy" {
			t.Errorf("action = %q, want buy", got)
		}
		if got := r.URL.Query().Get("quantity"); got != "5" {
			t.Errorf("quantity = %q, want 5", got)
		}
		w.Write([]byte(`{"message": "Trade executed", "price": 24567.85}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	res, err := c.PlaceTrade(context.Background(), ActionBuy, 5)
	if err != nil {
		t.Fatalf("PlaceTrade returned error: %v", err)
	}
	if res.Price != 24567.85 {
		t.Errorf("Price = %v, want 24567.85", res.Price)
	}
}

func TestPlaceTradeRejectsNonPositiveQuantity(t *testing.T) {
	c := NewClient("http://localhost:1", "")
	if _, err := c.PlaceTrade(context.Background(), ActionSell, 0); err == nil {
		t.Fatal("PlaceTrade(0) returned nil error")
	}
}

func TestRemoteErrorDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail": "Incorrect password"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.Login(context.Background(), "a@b.c", "nope")
	if err == nil {
		t.Fatal("Login returned nil error")
	}
	var remote *RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("error %T, want *RemoteError", err)
	}
	if remote.Status != http.StatusBadRequest {
		t.Errorf("Status = %d, want 400", remote.Status)
	}
	if remote.Detail != "Incorrect password" {
		t.Errorf("Detail = %q, want server detail verbatim", remote.Detail)
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := NewClient(srv.URL, "")
	_, err := c.FetchPortfolio(context.Background())
	if err == nil {
		t.Fatal("FetchPortfolio returned nil error")
	}
	var network *NetworkError
	if !errors.As(err, &network) {
		t.Fatalf("error %T, want *NetworkError", err)
	}
}

func TestParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.FetchPrediction(context.Background())
	if err == nil {
		t.Fatal("FetchPrediction returned nil error")
	}
	var parse *ParseError
	if !errors.As(err, &parse) {
		t.Fatalf("error %T, want *ParseError", err)
	}
}

func TestAuthOriginSeparateFromAPIBase(t *testing.T) {
	authSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" {
			t.Errorf("path = %q, want /auth/login", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "user@example.com" {
			t.Errorf("email = %q, want user@example.com", body["email"])
		}
		w.Write([]byte(`{"message": "Login successful", "token": "t-9", "name": "User", "email": "user@example.com"}`))
	}))
	defer authSrv.Close()

	c := NewClient("http://unused.invalid", authSrv.URL)
	sess, err := c.Login(context.Background(), "user@example.com", "pw")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if sess.Token != "t-9" {
		t.Errorf("Token = %q, want t-9", sess.Token)
	}
	if sess.User.Name != "User" {
		t.Errorf("User.Name = %q, want User", sess.User.Name)
	}
}

func TestSignup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/signup" {
			t.Errorf("path = %q, want /auth/signup", r.URL.Path)
		}
		w.Write([]byte(`{"message": "User created successfully!"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	msg, err := c.Signup(context.Background(), "User", "user@example.com", "pw")
	if err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}
	if msg != "User created successfully!" {
		t.Errorf("message = %q, want server message", msg)
	}
}

func TestTimestampUnmarshal(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want time.Time
	}{
		{"unix millis", `1700000000000`, time.UnixMilli(1700000000000)},
		{"rfc3339", `"2025-08-30T10:15:00Z"`, time.Date(2025, 8, 30, 10, 15, 0, 0, time.UTC)},
		{"zoneless", `"2025-08-30T10:15:00"`, time.Date(2025, 8, 30, 10, 15, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		var ts Timestamp
		if err := json.Unmarshal([]byte(tc.in), &ts); err != nil {
			t.Errorf("%s: unmarshal error: %v", tc.name, err)
			continue
		}
		if !ts.Time.Equal(tc.want) {
			t.Errorf("%s: got %v, want %v", tc.name, ts.Time, tc.want)
		}
	}

	var ts Timestamp
	if err := json.Unmarshal([]byte(`"yesterday"`), &ts); err == nil {
		t.Error("unmarshal of junk string succeeded, want error")
	}
}
