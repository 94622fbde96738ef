package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"niftydesk/internal/api"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sess, err := s.LoadSession(ctx)
	if err != nil {
		t.Fatalf("LoadSession returned error: %v", err)
	}
	if sess != nil {
		t.Fatalf("LoadSession on fresh store = %+v, want nil", sess)
	}

	want := &api.Session{
		Token: "tok-abc",
		User:  api.Profile{Name: "User", Email: "user@example.com"},
	}
	if err := s.SaveSession(ctx, want); err != nil {
		t.Fatalf("SaveSession returned error: %v", err)
	}

	got, err := s.LoadSession(ctx)
	if err != nil {
		t.Fatalf("LoadSession returned error: %v", err)
	}
	if got == nil || got.Token != want.Token || got.User != want.User {
		t.Errorf("LoadSession = %+v, want %+v", got, want)
	}
}

func TestSessionOverwriteAndClear(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SaveSession(ctx, &api.Session{Token: "first"}); err != nil {
		t.Fatalf("SaveSession returned error: %v", err)
	}
	if err := s.SaveSession(ctx, &api.Session{Token: "second"}); err != nil {
		t.Fatalf("SaveSession returned error: %v", err)
	}

	got, err := s.LoadSession(ctx)
	if err != nil {
		t.Fatalf("LoadSession returned error: %v", err)
	}
	if got.Token != "second" {
		t.Errorf("Token = %q, want %q", got.Token, "second")
	}

	if err := s.ClearSession(ctx); err != nil {
		t.Fatalf("ClearSession returned error: %v", err)
	}
	got, err = s.LoadSession(ctx)
	if err != nil {
		t.Fatalf("LoadSession returned error: %v", err)
	}
	if got != nil {
		t.Errorf("LoadSession after clear = %+v, want nil", got)
	}
}

func TestRunsCachePreservesOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	runs, err := s.LoadRuns(ctx)
	if err != nil {
		t.Fatalf("LoadRuns returned error: %v", err)
	}
	if runs == nil || len(runs) != 0 {
		t.Fatalf("LoadRuns on fresh store = %v, want empty slice", runs)
	}

	at := api.Timestamp{Time: time.Date(2025, 8, 30, 10, 0, 0, 0, time.UTC)}
	want := []api.HistoryRun{
		{ID: "newest", CreatedAt: at, Recommendation: &api.Recommendation{Action: "buy"}},
		{ID: "older", CreatedAt: at},
	}
	if err := s.SaveRuns(ctx, want); err != nil {
		t.Fatalf("SaveRuns returned error: %v", err)
	}

	got, err := s.LoadRuns(ctx)
	if err != nil {
		t.Fatalf("LoadRuns returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(runs) = %d, want 2", len(got))
	}
	// Server order preserved, not re-sorted.
	if got[0].ID != "newest" || got[1].ID != "older" {
		t.Errorf("order = [%s %s], want [newest older]", got[0].ID, got[1].ID)
	}
	if got[0].Recommendation.ActionUpper() != "BUY" {
		t.Errorf("ActionUpper = %q, want BUY", got[0].Recommendation.ActionUpper())
	}

	// SaveRuns replaces wholesale.
	if err := s.SaveRuns(ctx, want[:1]); err != nil {
		t.Fatalf("SaveRuns returned error: %v", err)
	}
	got, err = s.LoadRuns(ctx)
	if err != nil {
		t.Fatalf("LoadRuns returned error: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("len(runs) after replace = %d, want 1", len(got))
	}
}
