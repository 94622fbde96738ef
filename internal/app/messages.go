package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"niftydesk/internal/api"
	"niftydesk/internal/live"
	"niftydesk/internal/session"
)

// signupRedirectDelay is how long the signup success message stays on
// screen before the app navigates back to the login page.
const signupRedirectDelay = 1500 * time.Millisecond

// predictDoneMsg carries the result of a forecast run plus the refreshed
// history. seq ties the message to the request that produced it so stale
// results from superseded runs can be discarded.
type predictDoneMsg struct {
	seq        int
	prediction *api.PredictionResult
	history    []api.HistoryRun
	err        error
}

// portfolioDoneMsg carries the refreshed portfolio after a trade, a reset,
// or a plain refresh. tradeNote is the per-trade status line, empty when the
// refresh was not triggered by a trade.
type portfolioDoneMsg struct {
	seq       int
	state     *api.PortfolioState
	tradeNote string
	tradeErr  bool
	err       error
}

// liveSampleMsg delivers one price sample from the subscriber. ok is false
// once the subscriber has shut down and no further samples will arrive.
type liveSampleMsg struct {
	sample live.Sample
	ok     bool
}

type cachedRunsMsg struct {
	runs []api.HistoryRun
}

type loginDoneMsg struct {
	session *api.Session
	err     error
}

type signupDoneMsg struct {
	message string
	err     error
}

type gotoLoginMsg struct{}
type gotoSignupMsg struct{}
type logoutMsg struct{}
type quitMsg struct{}

func predictCmd(c *api.Client, store *session.Store, log *slog.Logger, seq int) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		pred, err := c.FetchPrediction(ctx)
		if err != nil {
			return predictDoneMsg{seq: seq, err: err}
		}
		hist, err := c.FetchHistory(ctx)
		if err != nil {
			// The forecast already succeeded; keep it visible alongside
			// the error.
			return predictDoneMsg{seq: seq, prediction: pred, err: err}
		}
		if store != nil {
			if err := store.SaveRuns(ctx, hist); err != nil {
				log.Warn("caching forecast history", "error", err)
			}
		}
		return predictDoneMsg{seq: seq, prediction: pred, history: hist}
	}
}

// tradeCmd places an order and then refreshes the portfolio regardless of
// the order outcome; the refreshed state is the authoritative result.
func tradeCmd(c *api.Client, log *slog.Logger, action api.TradeAction, quantity, seq int) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		note := ""
		isErr := false
		res, err := c.PlaceTrade(ctx, action, quantity)
		switch {
		case err != nil:
			log.Warn("trade request failed", "action", action, "error", err)
			note = "Trade failed, see portfolio for current state."
			isErr = true
		case res.Error != "":
			note = res.Error
			isErr = true
		default:
			note = res.Message
		}
		state, perr := c.FetchPortfolio(ctx)
		return portfolioDoneMsg{seq: seq, state: state, tradeNote: note, tradeErr: isErr, err: perr}
	}
}

func resetCmd(c *api.Client, log *slog.Logger, seq int) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if _, err := c.InitPaperAccount(ctx); err != nil {
			log.Warn("account reset failed", "error", err)
		}
		state, err := c.FetchPortfolio(ctx)
		return portfolioDoneMsg{seq: seq, state: state, tradeNote: "Paper account reset.", err: err}
	}
}

func refreshPortfolioCmd(c *api.Client, seq int) tea.Cmd {
	return func() tea.Msg {
		state, err := c.FetchPortfolio(context.Background())
		return portfolioDoneMsg{seq: seq, state: state, err: err}
	}
}

func loadCachedRunsCmd(store *session.Store, log *slog.Logger) tea.Cmd {
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		runs, err := store.LoadRuns(context.Background())
		if err != nil {
			log.Warn("loading cached history", "error", err)
			return nil
		}
		return cachedRunsMsg{runs: runs}
	}
}

// waitForSampleCmd blocks on the subscriber's sample channel; the shell
// re-issues it after every delivery so the feed keeps flowing.
func waitForSampleCmd(sub *live.Subscriber) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-sub.Samples()
		return liveSampleMsg{sample: s, ok: ok}
	}
}

func loginCmd(c *api.Client, store *session.Store, log *slog.Logger, email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		sess, err := c.Login(ctx, email, password)
		if err != nil {
			return loginDoneMsg{err: err}
		}
		c.SetSession(sess)
		if store != nil {
			if err := store.SaveSession(ctx, sess); err != nil {
				log.Warn("persisting session", "error", err)
			}
		}
		return loginDoneMsg{session: sess}
	}
}

func signupCmd(c *api.Client, name, email, password string) tea.Cmd {
	return func() tea.Msg {
		msg, err := c.Signup(context.Background(), name, email, password)
		return signupDoneMsg{message: msg, err: err}
	}
}

func signupRedirectCmd() tea.Cmd {
	return tea.Tick(signupRedirectDelay, func(time.Time) tea.Msg {
		return gotoLoginMsg{}
	})
}

// authErrorText maps a request error to what the user sees. Remote
// rejections surface their detail verbatim so "Incorrect password" and
// "Email already registered" read as the server sent them; everything else
// collapses to a generic line.
func authErrorText(err error) string {
	var remote *api.RemoteError
	if errors.As(err, &remote) && remote.Detail != "" {
		return remote.Detail
	}
	return "Something went wrong"
}
