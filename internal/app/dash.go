package app

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"niftydesk/internal/api"
	"niftydesk/internal/dashboard"
	"niftydesk/internal/live"
	"niftydesk/internal/session"
)

// chromeLines is the vertical space taken by the header and footer bars.
const chromeLines = 2

// dashModel holds the dashboard screen: forecast state, paper trading
// panel, live price readout, and the scrolling viewport they render into.
type dashModel struct {
	client *api.Client
	store  *session.Store
	log    *slog.Logger

	loading    bool
	errText    string
	prediction *api.PredictionResult
	history    []api.HistoryRun
	livePrice  *live.Sample
	portfolio  *api.PortfolioState
	tradeNote  string
	tradeErr   bool

	// Sequence stamps: only the newest in-flight request of each kind may
	// land. Anything older is discarded on arrival.
	predictSeq   int
	portfolioSeq int

	qty        textinput.Model
	spin       spinner.Model
	sub        *live.Subscriber
	feedCancel context.CancelFunc

	viewport viewport.Model
	ready    bool
}

func newDashModel(client *api.Client, store *session.Store, log *slog.Logger) dashModel {
	qty := textinput.New()
	qty.Placeholder = "1"
	qty.CharLimit = 6
	qty.Width = 6
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return dashModel{
		client: client,
		store:  store,
		log:    log,
		qty:    qty,
		spin:   sp,
	}
}

// enter is the initial work when the dashboard comes on screen: portfolio
// refresh and the cached history from the session store. The refresh takes
// the next portfolio sequence so its result applies like any other.
func (m dashModel) enter() (dashModel, []tea.Cmd) {
	m.portfolioSeq++
	cmds := []tea.Cmd{refreshPortfolioCmd(m.client, m.portfolioSeq)}
	if c := loadCachedRunsCmd(m.store, m.log); c != nil {
		cmds = append(cmds, c)
	}
	return m, cmds
}

func (m dashModel) resize(width, height int) (dashModel, tea.Cmd) {
	vh := height - chromeLines
	if vh < 1 {
		vh = 1
	}
	if !m.ready {
		m.viewport = viewport.New(width, vh)
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = vh
	}
	m.viewport.SetContent(m.content())
	return m, nil
}

func (m dashModel) update(msg tea.Msg) (dashModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case predictDoneMsg:
		if msg.seq != m.predictSeq {
			// A newer run superseded this one.
			return m, nil
		}
		m.loading = false
		if msg.prediction != nil {
			m.prediction = msg.prediction
		}
		if msg.history != nil {
			m.history = msg.history
		}
		if msg.err != nil {
			m.log.Warn("forecast request failed", "error", msg.err)
			m.errText = "Failed to fetch prediction from server."
		} else {
			m.errText = ""
		}
		return m.refreshContent(), nil

	case portfolioDoneMsg:
		if msg.seq != m.portfolioSeq {
			return m, nil
		}
		if msg.tradeNote != "" {
			m.tradeNote = msg.tradeNote
			m.tradeErr = msg.tradeErr
		}
		if msg.err != nil {
			m.log.Warn("portfolio refresh failed", "error", msg.err)
		} else {
			m.portfolio = msg.state
		}
		return m.refreshContent(), nil

	case cachedRunsMsg:
		// Startup fill only; a completed forecast run wins.
		if len(m.history) == 0 {
			m.history = msg.runs
		}
		return m.refreshContent(), nil

	case liveSampleMsg:
		if !msg.ok {
			// Channel closed, subscriber is done. Keep the last price on
			// screen; the status line reflects the terminal feed state.
			return m.refreshContent(), nil
		}
		s := msg.sample
		m.livePrice = &s
		if m.sub == nil {
			return m.refreshContent(), nil
		}
		return m.refreshContent(), waitForSampleCmd(m.sub)

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m.refreshContent(), cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m dashModel) handleKey(key tea.KeyMsg) (dashModel, tea.Cmd) {
	if m.qty.Focused() {
		switch key.String() {
		case "enter", "esc", "tab":
			m.qty.Blur()
			return m.refreshContent(), nil
		}
		var cmd tea.Cmd
		m.qty, cmd = m.qty.Update(key)
		return m.refreshContent(), cmd
	}

	switch key.String() {
	case "q":
		return m, func() tea.Msg { return quitMsg{} }
	case "p":
		return m.startPredict()
	case "b":
		return m.startTrade(api.ActionBuy)
	case "s":
		return m.startTrade(api.ActionSell)
	case "r":
		m.portfolioSeq++
		return m, resetCmd(m.client, m.log, m.portfolioSeq)
	case "tab":
		m.qty.Focus()
		return m.refreshContent(), textinput.Blink
	case "ctrl+l":
		return m, func() tea.Msg { return logoutMsg{} }
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(key)
	return m, cmd
}

func (m dashModel) startPredict() (dashModel, tea.Cmd) {
	m.predictSeq++
	m.loading = true
	m.errText = ""
	return m.refreshContent(), tea.Batch(
		predictCmd(m.client, m.store, m.log, m.predictSeq),
		m.spin.Tick,
	)
}

func (m dashModel) startTrade(action api.TradeAction) (dashModel, tea.Cmd) {
	qty, err := m.quantity()
	if err != nil {
		m.tradeNote = err.Error()
		m.tradeErr = true
		return m.refreshContent(), nil
	}
	m.portfolioSeq++
	return m, tradeCmd(m.client, m.log, action, qty, m.portfolioSeq)
}

// quantity parses the trade size input; an empty field means 1.
func (m dashModel) quantity() (int, error) {
	raw := strings.TrimSpace(m.qty.Value())
	if raw == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("quantity must be a positive whole number")
	}
	return n, nil
}

func (m dashModel) refreshContent() dashModel {
	if m.ready {
		m.viewport.SetContent(m.content())
	}
	return m
}

func (m dashModel) content() string {
	var sections []string

	sections = append(sections, dashboard.RenderLivePrice(m.livePrice, m.feedState()))
	sections = append(sections, m.tradingPanel())

	if m.loading {
		sections = append(sections, m.spin.View()+" Running model...")
	} else {
		if m.errText != "" {
			sections = append(sections, errorStyle.Render(m.errText))
		}
		if p := m.prediction; p != nil {
			sections = append(sections,
				dashboard.RenderPredictionTable(p.PredictedPrices),
				dashboard.RenderRecommendation(p.Recommendation),
				dashboard.RenderChart(p.Recent, p.PredictedPrices),
				dashboard.RenderSentiment(p.SentimentSummary),
			)
		} else if m.errText == "" {
			sections = append(sections, subtleStyle.Render("Press p to run the 7-day forecast."))
		}
	}

	sections = append(sections, dashboard.RenderHistory(m.history))
	return strings.Join(sections, "\n\n")
}

func (m dashModel) tradingPanel() string {
	var b strings.Builder
	b.WriteString(dashboard.RenderPortfolio(m.portfolio, m.livePrice))
	b.WriteString("\n\nQuantity: " + m.qty.View())
	if m.tradeNote != "" {
		style := successStyle
		if m.tradeErr {
			style = errorStyle
		}
		b.WriteString("\n" + style.Render(m.tradeNote))
	}
	return b.String()
}

func (m dashModel) feedState() live.State {
	if m.sub == nil {
		return live.StateConnecting
	}
	return m.sub.State()
}

func (m dashModel) view(width int, sess *api.Session) string {
	who := "not signed in"
	if sess != nil && sess.User.Email != "" {
		who = sess.User.Email
	}
	header := headerBarStyle.Width(max(width, 1)).Render(" NIFTY Advisor Dashboard · " + who)
	footer := footerBarStyle.Width(max(width, 1)).Render(
		" p: forecast · b: buy · s: sell · r: reset · tab: quantity · ctrl+l: sign out · q: quit")
	return lipgloss.JoinVertical(lipgloss.Left, header, m.viewport.View(), footer)
}
