package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"niftydesk/internal/api"
	"niftydesk/internal/live"
)

// Styles.
var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	buyStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	sellStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	holdStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	positiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	neutralStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	negativeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	priceStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
)

func actionStyle(action string) lipgloss.Style {
	switch strings.ToUpper(action) {
	case "BUY":
		return buyStyle
	case "SELL":
		return sellStyle
	case "HOLD":
		return holdStyle
	default:
		return dimStyle
	}
}

// RenderPredictionTable renders the forecast closes, one row per day.
func RenderPredictionTable(prices []float64) string {
	if len(prices) == 0 {
		return dimStyle.Render("No forecast yet.")
	}
	var b strings.Builder
	b.WriteString(dimStyle.Render(fmt.Sprintf("%-8s %15s", "Day", "Predicted Close")))
	b.WriteString("\n")
	for i, p := range prices {
		b.WriteString(fmt.Sprintf("Day %-4d %15s\n", i+1, FormatRupee(p)))
	}
	return b.String()
}

// RenderRecommendation renders the recommendation card.
func RenderRecommendation(rec *api.Recommendation) string {
	if rec == nil {
		return dimStyle.Render("No recommendation yet.")
	}
	var b strings.Builder
	b.WriteString(actionStyle(rec.Action).Render(rec.ActionUpper()))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Expected price change (7 days): %s\n", FormatSignedPct(rec.ExpectedChangePct)))
	if rec.Reason != "" {
		b.WriteString(rec.Reason)
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render("Not financial advice. Decision support only."))
	return b.String()
}

const gaugeWidth = 24

func gaugeRow(label string, fraction float64, style lipgloss.Style) string {
	filled := int(fraction * gaugeWidth)
	if filled > gaugeWidth {
		filled = gaugeWidth
	}
	if filled < 0 {
		filled = 0
	}
	bar := style.Render(strings.Repeat("█", filled)) + dimStyle.Render(strings.Repeat("░", gaugeWidth-filled))
	return fmt.Sprintf("%-9s %s %6s", label, bar, FormatFraction(fraction))
}

// RenderSentiment renders the sentiment gauge. Each fraction is shown
// independently as fraction*100 to one decimal; no normalization.
func RenderSentiment(s *api.SentimentSummary) string {
	if s == nil {
		return dimStyle.Render("No sentiment yet.")
	}
	rows := []string{
		gaugeRow("Positive", s.Positive, positiveStyle),
		gaugeRow("Neutral", s.Neutral, neutralStyle),
		gaugeRow("Negative", s.Negative, negativeStyle),
	}
	return strings.Join(rows, "\n")
}

// RenderHistory renders previous prediction runs in server order.
func RenderHistory(runs []api.HistoryRun) string {
	if len(runs) == 0 {
		return dimStyle.Render("No history yet.")
	}
	var b strings.Builder
	for _, run := range runs {
		b.WriteString(fmt.Sprintf("%s — %s\n",
			FormatStamp(run.CreatedAt.Time),
			actionStyle(run.Recommendation.ActionUpper()).Render(run.Recommendation.ActionUpper())))
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderLivePrice renders the live price bar, or a feed status line while no
// sample has arrived.
func RenderLivePrice(sample *live.Sample, state live.State) string {
	if sample == nil {
		return dimStyle.Render(fmt.Sprintf("NIFTY 50 (Live)  —  feed %s", state))
	}
	return fmt.Sprintf("%s  %s %s",
		titleStyle.Render("NIFTY 50 (Live)"),
		priceStyle.Render(FormatRupee(sample.Price)),
		dimStyle.Render(FormatClock(sample.Time)))
}

// RenderPortfolio renders the paper account exactly as reported by the
// server; the panel performs no arithmetic of its own.
func RenderPortfolio(p *api.PortfolioState, sample *live.Sample) string {
	var b strings.Builder
	if p == nil {
		b.WriteString(dimStyle.Render("Portfolio not loaded."))
		b.WriteString("\n")
	} else {
		b.WriteString(fmt.Sprintf("Cash:           %s\n", FormatRupee(p.Cash)))
		b.WriteString(fmt.Sprintf("Holdings:       %g units\n", p.Quantity))
		b.WriteString(fmt.Sprintf("Position Value: %s\n", FormatRupee(p.PositionValue)))
		b.WriteString(fmt.Sprintf("Total Equity:   %s\n", FormatRupee(p.TotalEquity)))
	}
	if sample != nil {
		b.WriteString(dimStyle.Render(fmt.Sprintf("Live Price: %s", FormatRupee(sample.Price))))
	}
	return strings.TrimRight(b.String(), "\n")
}
