package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"niftydesk/internal/api"
)

// ChartPoint is one merged row of the actual-vs-predicted series.
type ChartPoint struct {
	Date      string
	Actual    float64
	Predicted float64
	Forecast  bool // true where Predicted was overwritten by the forecast
}

// MergeSeries merges the recent actual window with the forecast. Each of the
// n recent points starts with Predicted shadowing Actual; the last m points
// are overwritten with the forecast values in order, bounds-checked, so the
// predicted line coincides with the actual line everywhere except the
// forecast tail. Returns nil when recent is absent or misaligned.
func MergeSeries(recent *api.RecentSeries, predicted []float64) []ChartPoint {
	if !recent.Valid() {
		return nil
	}

	n := len(recent.Dates)
	points := make([]ChartPoint, n)
	for i := 0; i < n; i++ {
		points[i] = ChartPoint{
			Date:      recent.Dates[i],
			Actual:    recent.Prices[i],
			Predicted: recent.Prices[i],
		}
	}

	start := n - len(predicted)
	if start < 0 {
		start = 0
	}
	for i := range predicted {
		idx := start + i
		if idx >= n {
			break
		}
		points[idx].Predicted = predicted[i]
		points[idx].Forecast = true
	}
	return points
}

const chartTail = 20

var (
	chartHeaderStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	chartActualStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	chartForecastStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	chartDimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// RenderChart renders the merged series as a table of the most recent rows,
// marking the forecast tail. Absent or misaligned input renders an
// explanatory placeholder instead.
func RenderChart(recent *api.RecentSeries, predicted []float64) string {
	points := MergeSeries(recent, predicted)
	if points == nil {
		return chartDimStyle.Render("Chart data not available – recent dates/prices missing.")
	}

	var b strings.Builder
	b.WriteString(chartHeaderStyle.Render(fmt.Sprintf("%-12s %12s %12s", "Date", "Actual", "Predicted")))
	b.WriteString("\n")

	start := len(points) - chartTail
	if start < 0 {
		start = 0
	}
	if start > 0 {
		b.WriteString(chartDimStyle.Render(fmt.Sprintf("  ... %d earlier points", start)))
		b.WriteString("\n")
	}

	for _, p := range points[start:] {
		row := fmt.Sprintf("%-12s %12.2f %12.2f", p.Date, p.Actual, p.Predicted)
		if p.Forecast {
			b.WriteString(chartForecastStyle.Render(row + "  ◆ forecast"))
		} else {
			b.WriteString(chartActualStyle.Render(row))
		}
		b.WriteString("\n")
	}
	return b.String()
}
