// Package progress builds and renders the 30-day completion chart of a habit.
package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/habit-tracker/internal/models"
	"github.com/wcharczuk/go-chart/v2"
)

const (
	// Days is the number of calendar days shown, ending today
	Days = 30
	// Window is the trailing window of the rolling completion count
	Window = 7

	width  = 1000
	height = 400
)

// Progress is the chart input for one habit
type Progress struct {
	Title   string
	Dates   []string
	Done    []int
	Rolling []int
}

// DateRange returns the n calendar dates ending at today, oldest first.
func DateRange(today time.Time, n int) []string {
	dates := make([]string, n)
	for i := 0; i < n; i++ {
		dates[i] = models.DateKey(today.AddDate(0, 0, i-(n-1)))
	}
	return dates
}

// RollingSum returns, for each position i, the sum of values over the
// left-clamped window [max(0, i-window+1), i].
func RollingSum(values []int, window int) []int {
	out := make([]int, len(values))
	sum := 0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		out[i] = sum
	}
	return out
}

// Build computes the chart series for a habit from its checked dates.
func Build(habitName string, today time.Time, checked map[string]bool) Progress {
	dates := DateRange(today, Days)
	done := make([]int, len(dates))
	for i, d := range dates {
		if checked[d] {
			done[i] = 1
		}
	}
	return Progress{
		Title:   "Progress for: " + habitName,
		Dates:   dates,
		Done:    done,
		Rolling: RollingSum(done, Window),
	}
}

// Render writes p as a PNG: completion bars on the primary axis and the
// rolling count as a marked line on the secondary axis.
func Render(p Progress, w io.Writer) error {
	if len(p.Done) < 2 || len(p.Done) != len(p.Rolling) {
		return fmt.Errorf("progress needs at least two aligned points, got %d/%d", len(p.Done), len(p.Rolling))
	}

	xs := make([]float64, len(p.Done))
	done := make([]float64, len(p.Done))
	rolling := make([]float64, len(p.Rolling))
	for i := range p.Done {
		xs[i] = float64(i)
		done[i] = float64(p.Done[i])
		rolling[i] = float64(p.Rolling[i])
	}

	graph := chart.Chart{
		Title:  p.Title,
		Width:  width,
		Height: height,
		XAxis: chart.XAxis{
			Name: fmt.Sprintf("Days (last %d)", len(p.Done)),
		},
		YAxis: chart.YAxis{
			Name:  "Done (0/1)",
			Range: &chart.ContinuousRange{Min: 0, Max: 1},
		},
		YAxisSecondary: chart.YAxis{
			Name:  fmt.Sprintf("%d-day completed count", Window),
			Range: &chart.ContinuousRange{Min: 0, Max: Window},
		},
		Series: []chart.Series{
			chart.HistogramSeries{
				Name: "done",
				Style: chart.Style{
					StrokeColor: chart.ColorBlue,
					FillColor:   chart.ColorBlue.WithAlpha(160),
				},
				InnerSeries: chart.ContinuousSeries{
					XValues: xs,
					YValues: done,
				},
			},
			chart.ContinuousSeries{
				Name:  "rolling",
				YAxis: chart.YAxisSecondary,
				Style: chart.Style{
					StrokeColor: chart.ColorOrange,
					StrokeWidth: 2,
					DotColor:    chart.ColorOrange,
					DotWidth:    3,
				},
				XValues: xs,
				YValues: rolling,
			},
		},
	}

	return graph.Render(chart.PNG, w)
}
