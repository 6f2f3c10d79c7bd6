// Package plot renders projection profiles as PNG charts, with the
// extracted intervals drawn over the profile.
package plot

import (
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/ivlev/pageseg/internal/errs"
	"github.com/ivlev/pageseg/internal/profile"
	"github.com/ivlev/pageseg/internal/segment"
)

const (
	minWidth  = 800
	maxWidth  = 3840
	height    = 600
	pxPerItem = 2
)

// intervalMask returns a step line that sits at level inside an interval
// and at 0 outside
func intervalMask(n int, intervals []segment.Interval, level float64) []float64 {
	ys := make([]float64, n)
	for _, iv := range intervals {
		for i := max(iv.Start, 0); i <= iv.End && i < n; i++ {
			ys[i] = level
		}
	}
	return ys
}

func series(xs, ys []float64, c, fill drawing.Color) chart.ContinuousSeries {
	return chart.ContinuousSeries{
		Style: chart.Style{
			StrokeColor: c,
			FillColor:   fill,
		},
		XValues: xs,
		YValues: ys,
	}
}

// Profile writes a chart of p to w. Intervals may be nil.
func Profile(w io.Writer, p profile.Profile, intervals []segment.Interval, title string) error {
	if len(p) < 2 {
		return fmt.Errorf("%w: not enough profile values to plot", errs.ErrInvalidInput)
	}

	xs := make([]float64, len(p))
	ys := make([]float64, len(p))
	for i, v := range p {
		xs[i] = float64(i)
		ys[i] = float64(v)
	}
	top := float64(max(p.Max(), 1))

	graph := chart.Chart{
		Title:  title,
		Width:  min(max(len(p)*pxPerItem, minWidth), maxWidth),
		Height: height,
		XAxis: chart.XAxis{
			Name: "Position",
			Range: &chart.ContinuousRange{
				Min: 0.0,
				Max: float64(len(p) - 1),
			},
		},
		YAxis: chart.YAxis{
			Name: "Ink",
			Range: &chart.ContinuousRange{
				Min: 0.0,
				Max: top,
			},
		},
		Series: []chart.Series{
			series(xs, ys, chart.ColorBlue, chart.ColorAlternateBlue),
		},
	}
	if len(intervals) > 0 {
		graph.Series = append(graph.Series,
			series(xs, intervalMask(len(p), intervals, top), chart.ColorRed, drawing.Color{}))
	}

	return graph.Render(chart.PNG, w)
}
