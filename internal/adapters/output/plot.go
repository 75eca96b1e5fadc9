package output

import (
	"io"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"ghrepostats/internal/core/series"
	perr "ghrepostats/internal/platform/errors"
)

// Chart size in inches
const (
	chartWidth  = 10 * vg.Inch
	chartHeight = 5 * vg.Inch
)

var printer = message.NewPrinter(language.English)

// Title is the chart heading, "<owner/repo>: <title>"
func Title(repo, title string) string { return repo + ": " + title }

// stepTicks labels the y axis every TickStep units with grouped digits
type stepTicks struct{}

// Ticks implements plot.Ticker
func (stepTicks) Ticks(lo, hi float64) []plot.Tick {
	top := int(hi + 0.5)
	step := series.TickStep(top)
	var out []plot.Tick
	start := 0
	for start > int(lo) {
		start -= step
	}
	for v := start; float64(v) <= hi+float64(step)/2; v += step {
		out = append(out, plot.Tick{Value: float64(v), Label: printer.Sprintf("%d", v)})
	}
	return out
}

// Build lays out a line chart of pts; the y axis starts at zero and ends on a tick
func Build(title string, pts []series.Point) (*plot.Plot, error) {
	if len(pts) == 0 {
		return nil, perr.ErrNoData
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Tick.Marker = plot.TimeTicks{Format: time.DateOnly}
	p.Y.Tick.Marker = stepTicks{}

	xys := make(plotter.XYs, len(pts))
	lo := 0
	for i, pt := range pts {
		xys[i].X = float64(pt.At.Unix())
		xys[i].Y = float64(pt.Value)
		lo = min(lo, pt.Value)
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "build chart line")
	}
	p.Add(plotter.NewGrid(), line)

	ticks := series.Ticks(series.Max(pts))
	p.Y.Min = float64(lo)
	p.Y.Max = float64(ticks[len(ticks)-1])
	return p, nil
}

// EncodePNG renders the chart as PNG into w
func EncodePNG(w io.Writer, title string, pts []series.Point) error {
	p, err := Build(title, pts)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(chartWidth, chartHeight, "png")
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "render chart")
	}
	_, err = wt.WriteTo(w)
	return err
}

// WritePlot renders the chart to a PNG file
func WritePlot(path, title string, pts []series.Point) error {
	if len(pts) == 0 {
		return perr.ErrNoData
	}
	return writeAtomic(path, func(w io.Writer) error { return EncodePNG(w, title, pts) })
}

// Summary is the one-line report printed after a series is produced
func Summary(title string, pts []series.Point) string {
	if len(pts) == 0 {
		return title + ": no data"
	}
	last := pts[len(pts)-1]
	return printer.Sprintf("%s: %d points, latest %d on %s, peak %d",
		title, len(pts), last.Value, last.At.Format(time.DateOnly), series.Max(pts))
}

// Count formats n with digit grouping
func Count(n int) string { return printer.Sprintf("%d", n) }
