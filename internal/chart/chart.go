package chart

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/cokovskak/workloadgenerator/internal/runner"
	"github.com/cokovskak/workloadgenerator/internal/tui/components"
	"github.com/cokovskak/workloadgenerator/internal/tui/styles"
)

// Renderer draws a finished sweep.
type Renderer interface {
	Render(r *runner.Report) error
}

const xLabel = "Requests per Second"

type panel struct {
	Title  string
	YLabel string
	Legend string
	Values []float64
	Glyph  draw.GlyphDrawer
	Style  lipgloss.Style
}

func panels(r *runner.Report) []panel {
	return []panel{
		{
			Title:  "Execution Time vs Requests per Second",
			YLabel: "Execution Time (s)",
			Legend: "Execution Time",
			Values: r.Latencies(),
			Glyph:  draw.CircleGlyph{},
			Style:  styles.Warn,
		},
		{
			Title:  "Throughput vs Requests per Second",
			YLabel: "Throughput (req/s)",
			Legend: "Throughput",
			Values: r.Throughputs(),
			Glyph:  draw.BoxGlyph{},
			Style:  styles.Value,
		},
		{
			Title:  "Speedup vs Requests per Second",
			YLabel: "Speedup Factor",
			Legend: "Speedup",
			Values: r.Speedups(),
			Glyph:  draw.TriangleGlyph{},
			Style:  styles.Active,
		},
	}
}

// points pairs values with their levels, dropping values that cannot be
// drawn (the +Inf latency of a fully failed level).
func points(levels []int, values []float64) plotter.XYs {
	pts := make(plotter.XYs, 0, len(values))
	for i, v := range values {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(levels[i]), Y: v})
	}
	return pts
}

// PNG writes the three charts side by side into a single image.
type PNG struct {
	Path   string
	Width  vg.Length
	Height vg.Length
}

func NewPNG(path string) *PNG {
	return &PNG{Path: path, Width: 15 * vg.Inch, Height: 5 * vg.Inch}
}

func (p *PNG) Render(r *runner.Report) error {
	levels := r.Levels()
	ps := panels(r)

	row := make([]*plot.Plot, len(ps))
	for i, pn := range ps {
		pl, err := newPlot(pn, levels)
		if err != nil {
			return fmt.Errorf("%s: %w", pn.Title, err)
		}
		row[i] = pl
	}

	img := vgimg.New(p.Width, p.Height)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      1,
		Cols:      len(row),
		PadX:      vg.Millimeter * 6,
		PadTop:    vg.Millimeter * 3,
		PadBottom: vg.Millimeter * 3,
		PadLeft:   vg.Millimeter * 3,
		PadRight:  vg.Millimeter * 3,
	}
	plots := [][]*plot.Plot{row}
	canvases := plot.Align(plots, tiles, dc)
	for j := range row {
		row[j].Draw(canvases[0][j])
	}

	f, err := os.Create(p.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		return err
	}
	return f.Close()
}

func newPlot(pn panel, levels []int) (*plot.Plot, error) {
	pl := plot.New()
	pl.Title.Text = pn.Title
	pl.X.Label.Text = xLabel
	pl.Y.Label.Text = pn.YLabel
	pl.Add(plotter.NewGrid())
	pl.Legend.Top = true

	pts := points(levels, pn.Values)
	if len(pts) == 0 {
		return pl, nil
	}

	line, scatter, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, err
	}
	scatter.Shape = pn.Glyph
	pl.Add(line, scatter)
	pl.Legend.Add(pn.Legend, line, scatter)
	return pl, nil
}

// Terminal prints each metric as a labelled sparkline, one column per level.
type Terminal struct {
	Out io.Writer
}

func (t *Terminal) Render(r *runner.Report) error {
	levels := r.Levels()

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(styles.Title.Render("📈 Sweep Charts"))
	b.WriteString("\n")
	for _, pn := range panels(r) {
		sl := components.NewSparkline(len(pn.Values), pn.Legend, pn.Style)
		for _, v := range pn.Values {
			sl.Add(v)
		}
		b.WriteString(fmt.Sprintf("%-16s %s  %s\n",
			pn.Legend,
			pn.Style.Render(sl.Graph()),
			styles.Subtle.Render(rangeLabel(pn.Values)),
		))
	}
	b.WriteString(fmt.Sprintf("%-16s %s\n", "levels", styles.Subtle.Render(levelRange(levels))))

	_, err := io.WriteString(t.Out, b.String())
	return err
}

func rangeLabel(values []float64) string {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.IsInf(lo, 1) {
		return "no data"
	}
	return fmt.Sprintf("min %.2f, max %.2f", lo, hi)
}

func levelRange(levels []int) string {
	if len(levels) == 0 {
		return ""
	}
	return fmt.Sprintf("%d → %d (%d levels)", levels[0], levels[len(levels)-1], len(levels))
}
