package chart

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"unicode"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"CoinScope/internal/model"
)

// Renderer writes analysis charts as PNG files into a single output dir.
type Renderer struct {
	dir string
}

func NewRenderer(dir string) *Renderer { return &Renderer{dir: dir} }

var seriesColors = []color.RGBA{
	{R: 0xe6, G: 0x7e, B: 0x22, A: 0xff}, // orange
	{R: 0x29, G: 0x80, B: 0xb9, A: 0xff}, // blue
	{R: 0x27, G: 0xae, B: 0x60, A: 0xff}, // green
	{R: 0x8e, G: 0x44, B: 0xad, A: 0xff}, // purple
}

// PriceTrend draws one price line per asset over time.
func (r *Renderer) PriceTrend(series []model.QuoteSeries, filename string) (string, error) {
	p := plot.New()
	p.Title.Text = "Prices Over Time"
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Price (USD)"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	p.Add(plotter.NewGrid())
	p.Legend.Top = true

	for i, s := range series {
		xys := make(plotter.XYs, s.Len())
		for j, q := range s.Quotes {
			xys[j].X = float64(q.Date.Unix())
			xys[j].Y = q.Price
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return "", fmt.Errorf("price line %s: %w", s.Asset, err)
		}
		line.Color = seriesColors[i%len(seriesColors)]
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(s.Asset, line)
	}

	return r.save(p, 12, 6, filename)
}

// corrGrid adapts a dense correlation matrix to plotter.GridXYZ.
type corrGrid struct {
	n int
	m [][]float64
}

func (g corrGrid) Dims() (c, r int)   { return g.n, g.n }
func (g corrGrid) Z(c, r int) float64 { return g.m[r][c] }
func (g corrGrid) X(c int) float64    { return float64(c) }
func (g corrGrid) Y(r int) float64    { return float64(r) }

// assetTicks labels heat map cells with asset names.
type assetTicks struct {
	assets []string
}

func (t assetTicks) Ticks(min, max float64) []plot.Tick {
	ticks := make([]plot.Tick, 0, len(t.assets))
	for i, a := range t.assets {
		v := float64(i)
		if v < min || v > max {
			continue
		}
		ticks = append(ticks, plot.Tick{Value: v, Label: a})
	}
	return ticks
}

// CorrelationHeatmap draws the pairwise correlation matrix on a diverging
// palette fixed to [-1, 1], with the coefficient printed in each cell.
func (r *Renderer) CorrelationHeatmap(assets []string, matrix [][]float64, filename string) (string, error) {
	if len(assets) == 0 || len(matrix) != len(assets) {
		return "", fmt.Errorf("heatmap: matrix size %d does not match %d assets", len(matrix), len(assets))
	}

	cm := moreland.SmoothBlueRed()
	cm.SetMin(-1)
	cm.SetMax(1)

	hm := plotter.NewHeatMap(corrGrid{n: len(assets), m: matrix}, cm.Palette(256))
	hm.Min, hm.Max = -1, 1

	p := plot.New()
	p.Title.Text = "Price Correlation Matrix"
	p.X.Tick.Marker = assetTicks{assets: assets}
	p.Y.Tick.Marker = assetTicks{assets: assets}
	p.Add(hm)

	labels := plotter.XYLabels{}
	for row := range matrix {
		for col := range matrix[row] {
			labels.XYs = append(labels.XYs, plotter.XY{X: float64(col), Y: float64(row)})
			labels.Labels = append(labels.Labels, fmt.Sprintf("%.2f", matrix[row][col]))
		}
	}
	l, err := plotter.NewLabels(labels)
	if err != nil {
		return "", fmt.Errorf("heatmap labels: %w", err)
	}
	p.Add(l)

	return r.save(p, 8, 6, filename)
}

// VolumeBars draws average trading volume per weekday.
func (r *Renderer) VolumeBars(stats []model.WeekdayStat, asset, filename string) (string, error) {
	if len(stats) == 0 {
		return "", fmt.Errorf("volume bars: no weekday stats")
	}

	values := make(plotter.Values, len(stats))
	names := make([]string, len(stats))
	for i, ws := range stats {
		values[i] = ws.AvgVolume
		names[i] = ws.Weekday
	}

	bars, err := plotter.NewBarChart(values, vg.Points(30))
	if err != nil {
		return "", fmt.Errorf("volume bars: %w", err)
	}
	bars.Color = seriesColors[2]
	bars.LineStyle.Width = 0

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Average %s Trading Volume by Weekday", titleCase(asset))
	p.X.Label.Text = "Weekday"
	p.Y.Label.Text = "Average Volume (USD)"
	p.Add(bars)
	p.NominalX(names...)

	return r.save(p, 10, 6, filename)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func (r *Renderer) save(p *plot.Plot, w, h float64, filename string) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(r.dir, filename)
	if err := p.Save(vg.Length(w)*vg.Inch, vg.Length(h)*vg.Inch, path); err != nil {
		return "", fmt.Errorf("save %s: %w", filename, err)
	}
	return path, nil
}
