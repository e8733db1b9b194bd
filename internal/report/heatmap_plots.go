package report

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/user/cbl_analyzer_go/internal/analysis"
)

const (
	mapWidth     = 1000
	mapHeight    = 560
	colorBarSize = 90
)

// varianceGrid exposes a (lat, lon) array as a plotter.GridXYZ with signed
// longitude columns and latitude rows running South to North.
type varianceGrid struct {
	values [][]float64 // [row][col]
	lon    []float64
	lat    []float64
}

func (g *varianceGrid) Dims() (c, r int)   { return len(g.lon), len(g.lat) }
func (g *varianceGrid) Z(c, r int) float64 { return g.values[r][c] }
func (g *varianceGrid) X(c int) float64    { return g.lon[c] }
func (g *varianceGrid) Y(r int) float64    { return g.lat[r] }

func newVarianceGrid(res *analysis.Result) *varianceGrid {
	mean := res.Variance.TimeMean()
	order, signed := SignedLongitudes(res.Lon)
	nLat := len(res.Lat)

	g := &varianceGrid{
		values: make([][]float64, nLat),
		lon:    signed,
		lat:    make([]float64, nLat),
	}
	for r := 0; r < nLat; r++ {
		i := nLat - 1 - r
		g.lat[r] = res.Lat[i]
		g.values[r] = make([]float64, len(order))
		for c, j := range order {
			g.values[r][c] = mean.Get(i, j)
		}
	}
	return g
}

// zRange returns the span of the non-NaN values, widened when degenerate.
func (g *varianceGrid) zRange() (lo, hi float64, ok bool) {
	var valid []float64
	for _, row := range g.values {
		for _, v := range row {
			if !math.IsNaN(v) {
				valid = append(valid, v)
			}
		}
	}
	if len(valid) == 0 {
		return 0, 1, false
	}
	lo, hi = floats.Min(valid), floats.Max(valid)
	if lo == hi {
		hi = lo + 1
	}
	return lo, hi, true
}

// CreateVarianceMapPlot renders the time-mean weighted variance as a heat
// map over signed longitude and latitude, overlaid with the climatological
// smoothed CBL and its inter-annual spread.
func CreateVarianceMapPlot(res *analysis.Result, plotTitle string) ([]byte, error) {
	if res == nil || res.Variance == nil || res.Smoothed == nil {
		return nil, fmt.Errorf("no analysis results to plot variance map")
	}
	if len(res.Lat) < 2 || len(res.Lon) < 2 {
		return nil, fmt.Errorf("variance map needs at least 2 latitudes and 2 longitudes, got %d and %d", len(res.Lat), len(res.Lon))
	}

	grid := newVarianceGrid(res)
	lo, hi, ok := grid.zRange()
	if !ok {
		return nil, fmt.Errorf("weighted variance has no valid values")
	}

	cm := moreland.ExtendedBlackBody()
	cm.SetMin(lo)
	cm.SetMax(hi)

	p := plot.New()
	p.Title.Text = plotTitle
	p.X.Label.Text = "Longitude (°E)"
	p.Y.Label.Text = "Latitude (°N)"
	p.X.Tick.Marker = plot.ConstantTicks(longitudeTicks(grid.lon[0], grid.lon[len(grid.lon)-1]))

	hm := plotter.NewHeatMap(grid, cm.Palette(255))
	hm.Min = lo
	hm.Max = hi
	hm.NaN = color.Gray{Y: 200}
	p.Add(hm)

	clim := res.Climatology()
	order, signed := SignedLongitudes(clim.Lon)
	mean := make([]float64, len(order))
	upper := make([]float64, len(order))
	lower := make([]float64, len(order))
	for k, j := range order {
		mean[k] = clim.Mean[j]
		upper[k] = clim.Mean[j] + clim.StdDev[j]
		lower[k] = clim.Mean[j] - clim.StdDev[j]
	}

	cblColor := color.RGBA{G: 200, B: 255, A: 255}
	if err := addSegments(p, signed, mean, cblColor, nil, vg.Points(2.5), "CBL climatology"); err != nil {
		return nil, err
	}
	dash := []vg.Length{vg.Points(5), vg.Points(4)}
	if err := addSegments(p, signed, upper, cblColor, dash, vg.Points(1), "±1 std"); err != nil {
		return nil, err
	}
	if err := addSegments(p, signed, lower, cblColor, dash, vg.Points(1), ""); err != nil {
		return nil, err
	}
	p.Legend.Top = true
	p.Legend.XOffs = -vg.Points(10)

	cb := plot.New()
	cb.Add(&plotter.ColorBar{ColorMap: cm})
	cb.HideY()
	cb.X.Label.Text = "Weighted standard deviation (time mean)"
	cb.X.Padding = 0

	w, h := vg.Points(mapWidth), vg.Points(mapHeight)
	img := vgimg.New(w, h)
	dc := draw.New(img)
	p.Draw(draw.Crop(dc, 0, 0, vg.Points(colorBarSize), 0))
	cb.Draw(draw.Crop(dc, vg.Points(60), -vg.Points(60), 0, -(h - vg.Points(colorBarSize))))

	buf := new(bytes.Buffer)
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(buf); err != nil {
		return nil, fmt.Errorf("failed to write variance map to buffer: %v", err)
	}
	return buf.Bytes(), nil
}

// addSegments draws ys against xs, breaking the line wherever ys is NaN.
// A non-empty label is added to the legend once.
func addSegments(p *plot.Plot, xs, ys []float64, c color.Color, dash []vg.Length, width vg.Length, label string) error {
	labelled := label == ""
	for _, pts := range segments(xs, ys) {
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("failed to create line %q: %v", label, err)
		}
		line.Color = c
		line.Width = width
		line.Dashes = dash
		p.Add(line)
		if !labelled {
			p.Legend.Add(label, line)
			labelled = true
		}
	}
	return nil
}

// segments splits a polyline into runs of finite points.
func segments(xs, ys []float64) []plotter.XYs {
	var out []plotter.XYs
	var cur plotter.XYs
	for k := range xs {
		if math.IsNaN(ys[k]) || math.IsInf(ys[k], 0) {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, plotter.XY{X: xs[k], Y: ys[k]})
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// longitudeTicks labels every 60 degrees between lo and hi.
func longitudeTicks(lo, hi float64) []plot.Tick {
	var ticks []plot.Tick
	for v := math.Ceil(lo/60) * 60; v <= hi; v += 60 {
		ticks = append(ticks, plot.Tick{Value: v, Label: fmt.Sprintf("%.0f", v)})
	}
	return ticks
}
