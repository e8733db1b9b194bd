package report

import (
	"bytes"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/user/cbl_analyzer_go/internal/analysis"
)

// maxLegendYears caps the legend; with more years only the climatology is
// labelled.
const maxLegendYears = 12

// CreateCBLLinePlot draws the smoothed CBL of every year against signed
// longitude, with the climatological mean in bold.
func CreateCBLLinePlot(res *analysis.Result, plotTitle string) ([]byte, error) {
	if res == nil || res.Smoothed == nil {
		return nil, fmt.Errorf("no analysis results to plot")
	}
	nYear, nLon := res.Smoothed.Dims()
	if nYear == 0 || nLon == 0 {
		return nil, fmt.Errorf("smoothed CBL is empty")
	}

	p := plot.New()
	p.Title.Text = plotTitle
	p.X.Label.Text = "Longitude (°E)"
	p.Y.Label.Text = "Central blocking latitude (°N)"
	p.Add(plotter.NewGrid())

	order, signed := SignedLongitudes(res.Smoothed.Lon)
	p.X.Min = signed[0]
	p.X.Max = signed[len(signed)-1]
	p.X.Tick.Marker = plot.ConstantTicks(longitudeTicks(p.X.Min, p.X.Max))

	colors := palette.Heat(nYear+2, 1).Colors()
	for y := 0; y < nYear; y++ {
		row := res.Smoothed.Row(y)
		ys := make([]float64, nLon)
		for k, j := range order {
			ys[k] = row[j]
		}
		label := ""
		if nYear <= maxLegendYears {
			label = fmt.Sprintf("%d", res.Smoothed.Years[y])
		}
		if err := addSegments(p, signed, ys, colors[y+1], nil, vg.Points(1), label); err != nil {
			return nil, err
		}
	}

	clim := res.Climatology()
	mean := make([]float64, nLon)
	for k, j := range order {
		mean[k] = clim.Mean[j]
	}
	if err := addSegments(p, signed, mean, color.Black, nil, vg.Points(3), "Climatology"); err != nil {
		return nil, err
	}

	p.Legend.Top = true
	p.Legend.XOffs = vg.Points(10)

	writer, err := p.WriterTo(vg.Points(800), vg.Points(400), "png")
	if err != nil {
		return nil, fmt.Errorf("failed to create plot writer: %v", err)
	}
	buf := new(bytes.Buffer)
	if _, err := writer.WriteTo(buf); err != nil {
		return nil, fmt.Errorf("failed to write plot to buffer: %v", err)
	}
	return buf.Bytes(), nil
}
