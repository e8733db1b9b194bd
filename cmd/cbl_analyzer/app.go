package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/user/cbl_analyzer_go/internal/analysis"
	"github.com/user/cbl_analyzer_go/internal/config"
	"github.com/user/cbl_analyzer_go/internal/log"
	"github.com/user/cbl_analyzer_go/internal/parser"
	"github.com/user/cbl_analyzer_go/internal/report"
)

// App runs one analysis from a validated configuration.
type App struct {
	cfg *config.Config
	now func() time.Time
}

// Outputs lists the files written by GenerateReport.
type Outputs struct {
	PDF    string
	NetCDF string
	PNGs   []string
}

// NewApp creates a new App for cfg
func NewApp(cfg *config.Config) *App {
	return &App{cfg: cfg, now: time.Now}
}

func (a *App) sendStatus(format string, args ...interface{}) {
	log.Infof(format, args...)
}

// GenerateReport loads the input, runs the CBL pipeline and writes the
// configured products. Figures that fail to render are logged and left out;
// any other failure aborts the run.
func (a *App) GenerateReport(ctx context.Context) (*Outputs, error) {
	cfg := a.cfg
	out := &Outputs{}

	a.sendStatus("Loading %s", cfg.Input.Path)
	field, loadReport, err := parser.Load(cfg.Input.Path, cfg.ParserOptions())
	if err != nil {
		return nil, fmt.Errorf("error loading input: %w", err)
	}
	nYear, nDay, nLat, nLon := field.Dims()
	log.Infow("input loaded",
		"format", loadReport.Format,
		"years", nYear, "days", nDay, "lat", nLat, "lon", nLon,
		"missing_cells", loadReport.MissingCells,
		"dropped_latitudes", loadReport.DroppedLatitude)
	if loadReport.FlippedLat {
		log.Debugf("latitude axis reversed to run North to South")
	}
	if loadReport.WrappedLon {
		log.Debugf("longitudes normalized to [0, 360)")
	}
	for _, w := range loadReport.Warnings {
		log.Warnf("%s", w)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.sendStatus("Running CBL pipeline (high-pass half-window %d, smoother half-window %d)",
		cfg.Pipeline.HighPassHalfWindow, cfg.Pipeline.SmoothHalfWindow)
	res, err := analysis.Run(field, cfg.Pipeline)
	if err != nil {
		var insufficient *analysis.InsufficientDataError
		if errors.As(err, &insufficient) {
			return nil, fmt.Errorf("input too small for the configured windows: %w", err)
		}
		return nil, fmt.Errorf("error analyzing data: %w", err)
	}
	for y, z := range res.ZonalMean() {
		log.Debugf("year %d: zonal-mean CBL %.2f", res.Years[y], z)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	a.sendStatus("Generating plots...")
	plotImages := make(map[string][]byte)
	plotConfigs := []struct {
		Name  string
		Title string
		Fn    func(*analysis.Result, string) ([]byte, error)
	}{
		{Name: report.ImageVarianceMap, Title: cfg.Output.Title, Fn: report.CreateVarianceMapPlot},
		{Name: report.ImageCBLLines, Title: cfg.Output.Title + " by year", Fn: report.CreateCBLLinePlot},
	}
	for _, pc := range plotConfigs {
		imgBytes, err := pc.Fn(res, pc.Title)
		if err != nil {
			log.Errorf("Error generating plot %s: %v", pc.Name, err)
			continue
		}
		plotImages[pc.Name] = imgBytes
		if cfg.Output.PNG {
			path := filepath.Join(cfg.Output.Dir, pc.Name+".png")
			if err := os.WriteFile(path, imgBytes, 0o644); err != nil {
				return nil, fmt.Errorf("failed to write %s: %w", path, err)
			}
			out.PNGs = append(out.PNGs, path)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cfg.Output.PDF != "" {
		out.PDF = filepath.Join(cfg.Output.Dir, cfg.Output.PDF)
		a.sendStatus("Generating PDF: %s", out.PDF)
		meta := report.ReportMeta{
			Title:     cfg.Output.Title,
			Source:    cfg.Input.Path,
			Variable:  loadReport.Variable,
			Units:     loadReport.Units,
			Generated: a.now(),
			Warnings:  loadReport.Warnings,
		}
		if err := report.BuildPDFReport(out.PDF, res, meta, plotImages); err != nil {
			return nil, fmt.Errorf("error generating PDF report: %w", err)
		}
	}

	if cfg.Output.NetCDF != "" {
		out.NetCDF = filepath.Join(cfg.Output.Dir, cfg.Output.NetCDF)
		a.sendStatus("Writing NetCDF: %s", out.NetCDF)
		if err := report.WriteNetCDF(out.NetCDF, res); err != nil {
			return nil, fmt.Errorf("error writing NetCDF output: %w", err)
		}
	}
	return out, nil
}
