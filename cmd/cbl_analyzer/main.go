// Command cbl_analyzer computes the central blocking latitude of a gridded
// daily field and renders figures, a PDF report and a NetCDF file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/akamensky/argparse"

	"github.com/user/cbl_analyzer_go/internal/config"
	"github.com/user/cbl_analyzer_go/internal/log"
)

func main() {
	os.Exit(run(os.Args))
}

// run executes the command with args and returns the process exit code:
// 0 on success, 2 for unusable flags and 1 for any other failure.
func run(args []string) int {
	parser := argparse.NewParser("cbl_analyzer", "Computes the central blocking latitude (CBL) of a gridded daily field")

	cfgFile := parser.String("c", "config", &argparse.Options{
		Help: "YAML configuration file"})

	input := parser.String("i", "input", &argparse.Options{
		Help: "Input field (.nc, .nc4, .cdf, .csv, .tsv or .txt); overrides input.path"})

	outDir := parser.String("o", "output-dir", &argparse.Options{
		Help: "Output directory; overrides output.dir"})

	highpass := parser.Int("", "highpass", &argparse.Options{
		Default: -1,
		Help:    "High-pass half-window in days; overrides pipeline.highpass_half_window"})

	smooth := parser.Int("", "smooth", &argparse.Options{
		Default: -1,
		Help:    "Longitude smoother half-window; overrides pipeline.smooth_half_window"})

	noPNG := parser.Flag("", "no-png", &argparse.Options{
		Help: "Do not write the figures as PNG files"})

	debug := parser.Flag("", "debug", &argparse.Options{
		Help: "Enable debug logging"})

	if err := parser.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, parser.Usage(err))
		return 2
	}

	cfg := config.Default()
	if *cfgFile != "" {
		var err error
		cfg, err = config.Load(*cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}
	if *input != "" {
		cfg.Input.Path = *input
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}
	if *highpass >= 0 {
		cfg.Pipeline.HighPassHalfWindow = *highpass
	}
	if *smooth >= 0 {
		cfg.Pipeline.SmoothHalfWindow = *smooth
	}
	if *noPNG {
		cfg.Output.PNG = false
	}
	if *debug {
		cfg.Debug = true
	}

	if err := log.Init(cfg.Debug); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Errorf("invalid configuration: %v", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := NewApp(cfg)
	out, err := app.GenerateReport(ctx)
	if err != nil {
		log.Errorf("report generation failed: %v", err)
		return 1
	}
	log.Infow("done", "pdf", out.PDF, "netcdf", out.NetCDF, "png", out.PNGs)
	return 0
}
