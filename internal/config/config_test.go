package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	content := `
input:
  path: data/z500_djf.nc
  variable: hgt
  days_per_year: 90
  lat_min: 40
  first_year: 1979
pipeline:
  smooth_half_window: 3
output:
  dir: results
  png: false
  title: "DJF Z500"
debug: true
`
	path := filepath.Join(t.TempDir(), "cbl.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}

	if cfg.Input.Path != "data/z500_djf.nc" || cfg.Input.Variable != "hgt" {
		t.Errorf("input = %+v", cfg.Input)
	}
	if cfg.Input.LatName != "lat" || cfg.Input.LonName != "lon" {
		t.Errorf("coordinate names should keep defaults, got %q %q", cfg.Input.LatName, cfg.Input.LonName)
	}
	if cfg.Input.LatMin != 40 || cfg.Input.LatMax != 90 {
		t.Errorf("latitude band = [%g, %g], expected [40, 90]", cfg.Input.LatMin, cfg.Input.LatMax)
	}
	if cfg.Pipeline.HighPassHalfWindow != 2 || cfg.Pipeline.SmoothHalfWindow != 3 {
		t.Errorf("pipeline = %+v, expected {2 3}", cfg.Pipeline)
	}
	if cfg.Output.Dir != "results" || cfg.Output.PNG || cfg.Output.PDF != "cbl_report.pdf" {
		t.Errorf("output = %+v", cfg.Output)
	}
	if !cfg.Debug {
		t.Errorf("expected debug")
	}

	opts := cfg.ParserOptions()
	if opts.Variable != "hgt" || opts.DaysPerYear != 90 || opts.FirstYear != 1979 || opts.LatMin != 40 {
		t.Errorf("parser options = %+v", opts)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("expected error for a missing file")
	}
	if _, err := Parse([]byte("input: [")); err == nil {
		t.Errorf("expected error for malformed YAML")
	}
	if _, err := Parse([]byte("pipeline:\n  smoothing: 4\n")); err == nil {
		t.Errorf("expected error for an unknown key")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
		errMsg string
	}{
		{name: "valid", modify: func(c *Config) {}},
		{name: "zero windows are allowed", modify: func(c *Config) { c.Pipeline.HighPassHalfWindow, c.Pipeline.SmoothHalfWindow = 0, 0 }},
		{name: "missing input path", modify: func(c *Config) { c.Input.Path = "" }, errMsg: "input.path"},
		{name: "negative highpass window", modify: func(c *Config) { c.Pipeline.HighPassHalfWindow = -1 }, errMsg: "highpass_half_window"},
		{name: "negative smooth window", modify: func(c *Config) { c.Pipeline.SmoothHalfWindow = -3 }, errMsg: "smooth_half_window"},
		{name: "inverted band", modify: func(c *Config) { c.Input.LatMin, c.Input.LatMax = 60, 30 }, errMsg: "lat_min"},
		{name: "band beyond the pole", modify: func(c *Config) { c.Input.LatMax = 95 }, errMsg: "outside"},
		{name: "negative season", modify: func(c *Config) { c.Input.DaysPerYear = -90 }, errMsg: "days_per_year"},
		{name: "missing output dir", modify: func(c *Config) { c.Output.Dir = "" }, errMsg: "output.dir"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Input.Path = "z.nc"
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("expected error containing %q, got %v", tt.errMsg, err)
			}
		})
	}
}
