// Package config loads the analyzer's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/user/cbl_analyzer_go/internal/analysis"
	"github.com/user/cbl_analyzer_go/internal/parser"
)

// Config is the complete run configuration.
type Config struct {
	Input    InputConfig
	Pipeline analysis.Params
	Output   OutputConfig
	Debug    bool
}

// InputConfig describes the gridded field to load.
type InputConfig struct {
	Path        string
	Variable    string
	LatName     string
	LonName     string
	DaysPerYear int
	FirstYear   int
	LatMin      float64
	LatMax      float64
}

// OutputConfig names the report products. An empty PDF or NetCDF name
// disables that product.
type OutputConfig struct {
	Dir    string
	PDF    string
	NetCDF string
	PNG    bool
	Title  string
}

type inputYAML struct {
	Path        string  `yaml:"path"`
	Variable    string  `yaml:"variable,omitempty"`
	LatName     string  `yaml:"lat_name,omitempty"`
	LonName     string  `yaml:"lon_name,omitempty"`
	DaysPerYear int     `yaml:"days_per_year,omitempty"`
	FirstYear   int     `yaml:"first_year,omitempty"`
	LatMin      float64 `yaml:"lat_min"`
	LatMax      float64 `yaml:"lat_max"`
}

type pipelineYAML struct {
	HighPassHalfWindow int `yaml:"highpass_half_window"`
	SmoothHalfWindow   int `yaml:"smooth_half_window"`
}

type outputYAML struct {
	Dir    string `yaml:"dir"`
	PDF    string `yaml:"pdf"`
	NetCDF string `yaml:"netcdf"`
	PNG    bool   `yaml:"png"`
	Title  string `yaml:"title"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Input: InputConfig{
			Variable: parser.DefaultVariable,
			LatName:  parser.DefaultLatName,
			LonName:  parser.DefaultLonName,
			LatMin:   30,
			LatMax:   90,
		},
		Pipeline: analysis.DefaultParams(),
		Output: OutputConfig{
			Dir:    "out",
			PDF:    "cbl_report.pdf",
			NetCDF: "cbl.nc",
			PNG:    true,
			Title:  "Central Blocking Latitude",
		},
	}
}

// Load reads a YAML configuration file. Keys absent from the file keep
// their Default values.
func Load(filename string) (*Config, error) {
	cfgFile, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return cfg, nil
}

// Parse decodes YAML configuration data on top of Default.
func Parse(data []byte) (*Config, error) {
	def := Default()

	// Load into temporary struct with YAML tags, pre-filled with defaults
	yamlConfig := struct {
		Input    inputYAML    `yaml:"input"`
		Pipeline pipelineYAML `yaml:"pipeline"`
		Output   outputYAML   `yaml:"output"`
		Debug    bool         `yaml:"debug"`
	}{
		Input: inputYAML{
			Variable: def.Input.Variable,
			LatName:  def.Input.LatName,
			LonName:  def.Input.LonName,
			LatMin:   def.Input.LatMin,
			LatMax:   def.Input.LatMax,
		},
		Pipeline: pipelineYAML{
			HighPassHalfWindow: def.Pipeline.HighPassHalfWindow,
			SmoothHalfWindow:   def.Pipeline.SmoothHalfWindow,
		},
		Output: outputYAML{
			Dir:    def.Output.Dir,
			PDF:    def.Output.PDF,
			NetCDF: def.Output.NetCDF,
			PNG:    def.Output.PNG,
			Title:  def.Output.Title,
		},
	}

	if err := yaml.UnmarshalStrict(data, &yamlConfig); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Convert to our internal format
	return &Config{
		Input: InputConfig{
			Path:        yamlConfig.Input.Path,
			Variable:    yamlConfig.Input.Variable,
			LatName:     yamlConfig.Input.LatName,
			LonName:     yamlConfig.Input.LonName,
			DaysPerYear: yamlConfig.Input.DaysPerYear,
			FirstYear:   yamlConfig.Input.FirstYear,
			LatMin:      yamlConfig.Input.LatMin,
			LatMax:      yamlConfig.Input.LatMax,
		},
		Pipeline: analysis.Params{
			HighPassHalfWindow: yamlConfig.Pipeline.HighPassHalfWindow,
			SmoothHalfWindow:   yamlConfig.Pipeline.SmoothHalfWindow,
		},
		Output: OutputConfig{
			Dir:    yamlConfig.Output.Dir,
			PDF:    yamlConfig.Output.PDF,
			NetCDF: yamlConfig.Output.NetCDF,
			PNG:    yamlConfig.Output.PNG,
			Title:  yamlConfig.Output.Title,
		},
		Debug: yamlConfig.Debug,
	}, nil
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Input.Path == "" {
		errs = append(errs, errors.New("input.path is required"))
	}
	if c.Input.DaysPerYear < 0 {
		errs = append(errs, fmt.Errorf("input.days_per_year must not be negative, got %d", c.Input.DaysPerYear))
	}
	if c.Input.LatMin > c.Input.LatMax {
		errs = append(errs, fmt.Errorf("input.lat_min (%g) is greater than input.lat_max (%g)", c.Input.LatMin, c.Input.LatMax))
	}
	if c.Input.LatMin < -90 || c.Input.LatMax > 90 {
		errs = append(errs, fmt.Errorf("latitude band [%g, %g] is outside [-90, 90]", c.Input.LatMin, c.Input.LatMax))
	}
	if c.Pipeline.HighPassHalfWindow < 0 {
		errs = append(errs, fmt.Errorf("pipeline.highpass_half_window must not be negative, got %d", c.Pipeline.HighPassHalfWindow))
	}
	if c.Pipeline.SmoothHalfWindow < 0 {
		errs = append(errs, fmt.Errorf("pipeline.smooth_half_window must not be negative, got %d", c.Pipeline.SmoothHalfWindow))
	}
	if c.Output.Dir == "" {
		errs = append(errs, errors.New("output.dir is required"))
	}
	return errors.Join(errs...)
}

// ParserOptions converts the input section for the loaders.
func (c *Config) ParserOptions() parser.Options {
	return parser.Options{
		Variable:    c.Input.Variable,
		LatName:     c.Input.LatName,
		LonName:     c.Input.LonName,
		DaysPerYear: c.Input.DaysPerYear,
		FirstYear:   c.Input.FirstYear,
		LatMin:      c.Input.LatMin,
		LatMax:      c.Input.LatMax,
	}
}
