package parser

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/user/cbl_analyzer_go/internal/analysis"
)

// Load reads a gridded field, choosing the reader from the file extension.
func Load(path string, opts Options) (*analysis.GriddedField, *LoadReport, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".nc", ".nc4", ".cdf":
		return LoadNetCDF(path, opts)
	case ".csv", ".tsv", ".txt":
		return LoadDelimited(path, opts)
	default:
		return nil, nil, fmt.Errorf("unsupported input format %q (expected .nc, .nc4, .cdf, .csv, .tsv or .txt)", filepath.Ext(path))
	}
}
