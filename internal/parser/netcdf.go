package parser

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"

	"github.com/user/cbl_analyzer_go/internal/analysis"
)

// YearVariable is the optional coordinate variable labelling the year axis
// of 4-D input.
const YearVariable = "year"

// LoadNetCDF reads a gridded field from a NetCDF classic file. The field
// variable is either 4-D (year, day, lat, lon) or 3-D (time, lat, lon); the
// latter is split into seasons of opts.DaysPerYear days and a trailing
// partial season is dropped with a warning.
func LoadNetCDF(path string, opts Options) (*analysis.GriddedField, *LoadReport, error) {
	opts = opts.withDefaults()
	report := NewLoadReport(path, "netcdf")
	report.Variable = opts.Variable

	ff, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open NetCDF file: %w", err)
	}
	defer ff.Close()

	f, err := cdf.Open(ff)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read NetCDF header of %s: %w", path, err)
	}

	lat, _, err := readVariable(f, opts.LatName)
	if err != nil {
		return nil, nil, err
	}
	lon, _, err := readVariable(f, opts.LonName)
	if err != nil {
		return nil, nil, err
	}
	values, dims, err := readVariable(f, opts.Variable)
	if err != nil {
		return nil, nil, err
	}
	unpack(f, opts.Variable, values)
	if units, ok := f.Header.GetAttribute(opts.Variable, "units").(string); ok {
		report.Units = units
	}

	if len(dims) < 3 || dims[len(dims)-2] != len(lat) || dims[len(dims)-1] != len(lon) {
		return nil, nil, fmt.Errorf("variable %q has shape %v, expected (..., %s=%d, %s=%d)",
			opts.Variable, dims, opts.LatName, len(lat), opts.LonName, len(lon))
	}

	var (
		data  *sparse.DenseArray
		years []int
	)
	switch len(dims) {
	case 4:
		data = sparse.ZerosDense(dims...)
		copy(data.Elements, values)
		years, err = readYears(f, dims[0], opts.FirstYear, report)
		if err != nil {
			return nil, nil, err
		}
	case 3:
		if opts.DaysPerYear <= 0 {
			return nil, nil, fmt.Errorf("variable %q is 3-D (time, lat, lon); days_per_year must be set to split it into seasons", opts.Variable)
		}
		nYear := dims[0] / opts.DaysPerYear
		if nYear == 0 {
			return nil, nil, fmt.Errorf("variable %q has %d time steps, fewer than one season of %d days",
				opts.Variable, dims[0], opts.DaysPerYear)
		}
		if extra := dims[0] - nYear*opts.DaysPerYear; extra > 0 {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("Dropping %d trailing time steps that do not fill a %d-day season.", extra, opts.DaysPerYear))
		}
		data = sparse.ZerosDense(nYear, opts.DaysPerYear, dims[1], dims[2])
		copy(data.Elements, values[:len(data.Elements)])
		years = consecutiveYears(opts.FirstYear, nYear)
	default:
		return nil, nil, fmt.Errorf("variable %q has %d dimensions, expected 3 or 4", opts.Variable, len(dims))
	}

	data, lat, lon, err = orient(data, lat, lon, opts, report)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	field, err := analysis.NewGriddedField(data, years, lat, lon)
	if err != nil {
		return nil, nil, err
	}
	return field, report, nil
}

func hasVariable(f *cdf.File, name string) bool {
	for _, v := range f.Header.Variables() {
		if v == name {
			return true
		}
	}
	return false
}

// readVariable reads a whole variable as float64, whatever its storage type.
func readVariable(f *cdf.File, name string) ([]float64, []int, error) {
	if !hasVariable(f, name) {
		return nil, nil, fmt.Errorf("variable %q not found in NetCDF file", name)
	}
	dims := f.Header.Lengths(name)
	n := 1
	for _, d := range dims {
		n *= d
	}
	if n == 0 {
		return nil, nil, fmt.Errorf("variable %q is empty (dimensions %v)", name, dims)
	}

	r := f.Reader(name, nil, nil)
	buf := r.Zero(n)
	nr, err := r.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("failed to read variable %q: %w", name, err)
	}
	if nr < n {
		return nil, nil, fmt.Errorf("short read of variable %q: got %d of %d values", name, nr, n)
	}

	out := make([]float64, n)
	switch b := buf.(type) {
	case []float64:
		copy(out, b)
	case []float32:
		for i, v := range b {
			out[i] = float64(v)
		}
	case []int32:
		for i, v := range b {
			out[i] = float64(v)
		}
	case []int16:
		for i, v := range b {
			out[i] = float64(v)
		}
	case []int8:
		for i, v := range b {
			out[i] = float64(v)
		}
	case []uint8:
		for i, v := range b {
			out[i] = float64(v)
		}
	default:
		return nil, nil, fmt.Errorf("variable %q has unsupported type %T", name, buf)
	}
	return out, dims, nil
}

// attrFloat returns the first element of a numeric attribute.
func attrFloat(f *cdf.File, v, name string) (float64, bool) {
	switch a := f.Header.GetAttribute(v, name).(type) {
	case []float64:
		if len(a) > 0 {
			return a[0], true
		}
	case []float32:
		if len(a) > 0 {
			return float64(a[0]), true
		}
	case []int32:
		if len(a) > 0 {
			return float64(a[0]), true
		}
	case []int16:
		if len(a) > 0 {
			return float64(a[0]), true
		}
	case []int8:
		if len(a) > 0 {
			return float64(a[0]), true
		}
	}
	return 0, false
}

// unpack replaces fill and missing values with NaN, then applies the CF
// scale_factor and add_offset packing attributes, in place.
func unpack(f *cdf.File, v string, values []float64) {
	fill, hasFill := attrFloat(f, v, "_FillValue")
	missing, hasMissing := attrFloat(f, v, "missing_value")
	scale, hasScale := attrFloat(f, v, "scale_factor")
	offset, hasOffset := attrFloat(f, v, "add_offset")
	if !hasScale {
		scale = 1
	}
	if !hasOffset {
		offset = 0
	}
	for i, x := range values {
		if (hasFill && x == fill) || (hasMissing && x == missing) {
			values[i] = math.NaN()
			continue
		}
		values[i] = x*scale + offset
	}
}

// readYears uses the year coordinate variable when present, otherwise
// numbers the seasons from firstYear.
func readYears(f *cdf.File, nYear, firstYear int, report *LoadReport) ([]int, error) {
	if !hasVariable(f, YearVariable) {
		return consecutiveYears(firstYear, nYear), nil
	}
	vals, _, err := readVariable(f, YearVariable)
	if err != nil {
		return nil, err
	}
	if len(vals) != nYear {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("Ignoring %q coordinate of length %d for %d seasons.", YearVariable, len(vals), nYear))
		return consecutiveYears(firstYear, nYear), nil
	}
	years := make([]int, nYear)
	for i, v := range vals {
		years[i] = int(v)
	}
	return years, nil
}

func consecutiveYears(first, n int) []int {
	years := make([]int, n)
	for i := range years {
		years[i] = first + i
	}
	return years
}
