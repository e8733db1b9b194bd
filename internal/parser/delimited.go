package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ctessum/sparse"

	"github.com/user/cbl_analyzer_go/internal/analysis"
)

// DefaultValueColumn is tried when the configured variable has no column.
const DefaultValueColumn = "value"

type cellKey struct {
	year, day int
	lat, lon  float64
}

// LoadDelimited reads a long-format CSV or TSV file with one row per grid
// cell: year, day, lat, lon and the field value. The day column is the
// ordinal of the day within the season. Cells absent from the file are NaN.
// Rows that cannot be parsed are skipped and recorded as warnings.
func LoadDelimited(path string, opts Options) (*analysis.GriddedField, *LoadReport, error) {
	opts = opts.withDefaults()
	report := NewLoadReport(path, "delimited")

	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open delimited file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		reader.Comma = '\t'
	}

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("%s: file is empty", path)
		}
		return nil, nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}
	cols, err := headerColumns(header, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	report.Variable = header[cols[4]]

	cells := make(map[cellKey]float64)
	years := make(map[int]bool)
	days := make(map[int]bool)
	lats := make(map[float64]bool)
	lons := make(map[float64]bool)

	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("Row %d: %v. Skipped.", line, err))
			continue
		}
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}
		key, value, err := parseRow(row, cols)
		if err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("Row %d: %v. Skipped.", line, err))
			continue
		}
		if _, dup := cells[key]; dup {
			report.Warnings = append(report.Warnings, fmt.Sprintf(
				"Row %d: duplicate cell (year %d, day %d, lat %g, lon %g). Keeping the first value.",
				line, key.year, key.day, key.lat, key.lon))
			continue
		}
		cells[key] = value
		years[key.year] = true
		days[key.day] = true
		lats[key.lat] = true
		lons[key.lon] = true
	}
	if len(cells) == 0 {
		return nil, nil, fmt.Errorf("%s: no data rows parsed", path)
	}

	yearAxis := sortedInts(years)
	dayAxis := sortedInts(days)
	latAxis := sortedFloats(lats)
	// North to South.
	for l, r := 0, len(latAxis)-1; l < r; l, r = l+1, r-1 {
		latAxis[l], latAxis[r] = latAxis[r], latAxis[l]
	}
	lonAxis := sortedFloats(lons)
	for k := 1; k < len(dayAxis); k++ {
		if dayAxis[k] != dayAxis[k-1]+1 {
			report.Warnings = append(report.Warnings, fmt.Sprintf(
				"Day axis has a gap between day %d and day %d; the days in between are treated as absent.",
				dayAxis[k-1], dayAxis[k]))
		}
	}

	yIdx := indexInts(yearAxis)
	dIdx := indexInts(dayAxis)
	iIdx := indexFloats(latAxis)
	jIdx := indexFloats(lonAxis)
	data := sparse.ZerosDense(len(yearAxis), len(dayAxis), len(latAxis), len(lonAxis))
	for k := range data.Elements {
		data.Elements[k] = math.NaN()
	}
	for key, v := range cells {
		data.Set(v, yIdx[key.year], dIdx[key.day], iIdx[key.lat], jIdx[key.lon])
	}

	data, latAxis, lonAxis, err = orient(data, latAxis, lonAxis, opts, report)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	field, err := analysis.NewGriddedField(data, yearAxis, latAxis, lonAxis)
	if err != nil {
		return nil, nil, err
	}
	return field, report, nil
}

// headerColumns locates the year, day, lat, lon and value columns,
// ignoring case.
func headerColumns(header []string, opts Options) ([5]int, error) {
	var cols [5]int
	find := func(names ...string) int {
		for _, name := range names {
			for k, h := range header {
				if strings.EqualFold(strings.TrimSpace(h), name) {
					return k
				}
			}
		}
		return -1
	}
	wanted := [][]string{
		{opts.YearColumn},
		{opts.DayColumn},
		{opts.LatName},
		{opts.LonName},
		{opts.Variable, DefaultValueColumn},
	}
	for k, names := range wanted {
		cols[k] = find(names...)
		if cols[k] < 0 {
			return cols, fmt.Errorf("header %v has no %q column", header, names[0])
		}
	}
	return cols, nil
}

func parseRow(row []string, cols [5]int) (cellKey, float64, error) {
	var key cellKey
	field := func(k int) (string, error) {
		if cols[k] >= len(row) {
			return "", fmt.Errorf("expected at least %d fields, found %d", cols[k]+1, len(row))
		}
		return strings.TrimSpace(row[cols[k]]), nil
	}

	s, err := field(0)
	if err != nil {
		return key, 0, err
	}
	if key.year, err = strconv.Atoi(s); err != nil {
		return key, 0, fmt.Errorf("invalid year %q", s)
	}
	if s, err = field(1); err != nil {
		return key, 0, err
	}
	if key.day, err = strconv.Atoi(s); err != nil {
		return key, 0, fmt.Errorf("invalid day %q", s)
	}
	if s, err = field(2); err != nil {
		return key, 0, err
	}
	if key.lat, err = strconv.ParseFloat(s, 64); err != nil || math.IsNaN(key.lat) {
		return key, 0, fmt.Errorf("invalid latitude %q", s)
	}
	if s, err = field(3); err != nil {
		return key, 0, err
	}
	if key.lon, err = strconv.ParseFloat(s, 64); err != nil || math.IsNaN(key.lon) {
		return key, 0, fmt.Errorf("invalid longitude %q", s)
	}
	if s, err = field(4); err != nil {
		return key, 0, err
	}
	if s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "na") {
		return key, math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return key, 0, fmt.Errorf("invalid value %q", s)
	}
	return key, v, nil
}

func sortedInts(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

func sortedFloats(set map[float64]bool) []float64 {
	out := make([]float64, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Float64s(out)
	return out
}

func indexInts(axis []int) map[int]int {
	idx := make(map[int]int, len(axis))
	for k, v := range axis {
		idx[v] = k
	}
	return idx
}

func indexFloats(axis []float64) map[float64]int {
	idx := make(map[float64]int, len(axis))
	for k, v := range axis {
		idx[v] = k
	}
	return idx
}
