package report

import (
	"fmt"
	"os"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"

	"github.com/user/cbl_analyzer_go/internal/analysis"
)

type dataHolder struct {
	dims        []string
	Description string
	Units       string
	data        *sparse.DenseArray
}

// WriteNetCDF stores the pipeline outputs and their coordinates in a NetCDF
// classic file. Missing values are NaN.
func WriteNetCDF(path string, res *analysis.Result) error {
	if res == nil || res.CBL == nil || res.Smoothed == nil || res.Variance == nil {
		return fmt.Errorf("no analysis results to write")
	}
	nYear, nLat, nLon := len(res.Years), len(res.Lat), len(res.Lon)

	h := cdf.NewHeader(
		[]string{"year", "lat", "lon"},
		[]int{nYear, nLat, nLon})
	h.AddAttribute("", "comment", "Central blocking latitude")
	h.AddAttribute("", "highpass_half_window", []int32{int32(res.Params.HighPassHalfWindow)})
	h.AddAttribute("", "smooth_half_window", []int32{int32(res.Params.SmoothHalfWindow)})
	h.AddAttribute("", "days_per_season", []int32{int32(res.NumDays)})

	data := map[string]dataHolder{
		"cbl": {[]string{"year", "lon"},
			"Latitude of maximum weighted high-pass standard deviation", "degrees_north", res.CBL.Data},
		"cbl_smooth": {[]string{"year", "lon"},
			fmt.Sprintf("CBL smoothed over %d longitudes, truncated to whole degrees", 2*res.Smoothed.HalfWindow+1),
			"degrees_north", res.Smoothed.Data},
		"weighted_std": {[]string{"year", "lat", "lon"},
			"Latitude-weighted standard deviation of the high-pass field", "", res.Variance.Data},
		"weighted_std_mean": {[]string{"lat", "lon"},
			"Time mean of weighted_std", "", res.Variance.TimeMean()},
	}
	for name, d := range data {
		h.AddVariable(name, d.dims, []float32{0})
		h.AddAttribute(name, "description", d.Description)
		if d.Units != "" {
			h.AddAttribute(name, "units", d.Units)
		}
	}
	h.AddVariable("year", []string{"year"}, []int32{0})
	h.AddVariable("lat", []string{"lat"}, []float32{0})
	h.AddAttribute("lat", "units", "degrees_north")
	h.AddVariable("lon", []string{"lon"}, []float32{0})
	h.AddAttribute("lon", "units", "degrees_east")
	h.AddAttribute("lon", "description", "Ascending from 0; the last column wraps to the first")
	h.Define()

	ff, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create NetCDF file: %w", err)
	}
	defer ff.Close()
	f, err := cdf.Create(ff, h) // writes the header to ff
	if err != nil {
		return fmt.Errorf("failed to write NetCDF header: %w", err)
	}

	for name, d := range data {
		if err := writeNCF(f, name, toFloat32(d.data.Elements)); err != nil {
			return err
		}
	}
	years := make([]int32, nYear)
	for y, v := range res.Years {
		years[y] = int32(v)
	}
	if err := writeNCF(f, "year", years); err != nil {
		return err
	}
	if err := writeNCF(f, "lat", toFloat32(res.Lat)); err != nil {
		return err
	}
	if err := writeNCF(f, "lon", toFloat32(res.Lon)); err != nil {
		return err
	}
	return ff.Close()
}

func writeNCF(f *cdf.File, name string, data interface{}) error {
	end := f.Header.Lengths(name)
	start := make([]int, len(end))
	w := f.Writer(name, start, end)
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write NetCDF variable %q: %w", name, err)
	}
	return nil
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, e := range v {
		out[i] = float32(e)
	}
	return out
}
