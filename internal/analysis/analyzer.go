package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// validValues returns the non-NaN entries of data.
func validValues(data []float64) []float64 {
	valid := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}
	return valid
}

// nanMean is the mean of the non-NaN entries, NaN if there are none.
func nanMean(data []float64) float64 {
	valid := validValues(data)
	if len(valid) == 0 {
		return math.NaN()
	}
	return stat.Mean(valid, nil)
}

// nanPopStdDev is the population standard deviation of the non-NaN entries.
// numpy.nanstd semantics: a single value gives 0, no values give NaN.
func nanPopStdDev(data []float64) float64 {
	valid := validValues(data)
	if len(valid) == 0 {
		return math.NaN()
	}
	return stat.PopStdDev(valid, nil)
}

// Run executes the CBL pipeline on field: high-pass filter, weighted
// variance maximisation and circular smoothing. It fails before computing
// anything if either window does not fit its axis.
func Run(field *GriddedField, p Params) (*Result, error) {
	if field == nil || field.Data == nil {
		return nil, fmt.Errorf("field is nil, cannot analyze")
	}
	_, nDay, _, nLon := field.Dims()
	// both axes are checked before any work, the day axis first
	if p.HighPassHalfWindow < 0 || nDay <= 2*p.HighPassHalfWindow {
		return nil, &InsufficientDataError{Stage: "HighPassFilter", Axis: "day", Length: nDay, HalfWindow: p.HighPassHalfWindow}
	}
	if p.SmoothHalfWindow < 0 || nLon <= 2*p.SmoothHalfWindow {
		return nil, &InsufficientDataError{Stage: "CircularSmoother", Axis: "longitude", Length: nLon, HalfWindow: p.SmoothHalfWindow}
	}

	hp, err := HighPassFilter(field, p.HighPassHalfWindow)
	if err != nil {
		return nil, err
	}
	weights := LatitudeWeightsFor(field.Lat)
	cbl, variance, err := LatitudeOfMaxVariance(hp, field.Lat, weights)
	if err != nil {
		return nil, err
	}
	smoothed, err := CircularSmoother(cbl, p.SmoothHalfWindow)
	if err != nil {
		return nil, err
	}

	return &Result{
		Params:   p,
		Years:    append([]int(nil), field.Years...),
		Lat:      append([]float64(nil), field.Lat...),
		Lon:      append([]float64(nil), field.Lon...),
		NumDays:  nDay,
		Weights:  weights,
		CBL:      cbl,
		Smoothed: smoothed,
		Variance: variance,
	}, nil
}

// Climatology returns the time mean and inter-annual standard deviation of
// the smoothed CBL at each longitude. Years with no data are skipped.
func (r *Result) Climatology() *Climatology {
	nYear, nLon := r.Smoothed.Dims()
	c := &Climatology{
		Lon:    append([]float64(nil), r.Lon...),
		Mean:   make([]float64, nLon),
		StdDev: make([]float64, nLon),
	}
	column := make([]float64, nYear)
	for j := 0; j < nLon; j++ {
		for y := 0; y < nYear; y++ {
			column[y] = r.Smoothed.At(y, j)
		}
		c.Mean[j] = nanMean(column)
		c.StdDev[j] = nanPopStdDev(column)
	}
	return c
}

// ZonalMean returns the longitude-mean smoothed CBL of each year.
func (r *Result) ZonalMean() []float64 {
	nYear, _ := r.Smoothed.Dims()
	out := make([]float64, nYear)
	for y := range out {
		out[y] = nanMean(r.Smoothed.Row(y))
	}
	return out
}
