package analysis

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/ctessum/sparse"
)

func TestRunSingleNoisyLatitude(t *testing.T) {
	const noisy = 2
	rng := rand.New(rand.NewSource(7))
	field := newTestField(t, 2, 11, 5, 8, func(y, d, i, j int) float64 {
		if i == noisy {
			return 5400 + 80*rng.NormFloat64()
		}
		return 5600 - 20*float64(i)
	})
	before := append([]float64(nil), field.Data.Elements...)

	res, err := Run(field, Params{HighPassHalfWindow: 2, SmoothHalfWindow: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := field.Lat[noisy]
	nYear, nLon := res.CBL.Dims()
	if nYear != 2 || nLon != 8 {
		t.Fatalf("CBL shape = (%d,%d), expected (2,8)", nYear, nLon)
	}
	sYear, sLon := res.Smoothed.Dims()
	if sYear != nYear || sLon != nLon {
		t.Fatalf("smoothed shape = (%d,%d), expected (%d,%d)", sYear, sLon, nYear, nLon)
	}
	for y := 0; y < nYear; y++ {
		for j := 0; j < nLon; j++ {
			if got := res.CBL.At(y, j); got != want {
				t.Errorf("CBL(%d,%d) = %v, expected %v", y, j, got, want)
			}
			if got := res.Smoothed.At(y, j); got != want {
				t.Errorf("smoothed CBL(%d,%d) = %v, expected %v", y, j, got, want)
			}
		}
	}
	if res.Smoothed.HalfWindow != 1 || res.NumDays != 11 {
		t.Errorf("HalfWindow=%d NumDays=%d, expected 1 and 11", res.Smoothed.HalfWindow, res.NumDays)
	}
	if len(res.Weights) != 5 {
		t.Errorf("expected 5 latitude weights, got %d", len(res.Weights))
	}
	for k, v := range field.Data.Elements {
		if v != before[k] {
			t.Fatalf("input element %d changed", k)
		}
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name   string
		nDay   int
		nLon   int
		params Params
		stage  string
		axis   string
	}{
		{name: "four-day season", nDay: 4, nLon: 8, params: Params{HighPassHalfWindow: 2, SmoothHalfWindow: 1}, stage: "HighPassFilter", axis: "day"},
		{name: "default smoother on 8 longitudes", nDay: 11, nLon: 8, params: DefaultParams(), stage: "CircularSmoother", axis: "longitude"},
		{name: "day axis reported before longitude", nDay: 4, nLon: 4, params: DefaultParams(), stage: "HighPassFilter", axis: "day"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field := newTestField(t, 1, tt.nDay, 3, tt.nLon, func(y, d, i, j int) float64 { return float64(d) })
			res, err := Run(field, tt.params)
			if res != nil {
				t.Errorf("expected no result")
			}
			var insufficient *InsufficientDataError
			if !errors.As(err, &insufficient) {
				t.Fatalf("expected *InsufficientDataError, got %v", err)
			}
			if insufficient.Stage != tt.stage {
				t.Errorf("Stage = %q, expected %q", insufficient.Stage, tt.stage)
			}
			if insufficient.Axis != tt.axis {
				t.Errorf("Axis = %q, expected %q", insufficient.Axis, tt.axis)
			}
		})
	}

	if _, err := Run(nil, DefaultParams()); err == nil {
		t.Errorf("expected error for nil field")
	}
}

func TestNewGriddedField(t *testing.T) {
	tests := []struct {
		name    string
		data    *sparse.DenseArray
		years   []int
		lat     []float64
		lon     []float64
		wantErr bool
	}{
		{name: "valid", data: sparse.ZerosDense(2, 5, 2, 3), years: []int{1980, 1981}, lat: []float64{60, 50}, lon: []float64{0, 120, 240}},
		{name: "default years", data: sparse.ZerosDense(2, 5, 2, 3), lat: []float64{60, 50}, lon: []float64{0, 120, 240}},
		{name: "3-D data", data: sparse.ZerosDense(5, 2, 3), lat: []float64{60, 50}, lon: []float64{0, 120, 240}, wantErr: true},
		{name: "wrong year count", data: sparse.ZerosDense(2, 5, 2, 3), years: []int{1980}, lat: []float64{60, 50}, lon: []float64{0, 120, 240}, wantErr: true},
		{name: "wrong latitude count", data: sparse.ZerosDense(2, 5, 2, 3), lat: []float64{60}, lon: []float64{0, 120, 240}, wantErr: true},
		{name: "wrong longitude count", data: sparse.ZerosDense(2, 5, 2, 3), lat: []float64{60, 50}, lon: []float64{0}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewGriddedField(tt.data, tt.years, tt.lat, tt.lon)
			if tt.wantErr {
				var mismatch *DimensionMismatchError
				if !errors.As(err, &mismatch) {
					t.Fatalf("expected *DimensionMismatchError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(f.Years) != 2 {
				t.Errorf("expected 2 years, got %v", f.Years)
			}
		})
	}
}

func TestResultClimatologyAndZonalMean(t *testing.T) {
	nan := math.NaN()
	cbl := mustProfile(t,
		[]float64{50, 52, nan, 40},
		[]float64{54, 52, nan, 44},
		[]float64{nan, 58, nan, 48},
	)
	res := &Result{
		Lon:      cbl.Lon,
		Smoothed: &SmoothedCBLProfile{Profile: cbl.Profile, HalfWindow: 0},
	}

	clim := res.Climatology()
	wantMean := []float64{52, 54, nan, 44}
	wantStd := []float64{2, math.Sqrt(8), nan, math.Sqrt(32.0 / 3.0)}
	for j := range wantMean {
		if !closeOrBothNaN(clim.Mean[j], wantMean[j], 1e-12) {
			t.Errorf("mean at lon %d: expected %v, got %v", j, wantMean[j], clim.Mean[j])
		}
		if !closeOrBothNaN(clim.StdDev[j], wantStd[j], 1e-12) {
			t.Errorf("std at lon %d: expected %v, got %v", j, wantStd[j], clim.StdDev[j])
		}
	}

	zonal := res.ZonalMean()
	wantZonal := []float64{142.0 / 3.0, 50, 53}
	for y := range wantZonal {
		if !closeOrBothNaN(zonal[y], wantZonal[y], 1e-12) {
			t.Errorf("zonal mean year %d: expected %v, got %v", y, wantZonal[y], zonal[y])
		}
	}
}

func TestWeightedVarianceTimeMean(t *testing.T) {
	data := sparse.ZerosDense(2, 1, 3)
	data.Set(1, 0, 0, 0)
	data.Set(3, 1, 0, 0)
	data.Set(math.NaN(), 0, 0, 1)
	data.Set(5, 1, 0, 1)
	data.Set(math.NaN(), 0, 0, 2)
	data.Set(math.NaN(), 1, 0, 2)
	wv := &WeightedVariance{Data: data}

	mean := wv.TimeMean()
	if s := mean.Shape; len(s) != 2 || s[0] != 1 || s[1] != 3 {
		t.Fatalf("shape = %v, expected [1 3]", s)
	}
	want := []float64{2, 5, math.NaN()}
	for j, w := range want {
		if !closeOrBothNaN(mean.Get(0, j), w, 0) {
			t.Errorf("lon %d: expected %v, got %v", j, w, mean.Get(0, j))
		}
	}
}

func closeOrBothNaN(got, want, eps float64) bool {
	if math.IsNaN(want) {
		return math.IsNaN(got)
	}
	return math.Abs(got-want) <= eps
}
