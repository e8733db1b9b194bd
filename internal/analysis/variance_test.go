package analysis

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/ctessum/sparse"
)

func TestLatitudeWeightsFor(t *testing.T) {
	lat := []float64{90, 60, 45, 0, -60}
	expected := []float64{0, math.Sqrt(0.5), math.Pow(0.5, 0.25), 1, math.Sqrt(0.5)}

	w := LatitudeWeightsFor(lat)
	if len(w) != len(lat) {
		t.Fatalf("expected %d weights, got %d", len(lat), len(w))
	}
	for i := range w {
		if math.Abs(w[i]-expected[i]) > 1e-7 {
			t.Errorf("weight for %.0f°: expected %.8f, got %.8f", lat[i], expected[i], w[i])
		}
	}
}

// alternating returns a day-to-day oscillation of the given amplitude.
func alternating(d int, amp float64) float64 {
	if d%2 == 0 {
		return amp
	}
	return -amp
}

func TestLatitudeOfMaxVariancePeak(t *testing.T) {
	const nLat = 5
	for k := 0; k < nLat; k++ {
		t.Run(fmt.Sprintf("peak at index %d", k), func(t *testing.T) {
			// Amplitude falls by 4x per index away from k, more than the
			// largest ratio between two latitude weights.
			field := newTestField(t, 3, 15, nLat, 6, func(y, d, i, j int) float64 {
				dist := math.Abs(float64(i - k))
				return 5500 + alternating(d, 100*math.Pow(4, -dist))
			})
			hp, err := HighPassFilter(field, 2)
			if err != nil {
				t.Fatalf("HighPassFilter: %v", err)
			}
			cbl, wv, err := LatitudeOfMaxVariance(hp, field.Lat, LatitudeWeightsFor(field.Lat))
			if err != nil {
				t.Fatalf("LatitudeOfMaxVariance: %v", err)
			}

			nYear, nLon := cbl.Dims()
			if nYear != 3 || nLon != 6 {
				t.Fatalf("CBL shape = (%d,%d), expected (3,6)", nYear, nLon)
			}
			if s := wv.Data.Shape; s[0] != 3 || s[1] != nLat || s[2] != 6 {
				t.Fatalf("variance shape = %v, expected [3 %d 6]", s, nLat)
			}
			for y := 0; y < nYear; y++ {
				for j := 0; j < nLon; j++ {
					if got := cbl.At(y, j); got != field.Lat[k] {
						t.Errorf("CBL(%d,%d) = %v, expected %v", y, j, got, field.Lat[k])
					}
				}
			}
		})
	}
}

func TestLatitudeOfMaxVarianceTieBreak(t *testing.T) {
	// Symmetric latitudes carry identical weights, so equal amplitudes at
	// 60N and 60S tie exactly.
	data := sparse.ZerosDense(1, 9, 5, 2)
	lat := []float64{60, 30, 0, -30, -60}
	for d := 0; d < 9; d++ {
		for j := 0; j < 2; j++ {
			data.Set(alternating(d, 10), 0, d, 0, j)
			data.Set(alternating(d, 10), 0, d, 4, j)
		}
	}
	field, err := NewGriddedField(data, []int{2000}, lat, []float64{0, 180})
	if err != nil {
		t.Fatalf("NewGriddedField: %v", err)
	}
	hp, err := HighPassFilter(field, 2)
	if err != nil {
		t.Fatalf("HighPassFilter: %v", err)
	}
	cbl, _, err := LatitudeOfMaxVariance(hp, lat, LatitudeWeightsFor(lat))
	if err != nil {
		t.Fatalf("LatitudeOfMaxVariance: %v", err)
	}
	for j := 0; j < 2; j++ {
		if got := cbl.At(0, j); got != 60 {
			t.Errorf("CBL(0,%d) = %v, expected first maximum at 60", j, got)
		}
	}
}

func TestLatitudeOfMax(t *testing.T) {
	lat := []float64{80, 70, 60, 50}
	tests := []struct {
		name     string
		profile  []float64
		expected float64
	}{
		{name: "unique maximum", profile: []float64{1, 2, 5, 3}, expected: 60},
		{name: "tie takes first index", profile: []float64{1, 3, 3, 2}, expected: 70},
		{name: "all zero", profile: []float64{0, 0, 0, 0}, expected: 80},
		{name: "NaN skipped", profile: []float64{math.NaN(), 2, math.NaN(), 1}, expected: 70},
		{name: "NaN before maximum", profile: []float64{math.NaN(), 1, 1, 4}, expected: 50},
		{name: "all NaN", profile: []float64{math.NaN(), math.NaN(), math.NaN(), math.NaN()}, expected: math.NaN()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := latitudeOfMax(tt.profile, lat)
			if math.IsNaN(tt.expected) {
				if !math.IsNaN(got) {
					t.Errorf("expected NaN, got %v", got)
				}
				return
			}
			if got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestLatitudeOfMaxVarianceDimensionMismatch(t *testing.T) {
	field := newTestField(t, 1, 7, 4, 3, func(y, d, i, j int) float64 { return alternating(d, 1) })
	hp, err := HighPassFilter(field, 1)
	if err != nil {
		t.Fatalf("HighPassFilter: %v", err)
	}

	tests := []struct {
		name    string
		lat     []float64
		weights []float64
	}{
		{name: "short weights", lat: field.Lat, weights: []float64{1, 1, 1}},
		{name: "long weights", lat: field.Lat, weights: []float64{1, 1, 1, 1, 1}},
		{name: "short latitude axis", lat: field.Lat[:2], weights: []float64{1, 1, 1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cbl, wv, err := LatitudeOfMaxVariance(hp, tt.lat, tt.weights)
			var mismatch *DimensionMismatchError
			if !errors.As(err, &mismatch) {
				t.Fatalf("expected *DimensionMismatchError, got %v", err)
			}
			if cbl != nil || wv != nil {
				t.Errorf("expected no partial results")
			}
			if mismatch.Want != 4 {
				t.Errorf("Want = %d, expected 4", mismatch.Want)
			}
		})
	}
}

func TestLatitudeOfMaxVarianceNoValidDays(t *testing.T) {
	values := sparse.ZerosDense(1, 3, 2, 2)
	hp := &HighPassField{
		values: values,
		valid:  make([]bool, len(values.Elements)),
		Years:  []int{1990},
		Lat:    []float64{60, 50},
		Lon:    []float64{0, 180},
	}
	// Latitude 50 at longitude 180 has data; everything else does not.
	for d := 0; d < 3; d++ {
		k := hp.offset(0, d, 1, 1)
		hp.values.Elements[k] = float64(d)
		hp.valid[k] = true
	}

	cbl, wv, err := LatitudeOfMaxVariance(hp, hp.Lat, []float64{1, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v := wv.Data.Get(0, 0, 0); !math.IsNaN(v) {
		t.Errorf("weighted std with no valid days = %v, expected NaN", v)
	}
	if v := wv.Data.Get(0, 0, 1); !math.IsNaN(v) {
		t.Errorf("weighted std at (60,180) = %v, expected NaN", v)
	}
	if v := wv.Data.Get(0, 1, 1); math.Abs(v-math.Sqrt(2.0/3.0)) > 1e-12 {
		t.Errorf("weighted std at (50,180) = %v, expected %v", v, math.Sqrt(2.0/3.0))
	}
	if v := cbl.At(0, 0); !math.IsNaN(v) {
		t.Errorf("CBL with no data at any latitude = %v, expected NaN", v)
	}
	if v := cbl.At(0, 1); v != 50 {
		t.Errorf("CBL at 180 = %v, expected 50", v)
	}
}
