package analysis

import (
	"math"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// LatitudeWeightsFor returns sqrt(cos(lat)) for each latitude in degrees.
func LatitudeWeightsFor(lat []float64) []float64 {
	w := make([]float64, len(lat))
	for i, l := range lat {
		w[i] = math.Sqrt(math.Cos(l * math.Pi / 180))
	}
	return w
}

// LatitudeOfMaxVariance finds, for every year and longitude, the latitude at
// which the weighted standard deviation of the high-pass signal over the
// valid days is largest. Ties go to the first latitude index (northernmost).
//
// A (year, lat, lon) series with no valid day has NaN standard deviation.
// NaN latitudes are ignored by the maximum search, and a column with no data
// at any latitude gets a NaN CBL.
func LatitudeOfMaxVariance(hp *HighPassField, lat, weights []float64) (*CBLProfile, *WeightedVariance, error) {
	const stage = "LatitudeOfMaxVariance"
	nYear, nDay, nLat, nLon := hp.Dims()
	if len(weights) != nLat {
		return nil, nil, &DimensionMismatchError{Stage: stage, What: "latitude weights", Want: nLat, Got: len(weights)}
	}
	if len(lat) != nLat {
		return nil, nil, &DimensionMismatchError{Stage: stage, What: "latitude axis", Want: nLat, Got: len(lat)}
	}

	cbl := sparse.ZerosDense(nYear, nLon)
	wv := sparse.ZerosDense(nYear, nLat, nLon)
	series := make([]float64, 0, nDay)
	profile := make([]float64, nLat)

	for y := 0; y < nYear; y++ {
		for j := 0; j < nLon; j++ {
			for i := 0; i < nLat; i++ {
				series = series[:0]
				for d := 0; d < nDay; d++ {
					if hp.Valid(y, d, i, j) {
						series = append(series, hp.At(y, d, i, j))
					}
				}
				if len(series) == 0 {
					profile[i] = math.NaN()
				} else {
					profile[i] = stat.PopStdDev(series, nil)
				}
			}
			floats.Mul(profile, weights)
			for i, v := range profile {
				wv.Elements[(y*nLat+i)*nLon+j] = v
			}
			cbl.Elements[y*nLon+j] = latitudeOfMax(profile, lat)
		}
	}

	profiles := &CBLProfile{Profile{
		Data:  cbl,
		Years: append([]int(nil), hp.Years...),
		Lon:   append([]float64(nil), hp.Lon...),
	}}
	variance := &WeightedVariance{
		Data:  wv,
		Years: append([]int(nil), hp.Years...),
		Lat:   append([]float64(nil), lat...),
		Lon:   append([]float64(nil), hp.Lon...),
	}
	return profiles, variance, nil
}

// latitudeOfMax returns lat at the first index of the largest non-NaN
// profile value, or NaN if every value is NaN.
func latitudeOfMax(profile, lat []float64) float64 {
	for _, v := range profile {
		if !math.IsNaN(v) {
			return lat[floats.MaxIdx(profile)]
		}
	}
	return math.NaN()
}
