package analysis

import (
	"math"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/stat"
)

// HighPassFilter subtracts a centred (2m+1)-day running mean from every
// grid-point time series of field. The day axis is bounded, not periodic: the
// first m and last m days of each season have no centred window and are
// returned as invalid. A result that is NaN because the raw input held a
// missing value is also flagged invalid.
func HighPassFilter(field *GriddedField, m int) (*HighPassField, error) {
	nYear, nDay, nLat, nLon := field.Dims()
	if m < 0 || nDay <= 2*m {
		return nil, &InsufficientDataError{Stage: "HighPassFilter", Axis: "day", Length: nDay, HalfWindow: m}
	}

	out := sparse.ZerosDense(nYear, nDay, nLat, nLon)
	valid := make([]bool, len(out.Elements))
	src := field.Data.Elements
	series := make([]float64, nDay)
	diffs := make([]float64, 2*m+1)
	dayStride := nLat * nLon

	for y := 0; y < nYear; y++ {
		base := y * nDay * dayStride
		for i := 0; i < nLat; i++ {
			for j := 0; j < nLon; j++ {
				cell := base + i*nLon + j
				for d := 0; d < nDay; d++ {
					series[d] = src[cell+d*dayStride]
				}
				for d := 0; d < nDay; d++ {
					k := cell + d*dayStride
					if d < m || d >= nDay-m {
						out.Elements[k] = math.NaN()
						continue
					}
					// mean of differences from the centre day, exact for
					// a constant series
					for w := range diffs {
						diffs[w] = series[d-m+w] - series[d]
					}
					v := -stat.Mean(diffs, nil)
					out.Elements[k] = v
					valid[k] = !math.IsNaN(v)
				}
			}
		}
	}
	return &HighPassField{
		values:     out,
		valid:      valid,
		HalfWindow: m,
		Years:      append([]int(nil), field.Years...),
		Lat:        append([]float64(nil), field.Lat...),
		Lon:        append([]float64(nil), field.Lon...),
	}, nil
}
