package analysis

import (
	"math"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// CircularSmoother averages each year's CBL profile over a (2m+1)-point
// window along longitude, wrapping indices modulo the axis length, and
// truncates the mean toward zero to whole degrees. A window that contains a
// NaN produces NaN.
func CircularSmoother(cbl *CBLProfile, m int) (*SmoothedCBLProfile, error) {
	nYear, nLon := cbl.Dims()
	if m < 0 || nLon <= 2*m {
		return nil, &InsufficientDataError{Stage: "CircularSmoother", Axis: "longitude", Length: nLon, HalfWindow: m}
	}

	out := sparse.ZerosDense(nYear, nLon)
	window := make([]float64, 2*m+1)
	for y := 0; y < nYear; y++ {
		row := cbl.Data.Elements[y*nLon : (y+1)*nLon]
		for j := 0; j < nLon; j++ {
			for k := -m; k <= m; k++ {
				window[k+m] = row[wrapIndex(j+k, nLon)]
			}
			if floats.HasNaN(window) {
				out.Elements[y*nLon+j] = math.NaN()
				continue
			}
			out.Elements[y*nLon+j] = math.Trunc(stat.Mean(window, nil))
		}
	}

	return &SmoothedCBLProfile{
		Profile: Profile{
			Data:  out,
			Years: append([]int(nil), cbl.Years...),
			Lon:   append([]float64(nil), cbl.Lon...),
		},
		HalfWindow: m,
	}, nil
}

// wrapIndex maps i onto 0..n-1 for a periodic axis of length n.
func wrapIndex(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
