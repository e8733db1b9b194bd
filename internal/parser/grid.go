package parser

import (
	"fmt"
	"math"
	"sort"

	"github.com/ctessum/sparse"
)

// normalizeLongitude maps lon onto [0, 360).
func normalizeLongitude(lon float64) float64 {
	l := math.Mod(lon, 360)
	if l < 0 {
		l += 360
	}
	return l
}

// orient reorders a (year, day, lat, lon) array so that latitude runs North
// to South inside the requested band, and longitude runs ascending over
// [0, 360). The input array is not modified.
func orient(data *sparse.DenseArray, lat, lon []float64, opts Options, report *LoadReport) (*sparse.DenseArray, []float64, []float64, error) {
	latIdx := make([]int, 0, len(lat))
	for i, l := range lat {
		if opts.hasLatBand() && (l < opts.LatMin || l > opts.LatMax) {
			report.DroppedLatitude++
			continue
		}
		latIdx = append(latIdx, i)
	}
	if len(latIdx) == 0 {
		return nil, nil, nil, fmt.Errorf("no latitudes within [%g, %g]", opts.LatMin, opts.LatMax)
	}
	sort.SliceStable(latIdx, func(a, b int) bool { return lat[latIdx[a]] > lat[latIdx[b]] })
	if len(lat) > 1 && lat[0] < lat[len(lat)-1] {
		report.FlippedLat = true
	}

	lonIdx := make([]int, len(lon))
	wrapped := make([]float64, len(lon))
	for j, l := range lon {
		lonIdx[j] = j
		wrapped[j] = normalizeLongitude(l)
		if wrapped[j] != l {
			report.WrappedLon = true
		}
	}
	sort.SliceStable(lonIdx, func(a, b int) bool { return wrapped[lonIdx[a]] < wrapped[lonIdx[b]] })
	for k := 1; k < len(lonIdx); k++ {
		if wrapped[lonIdx[k]] == wrapped[lonIdx[k-1]] {
			return nil, nil, nil, fmt.Errorf("longitudes %g and %g refer to the same meridian",
				lon[lonIdx[k-1]], lon[lonIdx[k]])
		}
	}

	nYear, nDay, nLat, nLon := data.Shape[0], data.Shape[1], data.Shape[2], data.Shape[3]
	out := sparse.ZerosDense(nYear, nDay, len(latIdx), nLon)
	outLat := make([]float64, len(latIdx))
	for i, src := range latIdx {
		outLat[i] = lat[src]
	}
	outLon := make([]float64, nLon)
	for j, src := range lonIdx {
		outLon[j] = wrapped[src]
	}

	for y := 0; y < nYear; y++ {
		for d := 0; d < nDay; d++ {
			for i, si := range latIdx {
				srcRow := ((y*nDay+d)*nLat + si) * nLon
				dstRow := ((y*nDay+d)*len(latIdx) + i) * nLon
				for j, sj := range lonIdx {
					out.Elements[dstRow+j] = data.Elements[srcRow+sj]
				}
			}
		}
	}
	for _, v := range out.Elements {
		if math.IsNaN(v) {
			report.MissingCells++
		}
	}
	return out, outLat, outLon, nil
}
