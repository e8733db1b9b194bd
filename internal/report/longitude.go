package report

import "sort"

// SignedLongitudes re-expresses longitudes given in [0, 360) on the signed
// range [-180, 180) and returns the permutation that puts them in ascending
// order: signed[k] is the display longitude of native column order[k].
func SignedLongitudes(lon []float64) (order []int, signed []float64) {
	wrapped := make([]float64, len(lon))
	order = make([]int, len(lon))
	for j, l := range lon {
		if l >= 180 {
			l -= 360
		}
		wrapped[j] = l
		order[j] = j
	}
	sort.SliceStable(order, func(a, b int) bool { return wrapped[order[a]] < wrapped[order[b]] })

	signed = make([]float64, len(lon))
	for k, j := range order {
		signed[k] = wrapped[j]
	}
	return order, signed
}
