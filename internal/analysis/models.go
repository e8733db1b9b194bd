package analysis

import "github.com/ctessum/sparse"

const (
	DefaultHighPassHalfWindow = 2 // 5-day centred running mean
	DefaultSmoothHalfWindow   = 4 // 9-point longitude smoother
)

// Params holds the window sizes for the CBL pipeline.
type Params struct {
	HighPassHalfWindow int
	SmoothHalfWindow   int
}

// DefaultParams returns the 5-day high-pass and 9-point smoothing windows.
func DefaultParams() Params {
	return Params{
		HighPassHalfWindow: DefaultHighPassHalfWindow,
		SmoothHalfWindow:   DefaultSmoothHalfWindow,
	}
}

// GriddedField is a daily scalar field indexed by (year, day, lat, lon).
// Latitude runs North to South and longitude is in its native periodic order
// (conventionally 0..359). The pipeline never writes to Data.
type GriddedField struct {
	Data  *sparse.DenseArray
	Years []int
	Lat   []float64
	Lon   []float64
}

// NewGriddedField checks that data is 4-D and agrees with the axes. A nil or
// empty years slice is replaced by 0..nYear-1. The axis slices are copied.
func NewGriddedField(data *sparse.DenseArray, years []int, lat, lon []float64) (*GriddedField, error) {
	const stage = "NewGriddedField"
	if data == nil || len(data.Shape) != 4 {
		got := 0
		if data != nil {
			got = len(data.Shape)
		}
		return nil, &DimensionMismatchError{Stage: stage, What: "field rank", Want: 4, Got: got}
	}
	nYear, nLat, nLon := data.Shape[0], data.Shape[2], data.Shape[3]
	if len(years) == 0 {
		years = make([]int, nYear)
		for i := range years {
			years[i] = i
		}
	}
	if len(years) != nYear {
		return nil, &DimensionMismatchError{Stage: stage, What: "year axis", Want: nYear, Got: len(years)}
	}
	if len(lat) != nLat {
		return nil, &DimensionMismatchError{Stage: stage, What: "latitude axis", Want: nLat, Got: len(lat)}
	}
	if len(lon) != nLon {
		return nil, &DimensionMismatchError{Stage: stage, What: "longitude axis", Want: nLon, Got: len(lon)}
	}
	return &GriddedField{
		Data:  data,
		Years: append([]int(nil), years...),
		Lat:   append([]float64(nil), lat...),
		Lon:   append([]float64(nil), lon...),
	}, nil
}

// Dims returns the lengths of the year, day, latitude and longitude axes.
func (f *GriddedField) Dims() (nYear, nDay, nLat, nLon int) {
	s := f.Data.Shape
	return s[0], s[1], s[2], s[3]
}

// HighPassField is the output of HighPassFilter. Boundary days hold NaN and
// are flagged invalid in a mask parallel to the values.
type HighPassField struct {
	values     *sparse.DenseArray
	valid      []bool
	HalfWindow int
	Years      []int
	Lat        []float64
	Lon        []float64
}

// Dims returns the lengths of the year, day, latitude and longitude axes.
func (h *HighPassField) Dims() (nYear, nDay, nLat, nLon int) {
	s := h.values.Shape
	return s[0], s[1], s[2], s[3]
}

// At returns the high-pass value, NaN where it is undefined.
func (h *HighPassField) At(y, d, i, j int) float64 {
	return h.values.Elements[h.offset(y, d, i, j)]
}

// Valid reports whether the value at (y, d, i, j) is defined.
func (h *HighPassField) Valid(y, d, i, j int) bool {
	return h.valid[h.offset(y, d, i, j)]
}

func (h *HighPassField) offset(y, d, i, j int) int {
	s := h.values.Shape
	return ((y*s[1]+d)*s[2]+i)*s[3] + j
}

// Profile is a (year, lon) array of latitudes in degrees. NaN means no data.
type Profile struct {
	Data  *sparse.DenseArray
	Years []int
	Lon   []float64
}

// Dims returns the lengths of the year and longitude axes.
func (p *Profile) Dims() (nYear, nLon int) {
	return p.Data.Shape[0], p.Data.Shape[1]
}

// At returns the latitude for year index y and longitude index j.
func (p *Profile) At(y, j int) float64 {
	return p.Data.Elements[y*p.Data.Shape[1]+j]
}

// Row returns a copy of the longitude profile for year index y.
func (p *Profile) Row(y int) []float64 {
	_, nLon := p.Dims()
	return append([]float64(nil), p.Data.Elements[y*nLon:(y+1)*nLon]...)
}

// CBLProfile is the latitude of maximum weighted variance per year and
// longitude, before smoothing.
type CBLProfile struct {
	Profile
}

// NewCBLProfile builds a CBLProfile from rows of latitudes, one row per year.
func NewCBLProfile(years []int, lon []float64, rows [][]float64) (*CBLProfile, error) {
	const stage = "NewCBLProfile"
	if len(years) != len(rows) {
		return nil, &DimensionMismatchError{Stage: stage, What: "year axis", Want: len(rows), Got: len(years)}
	}
	data := sparse.ZerosDense(len(rows), len(lon))
	for y, row := range rows {
		if len(row) != len(lon) {
			return nil, &DimensionMismatchError{Stage: stage, What: "profile row", Want: len(lon), Got: len(row)}
		}
		copy(data.Elements[y*len(lon):], row)
	}
	return &CBLProfile{Profile{
		Data:  data,
		Years: append([]int(nil), years...),
		Lon:   append([]float64(nil), lon...),
	}}, nil
}

// SmoothedCBLProfile is a CBLProfile after circular smoothing along
// longitude. Values are whole degrees.
type SmoothedCBLProfile struct {
	Profile
	HalfWindow int
}

// WeightedVariance holds the latitude-weighted standard deviation of the
// high-pass signal, indexed by (year, lat, lon).
type WeightedVariance struct {
	Data  *sparse.DenseArray
	Years []int
	Lat   []float64
	Lon   []float64
}

// TimeMean returns the (lat, lon) mean over years. Years without data at a
// grid point are skipped; a point with no data in any year is NaN.
func (w *WeightedVariance) TimeMean() *sparse.DenseArray {
	nYear, nLat, nLon := w.Data.Shape[0], w.Data.Shape[1], w.Data.Shape[2]
	out := sparse.ZerosDense(nLat, nLon)
	buf := make([]float64, nYear)
	for i := 0; i < nLat; i++ {
		for j := 0; j < nLon; j++ {
			for y := 0; y < nYear; y++ {
				buf[y] = w.Data.Elements[(y*nLat+i)*nLon+j]
			}
			out.Elements[i*nLon+j] = nanMean(buf)
		}
	}
	return out
}

// Climatology is the per-longitude summary of the smoothed CBL across years.
type Climatology struct {
	Lon    []float64
	Mean   []float64
	StdDev []float64 // inter-annual, population
}

// Result bundles every output of a pipeline run.
type Result struct {
	Params   Params
	Years    []int
	Lat      []float64
	Lon      []float64
	NumDays  int
	Weights  []float64
	CBL      *CBLProfile
	Smoothed *SmoothedCBLProfile
	Variance *WeightedVariance
}
