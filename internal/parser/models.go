package parser

const (
	DefaultVariable = "z"
	DefaultLatName  = "lat"
	DefaultLonName  = "lon"
)

// Options control how a gridded field is read from disk.
type Options struct {
	Variable string // field variable (NetCDF) or value column (delimited)
	LatName  string
	LonName  string

	// DaysPerYear splits a 3-D (time, lat, lon) NetCDF variable into
	// seasons. Ignored for 4-D input.
	DaysPerYear int
	// FirstYear labels the first season when the file carries no year axis.
	FirstYear int

	// Latitude band to keep, inclusive. Both zero keeps every latitude.
	LatMin float64
	LatMax float64

	// Column names for long-format delimited input.
	YearColumn string
	DayColumn  string
}

// withDefaults fills empty names with the conventional ones.
func (o Options) withDefaults() Options {
	if o.Variable == "" {
		o.Variable = DefaultVariable
	}
	if o.LatName == "" {
		o.LatName = DefaultLatName
	}
	if o.LonName == "" {
		o.LonName = DefaultLonName
	}
	if o.YearColumn == "" {
		o.YearColumn = "year"
	}
	if o.DayColumn == "" {
		o.DayColumn = "day"
	}
	return o
}

func (o Options) hasLatBand() bool {
	return o.LatMin != 0 || o.LatMax != 0
}

// LoadReport describes what a loader did with the input. Warnings are
// non-fatal problems such as unparsable cells or a trailing partial season.
type LoadReport struct {
	Source          string
	Format          string
	Variable        string
	Units           string
	MissingCells    int
	FlippedLat      bool
	WrappedLon      bool
	DroppedLatitude int
	Warnings        []string
}

// NewLoadReport initializes an empty report for path.
func NewLoadReport(path, format string) *LoadReport {
	return &LoadReport{
		Source:   path,
		Format:   format,
		Warnings: make([]string, 0),
	}
}
