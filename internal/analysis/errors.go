package analysis

import "fmt"

// InsufficientDataError is returned when an axis is too short to centre a
// window of 2*HalfWindow+1 points on it.
type InsufficientDataError struct {
	Stage      string
	Axis       string
	Length     int
	HalfWindow int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: %s axis has %d points, need more than %d for half-window %d",
		e.Stage, e.Axis, e.Length, 2*e.HalfWindow, e.HalfWindow)
}

// DimensionMismatchError is returned when a vector does not match the axis
// it is applied to.
type DimensionMismatchError struct {
	Stage string
	What  string
	Want  int
	Got   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: %s has length %d, expected %d", e.Stage, e.What, e.Got, e.Want)
}
