package profile

import (
	"errors"
	"math"
)

var (
	// ErrInsufficientData is returned when fewer than two usable levels remain
	// after cleaning the interpolation axis.
	ErrInsufficientData = errors.New("profile: fewer than two usable levels")

	// ErrInvalidResolution is returned for a zero, negative or NaN grid step.
	ErrInvalidResolution = errors.New("profile: resolution must be a positive number")

	// ErrInvalidAxis is returned for an axis other than pressure or height.
	ErrInvalidAxis = errors.New("profile: unknown interpolation axis")

	// ErrMissingField is returned when a required column is absent from the input.
	ErrMissingField = errors.New("profile: required column missing")
)

// Axis selects the independent coordinate a profile is resampled along.
type Axis string

const (
	AxisPressure Axis = "pressure"
	AxisHeight   Axis = "height"
)

// Level is a single record of a vertical sounding. Fields that were not
// observed are NaN; consumers must check with math.IsNaN before using them.
// On the wire (see json.go) missing observations travel as null.
type Level struct {
	Pressure    float64
	Height      float64
	Temperature float64
	Dewpoint    float64
	WindU       float64
	WindV       float64
}

// Profile is an ordered sequence of levels. Raw profiles may be unsorted and
// carry duplicate or missing axis values; Resample produces a cleaned,
// uniformly spaced copy and never mutates its input.
type Profile []Level

// NewLevel returns a Level with every field set to NaN.
func NewLevel() Level {
	nan := math.NaN()
	return Level{
		Pressure:    nan,
		Height:      nan,
		Temperature: nan,
		Dewpoint:    nan,
		WindU:       nan,
		WindV:       nan,
	}
}

// field names shared by the CSV codec and column lookups.
const (
	ColPressure    = "pressure_hpa"
	ColHeight      = "height_m"
	ColTemperature = "temperature_c"
	ColDewpoint    = "dewpoint_c"
	ColWindU       = "wind_u_ms"
	ColWindV       = "wind_v_ms"
)

type fieldAccessor struct {
	name string
	get  func(Level) float64
	set  func(*Level, float64)
}

// fields lists every column in canonical order. The resampler and the CSV
// codec both iterate this so the two stay in sync.
var fields = []fieldAccessor{
	{ColPressure, func(l Level) float64 { return l.Pressure }, func(l *Level, v float64) { l.Pressure = v }},
	{ColHeight, func(l Level) float64 { return l.Height }, func(l *Level, v float64) { l.Height = v }},
	{ColTemperature, func(l Level) float64 { return l.Temperature }, func(l *Level, v float64) { l.Temperature = v }},
	{ColDewpoint, func(l Level) float64 { return l.Dewpoint }, func(l *Level, v float64) { l.Dewpoint = v }},
	{ColWindU, func(l Level) float64 { return l.WindU }, func(l *Level, v float64) { l.WindU = v }},
	{ColWindV, func(l Level) float64 { return l.WindV }, func(l *Level, v float64) { l.WindV = v }},
}

// Column returns the values of a named column in level order.
// Unknown names return ErrMissingField.
func (p Profile) Column(name string) ([]float64, error) {
	for _, f := range fields {
		if f.name != name {
			continue
		}
		out := make([]float64, len(p))
		for i, l := range p {
			out[i] = f.get(l)
		}
		return out, nil
	}
	return nil, ErrMissingField
}
