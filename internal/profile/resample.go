package profile

import (
	"math"
	"sort"
)

// gridEps absorbs float rounding when deciding whether the next grid point
// still lies inside the cleaned extent.
const gridEps = 1e-9

// Resample converts an irregular profile into one on a uniform grid along the
// chosen axis.
//
// Cleaning: levels with a NaN axis value (or non-positive pressure when the
// axis is pressure) are dropped, the rest are sorted along the axis (pressure
// descending, height ascending), and duplicate axis values are collapsed
// keeping the first occurrence.
//
// The grid starts at the cleaned boundary closest to the surface and advances
// by exactly step until the opposite extent would be passed; the final grid
// point therefore lands on or short of the extent, never beyond it.
//
// Every other field is interpolated piecewise-linearly against the axis using
// only that field's valid samples. Grid points outside a field's own sampled
// range stay NaN; values are never extrapolated.
//
// Fewer than two usable levels yield ErrInsufficientData. A non-positive or
// NaN step yields ErrInvalidResolution.
func Resample(p Profile, axis Axis, step float64) (Profile, error) {
	if math.IsNaN(step) || step <= 0 {
		return nil, ErrInvalidResolution
	}

	var axisGet func(Level) float64
	var axisSet func(*Level, float64)
	switch axis {
	case AxisPressure:
		axisGet = func(l Level) float64 { return l.Pressure }
		axisSet = func(l *Level, v float64) { l.Pressure = v }
	case AxisHeight:
		axisGet = func(l Level) float64 { return l.Height }
		axisSet = func(l *Level, v float64) { l.Height = v }
	default:
		return nil, ErrInvalidAxis
	}

	cleaned := cleanAlongAxis(p, axis, axisGet)
	if len(cleaned) < 2 {
		return nil, ErrInsufficientData
	}

	// cleaned is in ascending axis order; soundings on the pressure axis are
	// emitted surface-first, i.e. walking the grid downward from max pressure.
	lo := axisGet(cleaned[0])
	hi := axisGet(cleaned[len(cleaned)-1])

	var grid []float64
	if axis == AxisPressure {
		for i := 0; ; i++ {
			v := hi - float64(i)*step
			if v < lo-gridEps*step {
				break
			}
			grid = append(grid, v)
		}
	} else {
		for i := 0; ; i++ {
			v := lo + float64(i)*step
			if v > hi+gridEps*step {
				break
			}
			grid = append(grid, v)
		}
	}

	out := make(Profile, len(grid))
	for i, g := range grid {
		lvl := NewLevel()
		axisSet(&lvl, g)
		out[i] = lvl
	}

	axisCol := ColPressure
	if axis == AxisHeight {
		axisCol = ColHeight
	}
	for _, f := range fields {
		if f.name == axisCol {
			continue
		}
		xs, ys := samplesFor(cleaned, axisGet, f.get)
		for i, g := range grid {
			f.set(&out[i], interp(xs, ys, g))
		}
	}

	return out, nil
}

// cleanAlongAxis drops levels unusable on the axis, sorts ascending along it
// and collapses duplicate axis values keeping the first occurrence.
func cleanAlongAxis(p Profile, axis Axis, axisGet func(Level) float64) Profile {
	cleaned := make(Profile, 0, len(p))
	for _, l := range p {
		v := axisGet(l)
		if math.IsNaN(v) {
			continue
		}
		if axis == AxisPressure && v <= 0 {
			continue
		}
		cleaned = append(cleaned, l)
	}

	sort.SliceStable(cleaned, func(i, j int) bool {
		return axisGet(cleaned[i]) < axisGet(cleaned[j])
	})

	dedup := cleaned[:0]
	for i, l := range cleaned {
		if i > 0 && axisGet(l) == axisGet(dedup[len(dedup)-1]) {
			continue
		}
		dedup = append(dedup, l)
	}
	return dedup
}

// samplesFor extracts the (axis, field) pairs where the field was observed.
// levels must already be sorted ascending along the axis with duplicates
// removed, so xs comes out strictly increasing.
func samplesFor(levels Profile, axisGet, get func(Level) float64) (xs, ys []float64) {
	for _, l := range levels {
		v := get(l)
		if math.IsNaN(v) {
			continue
		}
		xs = append(xs, axisGet(l))
		ys = append(ys, v)
	}
	return xs, ys
}

// interp evaluates the piecewise-linear interpolant through (xs, ys) at x.
// xs must be strictly increasing. Outside [xs[0], xs[len-1]] the result is
// NaN; at a sample point the stored sample value is returned unchanged.
func interp(xs, ys []float64, x float64) float64 {
	if len(xs) == 0 || x < xs[0] || x > xs[len(xs)-1] {
		return math.NaN()
	}
	i := sort.SearchFloat64s(xs, x)
	if i < len(xs) && xs[i] == x {
		return ys[i]
	}
	t := (x - xs[i-1]) / (xs[i] - xs[i-1])
	return ys[i-1] + t*(ys[i]-ys[i-1])
}
