package algo

import (
	"math"
	"sort"
)

// minSplinePoints is the smallest support set an Akima segment can be built from.
const minSplinePoints = 5

// Spline is a local Akima (1970) interpolator over support points added in
// strictly increasing x order.
type Spline struct {
	xs []float64
	ys []float64
}

// Add appends a support point.
func (s *Spline) Add(x, y float64) {
	s.xs = append(s.xs, x)
	s.ys = append(s.ys, y)
}

// Count returns the number of support points.
func (s *Spline) Count() int {
	return len(s.xs)
}

// segment returns the index i of the support interval [x_i, x_{i+1}] containing x.
func (s *Spline) segment(x float64) (int, bool) {
	last := len(s.xs) - 1
	if last < minSplinePoints-1 || x < s.xs[0] {
		return 0, false
	}
	k := sort.SearchFloat64s(s.xs, x)
	if k > last {
		return 0, false
	}
	i := max(k-1, 0)
	if i >= last || x < s.xs[i] || x > s.xs[i+1] {
		return 0, false
	}
	return i, true
}

// Interpolate evaluates the spline at x. It reports false if there are too few
// points or x is not bracketed by two support points.
func (s *Spline) Interpolate(x float64) (float64, bool) {
	i, ok := s.segment(x)
	if !ok {
		return 0, false
	}
	last := len(s.xs) - 1

	// m[j-i+2] is the slope of segment j, for j in [i-2, i+2].
	var m [5]float64
	for j := max(i-2, 0); j < min(i+3, last); j++ {
		m[j-i+2] = (s.ys[j+1] - s.ys[j]) / (s.xs[j+1] - s.xs[j])
	}

	// Akima end conditions for slopes beyond the data.
	if i < 2 {
		near, next := m[2-i], m[3-i]
		m[1-i] = 2*near - next
		if i == 0 {
			m[0] = 3*near - 2*next
		}
	}
	if i > last-3 {
		near, next := m[last+1-i], m[last-i]
		m[last+2-i] = 2*near - next
		if i > last-2 {
			m[last+3-i] = 3*near - 2*next
		}
	}

	tR := akimaTangent(m[0], m[1], m[2], m[3], m[2])
	tL := akimaTangent(m[1], m[2], m[3], m[4], m[2])

	h := s.xs[i+1] - s.xs[i]
	c := (3*m[2] - 2*tR - tL) / h
	d := (tR + tL - 2*m[2]) / (h * h)
	x0 := x - s.xs[i]
	return s.ys[i] + x0*(tR+x0*(c+x0*d)), true
}

// akimaTangent blends the two middle slopes b and c weighted by the slope
// changes on either side. If both changes are zero it returns central.
func akimaTangent(a, b, c, d, central float64) float64 {
	wb := math.Abs(b - a)
	ne := wb + math.Abs(d-c)
	if ne > 0 {
		return b + wb*(c-b)/ne
	}
	return central
}

// Distance returns how far x is from the nearest support point of its
// bracketing segment, or +Inf if x is outside the spline.
func (s *Spline) Distance(x float64) float64 {
	i, ok := s.segment(x)
	if !ok {
		return math.Inf(1)
	}
	return min(x-s.xs[i], s.xs[i+1]-x)
}
