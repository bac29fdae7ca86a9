package curve

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// SplineKind selects how Catmull-Rom tangents are derived from neighbouring points.
type SplineKind int

const (
	// Centripetal spaces knots by the square root of chord length; no cusps or self-intersections
	Centripetal SplineKind = iota
	// Uniform uses equal knot spacing scaled by the curve tension
	Uniform
)

func (k SplineKind) String() string {
	switch k {
	case Centripetal:
		return "centripetal"
	case Uniform:
		return "uniform"
	default:
		return "unknown"
	}
}

// cubic holds per-axis coefficients of c0 + c1*w + c2*w^2 + c3*w^3.
type cubic struct {
	c0, c1, c2, c3 r3.Vec
}

func hermite(x0, x1, t0, t1 r3.Vec) cubic {
	return cubic{
		c0: x0,
		c1: t0,
		c2: r3.Sub(r3.Sub(r3.Scale(3, r3.Sub(x1, x0)), r3.Scale(2, t0)), t1),
		c3: r3.Add(r3.Add(r3.Scale(2, r3.Sub(x0, x1)), t0), t1),
	}
}

func (p cubic) at(w float64) r3.Vec {
	w2 := w * w
	return r3.Add(
		r3.Add(p.c0, r3.Scale(w, p.c1)),
		r3.Add(r3.Scale(w2, p.c2), r3.Scale(w2*w, p.c3)),
	)
}

func (p cubic) slope(w float64) r3.Vec {
	return r3.Add(p.c1, r3.Add(r3.Scale(2*w, p.c2), r3.Scale(3*w*w, p.c3)))
}

// segment locates parameter t in [0,1] on a span and returns the span's cubic
// and local weight.
func (c *Curve) segment(t float64) (cubic, float64) {
	l := len(c.points)
	p := float64(l-1) * clamp01(t)
	i := int(math.Floor(p))
	w := p - float64(i)
	if i >= l-1 {
		i, w = l-2, 1
	}

	x1, x2 := c.points[i], c.points[i+1]

	// Open ends are extrapolated by mirroring the neighbouring point
	var x0, x3 r3.Vec
	if i > 0 {
		x0 = c.points[i-1]
	} else {
		x0 = r3.Add(r3.Sub(c.points[0], c.points[1]), c.points[0])
	}
	if i+2 < l {
		x3 = c.points[i+2]
	} else {
		x3 = r3.Add(r3.Sub(c.points[l-1], c.points[l-2]), c.points[l-1])
	}

	if c.kind == Uniform {
		return hermite(x1, x2,
			r3.Scale(c.tension, r3.Sub(x2, x0)),
			r3.Scale(c.tension, r3.Sub(x3, x1)),
		), w
	}
	return centripetal(x0, x1, x2, x3), w
}

func centripetal(x0, x1, x2, x3 r3.Vec) cubic {
	dt0 := math.Pow(r3.Norm2(r3.Sub(x0, x1)), 0.25)
	dt1 := math.Pow(r3.Norm2(r3.Sub(x1, x2)), 0.25)
	dt2 := math.Pow(r3.Norm2(r3.Sub(x2, x3)), 0.25)

	// Coincident points would divide by zero
	if dt1 < 1e-4 {
		dt1 = 1
	}
	if dt0 < 1e-4 {
		dt0 = dt1
	}
	if dt2 < 1e-4 {
		dt2 = dt1
	}

	t1 := r3.Scale(dt1, r3.Add(
		r3.Sub(r3.Scale(1/dt0, r3.Sub(x1, x0)), r3.Scale(1/(dt0+dt1), r3.Sub(x2, x0))),
		r3.Scale(1/dt1, r3.Sub(x2, x1)),
	))
	t2 := r3.Scale(dt1, r3.Add(
		r3.Sub(r3.Scale(1/dt1, r3.Sub(x2, x1)), r3.Scale(1/(dt1+dt2), r3.Sub(x3, x1))),
		r3.Scale(1/dt2, r3.Sub(x3, x2)),
	))
	return hermite(x1, x2, t1, t2)
}

func (c *Curve) point(t float64) r3.Vec {
	seg, w := c.segment(t)
	return seg.at(w)
}

func (c *Curve) derivative(t float64) r3.Vec {
	seg, w := c.segment(t)
	return seg.slope(w)
}
