package curve

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// TwistAngle is the angle swept per configured twist. One twist turns the
// spiral half a revolution, so cosine flips sign over a single twist.
const TwistAngle = math.Pi

const (
	// DefaultTension is the tension used by uniform Catmull-Rom splines
	DefaultTension = 0.5

	// ArcLengthDivisions is the sample count of the arc-length lookup table
	ArcLengthDivisions = 200
)

// ErrInvalidConfig is returned when a curve cannot be built from its configuration.
var ErrInvalidConfig = errors.New("invalid curve config")

// Config is the immutable input of Build.
type Config struct {
	Segments       int
	Length         float64
	Twists         float64
	AmplitudeStart float64
	AmplitudeEnd   float64
	Kind           SplineKind
	Tension        float64
}

// DefaultConfig is a gentle single-twist tunnel.
func DefaultConfig() Config {
	return Config{
		Segments:       300,
		Length:         1000,
		Twists:         1,
		AmplitudeStart: 0,
		AmplitudeEnd:   64,
		Kind:           Centripetal,
		Tension:        DefaultTension,
	}
}

// Validate reports configuration errors without building anything.
func (c Config) Validate() error {
	if c.Segments < 2 {
		return fmt.Errorf("%w: segments %d < 2", ErrInvalidConfig, c.Segments)
	}
	if !(c.Length > 0) || math.IsInf(c.Length, 0) {
		return fmt.Errorf("%w: length %v must be positive", ErrInvalidConfig, c.Length)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"twists", c.Twists},
		{"amplitude start", c.AmplitudeStart},
		{"amplitude end", c.AmplitudeEnd},
		{"tension", c.Tension},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidConfig, f.name)
		}
	}
	return nil
}

// ControlPoints returns the spiral control points for c. Points run from
// progress 0 through progress 1 inclusive, so the path covers the whole length.
func ControlPoints(c Config) []r3.Vec {
	points := make([]r3.Vec, c.Segments+1)
	for i := range points {
		progress := float64(i) / float64(c.Segments)
		angle := progress * TwistAngle * c.Twists
		amplitude := lerp(c.AmplitudeEnd, c.AmplitudeStart, progress)
		points[i] = r3.Vec{
			X: math.Sin(angle) * amplitude,
			Y: math.Cos(angle) * amplitude,
			Z: progress * c.Length,
		}
	}
	return points
}

// Build generates the tunnel centerline for c.
func Build(c Config) (*Curve, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return NewCurve(ControlPoints(c), c.Kind, c.Tension)
}

// Curve is an open Catmull-Rom spline through a fixed set of control points,
// sampled by arc length. A Curve is never modified after construction.
type Curve struct {
	points  []r3.Vec
	kind    SplineKind
	tension float64
	lengths []float64
}

// NewCurve builds a curve through explicit control points.
func NewCurve(points []r3.Vec, kind SplineKind, tension float64) (*Curve, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 control points, got %d", ErrInvalidConfig, len(points))
	}
	if kind != Centripetal && kind != Uniform {
		return nil, fmt.Errorf("%w: unknown spline kind %d", ErrInvalidConfig, kind)
	}
	c := &Curve{
		points:  append([]r3.Vec(nil), points...),
		kind:    kind,
		tension: tension,
	}
	c.lengths = c.arcLengths(ArcLengthDivisions)
	return c, nil
}

// Points returns a copy of the control points.
func (c *Curve) Points() []r3.Vec {
	return append([]r3.Vec(nil), c.points...)
}

// Length returns the arc length of the whole curve.
func (c *Curve) Length() float64 {
	return c.lengths[len(c.lengths)-1]
}

// PointAt returns the point at fraction u of the arc length. u is clamped to [0,1].
func (c *Curve) PointAt(u float64) r3.Vec {
	return c.point(c.uToT(u))
}

// TangentAt returns the unit tangent at fraction u of the arc length.
func (c *Curve) TangentAt(u float64) r3.Vec {
	t := c.uToT(u)
	d := c.derivative(t)
	if n := r3.Norm(d); n > 1e-12 {
		return r3.Scale(1/n, d)
	}

	// Stationary point: fall back to a central difference
	const delta = 1e-4
	t1, t2 := math.Max(t-delta, 0), math.Min(t+delta, 1)
	d = r3.Sub(c.point(t2), c.point(t1))
	if n := r3.Norm(d); n > 1e-12 {
		return r3.Scale(1/n, d)
	}
	return r3.Vec{Z: 1}
}

func (c *Curve) arcLengths(divisions int) []float64 {
	lengths := make([]float64, divisions+1)
	last := c.point(0)
	sum := 0.0
	for i := 1; i <= divisions; i++ {
		current := c.point(float64(i) / float64(divisions))
		sum += r3.Norm(r3.Sub(current, last))
		lengths[i] = sum
		last = current
	}
	return lengths
}

// uToT maps an arc-length fraction to the spline parameter.
func (c *Curve) uToT(u float64) float64 {
	u = clamp01(u)
	n := len(c.lengths)
	total := c.lengths[n-1]
	if total == 0 {
		return u
	}
	target := u * total

	// Highest index whose cumulative length does not exceed target
	lo, hi := 0, n-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if c.lengths[mid] <= target {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	i := lo
	if i == n-1 || c.lengths[i] == target {
		return float64(i) / float64(n-1)
	}
	before, after := c.lengths[i], c.lengths[i+1]
	fraction := (target - before) / (after - before)
	return (float64(i) + fraction) / float64(n-1)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
