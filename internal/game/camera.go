package game

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/iburimskiy/tunnel-visualization/internal/curve"
)

// camera is a pinhole projection looking along frame.Tangent from eye.
type camera struct {
	eye     r3.Vec
	forward r3.Vec
	right   r3.Vec
	up      r3.Vec

	focal  float64
	cx, cy float64
	near   float64
}

// newCamera rolls the frame by roll radians around the view axis, which is
// how the tunnel's auto-rotation is shown.
func newCamera(eye r3.Vec, frame curve.Frame, roll float64, width, height int, fovDegrees, near float64) camera {
	c, s := math.Cos(roll), math.Sin(roll)
	return camera{
		eye:     eye,
		forward: frame.Tangent,
		right:   r3.Add(r3.Scale(c, frame.Binormal), r3.Scale(s, frame.Normal)),
		up:      r3.Sub(r3.Scale(c, frame.Normal), r3.Scale(s, frame.Binormal)),
		focal:   float64(height) / 2 / math.Tan(fovDegrees*math.Pi/360),
		cx:      float64(width) / 2,
		cy:      float64(height) / 2,
		near:    near,
	}
}

// project returns screen coordinates and view depth of p. ok is false for
// points in front of the near plane.
func (c camera) project(p r3.Vec) (x, y, z float64, ok bool) {
	d := r3.Sub(p, c.eye)
	z = r3.Dot(d, c.forward)
	if z < c.near {
		return 0, 0, z, false
	}
	x = c.cx + r3.Dot(d, c.right)/z*c.focal
	y = c.cy - r3.Dot(d, c.up)/z*c.focal
	return x, y, z, true
}

// scale is the pixel size of one world unit at view depth z.
func (c camera) scale(z float64) float64 {
	if z <= 0 {
		return 0
	}
	return c.focal / z
}
