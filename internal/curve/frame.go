package curve

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ParallelThreshold is the |dot(tangent, up)| above which the fallback
// reference axis is used.
const ParallelThreshold = 0.99

var (
	referenceUp  = r3.Vec{Y: 1}
	referenceAlt = r3.Vec{X: 1}
)

// Frame is an orthonormal right-handed basis along the curve: Tangent × Normal = Binormal.
type Frame struct {
	Tangent  r3.Vec
	Normal   r3.Vec
	Binormal r3.Vec
}

// FrameAt returns the basis at arc-length fraction u. Frames are not cached;
// callers recompute them every frame as progress changes.
func FrameAt(c *Curve, u float64) Frame {
	return FrameFromTangent(c.TangentAt(u))
}

// FrameFromTangent completes a basis around a unit tangent.
func FrameFromTangent(tangent r3.Vec) Frame {
	ref := referenceUp
	if math.Abs(r3.Dot(tangent, ref)) > ParallelThreshold {
		ref = referenceAlt
	}
	binormal := unit(r3.Cross(tangent, ref))
	normal := unit(r3.Cross(binormal, tangent))
	return Frame{Tangent: tangent, Normal: normal, Binormal: binormal}
}

// Offset returns normal*cos(angle)*radius + binormal*sin(angle)*radius.
func (f Frame) Offset(angle, radius float64) r3.Vec {
	return r3.Add(
		r3.Scale(math.Cos(angle)*radius, f.Normal),
		r3.Scale(math.Sin(angle)*radius, f.Binormal),
	)
}

func unit(v r3.Vec) r3.Vec {
	n := r3.Norm(v)
	if n == 0 {
		return v
	}
	return r3.Scale(1/n, v)
}
