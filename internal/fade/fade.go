// Package fade maps depth along the tunnel to an intensity multiplier.
//
// A fade window combines two attenuations: a near factor that dims material
// close to the viewer, and a far factor that ramps down between Start and End.
// Shell shaders and particles share the same model.
package fade

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is returned for windows and depth ranges that cannot be evaluated.
var ErrInvalidConfig = errors.New("invalid fade config")

// Jitter bounds of the per-cell random multiplier
const (
	JitterMin = 0.8
	JitterMax = 1.0
)

// Window is a fade window in normalized depth.
type Window struct {
	// Near is the intensity at depth 0, rising linearly to 1 at depth 1
	Near float64
	// Far is the attenuation reached at End
	Far   float64
	Start float64
	End   float64
}

// DefaultWindow matches the inner and outer tunnel materials.
func DefaultWindow() Window {
	return Window{Near: 0.7, Far: 0.9, Start: 0.7, End: 1.0}
}

// NoFade leaves intensity untouched everywhere.
func NoFade() Window {
	return Window{Near: 1, Far: 0, Start: 0, End: 1}
}

// Validate rejects windows whose ramp has zero width or non-finite bounds.
func (w Window) Validate() error {
	for _, v := range []float64{w.Near, w.Far, w.Start, w.End} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite window %+v", ErrInvalidConfig, w)
		}
	}
	if w.Start == w.End {
		return fmt.Errorf("%w: fade start equals fade end (%v)", ErrInvalidConfig, w.Start)
	}
	return nil
}

// NearFactor is lerp(Near, 1, depth).
func (w Window) NearFactor(depth float64) float64 {
	return w.Near + (1-w.Near)*depth
}

// FarFactor is 1 - clamp((depth-Start)/(End-Start)) * Far.
func (w Window) FarFactor(depth float64) float64 {
	return 1 - Clamp01((depth-w.Start)/(w.End-w.Start))*w.Far
}

// Factor returns the combined near and far attenuation at normalized depth.
func (w Window) Factor(depth float64) float64 {
	return Clamp01(w.NearFactor(depth) * w.FarFactor(depth))
}

// JitteredFactor scales Factor by the cell multiplier for (cellX, cellY).
func (w Window) JitteredFactor(depth float64, cellX, cellY int) float64 {
	return w.Factor(depth) * CellJitter(cellX, cellY)
}

// Factor is the free-function form of Window.Factor.
func Factor(depth, start, end, near, far float64) float64 {
	return Window{Near: near, Far: far, Start: start, End: end}.Factor(depth)
}

// CellJitter returns a stable multiplier in [JitterMin, JitterMax] for a grid cell.
func CellJitter(cellX, cellY int) float64 {
	return JitterMin + (JitterMax-JitterMin)*hash2(float64(cellX), float64(cellY))
}

// hash2 is the sin-fract hash the shell shaders use, so CPU and GPU agree.
func hash2(x, y float64) float64 {
	h := math.Sin(x*127.1+y*311.7) * 43758.5453
	return h - math.Floor(h)
}

// Ramp fades particles in over the first fadeDistance units of path.
func Ramp(distance, fadeDistance float64) float64 {
	if fadeDistance <= 0 || distance >= fadeDistance {
		return 1
	}
	return Clamp01(distance / fadeDistance)
}

// Clamp01 clamps v to [0,1]; NaN maps to 0.
func Clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
