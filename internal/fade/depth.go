package fade

import (
	"fmt"
	"math"
)

// DefaultSpanFactor maps the full tunnel length onto normalized depth [0,1].
const DefaultSpanFactor = 1.0

// DepthRange remaps raw depth into normalized [0,1] depth.
type DepthRange struct {
	Start float64
	Span  float64
}

// NewDepthRange ties the working span to the tunnel length.
func NewDepthRange(tunnelLength, spanFactor float64) (DepthRange, error) {
	r := DepthRange{Start: 0, Span: tunnelLength * spanFactor}
	if err := r.Validate(); err != nil {
		return DepthRange{}, err
	}
	return r, nil
}

func (r DepthRange) Validate() error {
	if !(r.Span > 0) || math.IsInf(r.Span, 0) || math.IsNaN(r.Start) || math.IsInf(r.Start, 0) {
		return fmt.Errorf("%w: depth range %+v", ErrInvalidConfig, r)
	}
	return nil
}

// Normalize maps depth into [0,1].
func (r DepthRange) Normalize(depth float64) float64 {
	return Clamp01((depth - r.Start) / r.Span)
}
