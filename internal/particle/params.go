package particle

import (
	"errors"
	"fmt"
	"math"

	"github.com/iburimskiy/tunnel-visualization/internal/fade"
)

// ErrInvalidConfig is returned for particle parameters that cannot be simulated.
var ErrInvalidConfig = errors.New("invalid particle config")

// Placement selects how a particle's progress becomes a world position.
type Placement int

const (
	// CurveRelative offsets particles from the curve in its Frenet frame
	CurveRelative Placement = iota
	// AxisAligned keeps a constant X-Y offset and maps progress to Z, ignoring the curve shape
	AxisAligned
)

func (p Placement) String() string {
	switch p {
	case CurveRelative:
		return "curve"
	case AxisAligned:
		return "axis"
	default:
		return fmt.Sprintf("Placement(%d)", int(p))
	}
}

// WrapMode selects what happens when a particle runs off the end of the path.
type WrapMode int

const (
	// Loop wraps progress modulo 1 and keeps angle, radius and speed
	Loop WrapMode = iota
	// Respawn re-draws the whole slot and restarts it at the entry end
	Respawn
)

func (w WrapMode) String() string {
	switch w {
	case Loop:
		return "loop"
	case Respawn:
		return "respawn"
	default:
		return fmt.Sprintf("WrapMode(%d)", int(w))
	}
}

// Params configure the particle field. BaseSpeed, Opacity, the fade values and
// MinDistance are read every step; the rest fix the pool layout.
type Params struct {
	Count          int
	BaseSpeed      float64
	SpeedVariation float64
	Size           float64
	MinOffset      float64
	MaxOffset      float64
	// MinDistance is the closest a particle may sit to the centerline; 0 means MinOffset
	MinDistance  float64
	Opacity      float64
	FadeDistance float64
	Fade         fade.Window
	// DepthSpanFactor scales path length into the normalized depth span
	DepthSpanFactor float64

	Placement Placement
	Wrap      WrapMode
	// AxisLength is the Z span of AxisAligned placement; 0 means the curve length
	AxisLength float64
	// RespawnJitter spreads respawned particles over this fraction of the path
	RespawnJitter float64
}

// DefaultParams is a sparse field drifting toward the viewer.
func DefaultParams() Params {
	return Params{
		Count:           64,
		BaseSpeed:       0.12,
		SpeedVariation:  0.2,
		Size:            0.5,
		MinOffset:       9,
		MaxOffset:       22,
		Opacity:         1,
		FadeDistance:    900,
		Fade:            fade.NoFade(),
		DepthSpanFactor: fade.DefaultSpanFactor,
		Placement:       CurveRelative,
		Wrap:            Loop,
		RespawnJitter:   0.05,
	}
}

// Validate rejects parameters that would make the pool or a step meaningless.
func (p Params) Validate() error {
	for _, v := range []float64{p.BaseSpeed, p.SpeedVariation, p.Size, p.MinOffset, p.MaxOffset,
		p.MinDistance, p.Opacity, p.FadeDistance, p.DepthSpanFactor, p.AxisLength, p.RespawnJitter} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite parameter", ErrInvalidConfig)
		}
	}
	switch {
	case p.Count < 0:
		return fmt.Errorf("%w: count %d is negative", ErrInvalidConfig, p.Count)
	case p.MinOffset < 0:
		return fmt.Errorf("%w: min offset %v is negative", ErrInvalidConfig, p.MinOffset)
	case p.MaxOffset < p.MinOffset:
		return fmt.Errorf("%w: max offset %v below min offset %v", ErrInvalidConfig, p.MaxOffset, p.MinOffset)
	case p.MinDistance < 0:
		return fmt.Errorf("%w: min distance %v is negative", ErrInvalidConfig, p.MinDistance)
	case p.SpeedVariation < 0:
		return fmt.Errorf("%w: speed variation %v is negative", ErrInvalidConfig, p.SpeedVariation)
	case p.FadeDistance < 0:
		return fmt.Errorf("%w: fade distance %v is negative", ErrInvalidConfig, p.FadeDistance)
	case !(p.DepthSpanFactor > 0):
		return fmt.Errorf("%w: depth span factor %v must be positive", ErrInvalidConfig, p.DepthSpanFactor)
	case p.AxisLength < 0:
		return fmt.Errorf("%w: axis length %v is negative", ErrInvalidConfig, p.AxisLength)
	case p.RespawnJitter < 0 || p.RespawnJitter > 1:
		return fmt.Errorf("%w: respawn jitter %v outside [0,1]", ErrInvalidConfig, p.RespawnJitter)
	case p.Placement != CurveRelative && p.Placement != AxisAligned:
		return fmt.Errorf("%w: unknown placement %v", ErrInvalidConfig, p.Placement)
	case p.Wrap != Loop && p.Wrap != Respawn:
		return fmt.Errorf("%w: unknown wrap mode %v", ErrInvalidConfig, p.Wrap)
	}
	if err := p.Fade.Validate(); err != nil {
		return fmt.Errorf("particle fade: %w", err)
	}
	return nil
}

// minDistance resolves the centerline clearance.
func (p Params) minDistance() float64 {
	if p.MinDistance > 0 {
		return p.MinDistance
	}
	return p.MinOffset
}

// RequiresRealloc reports whether moving from prev to next changes the pool
// layout, which is only rebuilt from scratch.
func RequiresRealloc(prev, next Params) bool {
	return prev.Count != next.Count ||
		prev.MinOffset != next.MinOffset ||
		prev.MaxOffset != next.MaxOffset ||
		prev.SpeedVariation != next.SpeedVariation
}
