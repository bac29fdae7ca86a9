package scene

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/iburimskiy/tunnel-visualization/internal/curve"
	"github.com/iburimskiy/tunnel-visualization/internal/fade"
	"github.com/iburimskiy/tunnel-visualization/internal/particle"
	"github.com/iburimskiy/tunnel-visualization/internal/tunnel"
)

// ErrInvalidConfig is returned when the scene parameters are inconsistent.
var ErrInvalidConfig = errors.New("invalid scene config")

// MaxShells is the most concentric shells a scene composes.
const MaxShells = 3

// SimulationParameters is everything a frame reads. The host passes the
// current value into Apply whenever a tunable changes; nothing is captured.
type SimulationParameters struct {
	Curve curve.Config
	// TunnelRadius is the base radius shells scale from
	TunnelRadius float64
	// TunnelSegments is the number of rings swept along the path
	TunnelSegments int
	// DepthSpanFactor scales tunnel length into the fade working range. It
	// replaces Particles.DepthSpanFactor so shells and particles share one span.
	DepthSpanFactor float64

	// Shells are ordered by ordinal: index 0 is drawn first
	Shells    []tunnel.ShellParams
	Particles particle.Params

	AnimationSpeed float64
	// Pulse is an external [0,1] intensity modulation, e.g. soundtrack level
	Pulse float64

	AutoRotate    bool
	RotationSpeed float64
}

// DefaultParameters returns the three-shell tunnel: a black backing tube, a
// textured wall and the additive grid on top, with particles along the curve.
func DefaultParameters() SimulationParameters {
	curveCfg := curve.DefaultConfig()
	curveCfg.Segments = 64
	curveCfg.Length = 1500
	curveCfg.Twists = 7
	curveCfg.AmplitudeEnd = 48

	primary := color.RGBA{R: 0x00, G: 0xaa, B: 0xff, A: 0xff}
	secondary := color.RGBA{R: 0x00, G: 0x44, B: 0xaa, A: 0xff}

	backing := tunnel.ShellParams{
		Kind:         tunnel.Flat,
		RadiusScale:  1,
		RadiusOffset: 0.1,
		Opacity:      1,
		PrimaryColor: color.Black,
		Fade:         fade.NoFade(),
	}
	wall := tunnel.ShellParams{
		Kind:            tunnel.Textured,
		RadiusScale:     1,
		Opacity:         1,
		Fade:            fade.DefaultWindow(),
		TextureRepeat:   [2]float64{1, 1.5},
		OverlayRepeat:   [2]float64{1, 1},
		PanSpeed:        [2]float64{0.1, 0},
		BumpIntensity:   1,
		OverlayOpacity1: 0.5,
		OverlayOpacity2: 0.7,
	}
	grid := tunnel.ShellParams{
		Kind:             tunnel.Procedural,
		RadiusScale:      0.98,
		Opacity:          0.5,
		Scale:            20,
		PrimaryColor:     primary,
		SecondaryColor:   secondary,
		Fade:             fade.DefaultWindow(),
		PanSpeed:         [2]float64{0, 0.05},
		ColorIntensity:   1.5,
		GridSize:         8,
		AnimationSpeed:   1.4,
		BlinkSpeed:       1,
		BlinkVariation:   0.8,
		BlinkProbability: 0.7,
	}

	return SimulationParameters{
		Curve:           curveCfg,
		TunnelRadius:    24,
		TunnelSegments:  64,
		DepthSpanFactor: fade.DefaultSpanFactor,
		Shells:          []tunnel.ShellParams{backing, wall, grid},
		Particles:       particle.DefaultParams(),
		AnimationSpeed:  1,
		AutoRotate:      true,
		RotationSpeed:   0.8,
	}
}

// Validate checks every parameter group so a bad edit fails before anything is rebuilt.
func (p SimulationParameters) Validate() error {
	if err := p.Curve.Validate(); err != nil {
		return err
	}
	if !(p.TunnelRadius > 0) || math.IsInf(p.TunnelRadius, 0) {
		return fmt.Errorf("%w: tunnel radius %v must be positive", ErrInvalidConfig, p.TunnelRadius)
	}
	if p.TunnelSegments < 1 {
		return fmt.Errorf("%w: tunnel segments %d < 1", ErrInvalidConfig, p.TunnelSegments)
	}
	if !(p.DepthSpanFactor > 0) {
		return fmt.Errorf("%w: depth span factor %v must be positive", ErrInvalidConfig, p.DepthSpanFactor)
	}
	if n := len(p.Shells); n < 1 || n > MaxShells {
		return fmt.Errorf("%w: %d shells, want 1 to %d", ErrInvalidConfig, n, MaxShells)
	}
	for i, s := range p.Shells {
		if r := p.shellRadius(i); !(r > 0) {
			return fmt.Errorf("%w: shell %d radius %v must be positive", tunnel.ErrInvalidConfig, i, r)
		}
		if err := s.Fade.Validate(); err != nil {
			return fmt.Errorf("shell %d: %w", i, err)
		}
	}
	if math.IsNaN(p.AnimationSpeed) || math.IsInf(p.AnimationSpeed, 0) {
		return fmt.Errorf("%w: animation speed is not finite", ErrInvalidConfig)
	}
	return p.particles().Validate()
}

// particles is Particles with the scene-wide depth span applied.
func (p SimulationParameters) particles() particle.Params {
	pp := p.Particles
	pp.DepthSpanFactor = p.DepthSpanFactor
	return pp
}

func (p SimulationParameters) shellRadius(i int) float64 {
	s := p.Shells[i]
	return p.TunnelRadius*s.RadiusScale + s.RadiusOffset
}

// geometryChanged reports whether the curve or any tube mesh must be rebuilt.
func geometryChanged(prev, next SimulationParameters) bool {
	if prev.Curve != next.Curve ||
		prev.TunnelRadius != next.TunnelRadius ||
		prev.TunnelSegments != next.TunnelSegments ||
		prev.DepthSpanFactor != next.DepthSpanFactor ||
		len(prev.Shells) != len(next.Shells) {
		return true
	}
	for i := range next.Shells {
		if prev.shellRadius(i) != next.shellRadius(i) {
			return true
		}
	}
	return false
}

// materialChanged reports whether shell i needs a new material rather than
// new uniform values.
func materialChanged(prev, next SimulationParameters, i int) bool {
	if i >= len(prev.Shells) {
		return true
	}
	return prev.Shells[i].Kind != next.Shells[i].Kind
}
