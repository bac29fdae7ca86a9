package particle

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/iburimskiy/tunnel-visualization/internal/curve"
	"github.com/iburimskiy/tunnel-visualization/internal/fade"
)

// Particle is one pooled billboard. Slots are identified by index and live
// as long as the pool.
type Particle struct {
	// Progress is the normalized position along the path, 0 far end, 1 viewer end
	Progress    float64
	Angle       float64
	Radius      float64
	SpeedFactor float64
	// Speed is BaseSpeed * SpeedFactor as of the last step
	Speed float64

	Position r3.Vec
	Opacity  float64
}

// Pool is a fixed-size particle field. It is stepped once per frame by the
// render loop and read by the renderer right after.
type Pool struct {
	particles []Particle
	rng       *rand.Rand
}

// NewPool allocates params.Count particles spread evenly along the path, each
// with its own offset angle, offset radius and speed factor.
func NewPool(params Params, rng *rand.Rand) (*Pool, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(1, 2))
	}
	pool := &Pool{
		particles: make([]Particle, params.Count),
		rng:       rng,
	}
	for i := range pool.particles {
		p := &pool.particles[i]
		pool.randomize(p, params)
		p.Progress = float64(i) / float64(params.Count)
		p.Speed = params.BaseSpeed * p.SpeedFactor
	}
	return pool, nil
}

// Len returns the pool size.
func (pool *Pool) Len() int {
	return len(pool.particles)
}

// Particles returns the live slots. The slice is owned by the pool and is
// only valid until the next Step.
func (pool *Pool) Particles() []Particle {
	return pool.particles
}

// Transform is what the renderer needs of one slot.
type Transform struct {
	Position r3.Vec
	Opacity  float64
	Size     float64
}

// Transforms appends the current render state of every slot to dst.
func (pool *Pool) Transforms(dst []Transform, params Params) []Transform {
	dst = dst[:0]
	for _, p := range pool.particles {
		dst = append(dst, Transform{Position: p.Position, Opacity: p.Opacity, Size: params.Size})
	}
	return dst
}

func (pool *Pool) randomize(p *Particle, params Params) {
	p.Angle = pool.rng.Float64() * 2 * math.Pi
	p.Radius = params.MinOffset + pool.rng.Float64()*(params.MaxOffset-params.MinOffset)
	v := params.SpeedVariation
	p.SpeedFactor = 1 - (pool.rng.Float64()*v*2 - v)
}

// Step advances every particle by delta seconds, wraps the ones that left
// [0,1), and recomputes position and opacity. c may be nil for AxisAligned
// placement when params.AxisLength is set. CurveRelative particles have no
// position without a curve, so a nil c hides them with zero opacity.
func (pool *Pool) Step(c *curve.Curve, delta float64, params Params) {
	length := params.AxisLength
	if c != nil && (params.Placement == CurveRelative || length == 0) {
		length = c.Length()
	}
	depth := fade.DepthRange{Span: length * params.DepthSpanFactor}
	if !(depth.Span > 0) {
		depth.Span = 1
	}
	minDist := params.minDistance()

	for i := range pool.particles {
		p := &pool.particles[i]
		p.Speed = params.BaseSpeed * p.SpeedFactor

		next := p.Progress + p.Speed*delta
		if next >= 1 || next < 0 {
			pool.wrap(p, next, params)
		} else {
			p.Progress = next
		}

		switch params.Placement {
		case AxisAligned:
			p.Position = axisPosition(p, length, minDist)
		default:
			if c == nil {
				p.Opacity = 0
				continue
			}
			p.Position = curvePosition(c, p, minDist)
		}
		p.Opacity = opacity(p.Progress, length, depth, params)
	}
}

func (pool *Pool) wrap(p *Particle, next float64, params Params) {
	if params.Wrap == Respawn {
		pool.randomize(p, params)
		p.Speed = params.BaseSpeed * p.SpeedFactor
		jitter := pool.rng.Float64() * params.RespawnJitter
		if p.Speed < 0 {
			p.Progress = 1 - jitter
		} else {
			p.Progress = jitter
		}
		return
	}
	p.Progress = next - math.Floor(next)
}

func curvePosition(c *curve.Curve, p *Particle, minDist float64) r3.Vec {
	base := c.PointAt(p.Progress)
	frame := curve.FrameAt(c, p.Progress)
	return r3.Add(base, clampOffset(frame.Offset(p.Angle, p.Radius), frame.Offset(p.Angle, 1), minDist))
}

func axisPosition(p *Particle, length, minDist float64) r3.Vec {
	dir := r3.Vec{X: math.Cos(p.Angle), Y: math.Sin(p.Angle)}
	offset := clampOffset(r3.Scale(p.Radius, dir), dir, minDist)
	offset.Z = p.Progress * length
	return offset
}

// clampOffset renormalizes offset to exactly minDist when it is shorter.
// dir is the unit direction used when offset has no length of its own.
func clampOffset(offset, dir r3.Vec, minDist float64) r3.Vec {
	mag := r3.Norm(offset)
	if mag >= minDist {
		return offset
	}
	if mag == 0 {
		return r3.Scale(minDist, dir)
	}
	return r3.Scale(minDist/mag, offset)
}

// opacity fades particles in as they leave the far end and applies the depth
// window measured from the viewer end.
func opacity(progress, length float64, depth fade.DepthRange, params Params) float64 {
	ramp := fade.Ramp(progress*length, params.FadeDistance)
	window := params.Fade.Factor(depth.Normalize((1 - progress) * length))
	return fade.Clamp01(params.Opacity * ramp * window)
}
