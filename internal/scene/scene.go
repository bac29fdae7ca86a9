// Package scene composes the curve, the concentric shells and the particle
// field into one frame loop driven by SimulationParameters.
package scene

import (
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/iburimskiy/tunnel-visualization/internal/curve"
	"github.com/iburimskiy/tunnel-visualization/internal/fade"
	"github.com/iburimskiy/tunnel-visualization/internal/particle"
	"github.com/iburimskiy/tunnel-visualization/internal/tunnel"
)

// Scene owns everything derived from the parameters. Geometry is replaced as
// a whole on rebuild, so a Curve or Mesh handed out earlier stays valid.
type Scene struct {
	params   SimulationParameters
	textures [tunnel.TextureSlots]tunnel.Texture

	curve  *curve.Curve
	depth  fade.DepthRange
	shells []*tunnel.Shell
	state  *tunnel.FrameState
	pool   *particle.Pool
	rng    *rand.Rand

	rotation float64
}

// New builds the curve, every shell and the particle pool. textures feed the
// textured shells; rng seeds the particle field and may be nil.
func New(params SimulationParameters, textures [tunnel.TextureSlots]tunnel.Texture, rng *rand.Rand) (*Scene, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(1, 2))
	}
	params.Shells = slices.Clone(params.Shells)

	s := &Scene{params: params, textures: textures, rng: rng}
	c, depth, err := buildPath(params)
	if err != nil {
		return nil, err
	}
	materials, err := s.materials(params, nil)
	if err != nil {
		return nil, err
	}
	shells, err := buildShells(params, c, depth, materials)
	if err != nil {
		return nil, err
	}
	pool, err := particle.NewPool(params.particles(), rng)
	if err != nil {
		return nil, err
	}

	s.curve, s.depth, s.shells, s.pool = c, depth, shells, pool
	s.state = tunnel.NewFrameState(len(shells))
	return s, nil
}

// Apply moves the scene to next. The curve and meshes are rebuilt only when
// geometry changed, materials only when a shell changed kind, and the pool
// only when its layout changed. On error nothing is applied.
func (s *Scene) Apply(next SimulationParameters) error {
	if err := next.Validate(); err != nil {
		return err
	}
	next.Shells = slices.Clone(next.Shells)

	c, depth := s.curve, s.depth
	rebuild := geometryChanged(s.params, next)
	if rebuild {
		var err error
		if c, depth, err = buildPath(next); err != nil {
			return err
		}
	}

	materials, err := s.materials(next, s.shells)
	if err != nil {
		return err
	}

	shells := s.shells
	if rebuild {
		if shells, err = buildShells(next, c, depth, materials); err != nil {
			return err
		}
		log.Printf("scene: rebuilt %d shells, curve length %.1f", len(shells), c.Length())
	} else {
		shells = rebind(s.shells, materials)
	}

	pool := s.pool
	if particle.RequiresRealloc(s.params.particles(), next.particles()) {
		if pool, err = particle.NewPool(next.particles(), s.rng); err != nil {
			return err
		}
		log.Printf("scene: reallocated %d particles", pool.Len())
	}

	s.params = next
	s.curve, s.depth, s.shells, s.pool = c, depth, shells, pool
	s.state.Resize(len(shells))
	return nil
}

// SetTextures swaps the images behind every textured shell.
func (s *Scene) SetTextures(textures [tunnel.TextureSlots]tunnel.Texture) error {
	prev := s.textures
	s.textures = textures
	materials := make([]*tunnel.Material, len(s.shells))
	for i, sh := range s.shells {
		materials[i] = sh.Material
		if s.params.Shells[i].Kind != tunnel.Textured {
			continue
		}
		m, err := tunnel.NewMaterial(s.params.Shells[i], textures)
		if err != nil {
			s.textures = prev
			return fmt.Errorf("shell %d: %w", i, err)
		}
		materials[i] = m
	}
	s.shells = rebind(s.shells, materials)
	return nil
}

// SetPulse updates the external intensity without a full Apply.
func (s *Scene) SetPulse(v float64) {
	s.params.Pulse = fade.Clamp01(v)
}

// Update advances one frame: the shared clock once, then every shell's
// uniforms in render order, then the particle field.
func (s *Scene) Update(elapsed, delta float64, viewport tunnel.Viewport) {
	s.state.Pulse = fade.Clamp01(s.params.Pulse)
	s.state.Advance(elapsed, delta, s.params.AnimationSpeed, viewport)

	for _, sh := range s.shells {
		tunnel.UpdateFrame(sh, s.state, elapsed, delta, viewport, s.params.Shells[sh.Ordinal])
	}
	s.pool.Step(s.curve, delta, s.params.particles())

	if s.params.AutoRotate {
		s.rotation = math.Mod(s.rotation+s.params.RotationSpeed*delta, 2*math.Pi)
	}
}

// Params returns a copy of the parameters in effect.
func (s *Scene) Params() SimulationParameters {
	p := s.params
	p.Shells = slices.Clone(p.Shells)
	return p
}

func (s *Scene) Curve() *curve.Curve { return s.curve }
func (s *Scene) Depth() fade.DepthRange { return s.depth }
func (s *Scene) Pool() *particle.Pool { return s.pool }
func (s *Scene) State() *tunnel.FrameState { return s.state }
func (s *Scene) Particles() []particle.Particle { return s.pool.Particles() }
func (s *Scene) Textures() [tunnel.TextureSlots]tunnel.Texture { return s.textures }

// Rotation is the auto-rotation angle around the view axis, in radians.
func (s *Scene) Rotation() float64 {
	return s.rotation
}

// Shells returns the shells in render order.
func (s *Scene) Shells() []*tunnel.Shell {
	out := slices.Clone(s.shells)
	tunnel.SortByRenderOrder(out)
	return out
}

// Viewpoint returns where the viewer sits and the frame it looks along: the
// viewer end of the curve, facing back toward the far end.
func (s *Scene) Viewpoint() (r3.Vec, curve.Frame) {
	eye := s.curve.PointAt(1)
	forward := r3.Scale(-1, s.curve.TangentAt(1))
	return eye, curve.FrameFromTangent(forward)
}

func buildPath(params SimulationParameters) (*curve.Curve, fade.DepthRange, error) {
	c, err := curve.Build(params.Curve)
	if err != nil {
		return nil, fade.DepthRange{}, err
	}
	depth, err := fade.NewDepthRange(c.Length(), params.DepthSpanFactor)
	if err != nil {
		return nil, fade.DepthRange{}, err
	}
	return c, depth, nil
}

// materials returns one material per shell, keeping prev's where the kind is
// unchanged so constructed uniform maps survive parameter edits.
func (s *Scene) materials(params SimulationParameters, prev []*tunnel.Shell) ([]*tunnel.Material, error) {
	out := make([]*tunnel.Material, len(params.Shells))
	for i, sp := range params.Shells {
		if i < len(prev) && !materialChanged(s.params, params, i) {
			out[i] = prev[i].Material
			continue
		}
		m, err := tunnel.NewMaterial(sp, s.textures)
		if err != nil {
			return nil, fmt.Errorf("shell %d: %w", i, err)
		}
		out[i] = m
	}
	return out, nil
}

func buildShells(params SimulationParameters, c *curve.Curve, depth fade.DepthRange, materials []*tunnel.Material) ([]*tunnel.Shell, error) {
	shells := make([]*tunnel.Shell, len(params.Shells))
	for i := range params.Shells {
		sh, err := tunnel.BuildShell(c, params.shellRadius(i), params.TunnelSegments, materials[i], depth)
		if err != nil {
			return nil, fmt.Errorf("shell %d: %w", i, err)
		}
		sh.Ordinal = i
		shells[i] = sh
	}
	return shells, nil
}

// rebind returns new shells sharing geometry with prev but using materials.
func rebind(prev []*tunnel.Shell, materials []*tunnel.Material) []*tunnel.Shell {
	out := make([]*tunnel.Shell, len(prev))
	for i, sh := range prev {
		if sh.Material == materials[i] {
			out[i] = sh
			continue
		}
		cp := *sh
		cp.Material = materials[i]
		out[i] = &cp
	}
	return out
}
