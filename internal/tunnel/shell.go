package tunnel

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/iburimskiy/tunnel-visualization/internal/curve"
	"github.com/iburimskiy/tunnel-visualization/internal/fade"
)

// RadialSides is the angular resolution of every tube cross-section.
const RadialSides = 36

// ErrInvalidConfig is returned for shells and materials that cannot be built.
var ErrInvalidConfig = errors.New("invalid tunnel config")

// Vertex is one tube vertex. U runs along the path, V around the tube.
type Vertex struct {
	Position r3.Vec
	Normal   r3.Vec
	U, V     float64
	// Depth is the normalized path distance from the viewer end
	Depth float64
	// Jitter is the per-cell falloff multiplier
	Jitter float64
}

// Mesh is static tube geometry: Rings rings of Sides+1 vertices (the seam is
// duplicated so V reaches 1) and two triangles per quad.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
	Rings    int
	Sides    int
}

// RingVertices is the vertex count of one ring.
func (m *Mesh) RingVertices() int {
	return m.Sides + 1
}

// Shell is one concentric tube layer. Curve is shared with the other shells
// and the particle field, never owned.
type Shell struct {
	Ordinal  int
	Radius   float64
	Material *Material
	Curve    *curve.Curve
	Mesh     *Mesh
}

// BuildShell sweeps a RadialSides-sided circle of radius along c with the
// given number of path segments.
func BuildShell(c *curve.Curve, radius float64, segments int, material *Material, depth fade.DepthRange) (*Shell, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: nil curve", ErrInvalidConfig)
	}
	if !(radius > 0) || math.IsInf(radius, 0) {
		return nil, fmt.Errorf("%w: shell radius %v must be positive", ErrInvalidConfig, radius)
	}
	if segments < 1 {
		return nil, fmt.Errorf("%w: shell segments %d < 1", ErrInvalidConfig, segments)
	}
	if err := depth.Validate(); err != nil {
		return nil, fmt.Errorf("shell depth range: %w", err)
	}
	return &Shell{
		Radius:   radius,
		Material: material,
		Curve:    c,
		Mesh:     sweep(c, radius, segments, RadialSides, depth),
	}, nil
}

func sweep(c *curve.Curve, radius float64, segments, sides int, depth fade.DepthRange) *Mesh {
	rings := segments + 1
	ringSize := sides + 1
	m := &Mesh{
		Vertices: make([]Vertex, 0, rings*ringSize),
		Indices:  make([]uint32, 0, segments*sides*6),
		Rings:    rings,
		Sides:    sides,
	}

	length := c.Length()
	for i := 0; i < rings; i++ {
		u := float64(i) / float64(segments)
		center := c.PointAt(u)
		frame := curve.FrameAt(c, u)
		// Distance from the viewer, who sits at u = 1
		d := depth.Normalize((1 - u) * length)

		for j := 0; j < ringSize; j++ {
			v := float64(j) / float64(sides)
			// Outward normal; the inside of the tube faces the centerline
			normal := frame.Offset(v*2*math.Pi, 1)
			m.Vertices = append(m.Vertices, Vertex{
				Position: r3.Add(center, r3.Scale(radius, normal)),
				Normal:   normal,
				U:        u,
				V:        v,
				Depth:    d,
				Jitter:   fade.CellJitter(i, j%sides),
			})
		}
	}

	for i := 0; i < segments; i++ {
		for j := 0; j < sides; j++ {
			a := uint32(i*ringSize + j)
			b := uint32((i+1)*ringSize + j)
			m.Indices = append(m.Indices, a, b, a+1, b, b+1, a+1)
		}
	}
	return m
}

// SortByRenderOrder orders shells for drawing: increasing ordinal, so inner
// shells composite over the outer ones drawn before them.
func SortByRenderOrder(shells []*Shell) {
	sort.SliceStable(shells, func(i, j int) bool {
		return shells[i].Ordinal < shells[j].Ordinal
	})
}
