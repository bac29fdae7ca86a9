package scene

import (
	"errors"
	"image"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/iburimskiy/tunnel-visualization/internal/curve"
	"github.com/iburimskiy/tunnel-visualization/internal/particle"
	"github.com/iburimskiy/tunnel-visualization/internal/tunnel"
)

type fakeTexture struct{ w, h int }

func (f fakeTexture) Bounds() image.Rectangle { return image.Rect(0, 0, f.w, f.h) }

func testTextures() [tunnel.TextureSlots]tunnel.Texture {
	return [tunnel.TextureSlots]tunnel.Texture{fakeTexture{64, 64}, nil, fakeTexture{32, 32}, fakeTexture{32, 32}}
}

func testScene(t *testing.T) *Scene {
	t.Helper()
	params := DefaultParameters()
	params.TunnelSegments = 16
	s, err := New(params, testTextures(), rand.New(rand.NewPCG(3, 4)))
	if err != nil {
		t.Fatalf("new scene: %v", err)
	}
	return s
}

var viewport = tunnel.Viewport{Width: 1024, Height: 512}

func TestNewBuildsDefaultStack(t *testing.T) {
	s := testScene(t)
	shells := s.Shells()
	if len(shells) != 3 {
		t.Fatalf("shell count = %d, want 3", len(shells))
	}
	wantKinds := []tunnel.MaterialKind{tunnel.Flat, tunnel.Textured, tunnel.Procedural}
	for i, sh := range shells {
		if sh.Ordinal != i {
			t.Errorf("shell %d ordinal %d", i, sh.Ordinal)
		}
		if sh.Material.Kind != wantKinds[i] {
			t.Errorf("shell %d kind %v, want %v", i, sh.Material.Kind, wantKinds[i])
		}
		if sh.Curve != s.Curve() {
			t.Errorf("shell %d does not share the scene curve", i)
		}
	}
	if got, want := shells[0].Radius, 24.1; math.Abs(got-want) > 1e-12 {
		t.Errorf("backing radius = %v, want %v", got, want)
	}
	if shells[0].Radius <= shells[1].Radius {
		t.Error("backing shell is not outside the wall")
	}
	if s.Pool().Len() != particle.DefaultParams().Count {
		t.Errorf("pool size = %d", s.Pool().Len())
	}
}

func TestNewRejectsInvalidParameters(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SimulationParameters)
		want   error
	}{
		{"curve segments", func(p *SimulationParameters) { p.Curve.Segments = 1 }, curve.ErrInvalidConfig},
		{"zero radius", func(p *SimulationParameters) { p.TunnelRadius = 0 }, ErrInvalidConfig},
		{"no shells", func(p *SimulationParameters) { p.Shells = nil }, ErrInvalidConfig},
		{"shell radius", func(p *SimulationParameters) { p.Shells[1].RadiusScale = -1 }, tunnel.ErrInvalidConfig},
		{"particles", func(p *SimulationParameters) { p.Particles.Count = -1 }, particle.ErrInvalidConfig},
		{"segments", func(p *SimulationParameters) { p.TunnelSegments = 0 }, ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParameters()
			tt.mutate(&p)
			if _, err := New(p, testTextures(), nil); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestTexturedShellNeedsBaseTexture(t *testing.T) {
	if _, err := New(DefaultParameters(), [tunnel.TextureSlots]tunnel.Texture{}, nil); !errors.Is(err, tunnel.ErrInvalidConfig) {
		t.Fatalf("expected tunnel.ErrInvalidConfig, got %v", err)
	}
}

func TestUpdateAdvancesSharedClockOnce(t *testing.T) {
	s := testScene(t)
	p := s.Params()
	p.AnimationSpeed = 2
	if err := s.Apply(p); err != nil {
		t.Fatal(err)
	}

	const delta = 0.25
	for i := 1; i <= 4; i++ {
		s.Update(float64(i)*delta, delta, viewport)
	}
	if got := s.State().Time; math.Abs(got-2) > 1e-12 {
		t.Fatalf("time = %v, want 2", got)
	}

	grid := s.Shells()[2].Material
	if v, _ := grid.Float(tunnel.UniformTime); math.Abs(float64(v)-2) > 1e-6 {
		t.Errorf("grid time uniform = %v, want 2", v)
	}
	if v, _ := grid.Float(tunnel.UniformElapsed); v != 1 {
		t.Errorf("grid elapsed uniform = %v, want 1", v)
	}
}

func TestApplyWithoutGeometryChangeKeepsMeshes(t *testing.T) {
	s := testScene(t)
	before := s.Shells()
	c := s.Curve()
	pool := s.Pool()

	p := s.Params()
	p.Shells[2].Opacity = 0.1
	p.Particles.BaseSpeed = 0.5
	p.AnimationSpeed = 3
	if err := s.Apply(p); err != nil {
		t.Fatal(err)
	}

	if s.Curve() != c {
		t.Error("curve rebuilt on a uniform-only change")
	}
	if s.Pool() != pool {
		t.Error("pool reallocated on a speed change")
	}
	for i, sh := range s.Shells() {
		if sh.Mesh != before[i].Mesh || sh.Material != before[i].Material {
			t.Errorf("shell %d replaced on a uniform-only change", i)
		}
	}

	s.Update(0.1, 0.1, viewport)
	if v, _ := s.Shells()[2].Material.Float(tunnel.UniformOpacity); math.Abs(float64(v)-0.1) > 1e-6 {
		t.Errorf("opacity uniform = %v, want 0.1", v)
	}
}

func TestApplyGeometryChangeReplacesCurve(t *testing.T) {
	s := testScene(t)
	oldCurve := s.Curve()
	oldShells := s.Shells()
	oldMesh := oldShells[1].Mesh
	vertex := oldMesh.Vertices[0]

	p := s.Params()
	p.Curve.Twists = 3
	p.TunnelRadius = 30
	if err := s.Apply(p); err != nil {
		t.Fatal(err)
	}

	if s.Curve() == oldCurve {
		t.Fatal("curve not rebuilt")
	}
	for i, sh := range s.Shells() {
		if sh.Curve != s.Curve() {
			t.Errorf("shell %d still on the old curve", i)
		}
		if sh.Material != oldShells[i].Material {
			t.Errorf("shell %d material replaced though kind is unchanged", i)
		}
	}
	if oldShells[1].Curve != oldCurve || oldMesh.Vertices[0] != vertex {
		t.Error("old geometry was mutated")
	}
	if got := s.Shells()[1].Radius; got != 30 {
		t.Errorf("wall radius = %v, want 30", got)
	}
}

func TestApplyKindChangeRebuildsMaterialOnly(t *testing.T) {
	s := testScene(t)
	before := s.Shells()

	p := s.Params()
	p.Shells[1].Kind = tunnel.Procedural
	if err := s.Apply(p); err != nil {
		t.Fatal(err)
	}
	after := s.Shells()
	if after[1].Material.Kind != tunnel.Procedural {
		t.Fatalf("kind = %v", after[1].Material.Kind)
	}
	if after[1].Mesh != before[1].Mesh {
		t.Error("mesh rebuilt for a material change")
	}
	if before[1].Material.Kind != tunnel.Textured {
		t.Error("previous shell mutated")
	}
	if after[0] != before[0] {
		t.Error("untouched shell replaced")
	}
}

func TestApplyParticleLayoutReallocates(t *testing.T) {
	s := testScene(t)
	pool := s.Pool()

	p := s.Params()
	p.Particles.Count = 10
	if err := s.Apply(p); err != nil {
		t.Fatal(err)
	}
	if s.Pool() == pool || s.Pool().Len() != 10 {
		t.Fatalf("pool not reallocated: len %d", s.Pool().Len())
	}
}

func TestApplyErrorLeavesSceneUntouched(t *testing.T) {
	s := testScene(t)
	c := s.Curve()
	want := s.Params()

	p := s.Params()
	p.Curve.Twists = 5
	p.Particles.MaxOffset = -1
	if err := s.Apply(p); !errors.Is(err, particle.ErrInvalidConfig) {
		t.Fatalf("expected particle.ErrInvalidConfig, got %v", err)
	}
	if s.Curve() != c || s.Params().Curve != want.Curve {
		t.Fatal("failed Apply changed the scene")
	}
}

func TestParamsReturnsCopy(t *testing.T) {
	s := testScene(t)
	p := s.Params()
	p.Shells[0].Opacity = 0
	if s.Params().Shells[0].Opacity != 1 {
		t.Fatal("Params aliases scene state")
	}
}

func TestPulseReachesProceduralShell(t *testing.T) {
	s := testScene(t)
	s.SetPulse(1.5)
	s.Update(0.1, 0.1, viewport)
	if v, _ := s.Shells()[2].Material.Float(tunnel.UniformPulse); v != 1 {
		t.Fatalf("pulse = %v, want 1", v)
	}
}

func TestAutoRotation(t *testing.T) {
	s := testScene(t)
	s.Update(0.5, 0.5, viewport)
	if got, want := s.Rotation(), 0.4; math.Abs(got-want) > 1e-12 {
		t.Fatalf("rotation = %v, want %v", got, want)
	}

	p := s.Params()
	p.AutoRotate = false
	if err := s.Apply(p); err != nil {
		t.Fatal(err)
	}
	s.Update(1, 0.5, viewport)
	if got := s.Rotation(); math.Abs(got-0.4) > 1e-12 {
		t.Fatalf("rotation moved while disabled: %v", got)
	}
}

func TestViewpointSitsAtViewerEnd(t *testing.T) {
	s := testScene(t)
	eye, frame := s.Viewpoint()
	if eye != s.Curve().PointAt(1) {
		t.Fatalf("eye = %v", eye)
	}
	if frame.Tangent.Z >= 0 {
		t.Fatalf("viewer looks away from the tunnel: %v", frame.Tangent)
	}
}

func TestSetTexturesRebindsTexturedShell(t *testing.T) {
	s := testScene(t)
	before := s.Shells()

	next := testTextures()
	next[tunnel.SlotBase] = fakeTexture{512, 512}
	if err := s.SetTextures(next); err != nil {
		t.Fatal(err)
	}
	after := s.Shells()
	if after[1].Material == before[1].Material {
		t.Fatal("textured material not rebuilt")
	}
	if after[1].Material.Textures[tunnel.SlotBase] != tunnel.Texture(fakeTexture{512, 512}) {
		t.Fatal("new base texture not bound")
	}
	if after[2] != before[2] {
		t.Error("procedural shell replaced")
	}

	if err := s.SetTextures([tunnel.TextureSlots]tunnel.Texture{}); !errors.Is(err, tunnel.ErrInvalidConfig) {
		t.Fatalf("expected tunnel.ErrInvalidConfig, got %v", err)
	}
	if s.Textures()[tunnel.SlotBase] != tunnel.Texture(fakeTexture{512, 512}) {
		t.Fatal("failed SetTextures kept the empty set")
	}
}

func TestParticlesShareSceneDepthSpan(t *testing.T) {
	params := DefaultParameters()
	params.TunnelSegments = 16
	params.DepthSpanFactor = 2

	stale := params
	stale.Particles.DepthSpanFactor = 0

	want, err := New(params, testTextures(), rand.New(rand.NewPCG(3, 4)))
	if err != nil {
		t.Fatal(err)
	}
	got, err := New(stale, testTextures(), rand.New(rand.NewPCG(3, 4)))
	if err != nil {
		t.Fatalf("particle span should follow the scene span: %v", err)
	}
	want.Update(0.5, 0.5, viewport)
	got.Update(0.5, 0.5, viewport)

	for i, p := range got.Particles() {
		if w := want.Particles()[i]; p.Opacity != w.Opacity {
			t.Fatalf("particle %d opacity %v, want %v", i, p.Opacity, w.Opacity)
		}
	}
}
