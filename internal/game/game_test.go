package game

import (
	"math"
	"regexp"
	"testing"
	"time"

	"github.com/faiface/beep"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/iburimskiy/tunnel-visualization/internal/curve"
	"github.com/iburimskiy/tunnel-visualization/internal/particle"
	"github.com/iburimskiy/tunnel-visualization/internal/tunnel"
)

func lookDown(t *testing.T) camera {
	t.Helper()
	frame := curve.FrameFromTangent(r3.Vec{Z: -1})
	return newCamera(r3.Vec{Z: 100}, frame, 0, 800, 600, 90, 0.5)
}

func TestCameraProjection(t *testing.T) {
	cam := lookDown(t)

	x, y, z, ok := cam.project(r3.Vec{Z: 0})
	if !ok || x != 400 || y != 300 || z != 100 {
		t.Fatalf("center = (%v, %v, %v, %v)", x, y, z, ok)
	}

	// 90 degree field of view: focal length is half the height
	x, y, _, _ = cam.project(r3.Vec{X: 10, Z: 0})
	if math.Abs(x-(400+10.0/100*300)) > 1e-9 || y != 300 {
		t.Fatalf("right of axis = (%v, %v)", x, y)
	}
	if _, y, _, _ = cam.project(r3.Vec{Y: 10, Z: 0}); y >= 300 {
		t.Fatalf("point above axis drawn at y %v", y)
	}
	if _, _, _, ok = cam.project(r3.Vec{Z: 150}); ok {
		t.Fatal("point behind the viewer reported visible")
	}
	if got := cam.scale(100); math.Abs(got-3) > 1e-9 {
		t.Fatalf("scale = %v, want 3", got)
	}
}

func TestCameraRollRotatesScreen(t *testing.T) {
	frame := curve.FrameFromTangent(r3.Vec{Z: -1})
	cam := newCamera(r3.Vec{Z: 100}, frame, math.Pi/2, 800, 600, 90, 0.5)

	x, y, _, _ := cam.project(r3.Vec{X: 10})
	if math.Abs(x-400) > 1e-9 || math.Abs(y-300) < 1 {
		t.Fatalf("quarter roll left point at (%v, %v)", x, y)
	}
}

func TestRingBatches(t *testing.T) {
	tests := []struct {
		segments, ringSize, limit int
		want                      [][2]int
	}{
		{64, 37, maxBatchVertices, [][2]int{{0, 64}}},
		{10, 10, 40, [][2]int{{0, 3}, {3, 6}, {6, 9}, {9, 10}}},
		{0, 37, maxBatchVertices, nil},
		{3, 100, 50, [][2]int{{0, 1}, {1, 2}, {2, 3}}},
	}
	for _, tt := range tests {
		got := ringBatches(tt.segments, tt.ringSize, tt.limit)
		if len(got) != len(tt.want) {
			t.Fatalf("ringBatches(%d, %d, %d) = %v, want %v", tt.segments, tt.ringSize, tt.limit, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Fatalf("ringBatches(%d, %d, %d) = %v, want %v", tt.segments, tt.ringSize, tt.limit, got, tt.want)
			}
		}
	}
}

func TestVisibleTrianglesDropsClippedAndRebases(t *testing.T) {
	indices := []uint32{10, 11, 12, 11, 13, 12}
	visible := make([]bool, 14)
	for i := 10; i < 14; i++ {
		visible[i] = true
	}
	visible[13] = false

	got := visibleTriangles(nil, indices, visible, 10)
	want := []uint16{0, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("triangles = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("triangles = %v, want %v", got, want)
		}
	}
}

func TestDepthOrderFarFirst(t *testing.T) {
	points := [][3]float64{{0, 0, 5}, {0, 0, 50}, {0, 0, 20}}
	order := []int{0, 1, 2}
	depthOrder(order, points)
	if order[0] != 1 || order[1] != 2 || order[2] != 0 {
		t.Fatalf("order = %v", order)
	}
}

func TestVisualTapSnapshotIsChronological(t *testing.T) {
	next := 0.0
	src := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			next++
			samples[i] = [2]float64{next, next}
		}
		return len(samples), true
	})
	tap := newVisualTap(src, 4)
	buf := make([][2]float64, 3)
	tap.Stream(buf)
	tap.Stream(buf)

	got := tap.snapshot(3)
	for i, want := range []float64{4, 5, 6} {
		if got[i][0] != want {
			t.Fatalf("snapshot = %v, want last three samples 4..6", got)
		}
	}
	if n := len(tap.snapshot(10)); n != 4 {
		t.Fatalf("snapshot larger than ring returned %d samples", n)
	}
}

func TestCompressedRMS(t *testing.T) {
	if got := compressedRMS(nil); got != 0 {
		t.Fatalf("empty level = %v", got)
	}
	full := [][2]float64{{1, 1}, {-1, -1}}
	if got := compressedRMS(full); math.Abs(got-1) > 1e-12 {
		t.Fatalf("full-scale level = %v, want 1", got)
	}
	quiet := [][2]float64{{0.01, 0.01}}
	if got := compressedRMS(quiet); got <= 0.01 || got >= 1 {
		t.Fatalf("quiet level %v not compressed upward", got)
	}
}

func TestSoundtrackWithoutTrackDecays(t *testing.T) {
	var s soundtrack
	s.level = 1
	for i := 0; i < 20; i++ {
		s.update(1.0 / 60)
	}
	if s.level > 0.001 {
		t.Fatalf("level %v did not decay", s.level)
	}
	if s.progress() != 0 || s.loaded() {
		t.Fatal("empty soundtrack reports progress")
	}
}

func TestHsvToRgb(t *testing.T) {
	tests := []struct {
		h       float64
		r, g, b uint8
	}{
		{0, 255, 0, 0},
		{120, 0, 255, 0},
		{240, 0, 0, 255},
		{360, 255, 0, 0},
		{-120, 0, 0, 255},
	}
	for _, tt := range tests {
		r, g, b := hsvToRgb(tt.h, 1, 1)
		if r != tt.r || g != tt.g || b != tt.b {
			t.Errorf("hsvToRgb(%v) = %d,%d,%d want %d,%d,%d", tt.h, r, g, b, tt.r, tt.g, tt.b)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	if got := formatDuration(83 * time.Second); got != "01:23" {
		t.Fatalf("formatDuration = %q", got)
	}
}

func TestToggles(t *testing.T) {
	if togglePlacement(particle.CurveRelative) != particle.AxisAligned || togglePlacement(particle.AxisAligned) != particle.CurveRelative {
		t.Fatal("placement toggle")
	}
	if toggleWrap(particle.Loop) != particle.Respawn || toggleWrap(particle.Respawn) != particle.Loop {
		t.Fatal("wrap toggle")
	}
}

func TestGeneratedImages(t *testing.T) {
	sprite := spriteImage(16)
	if _, _, _, a := sprite.At(0, 0).RGBA(); a != 0 {
		t.Errorf("sprite corner alpha = %d, want 0", a)
	}
	if _, _, _, a := sprite.At(8, 8).RGBA(); a == 0 {
		t.Error("sprite center transparent")
	}
	if b := panelImage(64).Bounds(); b.Dx() != 64 || b.Dy() != 64 {
		t.Errorf("panel bounds = %v", b)
	}
}

// Every imageSrcNAt lookup takes a position in image 0's coordinates, so
// only image 0's origin may be added to a sample position.
func TestShaderLookupsUseFirstImageOrigin(t *testing.T) {
	other := regexp.MustCompile(`imageSrc[1-9]Origin`)
	for kind, name := range shaderFiles {
		src, err := shaderFS.ReadFile(name)
		if err != nil {
			t.Fatalf("read %v shader: %v", kind, err)
		}
		if loc := other.FindIndex(src); loc != nil {
			t.Errorf("%s offsets a lookup by %s", name, src[loc[0]:loc[1]])
		}
	}
	src, err := shaderFS.ReadFile(shaderFiles[tunnel.Textured])
	if err != nil {
		t.Fatal(err)
	}
	if !regexp.MustCompile(`mod\(uv\*size, size\) \+ imageSrc0Origin\(\)`).Match(src) {
		t.Error("textured shader wraps lookups without image 0's origin")
	}
}

func TestOverlayUniforms(t *testing.T) {
	state := tunnel.NewFrameState(0)
	state.Time = 3
	state.Pulse = 2

	o := &overlay{uniforms: map[string]any{}, tint: 0.3}
	if !o.active() {
		t.Fatal("tinted overlay reported inactive")
	}
	o.update(state)
	if got := o.uniforms["Pulse"]; got != float32(1) {
		t.Errorf("Pulse = %v, want clamped 1", got)
	}
	if got := o.uniforms["LineStrength"]; got != float32(0) {
		t.Errorf("LineStrength = %v with lines off", got)
	}
	if got := o.uniforms["Time"]; got != float32(3) {
		t.Errorf("Time = %v, want 3", got)
	}

	o.lines = true
	o.update(state)
	if got := o.uniforms["LineStrength"]; got != float32(1) {
		t.Errorf("LineStrength = %v with lines on", got)
	}

	if (&overlay{}).active() {
		t.Error("overlay without lines or tint reported active")
	}
}
