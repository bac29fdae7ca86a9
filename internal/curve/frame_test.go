package curve

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func assertOrthonormal(t *testing.T, label string, f Frame) {
	t.Helper()
	for name, v := range map[string]r3.Vec{"tangent": f.Tangent, "normal": f.Normal, "binormal": f.Binormal} {
		if n := r3.Norm(v); math.Abs(n-1) > 1e-9 {
			t.Fatalf("%s: |%s| = %v", label, name, n)
		}
	}
	if d := r3.Dot(f.Tangent, f.Normal); math.Abs(d) > 1e-9 {
		t.Fatalf("%s: tangent·normal = %v", label, d)
	}
	if d := r3.Dot(f.Tangent, f.Binormal); math.Abs(d) > 1e-9 {
		t.Fatalf("%s: tangent·binormal = %v", label, d)
	}
	if d := r3.Dot(f.Normal, f.Binormal); math.Abs(d) > 1e-9 {
		t.Fatalf("%s: normal·binormal = %v", label, d)
	}
	if !near(r3.Cross(f.Tangent, f.Normal), f.Binormal, 1e-9) {
		t.Fatalf("%s: basis is not right-handed", label)
	}
}

func TestFrameAtIsOrthonormalAlongCurve(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Twists = 7
	cfg.AmplitudeEnd = 48
	c, err := Build(cfg)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for i := 0; i <= 200; i++ {
		u := float64(i) / 200
		assertOrthonormal(t, "u", FrameAt(c, u))
	}
}

func TestFrameFromTangentDegenerateUp(t *testing.T) {
	tests := []struct {
		name    string
		tangent r3.Vec
	}{
		{"exactly up", r3.Vec{Y: 1}},
		{"exactly down", r3.Vec{Y: -1}},
		{"just past threshold", unit(r3.Vec{X: 0.1, Y: 0.995})},
		{"just under threshold", unit(r3.Vec{X: 0.15, Y: 0.985})},
		{"along z", r3.Vec{Z: 1}},
		{"along x", r3.Vec{X: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertOrthonormal(t, tt.name, FrameFromTangent(tt.tangent))
		})
	}
}

func TestFrameUsesFallbackOnlyWhenNearlyParallel(t *testing.T) {
	f := FrameFromTangent(r3.Vec{Y: 1})
	if !near(f.Normal, r3.Vec{X: 1}, 1e-12) {
		t.Errorf("normal for vertical tangent = %v, want (1,0,0)", f.Normal)
	}

	f = FrameFromTangent(r3.Vec{Z: 1})
	if !near(f.Normal, r3.Vec{Y: 1}, 1e-12) {
		t.Errorf("normal for forward tangent = %v, want (0,1,0)", f.Normal)
	}
}

func TestFrameAtVerticalCurve(t *testing.T) {
	c, err := NewCurve([]r3.Vec{{}, {Y: 5}, {Y: 10}}, Centripetal, DefaultTension)
	if err != nil {
		t.Fatalf("new curve: %v", err)
	}
	for _, u := range []float64{0, 0.5, 1} {
		f := FrameAt(c, u)
		if !near(f.Tangent, r3.Vec{Y: 1}, 1e-9) {
			t.Fatalf("tangent = %v, want (0,1,0)", f.Tangent)
		}
		assertOrthonormal(t, "vertical", f)
	}
}

func TestFrameOffsetMagnitude(t *testing.T) {
	f := FrameFromTangent(unit(r3.Vec{X: 0.3, Y: 0.2, Z: 1}))
	for _, angle := range []float64{0, 1, math.Pi / 2, 4, 2 * math.Pi} {
		if n := r3.Norm(f.Offset(angle, 12)); math.Abs(n-12) > 1e-9 {
			t.Errorf("|Offset(%v, 12)| = %v", angle, n)
		}
		if d := r3.Dot(f.Offset(angle, 12), f.Tangent); math.Abs(d) > 1e-9 {
			t.Errorf("offset not perpendicular to tangent: %v", d)
		}
	}
}
