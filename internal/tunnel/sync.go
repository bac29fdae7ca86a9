package tunnel

import (
	"image/color"

	"github.com/iburimskiy/tunnel-visualization/internal/fade"
)

// ShellParams are the live-tunable values of one shell. They are read again
// every frame, so edits take effect without rebuilding the material.
type ShellParams struct {
	Kind MaterialKind

	// Radius is RadiusScale * base radius + RadiusOffset
	RadiusScale  float64
	RadiusOffset float64

	Opacity        float64
	Scale          float64
	PrimaryColor   color.Color
	SecondaryColor color.Color
	Fade           fade.Window

	TextureRepeat   [2]float64
	OverlayRepeat   [2]float64
	PanSpeed        [2]float64
	BumpIntensity   float64
	OverlayOpacity1 float64
	OverlayOpacity2 float64

	ColorIntensity   float64
	GridSize         float64
	AnimationSpeed   float64
	BlinkSpeed       float64
	BlinkVariation   float64
	BlinkProbability float64
}

// Viewport is the drawable area reported by the host each frame.
type Viewport struct {
	Width, Height float64
	// DeviceScale multiplies logical size into device pixels; 0 means 1
	DeviceScale float64
}

// Resolution returns the viewport size in device pixels.
func (v Viewport) Resolution() [2]float64 {
	s := v.DeviceScale
	if s == 0 {
		s = 1
	}
	return [2]float64{v.Width * s, v.Height * s}
}

// FrameState is the scene-wide clock plus per-shell accumulators. One
// FrameState drives every shell so they animate in lockstep; it is derived
// data and never persisted.
type FrameState struct {
	Time       float64
	Elapsed    float64
	Resolution [2]float64
	Pulse      float64

	offsets [][2]float64
}

// NewFrameState allocates accumulators for shells ordinals [0, shells).
func NewFrameState(shells int) *FrameState {
	return &FrameState{offsets: make([][2]float64, shells)}
}

// Advance moves the shared clock once per frame.
func (s *FrameState) Advance(elapsed, delta, animationSpeed float64, viewport Viewport) {
	s.Time += delta * animationSpeed
	s.Elapsed = elapsed
	s.Resolution = viewport.Resolution()
}

// Offset returns the pan accumulator of a shell.
func (s *FrameState) Offset(ordinal int) [2]float64 {
	if ordinal < 0 || ordinal >= len(s.offsets) {
		return [2]float64{}
	}
	return s.offsets[ordinal]
}

// Resize keeps existing accumulators and adds zeroed ones for new ordinals.
func (s *FrameState) Resize(shells int) {
	if shells <= len(s.offsets) {
		s.offsets = s.offsets[:shells]
		return
	}
	s.offsets = append(s.offsets, make([][2]float64, shells-len(s.offsets))...)
}

type updateFunc func(m *Material, state *FrameState, offset [2]float64, p ShellParams)

var updaters = map[MaterialKind]updateFunc{
	Textured:   updateTextured,
	Procedural: updateProcedural,
	Flat:       updateFlat,
}

// UpdateFrame pushes the current frame into a shell's uniforms. It runs once
// per shell per frame after state.Advance. Uniforms the material does not
// declare are skipped.
func UpdateFrame(sh *Shell, state *FrameState, elapsed, delta float64, viewport Viewport, p ShellParams) {
	m := sh.Material
	if m == nil {
		return
	}

	offset := state.Offset(sh.Ordinal)
	if m.Declares(UniformBaseOffset) && sh.Ordinal >= 0 && sh.Ordinal < len(state.offsets) {
		offset[0] -= p.PanSpeed[0] * delta
		offset[1] -= p.PanSpeed[1] * delta
		state.offsets[sh.Ordinal] = offset
	}

	res := viewport.Resolution()
	setVec(m, UniformResolution, res[0], res[1])
	setFloat(m, UniformTime, state.Time)
	setFloat(m, UniformElapsed, elapsed)

	if update, ok := updaters[m.Kind]; ok {
		update(m, state, offset, p)
	}
}

// syncScalars writes the parameter-derived uniforms, used at construction
// and then every frame.
func syncScalars(m *Material, p ShellParams) {
	if update, ok := updaters[m.Kind]; ok {
		update(m, &FrameState{}, [2]float64{}, p)
	}
}

func updateTextured(m *Material, _ *FrameState, offset [2]float64, p ShellParams) {
	setFloat(m, UniformOpacity, p.Opacity)
	setVec(m, UniformBaseOffset, offset[0], offset[1])
	setVec(m, UniformBaseRepeat, p.TextureRepeat[0], p.TextureRepeat[1])
	setVec(m, UniformOverlayRepeat, p.OverlayRepeat[0], p.OverlayRepeat[1])
	setFloat(m, UniformBumpIntensity, p.BumpIntensity)
	setFloat(m, UniformOverlayOpacity1, p.OverlayOpacity1)
	setFloat(m, UniformOverlayOpacity2, p.OverlayOpacity2)
	setFade(m, p.Fade)
}

func updateProcedural(m *Material, state *FrameState, offset [2]float64, p ShellParams) {
	setFloat(m, UniformOpacity, p.Opacity)
	setFloat(m, UniformScale, p.Scale)
	setVec(m, UniformBaseOffset, offset[0], offset[1])
	setColor(m, UniformPrimaryColor, p.PrimaryColor)
	setColor(m, UniformSecondaryColor, p.SecondaryColor)
	setFloat(m, UniformColorIntensity, p.ColorIntensity)
	setFloat(m, UniformGridSize, p.GridSize)
	setFloat(m, UniformAnimationSpeed, p.AnimationSpeed)
	setFloat(m, UniformBlinkSpeed, p.BlinkSpeed)
	setFloat(m, UniformBlinkVariation, p.BlinkVariation)
	setFloat(m, UniformBlinkProbability, p.BlinkProbability)
	setFloat(m, UniformPulse, state.Pulse)
	setFade(m, p.Fade)
}

func updateFlat(m *Material, _ *FrameState, _ [2]float64, p ShellParams) {
	setColor(m, UniformColor, p.PrimaryColor)
	setFloat(m, UniformOpacity, p.Opacity)
}

func setFade(m *Material, w fade.Window) {
	setFloat(m, UniformFadeNear, w.Near)
	setFloat(m, UniformFadeFar, w.Far)
	setFloat(m, UniformFadeStart, w.Start)
	setFloat(m, UniformFadeEnd, w.End)
}

func setFloat(m *Material, name string, v float64) {
	if _, ok := m.Uniforms[name].(float32); ok {
		m.Uniforms[name] = float32(v)
	}
}

func setVec(m *Material, name string, values ...float64) {
	dst, ok := m.Uniforms[name].([]float32)
	if !ok {
		return
	}
	for i := range dst {
		if i < len(values) {
			dst[i] = float32(values[i])
		}
	}
}

func setColor(m *Material, name string, c color.Color) {
	rgb := RGB(c)
	setVec(m, name, float64(rgb[0]), float64(rgb[1]), float64(rgb[2]))
}
