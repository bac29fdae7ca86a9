package tunnel

import (
	"fmt"
	"image"
	"image/color"

	"github.com/iburimskiy/tunnel-visualization/internal/fade"
)

// MaterialKind tags the shader program family of a shell.
type MaterialKind int

const (
	// Textured samples base, bump and overlay textures panned along the tube
	Textured MaterialKind = iota
	// Procedural draws an animated blinking grid with no textures
	Procedural
	// Flat fills the tube with one color, used as a backing layer
	Flat
)

func (k MaterialKind) String() string {
	switch k {
	case Textured:
		return "textured"
	case Procedural:
		return "procedural"
	case Flat:
		return "flat"
	default:
		return fmt.Sprintf("MaterialKind(%d)", int(k))
	}
}

// BlendMode controls how a shell composites over what is already drawn.
type BlendMode int

const (
	BlendAlpha BlendMode = iota
	BlendAdditive
)

// Texture is an externally loaded image. Only its size is read here.
type Texture interface {
	Bounds() image.Rectangle
}

// Texture slots of a textured material
const (
	SlotBase = iota
	SlotBump
	SlotOverlay1
	SlotOverlay2
	TextureSlots
)

// Uniform names shared with the shader sources.
const (
	UniformTime             = "Time"
	UniformElapsed          = "Elapsed"
	UniformResolution       = "Resolution"
	UniformOpacity          = "Opacity"
	UniformScale            = "Scale"
	UniformFadeNear         = "FadeNear"
	UniformFadeFar          = "FadeFar"
	UniformFadeStart        = "FadeStart"
	UniformFadeEnd          = "FadeEnd"
	UniformBaseOffset       = "BaseOffset"
	UniformBaseRepeat       = "BaseRepeat"
	UniformOverlayRepeat    = "OverlayRepeat"
	UniformBumpIntensity    = "BumpIntensity"
	UniformOverlayOpacity1  = "OverlayOpacity1"
	UniformOverlayOpacity2  = "OverlayOpacity2"
	UniformPrimaryColor     = "PrimaryColor"
	UniformSecondaryColor   = "SecondaryColor"
	UniformColorIntensity   = "ColorIntensity"
	UniformGridSize         = "GridSize"
	UniformAnimationSpeed   = "AnimationSpeed"
	UniformBlinkSpeed       = "BlinkSpeed"
	UniformBlinkVariation   = "BlinkVariation"
	UniformBlinkProbability = "BlinkProbability"
	UniformPulse            = "Pulse"
	UniformColor            = "Color"
)

// Material is a shell's shader binding: the program family, its texture
// inputs and the uniform map handed to the renderer each frame. Uniform values
// are float32 or []float32.
type Material struct {
	Kind     MaterialKind
	Blend    BlendMode
	Textures [TextureSlots]Texture
	Uniforms map[string]any
}

// Declares reports whether the material exposes the named uniform.
func (m *Material) Declares(name string) bool {
	_, ok := m.Uniforms[name]
	return ok
}

// Float returns a scalar uniform, or false when the material lacks it.
func (m *Material) Float(name string) (float32, bool) {
	v, ok := m.Uniforms[name].(float32)
	return v, ok
}

// Vec returns a vector uniform, or nil when the material lacks it.
func (m *Material) Vec(name string) []float32 {
	v, _ := m.Uniforms[name].([]float32)
	return v
}

// TexturedParams configure a textured shell. Nil overlays or a nil Fade
// produce the simplified material without those uniforms.
type TexturedParams struct {
	Base, Bump         Texture
	Overlay1, Overlay2 Texture
	Fade               *fade.Window
}

// ProceduralParams configure the grid shader.
type ProceduralParams struct {
	Fade *fade.Window
}

// NewTexturedMaterial declares the uniforms of the textured program.
func NewTexturedMaterial(p TexturedParams, s ShellParams) (*Material, error) {
	if p.Base == nil {
		return nil, fmt.Errorf("%w: textured material needs a base texture", ErrInvalidConfig)
	}
	m := &Material{Kind: Textured, Blend: BlendAlpha, Uniforms: map[string]any{}}
	m.Textures[SlotBase] = p.Base
	m.Textures[SlotBump] = p.Bump
	if m.Textures[SlotBump] == nil {
		m.Textures[SlotBump] = p.Base
	}
	declare(m, UniformOpacity, UniformBaseOffset, UniformBaseRepeat, UniformBumpIntensity, UniformResolution)

	if p.Overlay1 != nil && p.Overlay2 != nil {
		m.Textures[SlotOverlay1] = p.Overlay1
		m.Textures[SlotOverlay2] = p.Overlay2
		declare(m, UniformOverlayRepeat, UniformOverlayOpacity1, UniformOverlayOpacity2)
	}
	if err := declareFade(m, p.Fade); err != nil {
		return nil, err
	}
	syncScalars(m, s)
	return m, nil
}

// NewProceduralMaterial declares the uniforms of the grid program.
func NewProceduralMaterial(p ProceduralParams, s ShellParams) (*Material, error) {
	m := &Material{Kind: Procedural, Blend: BlendAdditive, Uniforms: map[string]any{}}
	declare(m,
		UniformTime, UniformElapsed, UniformResolution, UniformOpacity, UniformScale,
		UniformBaseOffset, UniformPrimaryColor, UniformSecondaryColor, UniformColorIntensity,
		UniformGridSize, UniformAnimationSpeed, UniformBlinkSpeed, UniformBlinkVariation,
		UniformBlinkProbability, UniformPulse,
	)
	if err := declareFade(m, p.Fade); err != nil {
		return nil, err
	}
	syncScalars(m, s)
	return m, nil
}

// NewFlatMaterial declares a single color uniform.
func NewFlatMaterial(s ShellParams) *Material {
	m := &Material{Kind: Flat, Blend: BlendAlpha, Uniforms: map[string]any{}}
	declare(m, UniformColor, UniformOpacity)
	syncScalars(m, s)
	return m
}

// NewMaterial builds the material for s.Kind from s alone. Textured shells
// still need a base texture.
func NewMaterial(s ShellParams, textures [TextureSlots]Texture) (*Material, error) {
	window := s.Fade
	switch s.Kind {
	case Textured:
		return NewTexturedMaterial(TexturedParams{
			Base:     textures[SlotBase],
			Bump:     textures[SlotBump],
			Overlay1: textures[SlotOverlay1],
			Overlay2: textures[SlotOverlay2],
			Fade:     &window,
		}, s)
	case Procedural:
		return NewProceduralMaterial(ProceduralParams{Fade: &window}, s)
	case Flat:
		return NewFlatMaterial(s), nil
	default:
		return nil, fmt.Errorf("%w: unknown material kind %v", ErrInvalidConfig, s.Kind)
	}
}

func declare(m *Material, names ...string) {
	for _, name := range names {
		switch name {
		case UniformResolution, UniformBaseOffset, UniformBaseRepeat, UniformOverlayRepeat:
			m.Uniforms[name] = []float32{0, 0}
		case UniformPrimaryColor, UniformSecondaryColor, UniformColor:
			m.Uniforms[name] = []float32{0, 0, 0}
		default:
			m.Uniforms[name] = float32(0)
		}
	}
}

func declareFade(m *Material, w *fade.Window) error {
	if w == nil {
		return nil
	}
	if err := w.Validate(); err != nil {
		return fmt.Errorf("%v material: %w", m.Kind, err)
	}
	declare(m, UniformFadeNear, UniformFadeFar, UniformFadeStart, UniformFadeEnd)
	return nil
}

// RGB converts c to the linear [0,1] triple the shaders expect.
func RGB(c color.Color) [3]float32 {
	if c == nil {
		return [3]float32{}
	}
	r, g, b, _ := c.RGBA()
	return [3]float32{float32(r) / 0xffff, float32(g) / 0xffff, float32(b) / 0xffff}
}
