package game

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/iburimskiy/tunnel-visualization/internal/tunnel"
)

const overlayFile = "shaders/overlay.kage"

// overlay is the full-screen pass drawn over the shells: radial speed lines
// and a magenta wash that breathes with the pulse.
type overlay struct {
	shader   *ebiten.Shader
	uniforms map[string]any
	lines    bool
	tint     float64
}

func newOverlay(lines bool, tint float64) (*overlay, error) {
	src, err := shaderFS.ReadFile(overlayFile)
	if err != nil {
		return nil, err
	}
	sh, err := ebiten.NewShader(src)
	if err != nil {
		return nil, fmt.Errorf("compile overlay shader: %w", err)
	}
	return &overlay{shader: sh, uniforms: map[string]any{}, lines: lines, tint: tint}, nil
}

// active reports whether the pass would draw anything at all.
func (o *overlay) active() bool {
	return o.lines || o.tint > 0
}

func (o *overlay) update(state *tunnel.FrameState) {
	strength := 0.0
	if o.lines {
		strength = 1
	}
	o.uniforms["Time"] = float32(state.Time)
	o.uniforms["Pulse"] = float32(clamp01(state.Pulse))
	o.uniforms["LineStrength"] = float32(strength)
	o.uniforms["TintStrength"] = float32(clamp01(o.tint))
}

func (o *overlay) draw(screen *ebiten.Image, state *tunnel.FrameState) {
	if !o.active() {
		return
	}
	o.update(state)
	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	op := &ebiten.DrawRectShaderOptions{Uniforms: o.uniforms}
	screen.DrawRectShader(w, h, o.shader, op)
}
