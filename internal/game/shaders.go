package game

import (
	"embed"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/iburimskiy/tunnel-visualization/internal/tunnel"
)

//go:embed shaders/*.kage
var shaderFS embed.FS

var shaderFiles = map[tunnel.MaterialKind]string{
	tunnel.Textured:   "shaders/textured.kage",
	tunnel.Procedural: "shaders/procedural.kage",
	tunnel.Flat:       "shaders/flat.kage",
}

// compileShaders builds one program per material kind. Uniform names in the
// sources match the tunnel.Uniform* constants.
func compileShaders() (map[tunnel.MaterialKind]*ebiten.Shader, error) {
	out := make(map[tunnel.MaterialKind]*ebiten.Shader, len(shaderFiles))
	for kind, name := range shaderFiles {
		src, err := shaderFS.ReadFile(name)
		if err != nil {
			return nil, err
		}
		sh, err := ebiten.NewShader(src)
		if err != nil {
			return nil, fmt.Errorf("compile %v shader: %w", kind, err)
		}
		out[kind] = sh
	}
	return out, nil
}

func blendFor(m tunnel.BlendMode) ebiten.Blend {
	if m == tunnel.BlendAdditive {
		return ebiten.BlendLighter
	}
	return ebiten.BlendSourceOver
}
