package game

import (
	"cmp"
	"image/color"
	"math"
	"slices"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/iburimskiy/tunnel-visualization/internal/particle"
	"github.com/iburimskiy/tunnel-visualization/internal/tunnel"
)

// maxBatchVertices is the most vertices a uint16 index can address.
const maxBatchVertices = math.MaxUint16 + 1

// particleScale converts particle size in world units into sprite diameter.
const particleScale = 4.0

// ringBatches splits a tube of segments into [start, end) segment ranges
// whose rings fit in limit vertices.
func ringBatches(segments, ringSize, limit int) [][2]int {
	per := limit/ringSize - 1
	if per < 1 {
		per = 1
	}
	var out [][2]int
	for start := 0; start < segments; start += per {
		out = append(out, [2]int{start, min(start+per, segments)})
	}
	return out
}

// shellRenderer projects tube meshes each frame. Buffers are reused across
// frames and shells.
type shellRenderer struct {
	vertices []ebiten.Vertex
	visible  []bool
	indices  []uint16
}

// project fills the vertex buffer: UV goes through Src in texels, depth and
// jitter through the red and green vertex color.
func (r *shellRenderer) project(m *tunnel.Mesh, cam camera, texSize float64) {
	n := len(m.Vertices)
	r.vertices = slices.Grow(r.vertices[:0], n)[:n]
	r.visible = slices.Grow(r.visible[:0], n)[:n]
	for i, v := range m.Vertices {
		x, y, _, ok := cam.project(v.Position)
		r.visible[i] = ok
		r.vertices[i] = ebiten.Vertex{
			DstX:   float32(x),
			DstY:   float32(y),
			SrcX:   float32(v.U * texSize),
			SrcY:   float32(v.V * texSize),
			ColorR: float32(v.Depth),
			ColorG: float32(v.Jitter),
			ColorA: 1,
		}
	}
}

// visibleTriangles appends the triangles of indices whose three vertices are
// all in view, rebased by base.
func visibleTriangles(dst []uint16, indices []uint32, visible []bool, base int) []uint16 {
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := int(indices[i]), int(indices[i+1]), int(indices[i+2])
		if !visible[a] || !visible[b] || !visible[c] {
			continue
		}
		dst = append(dst, uint16(a-base), uint16(b-base), uint16(c-base))
	}
	return dst
}

// draw renders one shell far ring first so nearer rings paint over it.
func (r *shellRenderer) draw(screen *ebiten.Image, sh *tunnel.Shell, cam camera, shader *ebiten.Shader, texSize float64) {
	if sh.Mesh == nil || sh.Material == nil || shader == nil {
		return
	}
	m := sh.Mesh
	r.project(m, cam, texSize)

	op := &ebiten.DrawTrianglesShaderOptions{
		Uniforms: sh.Material.Uniforms,
		Blend:    blendFor(sh.Material.Blend),
	}
	for i, t := range sh.Material.Textures {
		if img, ok := t.(*ebiten.Image); ok {
			op.Images[i] = img
		}
	}

	ringSize := m.RingVertices()
	quad := m.Sides * 6
	for _, b := range ringBatches(m.Rings-1, ringSize, maxBatchVertices) {
		base := b[0] * ringSize
		r.indices = visibleTriangles(r.indices[:0], m.Indices[b[0]*quad:b[1]*quad], r.visible, base)
		if len(r.indices) == 0 {
			continue
		}
		screen.DrawTrianglesShader(r.vertices[base:(b[1]+1)*ringSize], r.indices, shader, op)
	}
}

// particleRenderer draws the field back to front after the shells.
type particleRenderer struct {
	transforms []particle.Transform
	order      []int
	points     [][3]float64
}

// depthOrder sorts order so the farthest point comes first.
func depthOrder(order []int, points [][3]float64) {
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(points[b][2], points[a][2])
	})
}

func (r *particleRenderer) draw(screen *ebiten.Image, pool *particle.Pool, params particle.Params, cam camera, sprite *ebiten.Image, time float64) {
	r.transforms = pool.Transforms(r.transforms, params)
	r.order = r.order[:0]
	r.points = slices.Grow(r.points[:0], len(r.transforms))[:len(r.transforms)]
	for i, tr := range r.transforms {
		x, y, z, ok := cam.project(tr.Position)
		if !ok || tr.Opacity <= 0 {
			continue
		}
		r.points[i] = [3]float64{x, y, z}
		r.order = append(r.order, i)
	}
	depthOrder(r.order, r.points)

	for _, i := range r.order {
		tr, pt := r.transforms[i], r.points[i]
		diameter := tr.Size * particleScale * cam.scale(pt[2])
		if diameter < 1 {
			diameter = 1
		}
		tint := particleTint(i, time)

		if sprite == nil {
			a := clamp01(tr.Opacity)
			clr := color.RGBA{
				R: uint8(float64(tint.R) * a),
				G: uint8(float64(tint.G) * a),
				B: uint8(float64(tint.B) * a),
				A: uint8(255 * a),
			}
			vector.DrawFilledCircle(screen, float32(pt[0]), float32(pt[1]), float32(diameter/2), clr, true)
			continue
		}

		w, h := sprite.Bounds().Dx(), sprite.Bounds().Dy()
		s := diameter / float64(max(w, h))
		op := &ebiten.DrawImageOptions{Blend: ebiten.BlendLighter}
		op.GeoM.Translate(-float64(w)/2, -float64(h)/2)
		op.GeoM.Scale(s, s)
		op.GeoM.Translate(pt[0], pt[1])
		op.ColorScale.ScaleWithColor(tint)
		op.ColorScale.ScaleAlpha(float32(tr.Opacity))
		screen.DrawImage(sprite, op)
	}
}

// particleTint drifts each particle's hue slowly around cyan.
func particleTint(i int, time float64) color.RGBA {
	hue := 190 + 40*math.Sin(time*0.5+float64(i)*0.7)
	r, g, b := hsvToRgb(hue, 0.35, 1)
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
