package game

import (
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"math/rand/v2"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/iburimskiy/tunnel-visualization/internal/tunnel"
)

// panelImage draws riveted metal panels for the tunnel wall.
func panelImage(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	cell := size / 8
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			px, py := x%cell, y%cell
			v := 70 + 30*math.Sin(float64(x/cell+y/cell))
			if px < 2 || py < 2 {
				v = 25
			}
			if (px-6)*(px-6)+(py-6)*(py-6) < 4 {
				v = 150
			}
			c := uint8(v)
			img.Set(x, y, color.RGBA{R: c, G: c + 8, B: c + 20, A: 255})
		}
	}
	return img
}

// noiseImage is a smoothed value noise used as the bump map.
func noiseImage(size int, rng *rand.Rand) *image.RGBA {
	const grid = 16
	lattice := make([]float64, grid*grid)
	for i := range lattice {
		lattice[i] = rng.Float64()
	}
	at := func(x, y int) float64 {
		return lattice[(y%grid)*grid+x%grid]
	}

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	step := float64(size) / grid
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			fx, fy := float64(x)/step, float64(y)/step
			ix, iy := int(fx), int(fy)
			tx, ty := smooth(fx-float64(ix)), smooth(fy-float64(iy))
			top := lerp(at(ix, iy), at(ix+1, iy), tx)
			bottom := lerp(at(ix, iy+1), at(ix+1, iy+1), tx)
			c := uint8(255 * lerp(top, bottom, ty))
			img.Set(x, y, color.RGBA{R: c, G: c, B: c, A: 255})
		}
	}
	return img
}

// stripeImage is a soft band overlay running around the tube.
func stripeImage(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			a := 0.5 + 0.5*math.Sin(float64(x)/float64(size)*2*math.Pi*4)
			a *= a
			img.Set(x, y, color.NRGBA{R: 40, G: 160, B: 255, A: uint8(255 * a * 0.6)})
		}
	}
	return img
}

// dotImage scatters small lights for the second overlay.
func dotImage(size int, rng *rand.Rand) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for i := 0; i < size/4; i++ {
		cx, cy := rng.IntN(size), rng.IntN(size)
		for dy := -2; dy <= 2; dy++ {
			for dx := -2; dx <= 2; dx++ {
				if dx*dx+dy*dy > 4 {
					continue
				}
				x, y := (cx+dx+size)%size, (cy+dy+size)%size
				img.Set(x, y, color.NRGBA{R: 255, G: 230, B: 160, A: 220})
			}
		}
	}
	return img
}

// spriteImage is the default particle: a radial glow.
func spriteImage(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	c := float64(size-1) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			d := math.Hypot(float64(x)-c, float64(y)-c) / c
			a := clamp01(1 - d)
			a *= a
			v := uint8(255 * a)
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: v})
		}
	}
	return img
}

func smooth(t float64) float64 { return t * t * (3 - 2*t) }

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

// generateTextures builds the default wall set, all TextureSize square.
func generateTextures(size int, rng *rand.Rand) [tunnel.TextureSlots]tunnel.Texture {
	var out [tunnel.TextureSlots]tunnel.Texture
	out[tunnel.SlotBase] = ebiten.NewImageFromImage(panelImage(size))
	out[tunnel.SlotBump] = ebiten.NewImageFromImage(noiseImage(size, rng))
	out[tunnel.SlotOverlay1] = ebiten.NewImageFromImage(stripeImage(size))
	out[tunnel.SlotOverlay2] = ebiten.NewImageFromImage(dotImage(size, rng))
	return out
}

// fitTexture rescales src to a size x size image so it can share a draw
// call with the other shell textures.
func fitTexture(src image.Image, size int) *ebiten.Image {
	img := ebiten.NewImageFromImage(src)
	b := src.Bounds()
	dst := ebiten.NewImage(size, size)
	op := &ebiten.DrawImageOptions{Filter: ebiten.FilterLinear}
	op.GeoM.Scale(float64(size)/float64(b.Dx()), float64(size)/float64(b.Dy()))
	dst.DrawImage(img, op)
	return dst
}

// loadTexture reads an image file and fits it to size.
func loadTexture(path string, size int) (*ebiten.Image, error) {
	_, img, err := ebitenutil.NewImageFromFile(path)
	if err != nil {
		return nil, err
	}
	return fitTexture(img, size), nil
}

// loadSprite reads a particle sprite at its own size.
func loadSprite(path string) (*ebiten.Image, error) {
	img, _, err := ebitenutil.NewImageFromFile(path)
	if err != nil {
		return nil, err
	}
	return img, nil
}
