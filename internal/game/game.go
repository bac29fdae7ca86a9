package game

import (
	"errors"
	"fmt"
	"image/color"
	"log"
	"math/rand/v2"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/ncruces/zenity"

	"github.com/iburimskiy/tunnel-visualization/internal/config"
	"github.com/iburimskiy/tunnel-visualization/internal/particle"
	"github.com/iburimskiy/tunnel-visualization/internal/scene"
	"github.com/iburimskiy/tunnel-visualization/internal/tunnel"
)

// Game hosts the tunnel scene in an ebiten window: it feeds the scene one
// frame per tick and draws shells then particles.
type Game struct {
	cfg     config.Config
	scene   *scene.Scene
	shaders map[tunnel.MaterialKind]*ebiten.Shader
	overlay *overlay
	sprite  *ebiten.Image
	music   soundtrack

	shells    shellRenderer
	particles particleRenderer

	elapsed float64

	buttonHovered bool
	buttonPressed bool
	barHovered    bool

	lastErr error
}

// NewGame compiles the shaders, prepares textures and builds the scene from cfg.
func NewGame(cfg config.Config) (*Game, error) {
	params, err := cfg.Parameters()
	if err != nil {
		return nil, err
	}
	shaders, err := compileShaders()
	if err != nil {
		return nil, err
	}
	ov, err := newOverlay(cfg.SpeedLines, cfg.PulseTint)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	textures := generateTextures(config.TextureSize, rng)
	if cfg.Texture != "" {
		img, err := loadTexture(cfg.Texture, config.TextureSize)
		if err != nil {
			return nil, fmt.Errorf("load texture: %w", err)
		}
		textures[tunnel.SlotBase] = img
	}

	sc, err := scene.New(params, textures, rng)
	if err != nil {
		return nil, err
	}

	g := &Game{
		cfg:     cfg,
		scene:   sc,
		shaders: shaders,
		overlay: ov,
		sprite:  ebiten.NewImageFromImage(spriteImage(32)),
	}
	if cfg.Sprite != "" {
		if g.sprite, err = loadSprite(cfg.Sprite); err != nil {
			return nil, fmt.Errorf("load sprite: %w", err)
		}
	}
	if cfg.Soundtrack != "" {
		if err := g.music.open(cfg.Soundtrack); err != nil {
			g.lastErr = err
		}
	}
	return g, nil
}

// Close stops playback.
func (g *Game) Close() {
	g.music.close()
}

func (g *Game) Update() error {
	if err := g.handleInput(); err != nil {
		return err
	}

	delta := 1 / float64(ebiten.TPS())
	g.elapsed += delta

	level := g.music.update(delta)
	g.scene.SetPulse(level * g.cfg.PulseGain)
	g.scene.Update(g.elapsed, delta, tunnel.Viewport{
		Width:       config.WindowWidth,
		Height:      config.WindowHeight,
		DeviceScale: ebiten.Monitor().DeviceScaleFactor(),
	})

	if g.cfg.Debug && int(g.elapsed*60)%120 == 0 {
		log.Printf("tps %.1f fps %.1f particles %d pulse %.2f",
			ebiten.ActualTPS(), ebiten.ActualFPS(), g.scene.Pool().Len(), g.scene.State().Pulse)
	}
	return nil
}

func (g *Game) handleInput() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}

	mouseX, mouseY := ebiten.CursorPosition()
	g.buttonHovered = mouseX >= config.ButtonX && mouseX <= config.ButtonX+config.ButtonWidth &&
		mouseY >= config.ButtonY && mouseY <= config.ButtonY+config.ButtonHeight
	if g.buttonHovered && inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.buttonPressed = true
	}
	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		if g.buttonPressed && g.buttonHovered {
			g.report(g.openSoundtrackDialog())
		}
		g.buttonPressed = false
	}

	barX, barY, barW, barH := progressBarRect()
	g.barHovered = mouseX >= barX && mouseX <= barX+barW && mouseY >= barY-4 && mouseY <= barY+barH+4
	if g.barHovered && g.music.loaded() && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		g.report(g.music.seek(float64(mouseX-barX) / float64(barW)))
	}

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		g.music.togglePause()
	case inpututil.IsKeyJustPressed(ebiten.KeyO):
		g.report(g.openSoundtrackDialog())
	case inpututil.IsKeyJustPressed(ebiten.KeyP):
		g.report(g.pickSpriteDialog())
	case inpututil.IsKeyJustPressed(ebiten.KeyI):
		g.report(g.pickTextureDialog())
	case inpututil.IsKeyJustPressed(ebiten.KeyEqual), inpututil.IsKeyJustPressed(ebiten.KeyKPAdd):
		g.adjust("particle count", func(p *scene.SimulationParameters) {
			p.Particles.Count += config.ParticleCountStep
		})
	case inpututil.IsKeyJustPressed(ebiten.KeyMinus), inpututil.IsKeyJustPressed(ebiten.KeyKPSubtract):
		g.adjust("particle count", func(p *scene.SimulationParameters) {
			p.Particles.Count = max(0, p.Particles.Count-config.ParticleCountStep)
		})
	case inpututil.IsKeyJustPressed(ebiten.KeyT):
		g.adjust("placement", func(p *scene.SimulationParameters) {
			p.Particles.Placement = togglePlacement(p.Particles.Placement)
		})
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		g.adjust("wrap", func(p *scene.SimulationParameters) {
			p.Particles.Wrap = toggleWrap(p.Particles.Wrap)
		})
	case inpututil.IsKeyJustPressed(ebiten.KeyA):
		g.adjust("auto-rotate", func(p *scene.SimulationParameters) {
			p.AutoRotate = !p.AutoRotate
		})
	case inpututil.IsKeyJustPressed(ebiten.KeyL):
		g.overlay.lines = !g.overlay.lines
	}
	return nil
}

// adjust applies one live edit to a copy of the current parameters.
func (g *Game) adjust(what string, edit func(*scene.SimulationParameters)) {
	p := g.scene.Params()
	edit(&p)
	if err := g.scene.Apply(p); err != nil {
		g.lastErr = err
		return
	}
	g.lastErr = nil
	if g.cfg.Debug {
		log.Printf("adjusted %s: particles %d placement %v wrap %v auto-rotate %v",
			what, p.Particles.Count, p.Particles.Placement, p.Particles.Wrap, p.AutoRotate)
	}
}

func (g *Game) report(err error) {
	if err != nil {
		g.lastErr = err
		log.Printf("error: %v", err)
	}
}

func togglePlacement(p particle.Placement) particle.Placement {
	if p == particle.CurveRelative {
		return particle.AxisAligned
	}
	return particle.CurveRelative
}

func toggleWrap(w particle.WrapMode) particle.WrapMode {
	if w == particle.Loop {
		return particle.Respawn
	}
	return particle.Loop
}

// selectFile shows a file dialog; a cancelled dialog returns "" and no error.
func selectFile(title string, filter zenity.FileFilter) (string, error) {
	filename, err := zenity.SelectFile(zenity.Title(title), zenity.FileFilters{filter})
	if errors.Is(err, zenity.ErrCanceled) {
		return "", nil
	}
	return filename, err
}

func (g *Game) openSoundtrackDialog() error {
	path, err := selectFile("Open Soundtrack", zenity.FileFilter{
		Name:     "Audio",
		Patterns: []string{"*.wav", "*.mp3", "*.flac"},
	})
	if err != nil || path == "" {
		return err
	}
	return g.music.open(path)
}

func (g *Game) pickSpriteDialog() error {
	path, err := selectFile("Choose Particle Sprite", zenity.FileFilter{
		Name:     "Images",
		Patterns: []string{"*.png", "*.jpg", "*.jpeg"},
	})
	if err != nil || path == "" {
		return err
	}
	sprite, err := loadSprite(path)
	if err != nil {
		return err
	}
	g.sprite = sprite
	return nil
}

func (g *Game) pickTextureDialog() error {
	path, err := selectFile("Choose Tunnel Texture", zenity.FileFilter{
		Name:     "Images",
		Patterns: []string{"*.png", "*.jpg", "*.jpeg"},
	})
	if err != nil || path == "" {
		return err
	}
	img, err := loadTexture(path, config.TextureSize)
	if err != nil {
		return err
	}
	textures := g.scene.Textures()
	textures[tunnel.SlotBase] = img
	return g.scene.SetTextures(textures)
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.Black)

	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	eye, frame := g.scene.Viewpoint()
	cam := newCamera(eye, frame, g.scene.Rotation(), w, h, config.FieldOfView, config.NearPlane)

	for _, sh := range g.scene.Shells() {
		g.shells.draw(screen, sh, cam, g.shaders[sh.Material.Kind], config.TextureSize)
	}
	g.particles.draw(screen, g.scene.Pool(), g.scene.Params().Particles, cam, g.sprite, g.scene.State().Time)
	g.overlay.draw(screen, g.scene.State())

	g.drawButton(screen)
	g.drawProgressBar(screen)
	g.drawStatus(screen)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return config.WindowWidth, config.WindowHeight
}

func progressBarRect() (x, y, w, h int) {
	return config.BarMargin, config.WindowHeight - config.BarMargin - config.BarHeight,
		config.WindowWidth - 2*config.BarMargin, config.BarHeight
}

func (g *Game) drawButton(screen *ebiten.Image) {
	bg := color.RGBA{R: 100, G: 120, B: 160, A: 200}
	switch {
	case g.buttonPressed:
		bg = color.RGBA{R: 60, G: 80, B: 120, A: 220}
	case g.buttonHovered:
		bg = color.RGBA{R: 80, G: 100, B: 140, A: 220}
	}
	x, y := float32(config.ButtonX), float32(config.ButtonY)
	vector.DrawFilledRect(screen, x, y, config.ButtonWidth, config.ButtonHeight, bg, false)
	vector.StrokeRect(screen, x, y, config.ButtonWidth, config.ButtonHeight, 2, color.RGBA{R: 150, G: 170, B: 200, A: 255}, false)

	text := "Soundtrack"
	textX := config.ButtonX + (config.ButtonWidth-len(text)*6)/2
	textY := config.ButtonY + (config.ButtonHeight-16)/2
	ebitenutil.DebugPrintAt(screen, text, textX, textY)
}

func (g *Game) drawProgressBar(screen *ebiten.Image) {
	if !g.music.loaded() {
		return
	}
	x, y, w, h := progressBarRect()
	vector.DrawFilledRect(screen, float32(x), float32(y), float32(w), float32(h), color.RGBA{R: 25, G: 30, B: 40, A: 160}, false)

	progress := g.music.progress()
	if progress > 0 {
		r, gr, b := hsvToRgb(200+progress*120, 0.8, 0.9)
		vector.DrawFilledRect(screen, float32(x), float32(y), float32(progress*float64(w)), float32(h), color.RGBA{R: r, G: gr, B: b, A: 180}, false)
	}
	if g.barHovered {
		vector.StrokeRect(screen, float32(x), float32(y), float32(w), float32(h), 1, color.RGBA{R: 100, G: 110, B: 130, A: 255}, false)
	}

	elapsed := formatDuration(g.music.position) + " / " + formatDuration(g.music.duration)
	ebitenutil.DebugPrintAt(screen, elapsed, x, y-16)
}

func (g *Game) drawStatus(screen *ebiten.Image) {
	p := g.scene.Params()
	status := "O: soundtrack  P: sprite  I: texture  +/-: particles  T: placement  R: wrap  A: rotate  L: lines  Esc: quit"
	switch {
	case !g.music.loaded():
	case g.music.paused:
		status = "Paused - Space to play | " + status
	default:
		status = "Playing - Space to pause | " + status
	}
	ebitenutil.DebugPrintAt(screen, status, 12, 12)

	info := fmt.Sprintf("particles %d  placement %v  wrap %v  pulse %.2f",
		p.Particles.Count, p.Particles.Placement, p.Particles.Wrap, g.scene.State().Pulse)
	if g.cfg.Debug {
		info += fmt.Sprintf("  fps %.0f", ebiten.ActualFPS())
	}
	if g.lastErr != nil {
		info += " | Error: " + g.lastErr.Error()
	}
	ebitenutil.DebugPrintAt(screen, info, 12, 28)
}
