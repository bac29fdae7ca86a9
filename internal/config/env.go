package config

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/iburimskiy/tunnel-visualization/internal/curve"
	"github.com/iburimskiy/tunnel-visualization/internal/particle"
	"github.com/iburimskiy/tunnel-visualization/internal/scene"
	"github.com/iburimskiy/tunnel-visualization/internal/tunnel"
)

// ErrInvalidConfig is returned when an environment value parses but makes no sense.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the startup configuration read from TUNNEL_* variables.
type Config struct {
	Debug bool   `env:"TUNNEL_DEBUG"`
	Seed  uint64 `env:"TUNNEL_SEED" envDefault:"1"`

	Soundtrack string  `env:"TUNNEL_SOUNDTRACK"`
	Sprite     string  `env:"TUNNEL_SPRITE"`
	Texture    string  `env:"TUNNEL_TEXTURE"`
	PulseGain  float64 `env:"TUNNEL_PULSE_GAIN" envDefault:"1.5"`
	PulseTint  float64 `env:"TUNNEL_PULSE_TINT" envDefault:"0.3"`
	SpeedLines bool    `env:"TUNNEL_SPEED_LINES"`

	CurveSegments  int     `env:"TUNNEL_CURVE_SEGMENTS" envDefault:"64"`
	Length         float64 `env:"TUNNEL_LENGTH" envDefault:"1500"`
	Twists         float64 `env:"TUNNEL_TWISTS" envDefault:"7"`
	AmplitudeStart float64 `env:"TUNNEL_AMPLITUDE_START" envDefault:"0"`
	AmplitudeEnd   float64 `env:"TUNNEL_AMPLITUDE_END" envDefault:"48"`
	Spline         string  `env:"TUNNEL_SPLINE" envDefault:"centripetal"`
	Radius         float64 `env:"TUNNEL_RADIUS" envDefault:"24"`
	Segments       int     `env:"TUNNEL_SEGMENTS" envDefault:"64"`
	DepthSpan      float64 `env:"TUNNEL_DEPTH_SPAN" envDefault:"1"`
	InnerGrid      bool    `env:"TUNNEL_INNER_GRID" envDefault:"true"`

	PrimaryColor   string  `env:"TUNNEL_PRIMARY_COLOR" envDefault:"#00aaff"`
	SecondaryColor string  `env:"TUNNEL_SECONDARY_COLOR" envDefault:"#0044aa"`
	AnimationSpeed float64 `env:"TUNNEL_ANIMATION_SPEED" envDefault:"1"`
	AutoRotate     bool    `env:"TUNNEL_AUTO_ROTATE" envDefault:"true"`
	RotationSpeed  float64 `env:"TUNNEL_ROTATION_SPEED" envDefault:"0.8"`

	Particles     int     `env:"TUNNEL_PARTICLES" envDefault:"64"`
	ParticleSpeed float64 `env:"TUNNEL_PARTICLE_SPEED" envDefault:"0.12"`
	ParticleSize  float64 `env:"TUNNEL_PARTICLE_SIZE" envDefault:"0.5"`
	MinOffset     float64 `env:"TUNNEL_PARTICLE_MIN_OFFSET" envDefault:"9"`
	MaxOffset     float64 `env:"TUNNEL_PARTICLE_MAX_OFFSET" envDefault:"22"`
	Placement     string  `env:"TUNNEL_PARTICLE_PLACEMENT" envDefault:"curve"`
	Wrap          string  `env:"TUNNEL_PARTICLE_WRAP" envDefault:"loop"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values that only make sense as a whole scene.
func (c Config) Validate() error {
	_, err := c.Parameters()
	return err
}

// Parameters maps the configuration onto the default scene.
func (c Config) Parameters() (scene.SimulationParameters, error) {
	p := scene.DefaultParameters()

	kind, err := ParseSpline(c.Spline)
	if err != nil {
		return p, err
	}
	primary, err := ParseColor(c.PrimaryColor)
	if err != nil {
		return p, err
	}
	secondary, err := ParseColor(c.SecondaryColor)
	if err != nil {
		return p, err
	}
	placement, err := ParsePlacement(c.Placement)
	if err != nil {
		return p, err
	}
	wrap, err := ParseWrap(c.Wrap)
	if err != nil {
		return p, err
	}
	if c.PulseGain < 0 {
		return p, fmt.Errorf("%w: pulse gain %v is negative", ErrInvalidConfig, c.PulseGain)
	}
	if !(c.PulseTint >= 0 && c.PulseTint <= 1) {
		return p, fmt.Errorf("%w: pulse tint %v outside [0,1]", ErrInvalidConfig, c.PulseTint)
	}

	p.Curve.Segments = c.CurveSegments
	p.Curve.Length = c.Length
	p.Curve.Twists = c.Twists
	p.Curve.AmplitudeStart = c.AmplitudeStart
	p.Curve.AmplitudeEnd = c.AmplitudeEnd
	p.Curve.Kind = kind
	p.TunnelRadius = c.Radius
	p.TunnelSegments = c.Segments
	p.DepthSpanFactor = c.DepthSpan
	p.AnimationSpeed = c.AnimationSpeed
	p.AutoRotate = c.AutoRotate
	p.RotationSpeed = c.RotationSpeed

	if !c.InnerGrid {
		p.Shells = p.Shells[:2]
	}
	for i := range p.Shells {
		if p.Shells[i].Kind == tunnel.Procedural {
			p.Shells[i].PrimaryColor = primary
			p.Shells[i].SecondaryColor = secondary
		}
	}

	p.Particles.Count = c.Particles
	p.Particles.BaseSpeed = c.ParticleSpeed
	p.Particles.Size = c.ParticleSize
	p.Particles.MinOffset = c.MinOffset
	p.Particles.MaxOffset = c.MaxOffset
	p.Particles.Placement = placement
	p.Particles.Wrap = wrap

	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// ParseColor reads #rgb or #rrggbb.
func ParseColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("%w: color %q", ErrInvalidConfig, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: color %q: %v", ErrInvalidConfig, s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// ParseSpline reads centripetal or uniform (alias catmullrom); empty means centripetal.
func ParseSpline(s string) (curve.SplineKind, error) {
	switch strings.ToLower(s) {
	case "centripetal", "":
		return curve.Centripetal, nil
	case "uniform", "catmullrom":
		return curve.Uniform, nil
	}
	return 0, fmt.Errorf("%w: spline %q", ErrInvalidConfig, s)
}

// ParsePlacement reads curve or axis; empty means curve.
func ParsePlacement(s string) (particle.Placement, error) {
	switch strings.ToLower(s) {
	case "curve", "":
		return particle.CurveRelative, nil
	case "axis":
		return particle.AxisAligned, nil
	}
	return 0, fmt.Errorf("%w: particle placement %q", ErrInvalidConfig, s)
}

// ParseWrap reads loop or respawn; empty means loop.
func ParseWrap(s string) (particle.WrapMode, error) {
	switch strings.ToLower(s) {
	case "loop", "":
		return particle.Loop, nil
	case "respawn":
		return particle.Respawn, nil
	}
	return 0, fmt.Errorf("%w: particle wrap %q", ErrInvalidConfig, s)
}
