package config

const (
	WindowWidth  = 1024
	WindowHeight = 512

	VisualRingSize  = 8192
	SmoothingFactor = 0.6

	// Soundtrack button
	ButtonWidth  = 120
	ButtonHeight = 40
	ButtonX      = 20
	ButtonY      = 50

	// Progress bar along the bottom edge
	BarHeight = 12
	BarMargin = 20

	// TextureSize is the edge of every shell texture; shader inputs must match in size
	TextureSize = 256

	// LevelWindow is the number of recent samples the pulse level is measured over
	LevelWindow = 2048

	FieldOfView = 75.0
	NearPlane   = 0.5

	ParticleCountStep = 16
)
