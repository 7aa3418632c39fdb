// Package config loads the viewer configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/dragonikpl/spine-runtimes/engine/assembler"
	"github.com/dragonikpl/spine-runtimes/engine/renderer"
	"github.com/dragonikpl/spine-runtimes/engine/renderer/pipeline"
	"github.com/dragonikpl/spine-runtimes/engine/skeleton"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the complete viewer configuration.
type Config struct {
	Window   WindowConfig   `yaml:"window"`
	Engine   EngineConfig   `yaml:"engine"`
	Renderer RendererConfig `yaml:"renderer"`
	Skeleton SkeletonConfig `yaml:"skeleton"`
}

// WindowConfig configures the viewer window.
type WindowConfig struct {
	Title       string `yaml:"title"`
	Width       int    `yaml:"width"`
	Height      int    `yaml:"height"`
	Transparent bool   `yaml:"transparent"`
}

// EngineConfig configures the engine loops.
type EngineConfig struct {
	// TickRate is the logic tick rate in Hz.
	TickRate float64 `yaml:"tick_rate"`
	// FrameLimit caps the render loop in frames per second, 0 for uncapped.
	FrameLimit float64 `yaml:"frame_limit"`
	// Workers is the scene prepare pool size, 0 for the default.
	Workers   int  `yaml:"workers"`
	Profiling bool `yaml:"profiling"`
}

// RendererConfig configures presentation.
type RendererConfig struct {
	// PresentMode is "vsync" or "uncapped".
	PresentMode string `yaml:"present_mode"`
	// MSAA is the sample count, 1 or 4.
	MSAA int `yaml:"msaa"`
	// ClearColor is the RGBA clear color in [0, 1].
	ClearColor [4]float64 `yaml:"clear_color"`
	// Software forces the fallback adapter.
	Software bool `yaml:"software"`
	// Blend is "straight", or a slot blend mode ("normal", "additive", "multiply", "screen")
	// applied with premultiplied-alpha factors for premultiplied atlas pages.
	Blend string `yaml:"blend"`
}

// SkeletonConfig selects and places the skeleton.
type SkeletonConfig struct {
	// Data is the path of a YAML rig description; empty uses the built-in demo rig.
	Data string `yaml:"data"`
	// Atlas is the path of the atlas page image; empty uses the built-in demo page.
	Atlas string `yaml:"atlas"`
	// FlipAtlas stores the atlas page rows bottom-up.
	FlipAtlas bool `yaml:"flip_atlas"`

	Skin      string  `yaml:"skin"`
	Animation string  `yaml:"animation"`
	Loop      bool    `yaml:"loop"`
	TimeScale float32 `yaml:"time_scale"`
	Scale     float32 `yaml:"scale"`
	X         float32 `yaml:"x"`
	Y         float32 `yaml:"y"`

	// TintMode is "attachment" or "white".
	TintMode     string `yaml:"tint_mode"`
	ReuseBuffers bool   `yaml:"reuse_buffers"`
	// FixedDelta is the clock step per tick in seconds, 0 for the measured delta.
	FixedDelta float32 `yaml:"fixed_delta"`
	// MixDuration is the fade out length of completed one-shot animations.
	MixDuration float32 `yaml:"mix_duration"`
}

// Default returns the configuration used when no file is given.
//
// Returns:
//   - Config: the default configuration
func Default() Config {
	return Config{
		Window: WindowConfig{
			Title:  "Spine Viewer",
			Width:  1280,
			Height: 720,
		},
		Engine: EngineConfig{
			TickRate: 60,
		},
		Renderer: RendererConfig{
			PresentMode: "vsync",
			MSAA:        4,
			Blend:       "straight",
		},
		Skeleton: SkeletonConfig{
			FlipAtlas:    true,
			Animation:    "idle",
			Loop:         true,
			TimeScale:    1,
			Scale:        1,
			TintMode:     "attachment",
			ReuseBuffers: true,
			FixedDelta:   1.0 / 60.0,
			MixDuration:  0.2,
		},
	}
}

// Parse decodes a YAML document over the defaults and validates the result.
//
// Parameters:
//   - raw: the YAML document
//
// Returns:
//   - Config: the configuration
//   - error: error if the document cannot be decoded or fails validation
func Parse(raw []byte) (Config, error) {
	c := Default()
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Load reads the configuration from path. A missing file yields the defaults.
//
// Parameters:
//   - path: the file path, empty for the defaults
//
// Returns:
//   - Config: the configuration
//   - error: error if the file exists but cannot be read, decoded or validated
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("[Config] %s not found, using defaults", path)
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	c, err := Parse(raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return c, nil
}

// Validate checks enum strings and numeric ranges.
//
// Returns:
//   - error: an error wrapping ErrInvalidConfig naming the first bad field
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("%w: window size %dx%d", ErrInvalidConfig, c.Window.Width, c.Window.Height)
	}
	if c.Engine.TickRate < 0 || c.Engine.FrameLimit < 0 || c.Engine.Workers < 0 {
		return fmt.Errorf("%w: engine rates and workers must not be negative", ErrInvalidConfig)
	}
	if _, err := c.PresentMode(); err != nil {
		return err
	}
	if _, err := c.MSAA(); err != nil {
		return err
	}
	if _, err := c.PipelineOptions(); err != nil {
		return err
	}
	for _, ch := range c.Renderer.ClearColor {
		if ch < 0 || ch > 1 {
			return fmt.Errorf("%w: clear color channel %v outside [0, 1]", ErrInvalidConfig, ch)
		}
	}
	if _, err := c.TintMode(); err != nil {
		return err
	}
	if c.Skeleton.Scale <= 0 {
		return fmt.Errorf("%w: skeleton scale %v", ErrInvalidConfig, c.Skeleton.Scale)
	}
	if c.Skeleton.TimeScale < 0 || c.Skeleton.FixedDelta < 0 || c.Skeleton.MixDuration < 0 {
		return fmt.Errorf("%w: skeleton time values must not be negative", ErrInvalidConfig)
	}
	return nil
}

// PresentMode maps the configured present mode name.
//
// Returns:
//   - renderer.PresentMode: the present mode
//   - error: an error wrapping ErrInvalidConfig for unknown names
func (c *Config) PresentMode() (renderer.PresentMode, error) {
	switch c.Renderer.PresentMode {
	case "vsync", "":
		return renderer.PresentModeVSync, nil
	case "uncapped":
		return renderer.PresentModeUncapped, nil
	default:
		return 0, fmt.Errorf("%w: present_mode %q (want vsync or uncapped)", ErrInvalidConfig, c.Renderer.PresentMode)
	}
}

// MSAA maps the configured sample count.
//
// Returns:
//   - renderer.MSAASampleCount: the sample count
//   - error: an error wrapping ErrInvalidConfig for counts other than 1 and 4
func (c *Config) MSAA() (renderer.MSAASampleCount, error) {
	switch c.Renderer.MSAA {
	case 1:
		return renderer.MSAAOff, nil
	case 4, 0:
		return renderer.MSAA4x, nil
	default:
		return 0, fmt.Errorf("%w: msaa %d (want 1 or 4)", ErrInvalidConfig, c.Renderer.MSAA)
	}
}

// PipelineOptions maps the configured blend onto skeleton pipeline options.
//
// Returns:
//   - []pipeline.PipelineBuilderOption: nil for straight alpha, else a WithBlendMode option
//   - error: an error wrapping ErrInvalidConfig for unknown names
func (c *Config) PipelineOptions() ([]pipeline.PipelineBuilderOption, error) {
	var mode skeleton.BlendMode
	switch c.Renderer.Blend {
	case "straight", "":
		return nil, nil
	case "normal":
		mode = skeleton.BlendModeNormal
	case "additive":
		mode = skeleton.BlendModeAdditive
	case "multiply":
		mode = skeleton.BlendModeMultiply
	case "screen":
		mode = skeleton.BlendModeScreen
	default:
		return nil, fmt.Errorf("%w: blend %q (want straight, normal, additive, multiply or screen)", ErrInvalidConfig, c.Renderer.Blend)
	}
	return []pipeline.PipelineBuilderOption{pipeline.WithBlendMode(mode)}, nil
}

// TintMode maps the configured tint mode name.
//
// Returns:
//   - assembler.TintMode: the tint mode
//   - error: an error wrapping ErrInvalidConfig for unknown names
func (c *Config) TintMode() (assembler.TintMode, error) {
	switch c.Skeleton.TintMode {
	case "attachment", "":
		return assembler.TintAttachment, nil
	case "white":
		return assembler.TintWhite, nil
	default:
		return 0, fmt.Errorf("%w: tint_mode %q (want attachment or white)", ErrInvalidConfig, c.Skeleton.TintMode)
	}
}

// ClearColor returns the configured clear color.
//
// Returns:
//   - wgpu.Color: the clear color
func (c *Config) ClearColor() wgpu.Color {
	cc := c.Renderer.ClearColor
	return wgpu.Color{R: cc[0], G: cc[1], B: cc[2], A: cc[3]}
}
