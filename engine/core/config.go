package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type WindowConfig struct {
	Title     string `toml:"title"`
	Width     uint32 `toml:"width"`
	Height    uint32 `toml:"height"`
	Resizable bool   `toml:"resizable"`
}

type RendererConfig struct {
	// Number of frame slots (fence, semaphores, command buffer) in the ring.
	FramesInFlight int `toml:"frames_in_flight"`
	// Requested swapchain image count, clamped by the surface capabilities.
	MinImageCount uint32 `toml:"min_image_count"`
	Validation    bool   `toml:"validation"`
	// fifo or mailbox.
	PresentMode string `toml:"present_mode"`
}

type AssetsConfig struct {
	Dir       string `toml:"dir"`
	Blob      string `toml:"blob"`
	Index     string `toml:"index"`
	HotReload bool   `toml:"hot_reload"`
}

type InputConfig struct {
	Bindings string `toml:"bindings"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// EngineConfig is the on-disk engine configuration (engine.toml).
type EngineConfig struct {
	Window   WindowConfig   `toml:"window"`
	Renderer RendererConfig `toml:"renderer"`
	Assets   AssetsConfig   `toml:"assets"`
	Input    InputConfig    `toml:"input"`
	Log      LogConfig      `toml:"log"`
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Window: WindowConfig{
			Title:     "Loop Engine",
			Width:     800,
			Height:    600,
			Resizable: true,
		},
		Renderer: RendererConfig{
			FramesInFlight: 3,
			MinImageCount:  3,
			Validation:     false,
			PresentMode:    "fifo",
		},
		Assets: AssetsConfig{
			Dir:   "build",
			Blob:  "assets.bin",
			Index: "assets.yaml",
		},
		Input: InputConfig{
			Bindings: "input.yaml",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadEngineConfig reads path on top of the defaults. A missing file is not
// an error.
func LoadEngineConfig(path string) (EngineConfig, error) {
	cfg := DefaultEngineConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			LogDebug("no engine config at %s, using defaults", path)
			return cfg, nil
		}
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse engine config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c EngineConfig) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (c EngineConfig) Validate() error {
	if c.Renderer.FramesInFlight < 1 {
		return fmt.Errorf("renderer.frames_in_flight must be at least 1, got %d", c.Renderer.FramesInFlight)
	}
	switch c.Renderer.PresentMode {
	case "", "fifo", "mailbox":
	default:
		return fmt.Errorf("renderer.present_mode must be fifo or mailbox, got %q", c.Renderer.PresentMode)
	}
	if c.Window.Width == 0 || c.Window.Height == 0 {
		return fmt.Errorf("window size must be non-zero, got %dx%d", c.Window.Width, c.Window.Height)
	}
	return nil
}
