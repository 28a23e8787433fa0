// Package config holds the presenter's startup settings.
package config

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/vulkan-presenter/internal/logging"
)

// WindowConfig describes the window the presenter draws into.
type WindowConfig struct {
	Width  int
	Height int
	Title  string
}

// Config is the full set of settings read at startup. It is never changed
// once the renderer has been built.
type Config struct {
	Window WindowConfig

	// Validation enables the validation layers and the debug messenger.
	Validation bool
	// Layers are the layers required when Validation is set.
	Layers []string

	VertexShader   string
	FragmentShader string

	// MeshPath optionally replaces the built-in quad with a Wavefront OBJ
	// file. MaterialPath is the matching MTL file and may be empty.
	MeshPath     string
	MaterialPath string

	MaxFramesInFlight int
	StatsInterval     time.Duration

	LogLevel  string
	LogFormat string
}

// Default returns the settings the presenter uses without any flags.
func Default() Config {
	return Config{
		Window: WindowConfig{
			Width:  800,
			Height: 600,
			Title:  "Vulkan",
		},
		Validation:        true,
		Layers:            []string{"VK_LAYER_KHRONOS_validation"},
		VertexShader:      "shaders/shader.vert.spv",
		FragmentShader:    "shaders/shader.frag.spv",
		MaxFramesInFlight: 2,
		StatsInterval:     5 * time.Second,
		LogLevel:          "info",
		LogFormat:         logging.FormatText,
	}
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return errors.Newf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.VertexShader == "" || c.FragmentShader == "" {
		return errors.New("both vertex and fragment shader paths are required")
	}
	if c.MaterialPath != "" && c.MeshPath == "" {
		return errors.New("a material file was given without a mesh file")
	}
	if c.MaxFramesInFlight < 1 {
		return errors.Newf("max frames in flight must be at least 1, got %d", c.MaxFramesInFlight)
	}
	if c.StatsInterval < 0 {
		return errors.Newf("stats interval cannot be negative, got %s", c.StatsInterval)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case logging.FormatText, logging.FormatJSON:
	default:
		return errors.Newf("unknown log format %q", c.LogFormat)
	}

	return nil
}
