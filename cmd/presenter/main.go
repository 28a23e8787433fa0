package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/vulkan-presenter/internal/config"
	"github.com/vkngwrapper/vulkan-presenter/internal/logging"
	"github.com/vkngwrapper/vulkan-presenter/internal/renderer"
	"golang.org/x/exp/slog"
)

func init() {
	// SDL and the Vulkan surface calls must stay on the main thread.
	runtime.LockOSThread()
}

func parseFlags() config.Config {
	cfg := config.Default()
	layers := strings.Join(cfg.Layers, ",")

	flag.IntVar(&cfg.Window.Width, "width", cfg.Window.Width, "window width in pixels")
	flag.IntVar(&cfg.Window.Height, "height", cfg.Window.Height, "window height in pixels")
	flag.StringVar(&cfg.Window.Title, "title", cfg.Window.Title, "window title")
	flag.BoolVar(&cfg.Validation, "validation", cfg.Validation, "enable Vulkan validation layers")
	flag.StringVar(&layers, "layers", layers, "comma separated layers enabled with validation")
	flag.StringVar(&cfg.VertexShader, "vert", cfg.VertexShader, "compiled vertex shader")
	flag.StringVar(&cfg.FragmentShader, "frag", cfg.FragmentShader, "compiled fragment shader")
	flag.StringVar(&cfg.MeshPath, "mesh", cfg.MeshPath, "optional Wavefront OBJ mesh drawn instead of the quad")
	flag.StringVar(&cfg.MaterialPath, "mtl", cfg.MaterialPath, "optional MTL file for -mesh")
	flag.IntVar(&cfg.MaxFramesInFlight, "frames-in-flight", cfg.MaxFramesInFlight, "frames the CPU may run ahead of the GPU")
	flag.DurationVar(&cfg.StatsInterval, "stats-interval", cfg.StatsInterval, "frame statistics interval, 0 to disable")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	flag.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "text or json")
	flag.Parse()

	cfg.Layers = nil
	for _, layer := range strings.Split(layers, ",") {
		if layer = strings.TrimSpace(layer); layer != "" {
			cfg.Layers = append(cfg.Layers, layer)
		}
	}
	return cfg
}

func main() {
	cfg := parseFlags()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := renderer.New(cfg, logger).Run(ctx); err != nil {
		attrs := []any{slog.String("detail", fmt.Sprintf("%+v", err))}
		if hints := errors.GetAllHints(err); len(hints) > 0 {
			attrs = append(attrs, slog.Any("hints", hints))
		}
		logger.Error(err.Error(), attrs...)
		stop()
		os.Exit(1)
	}
}
