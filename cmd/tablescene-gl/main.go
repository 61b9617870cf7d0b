// tablescene-gl - Reflective Table Scene in an OpenGL Window
// The same scene and passes as tablescene, drawn by an OpenGL 4.1 core
// context with an 8-bit stencil buffer.
//
// Controls:
//
//	Mouse drag  - Orbit the camera (arcball)
//	R           - Reset view
//	Esc         - Quit
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/mitchellh/go-homedir"
	"github.com/taigrr/tablescene/pkg/gldevice"
	"github.com/taigrr/tablescene/pkg/pipeline"
	"github.com/taigrr/tablescene/pkg/render"
	"github.com/taigrr/tablescene/pkg/scene"
	"github.com/taigrr/tablescene/pkg/tabletop"
)

const title = "Reflective table with stencil shadows"

var (
	configPath = flag.String("config", "", "Scene config file (.toml, .yaml)")
	assetDir   = flag.String("assets", "", "Texture directory holding wood.jpg, paper.jpg and noise.png")
	verbose    = flag.Bool("v", false, "Debug logging")
)

func init() {
	// GLFW and the GL context belong to the main thread.
	runtime.LockOSThread()
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "tablescene-gl - Reflective Table Scene (OpenGL)\n\n")
		fmt.Fprintf(os.Stderr, "Usage: tablescene-gl [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		printControls()
	}
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printControls() {
	fmt.Fprintf(os.Stderr, "\nControls:\n")
	fmt.Fprintf(os.Stderr, "  Mouse drag  - Orbit the camera\n")
	fmt.Fprintf(os.Stderr, "  R           - Reset view\n")
	fmt.Fprintf(os.Stderr, "  Esc         - Quit\n")
}

func loadConfig() (tabletop.Config, error) {
	cfg := tabletop.DefaultConfig()
	if *configPath != "" {
		path, err := homedir.Expand(*configPath)
		if err != nil {
			return cfg, fmt.Errorf("expand %s: %w", *configPath, err)
		}
		if cfg, err = tabletop.LoadConfig(path); err != nil {
			return cfg, err
		}
	}
	dir := cfg.AssetDir
	if *assetDir != "" {
		dir = *assetDir
	}
	if dir != "" {
		expanded, err := homedir.Expand(dir)
		if err != nil {
			return cfg, fmt.Errorf("expand %s: %w", dir, err)
		}
		cfg.AssetDir = expanded
	}
	return cfg, nil
}

func run() error {
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize glfw: %w", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.DepthBits, 24)
	glfw.WindowHint(glfw.StencilBits, 8)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	window, err := glfw.CreateWindow(cfg.Width, cfg.Height, title, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	defer window.Destroy()
	window.MakeContextCurrent()
	glfw.SwapInterval(1)

	fbw, fbh := window.GetFramebufferSize()
	dev, err := gldevice.New(fbw, fbh)
	if err != nil {
		return err
	}
	defer dev.Release()
	logger.Info("opengl device", "version", dev.Version(), "framebuffer", fmt.Sprintf("%dx%d", fbw, fbh))

	sc, err := tabletop.NewAssembler(cfg, logger).Assemble(dev)
	if err != nil {
		return fmt.Errorf("assemble scene: %w", err)
	}

	cam := sc.Camera(fbw, fbh)
	st := scene.NewState(dev, cam)
	p := pipeline.New(sc, pipeline.WithLogger(logger))

	// Cursor positions are in window coordinates, which differ from the
	// framebuffer on high-density displays.
	ww, wh := window.GetSize()
	arcball := render.NewArcball(ww, wh)

	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyEscape:
			w.SetShouldClose(true)
		case glfw.KeyR:
			arcball.End()
			cam.ResetOrbit()
		}
	})
	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		if button != glfw.MouseButtonLeft {
			return
		}
		switch action {
		case glfw.Press:
			arcball.Begin(w.GetCursorPos())
		case glfw.Release:
			arcball.End()
		}
	})
	window.SetCursorPosCallback(func(w *glfw.Window, x, y float64) {
		if axis, angle, ok := arcball.Drag(x, y); ok {
			cam.Orbit(axis, angle)
		}
	})
	window.SetSizeCallback(func(w *glfw.Window, width, height int) {
		arcball.Resize(width, height)
	})
	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		dev.Resize(width, height)
		if height > 0 {
			cam.SetAspectRatio(float64(width) / float64(height))
		}
		logger.Debug("framebuffer resized", "width", width, "height", height)
	})

	fmt.Fprintf(os.Stderr, "%s\n", title)
	printControls()

	for !window.ShouldClose() {
		p.RenderFrame(st)
		window.SwapBuffers()
		glfw.PollEvents()
	}
	logger.Info("window closed", "frames", p.Frames())
	return nil
}
