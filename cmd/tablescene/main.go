// tablescene - Reflective Table Scene in the Terminal
// Renders a wooden table that mirrors the objects standing on it and
// catches their shadows, using the stencil buffer of a software device.
//
// Controls:
//
//	Mouse drag  - Orbit the camera (arcball), release while moving to spin
//	R           - Reset view
//	Esc         - Quit
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/mitchellh/go-homedir"
	"github.com/taigrr/tablescene/pkg/pipeline"
	"github.com/taigrr/tablescene/pkg/render"
	"github.com/taigrr/tablescene/pkg/scene"
	"github.com/taigrr/tablescene/pkg/tabletop"
)

var (
	configPath = flag.String("config", "", "Scene config file (.toml, .yaml)")
	assetDir   = flag.String("assets", "", "Texture directory holding wood.jpg, paper.jpg and noise.png")
	pngPath    = flag.String("png", "", "Render one frame at the configured size to a PNG file and exit")
	exportPath = flag.String("export", "", "Write the assembled scene to a GLB file and exit")
	targetFPS  = flag.Int("fps", 30, "Target FPS")
	verbose    = flag.Bool("v", false, "Debug logging")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "tablescene - Reflective Table Scene\n\n")
		fmt.Fprintf(os.Stderr, "Usage: tablescene [options]\n\n")
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

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
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
	logger := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if *pngPath != "" || *exportPath != "" {
		return runOnce(cfg, logger)
	}
	return runTerminal(cfg, logger)
}

// runOnce renders a snapshot and/or exports the scene without touching the
// terminal.
func runOnce(cfg tabletop.Config, logger *slog.Logger) error {
	fb := render.NewFramebuffer(cfg.Width, cfg.Height)
	dev := render.NewRasterizer(fb)
	logger.Info("software device", "framebuffer", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height))

	sc, err := tabletop.NewAssembler(cfg, logger).Assemble(dev)
	if err != nil {
		return fmt.Errorf("assemble scene: %w", err)
	}

	if *exportPath != "" {
		path, err := homedir.Expand(*exportPath)
		if err != nil {
			return fmt.Errorf("expand %s: %w", *exportPath, err)
		}
		if err := sc.ExportGLB(path); err != nil {
			return fmt.Errorf("export scene: %w", err)
		}
		logger.Info("scene exported", "path", path)
	}

	if *pngPath != "" {
		path, err := homedir.Expand(*pngPath)
		if err != nil {
			return fmt.Errorf("expand %s: %w", *pngPath, err)
		}
		p := pipeline.New(sc, pipeline.WithLogger(logger))
		st := scene.NewState(dev, sc.Camera(cfg.Width, cfg.Height))

		start := time.Now()
		p.RenderFrame(st)
		stats := dev.Stats
		logger.Info("frame rendered",
			"elapsed", time.Since(start),
			"draws", st.Draws,
			"triangles", stats.TrianglesSubmitted,
			"fragments", stats.FragmentsWritten,
		)

		if err := fb.SavePNG(path); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		logger.Info("snapshot written", "path", path)
	}
	return nil
}

func runTerminal(cfg tabletop.Config, logger *slog.Logger) error {
	term := uv.DefaultTerminal()

	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}

	// Each cell shows two pixels stacked vertically.
	fb := render.NewFramebuffer(width, height*2)
	dev := render.NewRasterizer(fb)

	sc, err := tabletop.NewAssembler(cfg, logger).Assemble(dev)
	if err != nil {
		return fmt.Errorf("assemble scene: %w", err)
	}
	logger.Info("software device", "framebuffer", fmt.Sprintf("%dx%d", fb.Width, fb.Height))

	cam := sc.Camera(fb.Width, fb.Height)
	st := scene.NewState(dev, cam)
	p := pipeline.New(sc, pipeline.WithLogger(logger))

	arcball := render.NewArcball(fb.Width, fb.Height)
	spin := NewSpin(*targetFPS)

	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}
	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	// Report motion with buttons held, in SGR coordinates.
	fmt.Fprint(os.Stdout, "\x1b[?1003h")
	fmt.Fprint(os.Stdout, "\x1b[?1006h")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// mu guards the camera, the arcball, the spin and the buffers shared
	// with the event goroutine.
	var mu sync.Mutex

	go func() {
		for ev := range term.Events() {
			mu.Lock()
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				width, height = ev.Width, ev.Height
				term.Erase()
				term.Resize(width, height)
				fb.Resize(width, height*2)
				dev.Resize()
				cam.SetAspectRatio(float64(fb.Width) / float64(max(fb.Height, 1)))
				arcball.Resize(fb.Width, fb.Height)

			case uv.KeyPressEvent:
				switch {
				case ev.MatchString("escape"), ev.MatchString("ctrl+c"):
					cancel()
				case ev.MatchString("r"):
					arcball.End()
					spin.Stop()
					cam.ResetOrbit()
				}

			case uv.MouseClickEvent:
				spin.Stop()
				arcball.Begin(pixel(ev.X, ev.Y))

			case uv.MouseReleaseEvent:
				arcball.End()
				spin.Release(time.Now())

			case uv.MouseMotionEvent:
				if axis, angle, ok := arcball.Drag(pixel(ev.X, ev.Y)); ok {
					cam.Orbit(axis, angle)
					spin.Track(axis, angle, time.Now())
				}
			}
			mu.Unlock()
		}
	}()

	targetDuration := time.Second / time.Duration(max(*targetFPS, 1))
	lastFrame := time.Now()

	cleanup := func() {
		fmt.Fprint(os.Stdout, "\x1b[?1003l")
		fmt.Fprint(os.Stdout, "\x1b[?1006l")
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}

	for {
		select {
		case <-ctx.Done():
			cleanup()
			return nil
		default:
		}

		now := time.Now()
		dt := now.Sub(lastFrame).Seconds()
		lastFrame = now

		if dt > 0.1 {
			dt = 0.1
		}

		mu.Lock()
		if !arcball.Dragging() {
			spin.Step(cam, dt)
		}
		p.RenderFrame(st)
		term.Draw(fb)
		err := term.Display()
		mu.Unlock()
		if err != nil {
			cleanup()
			return fmt.Errorf("display: %w", err)
		}

		elapsed := time.Since(now)
		if elapsed < targetDuration {
			time.Sleep(targetDuration - elapsed)
		}
	}
}

// pixel maps a terminal cell to the center of its framebuffer pixels.
func pixel(col, row int) (x, y float64) {
	return float64(col) + 0.5, float64(row*2) + 1
}
