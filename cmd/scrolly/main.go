package main

import (
	"context"
	"fmt"
	"image/color"
	"log"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/ayusman/scrolly/internal/action"
	"github.com/ayusman/scrolly/internal/app"
	"github.com/ayusman/scrolly/internal/capture"
	"github.com/ayusman/scrolly/internal/config"
	"github.com/ayusman/scrolly/internal/detector"
	"github.com/ayusman/scrolly/internal/plugin"
	"github.com/ayusman/scrolly/internal/server"
	"github.com/ayusman/scrolly/internal/store"
	"github.com/ayusman/scrolly/internal/tray"
)

func main() {
	fmt.Println("Scrolly - pinch to scroll")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	st, err := store.New(cfg.DBPath())
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	if n, err := st.Events().Prune(time.Now().UTC().Add(-cfg.EventRetention)); err != nil {
		logger.Warn("pruning events failed", "error", err)
	} else if n > 0 {
		logger.Info("pruned old events", "count", n)
	}

	plugins := plugin.NewManager(cfg.PluginDir, logger)
	if err := plugins.Discover(); err != nil {
		logger.Warn("plugin discovery failed", "dir", cfg.PluginDir, "error", err)
	}

	var gate *action.Gate
	if cfg.Gate {
		gate = action.NewGate()
	}
	dispatcher := action.NewDispatcher(action.Config{
		Bindings: st.Bindings(),
		Plugins:  plugins,
		Runner:   plugin.NewExecutor(cfg.PluginTimeout),
		Events:   st.Events(),
		Gate:     gate,
		Logger:   logger,
	})
	defer dispatcher.Close()

	pipeline, err := app.New(app.Config{
		Camera:        newCamera(cfg.CameraID),
		Detector:      newDetector(logger),
		Consumer:      dispatcher,
		FrameInterval: cfg.FrameInterval(),
		JPEGQuality:   cfg.JPEGQuality,
		Logger:        logger,
	})
	if err != nil {
		log.Fatalf("Failed to create pipeline: %v", err)
	}
	pipeline.SetEnabled(true)
	if err := pipeline.Start(); err != nil {
		logger.Error("pipeline not started, serving API only", "error", err)
	}
	defer pipeline.Stop()

	staticDir := cfg.StaticDir
	if staticDir == "" {
		staticDir = findWebDir(cfg.DataDir)
	}
	if staticDir != "" {
		logger.Info("serving static files", "dir", staticDir)
	}

	srv := server.New(server.Config{
		StaticDir: staticDir,
		Store:     st,
		Plugins:   plugins,
		Pipeline:  pipeline,
		Logger:    logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var tr *tray.Tray
	if cfg.Tray {
		tr = tray.New(pipeline.IsEnabled(), tray.Handlers{
			Toggle:       pipeline.SetEnabled,
			OpenSettings: func() { openBrowser(settingsURL(cfg.Addr), logger) },
			ResetGate:    resetFunc(gate),
			Quit:         stop,
		})
		pipeline.OnToggle(tr.SetEnabled)
	}

	dispatcher.OnFire(func(f action.Fired) {
		srv.Hub().Broadcast(server.DeliveryMessage(f))
		if tr != nil && f.Event.Delivered {
			tr.SetLastSignal(f.Signal, f.Event.CreatedAt.Local())
		}
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(cfg.Addr)
	}()

	if tr != nil {
		go func() {
			select {
			case <-ctx.Done():
			case err := <-errCh:
				logger.Error("server failed", "error", err)
				stop()
			}
			tr.Stop()
		}()
		tr.Run()
	} else {
		select {
		case <-ctx.Done():
		case err := <-errCh:
			if err != nil {
				log.Fatalf("Server failed: %v", err)
			}
		}
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
}

// newCamera opens the given device. A negative ID selects a blank frame
// source for machines without a camera.
func newCamera(id int) capture.Camera {
	if id < 0 {
		return capture.NewBlankCamera(capture.DefaultWidth, capture.DefaultHeight, color.RGBA{A: 255})
	}
	return capture.NewDeviceCamera(id, capture.Options{})
}

func newDetector(logger *slog.Logger) detector.Detector {
	mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig(), logger)
	if err != nil {
		logger.Warn("MediaPipe not available, no hands will be detected", "error", err)
		return detector.NewMockDetector()
	}
	logger.Info("using MediaPipe hand tracking")
	return mp
}

func resetFunc(gate *action.Gate) func() {
	if gate == nil {
		return nil
	}
	return gate.Reset
}

func settingsURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string, logger *slog.Logger) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		logger.Warn("failed to open browser", "url", url, "error", err)
	}
}

// findWebDir searches "web", "../web", "../../web" and <dataDir>/web.
// Returns the first existing directory or "" if none is found.
func findWebDir(dataDir string) string {
	for _, p := range []string{"web", "../web", "../../web", filepath.Join(dataDir, "web")} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
