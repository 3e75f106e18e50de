package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

func main() {
	var (
		configPath string
		flags      config.Flags
		withTray   bool
	)
	flag.StringVar(&configPath, "config", "", "YAML config file")
	flag.StringVar(&flags.DataDir, "data", "", "data directory (default ~/.mudra)")
	flag.StringVar(&flags.Model, "model", "", "rigged hand model (.gltf or .glb)")
	flag.StringVar(&flags.Reference, "reference", "", "reference image of the hand")
	flag.StringVar(&flags.SeedPose, "seed-pose", "", "pose file to start from")
	flag.StringVar(&flags.Output, "out", "", "where to save the best pose")
	flag.StringVar(&flags.Listen, "listen", "", "HTTP listen address")
	flag.StringVar(&flags.Plugin, "plugin", "", "render with the named plugin")
	flag.IntVar(&flags.FPS, "fps", 0, "optimizer steps per second")
	flag.Int64Var(&flags.Seed, "seed", 0, "random seed")
	flag.BoolVar(&withTray, "tray", false, "show a system tray menu")
	flag.Parse()

	fmt.Println("Mudra - Hand Pose Search")

	var cfg config.Config
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	cfg.Resolve(flags)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	session, err := newSession(&cfg)
	if err != nil {
		log.Fatalf("Failed to set up search: %v", err)
	}

	st, err := store.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	a, err := app.New(app.Config{
		Store:      st,
		Pipeline:   session.pipeline,
		Optimizer:  session.optimizer,
		Initial:    session.initial,
		Camera:     cfg.Render.Camera,
		FPS:        cfg.FPS,
		OutputPose: cfg.OutputPose,
		Model:      session.model,
		Reference:  cfg.Reference,
	})
	if err != nil {
		log.Fatalf("Failed to create app: %v", err)
	}
	a.SetEnabled(true)
	if err := a.Start(); err != nil {
		log.Fatalf("Failed to start search: %v", err)
	}
	fmt.Printf("Run %s started\n", a.RunID())

	webDir := cfg.WebDir
	if webDir == "" {
		webDir = findWebDir()
	}
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		Tracker:   a,
	})
	go func() {
		fmt.Printf("Starting server on %s\n", cfg.Listen)
		if err := srv.ListenAndServe(cfg.Listen); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	if withTray {
		runTray(a, cfg.Listen)
	} else {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
	}

	a.Stop()
	if path, err := a.SaveBest(); err != nil {
		log.Printf("Failed to save best pose: %v", err)
	} else {
		fmt.Printf("Best pose written to %s\n", path)
	}
}

// runTray shows the tray menu until the user quits.
func runTray(a *app.App, listen string) {
	t := tray.New()
	t.SetEnabled(a.IsEnabled())
	t.OnToggle(a.SetEnabled)
	t.OnSave(func() {
		if _, err := a.SaveBest(); err != nil {
			log.Printf("Failed to save best pose: %v", err)
		}
	})
	t.OnSettings(func() {
		fmt.Printf("Dashboard: http://localhost%s/\n", listen)
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				st := a.Status()
				t.SetEnabled(st.Enabled)
				t.SetProgress(st.BestError, st.Stats.Steps)
			}
		}
	}()

	t.Run()
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.mudra/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".mudra", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
