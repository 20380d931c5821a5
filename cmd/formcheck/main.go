package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"syscall"

	"github.com/ayusman/formcheck/internal/app"
	"github.com/ayusman/formcheck/internal/capture"
	"github.com/ayusman/formcheck/internal/plugin"
	"github.com/ayusman/formcheck/internal/pose"
	"github.com/ayusman/formcheck/internal/posture"
	"github.com/ayusman/formcheck/internal/server"
	"github.com/ayusman/formcheck/internal/store"
	"github.com/ayusman/formcheck/internal/tray"
)

func main() {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("Failed to get home directory: %v", err)
	}
	defaultData := filepath.Join(home, ".formcheck")

	addr := flag.String("addr", envOr("FORMCHECK_ADDR", ":8080"), "HTTP listen address")
	dataDir := flag.String("data", envOr("FORMCHECK_DATA", defaultData), "directory for the database and plugins")
	device := flag.Int("device", envInt("FORMCHECK_DEVICE", 0), "webcam index")
	video := flag.String("video", envOr("FORMCHECK_VIDEO", ""), "score a recorded video instead of the webcam")
	exercise := flag.String("exercise", envOr("FORMCHECK_EXERCISE", ""), "exercise to score (overrides stored settings)")
	script := flag.String("pose-script", envOr("FORMCHECK_POSE_SCRIPT", ""), "path to pose_service.py")
	model := flag.String("pose-model", envOr("FORMCHECK_POSE_MODEL", pose.DefaultConfig().Model), "pose model the service loads")
	noMirror := flag.Bool("no-mirror", false, "do not flip webcam frames horizontally")
	headless := flag.Bool("headless", false, "run without the tray menu")
	flag.Parse()

	fmt.Println("formcheck - posture and exercise form scoring")

	if err := os.MkdirAll(*dataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	st, err := store.New(filepath.Join(*dataDir, "formcheck.db"))
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	camCfg := capture.DefaultConfig()
	camCfg.Device = *device
	camCfg.File = *video
	camCfg.Mirror = !*noMirror && *video == ""

	poseCfg := pose.DefaultConfig()
	poseCfg.Model = *model
	poseCfg.ScriptPath = *script
	var detector pose.Detector
	if sd, err := pose.NewSubprocessDetector(poseCfg); err == nil {
		detector = sd
	} else {
		log.Printf("Pose service not available (%v), using mock detector", err)
		detector = pose.NewMockDetector()
	}

	plugins := plugin.NewManager(filepath.Join(*dataDir, "plugins"))
	if err := plugins.Discover(); err != nil {
		log.Printf("Plugin discovery failed: %v", err)
	}
	log.Printf("Loaded %d plugin(s) from %s", len(plugins.List()), plugins.PluginDir())
	notifier := plugin.NewNotifier(plugins, plugin.NewExecutor(plugin.DefaultTimeout))
	defer notifier.Close()

	stream := server.NewStreamHandler()
	feed := server.NewFeedHub(nil)
	sinks := []app.Sink{stream, feed, notifier}

	var tr *tray.Tray
	if !*headless {
		tr = tray.New(false, posture.HipHinge)
		sinks = append(sinks, tr)
	}

	a := app.New(app.Config{
		Store:    st,
		Camera:   capture.NewCamera(camCfg),
		Detector: detector,
		Sinks:    sinks,
	})
	feed.SetController(a)

	if err := a.LoadSettings(); err != nil {
		log.Printf("Failed to load settings: %v", err)
	}
	if *exercise != "" {
		if err := a.SetExercise(*exercise); err != nil {
			log.Fatalf("Invalid -exercise: %v", err)
		}
	}
	if *video != "" {
		a.SetEnabled(true)
	}
	log.Printf("Scoring %s from %s", a.Exercise(), camCfg.Source())

	srv := server.New(server.Config{
		StaticDir:  findWebDir(*dataDir),
		Store:      st,
		Controller: a,
		Stream:     stream,
		Feed:       feed,
	})
	go func() {
		log.Printf("Starting server on %s", *addr)
		if err := srv.ListenAndServe(*addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	if err := a.Start(); err != nil {
		log.Fatalf("Failed to start pipeline: %v", err)
	}
	defer a.Stop()

	if tr == nil {
		waitForExit(a.Done())
		return
	}

	tr.SetEnabled(a.IsEnabled())
	tr.SetExercise(a.Exercise())
	tr.OnToggle(func(enabled bool) {
		a.SetEnabled(enabled)
		persist(st, store.KeyEnabled, strconv.FormatBool(enabled))
	})
	tr.OnExercise(func(ex posture.Exercise) {
		if err := a.SetExercise(ex.Slug()); err != nil {
			log.Printf("Set exercise failed: %v", err)
			return
		}
		if err := a.DetachProfile(); err != nil {
			log.Printf("Failed to save exercise: %v", err)
		}
	})
	tr.OnSettings(func() { openBrowser("http://localhost" + *addr) })
	tr.OnQuit(func() { log.Println("Quitting") })

	go func() {
		waitForExit(a.Done())
		tray.Quit()
	}()
	tr.Run()
}

// waitForExit blocks until SIGINT/SIGTERM or until done closes (end of a video file).
func waitForExit(done <-chan struct{}) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case s := <-sig:
		log.Printf("Received %v, shutting down", s)
	case <-done:
		log.Println("Input finished, shutting down")
	}
}

func persist(st *store.Store, key, value string) {
	if err := st.Settings().Set(key, value); err != nil {
		log.Printf("Failed to save %s: %v", key, err)
	}
}

func openBrowser(url string) {
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
		log.Printf("Failed to open browser: %v", err)
	}
}

// findWebDir returns the first existing web directory among "web", "../web" and
// <data>/web, or "" when none exists.
func findWebDir(dataDir string) string {
	for _, p := range []string{"web", "../web", filepath.Join(dataDir, "web")} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
