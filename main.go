package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"lectern/audio"
	"lectern/clipboard"
	"lectern/config"
	"lectern/doctor"
	"lectern/log"
	"lectern/notes"
	"lectern/pipeline"
	"lectern/recorder"
	"lectern/summarizer"
	"lectern/transcriber"
	"lectern/wav"
)

var version = "dev"

// App bundles the wired components shared by the TUI, file, and watch
// modes.
type App struct {
	cfg     *config.Config
	audio   audio.Context
	device  *audio.DeviceInfo
	whisper *transcriber.Whisper
	chat    *summarizer.Client
	pipe    *pipeline.Pipeline

	copyToClipboard bool
}

func newApp(cfg *config.Config) *App {
	whisper := transcriber.NewWhisper(cfg.API.BaseURL, cfg.API.Key, cfg.API.TranscribeModel, cfg.API.RequestTimeout())
	whisper.SetLanguage(cfg.API.Language)
	chat := summarizer.NewClient(cfg.API.BaseURL, cfg.API.Key, cfg.API.SummarizeModel, cfg.API.RequestTimeout())

	return &App{
		cfg:     cfg,
		whisper: whisper,
		chat:    chat,
		pipe:    pipeline.New(whisper, chat, notes.NewLog(cfg.Notes.File)),
	}
}

func (a *App) NewSession() *recorder.Session {
	captureConfig := audio.CaptureConfig{
		SampleRate: wav.SampleRate,
		Channels:   wav.Channels,
	}
	return recorder.NewSession(a.audio, a.device, captureConfig)
}

// Warm opens API connections in the background so the first request after
// a recording does not pay for the TLS handshake.
func (a *App) Warm() {
	a.whisper.Warm()
	a.chat.Warm()
}

func deviceName(dev *audio.DeviceInfo) string {
	if dev == nil {
		return "system default"
	}
	return dev.Name
}

func fatalf(format string, args ...any) {
	log.Errorf(format, args...)
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	configFlag := flag.String("config", "", "Path to YAML config file")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	pickFlag := flag.Bool("pick", false, "Select microphone device interactively")
	listFlag := flag.Bool("list-devices", false, "List capture devices and exit")
	fileFlag := flag.String("file", "", "Summarize an existing WAV file and exit")
	watchFlag := flag.String("watch", "", "Watch a directory and summarize new WAV files")
	copyFlag := flag.Bool("copy", false, "Copy each summary to the clipboard")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	doctorFlag := flag.Bool("doctor", false, "Run system diagnostics and exit")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("lectern %s\n", version)
		os.Exit(0)
	}

	// Resolve log directory early
	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)

	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fatalf("%v", err)
	}

	if *doctorFlag {
		os.Exit(doctor.Run(cfg))
	}

	if *listFlag {
		listDevices()
		return
	}

	if err := cfg.RequireAPIKey(); err != nil {
		fatalf("%v", err)
	}

	app := newApp(cfg)
	app.copyToClipboard = *copyFlag

	if *fileFlag != "" {
		runFile(app, *fileFlag)
		return
	}

	if *watchFlag != "" {
		if err := runWatch(app, *watchFlag); err != nil {
			fatalf("%v", err)
		}
		return
	}

	actx, err := audio.NewContext()
	if err != nil {
		fatalf("initializing audio context: %v", err)
	}
	defer actx.Close()
	app.audio = actx

	if *pickFlag {
		dev, err := selectDevice(actx)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Printf("Warning: device selection failed: %v\n", err)
			fmt.Println("Falling back to default device")
		}
		app.device = dev
	} else if *deviceFlag != "" {
		dev, err := findDevice(actx, *deviceFlag)
		if err != nil {
			fatalf("%v (try -list-devices)", err)
		}
		app.device = dev
	}

	if app.device != nil && audio.IsBluetooth(app.device.Name) {
		log.Warnf("bluetooth microphone selected: %s", app.device.Name)
		fmt.Fprintln(os.Stderr, "Warning: bluetooth microphones often capture at reduced quality")
	}

	log.SessionStart(deviceName(app.device))

	p := tea.NewProgram(newTUIModel(app), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fatalf("running UI: %v", err)
	}
}

func listDevices() {
	actx, err := audio.NewContext()
	if err != nil {
		fatalf("initializing audio context: %v", err)
	}
	defer actx.Close()

	devices, err := actx.Devices()
	if err != nil {
		fatalf("listing devices: %v", err)
	}
	if len(devices) == 0 {
		fmt.Println("No capture devices found.")
		return
	}
	for _, d := range devices {
		suffix := ""
		if audio.IsBluetooth(d.Name) {
			suffix = " (bluetooth)"
		}
		fmt.Printf("  %s%s\n", d.Name, suffix)
	}
}

// findDevice matches by exact name first, then by case-insensitive
// substring.
func findDevice(ctx audio.Context, name string) (*audio.DeviceInfo, error) {
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	for i := range devices {
		if devices[i].Name == name {
			return &devices[i], nil
		}
	}
	lower := strings.ToLower(name)
	for i := range devices {
		if strings.Contains(strings.ToLower(devices[i].Name), lower) {
			return &devices[i], nil
		}
	}
	return nil, fmt.Errorf("no capture device matching %q", name)
}

func runFile(app *App, path string) {
	result, err := app.pipe.RunFile(context.Background(), path)
	if errors.Is(err, pipeline.ErrNoTranscript) {
		fmt.Fprintln(os.Stderr, "Transcription failed. Please try recording again.")
		os.Exit(1)
	}
	if err != nil {
		fatalf("%v", err)
	}

	fmt.Println(result.Summary.Text)
	fmt.Printf("\nSummary saved to %s\n", app.cfg.Notes.File)

	if app.copyToClipboard {
		if err := clipboard.Copy(result.Summary.Text); err != nil {
			log.Warnf("clipboard copy failed: %v", err)
		}
	}
}
