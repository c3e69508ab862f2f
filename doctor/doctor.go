package doctor

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"lectern/audio"
	"lectern/config"
	"lectern/wav"
)

// Run executes system diagnostics and returns an exit code (0=all pass,
// 1=any fail). Every check runs even after a failure so one report
// covers the whole setup.
func Run(cfg *config.Config) int {
	fmt.Println("lectern doctor - system diagnostics")
	fmt.Println("===================================")

	allPass := true

	if !checkConfig(cfg) {
		allPass = false
	}
	if !checkAudio() {
		allPass = false
	}
	if !checkRecordingsDir(cfg) {
		allPass = false
	}
	if !checkNotesFile(cfg) {
		allPass = false
	}
	if !checkAPI(cfg) {
		allPass = false
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func checkConfig(cfg *config.Config) bool {
	fmt.Println()
	fmt.Println("[1/5] Configuration")

	if err := cfg.RequireAPIKey(); err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}

	source := "config file"
	if os.Getenv(config.EnvAPIKey) != "" {
		source = config.EnvAPIKey
	}
	fmt.Printf("  API key present (%s)\n", source)
	fmt.Printf("  transcribe model: %s\n", cfg.API.TranscribeModel)
	fmt.Printf("  summarize model:  %s\n", cfg.API.SummarizeModel)
	fmt.Println("  PASS: configuration valid")
	return true
}

func checkAudio() bool {
	fmt.Println()
	fmt.Println("[2/5] Audio capture")

	ctx, err := audio.NewContext()
	if err != nil {
		fmt.Printf("  FAIL: cannot connect to audio: %v\n", err)
		return false
	}
	defer ctx.Close()

	devices, err := ctx.Devices()
	if err != nil {
		fmt.Printf("  FAIL: cannot list devices: %v\n", err)
		return false
	}
	if len(devices) == 0 {
		fmt.Println("  FAIL: no capture devices found")
		return false
	}

	for _, d := range devices {
		suffix := ""
		if audio.IsBluetooth(d.Name) {
			suffix = " (bluetooth)"
		}
		fmt.Printf("  - %s%s\n", d.Name, suffix)
	}
	fmt.Printf("  PASS: %d capture device(s)\n", len(devices))
	return true
}

func checkRecordingsDir(cfg *config.Config) bool {
	fmt.Println()
	fmt.Println("[3/5] Recordings directory")

	probe := filepath.Join(cfg.Recordings.Dir, ".doctor_probe.wav")
	buf := audio.NewBuffer(wav.SampleRate, wav.Channels)
	if _, err := wav.Save(buf, probe); err != nil {
		fmt.Printf("  FAIL: cannot write to %s: %v\n", cfg.Recordings.Dir, err)
		return false
	}
	os.Remove(probe)

	fmt.Printf("  PASS: %s is writable\n", cfg.Recordings.Dir)
	return true
}

func checkNotesFile(cfg *config.Config) bool {
	fmt.Println()
	fmt.Println("[4/5] Notes file")

	f, err := os.OpenFile(cfg.Notes.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Printf("  FAIL: cannot open %s for append: %v\n", cfg.Notes.File, err)
		return false
	}
	f.Close()

	fmt.Printf("  PASS: %s is appendable\n", cfg.Notes.File)
	return true
}

func checkAPI(cfg *config.Config) bool {
	fmt.Println()
	fmt.Println("[5/5] API reachability")

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Head(cfg.API.BaseURL)
	if err != nil {
		fmt.Printf("  FAIL: cannot reach %s: %v\n", cfg.API.BaseURL, err)
		return false
	}
	resp.Body.Close()

	fmt.Printf("  PASS: %s responded (%d)\n", cfg.API.BaseURL, resp.StatusCode)
	return true
}
