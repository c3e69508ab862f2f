package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	diagLog        zerolog.Logger
	diagFile       *os.File
	transcriptFile *os.File
	logMu          sync.Mutex
	logReady       bool
	pid            int
	dir            string
)

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -logpath flag
	if flagPath != "" {
		if !filepath.IsAbs(flagPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, flagPath), nil
		}
		return flagPath, nil
	}

	// Priority 2: LECTERN_LOG_PATH environment variable
	envPath := os.Getenv("LECTERN_LOG_PATH")
	if envPath != "" {
		if !filepath.IsAbs(envPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, envPath), nil
		}
		return envPath, nil
	}

	// Priority 3: Default OS-specific location
	return getDefaultDir()
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error

	diagPath := filepath.Join(dir, "diagnostics_log.txt")
	diagFile, err = os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	transcriptPath := filepath.Join(dir, "transcript_log.txt")
	transcriptFile, err = os.OpenFile(transcriptPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if transcriptFile != nil {
		transcriptFile.Close()
		transcriptFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Infof(format string, args ...any) {
	if logReady {
		diagLog.Info().Msg(fmt.Sprintf(format, args...))
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

// TranscriptText appends a raw transcript to transcript_log.txt so failed
// summaries can be recovered by hand.
func TranscriptText(text string) {
	if !logReady {
		return
	}
	logMu.Lock()
	defer logMu.Unlock()
	line := fmt.Sprintf("%s\t[%d]\t%s\n", time.Now().Format("2006-01-02 15:04:05"), pid, text)
	transcriptFile.WriteString(line)
}

func SessionStart(device string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("device", device).
		Msg("session_start")
}

func SessionEnd(seconds float64, frames int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Float64("audio_s", seconds).
		Int("frames", frames).
		Msg("session_end")
}

func RecordingSaved(path string, seconds, sizeKB float64) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("path", path).
		Float64("audio_s", seconds).
		Float64("size_kb", sizeKB).
		Msg("recording_saved")
}

type PipelineMetrics struct {
	AudioSeconds    float64
	TranscribeMs    float64
	SummarizeMs     float64
	NotesMs         float64
	TotalMs         float64
	TranscriptChars int
	SummaryChars    int
}

func Pipeline(provider string, m PipelineMetrics) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("provider", provider).
		Float64("audio_s", m.AudioSeconds).
		Float64("transcribe_ms", m.TranscribeMs).
		Float64("summarize_ms", m.SummarizeMs).
		Float64("notes_ms", m.NotesMs).
		Float64("total_ms", m.TotalMs).
		Int("transcript_chars", m.TranscriptChars).
		Int("summary_chars", m.SummaryChars).
		Msg("pipeline")
}

type RequestTiming struct {
	DNSMs      float64
	ConnectMs  float64
	TLSMs      float64
	TTFBMs     float64
	TotalMs    float64
	ConnReused bool
	TLSProto   string
	Status     int
}

func Request(op string, t RequestTiming) {
	if !logReady {
		return
	}

	connStatus := "new"
	if t.ConnReused {
		connStatus = "reused"
	}

	ev := diagLog.Info().
		Str("op", op).
		Str("conn", connStatus).
		Int("status", t.Status)
	if t.TLSProto != "" {
		ev = ev.Str("tls_proto", t.TLSProto)
	}
	ev.Float64("dns_ms", t.DNSMs).
		Float64("connect_ms", t.ConnectMs).
		Float64("tls_ms", t.TLSMs).
		Float64("ttfb_ms", t.TTFBMs).
		Float64("total_ms", t.TotalMs).
		Msg("http_request")
}
