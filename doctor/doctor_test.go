package doctor

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"lectern/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Recordings: config.RecordingsConfig{Dir: filepath.Join(dir, "recordings")},
		Notes:      config.NotesConfig{File: filepath.Join(dir, "notes.txt")},
		API: config.APIConfig{
			BaseURL:         "http://127.0.0.1:1",
			Key:             "test-key",
			TranscribeModel: "whisper-large-v3-turbo",
			SummarizeModel:  "mixtral-8x7b-32768",
		},
	}
}

func TestCheckConfig(t *testing.T) {
	cfg := testConfig(t)
	if !checkConfig(cfg) {
		t.Error("expected pass with API key set")
	}

	cfg.API.Key = ""
	t.Setenv(config.EnvAPIKey, "")
	if checkConfig(cfg) {
		t.Error("expected fail without API key")
	}
}

func TestCheckRecordingsDir(t *testing.T) {
	cfg := testConfig(t)
	if !checkRecordingsDir(cfg) {
		t.Error("expected pass for writable directory")
	}
	if _, err := os.Stat(filepath.Join(cfg.Recordings.Dir, ".doctor_probe.wav")); !os.IsNotExist(err) {
		t.Error("probe file was not removed")
	}

	// Parent path occupied by a regular file
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg.Recordings.Dir = filepath.Join(blocker, "recordings")
	if checkRecordingsDir(cfg) {
		t.Error("expected fail for unwritable directory")
	}
}

func TestCheckNotesFile(t *testing.T) {
	cfg := testConfig(t)
	if !checkNotesFile(cfg) {
		t.Error("expected pass for creatable notes file")
	}

	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg.Notes.File = filepath.Join(blocker, "notes.txt")
	if checkNotesFile(cfg) {
		t.Error("expected fail for unopenable notes file")
	}
}

func TestCheckAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.API.BaseURL = srv.URL
	if !checkAPI(cfg) {
		t.Error("expected pass when server responds")
	}

	srv.Close()
	if checkAPI(cfg) {
		t.Error("expected fail when server is unreachable")
	}
}
