package transcriber

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFirstNonEmpty(t *testing.T) {
	h := http.Header{}
	h.Set("X-Rate-Limit", "100")

	if got := firstNonEmpty(h, "X-Missing", "X-Rate-Limit"); got != "100" {
		t.Errorf("got %q, want %q", got, "100")
	}
	if got := firstNonEmpty(h, "X-A", "X-B"); got != "?" {
		t.Errorf("got %q, want %q", got, "?")
	}
}

func writeAudioFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "take.wav")
	if err := os.WriteFile(path, []byte("RIFF fake audio bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestWhisperTranscribe(t *testing.T) {
	type captured struct {
		method   string
		path     string
		auth     string
		model    string
		format   string
		language string
		filename string
		fileBody string
	}
	var got captured

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		got.auth = r.Header.Get("Authorization")

		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		got.model = r.FormValue("model")
		got.format = r.FormValue("response_format")
		got.language = r.FormValue("language")

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
		} else {
			body, _ := io.ReadAll(file)
			file.Close()
			got.filename = header.Filename
			got.fileBody = string(body)
		}

		w.Header().Set("x-ratelimit-remaining-requests", "99")
		w.Header().Set("x-ratelimit-limit-requests", "100")
		json.NewEncoder(w).Encode(map[string]any{
			"text":     "hello world",
			"duration": 1.5,
		})
	}))
	defer srv.Close()

	tr := NewWhisper(srv.URL, "test-key", "whisper-large-v3-turbo", 5*time.Second)
	tr.SetLanguage("en")

	audioPath := writeAudioFile(t)
	result, err := tr.Transcribe(context.Background(), audioPath)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	if got.method != "POST" || got.path != "/v1/audio/transcriptions" {
		t.Errorf("request = %s %s, want POST /v1/audio/transcriptions", got.method, got.path)
	}
	if got.auth != "Bearer test-key" {
		t.Errorf("Authorization = %q", got.auth)
	}
	if got.model != "whisper-large-v3-turbo" {
		t.Errorf("model = %q", got.model)
	}
	if got.format != "verbose_json" {
		t.Errorf("response_format = %q", got.format)
	}
	if got.language != "en" {
		t.Errorf("language = %q", got.language)
	}
	if got.filename != "take.wav" {
		t.Errorf("filename = %q, want take.wav", got.filename)
	}
	if got.fileBody != "RIFF fake audio bytes" {
		t.Errorf("file body = %q", got.fileBody)
	}

	if result.Text != "hello world" {
		t.Errorf("Text = %q, want %q", result.Text, "hello world")
	}
	if result.Duration != 1.5 {
		t.Errorf("Duration = %v, want 1.5", result.Duration)
	}
	if result.RateLimit != "99/100" {
		t.Errorf("RateLimit = %q, want 99/100", result.RateLimit)
	}
}

func TestWhisperAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"over capacity"}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	tr := NewWhisper(srv.URL, "k", "m", 5*time.Second)
	_, err := tr.Transcribe(context.Background(), writeAudioFile(t))
	if err == nil {
		t.Fatal("expected error for 503 response")
	}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("error %q does not mention status code", err)
	}
}

func TestWhisperMissingFile(t *testing.T) {
	tr := NewWhisper("http://localhost:1", "k", "m", time.Second)
	_, err := tr.Transcribe(context.Background(), filepath.Join(t.TempDir(), "nope.wav"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want wrapped os.ErrNotExist", err)
	}
}

func TestWhisperMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "this is not json")
	}))
	defer srv.Close()

	tr := NewWhisper(srv.URL, "k", "m", 5*time.Second)
	if _, err := tr.Transcribe(context.Background(), writeAudioFile(t)); err == nil {
		t.Error("expected parse error")
	}
}

func TestFake(t *testing.T) {
	f := NewFake("hi there", nil)

	r, err := f.Transcribe(context.Background(), "a.wav")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if r.Text != "hi there" {
		t.Errorf("Text = %q", r.Text)
	}

	f.Transcribe(context.Background(), "b.wav")
	calls := f.Calls()
	if len(calls) != 2 || calls[0] != "a.wav" || calls[1] != "b.wav" {
		t.Errorf("Calls = %v", calls)
	}
}

func TestFakeError(t *testing.T) {
	boom := errors.New("boom")
	f := NewFake("", boom)

	_, err := f.Transcribe(context.Background(), "a.wav")
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
	if len(f.Calls()) != 1 {
		t.Errorf("Calls = %v, want 1 call recorded", f.Calls())
	}
}
