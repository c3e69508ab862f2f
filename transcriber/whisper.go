package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"lectern/traced"
)

// Whisper talks to an OpenAI-compatible audio transcription endpoint
// (Groq's hosted whisper models by default).
type Whisper struct {
	client  *traced.Client
	baseURL string
	apiKey  string
	model   string
	lang    string
}

func NewWhisper(baseURL, apiKey, model string, timeout time.Duration) *Whisper {
	return &Whisper{
		client:  traced.NewClient(timeout),
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
	}
}

func (w *Whisper) Name() string { return "whisper" }

func (w *Whisper) SetLanguage(lang string) { w.lang = lang }

// Warm opens the TLS connection ahead of the first transcription.
func (w *Whisper) Warm() { w.client.WarmConnection(w.baseURL) }

type whisperResponse struct {
	Text     string  `json:"text"`
	Duration float64 `json:"duration"`
}

func firstNonEmpty(h http.Header, keys ...string) string {
	for _, k := range keys {
		if v := h.Get(k); v != "" {
			return v
		}
	}
	return "?"
}

// Transcribe uploads the audio file at path and returns its transcript.
func (w *Whisper) Transcribe(ctx context.Context, path string) (*Result, error) {
	audioData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read audio file: %w", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(audioData); err != nil {
		return nil, err
	}

	writer.WriteField("model", w.model)
	writer.WriteField("response_format", "verbose_json")
	if w.lang != "" {
		writer.WriteField("language", w.lang)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, "POST", w.baseURL+"/v1/audio/transcriptions", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+w.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request: %w", err)
	}

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("transcription API error %d: %s", resp.StatusCode, string(resp.Body))
	}

	var wResp whisperResponse
	if err := json.Unmarshal(resp.Body, &wResp); err != nil {
		return nil, fmt.Errorf("transcription response parse error: %w", err)
	}

	remaining := firstNonEmpty(resp.Header, "x-ratelimit-remaining-requests")
	limit := firstNonEmpty(resp.Header, "x-ratelimit-limit-requests")

	return &Result{
		Text:      wResp.Text,
		Duration:  wResp.Duration,
		RateLimit: remaining + "/" + limit,
		Metrics:   resp.Metrics,
	}, nil
}
