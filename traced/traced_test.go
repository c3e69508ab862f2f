package traced

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestMetricsSum(t *testing.T) {
	m := &Metrics{
		ConnWait:   10 * time.Millisecond,
		DNS:        20 * time.Millisecond,
		TCP:        30 * time.Millisecond,
		TLS:        40 * time.Millisecond,
		ReqHeaders: 5 * time.Millisecond,
		ReqBody:    15 * time.Millisecond,
		TTFB:       50 * time.Millisecond,
		Download:   25 * time.Millisecond,
	}
	got := m.Sum()
	want := 195 * time.Millisecond
	if got != want {
		t.Errorf("Sum() = %v, want %v", got, want)
	}
}

func TestClientDo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Marker", "yes")
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))
	defer srv.Close()

	c := NewClient(5 * time.Second)
	req, err := http.NewRequest("GET", srv.URL, nil)
	if err != nil {
		t.Fatal(err)
	}

	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.StatusCode != http.StatusTeapot {
		t.Errorf("StatusCode = %d, want 418", resp.StatusCode)
	}
	if string(resp.Body) != "short and stout" {
		t.Errorf("Body = %q", resp.Body)
	}
	if resp.Header.Get("X-Marker") != "yes" {
		t.Error("response header lost")
	}
	if resp.Metrics == nil || resp.Metrics.Total <= 0 {
		t.Errorf("Metrics.Total not recorded: %+v", resp.Metrics)
	}
}

func TestClientReusesConnections(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewClient(5 * time.Second)
	for i := 0; i < 2; i++ {
		req, err := http.NewRequest("GET", srv.URL, nil)
		if err != nil {
			t.Fatal(err)
		}
		resp, err := c.Do(req)
		if err != nil {
			t.Fatalf("Do #%d: %v", i+1, err)
		}
		if i == 1 && !resp.Metrics.ConnReused {
			t.Error("second request did not reuse the connection")
		}
	}
}

func TestClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(20 * time.Millisecond)
	req, err := http.NewRequest("GET", srv.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Do(req); err == nil {
		t.Error("expected timeout error")
	}
}
