package infra

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// ── Cache ──

func TestCacheSetGet(t *testing.T) {
	c := NewCache(time.Minute)
	c.Set("a", 1)
	v, ok := c.Get("a")
	if !ok || v.(int) != 1 {
		t.Errorf("Get(a): got %v, %v", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) should miss")
	}
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache(time.Minute)
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Error("entry should have expired")
	}
	c.Set("other", "v")
	if c.Len() != 1 {
		t.Errorf("Len after write: got %d, want 1 (expired entry swept)", c.Len())
	}
}

func TestCacheZeroTTLDisables(t *testing.T) {
	c := NewCache(0)
	c.Set("k", "v")
	if c.Len() != 0 {
		t.Errorf("zero TTL cache stored %d entries", c.Len())
	}
}

func TestCacheInvalidateAndFlush(t *testing.T) {
	c := NewCache(time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Invalidate("a")
	if _, ok := c.Get("a"); ok {
		t.Error("a should be invalidated")
	}
	c.Flush()
	if c.Len() != 0 {
		t.Errorf("Len after Flush: got %d", c.Len())
	}
}

// ── RateLimiter ──

func TestRateLimiterAllowsBurst(t *testing.T) {
	rl := NewRateLimiter(3, time.Hour)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := rl.Wait(ctx); err != nil {
			t.Fatalf("Wait %d: %v", i, err)
		}
	}
}

func TestRateLimiterHonoursContext(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	_ = rl.Wait(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := rl.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait: got %v, want DeadlineExceeded", err)
	}
}

// ── HTTP ──

func TestFetchOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != DefaultUserAgent {
			t.Errorf("User-Agent: got %q", r.Header.Get("User-Agent"))
		}
		if r.Header.Get("X-Test") != "1" {
			t.Errorf("X-Test header missing")
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = io.WriteString(w, "a,b,c")
	}))
	defer srv.Close()

	resp, err := Fetch(context.Background(), srv.Client(), srv.URL, map[string]string{"X-Test": "1"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(resp.Body) != "a,b,c" {
		t.Errorf("Body: got %q", resp.Body)
	}
	if resp.ContentType != "text/csv" {
		t.Errorf("ContentType: got %q", resp.ContentType)
	}
}

func TestFetchNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	resp, err := Fetch(context.Background(), nil, srv.URL, nil)
	var httpErr *ErrHTTP
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *ErrHTTP, got %v", err)
	}
	if httpErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode: got %d, want 404", httpErr.StatusCode)
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("Response status should be reported alongside the error")
	}
}

func TestFetchRejectsOversizedBody(t *testing.T) {
	old := maxBodyBytes
	maxBodyBytes = 8
	t.Cleanup(func() { maxBodyBytes = old })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, r.URL.Query().Get("body"))
	}))
	defer srv.Close()

	resp, err := Fetch(context.Background(), nil, srv.URL+"/?body=12345678", nil)
	if err != nil || string(resp.Body) != "12345678" {
		t.Fatalf("body at the cap: got %v, %v", resp, err)
	}
	_, err = Fetch(context.Background(), nil, srv.URL+"/?body=123456789", nil)
	if !errors.Is(err, ErrBodyTooLarge) {
		t.Errorf("body over the cap: got %v, want ErrBodyTooLarge", err)
	}
}

func TestDoGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/gone" {
			w.WriteHeader(http.StatusGone)
			return
		}
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	body, status, err := DoGet(context.Background(), srv.URL+"/", nil)
	if err != nil {
		t.Fatalf("DoGet: %v", err)
	}
	defer body.Close()
	data, _ := io.ReadAll(body)
	if status != http.StatusOK || string(data) != "ok" {
		t.Errorf("DoGet: got %d %q", status, data)
	}

	_, status, err = DoGet(context.Background(), srv.URL+"/gone", nil)
	if err == nil || status != http.StatusGone {
		t.Errorf("DoGet(/gone): got status %d err %v", status, err)
	}
}
