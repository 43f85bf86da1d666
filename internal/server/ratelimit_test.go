package server

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiter_AllowsWithinBurst(t *testing.T) {
	t.Parallel()

	rl, stop := newRateLimiter(1, 3, slog.Default())
	defer stop()

	h := rl.middleware(okHandler)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/query", nil)
		req.RemoteAddr = "10.0.0.1:54321"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}
}

func TestRateLimiter_RejectsBeyondBurst(t *testing.T) {
	t.Parallel()

	rl, stop := newRateLimiter(1, 2, slog.Default())
	defer stop()

	h := rl.middleware(okHandler)

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/query", nil)
		req.RemoteAddr = "10.0.0.2:54321"
		last = httptest.NewRecorder()
		h.ServeHTTP(last, req)
	}

	if last.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429 after burst exhausted, got %d", last.Code)
	}
	if last.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header on 429")
	}
}

func TestRateLimiter_IsolatesIPs(t *testing.T) {
	t.Parallel()

	rl, stop := newRateLimiter(1, 1, slog.Default())
	defer stop()

	h := rl.middleware(okHandler)

	// Exhaust the first IP's bucket.
	req := httptest.NewRequest(http.MethodPost, "/api/query", nil)
	req.RemoteAddr = "10.0.0.3:1111"
	h.ServeHTTP(httptest.NewRecorder(), req)

	// A different IP still has a full bucket.
	req2 := httptest.NewRequest(http.MethodPost, "/api/query", nil)
	req2.RemoteAddr = "10.0.0.4:2222"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req2)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200 for unrelated IP, got %d", w.Code)
	}
}

func TestRateLimiter_EvictsStaleEntries(t *testing.T) {
	t.Parallel()

	rl, stop := newRateLimiter(1, 1, slog.Default())
	defer stop()

	rl.getLimiter("10.0.0.5")
	rl.mu.Lock()
	rl.limiters["10.0.0.5"].lastSeen = time.Now().Add(-10 * time.Minute)
	rl.mu.Unlock()

	rl.evict()

	rl.mu.Lock()
	_, ok := rl.limiters["10.0.0.5"]
	rl.mu.Unlock()
	if ok {
		t.Error("expected stale entry to be evicted")
	}
}

func TestClientIP_StripsPort(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.10:44321"

	if got := clientIP(req); got != "192.168.1.10" {
		t.Errorf("expected 192.168.1.10, got %q", got)
	}
}
