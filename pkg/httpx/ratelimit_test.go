package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitByIP(t *testing.T) {
	t.Parallel()

	cfg := RateLimitConfig{RequestsPerWindow: 3, Window: time.Minute, Burst: 3}
	h := Chain(okHandler(), RateLimitByIP(cfg))

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	for range 3 {
		require.Equal(t, http.StatusOK, do("10.0.0.1"))
	}
	require.Equal(t, http.StatusTooManyRequests, do("10.0.0.1"))

	// A different IP has its own bucket.
	require.Equal(t, http.StatusOK, do("10.0.0.2"))
}

func TestRateLimitSetsRetryHeaders(t *testing.T) {
	t.Parallel()

	cfg := RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}
	h := Chain(okHandler(), RateLimitByIP(cfg))

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
	req.RemoteAddr = "10.9.9.9:4321"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
	require.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
}

func TestRateLimitByIPAndJSONField(t *testing.T) {
	t.Parallel()

	cfg := RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute, Burst: 2}
	h := Chain(okHandler(), RateLimitByIPAndJSONField(cfg, "email"))

	do := func(email string) int {
		body := strings.NewReader(`{"email":"` + email + `","password":"x"}`)
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", body)
		req.RemoteAddr = "10.1.1.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusOK, do("a@b.com"))
	require.Equal(t, http.StatusOK, do("a@b.com"))
	require.Equal(t, http.StatusTooManyRequests, do("a@b.com"))

	// Different email from the same IP is a separate bucket.
	require.Equal(t, http.StatusOK, do("c@d.com"))
}

func TestJSONFieldPeekPreservesBody(t *testing.T) {
	t.Parallel()

	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 1024)
		n, _ := r.Body.Read(buf)
		seen = string(buf[:n])
		w.WriteHeader(http.StatusOK)
	})

	cfg := RateLimitConfig{RequestsPerWindow: 10, Window: time.Minute, Burst: 10}
	h := Chain(inner, RateLimitByIPAndJSONField(cfg, "email"))

	payload := `{"email":"a@b.com","password":"hunter22"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(payload))
	req.RemoteAddr = "10.2.2.2:1234"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, payload, seen)
}
