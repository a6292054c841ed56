package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"inmo_scrooper/config"
)

func newUpstream(t *testing.T, status int, body string, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if r.Header.Get("Accept-Language") != "es-PY,es;q=0.9,en;q=0.8" {
			t.Errorf("missing browser Accept-Language, got %q", r.Header.Get("Accept-Language"))
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func directOnly() (config.ProxyConfig, config.FetchConfig) {
	return config.ProxyConfig{}, config.FetchConfig{Timeout: 2 * time.Second}
}

func TestFetch_Direct(t *testing.T) {
	var hits int32
	upstream := newUpstream(t, http.StatusOK, "<html>ok</html>", &hits)

	proxyCfg, fetchCfg := directOnly()
	client := NewClient(proxyCfg, fetchCfg, 0)

	body, err := client.Fetch(context.Background(), upstream.URL+"/venta/casas/luque")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(body) != "<html>ok</html>" {
		t.Fatalf("unexpected body %q", body)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("expected 1 upstream hit, got %d", hits)
	}
}

func TestFetch_DirectNon200(t *testing.T) {
	var hits int32
	upstream := newUpstream(t, http.StatusForbidden, "blocked", &hits)

	proxyCfg, fetchCfg := directOnly()
	client := NewClient(proxyCfg, fetchCfg, 0)

	_, err := client.Fetch(context.Background(), upstream.URL)
	if !errors.Is(err, ErrUpstreamStatus) {
		t.Fatalf("expected ErrUpstreamStatus, got %v", err)
	}
}

func TestFetch_BodyOverLimitIsRejected(t *testing.T) {
	prev := maxBodySize
	maxBodySize = 8
	defer func() { maxBodySize = prev }()

	var hits int32
	proxyCfg, fetchCfg := directOnly()
	client := NewClient(proxyCfg, fetchCfg, 0)

	exact := newUpstream(t, http.StatusOK, "12345678", &hits)
	if body, err := client.Fetch(context.Background(), exact.URL); err != nil || string(body) != "12345678" {
		t.Fatalf("body at the limit should pass, got %q, %v", body, err)
	}

	over := newUpstream(t, http.StatusOK, "123456789", &hits)
	_, err := client.Fetch(context.Background(), over.URL)
	if !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("expected ErrBodyTooLarge, got %v", err)
	}
}

func TestFetch_ProxyUsedFirst(t *testing.T) {
	var upstreamHits, proxyHits int32
	upstream := newUpstream(t, http.StatusOK, "direct", &upstreamHits)

	seen := make(chan [2]string, 1)
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&proxyHits, 1)
		seen <- [2]string{r.URL.Query().Get("apikey"), r.URL.Query().Get("url")}
		w.Write([]byte("via proxy"))
	}))
	defer proxy.Close()

	client := NewClient(config.ProxyConfig{
		APIKey:   "secret",
		Enabled:  true,
		Endpoint: proxy.URL + "/request",
		Timeout:  2 * time.Second,
	}, config.FetchConfig{Timeout: 2 * time.Second}, 0)

	target := upstream.URL + "/alquiler/departamentos/asuncion?pagina=2"
	body, err := client.Fetch(context.Background(), target)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(body) != "via proxy" {
		t.Fatalf("expected proxy body, got %q", body)
	}
	got := <-seen
	if got[0] != "secret" || got[1] != target {
		t.Fatalf("proxy got apikey=%q url=%q", got[0], got[1])
	}
	if atomic.LoadInt32(&proxyHits) != 1 || atomic.LoadInt32(&upstreamHits) != 0 {
		t.Fatalf("expected proxy only, got proxy=%d direct=%d", proxyHits, upstreamHits)
	}
}

func TestFetch_ProxyFailureFallsBackToDirect(t *testing.T) {
	var upstreamHits int32
	upstream := newUpstream(t, http.StatusOK, "direct", &upstreamHits)

	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer proxy.Close()

	client := NewClient(config.ProxyConfig{
		APIKey:   "secret",
		Enabled:  true,
		Endpoint: proxy.URL,
		Timeout:  2 * time.Second,
	}, config.FetchConfig{Timeout: 2 * time.Second}, 0)

	body, err := client.Fetch(context.Background(), upstream.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(body) != "direct" || atomic.LoadInt32(&upstreamHits) != 1 {
		t.Fatalf("expected direct fallback, got %q (hits %d)", body, upstreamHits)
	}
}

func TestFetch_ProxyTimeoutFallsBackToDirect(t *testing.T) {
	var upstreamHits int32
	upstream := newUpstream(t, http.StatusOK, "direct", &upstreamHits)

	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer proxy.Close()

	client := NewClient(config.ProxyConfig{
		APIKey:   "secret",
		Enabled:  true,
		Endpoint: proxy.URL,
		Timeout:  50 * time.Millisecond,
	}, config.FetchConfig{Timeout: 2 * time.Second}, 0)

	body, err := client.Fetch(context.Background(), upstream.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(body) != "direct" {
		t.Fatalf("expected direct body, got %q", body)
	}
}

func TestFetch_ProxyDisabledIgnoresKey(t *testing.T) {
	var upstreamHits, proxyHits int32
	upstream := newUpstream(t, http.StatusOK, "direct", &upstreamHits)
	proxy := newUpstream(t, http.StatusOK, "proxy", &proxyHits)

	client := NewClient(config.ProxyConfig{
		APIKey:   "secret",
		Enabled:  false,
		Endpoint: proxy.URL,
		Timeout:  time.Second,
	}, config.FetchConfig{Timeout: time.Second}, 0)

	if _, err := client.Fetch(context.Background(), upstream.URL); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if atomic.LoadInt32(&proxyHits) != 0 {
		t.Fatalf("proxy should not be used when disabled")
	}
}

func TestFetch_CancelledContext(t *testing.T) {
	var hits int32
	upstream := newUpstream(t, http.StatusOK, "ok", &hits)

	proxyCfg, fetchCfg := directOnly()
	client := NewClient(proxyCfg, fetchCfg, time.Hour)

	// first call consumes the only token
	if _, err := client.Fetch(context.Background(), upstream.URL); err != nil {
		t.Fatalf("first fetch: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := client.Fetch(ctx, upstream.URL); err == nil {
		t.Fatalf("expected rate-limit wait to fail on short deadline")
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("expected second fetch to be held back, got %d hits", hits)
	}
}
