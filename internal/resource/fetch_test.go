package resource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"article-extractor/internal/config"
	"article-extractor/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.RetryBackoff = time.Millisecond
	cfg.FetchTimeout = 2 * time.Second
	return cfg
}

func TestParseURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"https", "https://example.com/a", false},
		{"http with port", "http://example.com:8080/a?b=c", false},
		{"no scheme", "foo.com", true},
		{"ftp", "ftp://example.com/file", true},
		{"empty", "", true},
		{"no host", "http:///path", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := ParseURL(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, models.ErrBadURL)
				assert.Nil(t, u)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, u.Hostname())
		})
	}
}

func TestFetch_BadURLSkipsNetwork(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	f := NewFetcher(testConfig(), zerolog.Nop())
	_, err := f.Fetch(context.Background(), "foo.com", nil, false)

	assert.Equal(t, models.KindBadURL, models.KindOf(err))
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestFetch_RetriesGatewayErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body><p>ok</p></body></html>"))
	}))
	defer srv.Close()

	f := NewFetcher(testConfig(), zerolog.Nop())
	res, err := f.Fetch(context.Background(), srv.URL, nil, false)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.EqualValues(t, 3, atomic.LoadInt32(&hits))
}

func TestFetch_GivesUpAfterMaxRetries(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxRetries = 1
	f := NewFetcher(cfg, zerolog.Nop())
	_, err := f.Fetch(context.Background(), srv.URL, nil, false)

	assert.Equal(t, models.KindValidation, models.KindOf(err))
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))
}

func TestFetch_NotFoundIsNotRetried(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("<html><body><p>missing</p></body></html>"))
	}))
	defer srv.Close()

	f := NewFetcher(testConfig(), zerolog.Nop())

	_, err := f.Fetch(context.Background(), srv.URL, nil, false)
	assert.Equal(t, models.KindValidation, models.KindOf(err))
	assert.Contains(t, err.Error(), "404")
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))

	res, err := f.Fetch(context.Background(), srv.URL, nil, true)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestFetch_CookiesFollowRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
		http.Redirect(w, r, "/article", http.StatusFound)
	})
	mux.HandleFunc("/article", func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("session")
		if err != nil || c.Value != "abc" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body><p>hello</p></body></html>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewFetcher(testConfig(), zerolog.Nop())
	res, err := f.Fetch(context.Background(), srv.URL+"/start", nil, false)

	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/article", res.URL)
}

func TestFetch_CallerHeadersWin(t *testing.T) {
	var gotUA, gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body><p>ok</p></body></html>"))
	}))
	defer srv.Close()

	f := NewFetcher(testConfig(), zerolog.Nop())
	_, err := f.Fetch(context.Background(), srv.URL, map[string]string{"User-Agent": "custom/1.0"}, false)

	require.NoError(t, err)
	assert.Equal(t, "custom/1.0", gotUA)
	assert.Equal(t, "en-US,en;q=0.9", gotLang)
}

func TestFetch_RejectsBadContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("\x89PNG"))
	}))
	defer srv.Close()

	f := NewFetcher(testConfig(), zerolog.Nop())
	_, err := f.Fetch(context.Background(), srv.URL, nil, false)

	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Contains(t, err.Error(), "image/png")
}

func TestFetch_StreamingBodyOverLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		flusher := w.(http.Flusher)
		chunk := []byte(strings.Repeat("a", 512))
		for i := 0; i < 8; i++ {
			_, _ = w.Write(chunk)
			flusher.Flush()
		}
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxContentLength = 1024
	f := NewFetcher(cfg, zerolog.Nop())
	_, err := f.Fetch(context.Background(), srv.URL, nil, false)

	require.Error(t, err)
	assert.Equal(t, models.KindValidation, models.KindOf(err))
	assert.Contains(t, err.Error(), "too large")
}

func TestFetch_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	f := NewFetcher(testConfig(), zerolog.Nop())
	_, err := f.Fetch(ctx, srv.URL, nil, false)

	assert.Equal(t, models.KindFetch, models.KindOf(err))
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestFetch_RetriesConnectionResets(t *testing.T) {
	var calls int32
	stub := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return nil, fmt.Errorf("read tcp: %w", syscall.ECONNRESET)
		}
		return &http.Response{
			StatusCode:    http.StatusOK,
			Header:        http.Header{"Content-Type": {"text/html"}},
			Body:          io.NopCloser(strings.NewReader("<p>third time</p>")),
			ContentLength: -1,
			Request:       req,
		}, nil
	})

	f := NewFetcher(testConfig(), zerolog.Nop()).WithTransport(stub)
	res, err := f.Fetch(context.Background(), "https://example.com/a", nil, false)
	require.NoError(t, err)

	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
	assert.Equal(t, "<p>third time</p>", string(res.Body))
	assert.Equal(t, "https://example.com/a", res.URL)
}

func TestFetch_TransportErrorIsFetchError(t *testing.T) {
	var calls int32
	stub := roundTripFunc(func(*http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return nil, fmt.Errorf("dial: %w", syscall.EHOSTUNREACH)
	})

	f := NewFetcher(testConfig(), zerolog.Nop()).WithTransport(stub)
	_, err := f.Fetch(context.Background(), "https://example.com/a", nil, false)

	assert.ErrorIs(t, err, models.ErrFetch)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls), "not a transient failure")
}
