package catapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUpstream(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestImageURLReturnsFirstResult(t *testing.T) {
	t.Parallel()

	srv := newUpstream(t, http.StatusOK, `[{"id":"a1","url":"https://cdn2.thecatapi.com/images/a1.jpg","width":500},{"id":"b2","url":"https://cdn2.thecatapi.com/images/b2.jpg"}]`)
	client := New(WithSearchURL(srv.URL))

	assert.Equal(t, "https://cdn2.thecatapi.com/images/a1.jpg", client.ImageURL(context.Background()))
}

func TestImageURLFallsBack(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status int
		body   string
	}{
		{name: "empty array", status: http.StatusOK, body: `[]`},
		{name: "malformed json", status: http.StatusOK, body: `[{"url":`},
		{name: "object instead of array", status: http.StatusOK, body: `{"url":"https://example.com/x.jpg"}`},
		{name: "missing url", status: http.StatusOK, body: `[{"id":"x"}]`},
		{name: "empty url", status: http.StatusOK, body: `[{"url":""}]`},
		{name: "non-200", status: http.StatusServiceUnavailable, body: `[{"url":"https://example.com/x.jpg"}]`},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			srv := newUpstream(t, tc.status, tc.body)
			client := New(WithSearchURL(srv.URL))
			assert.Equal(t, DefaultFallbackURL, client.ImageURL(context.Background()))
		})
	}
}

func TestImageURLFallsBackOnNetworkError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := New(WithSearchURL(url), WithFallbackURL("https://fallback.example/cat"))
	assert.Equal(t, "https://fallback.example/cat", client.ImageURL(context.Background()))
}

func TestImageURLHonoursTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	client := New(WithSearchURL(srv.URL), WithTimeout(50*time.Millisecond))

	start := time.Now()
	got := client.ImageURL(context.Background())
	assert.Equal(t, DefaultFallbackURL, got)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSearchSendsAPIKey(t *testing.T) {
	t.Parallel()

	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		_, _ = w.Write([]byte(`[{"url":"https://cdn2.thecatapi.com/images/k.jpg"}]`))
	}))
	t.Cleanup(srv.Close)

	client := New(WithSearchURL(srv.URL), WithAPIKey("secret"))
	u, err := client.Search(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://cdn2.thecatapi.com/images/k.jpg", u)
	assert.Equal(t, "secret", gotKey)
}

func TestParseSearchRejectsUnexpectedShape(t *testing.T) {
	t.Parallel()

	_, err := parseSearch([]byte(`[{"url": 42}]`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnexpectedPayload))
}
