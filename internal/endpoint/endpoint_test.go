package endpoint

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danmuck/gatewayctl/internal/testutil/testlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveReturnsURL(t *testing.T) {
	testlog.Start(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v10/gateway", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"url":"wss://gateway.example.test"}`))
	}))
	defer srv.Close()

	r := NewResolver(srv.URL+"/api/v10/", srv.Client())
	got, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "wss://gateway.example.test", got)
}

func TestResolveFailures(t *testing.T) {
	testlog.Start(t)
	cases := map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "down", http.StatusServiceUnavailable)
		},
		"body": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		},
		"empty": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"url":""}`))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()
			_, err := NewResolver(srv.URL, srv.Client()).Resolve(context.Background())
			require.Error(t, err)
			assert.True(t, strings.HasPrefix(err.Error(), "endpoint: "), "got %v", err)
		})
	}
}

func TestResolveEmptyURLSentinel(t *testing.T) {
	testlog.Start(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()
	_, err := NewResolver(srv.URL, nil).Resolve(context.Background())
	assert.True(t, errors.Is(err, ErrEmptyGatewayURL), "got %v", err)
}

func TestStatic(t *testing.T) {
	testlog.Start(t)
	got, err := Static(" wss://fixed ").Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "wss://fixed", got)
	_, err = Static("").Resolve(context.Background())
	assert.ErrorIs(t, err, ErrEmptyGatewayURL)
}

func TestTransportURL(t *testing.T) {
	testlog.Start(t)
	got, err := TransportURL("wss://gateway.discord.gg", 10, "json")
	require.NoError(t, err)
	assert.Equal(t, "wss://gateway.discord.gg/?encoding=json&v=10", got)

	got, err = TransportURL("wss://resume.example/path?compress=zlib-stream", 0, "")
	require.NoError(t, err)
	assert.Equal(t, "wss://resume.example/path?compress=zlib-stream&encoding=json&v=10", got)

	_, err = TransportURL("not a url", 10, "json")
	assert.ErrorIs(t, err, ErrInvalidURL)
}
