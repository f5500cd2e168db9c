package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAddr(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"", "127.0.0.1:8080"},
		{"0.0.0.0:9090", "127.0.0.1:9090"},
		{"[::]:9090", "127.0.0.1:9090"},
		{":7070", "127.0.0.1:7070"},
		{"10.0.0.5:8080", "10.0.0.5:8080"},
		{"garbage", "127.0.0.1:8080"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeAddr(tt.raw))
		})
	}
}

func TestHealthURL(t *testing.T) {
	assert.Equal(t, "http://127.0.0.1:9090/api/v1/health", healthURL("0.0.0.0:9090"))
}

func TestProbe(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"ok", http.StatusOK, `{"status":"ok","database":"ok"}`, ""},
		{"degraded", http.StatusServiceUnavailable, `{"status":"degraded"}`, "503"},
		{"unexpected status field", http.StatusOK, `{"status":"starting"}`, `"starting"`},
		{"not json", http.StatusOK, `<html>`, "decode health report"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/v1/health", r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			t.Cleanup(srv.Close)

			err := probe(context.Background(), srv.Client(), srv.URL+"/api/v1/health")
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
