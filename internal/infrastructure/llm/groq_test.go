package llm

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateStories_Success(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, sonic.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"llama-3.1-8b-instant","choices":[{"message":{"role":"assistant","content":"  As a user, I want to log in, so that I can work.\n\n  As an admin, I want to manage users, so that access is controlled.  \n"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "key-1", BaseURL: srv.URL + "/"}, nil)
	stories, err := c.GenerateStories(context.Background(), "A tracker")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"As a user, I want to log in, so that I can work.",
		"As an admin, I want to manage users, so that access is controlled.",
	}, stories)

	assert.Equal(t, DefaultModel, got.Model)
	assert.Equal(t, DefaultTemperature, got.Temperature)
	assert.Equal(t, DefaultMaxTokens, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.True(t, strings.Contains(got.Messages[0].Content, "A tracker"))
}

func TestGenerateStories_NotConfigured(t *testing.T) {
	c := NewClient(Config{}, nil)
	_, err := c.GenerateStories(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestGenerateStories_UpstreamFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"api error", http.StatusUnauthorized, `{"error":{"message":"Invalid API Key"}}`, "Invalid API Key"},
		{"bad gateway", http.StatusBadGateway, `<html>`, "status 502"},
		{"garbage", http.StatusOK, `not json`, "decoding response"},
		{"no choices", http.StatusOK, `{"choices":[]}`, "empty completion"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, nil)
			_, err := c.GenerateStories(context.Background(), "x")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestGenerateStories_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, nil)
	_, err := c.GenerateStories(context.Background(), "x")
	assert.Error(t, err)
}

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{}, splitLines("  \n \n"))
	assert.Equal(t, []string{"a", "b"}, splitLines("a\r\nb"))
}
