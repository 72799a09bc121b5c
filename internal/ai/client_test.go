package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const completionBody = `{
	"choices": [{"message": {"content": "  Team had a good week.  "}}],
	"usage": {"total_tokens": 123}
}`

func TestCompleteSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "gpt-4o-mini")
	comp, err := c.Complete(context.Background(), "system", "user")
	require.NoError(t, err)
	assert.Equal(t, "Team had a good week.", comp.Text)
	assert.Equal(t, 123, comp.TokensUsed)
}

func TestCompleteRetriesTransient(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(completionBody))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "gpt-4o-mini")
	comp, err := c.Complete(context.Background(), "", "user")
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load())
	assert.Equal(t, 123, comp.TokensUsed)
}

func TestCompleteClientErrorNoRetry(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "gpt-4o-mini")
	_, err := c.Complete(context.Background(), "", "user")
	require.Error(t, err)
	assert.Equal(t, int64(1), calls.Load(), "4xx must not be retried")
}

func TestCompleteTimeoutFailsFast(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "gpt-4o-mini")
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.Complete(ctx, "", "user")
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second, "timeout must not trigger the retry loop")
	assert.Equal(t, int64(1), calls.Load())
}

func TestCompleteMissingKey(t *testing.T) {
	c := NewClient("http://localhost:0", "", "gpt-4o-mini")
	_, err := c.Complete(context.Background(), "", "user")
	assert.Error(t, err)
}
